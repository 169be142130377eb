// Package config loads and exposes application configuration (TOML).
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath   = "config.toml"
	DefaultHTTPAddr     = ":8080"
	DefaultSiteURL      = "https://pgagates.com"
	DefaultJWTExpiresIn = "8h"
	DefaultBranch       = "main"
	DefaultGalleryDir   = "data/gallery"
)

// Config is the root application configuration loaded from TOML.
type Config struct {
	Log     LogConfig     `toml:"log"`
	Server  ServerConfig  `toml:"server"`
	Site    SiteConfig    `toml:"site"`
	Admin   AdminConfig   `toml:"admin"`
	Auth    AuthConfig    `toml:"auth"`
	Storage StorageConfig `toml:"storage"`
	GitHub  GitHubConfig  `toml:"github"`
	Mail    MailConfig    `toml:"mail"`
	Captcha CaptchaConfig `toml:"captcha"`
	Quote   QuoteConfig   `toml:"quote"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig holds the HTTP server listen address.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// SiteConfig holds the public site identity used by pages and SEO output.
type SiteConfig struct {
	BaseURL      string   `toml:"base_url"`
	Name         string   `toml:"name"`
	Tagline      string   `toml:"tagline"`
	Phone        string   `toml:"phone"`
	Email        string   `toml:"email"`
	ServiceAreas []string `toml:"service_areas"`
	ReviewsFile  string   `toml:"reviews_file"`
}

// AdminConfig holds the admin login credentials.
type AdminConfig struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// AuthConfig holds JWT secret and token expiry (e.g. 8h).
type AuthConfig struct {
	JWTSecret    string `toml:"jwt_secret"`
	JWTExpiresIn string `toml:"jwt_expires_in"`
}

// StorageConfig selects the gallery blob store backend.
type StorageConfig struct {
	// Backend is "github" (commit to a content repo) or "local" (on-disk
	// gallery folder).
	Backend string `toml:"backend"`
	// Dir is the local gallery root (local backend only).
	Dir string `toml:"dir"`
}

// GitHubConfig holds the content repository coordinates (github backend).
type GitHubConfig struct {
	Repo   string `toml:"repo"` // "owner/repo"
	Token  string `toml:"token"`
	Branch string `toml:"branch"`
}

// MailConfig selects the quote email delivery provider.
type MailConfig struct {
	// Provider is "mailgun", "smtp", or "log" (log-only, for development).
	Provider string        `toml:"provider"`
	To       string        `toml:"to"`
	From     string        `toml:"from"`
	FromName string        `toml:"from_name"`
	Mailgun  MailgunConfig `toml:"mailgun"`
	SMTP     SMTPConfig    `toml:"smtp"`
}

// MailgunConfig holds Mailgun API credentials.
type MailgunConfig struct {
	Domain string `toml:"domain"`
	APIKey string `toml:"api_key"`
}

// SMTPConfig holds SMTP relay settings.
type SMTPConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// CaptchaConfig holds the reCAPTCHA server-side secret.
type CaptchaConfig struct {
	Secret string `toml:"secret"`
}

// QuoteConfig tunes the quote form rate limiter (requests per minute, per IP).
type QuoteConfig struct {
	PerMinute int `toml:"per_minute"`
	Burst     int `toml:"burst"`
}

// Load reads and parses the TOML config file at path and applies default
// values for missing fields.
func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Site: SiteConfig{
			BaseURL: DefaultSiteURL,
			Name:    "Precision Gates & Automation",
			Tagline: "Custom gate installation and access control across Colorado",
		},
		Admin: AdminConfig{
			Username: "admin",
			Password: "change-your-password-here",
		},
		Auth: AuthConfig{
			JWTExpiresIn: DefaultJWTExpiresIn,
		},
		Storage: StorageConfig{
			Backend: "local",
			Dir:     DefaultGalleryDir,
		},
		GitHub: GitHubConfig{
			Branch: DefaultBranch,
		},
		Mail: MailConfig{
			Provider: "log",
			FromName: "Precision Gates Form",
		},
		Quote: QuoteConfig{
			PerMinute: 6,
			Burst:     3,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
