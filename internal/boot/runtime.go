// Package boot provides runtime configuration and dependency wiring for the site server.
package boot

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pgagates/gatesite/internal/config"
)

// RuntimeConfig holds parsed runtime settings (JWT, server address, secrets).
// Secrets may be overridden by environment variables so they can stay out
// of config.toml (e.g. HTTP_ADDR, GITHUB_TOKEN, MAILGUN_API_KEY,
// RECAPTCHA_SECRET).
type RuntimeConfig struct {
	JwtSecret     string
	JwtExpiresIn  time.Duration
	ServerAddr    string
	GitHubToken   string
	MailgunAPIKey string
	CaptchaSecret string
	SMTPPassword  string
	AdminPassword string
}

// ProvideRuntimeConfig builds RuntimeConfig from the given config and applies env overrides.
func ProvideRuntimeConfig(cfg config.Config) (*RuntimeConfig, error) {
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return nil, errors.New("jwt secret is required")
	}

	jwtExpiresIn, err := time.ParseDuration(cfg.Auth.JWTExpiresIn)
	if err != nil {
		return nil, fmt.Errorf("invalid jwt expires in: %w", err)
	}

	ret := &RuntimeConfig{
		JwtSecret:     cfg.Auth.JWTSecret,
		JwtExpiresIn:  jwtExpiresIn,
		ServerAddr:    cfg.Server.Addr,
		GitHubToken:   cfg.GitHub.Token,
		MailgunAPIKey: cfg.Mail.Mailgun.APIKey,
		CaptchaSecret: cfg.Captcha.Secret,
		SMTPPassword:  cfg.Mail.SMTP.Password,
		AdminPassword: cfg.Admin.Password,
	}

	if value := os.Getenv("HTTP_ADDR"); value != "" {
		ret.ServerAddr = value
	}
	if value := os.Getenv("GITHUB_TOKEN"); value != "" {
		ret.GitHubToken = value
	}
	if value := os.Getenv("MAILGUN_API_KEY"); value != "" {
		ret.MailgunAPIKey = value
	}
	if value := os.Getenv("RECAPTCHA_SECRET"); value != "" {
		ret.CaptchaSecret = value
	}
	if value := os.Getenv("SMTP_PASSWORD"); value != "" {
		ret.SMTPPassword = value
	}
	if value := os.Getenv("ADMIN_PASSWORD"); value != "" {
		ret.AdminPassword = value
	}
	return ret, nil
}
