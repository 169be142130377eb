// Package admin provides the single-account credential check for the admin area.
package admin

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when the username or password does not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service validates admin logins. There is exactly one admin account,
// configured at startup; the plaintext password never outlives construction.
type Service struct {
	username     string
	passwordHash []byte
	logger       *slog.Logger
}

// NewService hashes the configured password and returns the credential service.
func NewService(log *slog.Logger, username, password string) (*Service, error) {
	if log == nil {
		log = slog.Default()
	}
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return nil, errors.New("admin username and password are required")
	}
	if password == "change-your-password-here" {
		log.Warn("admin password uses the default placeholder; update config.toml")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return &Service{
		username:     username,
		passwordHash: hash,
		logger:       log.With(slog.String("service", "admin")),
	}, nil
}

// Login checks the supplied credentials against the configured account.
func (s *Service) Login(username, password string) error {
	if strings.TrimSpace(username) != s.username {
		// Burn a comparison anyway so missing and wrong usernames take
		// the same time.
		_ = bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Username returns the configured admin username.
func (s *Service) Username() string {
	return s.username
}
