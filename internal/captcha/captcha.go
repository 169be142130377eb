// Package captcha verifies reCAPTCHA v2 tokens against Google's siteverify
// endpoint.
package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// Verifier checks captcha tokens submitted with the quote form.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// Client is the Google siteverify client.
type Client struct {
	secret    string
	verifyURL string
	client    *http.Client
	logger    *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithVerifyURL overrides the siteverify endpoint (tests).
func WithVerifyURL(u string) Option {
	return func(c *Client) { c.verifyURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// New creates a verifier with the given server-side secret.
func New(log *slog.Logger, secret string, opts ...Option) *Client {
	if log == nil {
		log = slog.Default()
	}
	c := &Client{
		secret:    secret,
		verifyURL: defaultVerifyURL,
		client:    &http.Client{Timeout: 10 * time.Second},
		logger:    log.With(slog.String("service", "captcha")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type verifyResponse struct {
	Success    bool     `json:"success"`
	Hostname   string   `json:"hostname"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify posts the token to siteverify. A missing token or a failed
// challenge is an error; the caller decides how to respond.
func (c *Client) Verify(ctx context.Context, token, remoteIP string) error {
	if strings.TrimSpace(c.secret) == "" {
		return fmt.Errorf("captcha secret not configured")
	}
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("captcha token is required")
	}

	form := url.Values{"secret": {c.secret}, "response": {token}}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("captcha verify: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("captcha verify: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("captcha verify: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("captcha verify: status %d", resp.StatusCode)
	}
	var result verifyResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("captcha verify: decode: %w", err)
	}
	if !result.Success {
		c.logger.Warn("captcha rejected", slog.Any("error_codes", result.ErrorCodes))
		return fmt.Errorf("captcha verification failed")
	}
	return nil
}
