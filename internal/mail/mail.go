// Package mail delivers transactional email for the quote form. Two real
// providers are supported (Mailgun API, SMTP relay) plus a log-only sender
// for development.
package mail

import (
	"context"
	"log/slog"
)

// Message is one outbound email.
type Message struct {
	To          string
	From        string
	FromName    string
	ReplyTo     string
	ReplyToName string
	Subject     string
	Text        string
	HTML        string
}

// Sender delivers a message to the sales inbox.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender logs instead of sending. Used when no provider is configured
// so the quote flow still works in development.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a log-only sender.
func NewLogSender(log *slog.Logger) *LogSender {
	if log == nil {
		log = slog.Default()
	}
	return &LogSender{logger: log.With(slog.String("service", "mail"))}
}

// Send logs the message.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("quote email (no provider configured)",
		slog.String("to", msg.To),
		slog.String("reply_to", msg.ReplyTo),
		slog.String("subject", msg.Subject),
		slog.String("text", msg.Text))
	return nil
}
