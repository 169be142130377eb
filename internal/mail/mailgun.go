package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mailgun/mailgun-go/v5"
)

// MailgunSender delivers via the Mailgun messages API.
type MailgunSender struct {
	client *mailgun.Client
	domain string
	logger *slog.Logger
}

// NewMailgunSender creates a Mailgun-backed sender for the given domain.
func NewMailgunSender(log *slog.Logger, domain, apiKey string) (*MailgunSender, error) {
	if log == nil {
		log = slog.Default()
	}
	if domain == "" || apiKey == "" {
		return nil, fmt.Errorf("mailgun domain and api key are required")
	}
	return &MailgunSender{
		client: mailgun.NewMailgun(apiKey),
		domain: domain,
		logger: log.With(slog.String("service", "mail"), slog.String("provider", "mailgun")),
	}, nil
}

// Send submits the message to Mailgun.
func (s *MailgunSender) Send(ctx context.Context, msg Message) error {
	from := msg.From
	if msg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", msg.FromName, msg.From)
	}
	m := mailgun.NewMessage(s.domain, from, msg.Subject, msg.Text, msg.To)
	if msg.HTML != "" {
		m.SetHTML(msg.HTML)
	}
	if msg.ReplyTo != "" {
		m.SetReplyTo(msg.ReplyTo)
	}

	resp, err := s.client.Send(ctx, m)
	if err != nil {
		return fmt.Errorf("mailgun send: %w", err)
	}
	s.logger.Info("quote email sent",
		slog.String("to", msg.To),
		slog.String("message_id", resp.ID))
	return nil
}
