// Package quote handles contact/quote form submissions: sanitize, validate,
// filter bots, verify the captcha, then email the sales inbox.
package quote

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/pgagates/gatesite/internal/captcha"
	"github.com/pgagates/gatesite/internal/mail"
)

// Errors returned by Submit.
var (
	// ErrInvalid indicates a bad name, email, or missing captcha token.
	ErrInvalid = errors.New("invalid quote request")
	// ErrCaptcha indicates the captcha challenge failed.
	ErrCaptcha = errors.New("captcha verification failed")
	// ErrRateLimited indicates the remote IP exceeded the submission budget.
	ErrRateLimited = errors.New("too many requests")
	// ErrDelivery indicates the email provider rejected the message.
	ErrDelivery = errors.New("email delivery failed")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const maxFieldLen = 2000

// Request is one submitted quote form.
type Request struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	GateType       string `json:"type"`
	Message        string `json:"message"`
	RecaptchaToken string `json:"recaptchaToken"`
	// Company is the honeypot field: hidden in the form, bots fill it.
	Company string `json:"company"`
}

// Service validates and delivers quote requests.
type Service struct {
	verifier captcha.Verifier
	sender   mail.Sender
	to       string
	from     string
	fromName string
	limiter  *ipLimiter
	logger   *slog.Logger
}

// NewService creates the quote service.
func NewService(log *slog.Logger, verifier captcha.Verifier, sender mail.Sender, to, from, fromName string, perMinute, burst int) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		verifier: verifier,
		sender:   sender,
		to:       to,
		from:     from,
		fromName: fromName,
		limiter:  newIPLimiter(perMinute, burst),
		logger:   log.With(slog.String("service", "quote")),
	}
}

// Submit processes one quote request from remoteIP. A filled honeypot
// returns success without doing anything, so bots learn nothing.
func (s *Service) Submit(ctx context.Context, req Request, remoteIP string) error {
	requestID := uuid.NewString()
	log := s.logger.With(slog.String("request_id", requestID))

	if strings.TrimSpace(req.Company) != "" {
		log.Info("honeypot tripped, dropping submission", slog.String("remote_ip", remoteIP))
		return nil
	}
	if !s.limiter.allow(remoteIP) {
		log.Warn("quote rate limited", slog.String("remote_ip", remoteIP))
		return ErrRateLimited
	}

	req = sanitizeRequest(req)
	if req.Name == "" || !emailPattern.MatchString(req.Email) {
		return fmt.Errorf("%w: name and a valid email are required", ErrInvalid)
	}

	if s.verifier != nil {
		if err := s.verifier.Verify(ctx, req.RecaptchaToken, remoteIP); err != nil {
			log.Warn("captcha failed", slog.Any("error", err))
			return fmt.Errorf("%w: %v", ErrCaptcha, err)
		}
	}

	msg := mail.Message{
		To:          s.to,
		From:        s.from,
		FromName:    s.fromName,
		ReplyTo:     req.Email,
		ReplyToName: req.Name,
		Subject:     "New Quote Request",
		Text:        textBody(req),
		HTML:        htmlBody(req),
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		log.Error("quote email failed", slog.Any("error", err))
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	log.Info("quote delivered", slog.String("email", req.Email))
	return nil
}

func sanitizeRequest(req Request) Request {
	req.Name = sanitize(req.Name)
	req.Email = sanitize(req.Email)
	req.Phone = sanitize(req.Phone)
	req.Address = sanitize(req.Address)
	req.GateType = sanitize(req.GateType)
	req.Message = sanitize(req.Message)
	return req
}

func sanitize(v string) string {
	v = strings.TrimSpace(v)
	runes := []rune(v)
	if len(runes) > maxFieldLen {
		v = string(runes[:maxFieldLen])
	}
	return v
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

func textBody(req Request) string {
	return fmt.Sprintf(`New Quote Request

Name:    %s
Email:   %s
Phone:   %s
Address: %s

Type:    %s

Message:
%s`,
		req.Name, req.Email, orDash(req.Phone), orDash(req.Address),
		orDash(req.GateType), orDash(req.Message))
}

func htmlBody(req Request) string {
	esc := html.EscapeString
	var b strings.Builder
	b.WriteString(`<h2 style="margin:0 0 12px">New Quote Request</h2>`)
	b.WriteString(`<table cellspacing="0" cellpadding="6" style="border-collapse:collapse">`)
	for _, row := range [][2]string{
		{"Name", req.Name},
		{"Email", req.Email},
		{"Phone", orDash(req.Phone)},
		{"Address", orDash(req.Address)},
		{"Type", orDash(req.GateType)},
	} {
		fmt.Fprintf(&b, `<tr><td><strong>%s</strong></td><td>%s</td></tr>`, row[0], esc(row[1]))
	}
	b.WriteString(`</table>`)
	b.WriteString(`<p style="margin:16px 0 6px;font-weight:600">Message</p>`)
	fmt.Fprintf(&b, `<pre style="white-space:pre-wrap;background:#f6f6f6;padding:12px">%s</pre>`, esc(orDash(req.Message)))
	return b.String()
}
