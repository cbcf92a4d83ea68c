// Package sendgrid delivers digest emails through the SendGrid API. Every
// message carries both a plain text and an HTML body.
package sendgrid

import (
	"fmt"
	"log/slog"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/couchcryptid/dive-conditions/internal/config"
)

const fromName = "Oahu Dive Conditions"

// emailSender is the slice of the SendGrid client the sender uses.
type emailSender interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

// Sender sends digest emails through the SendGrid API.
type Sender struct {
	client    emailSender
	fromEmail string
	logger    *slog.Logger
}

// NewSender creates an email sender from the configured SendGrid key.
// Callers should check config.SendGridConfigured before constructing one.
func NewSender(cfg *config.Config, logger *slog.Logger) *Sender {
	return &Sender{
		client:    sendgrid.NewSendClient(cfg.SendGridAPIKey),
		fromEmail: cfg.SendGridFromEmail,
		logger:    logger,
	}
}

// Result records the outcome of one email send.
type Result struct {
	To         string
	StatusCode int
	MessageID  string
	Err        error
}

// SendDigest sends the digest to every recipient. A failed send is
// recorded in its Result and does not stop the rest of the batch.
func (s *Sender) SendDigest(recipients []string, subject, textBody, htmlBody string) []Result {
	results := make([]Result, 0, len(recipients))
	for _, to := range recipients {
		results = append(results, s.send(to, subject, textBody, htmlBody))
	}
	return results
}

func (s *Sender) send(to, subject, textBody, htmlBody string) Result {
	from := mail.NewEmail(fromName, s.fromEmail)
	msg := mail.NewSingleEmail(from, subject, mail.NewEmail("", to), textBody, htmlBody)

	resp, err := s.client.Send(msg)
	if err != nil {
		s.logger.Warn("email send failed", "to", to, "error", err)
		return Result{To: to, Err: fmt.Errorf("send email to %s: %w", to, err)}
	}

	result := Result{To: to, StatusCode: resp.StatusCode}
	if ids := resp.Headers["X-Message-Id"]; len(ids) > 0 {
		result.MessageID = ids[0]
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result.Err = fmt.Errorf("sendgrid status %d sending to %s", resp.StatusCode, to)
		s.logger.Warn("email rejected", "to", to, "status", resp.StatusCode)
		return result
	}

	s.logger.Info("email sent", "to", to, "message_id", result.MessageID)
	return result
}
