// Package twilio delivers digest text to SMS recipients. Message bodies
// are capped at ten SMS segments; longer digests are truncated with an
// ellipsis rather than rejected.
package twilio

import (
	"fmt"
	"log/slog"
	"strings"

	twiliosdk "github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/couchcryptid/dive-conditions/internal/config"
)

const (
	segmentLength = 160
	maxSegments   = 10
	maxBodyLength = segmentLength * maxSegments
)

// messageCreator is the slice of the Twilio REST client the sender uses.
type messageCreator interface {
	CreateMessage(params *api.CreateMessageParams) (*api.ApiV2010Message, error)
}

// Sender sends SMS messages through the Twilio API.
type Sender struct {
	api    messageCreator
	from   string
	logger *slog.Logger
}

// NewSender creates an SMS sender from the configured Twilio credentials.
// Callers should check config.TwilioConfigured before constructing one.
func NewSender(cfg *config.Config, logger *slog.Logger) *Sender {
	client := twiliosdk.NewRestClientWithParams(twiliosdk.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})
	return &Sender{api: client.Api, from: cfg.TwilioFromNumber, logger: logger}
}

// Result records the outcome of one SMS send.
type Result struct {
	To       string
	SID      string
	Segments int
	Err      error
}

// SendDigest sends the digest text to every recipient. A failed send is
// recorded in its Result and does not stop the rest of the batch.
func (s *Sender) SendDigest(recipients []string, text string) []Result {
	results := make([]Result, 0, len(recipients))
	for _, to := range recipients {
		results = append(results, s.send(to, text))
	}
	return results
}

func (s *Sender) send(to, body string) Result {
	to = normalizeNumber(to)

	if len(body) > maxBodyLength {
		body = body[:maxBodyLength-3] + "..."
		s.logger.Warn("sms body truncated", "to", to, "limit", maxBodyLength)
	}
	segments := (len(body) + segmentLength - 1) / segmentLength

	params := &api.CreateMessageParams{}
	params.SetBody(body)
	params.SetFrom(s.from)
	params.SetTo(to)

	msg, err := s.api.CreateMessage(params)
	if err != nil {
		s.logger.Warn("sms send failed", "to", to, "error", err)
		return Result{To: to, Segments: segments, Err: fmt.Errorf("send sms to %s: %w", to, err)}
	}

	result := Result{To: to, Segments: segments}
	if msg.Sid != nil {
		result.SID = *msg.Sid
	}
	s.logger.Info("sms sent", "to", to, "sid", result.SID, "segments", segments)
	return result
}

// normalizeNumber coerces bare ten-digit numbers into E.164 by assuming
// a US country code.
func normalizeNumber(to string) string {
	if strings.HasPrefix(to, "+") {
		return to
	}
	return "+1" + to
}
