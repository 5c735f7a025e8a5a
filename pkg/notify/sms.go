// Package notify sends SMS to callers, primarily the registration link
// in the hybrid voice+web intake flow.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/dentaldesk/voicedesk/pkg/errorsx"
	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
)

// Sender delivers a text message to one recipient.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

type messageCreator interface {
	CreateMessage(params *api.CreateMessageParams) (*api.ApiV2010Message, error)
}

type Config struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// SMSSender sends via the Twilio REST API.
type SMSSender struct {
	cfg    Config
	client messageCreator
}

func NewSMSSender(cfg Config) *SMSSender {
	return &SMSSender{cfg: cfg}
}

func (s *SMSSender) Send(ctx context.Context, to, body string) error {
	_ = ctx
	if to == "" || body == "" {
		return errorsx.Wrap(errors.New("to/body required"), errorsx.ReasonNotifySend)
	}
	if s.cfg.AccountSID == "" || s.cfg.AuthToken == "" || s.cfg.FromNumber == "" {
		return errorsx.Wrap(errors.New("missing twilio credentials"), errorsx.ReasonNotifySend)
	}
	client := s.client
	if client == nil {
		rest := twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: s.cfg.AccountSID,
			Password: s.cfg.AuthToken,
		})
		client = rest.Api
	}
	params := &api.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.cfg.FromNumber)
	params.SetBody(body)
	resp, err := client.CreateMessage(params)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonNotifySend)
	}
	if resp == nil || resp.Sid == nil {
		return errorsx.Wrap(fmt.Errorf("missing message sid"), errorsx.ReasonNotifySend)
	}
	return nil
}

// RegistrationLinkBody formats the SMS sent after voice intake.
func RegistrationLinkBody(practiceName, url string) string {
	return fmt.Sprintf("%s: complete your new patient registration here: %s (link expires in 24 hours)", practiceName, url)
}

// NoopSender drops messages. Used when SMS is not configured.
type NoopSender struct{}

func (NoopSender) Send(ctx context.Context, to, body string) error { return nil }
