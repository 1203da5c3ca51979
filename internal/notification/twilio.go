package notification

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// MessageCreator is the part of the Twilio REST API used for sending.
type MessageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioSender delivers messages through the Twilio messaging gateway.
type TwilioSender struct {
	api    MessageCreator
	from   string
	prefix string
}

// NewTwilioSender creates a sender authenticated with the account credentials.
// prefix is prepended to bare identities, e.g. "whatsapp:". timeout bounds
// every HTTP call to the gateway; zero keeps the client default.
func NewTwilioSender(accountSID, authToken, from, prefix string, timeout time.Duration) *TwilioSender {
	return NewTwilioSenderWithAPI(newRestClient(accountSID, authToken, timeout).Api, from, prefix)
}

// newRestClient builds the REST client. The gateway client does not take a
// context, so the deadline lives on its HTTP client.
func newRestClient(accountSID, authToken string, timeout time.Duration) *twilio.RestClient {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return client
}

// NewTwilioSenderWithAPI creates a sender on top of an existing message API.
func NewTwilioSenderWithAPI(api MessageCreator, from, prefix string) *TwilioSender {
	return &TwilioSender{api: api, from: from, prefix: prefix}
}

// Send creates one outbound message.
func (s *TwilioSender) Send(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(s.from)
	params.SetTo(s.address(to))
	params.SetBody(body)

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send to %s: %w", to, err)
	}
	if resp != nil && resp.Sid != nil {
		log.Printf("Message %s queued for %s", *resp.Sid, to)
	}
	return nil
}

func (s *TwilioSender) address(identity string) string {
	if s.prefix == "" || strings.HasPrefix(identity, s.prefix) {
		return identity
	}
	return s.prefix + identity
}
