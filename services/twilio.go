package services

import (
	"context"
	"fmt"
	"os"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioSender delivers WhatsApp and SMS reminders through the Twilio API.
// One instance per channel; WhatsApp numbers carry the "whatsapp:" prefix on
// both ends of the message.
type TwilioSender struct {
	client   *twilio.RestClient
	from     string
	whatsapp bool
}

func NewTwilioWhatsAppSender(client *twilio.RestClient, from string) *TwilioSender {
	return &TwilioSender{client: client, from: from, whatsapp: true}
}

func NewTwilioSMSSender(client *twilio.RestClient, from string) *TwilioSender {
	return &TwilioSender{client: client, from: from, whatsapp: false}
}

// NewTwilioClientFromEnv builds the shared REST client from TWILIO_ACCOUNT_SID
// and TWILIO_AUTH_TOKEN.
func NewTwilioClientFromEnv() *twilio.RestClient {
	return twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: os.Getenv("TWILIO_ACCOUNT_SID"),
		Password: os.Getenv("TWILIO_AUTH_TOKEN"),
	})
}

func (s *TwilioSender) Send(_ context.Context, contact, message string) error {
	to := contact
	from := s.from
	if s.whatsapp {
		to = "whatsapp:" + contact
		from = "whatsapp:" + from
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(message)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return err
	}
	if resp.Sid == nil {
		return fmt.Errorf("twilio accepted message to %s but returned no SID", contact)
	}
	return nil
}
