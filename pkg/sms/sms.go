package sms

import (
	"fmt"
	"strings"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Client wraps the Twilio REST API for plain text messages. A single
// synchronous attempt per call; retry policy belongs to the caller.
type Client struct {
	rest *twilio.RestClient
	from string
}

func NewClient(accountSID, authToken, fromNumber string, timeout time.Duration) (*Client, error) {
	if accountSID == "" || authToken == "" || fromNumber == "" {
		return nil, fmt.Errorf("missing SMS configuration: AccountSID, AuthToken, or FromNumber is empty")
	}
	rest := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	rest.SetTimeout(timeout)
	return &Client{rest: rest, from: fromNumber}, nil
}

func (c *Client) Send(toNumber, body string) error {
	if !strings.HasPrefix(toNumber, "+") {
		return fmt.Errorf("invalid phone number: %s", toNumber)
	}

	params := &twilioApi.CreateMessageParams{
		To:   &toNumber,
		From: &c.from,
		Body: &body,
	}

	if _, err := c.rest.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("failed to send SMS to %s: %v", toNumber, err)
	}
	return nil
}
