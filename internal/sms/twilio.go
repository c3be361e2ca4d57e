package sms

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const twilioDefaultBaseURL = "https://api.twilio.com"

// TwilioConfig holds Twilio REST API credentials. BaseURL defaults to the
// production API and is overridden in tests.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	BaseURL    string
	Priority   int
}

// TwilioProvider sends SMS via the Twilio REST API.
type TwilioProvider struct {
	*Pipeline
}

// NewTwilioProvider creates a TwilioProvider. Account SID, auth token and a
// default sender are required.
func NewTwilioProvider(cfg TwilioConfig, opts ...Option) (*TwilioProvider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = twilioDefaultBaseURL
	}
	p, err := NewPipeline("twilio", cfg.Priority, Adapter{
		ProviderOptions: []string{"account_sid", "auth_token", "from"},
		Options: func() map[string]string {
			return map[string]string{"account_sid": cfg.AccountSID, "auth_token": cfg.AuthToken, "from": cfg.From}
		},
		MessageOptions: []string{"recipients", "body"},
		MaxRecipients:  1,
		URL: func(*Message) (string, error) {
			return fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", cfg.BaseURL, cfg.AccountSID), nil
		},
		Method: http.MethodPost,
		Payload: func(msg *Message) ([]byte, error) {
			to := msg.Recipients()[0]
			form := url.Values{}
			form.Set("To", to)
			form.Set("From", sender(msg, cfg.From))
			form.Set("Body", msg.Body())
			return []byte(form.Encode()), nil
		},
		Headers: func(*Message, []byte) (http.Header, error) {
			h := http.Header{}
			h.Set("Content-Type", "application/x-www-form-urlencoded")
			h.Set("Authorization", basicAuth(cfg.AccountSID, cfg.AuthToken))
			return h, nil
		},
		HandleResponse: handleTwilioResponse,
	}, opts...)
	if err != nil {
		return nil, err
	}
	return &TwilioProvider{Pipeline: p}, nil
}

func handleTwilioResponse(reply *Reply) (any, error) {
	if reply.Err != nil {
		return nil, TransportFailure(reply)
	}

	if reply.StatusCode >= 300 {
		var errResp struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(reply.Body, &errResp) == nil && errResp.Message != "" {
			return nil, &ProviderError{Message: errResp.Message, Code: errResp.Code, ResponseBody: string(reply.Body)}
		}
		return nil, &ProviderError{Message: string(reply.Body), Code: reply.StatusCode, ResponseBody: string(reply.Body)}
	}

	var parsed struct {
		SID    string `json:"sid"`
		Status string `json:"status"`
	}
	if err := ParseJSON(reply.Body, &parsed); err != nil {
		return nil, err
	}
	return &SendResult{MessageID: parsed.SID, Status: parsed.Status}, nil
}
