package sms

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const plivoDefaultBaseURL = "https://api.plivo.com"

// PlivoConfig holds Plivo credentials.
type PlivoConfig struct {
	AuthID    string
	AuthToken string
	From      string
	BaseURL   string
	Priority  int
}

// PlivoProvider sends SMS via the Plivo Message API. Multiple recipients go
// out in one request, joined with Plivo's "<" separator.
type PlivoProvider struct {
	*Pipeline
}

// NewPlivoProvider creates a PlivoProvider.
func NewPlivoProvider(cfg PlivoConfig, opts ...Option) (*PlivoProvider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = plivoDefaultBaseURL
	}
	p, err := NewPipeline("plivo", cfg.Priority, Adapter{
		ProviderOptions: []string{"auth_id", "auth_token", "from"},
		Options: func() map[string]string {
			return map[string]string{"auth_id": cfg.AuthID, "auth_token": cfg.AuthToken, "from": cfg.From}
		},
		MessageOptions: []string{"recipients", "body"},
		URL: func(*Message) (string, error) {
			return fmt.Sprintf("%s/v1/Account/%s/Message/", cfg.BaseURL, cfg.AuthID), nil
		},
		Method: http.MethodPost,
		Payload: func(msg *Message) ([]byte, error) {
			return json.Marshal(map[string]string{
				"src":  sender(msg, cfg.From),
				"dst":  strings.Join(msg.Recipients(), "<"),
				"text": msg.Body(),
			})
		},
		Headers: func(*Message, []byte) (http.Header, error) {
			h := http.Header{}
			h.Set("Content-Type", "application/json")
			h.Set("Authorization", basicAuth(cfg.AuthID, cfg.AuthToken))
			return h, nil
		},
		HandleResponse: handlePlivoResponse,
	}, opts...)
	if err != nil {
		return nil, err
	}
	return &PlivoProvider{Pipeline: p}, nil
}

func handlePlivoResponse(reply *Reply) (any, error) {
	if reply.Err != nil {
		return nil, TransportFailure(reply)
	}

	if reply.StatusCode >= 300 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(reply.Body, &errResp) == nil && errResp.Error != "" {
			return nil, &ProviderError{Message: errResp.Error, Code: reply.StatusCode, ResponseBody: string(reply.Body)}
		}
		return nil, &ProviderError{Message: string(reply.Body), Code: reply.StatusCode, ResponseBody: string(reply.Body)}
	}

	var parsed struct {
		MessageUUID []string `json:"message_uuid"`
		Message     string   `json:"message"`
	}
	if err := ParseJSON(reply.Body, &parsed); err != nil {
		return nil, err
	}
	return &SendResult{MessageID: strings.Join(parsed.MessageUUID, ","), Status: "queued"}, nil
}
