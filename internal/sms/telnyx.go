package sms

import (
	"encoding/json"
	"net/http"
)

const telnyxDefaultBaseURL = "https://api.telnyx.com"

// TelnyxConfig holds Telnyx credentials.
type TelnyxConfig struct {
	APIKey   string
	From     string
	BaseURL  string
	Priority int
}

// TelnyxProvider sends SMS via the Telnyx v2 messaging API.
type TelnyxProvider struct {
	*Pipeline
}

// NewTelnyxProvider creates a TelnyxProvider.
func NewTelnyxProvider(cfg TelnyxConfig, opts ...Option) (*TelnyxProvider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = telnyxDefaultBaseURL
	}
	p, err := NewPipeline("telnyx", cfg.Priority, Adapter{
		ProviderOptions: []string{"api_key", "from"},
		Options: func() map[string]string {
			return map[string]string{"api_key": cfg.APIKey, "from": cfg.From}
		},
		MessageOptions: []string{"recipients", "body"},
		MaxRecipients:  1,
		URL: func(*Message) (string, error) {
			return cfg.BaseURL + "/v2/messages", nil
		},
		Method: http.MethodPost,
		Payload: func(msg *Message) ([]byte, error) {
			to := msg.Recipients()[0]
			return json.Marshal(map[string]string{
				"from": sender(msg, cfg.From),
				"to":   to,
				"text": msg.Body(),
			})
		},
		Headers: func(*Message, []byte) (http.Header, error) {
			h := http.Header{}
			h.Set("Content-Type", "application/json")
			h.Set("Authorization", "Bearer "+cfg.APIKey)
			return h, nil
		},
		HandleResponse: handleTelnyxResponse,
	}, opts...)
	if err != nil {
		return nil, err
	}
	return &TelnyxProvider{Pipeline: p}, nil
}

func handleTelnyxResponse(reply *Reply) (any, error) {
	if reply.Err != nil {
		return nil, TransportFailure(reply)
	}

	if reply.StatusCode >= 300 {
		var errResp struct {
			Errors []struct {
				Code   string `json:"code"`
				Title  string `json:"title"`
				Detail string `json:"detail"`
			} `json:"errors"`
		}
		if json.Unmarshal(reply.Body, &errResp) == nil && len(errResp.Errors) > 0 {
			return nil, &ProviderError{Message: errResp.Errors[0].Title, Code: reply.StatusCode, ResponseBody: string(reply.Body)}
		}
		return nil, &ProviderError{Message: string(reply.Body), Code: reply.StatusCode, ResponseBody: string(reply.Body)}
	}

	var parsed struct {
		Data struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		} `json:"data"`
	}
	if err := ParseJSON(reply.Body, &parsed); err != nil {
		return nil, err
	}
	return &SendResult{MessageID: parsed.Data.ID, Status: parsed.Data.Type}, nil
}
