package sms

import (
	"net/http"
	"net/url"
	"strconv"
)

const vonageDefaultBaseURL = "https://rest.nexmo.com"

// VonageConfig holds Vonage (Nexmo) credentials.
type VonageConfig struct {
	APIKey    string
	APISecret string
	From      string
	BaseURL   string
	Priority  int
}

// VonageProvider sends SMS via the Vonage (Nexmo) REST API. Vonage answers
// 200 even for rejected messages; the per-message status decides.
type VonageProvider struct {
	*Pipeline
}

// NewVonageProvider creates a VonageProvider.
func NewVonageProvider(cfg VonageConfig, opts ...Option) (*VonageProvider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = vonageDefaultBaseURL
	}
	p, err := NewPipeline("vonage", cfg.Priority, Adapter{
		ProviderOptions: []string{"api_key", "api_secret", "from"},
		Options: func() map[string]string {
			return map[string]string{"api_key": cfg.APIKey, "api_secret": cfg.APISecret, "from": cfg.From}
		},
		MessageOptions: []string{"recipients", "body"},
		MaxRecipients:  1,
		URL: func(*Message) (string, error) {
			return cfg.BaseURL + "/sms/json", nil
		},
		Method: http.MethodPost,
		Payload: func(msg *Message) ([]byte, error) {
			to := msg.Recipients()[0]
			form := url.Values{}
			form.Set("api_key", cfg.APIKey)
			form.Set("api_secret", cfg.APISecret)
			form.Set("from", sender(msg, cfg.From))
			form.Set("to", to)
			form.Set("text", msg.Body())
			return []byte(form.Encode()), nil
		},
		Headers: func(*Message, []byte) (http.Header, error) {
			h := http.Header{}
			h.Set("Content-Type", "application/x-www-form-urlencoded")
			return h, nil
		},
		HandleResponse: handleVonageResponse,
	}, opts...)
	if err != nil {
		return nil, err
	}
	return &VonageProvider{Pipeline: p}, nil
}

func handleVonageResponse(reply *Reply) (any, error) {
	if reply.Err != nil {
		return nil, TransportFailure(reply)
	}
	if reply.StatusCode >= 300 {
		return nil, &ProviderError{Message: string(reply.Body), Code: reply.StatusCode, ResponseBody: string(reply.Body)}
	}

	var parsed struct {
		Messages []struct {
			MessageID string `json:"message-id"`
			Status    string `json:"status"`
			ErrorText string `json:"error-text"`
		} `json:"messages"`
	}
	if err := ParseJSON(reply.Body, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Messages) == 0 {
		return nil, &ProviderError{Message: "empty response", ResponseBody: string(reply.Body)}
	}

	msg := parsed.Messages[0]
	if msg.Status != "0" {
		code, _ := strconv.Atoi(msg.Status)
		return nil, &ProviderError{Message: msg.ErrorText, Code: code, ResponseBody: string(reply.Body)}
	}
	return &SendResult{MessageID: msg.MessageID, Status: "sent"}, nil
}
