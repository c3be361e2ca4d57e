package sms

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// WebhookConfig points the webhook provider at a custom HTTP endpoint.
// Secret signs the payload; it is optional.
type WebhookConfig struct {
	URL      string
	Secret   string
	Priority int
}

// WebhookProvider sends SMS by POSTing to a custom webhook URL with HMAC signing.
type WebhookProvider struct {
	*Pipeline
}

type webhookPayload struct {
	ID         string   `json:"id"`
	To         []string `json:"to"`
	From       string   `json:"from,omitempty"`
	Body       string   `json:"body,omitempty"`
	TemplateID string   `json:"template_id,omitempty"`
	Data       []string `json:"data,omitempty"`
	Timestamp  string   `json:"timestamp"`
}

// NewWebhookProvider creates a WebhookProvider.
func NewWebhookProvider(cfg WebhookConfig, opts ...Option) (*WebhookProvider, error) {
	// Payload generates the delivery id; Headers picks it up for the same message.
	var ids sync.Map
	p, err := NewPipeline("webhook", cfg.Priority, Adapter{
		ProviderOptions: []string{"url"},
		Options: func() map[string]string {
			return map[string]string{"url": cfg.URL, "secret": cfg.Secret}
		},
		MessageOptions: []string{"recipients"},
		URL: func(*Message) (string, error) {
			return cfg.URL, nil
		},
		Method: http.MethodPost,
		Payload: func(msg *Message) ([]byte, error) {
			id := uuid.NewString()
			payload, err := json.Marshal(webhookPayload{
				ID:         id,
				To:         msg.Recipients(),
				From:       msg.From(),
				Body:       msg.Body(),
				TemplateID: msg.TemplateID(),
				Data:       msg.Data(),
				Timestamp:  time.Now().UTC().Format(time.RFC3339),
			})
			if err != nil {
				return nil, err
			}
			ids.Store(msg, id)
			return payload, nil
		},
		Headers: func(msg *Message, payload []byte) (http.Header, error) {
			id, ok := ids.LoadAndDelete(msg)
			if !ok {
				return nil, errors.New("payload was not built for this message")
			}
			h := http.Header{}
			h.Set("Content-Type", "application/json")
			h.Set("X-Webhook-Id", id.(string))
			if cfg.Secret != "" {
				mac := hmac.New(sha256.New, []byte(cfg.Secret))
				mac.Write(payload)
				h.Set("X-Webhook-Signature", hex.EncodeToString(mac.Sum(nil)))
			}
			return h, nil
		},
		HandleResponse: handleWebhookResponse,
	}, opts...)
	if err != nil {
		return nil, err
	}
	return &WebhookProvider{Pipeline: p}, nil
}

func handleWebhookResponse(reply *Reply) (any, error) {
	if reply.Err != nil {
		return nil, TransportFailure(reply)
	}
	if reply.StatusCode >= 300 {
		return nil, &ProviderError{Message: string(reply.Body), Code: reply.StatusCode, ResponseBody: string(reply.Body)}
	}
	if len(reply.Body) == 0 {
		return &SendResult{Status: "sent"}, nil
	}

	var parsed struct {
		MessageID string `json:"message_id"`
	}
	if err := ParseJSON(reply.Body, &parsed); err != nil {
		return nil, err
	}
	return &SendResult{MessageID: parsed.MessageID, Status: "sent"}, nil
}
