package sms

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

const msg91DefaultBaseURL = "https://control.msg91.com"

// MSG91Config holds MSG91 credentials. TemplateID is the default flow
// template; a message's own template id takes precedence.
type MSG91Config struct {
	AuthKey    string
	TemplateID string
	BaseURL    string
	Priority   int
}

// MSG91Provider sends SMS via the MSG91 flow API. Message data values are
// passed to the template as var1..varN, the body as otp.
type MSG91Provider struct {
	*Pipeline
}

// NewMSG91Provider creates a MSG91Provider.
func NewMSG91Provider(cfg MSG91Config, opts ...Option) (*MSG91Provider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = msg91DefaultBaseURL
	}
	p, err := NewPipeline("msg91", cfg.Priority, Adapter{
		ProviderOptions: []string{"auth_key"},
		Options: func() map[string]string {
			return map[string]string{"auth_key": cfg.AuthKey, "template_id": cfg.TemplateID}
		},
		MessageOptions: []string{"recipients"},
		URL: func(*Message) (string, error) {
			return cfg.BaseURL + "/api/v5/flow/", nil
		},
		Method: http.MethodPost,
		Payload: func(msg *Message) ([]byte, error) {
			templateID := msg.TemplateID()
			if templateID == "" {
				templateID = cfg.TemplateID
			}
			if templateID == "" {
				return nil, fmt.Errorf("%w: msg91 requires a template_id", ErrInvalidArgument)
			}
			recipients := make([]map[string]string, 0, len(msg.Recipients()))
			for _, to := range msg.Recipients() {
				r := map[string]string{"mobiles": to}
				if msg.Body() != "" {
					r["otp"] = msg.Body()
				}
				for i, v := range msg.Data() {
					r["var"+strconv.Itoa(i+1)] = v
				}
				recipients = append(recipients, r)
			}
			return json.Marshal(map[string]any{
				"template_id": templateID,
				"recipients":  recipients,
			})
		},
		Headers: func(*Message, []byte) (http.Header, error) {
			h := http.Header{}
			h.Set("Content-Type", "application/json")
			h.Set("authkey", cfg.AuthKey)
			return h, nil
		},
		HandleResponse: handleMSG91Response,
	}, opts...)
	if err != nil {
		return nil, err
	}
	return &MSG91Provider{Pipeline: p}, nil
}

func handleMSG91Response(reply *Reply) (any, error) {
	if reply.Err != nil {
		return nil, TransportFailure(reply)
	}

	var parsed struct {
		Type      string `json:"type"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
	}

	if reply.StatusCode >= 300 {
		if json.Unmarshal(reply.Body, &parsed) == nil && parsed.Message != "" {
			return nil, &ProviderError{Message: parsed.Message, Code: reply.StatusCode, ResponseBody: string(reply.Body)}
		}
		return nil, &ProviderError{Message: string(reply.Body), Code: reply.StatusCode, ResponseBody: string(reply.Body)}
	}

	if err := ParseJSON(reply.Body, &parsed); err != nil {
		return nil, err
	}
	if parsed.Type == "error" {
		return nil, &ProviderError{Message: parsed.Message, ResponseBody: string(reply.Body)}
	}
	return &SendResult{MessageID: parsed.RequestID, Status: parsed.Type}, nil
}
