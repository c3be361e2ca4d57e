package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/allyourbase/smspool/internal/httputil"
	"github.com/allyourbase/smspool/internal/sms"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const maxBatchSize = 100

// messageRequest is one message in a send request.
type messageRequest struct {
	Recipients []string `json:"recipients" validate:"required,min=1,max=100,dive,required,max=32"`
	From       string   `json:"from" validate:"max=32"`
	Body       string   `json:"body" validate:"required_without=TemplateID,max=1600"`
	TemplateID string   `json:"template_id" validate:"max=64"`
	Data       []string `json:"data" validate:"max=20"`
}

// sendRequest accepts either a single inline message or a list under messages.
type sendRequest struct {
	messageRequest
	Messages []messageRequest `json:"messages"`
}

type providerErrorJSON struct {
	Provider string `json:"provider"`
	Code     int    `json:"code,omitempty"`
	Message  string `json:"message"`
}

type sendResponse struct {
	BatchID  string              `json:"batch_id"`
	Sent     int                 `json:"sent"`
	Failed   int                 `json:"failed"`
	Messages []*sms.Message      `json:"messages"`
	Errors   []providerErrorJSON `json:"errors"`
	Error    string              `json:"error,omitempty"`
}

type providerJSON struct {
	Name     string `json:"name"`
	Priority int    `json:"priority"`
}

func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	providers := s.newPool().Providers()
	out := make([]providerJSON, len(providers))
	for i, p := range providers {
		out[i] = providerJSON{Name: p.Name(), Priority: p.Priority()}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"providers": out})
}

func (s *Server) handleSendMessages(w http.ResponseWriter, r *http.Request) {
	if len(s.providers) == 0 {
		httputil.WriteError(w, http.StatusServiceUnavailable, "no SMS providers configured")
		return
	}

	var req sendRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	items, prefix := req.Messages, "messages"
	if len(items) == 0 {
		items, prefix = []messageRequest{req.messageRequest}, ""
	} else if !req.messageRequest.empty() {
		httputil.WriteError(w, http.StatusBadRequest, "send either a single message or a messages list, not both")
		return
	}
	if len(items) > maxBatchSize {
		httputil.WriteError(w, http.StatusBadRequest, fmt.Sprintf("at most %d messages per request", maxBatchSize))
		return
	}

	messages := make([]*sms.Message, 0, len(items))
	for i, item := range items {
		field := func(name string) string {
			if prefix == "" {
				return name
			}
			return fmt.Sprintf("%s[%d].%s", prefix, i, name)
		}

		if err := s.validate.StructCtx(r.Context(), item); err != nil {
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				httputil.WriteError(w, http.StatusBadRequest, "validation failed: "+err.Error())
				return
			}
			fields := make(map[string]httputil.FieldError, len(verrs))
			for _, fe := range verrs {
				fields[field(fe.Field())] = httputil.FieldError{Code: fe.Tag(), Message: validationMessage(fe)}
			}
			httputil.WriteFieldErrors(w, http.StatusBadRequest, "validation failed", fields)
			return
		}

		msg, err := s.buildMessage(item)
		if err != nil {
			httputil.WriteFieldErrors(w, http.StatusBadRequest, "validation failed", map[string]httputil.FieldError{
				field("recipients"): {Code: "invalid_phone", Message: err.Error()},
			})
			return
		}
		messages = append(messages, msg)
	}

	batchID := uuid.NewString()
	pool := s.newPool()
	pool.AddMessages(messages, false)
	sent, err := pool.Send(r.Context())
	s.stats.record(sent, pool.Errors())

	resp := sendResponse{BatchID: batchID, Messages: sent, Errors: []providerErrorJSON{}}
	for _, msg := range sent {
		switch msg.Status() {
		case sms.StatusSent:
			resp.Sent++
		case sms.StatusFailed:
			resp.Failed++
		}
	}
	for _, perr := range pool.Errors() {
		resp.Errors = append(resp.Errors, providerErrorJSON{Provider: perr.Provider, Code: perr.Code, Message: perr.Error()})
	}

	status := http.StatusOK
	if err != nil {
		resp.Error = err.Error()
		status = http.StatusBadGateway
		if errors.Is(err, sms.ErrInvalidArgument) {
			status = http.StatusUnprocessableEntity
		}
		s.logger.Error("sms batch aborted", "batch_id", batchID, "error", err)
	} else {
		s.logger.Info("sms batch sent", "batch_id", batchID, "sent", resp.Sent, "failed", resp.Failed)
	}
	httputil.WriteJSON(w, status, resp)
}

// buildMessage turns a validated request into a queued message, applying
// phone normalization and country restrictions from config.
func (s *Server) buildMessage(item messageRequest) (*sms.Message, error) {
	msg := sms.NewMessage()
	if err := msg.SetRecipients(item.Recipients); err != nil {
		return nil, err
	}
	msg.SetFrom(item.From)
	msg.SetBody(item.Body)
	msg.SetTemplateID(item.TemplateID)
	msg.SetData(item.Data)

	return msg, s.policy.Apply(msg)
}

func (m messageRequest) empty() bool {
	return len(m.Recipients) == 0 && m.From == "" && m.Body == "" && m.TemplateID == "" && len(m.Data) == 0
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "required_without":
		return fe.Field() + " is required when template_id is empty"
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	default:
		return fe.Field() + " is invalid"
	}
}
