package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// recipientCutset is stripped from both ends of a delimited recipient string.
const recipientCutset = ", \t\n\r\x00\x0B"

// Message is one outbound text plus the record of its most recent send attempt.
// A Message is owned by a single caller or Pool at a time.
type Message struct {
	id         string
	recipients []string
	from       string
	body       string
	templateID string
	data       []string
	status     Status

	provider     Provider
	response     any
	httpRequest  *http.Request
	httpResponse *Reply
	err          *ProviderError
}

// NewMessage returns an empty queued message.
func NewMessage() *Message {
	return &Message{recipients: []string{}}
}

// CreateMessage builds a message from a plain record. See FromMap.
func CreateMessage(record map[string]any) (*Message, error) {
	m := NewMessage()
	if err := m.FromMap(record); err != nil {
		return nil, err
	}
	return m, nil
}

// FormatRecipients normalizes recipient input into a list. A string is
// trimmed and split on commas; a list of strings is taken as given.
func FormatRecipients(v any) ([]string, error) {
	switch x := v.(type) {
	case string:
		trimmed := strings.Trim(x, recipientCutset)
		if trimmed == "" {
			return []string{}, nil
		}
		parts := strings.Split(trimmed, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, nil
	case []string:
		return append([]string(nil), x...), nil
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: recipients must be a string or a list of strings", ErrInvalidArgument)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: recipients must be a string or a list of strings", ErrInvalidArgument)
	}
}

// Recipients returns a copy of the recipient list.
func (m *Message) Recipients() []string { return slices.Clone(m.recipients) }

// SetRecipients replaces the recipient list.
func (m *Message) SetRecipients(v any) error {
	list, err := FormatRecipients(v)
	if err != nil {
		return err
	}
	m.recipients = list
	return nil
}

// SetRecipient is an alias of SetRecipients.
func (m *Message) SetRecipient(v any) error {
	return m.SetRecipients(v)
}

// AddRecipient merges recipients at the tail, or at the head when prepend is set.
func (m *Message) AddRecipient(v any, prepend bool) error {
	list, err := FormatRecipients(v)
	if err != nil {
		return err
	}
	if prepend {
		m.recipients = append(list, m.recipients...)
	} else {
		m.recipients = append(m.recipients, list...)
	}
	return nil
}

func (m *Message) UnsetRecipients() { m.recipients = []string{} }

func (m *Message) From() string { return m.from }
func (m *Message) SetFrom(from string) { m.from = from }

func (m *Message) Body() string { return m.body }
func (m *Message) SetBody(body string) { m.body = body }

func (m *Message) TemplateID() string { return m.templateID }
func (m *Message) SetTemplateID(id string) { m.templateID = id }

// Data returns the ordered template fill-in values.
func (m *Message) Data() []string { return m.data }
func (m *Message) SetData(data []string) { m.data = data }

// ID returns the vendor-assigned identifier, if any.
func (m *Message) ID() string { return m.id }
func (m *Message) SetID(id string) { m.id = id }

func (m *Message) Status() Status { return m.status }

// SetStatus fails with ErrInvalidArgument for values outside ValidStatuses.
func (m *Message) SetStatus(s Status) error {
	if !s.Valid() {
		return fmt.Errorf("%w: illegal status %d", ErrInvalidArgument, int(s))
	}
	m.status = s
	return nil
}

func (m *Message) Provider() Provider { return m.provider }
func (m *Message) SetProvider(p Provider) { m.provider = p }

// Response is whatever the last send attempt recorded: the parsed vendor
// payload on success or the failure's response body otherwise.
func (m *Message) Response() any { return m.response }
func (m *Message) SetResponse(r any) { m.response = r }

func (m *Message) HTTPRequest() *http.Request { return m.httpRequest }
func (m *Message) SetHTTPRequest(r *http.Request) { m.httpRequest = r }

func (m *Message) HTTPResponse() *Reply { return m.httpResponse }
func (m *Message) SetHTTPResponse(r *Reply) { m.httpResponse = r }

// Error returns the failure recorded by the most recent failed attempt.
func (m *Message) Error() *ProviderError { return m.err }
func (m *Message) SetError(e *ProviderError) { m.err = e }

// FromMap populates the message from any recognized keys present in record.
// Both "recipients" and "recipient" are applied, the singular one appended
// last. Status defaults to queued.
func (m *Message) FromMap(record map[string]any) error {
	if v, ok := record["id"]; ok && !isEmptyValue(v) {
		m.id = fmt.Sprint(v)
	}
	if v, ok := record["recipients"]; ok && v != nil {
		if err := m.SetRecipients(v); err != nil {
			return err
		}
	}
	if v, ok := record["recipient"]; ok && v != nil {
		if err := m.AddRecipient(v, false); err != nil {
			return err
		}
	}
	if v, ok := record["from"]; ok && v != nil {
		m.from = fmt.Sprint(v)
	}
	if v, ok := record["body"]; ok && v != nil {
		m.body = fmt.Sprint(v)
	}
	if v, ok := record["data"]; ok && v != nil {
		data, err := toStrings(v)
		if err != nil {
			return err
		}
		m.data = data
	}
	if v, ok := record["template_id"]; ok && v != nil {
		m.templateID = fmt.Sprint(v)
	}
	status := StatusQueued
	if v, ok := record["status"]; ok && v != nil {
		s, err := ParseStatus(v)
		if err != nil {
			return err
		}
		status = s
	}
	return m.SetStatus(status)
}

// ToMap returns a snapshot with the keys id, recipients, from, body, data,
// template_id and status. Providers check their required message fields
// against this shape.
func (m *Message) ToMap() map[string]any {
	return map[string]any{
		"id":          m.id,
		"recipients":  slices.Clone(m.recipients),
		"from":        m.from,
		"body":        m.body,
		"data":        m.data,
		"template_id": m.templateID,
		"status":      m.status,
	}
}

// Using binds p as the provider for the next Send.
func (m *Message) Using(p Provider) *Message {
	m.provider = p
	return m
}

// Send delivers the message through its bound provider. The returned error is
// non-nil only when the attempt could not run or the reply could not be
// understood; vendor rejections are reported through Status and Error.
func (m *Message) Send(ctx context.Context) (*Message, error) {
	if m.provider == nil {
		return m, ErrNoProvider
	}
	if _, err := m.provider.Send(ctx, m); err != nil {
		return m, err
	}
	return m, nil
}

type messageJSON struct {
	ID         string   `json:"id,omitempty"`
	Recipients []string `json:"recipients"`
	From       string   `json:"from,omitempty"`
	Body       string   `json:"body,omitempty"`
	TemplateID string   `json:"template_id,omitempty"`
	Data       []string `json:"data,omitempty"`
	Status     string   `json:"status"`
	Provider   string   `json:"provider,omitempty"`
	Error      string   `json:"error,omitempty"`
}

func (m *Message) MarshalJSON() ([]byte, error) {
	out := messageJSON{
		ID:         m.id,
		Recipients: m.recipients,
		From:       m.from,
		Body:       m.body,
		TemplateID: m.templateID,
		Data:       m.data,
		Status:     m.status.String(),
	}
	if out.Recipients == nil {
		out.Recipients = []string{}
	}
	if m.provider != nil {
		out.Provider = m.provider.Name()
	}
	if m.err != nil {
		out.Error = m.err.Error()
	}
	return json.Marshal(out)
}

func toStrings(v any) ([]string, error) {
	switch x := v.(type) {
	case []string:
		return append([]string(nil), x...), nil
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			out = append(out, fmt.Sprint(item))
		}
		return out, nil
	case string:
		return []string{x}, nil
	default:
		return nil, fmt.Errorf("%w: data must be a list", ErrInvalidArgument)
	}
}

func isEmptyValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []string:
		return len(x) == 0
	case []any:
		return len(x) == 0
	case int:
		return x == 0
	case float64:
		return x == 0
	}
	return false
}
