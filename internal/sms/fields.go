package sms

import (
	"fmt"
	"net/http"
	"strings"
)

type fieldAccessor struct {
	get   func(m *Message) any
	has   func(m *Message) bool
	set   func(m *Message, v any) error
	clear func(m *Message)
}

// messageFields maps normalized field names to typed accessors.
var messageFields = map[string]fieldAccessor{
	"id": {
		get:   func(m *Message) any { return m.id },
		has:   func(m *Message) bool { return m.id != "" },
		set:   func(m *Message, v any) error { return setString(&m.id, v) },
		clear: func(m *Message) { m.id = "" },
	},
	"recipients": {
		get:   func(m *Message) any { return m.Recipients() },
		has:   func(m *Message) bool { return len(m.recipients) > 0 },
		set:   func(m *Message, v any) error { return m.SetRecipients(v) },
		clear: func(m *Message) { m.UnsetRecipients() },
	},
	"from": {
		get:   func(m *Message) any { return m.from },
		has:   func(m *Message) bool { return m.from != "" },
		set:   func(m *Message, v any) error { return setString(&m.from, v) },
		clear: func(m *Message) { m.from = "" },
	},
	"body": {
		get:   func(m *Message) any { return m.body },
		has:   func(m *Message) bool { return m.body != "" },
		set:   func(m *Message, v any) error { return setString(&m.body, v) },
		clear: func(m *Message) { m.body = "" },
	},
	"templateid": {
		get:   func(m *Message) any { return m.templateID },
		has:   func(m *Message) bool { return m.templateID != "" },
		set:   func(m *Message, v any) error { return setString(&m.templateID, v) },
		clear: func(m *Message) { m.templateID = "" },
	},
	"data": {
		get: func(m *Message) any { return m.data },
		has: func(m *Message) bool { return len(m.data) > 0 },
		set: func(m *Message, v any) error {
			data, err := toStrings(v)
			if err != nil {
				return err
			}
			m.data = data
			return nil
		},
		clear: func(m *Message) { m.data = nil },
	},
	"status": {
		get: func(m *Message) any { return m.status },
		has: func(m *Message) bool { return true },
		set: func(m *Message, v any) error {
			s, err := ParseStatus(v)
			if err != nil {
				return err
			}
			return m.SetStatus(s)
		},
		clear: func(m *Message) { m.status = StatusQueued },
	},
	"provider": {
		get: func(m *Message) any { return m.provider },
		has: func(m *Message) bool { return m.provider != nil },
		set: func(m *Message, v any) error {
			p, ok := v.(Provider)
			if !ok {
				return fmt.Errorf("%w: provider must implement Provider", ErrInvalidArgument)
			}
			m.provider = p
			return nil
		},
		clear: func(m *Message) { m.provider = nil },
	},
	"response": {
		get:   func(m *Message) any { return m.response },
		has:   func(m *Message) bool { return m.response != nil },
		set:   func(m *Message, v any) error { m.response = v; return nil },
		clear: func(m *Message) { m.response = nil },
	},
	"httprequest": {
		get: func(m *Message) any { return m.httpRequest },
		has: func(m *Message) bool { return m.httpRequest != nil },
		set: func(m *Message, v any) error {
			r, ok := v.(*http.Request)
			if !ok {
				return fmt.Errorf("%w: http_request must be *http.Request", ErrInvalidArgument)
			}
			m.httpRequest = r
			return nil
		},
		clear: func(m *Message) { m.httpRequest = nil },
	},
	"httpresponse": {
		get: func(m *Message) any { return m.httpResponse },
		has: func(m *Message) bool { return m.httpResponse != nil },
		set: func(m *Message, v any) error {
			r, ok := v.(*Reply)
			if !ok {
				return fmt.Errorf("%w: http_response must be *Reply", ErrInvalidArgument)
			}
			m.httpResponse = r
			return nil
		},
		clear: func(m *Message) { m.httpResponse = nil },
	},
	"error": {
		get: func(m *Message) any { return m.err },
		has: func(m *Message) bool { return m.err != nil },
		set: func(m *Message, v any) error {
			e, ok := v.(*ProviderError)
			if !ok {
				return fmt.Errorf("%w: error must be *ProviderError", ErrInvalidArgument)
			}
			m.err = e
			return nil
		},
		clear: func(m *Message) { m.err = nil },
	},
}

// normalizeField folds "template_id", "TemplateId" and "templateid" together.
func normalizeField(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", ""))
}

// Has reports whether name is a known field holding a non-zero value.
func (m *Message) Has(name string) bool {
	f, ok := messageFields[normalizeField(name)]
	return ok && f.has(m)
}

// Get returns the field value, or nil when the field is unknown or unset.
func (m *Message) Get(name string) any {
	f, ok := messageFields[normalizeField(name)]
	if !ok || !f.has(m) {
		return nil
	}
	return f.get(m)
}

// Set assigns a field through its typed setter.
func (m *Message) Set(name string, v any) error {
	f, ok := messageFields[normalizeField(name)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return f.set(m, v)
}

// Clear resets a field to its zero value.
func (m *Message) Clear(name string) error {
	f, ok := messageFields[normalizeField(name)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	f.clear(m)
	return nil
}

func setString(dst *string, v any) error {
	switch x := v.(type) {
	case string:
		*dst = x
	case fmt.Stringer:
		*dst = x.String()
	case int, int64, float64:
		*dst = fmt.Sprint(x)
	default:
		return fmt.Errorf("%w: expected a string, got %T", ErrInvalidArgument, v)
	}
	return nil
}
