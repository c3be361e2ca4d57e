package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// Adapter supplies the vendor-specific pieces of the send pipeline.
type Adapter struct {
	// ProviderOptions names the options that must be configured. Options
	// returns the configured values keyed by the same names.
	ProviderOptions []string
	Options         func() map[string]string

	// MessageOptions names the Message.ToMap keys that must be non-empty.
	MessageOptions []string
	// MaxRecipients caps recipients per request; zero means no cap. A message
	// over the cap fails on this vendor so the pool can fall back.
	MaxRecipients int

	URL     func(msg *Message) (string, error)
	Method  string
	Payload func(msg *Message) ([]byte, error)
	// Headers receives the encoded payload so adapters can sign it.
	Headers func(msg *Message, payload []byte) (http.Header, error)

	// HandleResponse turns a reply into the parsed vendor payload. It returns
	// a *ProviderError when the vendor rejected the send or the transport
	// failed; any other error aborts the send.
	HandleResponse func(reply *Reply) (any, error)
}

// Reply is the raw outcome of one dispatched request. Err is set when the
// request never produced a response.
type Reply struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Err        error
}

// Failed reports whether the transport failed or the vendor answered with a
// non-2xx status.
func (r *Reply) Failed() bool {
	return r.Err != nil || r.StatusCode < 200 || r.StatusCode >= 300
}

// TransportFailure converts a reply without a response into a ProviderError.
func TransportFailure(reply *Reply) *ProviderError {
	return &ProviderError{Message: "send request", Err: reply.Err}
}

// ParseJSON decodes data into v, wrapping decoder failures in ErrDecode.
func ParseJSON(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithHTTPClient injects the transport. Tests pass httptest-backed clients.
func WithHTTPClient(c HTTPClient) Option {
	return func(p *Pipeline) {
		if c != nil {
			p.client = c
		}
	}
}

// WithLogger sets the logger used for attempt tracing.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// Pipeline is an HTTP-backed Provider driven by an Adapter.
type Pipeline struct {
	basePriority
	name    string
	adapter Adapter
	client  HTTPClient
	logger  *slog.Logger
}

// NewPipeline validates the adapter's required provider options and returns
// a Provider. No network I/O happens here.
func NewPipeline(name string, priority int, a Adapter, opts ...Option) (*Pipeline, error) {
	if name == "" {
		return nil, &configError{msg: "provider name is required"}
	}
	if a.URL == nil || a.HandleResponse == nil {
		return nil, &configError{msg: name + ": adapter must define URL and HandleResponse"}
	}
	var configured map[string]string
	if a.Options != nil {
		configured = a.Options()
	}
	if missing := missingOptions(a.ProviderOptions, func(key string) bool {
		return configured[key] != ""
	}); len(missing) > 0 {
		return nil, &configError{msg: fmt.Sprintf("%s: %s, missing: %s", name, ErrConfig, strings.Join(missing, ", "))}
	}
	if a.Method == "" {
		a.Method = http.MethodPost
	}

	p := &Pipeline{
		basePriority: basePriority{priority: priority},
		name:         name,
		adapter:      a,
		client:       &http.Client{Timeout: DefaultTimeout},
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Pipeline) Name() string { return p.name }

func (p *Pipeline) HTTPClient() HTTPClient { return p.client }

func (p *Pipeline) SetHTTPClient(c HTTPClient) { p.client = c }

// Send runs one attempt: validate the message, build and record the request,
// dispatch it, interpret the reply and record the outcome on msg.
func (p *Pipeline) Send(ctx context.Context, msg *Message) (bool, error) {
	fields := msg.ToMap()
	if missing := missingOptions(p.adapter.MessageOptions, func(key string) bool {
		v, ok := fields[key]
		return ok && !isEmptyValue(v)
	}); len(missing) > 0 {
		return false, fmt.Errorf("%w: %s: message missing required fields: %s",
			ErrInvalidArgument, p.name, strings.Join(missing, ", "))
	}

	if limit, n := p.adapter.MaxRecipients, len(msg.Recipients()); limit > 0 && n > limit {
		perr := &ProviderError{
			Provider: p.name,
			Message:  fmt.Sprintf("accepts at most %d recipient(s), got %d", limit, n),
			Err:      ErrInvalidArgument,
		}
		msg.SetResponse(nil)
		msg.SetError(perr)
		msg.status = StatusFailed
		p.logger.Debug("sms attempt skipped", "provider", p.name, "recipients", n, "max_recipients", limit)
		return false, nil
	}

	req, err := p.buildRequest(ctx, msg)
	if err != nil {
		return false, err
	}
	msg.SetHTTPRequest(req)

	p.logger.Debug("sms attempt", "provider", p.name, "method", req.Method, "recipients", len(msg.Recipients()))
	reply := p.dispatch(req)

	parsed, err := p.adapter.HandleResponse(reply)
	var perr *ProviderError
	switch {
	case err == nil:
		if res, ok := parsed.(*SendResult); ok && res.MessageID != "" {
			msg.SetID(res.MessageID)
		}
		msg.SetResponse(parsed)
		msg.status = StatusSent
	case errors.As(err, &perr):
		if perr.Provider == "" {
			perr.Provider = p.name
		}
		msg.SetResponse(perr.ResponseBody)
		msg.SetError(perr)
		msg.status = StatusFailed
	default:
		msg.SetHTTPResponse(reply)
		return false, fmt.Errorf("%s: %w", p.name, err)
	}
	msg.SetHTTPResponse(reply)

	if perr != nil {
		p.logger.Debug("sms attempt failed", "provider", p.name, "status_code", reply.StatusCode, "error", perr)
		return false, nil
	}
	return true, nil
}

func (p *Pipeline) buildRequest(ctx context.Context, msg *Message) (*http.Request, error) {
	endpoint, err := p.adapter.URL(msg)
	if err != nil {
		return nil, fmt.Errorf("%s: resolve url: %w", p.name, err)
	}

	var payload []byte
	if p.adapter.Payload != nil {
		if payload, err = p.adapter.Payload(msg); err != nil {
			return nil, fmt.Errorf("%s: build payload: %w", p.name, err)
		}
	}

	var header http.Header
	if p.adapter.Headers != nil {
		if header, err = p.adapter.Headers(msg, payload); err != nil {
			return nil, fmt.Errorf("%s: build headers: %w", p.name, err)
		}
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, p.adapter.Method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", p.name, err)
	}
	req.Proto, req.ProtoMajor, req.ProtoMinor = "HTTP/1.1", 1, 1
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}

func (p *Pipeline) dispatch(req *http.Request) *Reply {
	resp, err := p.client.Do(req)
	if err != nil {
		return &Reply{Err: err}
	}
	defer resp.Body.Close()

	reply := &Reply{StatusCode: resp.StatusCode, Header: resp.Header}
	reply.Body, err = io.ReadAll(resp.Body)
	if err != nil {
		reply.Err = fmt.Errorf("read response: %w", err)
	}
	return reply
}

func missingOptions(required []string, present func(key string) bool) []string {
	var missing []string
	for _, key := range required {
		if !present(key) {
			missing = append(missing, key)
		}
	}
	return missing
}
