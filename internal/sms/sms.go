package sms

import (
	"context"
	"encoding/base64"
	"net/http"
	"time"
)

// SendResult is the parsed payload built-in adapters return on success. The
// pipeline copies MessageID onto the message.
type SendResult struct {
	MessageID string
	Status    string
}

// Provider is a vendor adapter that a Pool can send messages through.
//
// Send reports whether the vendor accepted the message. A vendor rejection
// is recorded on the message and reported as false with a nil error; the
// error return is reserved for failures that prevent an attempt (missing
// message fields, unbuildable requests) or replies that cannot be decoded.
type Provider interface {
	Name() string
	Priority() int
	SetPriority(priority int)
	Send(ctx context.Context, msg *Message) (bool, error)
}

// HTTPClient is the transport used by HTTP-backed providers.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// DefaultTimeout bounds a single vendor request when no client is injected.
const DefaultTimeout = 30 * time.Second

// basePriority holds the mutable priority shared by all built-in providers.
type basePriority struct {
	priority int
}

func (b *basePriority) Priority() int { return b.priority }
func (b *basePriority) SetPriority(priority int) { b.priority = priority }

func basicAuth(user, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+password))
}

// sender picks the message's own from address over the configured default.
func sender(msg *Message, fallback string) string {
	if msg.From() != "" {
		return msg.From()
	}
	return fallback
}
