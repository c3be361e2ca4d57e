package sms

import (
	"context"
	"slices"
	"sync"
)

// CaptureProvider records sends for use in tests. When Fail is set every
// send is rejected with that error instead.
type CaptureProvider struct {
	basePriority
	name string

	mu    sync.Mutex
	Calls []CaptureCall
	Fail  *ProviderError
}

// CaptureCall records a single Send invocation.
type CaptureCall struct {
	Recipients []string
	Body       string
	TemplateID string
	Data       []string
}

// NewCaptureProvider creates a CaptureProvider registered under name.
func NewCaptureProvider(name string, priority int) *CaptureProvider {
	return &CaptureProvider{basePriority: basePriority{priority: priority}, name: name}
}

func (c *CaptureProvider) Name() string { return c.name }

func (c *CaptureProvider) Send(_ context.Context, msg *Message) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = append(c.Calls, CaptureCall{
		Recipients: slices.Clone(msg.Recipients()),
		Body:       msg.Body(),
		TemplateID: msg.TemplateID(),
		Data:       slices.Clone(msg.Data()),
	})
	if c.Fail != nil {
		perr := *c.Fail
		if perr.Provider == "" {
			perr.Provider = c.name
		}
		msg.SetResponse(perr.ResponseBody)
		msg.SetError(&perr)
		msg.status = StatusFailed
		return false, nil
	}
	msg.SetResponse(&SendResult{Status: "captured"})
	msg.status = StatusSent
	return true, nil
}

// CallCount returns the number of recorded sends.
func (c *CaptureProvider) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Calls)
}

// Reset clears all recorded calls.
func (c *CaptureProvider) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = nil
}
