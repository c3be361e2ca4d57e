package sms

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithPoolLogger sets the logger used for fallback and exhaustion events.
func WithPoolLogger(l *slog.Logger) PoolOption {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithConcurrency lets Send work on up to n messages at once. Fallback for a
// single message is always sequential.
func WithConcurrency(n int) PoolOption {
	return func(p *Pool) { p.concurrency = n }
}

// WithMetrics records attempt outcomes.
func WithMetrics(m *Metrics) PoolOption {
	return func(p *Pool) { p.metrics = m }
}

// WithProviders registers providers at construction.
func WithProviders(providers ...Provider) PoolOption {
	return func(p *Pool) { p.registerLocked(providers...) }
}

type poolEntry struct {
	provider Provider
	seq      int
}

// Pool holds providers ordered by ascending priority and a queue of messages,
// and sends each queued message through the providers until one accepts it.
// Providers with equal priority keep the order in which their names were
// first registered.
type Pool struct {
	mu          sync.Mutex
	entries     []poolEntry
	nextSeq     int
	messages    []*Message
	errors      []*ProviderError
	concurrency int
	logger      *slog.Logger
	metrics     *Metrics
}

// NewPool creates an empty pool.
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{concurrency: 1, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RegisterProvider adds p, replacing any provider with the same name.
func (p *Pool) RegisterProvider(provider Provider) *Pool {
	return p.RegisterProviders(provider)
}

// RegisterProviders adds every provider and re-sorts once.
func (p *Pool) RegisterProviders(providers ...Provider) *Pool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registerLocked(providers...)
	return p
}

func (p *Pool) registerLocked(providers ...Provider) {
	for _, provider := range providers {
		if provider == nil {
			continue
		}
		replaced := false
		for i := range p.entries {
			if p.entries[i].provider.Name() == provider.Name() {
				p.entries[i].provider = provider
				replaced = true
				break
			}
		}
		if !replaced {
			p.entries = append(p.entries, poolEntry{provider: provider, seq: p.nextSeq})
			p.nextSeq++
		}
	}
	p.sortLocked()
}

func (p *Pool) sortLocked() {
	slices.SortStableFunc(p.entries, func(a, b poolEntry) int {
		if c := cmp.Compare(a.provider.Priority(), b.provider.Priority()); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})
}

// Providers returns the registered providers in send order.
func (p *Pool) Providers() []Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.providersLocked()
}

func (p *Pool) providersLocked() []Provider {
	out := make([]Provider, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.provider
	}
	return out
}

// Provider looks up a registered provider by name.
func (p *Pool) Provider(name string) (Provider, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.entries {
		if e.provider.Name() == name {
			return e.provider, true
		}
	}
	return nil, false
}

func (p *Pool) UnsetProviders() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = nil
}

// Messages returns a copy of the pending queue.
func (p *Pool) Messages() []*Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.messages)
}

// SetMessages replaces the queue.
func (p *Pool) SetMessages(messages ...*Message) *Pool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = withoutNil(messages)
	return p
}

// SetMessage replaces the queue with a single message.
func (p *Pool) SetMessage(m *Message) *Pool {
	return p.SetMessages(m)
}

// AddMessage enqueues m at the tail, or at the head when prepend is set.
func (p *Pool) AddMessage(m *Message, prepend bool) *Pool {
	if m == nil {
		return p
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if prepend {
		p.messages = slices.Insert(p.messages, 0, m)
	} else {
		p.messages = append(p.messages, m)
	}
	return p
}

// AddMessages enqueues a batch. Prepending keeps the batch's own order
// ahead of the existing queue.
func (p *Pool) AddMessages(messages []*Message, prepend bool) *Pool {
	messages = withoutNil(messages)
	p.mu.Lock()
	defer p.mu.Unlock()
	if prepend {
		p.messages = slices.Concat(messages, p.messages)
	} else {
		p.messages = append(p.messages, messages...)
	}
	return p
}

// withoutNil returns a copy of messages with nil entries dropped.
func withoutNil(messages []*Message) []*Message {
	return slices.DeleteFunc(slices.Clone(messages), func(m *Message) bool { return m == nil })
}

func (p *Pool) UnsetMessages() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = nil
}

// Errors returns every vendor failure recorded by Send, in attempt order.
// The list accumulates across calls until ResetErrors.
func (p *Pool) Errors() []*ProviderError {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.errors)
}

func (p *Pool) ResetErrors() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errors = nil
}

// Send drains the queue and delivers each message, trying providers in
// priority order until one accepts it. It returns every drained message in
// queue order; callers check Status per message.
//
// A non-nil error means a send could not be attempted or a vendor reply could
// not be decoded. Messages not reached by then are still returned, queued.
func (p *Pool) Send(ctx context.Context) ([]*Message, error) {
	p.mu.Lock()
	p.sortLocked()
	providers := p.providersLocked()
	messages := p.messages
	p.messages = nil
	concurrency := p.concurrency
	p.mu.Unlock()

	failures := make([][]*ProviderError, len(messages))
	var err error
	if concurrency <= 1 || len(messages) < 2 {
		for i, msg := range messages {
			if failures[i], err = p.deliver(ctx, providers, msg); err != nil {
				break
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)
		for i, msg := range messages {
			g.Go(func() error {
				var err error
				failures[i], err = p.deliver(gctx, providers, msg)
				return err
			})
		}
		err = g.Wait()
	}

	p.mu.Lock()
	for _, f := range failures {
		p.errors = append(p.errors, f...)
	}
	p.mu.Unlock()

	return messages, err
}

// deliver runs the fallback loop for one message and returns the failure of
// every provider that rejected it.
func (p *Pool) deliver(ctx context.Context, providers []Provider, msg *Message) ([]*ProviderError, error) {
	var failures []*ProviderError
	for i, provider := range providers {
		if err := ctx.Err(); err != nil {
			return failures, err
		}

		prev := msg.Error()
		start := time.Now()
		_, err := msg.Using(provider).Send(ctx)
		if err != nil {
			p.metrics.observeAttempt(provider.Name(), "error", time.Since(start))
			return failures, err
		}
		if msg.Status() == StatusSent {
			p.metrics.observeAttempt(provider.Name(), "sent", time.Since(start))
			p.logger.Debug("sms sent", "provider", provider.Name(), "id", msg.ID())
			return failures, nil
		}
		p.metrics.observeAttempt(provider.Name(), "failed", time.Since(start))
		msg.status = StatusFailed

		failure := msg.Error()
		if failure == nil || failure == prev {
			failure = &ProviderError{Provider: provider.Name(), Message: "send failed"}
			msg.SetError(failure)
		}
		failures = append(failures, failure)

		if i+1 < len(providers) {
			p.logger.Warn("sms provider failed, falling back",
				"provider", provider.Name(), "next", providers[i+1].Name(), "error", failure)
		}
	}
	if len(providers) > 0 {
		p.metrics.observeExhausted()
		p.logger.Error("sms delivery failed on every provider",
			"providers", len(providers), "recipients", msg.Recipients(), "error", msg.Error())
	}
	return failures, nil
}
