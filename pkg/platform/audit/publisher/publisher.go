// Package publisher emits audit events to a Store, either synchronously
// or through a buffered channel drained by a background goroutine.
//
// Compliance-category events should be emitted synchronously so the
// calling operation fails when the audit write fails; operations-
// category events can use the async buffer.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	id "tangible/pkg/domain"
	audit "tangible/pkg/platform/audit"
)

// ErrBufferFull is returned when the async buffer cannot accept more
// events. Callers treat this as a dropped operations event, never as a
// failed business operation.
var ErrBufferFull = errors.New("audit buffer full")

// Publisher writes audit events to the configured store.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	inbox  chan audit.Event
	wg     sync.WaitGroup
	closed sync.Once
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithAsyncBuffer enables asynchronous emission through a channel of
// the given capacity.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan audit.Event, size)
	}
}

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher creates a publisher. Without WithAsyncBuffer every Emit
// is a synchronous store write.
func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records an audit event. In sync mode the caller blocks until
// the store write completes; in async mode the event is queued and
// ErrBufferFull is returned when the buffer is saturated.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}

	select {
	case p.inbox <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit event dropped", "action", event.Action)
		}
		return ErrBufferFull
	}
}

// List returns events for a company straight from the store.
func (p *Publisher) List(ctx context.Context, companyID id.CompanyID) ([]audit.Event, error) {
	return p.store.ListByCompany(ctx, companyID)
}

// Close drains the async buffer and stops the background goroutine.
func (p *Publisher) Close() {
	p.closed.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
			p.wg.Wait()
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.inbox {
		if err := p.store.Append(context.Background(), event); err != nil && p.logger != nil {
			p.logger.Error("audit append failed", "action", event.Action, "error", err)
		}
	}
}
