package audit

import (
	"context"
	"sync"
	"time"

	id "tempus/pkg/domain"
	"tempus/pkg/requestcontext"
)

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
//
// Synchronous by default: the event commits with the command. WithAsyncBuffer
// trades that guarantee for non-blocking emission — buffered events are
// written by a background goroutine and dropped when the buffer is full.
type Publisher struct {
	store Store

	inbox  chan Event
	done   chan struct{}
	closed sync.Once
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithAsyncBuffer enables buffered asynchronous emission with the given
// capacity. Async events lose the command's transaction; use only for
// trails where dropping under pressure is acceptable.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.inbox = make(chan Event, size)
		}
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store, done: make(chan struct{})}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.inbox != nil {
		go p.drain()
	}
	return p
}

// Emit records one event. The timestamp defaults to the request clock; the
// request id is filled from context when unset.
func (p *Publisher) Emit(ctx context.Context, base Event) error {
	if base.Timestamp.IsZero() {
		base.Timestamp = requestcontext.Now(ctx)
	}
	if base.RequestID == "" {
		base.RequestID = requestcontext.RequestID(ctx)
	}

	if p.inbox == nil {
		return p.store.Append(ctx, base)
	}

	select {
	case p.inbox <- base:
	default:
		// Buffer full: drop rather than block the request path.
	}
	return nil
}

// List returns the tenant's recent events, newest first.
func (p *Publisher) List(ctx context.Context, tenantID id.TenantID, limit int) ([]Event, error) {
	return p.store.ListByTenant(ctx, tenantID, limit)
}

// Close stops the async writer after draining buffered events. Safe to call
// on a synchronous publisher and safe to call twice.
func (p *Publisher) Close() {
	p.closed.Do(func() {
		if p.inbox == nil {
			close(p.done)
			return
		}
		close(p.inbox)
		<-p.done
	})
}

func (p *Publisher) drain() {
	defer close(p.done)
	ctx := context.Background()
	for event := range p.inbox {
		// Bound each write so one slow append cannot wedge shutdown.
		writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_ = p.store.Append(writeCtx, event)
		cancel()
	}
}
