package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	id "tempus/pkg/domain"
	"tempus/pkg/platform/circuit"
	"tempus/pkg/platform/sentinel"
)

// BreakerCache shields readers from a failing cache backend. While the
// circuit is open Get reports a miss without touching the backend, so reads
// degrade to store queries instead of stacking timeouts onto every request.
// InvalidateMember always reaches the backend: a write must never leave
// stale projections behind, and the attempt doubles as the recovery probe
// that eventually closes the circuit again. Staleness during an outage is
// bounded by the value TTLs.
type BreakerCache struct {
	inner   Cache
	breaker *circuit.Breaker
	logger  *slog.Logger
}

// NewBreakerCache wraps inner with a consecutive-failure breaker.
func NewBreakerCache(inner Cache, logger *slog.Logger, opts ...circuit.Option) *BreakerCache {
	return &BreakerCache{
		inner:   inner,
		breaker: circuit.New("projection-cache", opts...),
		logger:  logger,
	}
}

func (c *BreakerCache) Get(ctx context.Context, key Key, dest any) error {
	if c.breaker.IsOpen() {
		return sentinel.ErrNotFound
	}
	return c.observe(ctx, c.inner.Get(ctx, key, dest))
}

func (c *BreakerCache) Set(ctx context.Context, key Key, value any, ttl time.Duration) error {
	if c.breaker.IsOpen() {
		return nil
	}
	return c.observe(ctx, c.inner.Set(ctx, key, value, ttl))
}

func (c *BreakerCache) InvalidateMember(ctx context.Context, tenantID id.TenantID, memberID id.MemberID) error {
	return c.observe(ctx, c.inner.InvalidateMember(ctx, tenantID, memberID))
}

// observe feeds the call outcome to the breaker and passes the error
// through untouched. A miss still proves the backend round trip, so it
// counts as a success; an invalid-argument error never reached the backend
// and records nothing.
func (c *BreakerCache) observe(ctx context.Context, err error) error {
	switch {
	case err == nil, errors.Is(err, sentinel.ErrNotFound):
		if _, change := c.breaker.RecordSuccess(); change.Closed {
			c.logger.InfoContext(ctx, "cache circuit closed", "cache", c.breaker.Name())
		}
	case errors.Is(err, sentinel.ErrInvalidState):
	default:
		if _, change := c.breaker.RecordFailure(); change.Opened {
			c.logger.WarnContext(ctx, "cache circuit opened, reads bypass the cache until the backend recovers", "cache", c.breaker.Name())
		}
	}
	return err
}
