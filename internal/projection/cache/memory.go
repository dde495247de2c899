package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	id "tempus/pkg/domain"
	"tempus/pkg/platform/sentinel"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// InMemoryCache mirrors the Redis implementation for unit tests and
// single-process runs. Expiry is checked lazily on read.
type InMemoryCache struct {
	mu      sync.Mutex
	clock   Clock
	entries map[string]memoryEntry
	index   map[string]map[string]struct{}
}

// InMemoryCacheOption configures an InMemoryCache.
type InMemoryCacheOption func(*InMemoryCache)

// WithClock sets the clock function for testability.
func WithClock(clock Clock) InMemoryCacheOption {
	return func(c *InMemoryCache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func NewInMemoryCache(opts ...InMemoryCacheOption) *InMemoryCache {
	c := &InMemoryCache{
		clock:   time.Now,
		entries: make(map[string]memoryEntry),
		index:   make(map[string]map[string]struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *InMemoryCache) Get(_ context.Context, key Key, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key.String()]
	if !ok {
		return sentinel.ErrNotFound
	}
	if c.clock().After(entry.expiresAt) {
		delete(c.entries, key.String())
		return sentinel.ErrNotFound
	}
	if err := json.Unmarshal(entry.data, dest); err != nil {
		return fmt.Errorf("decode cached value: %w", err)
	}
	return nil
}

func (c *InMemoryCache) Set(_ context.Context, key Key, value any, ttl time.Duration) error {
	if err := validateTTL(ttl); err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key.String()] = memoryEntry{data: data, expiresAt: c.clock().Add(ttl)}
	keys, ok := c.index[key.index()]
	if !ok {
		keys = make(map[string]struct{})
		c.index[key.index()] = keys
	}
	keys[key.String()] = struct{}{}
	return nil
}

func (c *InMemoryCache) InvalidateMember(_ context.Context, tenantID id.TenantID, memberID id.MemberID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	index := memberIndex(tenantID, memberID)
	for key := range c.index[index] {
		delete(c.entries, key)
	}
	delete(c.index, index)
	return nil
}
