package audit

import (
	"context"
	"sync"

	id "tempus/pkg/domain"
)

// InMemoryStore keeps audit events in memory for tests/dev.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.TenantID][]Event
}

// NewInMemoryStore constructs an empty in-memory audit store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.TenantID][]Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.TenantID] = append(s.events[event.TenantID], event)
	return nil
}

func (s *InMemoryStore) ListByTenant(_ context.Context, tenantID id.TenantID, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.events[tenantID]
	out := make([]Event, 0, len(events))
	// Newest first.
	for i := len(events) - 1; i >= 0; i-- {
		out = append(out, events[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListByEntity(_ context.Context, tenantID id.TenantID, entityType, entityID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Event
	events := s.events[tenantID]
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].EntityType == entityType && events[i].EntityID == entityID {
			out = append(out, events[i])
		}
	}
	return out, nil
}

// Clear drops everything; used between tests.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[id.TenantID][]Event)
}
