// Package member persists member records. Every lookup is tenant-scoped;
// a member id presented with the wrong tenant behaves exactly like an
// unknown id.
package member

import (
	"context"
	"sort"
	"sync"

	"tempus/internal/tenant/models"
	id "tempus/pkg/domain"
	"tempus/pkg/platform/sentinel"
)

// InMemory keeps members in memory for tests and for running without
// Postgres. Records are copied on the way in and out so callers never share
// mutable state with the store.
type InMemory struct {
	mu      sync.RWMutex
	members map[id.MemberID]*models.Member
}

func NewInMemory() *InMemory {
	return &InMemory{members: make(map[id.MemberID]*models.Member)}
}

func (s *InMemory) Create(_ context.Context, m *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.members[m.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *m
	s.members[m.ID] = &cp
	return nil
}

func (s *InMemory) FindByTenantAndID(_ context.Context, tenantID id.TenantID, memberID id.MemberID) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.members[memberID]
	if !ok || m.TenantID != tenantID {
		return nil, sentinel.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *InMemory) ListByTenant(_ context.Context, tenantID id.TenantID) ([]*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Member
	for _, m := range s.members {
		if m.TenantID != tenantID {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	// Oldest first, id as tiebreaker, so listings are deterministic.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *InMemory) Update(_ context.Context, m *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.members[m.ID]
	if !ok || existing.TenantID != m.TenantID {
		return sentinel.ErrNotFound
	}
	cp := *m
	s.members[m.ID] = &cp
	return nil
}

// Execute atomically validates and mutates a member under the store lock.
func (s *InMemory) Execute(_ context.Context, tenantID id.TenantID, memberID id.MemberID, validate func(*models.Member) error, mutate func(*models.Member)) (*models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[memberID]
	if !ok || m.TenantID != tenantID {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(m); err != nil {
		return nil, err
	}
	mutate(m)
	cp := *m
	return &cp, nil
}

func (s *InMemory) CountByTenant(_ context.Context, tenantID id.TenantID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, m := range s.members {
		if m.TenantID == tenantID {
			count++
		}
	}
	return count, nil
}
