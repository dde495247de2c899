// Package tenant persists tenant records. Name uniqueness is case-insensitive
// and enforced by the store, not the service, so concurrent creates race on a
// single guard (map check in memory, unique index in Postgres).
package tenant

import (
	"context"
	"strings"
	"sync"

	"tempus/internal/tenant/models"
	id "tempus/pkg/domain"
	"tempus/pkg/platform/sentinel"
)

// InMemory keeps tenants in memory for tests and for running without
// Postgres. Records are copied on the way in and out so callers never share
// mutable state with the store.
type InMemory struct {
	mu      sync.RWMutex
	tenants map[id.TenantID]*models.Tenant
	byName  map[string]id.TenantID
}

func NewInMemory() *InMemory {
	return &InMemory{
		tenants: make(map[id.TenantID]*models.Tenant),
		byName:  make(map[string]id.TenantID),
	}
}

// CreateIfNameAvailable inserts the tenant unless another tenant already
// holds the name (case-insensitive). Returns sentinel.ErrConflict when the
// name is taken.
func (s *InMemory) CreateIfNameAvailable(_ context.Context, t *models.Tenant) error {
	key := strings.ToLower(t.Name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byName[key]; taken {
		return sentinel.ErrConflict
	}
	cp := *t
	s.tenants[t.ID] = &cp
	s.byName[key] = t.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[tenantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *InMemory) FindByName(_ context.Context, name string) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenantID, ok := s.byName[strings.ToLower(name)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.tenants[tenantID]
	return &cp, nil
}

func (s *InMemory) Update(_ context.Context, t *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tenants[t.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if owner, taken := s.byName[strings.ToLower(t.Name)]; taken && owner != t.ID {
		return sentinel.ErrConflict
	}
	delete(s.byName, strings.ToLower(existing.Name))
	cp := *t
	s.tenants[t.ID] = &cp
	s.byName[strings.ToLower(t.Name)] = t.ID
	return nil
}

// Execute atomically validates and mutates a tenant under the store lock.
// The postgres implementation does the same with SELECT ... FOR UPDATE.
func (s *InMemory) Execute(_ context.Context, tenantID id.TenantID, validate func(*models.Tenant) error, mutate func(*models.Tenant)) (*models.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tenants[tenantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(t); err != nil {
		return nil, err
	}
	mutate(t)
	cp := *t
	return &cp, nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tenants), nil
}
