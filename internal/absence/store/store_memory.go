package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tempus/internal/absence/models"
	id "tempus/pkg/domain"
	"tempus/pkg/platform/sentinel"
)

// InMemoryAbsenceStore stores absences in memory for tests/dev.
type InMemoryAbsenceStore struct {
	mu       sync.RWMutex
	absences map[id.AbsenceID]*models.Absence
}

// NewInMemoryAbsenceStore constructs an empty in-memory absence store.
func NewInMemoryAbsenceStore() *InMemoryAbsenceStore {
	return &InMemoryAbsenceStore{absences: make(map[id.AbsenceID]*models.Absence)}
}

func (s *InMemoryAbsenceStore) Create(_ context.Context, a *models.Absence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *a
	s.absences[a.ID] = &clone
	return nil
}

func (s *InMemoryAbsenceStore) Get(_ context.Context, tenantID id.TenantID, absenceID id.AbsenceID) (*models.Absence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.absences[absenceID]
	if !ok || a.TenantID != tenantID {
		return nil, fmt.Errorf("absence %s: %w", absenceID, sentinel.ErrNotFound)
	}
	clone := *a
	return &clone, nil
}

func (s *InMemoryAbsenceStore) Delete(_ context.Context, tenantID id.TenantID, absenceID id.AbsenceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.absences[absenceID]
	if !ok || a.TenantID != tenantID {
		return fmt.Errorf("absence %s: %w", absenceID, sentinel.ErrNotFound)
	}
	delete(s.absences, absenceID)
	return nil
}

func (s *InMemoryAbsenceStore) ListOverlapping(_ context.Context, tenantID id.TenantID, memberID id.MemberID, from, to time.Time) ([]*models.Absence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Absence
	for _, a := range s.absences {
		if a.TenantID != tenantID || a.MemberID != memberID {
			continue
		}
		if !a.Overlaps(from, to) {
			continue
		}
		clone := *a
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}
