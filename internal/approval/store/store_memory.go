package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tempus/internal/approval/models"
	id "tempus/pkg/domain"
	"tempus/pkg/platform/sentinel"
)

// InMemoryApprovalStore keeps approval rows in memory for tests and for
// running without Postgres.
type InMemoryApprovalStore struct {
	mu   sync.RWMutex
	rows map[id.ApprovalID]Row
}

// NewInMemoryApprovalStore constructs an empty in-memory approval store.
func NewInMemoryApprovalStore() *InMemoryApprovalStore {
	return &InMemoryApprovalStore{rows: make(map[id.ApprovalID]Row)}
}

func (s *InMemoryApprovalStore) Apply(_ context.Context, a *models.Approval) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[a.ID] = RowFromApproval(a)
	return nil
}

func (s *InMemoryApprovalStore) FindForPeriod(_ context.Context, tenantID id.TenantID, memberID id.MemberID, periodStart time.Time) (Row, error) {
	periodStart = id.DateOf(periodStart)
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, row := range s.rows {
		if row.TenantID == tenantID && row.MemberID == memberID && row.PeriodStart.Equal(periodStart) {
			return row, nil
		}
	}
	return Row{}, fmt.Errorf("approval for period %s: %w", id.FormatDate(periodStart), sentinel.ErrNotFound)
}

func (s *InMemoryApprovalStore) FindCovering(_ context.Context, tenantID id.TenantID, memberID id.MemberID, day time.Time) (Row, error) {
	day = id.DateOf(day)
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, row := range s.rows {
		if row.TenantID != tenantID || row.MemberID != memberID {
			continue
		}
		if id.WithinRange(day, row.PeriodStart, row.PeriodEnd) {
			return row, nil
		}
	}
	return Row{}, fmt.Errorf("approval covering %s: %w", id.FormatDate(day), sentinel.ErrNotFound)
}

func (s *InMemoryApprovalStore) ListPending(_ context.Context, tenantID id.TenantID) ([]Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Row
	for _, row := range s.rows {
		if row.TenantID == tenantID && row.Status == models.StatusSubmitted {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}
		return out[i].ApprovalID.String() < out[j].ApprovalID.String()
	})
	return out, nil
}
