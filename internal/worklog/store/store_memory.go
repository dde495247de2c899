package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"tempus/internal/worklog/models"
	id "tempus/pkg/domain"
)

// InMemoryEntryStore keeps row images in memory for tests and for running
// without Postgres.
type InMemoryEntryStore struct {
	mu   sync.RWMutex
	rows map[id.EntryID]Row
}

// NewInMemoryEntryStore constructs an empty in-memory entry store.
func NewInMemoryEntryStore() *InMemoryEntryStore {
	return &InMemoryEntryStore{rows: make(map[id.EntryID]Row)}
}

func (s *InMemoryEntryStore) Apply(_ context.Context, e *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.Deleted {
		delete(s.rows, e.ID)
		return nil
	}
	s.rows[e.ID] = RowFromEntry(e)
	return nil
}

func (s *InMemoryEntryStore) ListForDay(_ context.Context, tenantID id.TenantID, memberID id.MemberID, day time.Time) ([]Row, error) {
	day = id.DateOf(day)
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Row
	for _, row := range s.rows {
		if row.TenantID != tenantID || row.MemberID != memberID {
			continue
		}
		if !row.WorkDate.Equal(day) {
			continue
		}
		out = append(out, row)
	}
	sortRows(out)
	return out, nil
}

func (s *InMemoryEntryStore) ListForPeriod(_ context.Context, tenantID id.TenantID, memberID id.MemberID, from, to time.Time) ([]Row, error) {
	from = id.DateOf(from)
	to = id.DateOf(to)
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Row
	for _, row := range s.rows {
		if row.TenantID != tenantID || row.MemberID != memberID {
			continue
		}
		if !id.WithinRange(row.WorkDate, from, to) {
			continue
		}
		out = append(out, row)
	}
	sortRows(out)
	return out, nil
}

// sortRows keeps listings deterministic: by date, then entry id as a
// tiebreaker for entries on the same day.
func sortRows(rows []Row) {
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].WorkDate.Equal(rows[j].WorkDate) {
			return rows[i].WorkDate.Before(rows[j].WorkDate)
		}
		return rows[i].EntryID.String() < rows[j].EntryID.String()
	})
}
