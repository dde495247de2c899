//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"tempus/internal/eventstore"
	"tempus/internal/worklog/models"
	"tempus/internal/worklog/store"
	id "tempus/pkg/domain"
	"tempus/pkg/platform/sentinel"
	"tempus/pkg/testutil/containers"
)

type PostgresRepositorySuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	repo     *store.Repository
	rows     *store.PostgresEntryStore

	tenantID id.TenantID
	memberID id.MemberID
	now      time.Time
}

func TestPostgresRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresRepositorySuite))
}

func (s *PostgresRepositorySuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.rows = store.NewPostgresEntryStore(s.postgres.DB)
	s.repo = store.NewRepository(eventstore.NewPostgresStore(s.postgres.DB), s.rows)
}

func (s *PostgresRepositorySuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "events", "work_log_entries")
	s.Require().NoError(err)

	s.tenantID = id.TenantID(uuid.New())
	s.memberID = id.MemberID(uuid.New())
	s.now = time.Now().UTC().Truncate(time.Microsecond)
}

func (s *PostgresRepositorySuite) newEntry(day time.Time, hours float64) *models.Entry {
	entry, err := models.NewEntry(
		id.EntryID(uuid.New()), s.tenantID, s.memberID, id.ProjectID(uuid.New()),
		day, hours, "work", s.memberID, s.now,
	)
	s.Require().NoError(err)
	return entry
}

func (s *PostgresRepositorySuite) TestSaveAndLoad() {
	ctx := context.Background()
	entry := s.newEntry(id.Date(2026, time.April, 7), 3.5)

	s.Require().NoError(s.repo.Save(ctx, entry))
	s.Empty(entry.Uncommitted())

	loaded, err := s.repo.Load(ctx, s.tenantID, entry.ID)
	s.Require().NoError(err)
	s.Equal(entry.ID, loaded.ID)
	s.Equal(3.5, loaded.Hours)
	s.Equal(models.StatusDraft, loaded.Status)
	s.Equal(1, loaded.Version())
	s.Equal(id.Date(2026, time.April, 7), loaded.Date)

	_, err = s.repo.Load(ctx, id.TenantID(uuid.New()), entry.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresRepositorySuite) TestOptimisticConcurrency() {
	ctx := context.Background()
	entry := s.newEntry(id.Date(2026, time.April, 7), 4.0)
	s.Require().NoError(s.repo.Save(ctx, entry))

	first, err := s.repo.Load(ctx, s.tenantID, entry.ID)
	s.Require().NoError(err)
	second, err := s.repo.Load(ctx, s.tenantID, entry.ID)
	s.Require().NoError(err)

	s.Require().NoError(first.Submit(s.memberID, s.now))
	s.Require().NoError(s.repo.Save(ctx, first))

	s.Require().NoError(second.Submit(s.memberID, s.now))
	err = s.repo.Save(ctx, second)
	s.ErrorIs(err, sentinel.ErrConflict)

	loaded, err := s.repo.Load(ctx, s.tenantID, entry.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusSubmitted, loaded.Status)
	s.Equal(2, loaded.Version())
}

func (s *PostgresRepositorySuite) TestSaveAllRollsBackOnConflict() {
	ctx := context.Background()
	day := id.Date(2026, time.April, 7)
	a := s.newEntry(day, 2.0)
	b := s.newEntry(day, 3.0)
	c := s.newEntry(day, 1.5)
	s.Require().NoError(s.repo.SaveAll(ctx, a, b, c))

	batch := make([]*models.Entry, 0, 3)
	for _, e := range []*models.Entry{a, b, c} {
		loaded, err := s.repo.Load(ctx, s.tenantID, e.ID)
		s.Require().NoError(err)
		s.Require().NoError(loaded.Submit(s.memberID, s.now))
		batch = append(batch, loaded)
	}

	// Advance c behind the batch's back so its expected version goes stale.
	stale, err := s.repo.Load(ctx, s.tenantID, c.ID)
	s.Require().NoError(err)
	s.Require().NoError(stale.Submit(s.memberID, s.now))
	s.Require().NoError(s.repo.Save(ctx, stale))

	err = s.repo.SaveAll(ctx, batch...)
	s.ErrorIs(err, sentinel.ErrConflict)

	// The transaction must have rolled a and b back too.
	for _, entryID := range []id.EntryID{a.ID, b.ID} {
		loaded, err := s.repo.Load(ctx, s.tenantID, entryID)
		s.Require().NoError(err)
		s.Equal(models.StatusDraft, loaded.Status, "batch partner must stay DRAFT")
		s.Equal(1, loaded.Version())
	}
}

func (s *PostgresRepositorySuite) TestRowSync() {
	ctx := context.Background()
	day := id.Date(2026, time.April, 7)

	entry := s.newEntry(day, 3.5)
	other := s.newEntry(id.Date(2026, time.April, 8), 4.5)
	s.Require().NoError(s.repo.SaveAll(ctx, entry, other))

	rows, err := s.rows.ListForDay(ctx, s.tenantID, s.memberID, day)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal(entry.ID, rows[0].EntryID)
	s.Equal(models.StatusDraft, rows[0].Status)
	s.Equal(day, rows[0].WorkDate)

	rows, err = s.rows.ListForPeriod(ctx, s.tenantID, s.memberID, day, id.Date(2026, time.April, 30))
	s.Require().NoError(err)
	s.Len(rows, 2)

	s.Require().NoError(entry.Delete(s.memberID, s.now))
	s.Require().NoError(s.repo.Save(ctx, entry))

	rows, err = s.rows.ListForDay(ctx, s.tenantID, s.memberID, day)
	s.Require().NoError(err)
	s.Empty(rows, "deleted entries keep their stream but lose their row")
}

func (s *PostgresRepositorySuite) TestStaleApplyKeepsNewerRow() {
	ctx := context.Background()
	entry := s.newEntry(id.Date(2026, time.April, 7), 2.0)
	s.Require().NoError(s.repo.Save(ctx, entry))

	current, err := s.repo.Load(ctx, s.tenantID, entry.ID)
	s.Require().NoError(err)
	s.Require().NoError(current.Submit(s.memberID, s.now))
	s.Require().NoError(s.repo.Save(ctx, current))

	// Re-applying the version 1 image must not overwrite the version 2 row.
	stale, err := s.repo.Load(ctx, s.tenantID, entry.ID)
	s.Require().NoError(err)
	s.Require().Equal(2, stale.Version())

	v1, err := models.NewEntry(entry.ID, s.tenantID, s.memberID, entry.ProjectID,
		entry.Date, entry.Hours, entry.Comment, s.memberID, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.rows.Apply(ctx, v1))

	rows, err := s.rows.ListForDay(ctx, s.tenantID, s.memberID, id.Date(2026, time.April, 7))
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal(models.StatusSubmitted, rows[0].Status)
	s.Equal(2, rows[0].Version)
}
