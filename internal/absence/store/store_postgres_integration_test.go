//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"tempus/internal/absence/models"
	"tempus/internal/absence/store"
	id "tempus/pkg/domain"
	"tempus/pkg/platform/sentinel"
	"tempus/pkg/testutil/containers"
)

type PostgresAbsenceStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresAbsenceStore

	tenantID id.TenantID
	memberID id.MemberID
}

func TestPostgresAbsenceStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresAbsenceStoreSuite))
}

func (s *PostgresAbsenceStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgresAbsenceStore(s.postgres.DB)
}

func (s *PostgresAbsenceStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "absences")
	s.Require().NoError(err)

	s.tenantID = id.TenantID(uuid.New())
	s.memberID = id.MemberID(uuid.New())
}

func (s *PostgresAbsenceStoreSuite) newAbsence(start, end time.Time) *models.Absence {
	a, err := models.NewAbsence(
		id.AbsenceID(uuid.New()), s.tenantID, s.memberID,
		start, end, 8, models.KindVacation, "summer leave", time.Now().UTC(),
	)
	s.Require().NoError(err)
	return a
}

func (s *PostgresAbsenceStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	a := s.newAbsence(id.Date(2026, time.July, 6), id.Date(2026, time.July, 10))

	s.Require().NoError(s.store.Create(ctx, a))

	got, err := s.store.Get(ctx, s.tenantID, a.ID)
	s.Require().NoError(err)
	s.Equal(a.ID, got.ID)
	s.Equal(a.MemberID, got.MemberID)
	s.Equal(models.KindVacation, got.Kind)
	s.Equal("summer leave", got.Note)
	// DATE columns come back as civil dates at UTC midnight.
	s.Equal(id.Date(2026, time.July, 6), got.StartDate)
	s.Equal(id.Date(2026, time.July, 10), got.EndDate)
}

func (s *PostgresAbsenceStoreSuite) TestTenantIsolation() {
	ctx := context.Background()
	a := s.newAbsence(id.Date(2026, time.July, 6), id.Date(2026, time.July, 10))
	s.Require().NoError(s.store.Create(ctx, a))

	otherTenant := id.TenantID(uuid.New())

	_, err := s.store.Get(ctx, otherTenant, a.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	err = s.store.Delete(ctx, otherTenant, a.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.Get(ctx, s.tenantID, a.ID)
	s.NoError(err, "cross-tenant delete must not remove the row")
}

func (s *PostgresAbsenceStoreSuite) TestDelete() {
	ctx := context.Background()
	a := s.newAbsence(id.Date(2026, time.July, 6), id.Date(2026, time.July, 10))
	s.Require().NoError(s.store.Create(ctx, a))

	s.Require().NoError(s.store.Delete(ctx, s.tenantID, a.ID))

	_, err := s.store.Get(ctx, s.tenantID, a.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	err = s.store.Delete(ctx, s.tenantID, a.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresAbsenceStoreSuite) TestListOverlapping() {
	ctx := context.Background()

	straddling := s.newAbsence(id.Date(2026, time.June, 29), id.Date(2026, time.July, 1))
	july := s.newAbsence(id.Date(2026, time.July, 6), id.Date(2026, time.July, 10))
	august := s.newAbsence(id.Date(2026, time.August, 3), id.Date(2026, time.August, 7))
	for _, a := range []*models.Absence{straddling, july, august} {
		s.Require().NoError(s.store.Create(ctx, a))
	}

	got, err := s.store.ListOverlapping(ctx, s.tenantID, s.memberID,
		id.Date(2026, time.July, 1), id.Date(2026, time.July, 31))
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(straddling.ID, got[0].ID)
	s.Equal(july.ID, got[1].ID)

	got, err = s.store.ListOverlapping(ctx, s.tenantID, id.MemberID(uuid.New()),
		id.Date(2026, time.July, 1), id.Date(2026, time.July, 31))
	s.Require().NoError(err)
	s.Empty(got)
}
