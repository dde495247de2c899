package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"tempus/internal/absence/models"
	id "tempus/pkg/domain"
	"tempus/pkg/platform/sentinel"
)

type AbsenceStoreSuite struct {
	suite.Suite
	store *InMemoryAbsenceStore

	tenantID id.TenantID
	memberID id.MemberID
	now      time.Time
}

func TestAbsenceStoreSuite(t *testing.T) {
	suite.Run(t, new(AbsenceStoreSuite))
}

func (s *AbsenceStoreSuite) SetupTest() {
	s.store = NewInMemoryAbsenceStore()
	s.tenantID = id.TenantID(uuid.New())
	s.memberID = id.MemberID(uuid.New())
	s.now = time.Date(2026, time.June, 1, 9, 0, 0, 0, time.UTC)
}

func (s *AbsenceStoreSuite) newAbsence(start, end time.Time) *models.Absence {
	a, err := models.NewAbsence(
		id.AbsenceID(uuid.New()), s.tenantID, s.memberID,
		start, end, 8, models.KindVacation, "", s.now,
	)
	s.Require().NoError(err)
	return a
}

func (s *AbsenceStoreSuite) TestCreateAndGet() {
	ctx := context.Background()
	a := s.newAbsence(id.Date(2026, time.July, 6), id.Date(2026, time.July, 10))
	s.Require().NoError(s.store.Create(ctx, a))

	s.Run("returns the stored absence", func() {
		got, err := s.store.Get(ctx, s.tenantID, a.ID)
		s.Require().NoError(err)
		s.Equal(a.ID, got.ID)
		s.Equal(a.StartDate, got.StartDate)
	})

	s.Run("returned absence is a copy", func() {
		got, err := s.store.Get(ctx, s.tenantID, a.ID)
		s.Require().NoError(err)
		got.Note = "mutated"

		again, err := s.store.Get(ctx, s.tenantID, a.ID)
		s.Require().NoError(err)
		s.Empty(again.Note)
	})

	s.Run("unknown id is not found", func() {
		_, err := s.store.Get(ctx, s.tenantID, id.AbsenceID(uuid.New()))
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("cross-tenant id is not found", func() {
		_, err := s.store.Get(ctx, id.TenantID(uuid.New()), a.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *AbsenceStoreSuite) TestDelete() {
	ctx := context.Background()
	a := s.newAbsence(id.Date(2026, time.July, 6), id.Date(2026, time.July, 10))
	s.Require().NoError(s.store.Create(ctx, a))

	s.Run("cross-tenant delete leaves the row", func() {
		err := s.store.Delete(ctx, id.TenantID(uuid.New()), a.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)

		_, err = s.store.Get(ctx, s.tenantID, a.ID)
		s.NoError(err)
	})

	s.Run("delete removes the row", func() {
		s.Require().NoError(s.store.Delete(ctx, s.tenantID, a.ID))

		_, err := s.store.Get(ctx, s.tenantID, a.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("deleting again is not found", func() {
		err := s.store.Delete(ctx, s.tenantID, a.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *AbsenceStoreSuite) TestListOverlapping() {
	ctx := context.Background()

	july := s.newAbsence(id.Date(2026, time.July, 6), id.Date(2026, time.July, 10))
	straddling := s.newAbsence(id.Date(2026, time.June, 29), id.Date(2026, time.July, 1))
	august := s.newAbsence(id.Date(2026, time.August, 3), id.Date(2026, time.August, 7))
	for _, a := range []*models.Absence{july, straddling, august} {
		s.Require().NoError(s.store.Create(ctx, a))
	}

	otherMember, err := models.NewAbsence(
		id.AbsenceID(uuid.New()), s.tenantID, id.MemberID(uuid.New()),
		id.Date(2026, time.July, 7), id.Date(2026, time.July, 8),
		8, models.KindSick, "", s.now,
	)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(ctx, otherMember))

	s.Run("intersects the range and orders by start date", func() {
		got, err := s.store.ListOverlapping(ctx, s.tenantID, s.memberID,
			id.Date(2026, time.July, 1), id.Date(2026, time.July, 31))
		s.Require().NoError(err)
		s.Require().Len(got, 2)
		s.Equal(straddling.ID, got[0].ID)
		s.Equal(july.ID, got[1].ID)
	})

	s.Run("empty range result is an empty slice", func() {
		got, err := s.store.ListOverlapping(ctx, s.tenantID, s.memberID,
			id.Date(2026, time.October, 1), id.Date(2026, time.October, 31))
		s.Require().NoError(err)
		s.Empty(got)
	})

	s.Run("other tenant sees nothing", func() {
		got, err := s.store.ListOverlapping(ctx, id.TenantID(uuid.New()), s.memberID,
			id.Date(2026, time.July, 1), id.Date(2026, time.July, 31))
		s.Require().NoError(err)
		s.Empty(got)
	})
}
