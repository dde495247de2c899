package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"tempus/internal/absence/models"
	"tempus/internal/absence/service/mocks"
	"tempus/internal/absence/store"
	"tempus/internal/audit"
	id "tempus/pkg/domain"
	dErrors "tempus/pkg/domain-errors"
	"tempus/pkg/requestcontext"
)

type fakeDirectory struct {
	managers map[id.MemberID]bool
}

func (f *fakeDirectory) IsManager(_ context.Context, _ id.TenantID, memberID id.MemberID) (bool, error) {
	return f.managers[memberID], nil
}

type AbsenceServiceSuite struct {
	suite.Suite

	absences  *store.InMemoryAbsenceStore
	audits    *audit.InMemoryStore
	directory *fakeDirectory
	service   *Service

	tenantID  id.TenantID
	memberID  id.MemberID
	managerID id.MemberID
	now       time.Time
}

func TestAbsenceServiceSuite(t *testing.T) {
	suite.Run(t, new(AbsenceServiceSuite))
}

func (s *AbsenceServiceSuite) SetupTest() {
	s.absences = store.NewInMemoryAbsenceStore()
	s.audits = audit.NewInMemoryStore()

	s.tenantID = id.TenantID(uuid.New())
	s.memberID = id.MemberID(uuid.New())
	s.managerID = id.MemberID(uuid.New())
	s.now = time.Date(2026, time.July, 1, 9, 0, 0, 0, time.UTC)

	s.directory = &fakeDirectory{managers: map[id.MemberID]bool{s.managerID: true}}
	s.service = New(s.absences, s.directory,
		WithAuditPublisher(audit.NewPublisher(s.audits)),
	)
}

func (s *AbsenceServiceSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func (s *AbsenceServiceSuite) createAbsence(start, end time.Time) *models.Absence {
	absence, err := s.service.CreateAbsence(s.ctx(), CreateAbsenceInput{
		TenantID:    s.tenantID,
		MemberID:    s.memberID,
		StartDate:   start,
		EndDate:     end,
		HoursPerDay: 8,
		Kind:        models.KindVacation,
		Note:        "summer leave",
		ActorID:     s.memberID,
	})
	s.Require().NoError(err)
	return absence
}

func (s *AbsenceServiceSuite) TestCreateAbsence() {
	s.Run("member books own absence", func() {
		absence := s.createAbsence(
			time.Date(2026, 7, 6, 14, 30, 0, 0, time.UTC),
			id.Date(2026, time.July, 10),
		)
		s.Equal(id.Date(2026, time.July, 6), absence.StartDate)
		s.Equal(id.Date(2026, time.July, 10), absence.EndDate)
		s.Equal(models.KindVacation, absence.Kind)
		s.Equal(s.now, absence.CreatedAt)

		events, err := s.audits.ListByTenant(context.Background(), s.tenantID, 10)
		s.Require().NoError(err)
		s.Require().NotEmpty(events)
		s.Equal(string(audit.ActionAbsenceCreated), events[0].Action)
		s.Equal(absence.ID.String(), events[0].EntityID)
		s.Equal(s.memberID.String(), events[0].ActorID)
	})

	s.Run("manager books for another member", func() {
		absence, err := s.service.CreateAbsence(s.ctx(), CreateAbsenceInput{
			TenantID:    s.tenantID,
			MemberID:    s.memberID,
			StartDate:   id.Date(2026, time.August, 3),
			EndDate:     id.Date(2026, time.August, 7),
			HoursPerDay: 4,
			Kind:        models.KindSick,
			ActorID:     s.managerID,
		})
		s.Require().NoError(err)
		s.Equal(s.memberID, absence.MemberID)
	})

	s.Run("non-manager cannot book for another member", func() {
		otherID := id.MemberID(uuid.New())
		_, err := s.service.CreateAbsence(s.ctx(), CreateAbsenceInput{
			TenantID:    s.tenantID,
			MemberID:    s.memberID,
			StartDate:   id.Date(2026, time.August, 3),
			EndDate:     id.Date(2026, time.August, 7),
			HoursPerDay: 8,
			Kind:        models.KindVacation,
			ActorID:     otherID,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("rejects inverted interval", func() {
		_, err := s.service.CreateAbsence(s.ctx(), CreateAbsenceInput{
			TenantID:    s.tenantID,
			MemberID:    s.memberID,
			StartDate:   id.Date(2026, time.July, 10),
			EndDate:     id.Date(2026, time.July, 6),
			HoursPerDay: 8,
			Kind:        models.KindVacation,
			ActorID:     s.memberID,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects off-grid hours", func() {
		_, err := s.service.CreateAbsence(s.ctx(), CreateAbsenceInput{
			TenantID:    s.tenantID,
			MemberID:    s.memberID,
			StartDate:   id.Date(2026, time.July, 6),
			EndDate:     id.Date(2026, time.July, 6),
			HoursPerDay: 7.3,
			Kind:        models.KindVacation,
			ActorID:     s.memberID,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects unknown kind", func() {
		_, err := s.service.CreateAbsence(s.ctx(), CreateAbsenceInput{
			TenantID:    s.tenantID,
			MemberID:    s.memberID,
			StartDate:   id.Date(2026, time.July, 6),
			EndDate:     id.Date(2026, time.July, 6),
			HoursPerDay: 8,
			Kind:        models.Kind("sabbatical"),
			ActorID:     s.memberID,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *AbsenceServiceSuite) TestGetAbsence() {
	created := s.createAbsence(id.Date(2026, time.July, 6), id.Date(2026, time.July, 10))

	s.Run("returns the absence", func() {
		absence, err := s.service.GetAbsence(s.ctx(), s.tenantID, created.ID)
		s.Require().NoError(err)
		s.Equal(created.ID, absence.ID)
		s.Equal(created.Note, absence.Note)
	})

	s.Run("unknown id is not found", func() {
		_, err := s.service.GetAbsence(s.ctx(), s.tenantID, id.AbsenceID(uuid.New()))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("cross-tenant id is not found", func() {
		_, err := s.service.GetAbsence(s.ctx(), id.TenantID(uuid.New()), created.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *AbsenceServiceSuite) TestDeleteAbsence() {
	s.Run("member deletes own absence", func() {
		created := s.createAbsence(id.Date(2026, time.July, 6), id.Date(2026, time.July, 10))

		err := s.service.DeleteAbsence(s.ctx(), s.tenantID, created.ID, s.memberID)
		s.Require().NoError(err)

		_, err = s.service.GetAbsence(s.ctx(), s.tenantID, created.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		events, err := s.audits.ListByTenant(context.Background(), s.tenantID, 10)
		s.Require().NoError(err)
		s.Require().NotEmpty(events)
		// Newest first: the deletion follows the creation.
		s.Equal(string(audit.ActionAbsenceDeleted), events[0].Action)
	})

	s.Run("manager deletes another member's absence", func() {
		created := s.createAbsence(id.Date(2026, time.August, 3), id.Date(2026, time.August, 7))

		err := s.service.DeleteAbsence(s.ctx(), s.tenantID, created.ID, s.managerID)
		s.Require().NoError(err)
	})

	s.Run("non-owner non-manager is forbidden", func() {
		created := s.createAbsence(id.Date(2026, time.September, 1), id.Date(2026, time.September, 4))

		err := s.service.DeleteAbsence(s.ctx(), s.tenantID, created.ID, id.MemberID(uuid.New()))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

		_, err = s.service.GetAbsence(s.ctx(), s.tenantID, created.ID)
		s.NoError(err, "absence must survive a forbidden delete")
	})

	s.Run("unknown id is not found", func() {
		err := s.service.DeleteAbsence(s.ctx(), s.tenantID, id.AbsenceID(uuid.New()), s.memberID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *AbsenceServiceSuite) TestListAbsences() {
	s.createAbsence(id.Date(2026, time.July, 6), id.Date(2026, time.July, 10))
	s.createAbsence(id.Date(2026, time.July, 20), id.Date(2026, time.July, 24))
	s.createAbsence(id.Date(2026, time.September, 1), id.Date(2026, time.September, 4))

	s.Run("returns overlapping absences ordered by start", func() {
		absences, err := s.service.ListAbsences(s.ctx(), s.tenantID, s.memberID,
			id.Date(2026, time.July, 1), id.Date(2026, time.July, 31))
		s.Require().NoError(err)
		s.Require().Len(absences, 2)
		s.Equal(id.Date(2026, time.July, 6), absences[0].StartDate)
		s.Equal(id.Date(2026, time.July, 20), absences[1].StartDate)
	})

	s.Run("range outside all absences is empty", func() {
		absences, err := s.service.ListAbsences(s.ctx(), s.tenantID, s.memberID,
			id.Date(2026, time.October, 1), id.Date(2026, time.October, 31))
		s.Require().NoError(err)
		s.Empty(absences)
	})

	s.Run("other member sees nothing", func() {
		absences, err := s.service.ListAbsences(s.ctx(), s.tenantID, id.MemberID(uuid.New()),
			id.Date(2026, time.July, 1), id.Date(2026, time.July, 31))
		s.Require().NoError(err)
		s.Empty(absences)
	})

	s.Run("rejects inverted range", func() {
		_, err := s.service.ListAbsences(s.ctx(), s.tenantID, s.memberID,
			id.Date(2026, time.July, 31), id.Date(2026, time.July, 1))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *AbsenceServiceSuite) TestCacheInvalidation() {
	s.Run("create invalidates the member's projections", func() {
		ctrl := gomock.NewController(s.T())
		cache := mocks.NewMockCacheInvalidator(ctrl)
		cache.EXPECT().InvalidateMember(gomock.Any(), s.tenantID, s.memberID).Return(nil)

		svc := New(s.absences, s.directory, WithCache(cache))
		_, err := svc.CreateAbsence(s.ctx(), CreateAbsenceInput{
			TenantID:    s.tenantID,
			MemberID:    s.memberID,
			StartDate:   id.Date(2026, time.July, 6),
			EndDate:     id.Date(2026, time.July, 10),
			HoursPerDay: 8,
			Kind:        models.KindVacation,
			ActorID:     s.memberID,
		})
		s.Require().NoError(err)
	})

	s.Run("delete invalidates the member's projections", func() {
		created := s.createAbsence(id.Date(2026, time.July, 6), id.Date(2026, time.July, 10))

		ctrl := gomock.NewController(s.T())
		cache := mocks.NewMockCacheInvalidator(ctrl)
		cache.EXPECT().InvalidateMember(gomock.Any(), s.tenantID, s.memberID).Return(nil)

		svc := New(s.absences, s.directory, WithCache(cache))
		s.Require().NoError(svc.DeleteAbsence(s.ctx(), s.tenantID, created.ID, s.memberID))
	})

	s.Run("invalidation failure does not fail the command", func() {
		ctrl := gomock.NewController(s.T())
		cache := mocks.NewMockCacheInvalidator(ctrl)
		cache.EXPECT().InvalidateMember(gomock.Any(), s.tenantID, s.memberID).
			Return(errors.New("redis down"))

		svc := New(s.absences, s.directory, WithCache(cache))
		_, err := svc.CreateAbsence(s.ctx(), CreateAbsenceInput{
			TenantID:    s.tenantID,
			MemberID:    s.memberID,
			StartDate:   id.Date(2026, time.July, 6),
			EndDate:     id.Date(2026, time.July, 10),
			HoursPerDay: 8,
			Kind:        models.KindVacation,
			ActorID:     s.memberID,
		})
		s.NoError(err)
	})

	s.Run("failed create does not touch the cache", func() {
		ctrl := gomock.NewController(s.T())
		absences := mocks.NewMockAbsenceStore(ctrl)
		absences.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))
		cache := mocks.NewMockCacheInvalidator(ctrl)

		svc := New(absences, s.directory, WithCache(cache))
		_, err := svc.CreateAbsence(s.ctx(), CreateAbsenceInput{
			TenantID:    s.tenantID,
			MemberID:    s.memberID,
			StartDate:   id.Date(2026, time.July, 6),
			EndDate:     id.Date(2026, time.July, 10),
			HoursPerDay: 8,
			Kind:        models.KindVacation,
			ActorID:     s.memberID,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}
