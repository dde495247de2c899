package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	approvalmodels "tempus/internal/approval/models"
	"tempus/internal/audit"
	"tempus/internal/worklog/models"
	id "tempus/pkg/domain"
	dErrors "tempus/pkg/domain-errors"
)

func (s *ServiceSuite) TestSubmitDay() {
	s.Run("submits every draft on the date", func() {
		first := s.createEntry(3.5)
		second := s.createEntry(4.5)

		submitted, err := s.service.SubmitDay(s.ctx(), s.tenantID, s.memberID, s.workDate, s.memberID)
		s.Require().NoError(err)
		s.Len(submitted, 2)

		for _, entryID := range []id.EntryID{first.ID, second.ID} {
			got, err := s.service.GetEntry(s.ctx(), s.tenantID, entryID)
			s.Require().NoError(err)
			s.Equal(models.StatusSubmitted, got.Status)
			s.Equal(2, got.Version())
		}

		events, err := s.audits.ListByTenant(context.Background(), s.tenantID, 1)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(string(audit.ActionDaySubmitted), events[0].Action)
	})

	s.Run("other days are untouched", func() {
		otherDate := id.Date(2026, time.April, 8)
		other, err := s.service.CreateEntry(s.ctx(), CreateEntryInput{
			TenantID: s.tenantID, MemberID: s.memberID, ProjectID: s.projectID,
			Date: otherDate, Hours: 2, ActorID: s.memberID,
		})
		s.Require().NoError(err)

		_, err = s.service.SubmitDay(s.ctx(), s.tenantID, s.memberID, otherDate, s.memberID)
		s.Require().NoError(err)

		got, err := s.service.GetEntry(s.ctx(), s.tenantID, other.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusSubmitted, got.Status)
	})

	s.Run("empty day fails with not found", func() {
		_, err := s.service.SubmitDay(s.ctx(), s.tenantID, s.memberID, id.Date(2026, time.April, 20), s.memberID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Contains(err.Error(), "no draft entries")
	})

	s.Run("proxy submission is forbidden", func() {
		s.createEntry(1)
		_, err := s.service.SubmitDay(s.ctx(), s.tenantID, s.memberID, s.workDate, s.managerID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

// racingRepo triggers a callback once, right before the batch save, to model
// a concurrent writer landing first.
type racingRepo struct {
	EntryRepository
	race  func()
	fired bool
}

func (r *racingRepo) SaveAll(ctx context.Context, entries ...*models.Entry) error {
	if r.race != nil && !r.fired {
		r.fired = true
		r.race()
	}
	return r.EntryRepository.SaveAll(ctx, entries...)
}

func (s *ServiceSuite) TestSubmitDayAtomicity() {
	first := s.createEntry(2)
	second := s.createEntry(3)
	third := s.createEntry(4)

	racing := &racingRepo{
		EntryRepository: s.entries,
		race: func() {
			// A concurrent amend advances the third entry's stream after the
			// batch loaded it, leaving the batch's expected version stale.
			victim, err := s.entries.Load(context.Background(), s.tenantID, third.ID)
			s.Require().NoError(err)
			s.Require().NoError(victim.Amend(s.projectID, s.workDate, 4.25, "raced", s.memberID, s.now))
			s.Require().NoError(s.entries.Save(context.Background(), victim))
		},
	}
	racedService := New(racing, s.rows, s.approvals, s.directory)

	_, err := racedService.SubmitDay(s.ctx(), s.tenantID, s.memberID, s.workDate, s.memberID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	// All-or-nothing: no entry reached SUBMITTED, including the two with no
	// conflict of their own.
	for _, entryID := range []id.EntryID{first.ID, second.ID, third.ID} {
		got, loadErr := s.service.GetEntry(s.ctx(), s.tenantID, entryID)
		s.Require().NoError(loadErr)
		s.Equal(models.StatusDraft, got.Status)
	}
	got, err := s.service.GetEntry(s.ctx(), s.tenantID, first.ID)
	s.Require().NoError(err)
	s.Equal(1, got.Version(), "untouched partners keep their version")
}

func (s *ServiceSuite) TestRecallDay() {
	s.Run("returns submitted entries to draft", func() {
		entry := s.createEntry(6)
		_, err := s.service.SubmitDay(s.ctx(), s.tenantID, s.memberID, s.workDate, s.memberID)
		s.Require().NoError(err)

		recalled, err := s.service.RecallDay(s.ctx(), s.tenantID, s.memberID, s.workDate, s.memberID)
		s.Require().NoError(err)
		s.Len(recalled, 1)

		got, err := s.service.GetEntry(s.ctx(), s.tenantID, entry.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusDraft, got.Status)
		s.Equal(3, got.Version())
	})

	s.Run("empty day fails with not found", func() {
		_, err := s.service.RecallDay(s.ctx(), s.tenantID, s.memberID, s.workDate, s.memberID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Contains(err.Error(), "no submitted entries")
	})

	s.Run("proxy recall is forbidden", func() {
		_, err := s.service.RecallDay(s.ctx(), s.tenantID, s.memberID, s.workDate, s.managerID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *ServiceSuite) TestRecallGate() {
	submitDay := func() id.EntryID {
		entry := s.createEntry(7)
		_, err := s.service.SubmitDay(s.ctx(), s.tenantID, s.memberID, s.workDate, s.memberID)
		s.Require().NoError(err)
		return entry.ID
	}

	s.Run("no monthly approval recalls freely", func() {
		submitDay()
		_, err := s.service.RecallDay(s.ctx(), s.tenantID, s.memberID, s.workDate, s.memberID)
		s.Require().NoError(err)
	})

	for _, status := range []approvalmodels.Status{
		approvalmodels.StatusSubmitted,
		approvalmodels.StatusApproved,
		approvalmodels.StatusRejected,
	} {
		s.Run("approval in "+string(status)+" blocks recall", func() {
			s.SetupTest()
			entryID := submitDay()
			s.approvalFixture(status)

			_, err := s.service.RecallDay(s.ctx(), s.tenantID, s.memberID, s.workDate, s.memberID)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeConflict))
			s.Contains(err.Error(), "recall blocked")

			got, err := s.service.GetEntry(s.ctx(), s.tenantID, entryID)
			s.Require().NoError(err)
			s.Equal(models.StatusSubmitted, got.Status, "blocked recall leaves entries unchanged")
		})
	}
}
