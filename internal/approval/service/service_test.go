package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"tempus/internal/approval/models"
	approvalstore "tempus/internal/approval/store"
	"tempus/internal/audit"
	"tempus/internal/eventstore"
	worklogmodels "tempus/internal/worklog/models"
	worklogservice "tempus/internal/worklog/service"
	worklogstore "tempus/internal/worklog/store"
	id "tempus/pkg/domain"
	dErrors "tempus/pkg/domain-errors"
	"tempus/pkg/platform/sentinel"
	"tempus/pkg/requestcontext"
)

type fakeDirectory struct {
	managers map[id.MemberID]bool
}

func (f *fakeDirectory) IsManager(_ context.Context, _ id.TenantID, memberID id.MemberID) (bool, error) {
	return f.managers[memberID], nil
}

// racingAppender fires a callback once right before the batch append,
// simulating a concurrent writer that lands between load and commit.
type racingAppender struct {
	appender EventAppender
	race     func()
	fired    bool
}

func (r *racingAppender) AppendBatch(ctx context.Context, batch []eventstore.StreamAppend) error {
	if !r.fired && r.race != nil {
		r.fired = true
		r.race()
	}
	return r.appender.AppendBatch(ctx, batch)
}

type ApprovalSuite struct {
	suite.Suite

	events       *eventstore.MemoryStore
	entryRepo    *worklogstore.Repository
	entryRows    *worklogstore.InMemoryEntryStore
	approvalRepo *approvalstore.Repository
	approvalRows *approvalstore.InMemoryApprovalStore
	audits       *audit.InMemoryStore
	directory    *fakeDirectory

	worklog *worklogservice.Service
	service *Service

	tenantID  id.TenantID
	memberID  id.MemberID
	managerID id.MemberID
	projectID id.ProjectID
	anchor    time.Time
	now       time.Time
}

func TestApprovalSuite(t *testing.T) {
	suite.Run(t, new(ApprovalSuite))
}

func (s *ApprovalSuite) SetupTest() {
	s.events = eventstore.NewMemoryStore()
	s.entryRows = worklogstore.NewInMemoryEntryStore()
	s.entryRepo = worklogstore.NewRepository(s.events, s.entryRows)
	s.approvalRows = approvalstore.NewInMemoryApprovalStore()
	s.approvalRepo = approvalstore.NewRepository(s.events, s.approvalRows)
	s.audits = audit.NewInMemoryStore()

	s.tenantID = id.TenantID(uuid.New())
	s.memberID = id.MemberID(uuid.New())
	s.managerID = id.MemberID(uuid.New())
	s.projectID = id.ProjectID(uuid.New())
	s.anchor = id.Date(2026, time.April, 15)
	s.now = time.Date(2026, time.April, 30, 18, 0, 0, 0, time.UTC)

	s.directory = &fakeDirectory{managers: map[id.MemberID]bool{s.managerID: true}}
	publisher := audit.NewPublisher(s.audits)

	s.worklog = worklogservice.New(s.entryRepo, s.entryRows, s.approvalRows, s.directory,
		worklogservice.WithAuditPublisher(publisher),
	)
	s.service = New(s.events, s.approvalRepo, s.approvalRows, s.entryRepo, s.entryRows, s.directory,
		WithAuditPublisher(publisher),
	)
}

func (s *ApprovalSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func (s *ApprovalSuite) createEntry(date time.Time, hours float64) *worklogmodels.Entry {
	entry, err := s.worklog.CreateEntry(s.ctx(), worklogservice.CreateEntryInput{
		TenantID:  s.tenantID,
		MemberID:  s.memberID,
		ProjectID: s.projectID,
		Date:      date,
		Hours:     hours,
		Comment:   "test work",
		ActorID:   s.memberID,
	})
	s.Require().NoError(err)
	return entry
}

func (s *ApprovalSuite) reloadEntry(entryID id.EntryID) *worklogmodels.Entry {
	entry, err := s.entryRepo.Load(context.Background(), s.tenantID, entryID)
	s.Require().NoError(err)
	return entry
}

func (s *ApprovalSuite) submitMonth() *models.Approval {
	approval, err := s.service.SubmitMonth(s.ctx(), s.tenantID, s.memberID, s.anchor, s.memberID)
	s.Require().NoError(err)
	return approval
}

func (s *ApprovalSuite) TestSubmitMonth() {
	first := s.createEntry(id.Date(2026, time.April, 7), 3.5)
	second := s.createEntry(id.Date(2026, time.April, 21), 4.5)

	s.Run("member submits fresh month", func() {
		approval := s.submitMonth()
		s.Equal(models.StatusSubmitted, approval.Status)
		s.Equal(2, approval.EntryCount)
		s.Equal(id.Date(2026, time.April, 1), approval.PeriodStart)
		s.Equal(id.Date(2026, time.April, 30), approval.PeriodEnd)
		s.Equal(s.memberID, approval.SubmittedBy)

		s.Equal(worklogmodels.StatusSubmitted, s.reloadEntry(first.ID).Status)
		s.Equal(worklogmodels.StatusSubmitted, s.reloadEntry(second.ID).Status)

		events, err := s.audits.ListByTenant(context.Background(), s.tenantID, 1)
		s.Require().NoError(err)
		s.Require().NotEmpty(events)
		s.Equal(string(audit.ActionMonthSubmitted), events[0].Action)
		s.Equal(approval.ID.String(), events[0].EntityID)
	})

	s.Run("second submission while under review conflicts", func() {
		late := s.createEntry(id.Date(2026, time.April, 28), 2)

		_, err := s.service.SubmitMonth(s.ctx(), s.tenantID, s.memberID, s.anchor, s.memberID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		// Nothing from the failed command reached storage.
		reloaded := s.reloadEntry(late.ID)
		s.Equal(worklogmodels.StatusDraft, reloaded.Status)
		s.Equal(1, reloaded.Version())
	})

	s.Run("proxy submission is forbidden", func() {
		_, err := s.service.SubmitMonth(s.ctx(), s.tenantID, s.memberID, s.anchor, s.managerID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("empty window is not found", func() {
		_, err := s.service.SubmitMonth(s.ctx(), s.tenantID, s.memberID, id.Date(2026, time.June, 10), s.memberID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Contains(err.Error(), "no submittable entries")
	})
}

func (s *ApprovalSuite) TestSubmitMonthAfterRejection() {
	first := s.createEntry(id.Date(2026, time.April, 7), 3.5)
	second := s.createEntry(id.Date(2026, time.April, 21), 4.5)
	approval := s.submitMonth()

	_, err := s.service.Reject(s.ctx(), s.tenantID, approval.ID, s.managerID, "missing project codes")
	s.Require().NoError(err)

	s.Run("resubmission reuses the rejected approval", func() {
		resubmitted := s.submitMonth()
		s.Equal(approval.ID, resubmitted.ID)
		s.Equal(models.StatusSubmitted, resubmitted.Status)
		s.Empty(resubmitted.RejectionReason)
		s.Equal(2, resubmitted.EntryCount)

		for _, entryID := range []id.EntryID{first.ID, second.ID} {
			reloaded := s.reloadEntry(entryID)
			s.Equal(worklogmodels.StatusSubmitted, reloaded.Status)
			s.Empty(reloaded.RejectionReason)
			s.Empty(reloaded.RejectionSource)
		}
	})
}

func (s *ApprovalSuite) TestSubmitMonthSelectsDailyRejected() {
	entry := s.createEntry(id.Date(2026, time.April, 7), 6)
	_, err := s.worklog.SubmitDay(s.ctx(), s.tenantID, s.memberID, entry.Date, s.memberID)
	s.Require().NoError(err)
	_, err = s.worklog.ChangeStatus(s.ctx(), worklogservice.ChangeStatusInput{
		TenantID: s.tenantID,
		EntryID:  entry.ID,
		Target:   worklogmodels.StatusRejected,
		ActorID:  s.managerID,
		Reason:   "wrong project",
	})
	s.Require().NoError(err)

	approval := s.submitMonth()
	s.Equal(1, approval.EntryCount)

	reloaded := s.reloadEntry(entry.ID)
	s.Equal(worklogmodels.StatusSubmitted, reloaded.Status)
	s.Empty(reloaded.RejectionReason)
	s.Empty(reloaded.RejectionSource)
}

func (s *ApprovalSuite) TestApprove() {
	first := s.createEntry(id.Date(2026, time.April, 7), 3.5)
	second := s.createEntry(id.Date(2026, time.April, 21), 4.5)
	approval := s.submitMonth()

	s.Run("manager approves the month", func() {
		approved, err := s.service.Approve(s.ctx(), s.tenantID, approval.ID, s.managerID)
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, approved.Status)
		s.Equal(s.managerID, approved.ReviewedBy)

		s.Equal(worklogmodels.StatusApproved, s.reloadEntry(first.ID).Status)
		s.Equal(worklogmodels.StatusApproved, s.reloadEntry(second.ID).Status)

		events, err := s.audits.ListByTenant(context.Background(), s.tenantID, 1)
		s.Require().NoError(err)
		s.Require().NotEmpty(events)
		s.Equal(string(audit.ActionMonthApproved), events[0].Action)
	})

	s.Run("approving a closed month violates the state machine", func() {
		_, err := s.service.Approve(s.ctx(), s.tenantID, approval.ID, s.managerID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("member cannot approve", func() {
		_, err := s.service.Approve(s.ctx(), s.tenantID, approval.ID, s.memberID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("unknown approval is not found", func() {
		_, err := s.service.Approve(s.ctx(), s.tenantID, id.ApprovalID(uuid.New()), s.managerID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ApprovalSuite) TestReject() {
	first := s.createEntry(id.Date(2026, time.April, 7), 3.5)
	second := s.createEntry(id.Date(2026, time.April, 21), 4.5)
	approval := s.submitMonth()

	s.Run("rejection cascades entries back to draft", func() {
		rejected, err := s.service.Reject(s.ctx(), s.tenantID, approval.ID, s.managerID, "missing project codes")
		s.Require().NoError(err)
		s.Equal(models.StatusRejected, rejected.Status)
		s.Equal("missing project codes", rejected.RejectionReason)

		for _, entryID := range []id.EntryID{first.ID, second.ID} {
			reloaded := s.reloadEntry(entryID)
			s.Equal(worklogmodels.StatusDraft, reloaded.Status)
			s.Equal("missing project codes", reloaded.RejectionReason)
			s.Equal(worklogmodels.RejectionSourceMonthly, reloaded.RejectionSource)
		}

		events, err := s.audits.ListByTenant(context.Background(), s.tenantID, 1)
		s.Require().NoError(err)
		s.Require().NotEmpty(events)
		s.Equal(string(audit.ActionMonthRejected), events[0].Action)
		s.Equal("missing project codes", events[0].Reason)
	})
}

func (s *ApprovalSuite) TestRejectValidation() {
	s.createEntry(id.Date(2026, time.April, 7), 3.5)
	approval := s.submitMonth()

	s.Run("reason is required", func() {
		_, err := s.service.Reject(s.ctx(), s.tenantID, approval.ID, s.managerID, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("member cannot reject", func() {
		_, err := s.service.Reject(s.ctx(), s.tenantID, approval.ID, s.memberID, "nope")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *ApprovalSuite) TestApproveSkipsDailyReviewedEntries() {
	kept := s.createEntry(id.Date(2026, time.April, 7), 3.5)
	reviewed := s.createEntry(id.Date(2026, time.April, 21), 4.5)
	approval := s.submitMonth()

	// A daily rejection resolves one entry before the month is reviewed.
	_, err := s.worklog.ChangeStatus(s.ctx(), worklogservice.ChangeStatusInput{
		TenantID: s.tenantID,
		EntryID:  reviewed.ID,
		Target:   worklogmodels.StatusRejected,
		ActorID:  s.managerID,
		Reason:   "wrong project",
	})
	s.Require().NoError(err)

	_, err = s.service.Approve(s.ctx(), s.tenantID, approval.ID, s.managerID)
	s.Require().NoError(err)

	s.Equal(worklogmodels.StatusApproved, s.reloadEntry(kept.ID).Status)
	s.Equal(worklogmodels.StatusRejected, s.reloadEntry(reviewed.ID).Status)
}

func (s *ApprovalSuite) TestSubmitMonthAtomicity() {
	entries := []*worklogmodels.Entry{
		s.createEntry(id.Date(2026, time.April, 6), 8),
		s.createEntry(id.Date(2026, time.April, 7), 8),
		s.createEntry(id.Date(2026, time.April, 8), 8),
	}
	victim := entries[2]

	racing := &racingAppender{appender: s.events, race: func() {
		e, err := s.entryRepo.Load(context.Background(), s.tenantID, victim.ID)
		s.Require().NoError(err)
		s.Require().NoError(e.Amend(s.projectID, e.Date, 4.25, "raced", s.memberID, s.now))
		s.Require().NoError(s.entryRepo.Save(context.Background(), e))
	}}
	svc := New(racing, s.approvalRepo, s.approvalRows, s.entryRepo, s.entryRows, s.directory)

	_, err := svc.SubmitMonth(s.ctx(), s.tenantID, s.memberID, s.anchor, s.memberID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	// The whole month rolled back: every entry is still a draft and no
	// approval record exists for the period.
	for i, entry := range entries {
		reloaded := s.reloadEntry(entry.ID)
		s.Equal(worklogmodels.StatusDraft, reloaded.Status, "entry %d", i)
	}
	s.Equal(2, s.reloadEntry(victim.ID).Version())

	_, err = s.approvalRows.FindForPeriod(context.Background(), s.tenantID, s.memberID, id.Date(2026, time.April, 1))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ApprovalSuite) TestReads() {
	s.createEntry(id.Date(2026, time.April, 7), 3.5)
	approval := s.submitMonth()

	s.Run("get by id", func() {
		got, err := s.service.GetApproval(s.ctx(), s.tenantID, approval.ID)
		s.Require().NoError(err)
		s.Equal(approval.ID, got.ID)
		s.Equal(models.StatusSubmitted, got.Status)
	})

	s.Run("cross-tenant read is not found", func() {
		_, err := s.service.GetApproval(s.ctx(), id.TenantID(uuid.New()), approval.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("find for month", func() {
		got, err := s.service.FindForMonth(s.ctx(), s.tenantID, s.memberID, s.anchor)
		s.Require().NoError(err)
		s.Equal(approval.ID, got.ID)
	})

	s.Run("find for month without approval is not found", func() {
		_, err := s.service.FindForMonth(s.ctx(), s.tenantID, s.memberID, id.Date(2026, time.June, 10))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
