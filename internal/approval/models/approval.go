package models

import (
	"fmt"
	"time"

	"tempus/internal/eventstore"
	id "tempus/pkg/domain"
	dErrors "tempus/pkg/domain-errors"
)

// Approval is the event-sourced aggregate root for one member's fiscal
// month. It gates what the member may still do with the entries in its
// window: once the month is handed in, day-level recall is blocked until a
// reviewer decides.
//
// Invariants:
//   - One approval per (tenant, member, period start); the store enforces
//     uniqueness, the service looks up before opening
//   - Status follows status.go; APPROVED is terminal
//   - Period is a fiscal month window: Start and End are civil dates,
//     Start <= End
//   - A rejection always carries a reason; the cascade copies it onto the
//     covered entries
type Approval struct {
	eventstore.Aggregate[Event]

	ID          id.ApprovalID
	TenantID    id.TenantID
	MemberID    id.MemberID
	PeriodStart time.Time
	PeriodEnd   time.Time
	Status      Status

	SubmittedBy id.MemberID
	SubmittedAt time.Time
	EntryCount  int

	ReviewedBy      id.MemberID
	ReviewedAt      time.Time
	RejectionReason string
}

// Open creates the approval in PENDING. Callers submit it in the same
// command; PENDING never survives a transaction.
func Open(approvalID id.ApprovalID, tenantID id.TenantID, memberID id.MemberID, period id.FiscalMonth, now time.Time) (*Approval, error) {
	if approvalID == (id.ApprovalID{}) || tenantID == (id.TenantID{}) || memberID == (id.MemberID{}) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "approval requires tenant, member, and approval identifiers")
	}
	if period.Start.IsZero() || period.End.Before(period.Start) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "approval period is invalid")
	}

	a := &Approval{}
	if err := a.raise(ApprovalOpened{
		ApprovalID:  approvalID,
		TenantID:    tenantID,
		MemberID:    memberID,
		PeriodStart: period.Start,
		PeriodEnd:   period.End,
		OccurredAt:  now,
	}); err != nil {
		return nil, err
	}
	return a, nil
}

// Rehydrate rebuilds an approval by replaying its stream.
func Rehydrate(events []Event) (*Approval, error) {
	a := &Approval{}
	for _, ev := range events {
		if err := a.apply(ev); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Period returns the fiscal month window this approval covers.
func (a *Approval) Period() id.FiscalMonth {
	return id.FiscalMonth{Start: a.PeriodStart, End: a.PeriodEnd}
}

// BlocksRecall reports whether day-level recall inside the period must be
// refused. Any approval that has been handed in blocks, including a
// rejected one: the member resolves a rejection through monthly
// resubmission, not by quietly pulling days out.
func (a *Approval) BlocksRecall() bool {
	return a.Status != StatusPending
}

func (a *Approval) raise(ev Event) error {
	if err := a.apply(ev); err != nil {
		return err
	}
	a.Stage(ev)
	return nil
}

func (a *Approval) apply(ev Event) error {
	switch v := ev.(type) {
	case ApprovalOpened:
		a.ID = v.ApprovalID
		a.TenantID = v.TenantID
		a.MemberID = v.MemberID
		a.PeriodStart = v.PeriodStart
		a.PeriodEnd = v.PeriodEnd
		a.Status = StatusPending
	case ApprovalSubmitted:
		a.Status = StatusSubmitted
		a.SubmittedBy = v.SubmittedBy
		a.SubmittedAt = v.OccurredAt
		a.EntryCount = v.EntryCount
	case ApprovalApproved:
		a.Status = StatusApproved
		a.ReviewedBy = v.ReviewedBy
		a.ReviewedAt = v.OccurredAt
	case ApprovalRejected:
		a.Status = StatusRejected
		a.ReviewedBy = v.ReviewedBy
		a.ReviewedAt = v.OccurredAt
		a.RejectionReason = v.Reason
	case ApprovalResubmitted:
		a.Status = StatusSubmitted
		a.SubmittedBy = v.SubmittedBy
		a.SubmittedAt = v.OccurredAt
		a.EntryCount = v.EntryCount
		a.RejectionReason = ""
	default:
		return dErrors.New(dErrors.CodeInternal, fmt.Sprintf("unhandled approval event %T", ev))
	}
	a.Advance()
	return nil
}

// CanSubmit checks PENDING -> SUBMITTED.
func (a *Approval) CanSubmit() error {
	if !a.Status.CanTransitionTo(StatusSubmitted) || a.Status != StatusPending {
		return a.transitionError(StatusSubmitted)
	}
	return nil
}

// Submit hands the month in for review.
func (a *Approval) Submit(by id.MemberID, entryCount int, now time.Time) error {
	if err := a.CanSubmit(); err != nil {
		return err
	}
	return a.raise(ApprovalSubmitted{SubmittedBy: by, EntryCount: entryCount, OccurredAt: now})
}

// CanApprove checks SUBMITTED -> APPROVED.
func (a *Approval) CanApprove() error {
	if !a.Status.CanTransitionTo(StatusApproved) {
		return a.transitionError(StatusApproved)
	}
	return nil
}

// Approve closes the month. Terminal: the covered entries freeze with it.
func (a *Approval) Approve(by id.MemberID, now time.Time) error {
	if err := a.CanApprove(); err != nil {
		return err
	}
	return a.raise(ApprovalApproved{ReviewedBy: by, OccurredAt: now})
}

// CanReject checks SUBMITTED -> REJECTED.
func (a *Approval) CanReject() error {
	if !a.Status.CanTransitionTo(StatusRejected) {
		return a.transitionError(StatusRejected)
	}
	return nil
}

// Reject sends the month back. The service cascades the reason onto every
// covered entry in the same transaction.
func (a *Approval) Reject(by id.MemberID, reason string, now time.Time) error {
	if err := a.CanReject(); err != nil {
		return err
	}
	if reason == "" {
		return dErrors.New(dErrors.CodeValidation, "rejection reason is required")
	}
	return a.raise(ApprovalRejected{ReviewedBy: by, Reason: reason, OccurredAt: now})
}

// CanResubmit checks REJECTED -> SUBMITTED.
func (a *Approval) CanResubmit() error {
	if a.Status != StatusRejected {
		return a.transitionError(StatusSubmitted)
	}
	return nil
}

// Resubmit hands a rejected month back in on the same record.
func (a *Approval) Resubmit(by id.MemberID, entryCount int, now time.Time) error {
	if err := a.CanResubmit(); err != nil {
		return err
	}
	return a.raise(ApprovalResubmitted{SubmittedBy: by, EntryCount: entryCount, OccurredAt: now})
}

func (a *Approval) transitionError(target Status) error {
	return dErrors.New(dErrors.CodeInvariantViolation,
		fmt.Sprintf("cannot move approval from %s to %s", a.Status, target))
}
