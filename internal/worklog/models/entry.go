package models

import (
	"fmt"
	"time"

	"tempus/internal/eventstore"
	id "tempus/pkg/domain"
	dErrors "tempus/pkg/domain-errors"
)

const maxCommentLength = 512

// Entry is the event-sourced aggregate root for one work log entry: one
// member, one project, one day, one hour amount.
//
// Invariants:
//   - TenantID, MemberID, ProjectID are non-zero; every operation stays
//     inside the tenant
//   - Hours is within [0, 24] on the quarter-hour grid
//   - Date is a civil date (midnight UTC)
//   - Status follows the transition table in status.go; APPROVED is terminal
//   - Amend and Delete are only legal in DRAFT
//   - A deleted entry accepts no further operations
//
// All state changes go through raise/apply: live commands and stream replay
// share the same apply path, so replaying N committed events always yields
// the same state and version N.
type Entry struct {
	eventstore.Aggregate[Event]

	ID        id.EntryID
	TenantID  id.TenantID
	MemberID  id.MemberID
	ProjectID id.ProjectID
	Date      time.Time
	Hours     float64
	Comment   string
	Status    Status
	EnteredBy id.MemberID // proxy entry: may differ from MemberID

	// Set while the entry carries an unresolved rejection.
	RejectionSource string
	RejectionReason string

	Deleted   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewEntry validates the initial state and raises EntryCreated.
// enteredBy is the acting member; for proxy entry it differs from memberID.
func NewEntry(entryID id.EntryID, tenantID id.TenantID, memberID id.MemberID, projectID id.ProjectID, date time.Time, hours float64, comment string, enteredBy id.MemberID, now time.Time) (*Entry, error) {
	if entryID == (id.EntryID{}) || tenantID == (id.TenantID{}) || memberID == (id.MemberID{}) || enteredBy == (id.MemberID{}) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "entry requires tenant, member, and actor identifiers")
	}
	if projectID == (id.ProjectID{}) {
		return nil, dErrors.New(dErrors.CodeValidation, "project is required")
	}
	if date.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "date is required")
	}
	if err := validateEditable(hours, comment); err != nil {
		return nil, err
	}

	e := &Entry{}
	if err := e.raise(EntryCreated{
		EntryID:    entryID,
		TenantID:   tenantID,
		MemberID:   memberID,
		ProjectID:  projectID,
		Date:       id.DateOf(date),
		Hours:      hours,
		Comment:    comment,
		EnteredBy:  enteredBy,
		OccurredAt: now,
	}); err != nil {
		return nil, err
	}
	return e, nil
}

// Rehydrate rebuilds an entry by replaying its stream. The caller guarantees
// a non-empty, decodable history; unknown events surface as CodeInternal.
func Rehydrate(events []Event) (*Entry, error) {
	e := &Entry{}
	for _, ev := range events {
		if err := e.apply(ev); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// raise validates nothing itself: command methods guard with CanX before
// raising. It applies the event and stages it for the next save.
func (e *Entry) raise(ev Event) error {
	if err := e.apply(ev); err != nil {
		return err
	}
	e.Stage(ev)
	return nil
}

// apply advances state by exactly one event. The switch is exhaustive over
// the sealed event set; a type that reaches default can only come from a
// decoder bug and is fatal.
func (e *Entry) apply(ev Event) error {
	switch v := ev.(type) {
	case EntryCreated:
		e.ID = v.EntryID
		e.TenantID = v.TenantID
		e.MemberID = v.MemberID
		e.ProjectID = v.ProjectID
		e.Date = v.Date
		e.Hours = v.Hours
		e.Comment = v.Comment
		e.Status = StatusDraft
		e.EnteredBy = v.EnteredBy
		e.CreatedAt = v.OccurredAt
		e.UpdatedAt = v.OccurredAt
	case EntryAmended:
		e.ProjectID = v.ProjectID
		e.Date = v.Date
		e.Hours = v.Hours
		e.Comment = v.Comment
		e.UpdatedAt = v.OccurredAt
	case EntryDeleted:
		e.Deleted = true
		e.UpdatedAt = v.OccurredAt
	case EntrySubmitted:
		e.Status = StatusSubmitted
		e.clearRejection()
		e.UpdatedAt = v.OccurredAt
	case EntryRecalled:
		e.Status = StatusDraft
		e.UpdatedAt = v.OccurredAt
	case EntryApproved:
		e.Status = StatusApproved
		e.UpdatedAt = v.OccurredAt
	case EntryRejected:
		e.Status = StatusRejected
		e.RejectionSource = v.Source
		e.RejectionReason = v.Reason
		e.UpdatedAt = v.OccurredAt
	case EntryReopened:
		e.Status = StatusDraft
		e.UpdatedAt = v.OccurredAt
	case EntryResubmitted:
		e.Status = StatusSubmitted
		e.clearRejection()
		e.UpdatedAt = v.OccurredAt
	default:
		return dErrors.New(dErrors.CodeInternal, fmt.Sprintf("unhandled entry event %T", ev))
	}
	e.Advance()
	return nil
}

func (e *Entry) clearRejection() {
	e.RejectionSource = ""
	e.RejectionReason = ""
}

func validateEditable(hours float64, comment string) error {
	if _, err := id.ParseHours(hours); err != nil {
		return err
	}
	if len(comment) > maxCommentLength {
		return dErrors.New(dErrors.CodeValidation, "comment must be 512 characters or less")
	}
	return nil
}

func (e *Entry) guardLive() error {
	if e.Deleted {
		return dErrors.New(dErrors.CodeInvariantViolation, "entry is deleted")
	}
	return nil
}

func (e *Entry) transitionError(target Status) error {
	return dErrors.New(dErrors.CodeInvariantViolation,
		fmt.Sprintf("cannot move entry from %s to %s", e.Status, target))
}

// CanAmend checks that the entry is still editable.
// Mutation is a DRAFT-only privilege; submitted work is frozen until
// recalled or rejected.
func (e *Entry) CanAmend() error {
	if err := e.guardLive(); err != nil {
		return err
	}
	if e.Status != StatusDraft {
		return dErrors.New(dErrors.CodeInvariantViolation,
			fmt.Sprintf("cannot amend entry in status %s", e.Status))
	}
	return nil
}

// Amend replaces the editable fields while in DRAFT.
func (e *Entry) Amend(projectID id.ProjectID, date time.Time, hours float64, comment string, by id.MemberID, now time.Time) error {
	if err := e.CanAmend(); err != nil {
		return err
	}
	if projectID == (id.ProjectID{}) {
		return dErrors.New(dErrors.CodeValidation, "project is required")
	}
	if date.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "date is required")
	}
	if err := validateEditable(hours, comment); err != nil {
		return err
	}
	return e.raise(EntryAmended{
		ProjectID:  projectID,
		Date:       id.DateOf(date),
		Hours:      hours,
		Comment:    comment,
		AmendedBy:  by,
		OccurredAt: now,
	})
}

// CanDelete checks that the entry may be tombstoned.
func (e *Entry) CanDelete() error {
	if err := e.guardLive(); err != nil {
		return err
	}
	if e.Status != StatusDraft {
		return dErrors.New(dErrors.CodeInvariantViolation,
			fmt.Sprintf("cannot delete entry in status %s", e.Status))
	}
	return nil
}

// Delete tombstones a DRAFT entry.
func (e *Entry) Delete(by id.MemberID, now time.Time) error {
	if err := e.CanDelete(); err != nil {
		return err
	}
	return e.raise(EntryDeleted{DeletedBy: by, OccurredAt: now})
}

// CanSubmit checks DRAFT -> SUBMITTED. Resubmission from REJECTED is a
// separate path (CanResubmit) so daily submission never silently picks up
// rejected work.
func (e *Entry) CanSubmit() error {
	if err := e.guardLive(); err != nil {
		return err
	}
	if e.Status != StatusDraft {
		return e.transitionError(StatusSubmitted)
	}
	return nil
}

// Submit moves the entry to SUBMITTED.
func (e *Entry) Submit(by id.MemberID, now time.Time) error {
	if err := e.CanSubmit(); err != nil {
		return err
	}
	return e.raise(EntrySubmitted{SubmittedBy: by, OccurredAt: now})
}

// CanRecall checks SUBMITTED -> DRAFT.
func (e *Entry) CanRecall() error {
	if err := e.guardLive(); err != nil {
		return err
	}
	if e.Status != StatusSubmitted {
		return e.transitionError(StatusDraft)
	}
	return nil
}

// Recall returns a SUBMITTED entry to DRAFT.
func (e *Entry) Recall(by id.MemberID, now time.Time) error {
	if err := e.CanRecall(); err != nil {
		return err
	}
	return e.raise(EntryRecalled{RecalledBy: by, OccurredAt: now})
}

// CanApprove checks SUBMITTED -> APPROVED.
func (e *Entry) CanApprove() error {
	if err := e.guardLive(); err != nil {
		return err
	}
	if !e.Status.CanTransitionTo(StatusApproved) {
		return e.transitionError(StatusApproved)
	}
	return nil
}

// Approve moves the entry to APPROVED. Terminal: nothing transitions out.
func (e *Entry) Approve(by id.MemberID, approvalID id.ApprovalID, now time.Time) error {
	if err := e.CanApprove(); err != nil {
		return err
	}
	return e.raise(EntryApproved{ApprovedBy: by, ApprovalID: approvalID, OccurredAt: now})
}

// CanReject checks SUBMITTED -> REJECTED.
func (e *Entry) CanReject() error {
	if err := e.guardLive(); err != nil {
		return err
	}
	if !e.Status.CanTransitionTo(StatusRejected) {
		return e.transitionError(StatusRejected)
	}
	return nil
}

// Reject moves the entry to REJECTED with a reason and source.
func (e *Entry) Reject(by id.MemberID, reason, source string, now time.Time) error {
	if err := e.CanReject(); err != nil {
		return err
	}
	if reason == "" {
		return dErrors.New(dErrors.CodeValidation, "rejection reason is required")
	}
	return e.raise(EntryRejected{RejectedBy: by, Reason: reason, Source: source, OccurredAt: now})
}

// CanReopen checks REJECTED -> DRAFT.
func (e *Entry) CanReopen() error {
	if err := e.guardLive(); err != nil {
		return err
	}
	if e.Status != StatusRejected {
		return e.transitionError(StatusDraft)
	}
	return nil
}

// Reopen returns a REJECTED entry to DRAFT, keeping the rejection metadata
// visible so the member sees why it came back.
func (e *Entry) Reopen(reason, source string, now time.Time) error {
	if err := e.CanReopen(); err != nil {
		return err
	}
	return e.raise(EntryReopened{Reason: reason, Source: source, OccurredAt: now})
}

// CanResubmit checks REJECTED -> SUBMITTED.
func (e *Entry) CanResubmit() error {
	if err := e.guardLive(); err != nil {
		return err
	}
	if !e.Status.CanTransitionTo(StatusSubmitted) {
		return e.transitionError(StatusSubmitted)
	}
	return nil
}

// Resubmit moves a REJECTED entry straight back to SUBMITTED. Only monthly
// batch submission uses this path.
func (e *Entry) Resubmit(by id.MemberID, now time.Time) error {
	if err := e.CanResubmit(); err != nil {
		return err
	}
	return e.raise(EntryResubmitted{SubmittedBy: by, OccurredAt: now})
}
