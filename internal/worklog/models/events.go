package models

import (
	"time"

	id "tempus/pkg/domain"
)

// AggregateType is the stream type for work log entries.
const AggregateType = "worklog.entry"

// Stored event type discriminators. These appear in the events table and in
// audit trails; never rename an existing value.
const (
	TypeEntryCreated     = "worklog.entry.created"
	TypeEntryAmended     = "worklog.entry.amended"
	TypeEntryDeleted     = "worklog.entry.deleted"
	TypeEntrySubmitted   = "worklog.entry.submitted"
	TypeEntryRecalled    = "worklog.entry.recalled"
	TypeEntryApproved    = "worklog.entry.approved"
	TypeEntryRejected    = "worklog.entry.rejected"
	TypeEntryReopened    = "worklog.entry.reopened"
	TypeEntryResubmitted = "worklog.entry.resubmitted"
)

// RejectionSource values recorded on EntryRejected and EntryReopened.
const (
	RejectionSourceDaily   = "daily"   // individual review action on one entry
	RejectionSourceMonthly = "monthly" // cascade from a rejected monthly approval
)

// Event is the closed set of things that can happen to a work log entry.
// The unexported marker seals the set: adding a new event means adding a
// case to Entry.apply and to the store codec, and the compiler points at
// both switches.
type Event interface {
	EventType() string
	isEntryEvent()
}

// EntryCreated opens the stream. It carries the full initial state.
type EntryCreated struct {
	EntryID    id.EntryID   `json:"entry_id"`
	TenantID   id.TenantID  `json:"tenant_id"`
	MemberID   id.MemberID  `json:"member_id"`
	ProjectID  id.ProjectID `json:"project_id"`
	Date       time.Time    `json:"date"`
	Hours      float64      `json:"hours"`
	Comment    string       `json:"comment,omitempty"`
	EnteredBy  id.MemberID  `json:"entered_by"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// EntryAmended changes the editable fields while the entry is in DRAFT.
type EntryAmended struct {
	ProjectID  id.ProjectID `json:"project_id"`
	Date       time.Time    `json:"date"`
	Hours      float64      `json:"hours"`
	Comment    string       `json:"comment,omitempty"`
	AmendedBy  id.MemberID  `json:"amended_by"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// EntryDeleted tombstones a DRAFT entry. The stream stays in the log.
type EntryDeleted struct {
	DeletedBy  id.MemberID `json:"deleted_by"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// EntrySubmitted moves DRAFT -> SUBMITTED.
type EntrySubmitted struct {
	SubmittedBy id.MemberID `json:"submitted_by"`
	OccurredAt  time.Time   `json:"occurred_at"`
}

// EntryRecalled moves SUBMITTED -> DRAFT at the member's request.
type EntryRecalled struct {
	RecalledBy id.MemberID `json:"recalled_by"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// EntryApproved moves SUBMITTED -> APPROVED. ApprovalID links the entry to
// the monthly approval that covered it; zero for an individual review.
type EntryApproved struct {
	ApprovedBy id.MemberID   `json:"approved_by"`
	ApprovalID id.ApprovalID `json:"approval_id,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// EntryRejected moves SUBMITTED -> REJECTED and records why.
type EntryRejected struct {
	RejectedBy id.MemberID `json:"rejected_by"`
	Reason     string      `json:"reason"`
	Source     string      `json:"source"` // RejectionSourceDaily or RejectionSourceMonthly
	OccurredAt time.Time   `json:"occurred_at"`
}

// EntryReopened moves REJECTED -> DRAFT. Raised in the same commit as the
// monthly cascade's EntryRejected so rejected entries land back in the
// member's drafts carrying the rejection reason.
type EntryReopened struct {
	Reason     string    `json:"reason"`
	Source     string    `json:"source"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EntryResubmitted moves REJECTED -> SUBMITTED when a monthly batch picks
// the entry up again.
type EntryResubmitted struct {
	SubmittedBy id.MemberID `json:"submitted_by"`
	OccurredAt  time.Time   `json:"occurred_at"`
}

func (EntryCreated) EventType() string     { return TypeEntryCreated }
func (EntryAmended) EventType() string     { return TypeEntryAmended }
func (EntryDeleted) EventType() string     { return TypeEntryDeleted }
func (EntrySubmitted) EventType() string   { return TypeEntrySubmitted }
func (EntryRecalled) EventType() string    { return TypeEntryRecalled }
func (EntryApproved) EventType() string    { return TypeEntryApproved }
func (EntryRejected) EventType() string    { return TypeEntryRejected }
func (EntryReopened) EventType() string    { return TypeEntryReopened }
func (EntryResubmitted) EventType() string { return TypeEntryResubmitted }

func (EntryCreated) isEntryEvent()     {}
func (EntryAmended) isEntryEvent()     {}
func (EntryDeleted) isEntryEvent()     {}
func (EntrySubmitted) isEntryEvent()   {}
func (EntryRecalled) isEntryEvent()    {}
func (EntryApproved) isEntryEvent()    {}
func (EntryRejected) isEntryEvent()    {}
func (EntryReopened) isEntryEvent()    {}
func (EntryResubmitted) isEntryEvent() {}
