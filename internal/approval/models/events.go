package models

import (
	"time"

	id "tempus/pkg/domain"
)

// AggregateType is the stream type for monthly approvals.
const AggregateType = "approval.month"

// Stored event type discriminators.
const (
	TypeApprovalOpened      = "approval.month.opened"
	TypeApprovalSubmitted   = "approval.month.submitted"
	TypeApprovalApproved    = "approval.month.approved"
	TypeApprovalRejected    = "approval.month.rejected"
	TypeApprovalResubmitted = "approval.month.resubmitted"
)

// Event is the closed set of things that can happen to a monthly approval.
type Event interface {
	EventType() string
	isApprovalEvent()
}

// ApprovalOpened creates the approval for one member and fiscal month.
// At most one approval exists per (tenant, member, period start).
type ApprovalOpened struct {
	ApprovalID  id.ApprovalID `json:"approval_id"`
	TenantID    id.TenantID   `json:"tenant_id"`
	MemberID    id.MemberID   `json:"member_id"`
	PeriodStart time.Time     `json:"period_start"`
	PeriodEnd   time.Time     `json:"period_end"`
	OccurredAt  time.Time     `json:"occurred_at"`
}

// ApprovalSubmitted moves PENDING -> SUBMITTED. EntryCount records how many
// entries the batch covered at submission time.
type ApprovalSubmitted struct {
	SubmittedBy id.MemberID `json:"submitted_by"`
	EntryCount  int         `json:"entry_count"`
	OccurredAt  time.Time   `json:"occurred_at"`
}

// ApprovalApproved moves SUBMITTED -> APPROVED. Terminal.
type ApprovalApproved struct {
	ReviewedBy id.MemberID `json:"reviewed_by"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// ApprovalRejected moves SUBMITTED -> REJECTED. The reason cascades onto
// every entry the approval covered.
type ApprovalRejected struct {
	ReviewedBy id.MemberID `json:"reviewed_by"`
	Reason     string      `json:"reason"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// ApprovalResubmitted moves REJECTED -> SUBMITTED on the same record,
// refreshing the submission metadata.
type ApprovalResubmitted struct {
	SubmittedBy id.MemberID `json:"submitted_by"`
	EntryCount  int         `json:"entry_count"`
	OccurredAt  time.Time   `json:"occurred_at"`
}

func (ApprovalOpened) EventType() string      { return TypeApprovalOpened }
func (ApprovalSubmitted) EventType() string   { return TypeApprovalSubmitted }
func (ApprovalApproved) EventType() string    { return TypeApprovalApproved }
func (ApprovalRejected) EventType() string    { return TypeApprovalRejected }
func (ApprovalResubmitted) EventType() string { return TypeApprovalResubmitted }

func (ApprovalOpened) isApprovalEvent()      {}
func (ApprovalSubmitted) isApprovalEvent()   {}
func (ApprovalApproved) isApprovalEvent()    {}
func (ApprovalRejected) isApprovalEvent()    {}
func (ApprovalResubmitted) isApprovalEvent() {}
