package store

import (
	"context"
	"time"

	"tempus/internal/approval/models"
	id "tempus/pkg/domain"
)

// Row is the normalized image of one approval in monthly_approvals. The
// recall gate and the pending-approvals queue read it; the event stream
// stays the source of truth.
type Row struct {
	ApprovalID      id.ApprovalID
	TenantID        id.TenantID
	MemberID        id.MemberID
	PeriodStart     time.Time
	PeriodEnd       time.Time
	Status          models.Status
	SubmittedBy     id.MemberID
	SubmittedAt     time.Time
	EntryCount      int
	ReviewedBy      id.MemberID
	ReviewedAt      time.Time
	RejectionReason string
	Version         int
	UpdatedAt       time.Time
}

// RowFromApproval projects the aggregate's current state into its row image.
func RowFromApproval(a *models.Approval) Row {
	return Row{
		ApprovalID:      a.ID,
		TenantID:        a.TenantID,
		MemberID:        a.MemberID,
		PeriodStart:     a.PeriodStart,
		PeriodEnd:       a.PeriodEnd,
		Status:          a.Status,
		SubmittedBy:     a.SubmittedBy,
		SubmittedAt:     a.SubmittedAt,
		EntryCount:      a.EntryCount,
		ReviewedBy:      a.ReviewedBy,
		ReviewedAt:      a.ReviewedAt,
		RejectionReason: a.RejectionReason,
		Version:         a.Version(),
		UpdatedAt:       a.SubmittedAt,
	}
}

// ApprovalStore maintains the normalized monthly_approvals table.
//
// Error Contract:
// - FindForPeriod and FindCovering return ErrNotFound when no approval
//   matches
// - ListPending returns an empty slice, never ErrNotFound
type ApprovalStore interface {
	// Apply syncs the row image with the aggregate. Runs on the ambient
	// transaction when one is present.
	Apply(ctx context.Context, a *models.Approval) error

	// FindForPeriod returns the member's approval for the period starting on
	// the given date. At most one exists.
	FindForPeriod(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, periodStart time.Time) (Row, error)

	// FindCovering returns the member's approval whose period contains the
	// given civil date. Day-level recall checks this gate.
	FindCovering(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, day time.Time) (Row, error)

	// ListPending returns the tenant's submitted-but-unreviewed approvals
	// ordered by submission time.
	ListPending(ctx context.Context, tenantID id.TenantID) ([]Row, error)
}
