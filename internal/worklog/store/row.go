package store

import (
	"context"
	"time"

	"tempus/internal/worklog/models"
	id "tempus/pkg/domain"
)

// Row is the normalized image of one live entry in work_log_entries. It is
// written in the same transaction as the event append and serves two
// consumers: batch commands selecting by day or period, and the projection
// queries. Deleted entries have no row.
type Row struct {
	EntryID         id.EntryID
	TenantID        id.TenantID
	MemberID        id.MemberID
	ProjectID       id.ProjectID
	WorkDate        time.Time
	Hours           float64
	Comment         string
	Status          models.Status
	RejectionSource string
	RejectionReason string
	Version         int
	UpdatedAt       time.Time
}

// RowFromEntry projects the aggregate's current state into its row image.
func RowFromEntry(e *models.Entry) Row {
	return Row{
		EntryID:         e.ID,
		TenantID:        e.TenantID,
		MemberID:        e.MemberID,
		ProjectID:       e.ProjectID,
		WorkDate:        e.Date,
		Hours:           e.Hours,
		Comment:         e.Comment,
		Status:          e.Status,
		RejectionSource: e.RejectionSource,
		RejectionReason: e.RejectionReason,
		Version:         e.Version(),
		UpdatedAt:       e.UpdatedAt,
	}
}

// EntryStore maintains the normalized work_log_entries table.
//
// Error Contract:
// - ListForDay / ListForPeriod return empty slices, never ErrNotFound
// - Apply is idempotent per (entry, version)
// - Infrastructure failures come back wrapped with context
type EntryStore interface {
	// Apply syncs the row image with the aggregate: upsert while the entry
	// lives, delete once it is soft-deleted. Runs on the ambient transaction
	// when one is present.
	Apply(ctx context.Context, e *models.Entry) error

	// ListForDay returns the member's live entries on one civil date.
	ListForDay(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, day time.Time) ([]Row, error)

	// ListForPeriod returns the member's live entries with work_date in the
	// inclusive [from, to] range, ordered by work_date.
	ListForPeriod(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, from, to time.Time) ([]Row, error)
}
