package store

import (
	"context"
	"time"

	id "tempus/pkg/domain"
)

// ReadStore serves the projection queries from the normalized tables the
// write side maintains (work_log_entries, absences, monthly_approvals).
// Results are always re-derivable from the event log; Rebuilder re-derives
// them when a table is corrupted or the row schema changes.
//
// All queries are tenant-scoped; member-level queries additionally take the
// member. Date parameters are civil dates and ranges are inclusive.
//
// Error Contract:
// - slice-returning queries yield empty results, never ErrNotFound
// - MonthlySummary yields a zero-total summary for an empty window
type ReadStore interface {
	// DailyTotals returns summed hours per work date, over all statuses.
	// Days without entries are absent from the result.
	DailyTotals(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, from, to time.Time) ([]DayTotal, error)

	// AbsenceTotals returns summed absence hours per day: each absence
	// interval is intersected with the range and contributes its hours per
	// day to every covered date. Days without absences are absent.
	AbsenceTotals(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, from, to time.Time) ([]DayTotal, error)

	// DayStatuses returns one row per day of the range.
	DayStatuses(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, from, to time.Time) ([]DayStatus, error)

	// DailyEntries returns the member's entries on one civil date.
	DailyEntries(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, day time.Time) ([]EntryDetail, error)

	// MonthlySummary returns the fiscal month rollup.
	MonthlySummary(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, period id.FiscalMonth) (MonthlySummary, error)

	// PendingApprovals returns the tenant's submitted-but-unreviewed
	// approvals joined with their window totals, ordered by submission time.
	PendingApprovals(ctx context.Context, tenantID id.TenantID) ([]PendingApproval, error)
}
