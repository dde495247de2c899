package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	approvalmodels "tempus/internal/approval/models"
	id "tempus/pkg/domain"
	txcontext "tempus/pkg/platform/tx"
)

// PostgresReadStore answers the projection queries with SQL aggregation over
// the normalized tables. No query replays events.
type PostgresReadStore struct {
	db *sql.DB
}

// NewPostgresReadStore creates a Postgres-backed read store.
func NewPostgresReadStore(db *sql.DB) *PostgresReadStore {
	return &PostgresReadStore{db: db}
}

type dbQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresReadStore) querier(ctx context.Context) dbQuerier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresReadStore) DailyTotals(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, from, to time.Time) ([]DayTotal, error) {
	query := `
		SELECT work_date, SUM(hours)
		FROM work_log_entries
		WHERE tenant_id = $1 AND member_id = $2
		  AND work_date >= $3 AND work_date <= $4
		GROUP BY work_date
		ORDER BY work_date
	`
	rows, err := s.querier(ctx).QueryContext(ctx, query,
		uuid.UUID(tenantID), uuid.UUID(memberID), id.DateOf(from), id.DateOf(to))
	if err != nil {
		return nil, fmt.Errorf("query daily totals: %w", err)
	}
	defer rows.Close()

	return scanTotals(rows)
}

func (s *PostgresReadStore) AbsenceTotals(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, from, to time.Time) ([]DayTotal, error) {
	// Each absence interval is clamped to the query range and expanded to one
	// row per covered day before summing.
	query := `
		SELECT d::date, SUM(a.hours_per_day)
		FROM absences a
		CROSS JOIN LATERAL generate_series(
			GREATEST(a.start_date, $3::date),
			LEAST(a.end_date, $4::date),
			interval '1 day'
		) AS d
		WHERE a.tenant_id = $1 AND a.member_id = $2
		  AND a.start_date <= $4 AND a.end_date >= $3
		GROUP BY d::date
		ORDER BY d::date
	`
	rows, err := s.querier(ctx).QueryContext(ctx, query,
		uuid.UUID(tenantID), uuid.UUID(memberID), id.DateOf(from), id.DateOf(to))
	if err != nil {
		return nil, fmt.Errorf("query absence totals: %w", err)
	}
	defer rows.Close()

	return scanTotals(rows)
}

func (s *PostgresReadStore) DayStatuses(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, from, to time.Time) ([]DayStatus, error) {
	query := `
		SELECT work_date,
		       CASE WHEN COUNT(DISTINCT status) = 1 THEN MIN(status) ELSE $5 END
		FROM work_log_entries
		WHERE tenant_id = $1 AND member_id = $2
		  AND work_date >= $3 AND work_date <= $4
		GROUP BY work_date
	`
	rows, err := s.querier(ctx).QueryContext(ctx, query,
		uuid.UUID(tenantID), uuid.UUID(memberID), id.DateOf(from), id.DateOf(to), StatusMixed)
	if err != nil {
		return nil, fmt.Errorf("query day statuses: %w", err)
	}
	defer rows.Close()

	byDay := make(map[time.Time]string)
	for rows.Next() {
		var (
			day    time.Time
			status string
		)
		if err := rows.Scan(&day, &status); err != nil {
			return nil, fmt.Errorf("scan day status: %w", err)
		}
		byDay[id.DateOf(day)] = status
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate day statuses: %w", err)
	}
	return denseStatuses(from, to, byDay), nil
}

func (s *PostgresReadStore) DailyEntries(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, day time.Time) ([]EntryDetail, error) {
	query := `
		SELECT entry_id, project_id, work_date, hours, comment,
		       status, rejection_source, rejection_reason
		FROM work_log_entries
		WHERE tenant_id = $1 AND member_id = $2 AND work_date = $3
		ORDER BY entry_id
	`
	rows, err := s.querier(ctx).QueryContext(ctx, query,
		uuid.UUID(tenantID), uuid.UUID(memberID), id.DateOf(day))
	if err != nil {
		return nil, fmt.Errorf("query daily entries: %w", err)
	}
	defer rows.Close()

	details := make([]EntryDetail, 0)
	for rows.Next() {
		var (
			detail    EntryDetail
			entryID   uuid.UUID
			projectID uuid.UUID
		)
		err := rows.Scan(
			&entryID,
			&projectID,
			&detail.Date,
			&detail.Hours,
			&detail.Comment,
			&detail.Status,
			&detail.RejectionSource,
			&detail.RejectionReason,
		)
		if err != nil {
			return nil, fmt.Errorf("scan daily entry: %w", err)
		}
		detail.EntryID = id.EntryID(entryID)
		detail.ProjectID = id.ProjectID(projectID)
		detail.Date = id.DateOf(detail.Date)
		details = append(details, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily entries: %w", err)
	}
	return details, nil
}

func (s *PostgresReadStore) MonthlySummary(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, period id.FiscalMonth) (MonthlySummary, error) {
	query := `
		SELECT project_id, SUM(hours)
		FROM work_log_entries
		WHERE tenant_id = $1 AND member_id = $2
		  AND work_date >= $3 AND work_date <= $4
		GROUP BY project_id
	`
	rows, err := s.querier(ctx).QueryContext(ctx, query,
		uuid.UUID(tenantID), uuid.UUID(memberID), period.Start, period.End)
	if err != nil {
		return MonthlySummary{}, fmt.Errorf("query monthly summary: %w", err)
	}
	defer rows.Close()

	byProject := make(map[id.ProjectID]float64)
	for rows.Next() {
		var (
			projectID uuid.UUID
			hours     float64
		)
		if err := rows.Scan(&projectID, &hours); err != nil {
			return MonthlySummary{}, fmt.Errorf("scan project total: %w", err)
		}
		byProject[id.ProjectID(projectID)] = hours
	}
	if err := rows.Err(); err != nil {
		return MonthlySummary{}, fmt.Errorf("iterate project totals: %w", err)
	}
	return buildSummary(period, byProject), nil
}

func (s *PostgresReadStore) PendingApprovals(ctx context.Context, tenantID id.TenantID) ([]PendingApproval, error) {
	query := `
		SELECT a.approval_id, a.member_id, a.period_start, a.period_end,
		       a.submitted_at, a.entry_count, COALESCE(SUM(e.hours), 0)
		FROM monthly_approvals a
		LEFT JOIN work_log_entries e
		  ON e.tenant_id = a.tenant_id AND e.member_id = a.member_id
		 AND e.work_date >= a.period_start AND e.work_date <= a.period_end
		WHERE a.tenant_id = $1 AND a.status = $2
		GROUP BY a.approval_id, a.member_id, a.period_start, a.period_end,
		         a.submitted_at, a.entry_count
		ORDER BY a.submitted_at, a.approval_id
	`
	rows, err := s.querier(ctx).QueryContext(ctx, query,
		uuid.UUID(tenantID), string(approvalmodels.StatusSubmitted))
	if err != nil {
		return nil, fmt.Errorf("query pending approvals: %w", err)
	}
	defer rows.Close()

	queue := make([]PendingApproval, 0)
	for rows.Next() {
		var (
			item       PendingApproval
			approvalID uuid.UUID
			memberID   uuid.UUID
		)
		err := rows.Scan(
			&approvalID,
			&memberID,
			&item.PeriodStart,
			&item.PeriodEnd,
			&item.SubmittedAt,
			&item.EntryCount,
			&item.TotalHours,
		)
		if err != nil {
			return nil, fmt.Errorf("scan pending approval: %w", err)
		}
		item.ApprovalID = id.ApprovalID(approvalID)
		item.MemberID = id.MemberID(memberID)
		item.PeriodStart = id.DateOf(item.PeriodStart)
		item.PeriodEnd = id.DateOf(item.PeriodEnd)
		queue = append(queue, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending approvals: %w", err)
	}
	return queue, nil
}

func scanTotals(rows *sql.Rows) ([]DayTotal, error) {
	totals := make([]DayTotal, 0)
	for rows.Next() {
		var total DayTotal
		if err := rows.Scan(&total.Date, &total.Hours); err != nil {
			return nil, fmt.Errorf("scan day total: %w", err)
		}
		total.Date = id.DateOf(total.Date)
		totals = append(totals, total)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate day totals: %w", err)
	}
	return totals, nil
}
