package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tempus/internal/approval/models"
	id "tempus/pkg/domain"
	"tempus/pkg/platform/sentinel"
	txcontext "tempus/pkg/platform/tx"
)

// PostgresApprovalStore maintains monthly_approvals in Postgres.
type PostgresApprovalStore struct {
	db *sql.DB
}

// NewPostgresApprovalStore creates a Postgres-backed approval store.
func NewPostgresApprovalStore(db *sql.DB) *PostgresApprovalStore {
	return &PostgresApprovalStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresApprovalStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const approvalColumns = `
	approval_id, tenant_id, member_id, period_start, period_end,
	status, submitted_by, submitted_at, entry_count,
	reviewed_by, reviewed_at, rejection_reason, version, updated_at`

func (s *PostgresApprovalStore) Apply(ctx context.Context, a *models.Approval) error {
	query := `
		INSERT INTO monthly_approvals (
			approval_id, tenant_id, member_id, period_start, period_end,
			status, submitted_by, submitted_at, entry_count,
			reviewed_by, reviewed_at, rejection_reason, version, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (approval_id) DO UPDATE SET
			status           = EXCLUDED.status,
			submitted_by     = EXCLUDED.submitted_by,
			submitted_at     = EXCLUDED.submitted_at,
			entry_count      = EXCLUDED.entry_count,
			reviewed_by      = EXCLUDED.reviewed_by,
			reviewed_at      = EXCLUDED.reviewed_at,
			rejection_reason = EXCLUDED.rejection_reason,
			version          = EXCLUDED.version,
			updated_at       = EXCLUDED.updated_at
		WHERE monthly_approvals.version < EXCLUDED.version
	`
	row := RowFromApproval(a)

	var reviewedBy *uuid.UUID
	if a.ReviewedBy != (id.MemberID{}) {
		rid := uuid.UUID(a.ReviewedBy)
		reviewedBy = &rid
	}
	var reviewedAt *time.Time
	if !a.ReviewedAt.IsZero() {
		reviewedAt = &a.ReviewedAt
	}

	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(row.ApprovalID),
		uuid.UUID(row.TenantID),
		uuid.UUID(row.MemberID),
		row.PeriodStart,
		row.PeriodEnd,
		string(row.Status),
		uuid.UUID(row.SubmittedBy),
		row.SubmittedAt,
		row.EntryCount,
		reviewedBy,
		reviewedAt,
		row.RejectionReason,
		row.Version,
		row.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert approval row: %w", err)
	}
	return nil
}

func (s *PostgresApprovalStore) FindForPeriod(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, periodStart time.Time) (Row, error) {
	query := `SELECT ` + approvalColumns + `
		FROM monthly_approvals
		WHERE tenant_id = $1 AND member_id = $2 AND period_start = $3`

	row, err := s.scanOne(s.execer(ctx).QueryRowContext(ctx, query,
		uuid.UUID(tenantID), uuid.UUID(memberID), id.DateOf(periodStart)))
	if errors.Is(err, sql.ErrNoRows) {
		return Row{}, fmt.Errorf("approval for period %s: %w", id.FormatDate(periodStart), sentinel.ErrNotFound)
	}
	return row, err
}

func (s *PostgresApprovalStore) FindCovering(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, day time.Time) (Row, error) {
	query := `SELECT ` + approvalColumns + `
		FROM monthly_approvals
		WHERE tenant_id = $1 AND member_id = $2
		  AND period_start <= $3 AND period_end >= $3`

	row, err := s.scanOne(s.execer(ctx).QueryRowContext(ctx, query,
		uuid.UUID(tenantID), uuid.UUID(memberID), id.DateOf(day)))
	if errors.Is(err, sql.ErrNoRows) {
		return Row{}, fmt.Errorf("approval covering %s: %w", id.FormatDate(day), sentinel.ErrNotFound)
	}
	return row, err
}

func (s *PostgresApprovalStore) ListPending(ctx context.Context, tenantID id.TenantID) ([]Row, error) {
	query := `SELECT ` + approvalColumns + `
		FROM monthly_approvals
		WHERE tenant_id = $1 AND status = $2
		ORDER BY submitted_at, approval_id`

	rows, err := s.execer(ctx).QueryContext(ctx, query,
		uuid.UUID(tenantID), string(models.StatusSubmitted))
	if err != nil {
		return nil, fmt.Errorf("query pending approvals: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		row, err := s.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate approval rows: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresApprovalStore) scanOne(scanner rowScanner) (Row, error) {
	var (
		row        Row
		approvalID uuid.UUID
		tenantID   uuid.UUID
		memberID   uuid.UUID
		status     string
		submBy     uuid.UUID
		revBy      *uuid.UUID
		revAt      *time.Time
	)
	err := scanner.Scan(
		&approvalID,
		&tenantID,
		&memberID,
		&row.PeriodStart,
		&row.PeriodEnd,
		&status,
		&submBy,
		&row.SubmittedAt,
		&row.EntryCount,
		&revBy,
		&revAt,
		&row.RejectionReason,
		&row.Version,
		&row.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Row{}, err
		}
		return Row{}, fmt.Errorf("scan approval row: %w", err)
	}
	row.ApprovalID = id.ApprovalID(approvalID)
	row.TenantID = id.TenantID(tenantID)
	row.MemberID = id.MemberID(memberID)
	row.Status = models.Status(status)
	row.SubmittedBy = id.MemberID(submBy)
	if revBy != nil {
		row.ReviewedBy = id.MemberID(*revBy)
	}
	if revAt != nil {
		row.ReviewedAt = *revAt
	}
	row.PeriodStart = id.DateOf(row.PeriodStart)
	row.PeriodEnd = id.DateOf(row.PeriodEnd)
	return row, nil
}
