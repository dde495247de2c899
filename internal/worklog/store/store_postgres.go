package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tempus/internal/worklog/models"
	id "tempus/pkg/domain"
	txcontext "tempus/pkg/platform/tx"
)

// PostgresEntryStore maintains work_log_entries in Postgres. Writes go
// through the ambient transaction when one is present so the row image
// commits with the event append.
type PostgresEntryStore struct {
	db *sql.DB
}

// NewPostgresEntryStore creates a Postgres-backed entry store.
func NewPostgresEntryStore(db *sql.DB) *PostgresEntryStore {
	return &PostgresEntryStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresEntryStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresEntryStore) Apply(ctx context.Context, e *models.Entry) error {
	if e.Deleted {
		query := `DELETE FROM work_log_entries WHERE tenant_id = $1 AND entry_id = $2`
		if _, err := s.execer(ctx).ExecContext(ctx, query, uuid.UUID(e.TenantID), uuid.UUID(e.ID)); err != nil {
			return fmt.Errorf("delete entry row: %w", err)
		}
		return nil
	}

	query := `
		INSERT INTO work_log_entries (
			entry_id, tenant_id, member_id, project_id, work_date,
			hours, comment, status, rejection_source, rejection_reason,
			version, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (entry_id) DO UPDATE SET
			project_id       = EXCLUDED.project_id,
			work_date        = EXCLUDED.work_date,
			hours            = EXCLUDED.hours,
			comment          = EXCLUDED.comment,
			status           = EXCLUDED.status,
			rejection_source = EXCLUDED.rejection_source,
			rejection_reason = EXCLUDED.rejection_reason,
			version          = EXCLUDED.version,
			updated_at       = EXCLUDED.updated_at
		WHERE work_log_entries.version < EXCLUDED.version
	`
	row := RowFromEntry(e)
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(row.EntryID),
		uuid.UUID(row.TenantID),
		uuid.UUID(row.MemberID),
		uuid.UUID(row.ProjectID),
		row.WorkDate,
		row.Hours,
		row.Comment,
		string(row.Status),
		row.RejectionSource,
		row.RejectionReason,
		row.Version,
		row.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert entry row: %w", err)
	}
	return nil
}

func (s *PostgresEntryStore) ListForDay(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, day time.Time) ([]Row, error) {
	query := `
		SELECT entry_id, tenant_id, member_id, project_id, work_date,
		       hours, comment, status, rejection_source, rejection_reason,
		       version, updated_at
		FROM work_log_entries
		WHERE tenant_id = $1 AND member_id = $2 AND work_date = $3
		ORDER BY work_date, entry_id
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query,
		uuid.UUID(tenantID), uuid.UUID(memberID), id.DateOf(day))
	if err != nil {
		return nil, fmt.Errorf("query entries for day: %w", err)
	}
	defer rows.Close()

	return scanRows(rows)
}

func (s *PostgresEntryStore) ListForPeriod(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, from, to time.Time) ([]Row, error) {
	query := `
		SELECT entry_id, tenant_id, member_id, project_id, work_date,
		       hours, comment, status, rejection_source, rejection_reason,
		       version, updated_at
		FROM work_log_entries
		WHERE tenant_id = $1 AND member_id = $2
		  AND work_date >= $3 AND work_date <= $4
		ORDER BY work_date, entry_id
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query,
		uuid.UUID(tenantID), uuid.UUID(memberID), id.DateOf(from), id.DateOf(to))
	if err != nil {
		return nil, fmt.Errorf("query entries for period: %w", err)
	}
	defer rows.Close()

	return scanRows(rows)
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	var out []Row
	for rows.Next() {
		var (
			row       Row
			entryID   uuid.UUID
			tenantID  uuid.UUID
			memberID  uuid.UUID
			projectID uuid.UUID
			status    string
		)
		err := rows.Scan(
			&entryID,
			&tenantID,
			&memberID,
			&projectID,
			&row.WorkDate,
			&row.Hours,
			&row.Comment,
			&status,
			&row.RejectionSource,
			&row.RejectionReason,
			&row.Version,
			&row.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan entry row: %w", err)
		}
		row.EntryID = id.EntryID(entryID)
		row.TenantID = id.TenantID(tenantID)
		row.MemberID = id.MemberID(memberID)
		row.ProjectID = id.ProjectID(projectID)
		row.Status = models.Status(status)
		row.WorkDate = id.DateOf(row.WorkDate)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entry rows: %w", err)
	}
	return out, nil
}
