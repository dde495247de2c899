package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tempus/internal/absence/models"
	id "tempus/pkg/domain"
	"tempus/pkg/platform/sentinel"
)

// PostgresAbsenceStore persists absences in Postgres. Absences live outside
// the event-sourced transaction boundary, so no ambient tx plumbing here.
type PostgresAbsenceStore struct {
	db *sql.DB
}

// NewPostgresAbsenceStore creates a Postgres-backed absence store.
func NewPostgresAbsenceStore(db *sql.DB) *PostgresAbsenceStore {
	return &PostgresAbsenceStore{db: db}
}

func (s *PostgresAbsenceStore) Create(ctx context.Context, a *models.Absence) error {
	query := `
		INSERT INTO absences (
			absence_id, tenant_id, member_id, start_date, end_date,
			hours_per_day, kind, note, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(a.ID),
		uuid.UUID(a.TenantID),
		uuid.UUID(a.MemberID),
		a.StartDate,
		a.EndDate,
		a.HoursPerDay,
		string(a.Kind),
		a.Note,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert absence: %w", err)
	}
	return nil
}

func (s *PostgresAbsenceStore) Get(ctx context.Context, tenantID id.TenantID, absenceID id.AbsenceID) (*models.Absence, error) {
	query := `
		SELECT absence_id, tenant_id, member_id, start_date, end_date,
		       hours_per_day, kind, note, created_at, updated_at
		FROM absences
		WHERE tenant_id = $1 AND absence_id = $2
	`
	a, err := scanAbsence(s.db.QueryRowContext(ctx, query, uuid.UUID(tenantID), uuid.UUID(absenceID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("absence %s: %w", absenceID, sentinel.ErrNotFound)
	}
	return a, err
}

func (s *PostgresAbsenceStore) Delete(ctx context.Context, tenantID id.TenantID, absenceID id.AbsenceID) error {
	query := `DELETE FROM absences WHERE tenant_id = $1 AND absence_id = $2`
	res, err := s.db.ExecContext(ctx, query, uuid.UUID(tenantID), uuid.UUID(absenceID))
	if err != nil {
		return fmt.Errorf("delete absence: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete absence: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("absence %s: %w", absenceID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresAbsenceStore) ListOverlapping(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, from, to time.Time) ([]*models.Absence, error) {
	query := `
		SELECT absence_id, tenant_id, member_id, start_date, end_date,
		       hours_per_day, kind, note, created_at, updated_at
		FROM absences
		WHERE tenant_id = $1 AND member_id = $2
		  AND start_date <= $4 AND end_date >= $3
		ORDER BY start_date, absence_id
	`
	rows, err := s.db.QueryContext(ctx, query,
		uuid.UUID(tenantID), uuid.UUID(memberID), id.DateOf(from), id.DateOf(to))
	if err != nil {
		return nil, fmt.Errorf("query absences: %w", err)
	}
	defer rows.Close()

	var out []*models.Absence
	for rows.Next() {
		a, err := scanAbsence(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate absences: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAbsence(scanner rowScanner) (*models.Absence, error) {
	var (
		a         models.Absence
		absenceID uuid.UUID
		tenantID  uuid.UUID
		memberID  uuid.UUID
		kind      string
	)
	err := scanner.Scan(
		&absenceID,
		&tenantID,
		&memberID,
		&a.StartDate,
		&a.EndDate,
		&a.HoursPerDay,
		&kind,
		&a.Note,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan absence: %w", err)
	}
	a.ID = id.AbsenceID(absenceID)
	a.TenantID = id.TenantID(tenantID)
	a.MemberID = id.MemberID(memberID)
	a.Kind = models.Kind(kind)
	a.StartDate = id.DateOf(a.StartDate)
	a.EndDate = id.DateOf(a.EndDate)
	return &a, nil
}
