package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"tempus/internal/tenant/models"
	id "tempus/pkg/domain"
	"tempus/pkg/platform/sentinel"
	txcontext "tempus/pkg/platform/tx"
)

// PostgresStore persists members in the members table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const memberColumns = "id, tenant_id, display_name, role, status, created_at, updated_at"

func (s *PostgresStore) Create(ctx context.Context, m *models.Member) error {
	query := `
		INSERT INTO members (id, tenant_id, display_name, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(m.ID), uuid.UUID(m.TenantID), m.DisplayName,
		string(m.Role), string(m.Status), m.CreatedAt, m.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByTenantAndID(ctx context.Context, tenantID id.TenantID, memberID id.MemberID) (*models.Member, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM members
		WHERE tenant_id = $1 AND id = $2
	`
	return scanMember(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(tenantID), uuid.UUID(memberID)))
}

func (s *PostgresStore) ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*models.Member, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM members
		WHERE tenant_id = $1
		ORDER BY created_at, id
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, uuid.UUID(tenantID))
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var out []*models.Member
	for rows.Next() {
		m, err := scanMemberRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Update(ctx context.Context, m *models.Member) error {
	query := `
		UPDATE members
		SET display_name = $3, role = $4, status = $5, updated_at = $6
		WHERE tenant_id = $1 AND id = $2
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(m.TenantID), uuid.UUID(m.ID),
		m.DisplayName, string(m.Role), string(m.Status), m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update member: rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Execute atomically validates and mutates a member. The row is locked with
// SELECT ... FOR UPDATE for the duration of the transaction.
func (s *PostgresStore) Execute(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, validate func(*models.Member) error, mutate func(*models.Member)) (*models.Member, error) {
	run := func(ctx context.Context, exec dbExecutor) (*models.Member, error) {
		query := `
			SELECT ` + memberColumns + `
			FROM members
			WHERE tenant_id = $1 AND id = $2
			FOR UPDATE
		`
		m, err := scanMember(exec.QueryRowContext(ctx, query, uuid.UUID(tenantID), uuid.UUID(memberID)))
		if err != nil {
			return nil, err
		}
		if err := validate(m); err != nil {
			return nil, err
		}
		mutate(m)

		update := `
			UPDATE members
			SET display_name = $3, role = $4, status = $5, updated_at = $6
			WHERE tenant_id = $1 AND id = $2
		`
		if _, err := exec.ExecContext(ctx, update,
			uuid.UUID(m.TenantID), uuid.UUID(m.ID),
			m.DisplayName, string(m.Role), string(m.Status), m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("update member: %w", err)
		}
		return m, nil
	}

	if tx, ok := txcontext.From(ctx); ok {
		return run(ctx, tx)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin member update: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	m, err := run(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit member update: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) CountByTenant(ctx context.Context, tenantID id.TenantID) (int, error) {
	var count int
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT count(*) FROM members WHERE tenant_id = $1`, uuid.UUID(tenantID),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row *sql.Row) (*models.Member, error) {
	m, err := scanMemberRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return m, err
}

func scanMemberRow(row rowScanner) (*models.Member, error) {
	var (
		m        models.Member
		memberID uuid.UUID
		tenantID uuid.UUID
		role     string
		status   string
	)
	err := row.Scan(&memberID, &tenantID, &m.DisplayName, &role, &status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan member: %w", err)
	}
	m.ID = id.MemberID(memberID)
	m.TenantID = id.TenantID(tenantID)
	m.Role = models.Role(role)
	m.Status = models.MemberStatus(status)
	return &m, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
