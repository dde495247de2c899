package tenant

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

// PostgresStore persists tenants in the tenants table. The unique index on
// lower(name) is the case-insensitive uniqueness guard: concurrent creates
// with the same name race on the index and the loser's insert fails.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) CreateIfNameAvailable(ctx context.Context, t *models.Tenant) error {
	query := `
		INSERT INTO tenants (id, name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(t.ID), t.Name, string(t.Status), t.CreatedAt, t.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert tenant: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error) {
	query := `
		SELECT id, name, status, created_at, updated_at
		FROM tenants
		WHERE id = $1
	`
	return s.scanTenant(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(tenantID)))
}

func (s *PostgresStore) FindByName(ctx context.Context, name string) (*models.Tenant, error) {
	query := `
		SELECT id, name, status, created_at, updated_at
		FROM tenants
		WHERE lower(name) = lower($1)
	`
	return s.scanTenant(s.execer(ctx).QueryRowContext(ctx, query, name))
}

func (s *PostgresStore) Update(ctx context.Context, t *models.Tenant) error {
	query := `
		UPDATE tenants
		SET name = $2, status = $3, updated_at = $4
		WHERE id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(t.ID), t.Name, string(t.Status), t.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("update tenant: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update tenant: rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Execute atomically validates and mutates a tenant. The row is locked with
// SELECT ... FOR UPDATE for the duration of the transaction, so the validate
// callback sees a state no concurrent writer can change underneath it.
func (s *PostgresStore) Execute(ctx context.Context, tenantID id.TenantID, validate func(*models.Tenant) error, mutate func(*models.Tenant)) (*models.Tenant, error) {
	run := func(ctx context.Context, exec dbExecutor) (*models.Tenant, error) {
		query := `
			SELECT id, name, status, created_at, updated_at
			FROM tenants
			WHERE id = $1
			FOR UPDATE
		`
		t, err := s.scanTenant(exec.QueryRowContext(ctx, query, uuid.UUID(tenantID)))
		if err != nil {
			return nil, err
		}
		if err := validate(t); err != nil {
			return nil, err
		}
		mutate(t)

		update := `
			UPDATE tenants
			SET name = $2, status = $3, updated_at = $4
			WHERE id = $1
		`
		if _, err := exec.ExecContext(ctx, update,
			uuid.UUID(t.ID), t.Name, string(t.Status), t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("update tenant: %w", err)
		}
		return t, nil
	}

	// Inside an ambient transaction FOR UPDATE already holds until that
	// transaction ends; standalone callers get a local one.
	if tx, ok := txcontext.From(ctx); ok {
		return run(ctx, tx)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tenant update: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	t, err := run(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tenant update: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.execer(ctx).QueryRowContext(ctx, `SELECT count(*) FROM tenants`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count tenants: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) scanTenant(row *sql.Row) (*models.Tenant, error) {
	var (
		t        models.Tenant
		tenantID uuid.UUID
		status   string
	)
	err := row.Scan(&tenantID, &t.Name, &status, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan tenant: %w", err)
	}
	t.ID = id.TenantID(tenantID)
	t.Status = models.TenantStatus(status)
	return &t, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
