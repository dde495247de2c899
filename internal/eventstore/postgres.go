package eventstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	id "tempus/pkg/domain"
	txcontext "tempus/pkg/platform/tx"
)

// PostgresStore persists streams in the events table. The
// UNIQUE (aggregate_type, aggregate_id, version) constraint is the
// optimistic-concurrency guard: two writers racing past the same head both
// compute the same next version, and the loser's insert fails.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const insertEventQuery = `
	INSERT INTO events (
		event_id, aggregate_type, aggregate_id, tenant_id,
		version, event_type, payload, occurred_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

func (s *PostgresStore) Append(ctx context.Context, stream Stream, expectedVersion int, records []Record) error {
	return s.appendStreams(ctx, s.execer(ctx), []StreamAppend{
		{Stream: stream, ExpectedVersion: expectedVersion, Records: records},
	})
}

func (s *PostgresStore) AppendBatch(ctx context.Context, batch []StreamAppend) error {
	// Multi-stream appends must be all-or-nothing. Inside a command the
	// ambient transaction provides that; standalone callers get a local one.
	if _, ok := txcontext.From(ctx); !ok && len(batch) > 1 {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin append batch: %w", err)
		}
		defer func() {
			_ = tx.Rollback()
		}()
		if err := s.appendStreams(ctx, tx, batch); err != nil {
			return err
		}
		return tx.Commit()
	}
	return s.appendStreams(ctx, s.execer(ctx), batch)
}

func (s *PostgresStore) appendStreams(ctx context.Context, exec dbExecutor, batch []StreamAppend) error {
	for _, ap := range batch {
		for i, rec := range ap.Records {
			eventID := rec.EventID
			if eventID == uuid.Nil {
				eventID = uuid.New()
			}
			version := ap.ExpectedVersion + i + 1

			_, err := exec.ExecContext(ctx, insertEventQuery,
				eventID,
				ap.Stream.Type,
				ap.Stream.ID,
				uuid.UUID(rec.TenantID),
				version,
				rec.EventType,
				rec.Payload,
				rec.OccurredAt,
			)
			if isUniqueViolation(err) {
				return ErrVersionConflict
			}
			if err != nil {
				return fmt.Errorf("insert event %s v%d: %w", ap.Stream.Type, version, err)
			}
		}
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, stream Stream) ([]Record, error) {
	query := `
		SELECT event_id, tenant_id, version, global_seq, event_type, payload, occurred_at
		FROM events
		WHERE aggregate_type = $1 AND aggregate_id = $2
		ORDER BY version
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, stream.Type, stream.ID)
	if err != nil {
		return nil, fmt.Errorf("query stream: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows, stream)
}

func (s *PostgresStore) LoadByType(ctx context.Context, aggregateType string, afterSeq int64, limit int) ([]Record, error) {
	query := `
		SELECT event_id, aggregate_id, tenant_id, version, global_seq, event_type, payload, occurred_at
		FROM events
		WHERE aggregate_type = $1 AND global_seq > $2
		ORDER BY global_seq
		LIMIT $3
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, aggregateType, afterSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("query events by type: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec         Record
			aggregateID uuid.UUID
			tenantID    uuid.UUID
		)
		if err := rows.Scan(&rec.EventID, &aggregateID, &tenantID, &rec.Version, &rec.GlobalSeq, &rec.EventType, &rec.Payload, &rec.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		rec.Stream = Stream{Type: aggregateType, ID: aggregateID}
		rec.TenantID = id.TenantID(tenantID)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return records, nil
}

func scanRecords(rows *sql.Rows, stream Stream) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var (
			rec      Record
			tenantID uuid.UUID
		)
		if err := rows.Scan(&rec.EventID, &tenantID, &rec.Version, &rec.GlobalSeq, &rec.EventType, &rec.Payload, &rec.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		rec.Stream = stream
		rec.TenantID = id.TenantID(tenantID)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return records, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
