package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "tempus/pkg/domain"
	txcontext "tempus/pkg/platform/tx"
)

// PostgresStore writes each event twice on the caller's transaction: into
// audit_events for querying and into audit_outbox for the Kafka relay. The
// relay deletes nothing; published rows are stamped so redelivery after a
// crash is at-least-once.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL audit store.
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

// outboxPayload is the JSON structure published to Kafka.
type outboxPayload struct {
	ID         string `json:"id"`
	Timestamp  string `json:"timestamp"`
	TenantID   string `json:"tenant_id"`
	ActorID    string `json:"actor_id,omitempty"`
	Action     string `json:"action"`
	EntityType string `json:"entity_type,omitempty"`
	EntityID   string `json:"entity_id,omitempty"`
	Outcome    string `json:"outcome"`
	Reason     string `json:"reason,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
	TraceID    string `json:"trace_id,omitempty"`
	SpanID     string `json:"span_id,omitempty"`
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	eventID := uuid.New()

	query := `
		INSERT INTO audit_events (
			id, timestamp, tenant_id, actor_id, action,
			entity_type, entity_id, outcome, reason,
			request_id, trace_id, span_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		eventID,
		event.Timestamp,
		uuid.UUID(event.TenantID),
		event.ActorID,
		event.Action,
		event.EntityType,
		event.EntityID,
		string(event.Outcome),
		event.Reason,
		event.RequestID,
		event.TraceID,
		event.SpanID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}

	payload := outboxPayload{
		ID:         eventID.String(),
		Timestamp:  event.Timestamp.Format(time.RFC3339Nano),
		TenantID:   event.TenantID.String(),
		ActorID:    event.ActorID,
		Action:     event.Action,
		EntityType: event.EntityType,
		EntityID:   event.EntityID,
		Outcome:    string(event.Outcome),
		Reason:     event.Reason,
		RequestID:  event.RequestID,
		TraceID:    event.TraceID,
		SpanID:     event.SpanID,
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	outboxQuery := `
		INSERT INTO audit_outbox (id, action, payload, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err = s.execer(ctx).ExecContext(ctx, outboxQuery,
		eventID,
		event.Action,
		payloadBytes,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByTenant(ctx context.Context, tenantID id.TenantID, limit int) ([]Event, error) {
	query := `
		SELECT timestamp, tenant_id, actor_id, action,
		       entity_type, entity_id, outcome, reason,
		       request_id, trace_id, span_id
		FROM audit_events
		WHERE tenant_id = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(tenantID), limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (s *PostgresStore) ListByEntity(ctx context.Context, tenantID id.TenantID, entityType, entityID string) ([]Event, error) {
	query := `
		SELECT timestamp, tenant_id, actor_id, action,
		       entity_type, entity_id, outcome, reason,
		       request_id, trace_id, span_id
		FROM audit_events
		WHERE tenant_id = $1 AND entity_type = $2 AND entity_id = $3
		ORDER BY timestamp DESC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(tenantID), entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (s *PostgresStore) ListPendingOutbox(ctx context.Context, limit int) ([]OutboxRow, error) {
	query := `
		SELECT id, action, payload, created_at
		FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending outbox: %w", err)
	}
	defer rows.Close()

	var out []OutboxRow
	for rows.Next() {
		var row OutboxRow
		if err := rows.Scan(&row.ID, &row.Action, &row.Payload, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) MarkOutboxPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	strIDs := make([]string, len(ids))
	for i, rowID := range ids {
		strIDs[i] = rowID.String()
	}
	query := `UPDATE audit_outbox SET published_at = $2 WHERE id = ANY($1)`
	if _, err := s.db.ExecContext(ctx, query, pq.Array(strIDs), at); err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var (
			event    Event
			tenantID uuid.UUID
			outcome  string
		)
		err := rows.Scan(
			&event.Timestamp,
			&tenantID,
			&event.ActorID,
			&event.Action,
			&event.EntityType,
			&event.EntityID,
			&outcome,
			&event.Reason,
			&event.RequestID,
			&event.TraceID,
			&event.SpanID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.TenantID = id.TenantID(tenantID)
		event.Outcome = Outcome(outcome)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
