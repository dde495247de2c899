package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	id "tempus/pkg/domain"
)

// Store persists audit events. The postgres implementation dual-writes:
// audit_events for querying, audit_outbox for the Kafka relay, both on the
// command's transaction so the trail commits with the state change.
type Store interface {
	Append(ctx context.Context, event Event) error

	// ListByTenant returns the tenant's most recent events, newest first.
	ListByTenant(ctx context.Context, tenantID id.TenantID, limit int) ([]Event, error)

	// ListByEntity returns the trail for one entity, newest first.
	ListByEntity(ctx context.Context, tenantID id.TenantID, entityType, entityID string) ([]Event, error)
}

// OutboxRow is one pending relay item.
type OutboxRow struct {
	ID        uuid.UUID
	Action    string
	Payload   []byte
	CreatedAt time.Time
}

// OutboxSource is the relay's view of the outbox.
type OutboxSource interface {
	// ListPendingOutbox returns unpublished rows in insertion order.
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxRow, error)

	// MarkOutboxPublished stamps the rows as delivered.
	MarkOutboxPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}
