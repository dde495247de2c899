package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"tempus/internal/approval/models"
	"tempus/internal/eventstore"
	id "tempus/pkg/domain"
	"tempus/pkg/platform/sentinel"
)

// Repository persists Approval aggregates: events into the log, the current
// state into monthly_approvals.
//
// Error Contract:
// - Load returns ErrNotFound for a missing or cross-tenant stream
// - Save returns ErrConflict on a version conflict, with nothing written
type Repository struct {
	events eventstore.Store
	rows   ApprovalStore
}

func NewRepository(events eventstore.Store, rows ApprovalStore) *Repository {
	return &Repository{events: events, rows: rows}
}

func approvalStream(approvalID id.ApprovalID) eventstore.Stream {
	return eventstore.Stream{Type: models.AggregateType, ID: uuid.UUID(approvalID)}
}

// Load replays the approval's stream, hiding cross-tenant streams the same
// way as missing ones.
func (r *Repository) Load(ctx context.Context, tenantID id.TenantID, approvalID id.ApprovalID) (*models.Approval, error) {
	recs, err := r.events.Load(ctx, approvalStream(approvalID))
	if err != nil {
		return nil, fmt.Errorf("load approval stream: %w", err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("approval %s: %w", approvalID, sentinel.ErrNotFound)
	}

	events := make([]models.Event, 0, len(recs))
	for _, rec := range recs {
		ev, err := decodeEvent(rec)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}

	approval, err := models.Rehydrate(events)
	if err != nil {
		return nil, err
	}
	if approval.TenantID != tenantID {
		return nil, fmt.Errorf("approval %s: %w", approvalID, sentinel.ErrNotFound)
	}
	return approval, nil
}

// Save persists the approval on its own. Month-level commands that touch
// entries too should combine Appends with the entry appends instead, then
// Commit both sides.
func (r *Repository) Save(ctx context.Context, a *models.Approval) error {
	batch, err := Appends(a)
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	if err := r.events.AppendBatch(ctx, batch); err != nil {
		if errors.Is(err, eventstore.ErrVersionConflict) {
			return fmt.Errorf("save approval: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("save approval: %w", err)
	}

	return r.Commit(ctx, a)
}

// Appends builds the stream appends for the approval's uncommitted events.
func Appends(approvals ...*models.Approval) ([]eventstore.StreamAppend, error) {
	batch := make([]eventstore.StreamAppend, 0, len(approvals))
	for _, a := range approvals {
		uncommitted := a.Uncommitted()
		if len(uncommitted) == 0 {
			continue
		}
		records := make([]eventstore.Record, 0, len(uncommitted))
		for _, ev := range uncommitted {
			payload, err := encodeEvent(ev)
			if err != nil {
				return nil, err
			}
			records = append(records, eventstore.Record{
				EventID:    uuid.New(),
				TenantID:   a.TenantID,
				EventType:  ev.EventType(),
				Payload:    payload,
				OccurredAt: occurredAt(ev),
			})
		}
		batch = append(batch, eventstore.StreamAppend{
			Stream:          approvalStream(a.ID),
			ExpectedVersion: a.BaseVersion(),
			Records:         records,
		})
	}
	return batch, nil
}

// Commit syncs the row image and marks the aggregate committed. Call only
// after its append succeeded.
func (r *Repository) Commit(ctx context.Context, approvals ...*models.Approval) error {
	for _, a := range approvals {
		if len(a.Uncommitted()) == 0 {
			continue
		}
		if err := r.rows.Apply(ctx, a); err != nil {
			return fmt.Errorf("sync approval row: %w", err)
		}
		a.MarkCommitted()
	}
	return nil
}
