package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"tempus/internal/eventstore"
	"tempus/internal/worklog/models"
	id "tempus/pkg/domain"
	"tempus/pkg/platform/sentinel"
)

// Repository persists Entry aggregates: events into the log, the current
// state into work_log_entries, both on the same transaction when one is
// ambient.
//
// Error Contract:
// - Load returns ErrNotFound when the stream does not exist or belongs to
//   another tenant
// - Save and SaveAll return ErrConflict on a version conflict, with nothing
//   written
type Repository struct {
	events eventstore.Store
	rows   EntryStore
}

func NewRepository(events eventstore.Store, rows EntryStore) *Repository {
	return &Repository{events: events, rows: rows}
}

func entryStream(entryID id.EntryID) eventstore.Stream {
	return eventstore.Stream{Type: models.AggregateType, ID: uuid.UUID(entryID)}
}

// Load replays the entry's stream. Tenancy is checked against the replayed
// state: a stream owned by another tenant is indistinguishable from a
// missing one.
func (r *Repository) Load(ctx context.Context, tenantID id.TenantID, entryID id.EntryID) (*models.Entry, error) {
	recs, err := r.events.Load(ctx, entryStream(entryID))
	if err != nil {
		return nil, fmt.Errorf("load entry stream: %w", err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("entry %s: %w", entryID, sentinel.ErrNotFound)
	}

	events := make([]models.Event, 0, len(recs))
	for _, rec := range recs {
		ev, err := decodeEvent(rec)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}

	entry, err := models.Rehydrate(events)
	if err != nil {
		return nil, err
	}
	if entry.TenantID != tenantID {
		return nil, fmt.Errorf("entry %s: %w", entryID, sentinel.ErrNotFound)
	}
	return entry, nil
}

// Save appends the entry's uncommitted events at its base version and syncs
// the row image. The caller provides transaction scope via RunInTx when the
// save must be atomic with other writes.
func (r *Repository) Save(ctx context.Context, e *models.Entry) error {
	return r.SaveAll(ctx, e)
}

// SaveAll persists several aggregates with all-or-nothing semantics: every
// stream's expected version is verified before anything is written, so one
// stale aggregate fails the whole batch.
func (r *Repository) SaveAll(ctx context.Context, entries ...*models.Entry) error {
	batch, err := Appends(entries...)
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	if err := r.events.AppendBatch(ctx, batch); err != nil {
		if errors.Is(err, eventstore.ErrVersionConflict) {
			return fmt.Errorf("save entries: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("save entries: %w", err)
	}

	return r.Commit(ctx, entries...)
}

// Appends builds the stream appends for the aggregates' uncommitted events.
// Month-level commands combine these with approval appends into a single
// batch so a conflict on either side leaves both untouched.
func Appends(entries ...*models.Entry) ([]eventstore.StreamAppend, error) {
	batch := make([]eventstore.StreamAppend, 0, len(entries))
	for _, e := range entries {
		uncommitted := e.Uncommitted()
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
				TenantID:   e.TenantID,
				EventType:  ev.EventType(),
				Payload:    payload,
				OccurredAt: e.UpdatedAt,
			})
		}
		batch = append(batch, eventstore.StreamAppend{
			Stream:          entryStream(e.ID),
			ExpectedVersion: e.BaseVersion(),
			Records:         records,
		})
	}
	return batch, nil
}

// Commit syncs row images and marks the aggregates committed. Call only
// after their appends succeeded.
func (r *Repository) Commit(ctx context.Context, entries ...*models.Entry) error {
	for _, e := range entries {
		if len(e.Uncommitted()) == 0 {
			continue
		}
		if err := r.rows.Apply(ctx, e); err != nil {
			return fmt.Errorf("sync entry row: %w", err)
		}
		e.MarkCommitted()
	}
	return nil
}
