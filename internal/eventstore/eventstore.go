// Package eventstore persists domain events as append-only, versioned
// streams. One stream per aggregate; the stored sequence of events is the
// source of truth, and every table that looks like current state is a
// projection derived from it.
package eventstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	id "tempus/pkg/domain"
)

// ErrVersionConflict is returned by Append when the stream head does not
// match the caller's expected version: another writer committed first.
// Services translate it to a conflict domain error; the store never retries.
var ErrVersionConflict = errors.New("aggregate version conflict")

// Stream identifies one aggregate's event stream.
type Stream struct {
	Type string  // aggregate type, e.g. "worklog.entry"
	ID   uuid.UUID
}

// Record is one stored domain event. Payload is the JSON-encoded event body;
// EventType discriminates it for decoding. Stream, Version and GlobalSeq are
// stamped by the store on append; callers fill the rest.
type Record struct {
	EventID    uuid.UUID
	Stream     Stream
	TenantID   id.TenantID
	Version    int   // 1-based position in the stream
	GlobalSeq  int64 // total order across all streams
	EventType  string
	Payload    []byte
	OccurredAt time.Time
}

// StreamAppend is one stream's contribution to a batch append.
type StreamAppend struct {
	Stream          Stream
	ExpectedVersion int // stream head the writer loaded; 0 for a new stream
	Records         []Record
}

// Store is the append-only event log.
//
// Append and AppendBatch fail with ErrVersionConflict when any stream's head
// moved past the expected version, and write nothing in that case. There are
// no update or delete operations.
type Store interface {
	// Append adds records to a single stream at the expected version.
	Append(ctx context.Context, stream Stream, expectedVersion int, records []Record) error

	// AppendBatch adds records to several streams atomically. Day-level and
	// month-level commands rely on this: either every aggregate in the batch
	// advances or none does.
	AppendBatch(ctx context.Context, batch []StreamAppend) error

	// Load returns the stream's records in version order. A stream that was
	// never written to yields an empty slice, not an error.
	Load(ctx context.Context, stream Stream) ([]Record, error)

	// LoadByType pages through all records of one aggregate type in global
	// order, starting after the given sequence number. Used to rebuild
	// projections from scratch.
	LoadByType(ctx context.Context, aggregateType string, afterSeq int64, limit int) ([]Record, error)
}
