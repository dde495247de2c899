package eventstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for unit tests and single-process
// development mode. AppendBatch checks every stream's expected version
// before writing anything, so batch atomicity holds here exactly as it does
// in the Postgres implementation.
type MemoryStore struct {
	mu      sync.RWMutex
	streams map[Stream][]Record
	global  []Record
	nextSeq int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{streams: make(map[Stream][]Record)}
}

func (s *MemoryStore) Append(ctx context.Context, stream Stream, expectedVersion int, records []Record) error {
	return s.AppendBatch(ctx, []StreamAppend{{Stream: stream, ExpectedVersion: expectedVersion, Records: records}})
}

func (s *MemoryStore) AppendBatch(ctx context.Context, batch []StreamAppend) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Two phases under one lock: verify every head first, then write all.
	for _, ap := range batch {
		if len(s.streams[ap.Stream]) != ap.ExpectedVersion {
			return ErrVersionConflict
		}
	}

	for _, ap := range batch {
		head := len(s.streams[ap.Stream])
		for i, rec := range ap.Records {
			if rec.EventID == uuid.Nil {
				rec.EventID = uuid.New()
			}
			rec.Stream = ap.Stream
			rec.Version = head + i + 1
			s.nextSeq++
			rec.GlobalSeq = s.nextSeq
			s.streams[ap.Stream] = append(s.streams[ap.Stream], rec)
			s.global = append(s.global, rec)
		}
	}
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, stream Stream) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.streams[stream]
	out := make([]Record, len(records))
	copy(out, records)
	return out, nil
}

func (s *MemoryStore) LoadByType(ctx context.Context, aggregateType string, afterSeq int64, limit int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for _, rec := range s.global {
		if rec.GlobalSeq <= afterSeq || rec.Stream.Type != aggregateType {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
