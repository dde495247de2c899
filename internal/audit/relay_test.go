package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOutbox struct {
	rows      []OutboxRow
	published []uuid.UUID
}

func (f *fakeOutbox) ListPendingOutbox(_ context.Context, limit int) ([]OutboxRow, error) {
	if limit > len(f.rows) {
		limit = len(f.rows)
	}
	return f.rows[:limit], nil
}

func (f *fakeOutbox) MarkOutboxPublished(_ context.Context, ids []uuid.UUID, _ time.Time) error {
	f.published = append(f.published, ids...)
	remaining := f.rows[:0]
	for _, row := range f.rows {
		marked := false
		for _, id := range ids {
			if row.ID == id {
				marked = true
				break
			}
		}
		if !marked {
			remaining = append(remaining, row)
		}
	}
	f.rows = remaining
	return nil
}

type fakeProducer struct {
	produced []string
	failAt   int // 1-based index of the produce call that fails; 0 = never
	calls    int
}

func (f *fakeProducer) Produce(_ context.Context, _ string, key, _ []byte) error {
	f.calls++
	if f.failAt > 0 && f.calls == f.failAt {
		return errors.New("broker unavailable")
	}
	f.produced = append(f.produced, string(key))
	return nil
}

func outboxRow(action string) OutboxRow {
	return OutboxRow{
		ID:        uuid.New(),
		Action:    action,
		Payload:   []byte(`{"action":"` + action + `"}`),
		CreatedAt: time.Now().UTC(),
	}
}

func TestRelay_RunOnce(t *testing.T) {
	outbox := &fakeOutbox{rows: []OutboxRow{
		outboxRow(string(ActionEntryCreated)),
		outboxRow(string(ActionDaySubmitted)),
		outboxRow(string(ActionMonthApproved)),
	}}
	producer := &fakeProducer{}
	relay := NewRelay(outbox, producer, "tempus.audit", 10, nil)

	err := relay.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		string(ActionEntryCreated),
		string(ActionDaySubmitted),
		string(ActionMonthApproved),
	}, producer.produced)
	assert.Len(t, outbox.published, 3)
	assert.Empty(t, outbox.rows, "published rows leave the pending set")
}

func TestRelay_RunOnceEmpty(t *testing.T) {
	outbox := &fakeOutbox{}
	producer := &fakeProducer{}
	relay := NewRelay(outbox, producer, "tempus.audit", 10, nil)

	err := relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, producer.calls)
	assert.Empty(t, outbox.published)
}

func TestRelay_ProducerFailureKeepsRowPending(t *testing.T) {
	rows := []OutboxRow{
		outboxRow(string(ActionEntryCreated)),
		outboxRow(string(ActionEntryAmended)),
		outboxRow(string(ActionEntryDeleted)),
	}
	outbox := &fakeOutbox{rows: append([]OutboxRow(nil), rows...)}
	producer := &fakeProducer{failAt: 2}
	relay := NewRelay(outbox, producer, "tempus.audit", 10, nil)

	err := relay.RunOnce(context.Background())
	require.Error(t, err)

	// The row delivered before the failure is marked; the failed row and
	// everything after it stay pending for the next cycle.
	require.Len(t, outbox.published, 1)
	assert.Equal(t, rows[0].ID, outbox.published[0])
	require.Len(t, outbox.rows, 2)
	assert.Equal(t, rows[1].ID, outbox.rows[0].ID)

	producer.failAt = 0
	err = relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, outbox.published, 3)
	assert.Empty(t, outbox.rows)
}

func TestRelay_BatchLimit(t *testing.T) {
	outbox := &fakeOutbox{rows: []OutboxRow{
		outboxRow(string(ActionEntryCreated)),
		outboxRow(string(ActionEntryCreated)),
		outboxRow(string(ActionEntryCreated)),
	}}
	producer := &fakeProducer{}
	relay := NewRelay(outbox, producer, "tempus.audit", 2, nil)

	require.NoError(t, relay.RunOnce(context.Background()))
	assert.Len(t, outbox.published, 2)
	require.Len(t, outbox.rows, 1)

	require.NoError(t, relay.RunOnce(context.Background()))
	assert.Len(t, outbox.published, 3)
	assert.Empty(t, outbox.rows)
}
