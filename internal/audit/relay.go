package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// BrokerProducer is the slice of the Kafka producer the relay needs.
type BrokerProducer interface {
	Produce(ctx context.Context, topic string, key, value []byte) error
}

// Relay moves audit_outbox rows to Kafka. Delivery is at-least-once: rows
// are marked published only after the broker acknowledges, so a crash
// between produce and mark replays the row.
type Relay struct {
	outbox   OutboxSource
	producer BrokerProducer
	topic    string
	batch    int
	logger   *slog.Logger
}

// NewRelay constructs a relay publishing to the given topic.
func NewRelay(outbox OutboxSource, producer BrokerProducer, topic string, batch int, logger *slog.Logger) *Relay {
	if batch <= 0 {
		batch = 100
	}
	return &Relay{outbox: outbox, producer: producer, topic: topic, batch: batch, logger: logger}
}

// RunOnce drains one batch of pending rows.
func (r *Relay) RunOnce(ctx context.Context) error {
	pending, err := r.outbox.ListPendingOutbox(ctx, r.batch)
	if err != nil {
		return fmt.Errorf("list pending outbox: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	published := make([]uuid.UUID, 0, len(pending))
	for _, row := range pending {
		if err := r.producer.Produce(ctx, r.topic, []byte(row.Action), row.Payload); err != nil {
			// Mark what made it; the rest stays pending for the next cycle.
			if markErr := r.mark(ctx, published); markErr != nil {
				return markErr
			}
			return fmt.Errorf("publish outbox row %s: %w", row.ID, err)
		}
		published = append(published, row.ID)
	}
	if err := r.mark(ctx, published); err != nil {
		return err
	}

	if r.logger != nil {
		r.logger.InfoContext(ctx, "audit outbox relay cycle completed",
			"published_count", len(published),
			"topic", r.topic,
		)
	}
	return nil
}

// Run polls until the context ends. Errors are logged and retried on the
// next tick; the relay never gives up.
func (r *Relay) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.RunOnce(ctx); err != nil && r.logger != nil {
				r.logger.ErrorContext(ctx, "audit outbox relay cycle failed", "error", err.Error())
			}
		}
	}
}

func (r *Relay) mark(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.outbox.MarkOutboxPublished(ctx, ids, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}
