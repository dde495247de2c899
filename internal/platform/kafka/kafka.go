package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"tempus/internal/platform/config"
	platformstrings "tempus/pkg/platform/strings"
)

// Producer wraps a franz-go client for synchronous publishing. The audit
// relay is the only writer; it needs delivery confirmation before marking
// outbox rows, so everything goes through ProduceSync.
type Producer struct {
	client *kgo.Client
}

// NewProducer connects to the configured brokers. Returns nil if no brokers
// are configured (relay disabled). The broker list comes in as a
// comma-separated env value, so it is trimmed and deduplicated before
// seeding the client.
func NewProducer(cfg config.Kafka) (*Producer, error) {
	brokers := platformstrings.DedupeAndTrim(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Producer{client: client}, nil
}

// Produce publishes one record and waits for broker acknowledgement.
func (p *Producer) Produce(ctx context.Context, topic string, key, value []byte) error {
	rec := &kgo.Record{Topic: topic, Key: key, Value: value}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", topic, err)
	}
	return nil
}

// EnsureTopics creates the given topics if they do not exist yet. Safe to
// call on every startup.
func (p *Producer) EnsureTopics(ctx context.Context, topics ...string) error {
	adm := kadm.NewClient(p.client)

	resp, err := adm.CreateTopics(ctx, 1, 1, nil, topics...)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	for _, res := range resp.Sorted() {
		if res.Err != nil && !errors.Is(res.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", res.Topic, res.Err)
		}
	}
	return nil
}

// Close flushes and shuts the client down.
func (p *Producer) Close() {
	if p != nil && p.client != nil {
		p.client.Close()
	}
}
