//go:build integration

package audit_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"tempus/internal/audit"
	"tempus/internal/platform/config"
	"tempus/internal/platform/kafka"
	id "tempus/pkg/domain"
	"tempus/pkg/testutil/containers"
)

type RelayIntegrationSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	broker   string
	store    *audit.PostgresStore
	producer *kafka.Producer
	topic    string
}

func TestRelayIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RelayIntegrationSuite))
}

func (s *RelayIntegrationSuite) SetupSuite() {
	ctx := context.Background()
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.broker = mgr.GetRedpanda(s.T()).Broker
	s.store = audit.NewPostgresStore(s.postgres.DB)
	s.topic = "tempus.audit"

	producer, err := kafka.NewProducer(config.Kafka{Brokers: []string{s.broker}})
	s.Require().NoError(err)
	s.Require().NotNil(producer)
	s.producer = producer

	s.Require().NoError(s.producer.EnsureTopics(ctx, s.topic))
}

func (s *RelayIntegrationSuite) TearDownSuite() {
	if s.producer != nil {
		s.producer.Close()
	}
}

func (s *RelayIntegrationSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "audit_events", "audit_outbox")
	s.Require().NoError(err)
}

func (s *RelayIntegrationSuite) appendEvent(ctx context.Context, tenantID id.TenantID, action audit.Action) {
	s.T().Helper()
	err := s.store.Append(ctx, audit.Event{
		Timestamp:  time.Now().UTC(),
		TenantID:   tenantID,
		ActorID:    uuid.NewString(),
		Action:     string(action),
		EntityType: audit.EntityEntry,
		EntityID:   uuid.NewString(),
		Outcome:    audit.OutcomeSuccess,
	})
	s.Require().NoError(err)
}

func (s *RelayIntegrationSuite) TestRelayDeliversOutboxRows() {
	ctx := context.Background()
	tenantID := id.TenantID(uuid.New())

	s.appendEvent(ctx, tenantID, audit.ActionEntryCreated)
	s.appendEvent(ctx, tenantID, audit.ActionDaySubmitted)

	pending, err := s.store.ListPendingOutbox(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 2)

	relay := audit.NewRelay(s.store, s.producer, s.topic, 10, nil)
	s.Require().NoError(relay.RunOnce(ctx))

	pending, err = s.store.ListPendingOutbox(ctx, 10)
	s.Require().NoError(err)
	s.Empty(pending, "published rows leave the pending set")

	// The shared topic accumulates records across tests, so match on the
	// tenant baked into this test's payloads.
	found := s.consume(ctx, tenantID, 2)
	s.Equal(string(audit.ActionEntryCreated), found[string(audit.ActionEntryCreated)],
		"record key carries the action")
	s.Equal(string(audit.ActionDaySubmitted), found[string(audit.ActionDaySubmitted)])

	// A second cycle finds nothing new to publish.
	s.Require().NoError(relay.RunOnce(ctx))
	pending, err = s.store.ListPendingOutbox(ctx, 10)
	s.Require().NoError(err)
	s.Empty(pending)
}

// consume reads the audit topic from the start until it has seen want records
// for the tenant, returning action -> record key.
func (s *RelayIntegrationSuite) consume(ctx context.Context, tenantID id.TenantID, want int) map[string]string {
	s.T().Helper()

	client, err := kgo.NewClient(
		kgo.SeedBrokers(s.broker),
		kgo.ConsumeTopics(s.topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer client.Close()

	found := make(map[string]string)
	deadline := time.Now().Add(30 * time.Second)
	for len(found) < want && time.Now().Before(deadline) {
		pollCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		fetches := client.PollFetches(pollCtx)
		cancel()

		fetches.EachRecord(func(rec *kgo.Record) {
			var payload struct {
				TenantID string `json:"tenant_id"`
				Action   string `json:"action"`
			}
			if json.Unmarshal(rec.Value, &payload) != nil {
				return
			}
			if payload.TenantID == tenantID.String() {
				found[payload.Action] = string(rec.Key)
			}
		})
	}
	s.Require().Len(found, want, "expected %d relayed records for tenant %s", want, tenantID)
	return found
}
