package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	approvalmodels "tempus/internal/approval/models"
	approvalstore "tempus/internal/approval/store"
	"tempus/internal/eventstore"
	worklogmodels "tempus/internal/worklog/models"
	worklogstore "tempus/internal/worklog/store"
	id "tempus/pkg/domain"
)

const rebuildPageSize = 500

// Rebuilder re-derives the normalized row tables from the event log: every
// stream of each aggregate type is replayed and its current state upserted.
// This is the recovery path when a projection table is corrupted or its
// schema changes; the log is the source of truth, the tables are caches.
//
// Run it against truncated tables. The row upserts are version-guarded, so
// rebuilding over rows that kept their version but lost their values would
// skip them.
type Rebuilder struct {
	events       eventstore.Store
	entries      *worklogstore.Repository
	entryRows    worklogstore.EntryStore
	approvals    *approvalstore.Repository
	approvalRows approvalstore.ApprovalStore
	logger       *slog.Logger
}

// NewRebuilder creates a Rebuilder over the event store and row stores.
func NewRebuilder(events eventstore.Store, entries *worklogstore.Repository, entryRows worklogstore.EntryStore, approvals *approvalstore.Repository, approvalRows approvalstore.ApprovalStore, logger *slog.Logger) *Rebuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rebuilder{
		events:       events,
		entries:      entries,
		entryRows:    entryRows,
		approvals:    approvals,
		approvalRows: approvalRows,
		logger:       logger,
	}
}

// Rebuild replays every entry and approval stream and rewrites the row
// images. The two aggregate types never touch each other's tables, so they
// replay in parallel. Safe to re-run; each run converges on the log's
// current state.
func (r *Rebuilder) Rebuild(ctx context.Context) error {
	var entryCount, approvalCount int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := r.rebuildEntries(gctx)
		entryCount = n
		return err
	})
	g.Go(func() error {
		n, err := r.rebuildApprovals(gctx)
		approvalCount = n
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "projection rebuild completed",
		"entry_streams", entryCount,
		"approval_streams", approvalCount,
	)
	return nil
}

func (r *Rebuilder) rebuildEntries(ctx context.Context) (int, error) {
	streams, err := r.collectStreams(ctx, worklogmodels.AggregateType)
	if err != nil {
		return 0, err
	}
	for streamID, tenantID := range streams {
		entry, err := r.entries.Load(ctx, tenantID, id.EntryID(streamID))
		if err != nil {
			return 0, fmt.Errorf("rebuild entry %s: %w", streamID, err)
		}
		if err := r.entryRows.Apply(ctx, entry); err != nil {
			return 0, fmt.Errorf("rebuild entry %s: %w", streamID, err)
		}
	}
	return len(streams), nil
}

func (r *Rebuilder) rebuildApprovals(ctx context.Context) (int, error) {
	streams, err := r.collectStreams(ctx, approvalmodels.AggregateType)
	if err != nil {
		return 0, err
	}
	for streamID, tenantID := range streams {
		approval, err := r.approvals.Load(ctx, tenantID, id.ApprovalID(streamID))
		if err != nil {
			return 0, fmt.Errorf("rebuild approval %s: %w", streamID, err)
		}
		if err := r.approvalRows.Apply(ctx, approval); err != nil {
			return 0, fmt.Errorf("rebuild approval %s: %w", streamID, err)
		}
	}
	return len(streams), nil
}

// collectStreams pages the log in global order and returns each stream of
// the type with its owning tenant.
func (r *Rebuilder) collectStreams(ctx context.Context, aggregateType string) (map[uuid.UUID]id.TenantID, error) {
	streams := make(map[uuid.UUID]id.TenantID)
	var afterSeq int64
	for {
		recs, err := r.events.LoadByType(ctx, aggregateType, afterSeq, rebuildPageSize)
		if err != nil {
			return nil, fmt.Errorf("page %s streams: %w", aggregateType, err)
		}
		for _, rec := range recs {
			streams[rec.Stream.ID] = rec.TenantID
			afterSeq = rec.GlobalSeq
		}
		if len(recs) < rebuildPageSize {
			return streams, nil
		}
	}
}
