package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	approvalstore "tempus/internal/approval/store"
	"tempus/internal/audit"
	"tempus/internal/platform/telemetry"
	worklogmetrics "tempus/internal/worklog/metrics"
	"tempus/internal/worklog/models"
	"tempus/internal/worklog/store"
	id "tempus/pkg/domain"
	dErrors "tempus/pkg/domain-errors"
	"tempus/pkg/platform/sentinel"
	"tempus/pkg/requestcontext"
)

// EntryRepository loads and saves entry aggregates against the event log.
type EntryRepository interface {
	Load(ctx context.Context, tenantID id.TenantID, entryID id.EntryID) (*models.Entry, error)
	Save(ctx context.Context, e *models.Entry) error
	SaveAll(ctx context.Context, entries ...*models.Entry) error
}

// EntryReader selects entry rows for the batch commands.
type EntryReader interface {
	ListForDay(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, day time.Time) ([]store.Row, error)
}

// ApprovalGate is the slice of the approval store day-level recall consults.
type ApprovalGate interface {
	FindCovering(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, day time.Time) (approvalstore.Row, error)
}

// Directory answers role questions for authorization. Unknown members are
// plain `false, nil`; errors are infrastructure only.
type Directory interface {
	IsManager(ctx context.Context, tenantID id.TenantID, memberID id.MemberID) (bool, error)
}

// AuditPublisher records audit events; inside a transaction the postgres
// store rides the ambient tx so the trail commits with the command.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// CacheInvalidator drops the member's cached projections after a commit.
type CacheInvalidator interface {
	InvalidateMember(ctx context.Context, tenantID id.TenantID, memberID id.MemberID) error
}

// Service orchestrates work log entry commands: entry lifecycle, individual
// review actions, and the day-level batch operations.
type Service struct {
	entries   EntryRepository
	rows      EntryReader
	approvals ApprovalGate
	directory Directory

	logger  *slog.Logger
	emitter *auditEmitter
	metrics *worklogmetrics.Metrics
	cache   CacheInvalidator
	tx      StoreTx
}

type serviceConfig struct {
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *worklogmetrics.Metrics
	cache          CacheInvalidator
	tx             StoreTx
}

// Option configures optional collaborators.
type Option func(*serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) { c.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(c *serviceConfig) { c.auditPublisher = publisher }
}

func WithMetrics(m *worklogmetrics.Metrics) Option {
	return func(c *serviceConfig) { c.metrics = m }
}

func WithCache(cache CacheInvalidator) Option {
	return func(c *serviceConfig) { c.cache = cache }
}

func WithStoreTx(tx StoreTx) Option {
	return func(c *serviceConfig) { c.tx = tx }
}

// New constructs a Service. Without WithStoreTx the commands run on a
// coarse in-memory lock, which is correct for the memory stores.
func New(entries EntryRepository, rows EntryReader, approvals ApprovalGate, directory Directory, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	tx := cfg.tx
	if tx == nil {
		tx = newInMemoryStoreTx()
	}
	return &Service{
		entries:   entries,
		rows:      rows,
		approvals: approvals,
		directory: directory,
		logger:    cfg.logger,
		emitter:   newAuditEmitter(cfg.logger, cfg.auditPublisher),
		metrics:   cfg.metrics,
		cache:     cfg.cache,
		tx:        tx,
	}
}

// CreateEntryInput carries one entry creation command. ActorID differing
// from MemberID is a proxy entry and requires the manager role.
type CreateEntryInput struct {
	TenantID  id.TenantID
	MemberID  id.MemberID
	ProjectID id.ProjectID
	Date      time.Time
	Hours     float64
	Comment   string
	ActorID   id.MemberID
}

// CreateEntry records a new DRAFT entry.
func (s *Service) CreateEntry(ctx context.Context, in CreateEntryInput) (entry *models.Entry, err error) {
	ctx, end := telemetry.StartSpan(ctx, "worklog.CreateEntry")
	defer func() { end(err) }()

	if in.ActorID != in.MemberID {
		if err = s.requireManager(ctx, in.TenantID, in.ActorID); err != nil {
			return nil, err
		}
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		e, txErr := models.NewEntry(
			id.EntryID(uuid.New()),
			in.TenantID, in.MemberID, in.ProjectID,
			in.Date, in.Hours, in.Comment,
			in.ActorID,
			requestcontext.Now(txCtx),
		)
		if txErr != nil {
			return txErr
		}
		if txErr = s.saveEntries(txCtx, e); txErr != nil {
			return txErr
		}
		entry = e
		return s.emitter.emitEntry(txCtx, audit.ActionEntryCreated, e, in.ActorID)
	})
	if err != nil {
		s.countCommand("create_entry", err)
		return nil, err
	}

	s.invalidateMember(ctx, in.TenantID, in.MemberID)
	s.countCommand("create_entry", nil)
	return entry, nil
}

// AmendEntryInput replaces the editable fields of a DRAFT entry.
type AmendEntryInput struct {
	TenantID  id.TenantID
	EntryID   id.EntryID
	ProjectID id.ProjectID
	Date      time.Time
	Hours     float64
	Comment   string
	ActorID   id.MemberID
}

// AmendEntry updates a DRAFT entry's project, date, hours, and comment.
func (s *Service) AmendEntry(ctx context.Context, in AmendEntryInput) (entry *models.Entry, err error) {
	ctx, end := telemetry.StartSpan(ctx, "worklog.AmendEntry")
	defer func() { end(err) }()

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		e, txErr := s.loadLive(txCtx, in.TenantID, in.EntryID)
		if txErr != nil {
			return txErr
		}
		if txErr = s.requireOwnerOrManager(txCtx, e, in.ActorID); txErr != nil {
			return txErr
		}
		if txErr = e.Amend(in.ProjectID, in.Date, in.Hours, in.Comment, in.ActorID, requestcontext.Now(txCtx)); txErr != nil {
			return txErr
		}
		if txErr = s.saveEntries(txCtx, e); txErr != nil {
			return txErr
		}
		entry = e
		return s.emitter.emitEntry(txCtx, audit.ActionEntryAmended, e, in.ActorID)
	})
	if err != nil {
		s.countCommand("amend_entry", err)
		return nil, err
	}

	s.invalidateMember(ctx, entry.TenantID, entry.MemberID)
	s.countCommand("amend_entry", nil)
	return entry, nil
}

// DeleteEntry tombstones a DRAFT entry. The stream is kept; the row and all
// projections forget it.
func (s *Service) DeleteEntry(ctx context.Context, tenantID id.TenantID, entryID id.EntryID, actorID id.MemberID) (err error) {
	ctx, end := telemetry.StartSpan(ctx, "worklog.DeleteEntry")
	defer func() { end(err) }()

	var memberID id.MemberID
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		e, txErr := s.loadLive(txCtx, tenantID, entryID)
		if txErr != nil {
			return txErr
		}
		if txErr = s.requireOwnerOrManager(txCtx, e, actorID); txErr != nil {
			return txErr
		}
		if txErr = e.Delete(actorID, requestcontext.Now(txCtx)); txErr != nil {
			return txErr
		}
		if txErr = s.saveEntries(txCtx, e); txErr != nil {
			return txErr
		}
		memberID = e.MemberID
		return s.emitter.emitEntry(txCtx, audit.ActionEntryDeleted, e, actorID)
	})
	if err != nil {
		s.countCommand("delete_entry", err)
		return err
	}

	s.invalidateMember(ctx, tenantID, memberID)
	s.countCommand("delete_entry", nil)
	return nil
}

// GetEntry returns one live entry. Deleted entries and entries of other
// tenants read as not found.
func (s *Service) GetEntry(ctx context.Context, tenantID id.TenantID, entryID id.EntryID) (*models.Entry, error) {
	return s.loadLive(ctx, tenantID, entryID)
}

// ChangeStatusInput is an individual review action against one entry.
type ChangeStatusInput struct {
	TenantID id.TenantID
	EntryID  id.EntryID
	Target   models.Status
	ActorID  id.MemberID
	Reason   string // required when Target is REJECTED
}

// ChangeStatus applies an individual manager decision to a single entry.
// Only APPROVED and REJECTED are reachable here: members move entries
// through the day-level submit and recall commands, never one by one.
func (s *Service) ChangeStatus(ctx context.Context, in ChangeStatusInput) (entry *models.Entry, err error) {
	ctx, end := telemetry.StartSpan(ctx, "worklog.ChangeStatus")
	defer func() { end(err) }()

	var action audit.Action
	switch in.Target {
	case models.StatusApproved:
		action = audit.ActionEntryApproved
	case models.StatusRejected:
		action = audit.ActionEntryRejected
	default:
		return nil, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("individual status change to %s is not supported; use the day-level commands", in.Target))
	}
	if err = s.requireManager(ctx, in.TenantID, in.ActorID); err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		e, txErr := s.loadLive(txCtx, in.TenantID, in.EntryID)
		if txErr != nil {
			return txErr
		}
		now := requestcontext.Now(txCtx)
		switch in.Target {
		case models.StatusApproved:
			txErr = e.Approve(in.ActorID, id.ApprovalID{}, now)
		case models.StatusRejected:
			txErr = e.Reject(in.ActorID, in.Reason, models.RejectionSourceDaily, now)
		}
		if txErr != nil {
			return txErr
		}
		if txErr = s.saveEntries(txCtx, e); txErr != nil {
			return txErr
		}
		entry = e
		return s.emitter.emitEntry(txCtx, action, e, in.ActorID, "reason", in.Reason)
	})
	if err != nil {
		s.countCommand("change_status", err)
		return nil, err
	}

	s.invalidateMember(ctx, entry.TenantID, entry.MemberID)
	s.countCommand("change_status", nil)
	return entry, nil
}

// loadLive loads an entry and hides tombstones: a deleted entry is gone as
// far as commands and reads are concerned.
func (s *Service) loadLive(ctx context.Context, tenantID id.TenantID, entryID id.EntryID) (*models.Entry, error) {
	e, err := s.entries.Load(ctx, tenantID, entryID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "entry not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load entry")
	}
	if e.Deleted {
		return nil, dErrors.New(dErrors.CodeNotFound, "entry not found")
	}
	return e, nil
}

// saveEntries persists aggregates and translates the store's conflict
// sentinel into the caller-facing code.
func (s *Service) saveEntries(ctx context.Context, entries ...*models.Entry) error {
	if err := s.entries.SaveAll(ctx, entries...); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncrementConflict()
			return dErrors.New(dErrors.CodeConflict, "entry was modified concurrently; reload and retry")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save entries")
	}
	return nil
}

func (s *Service) requireManager(ctx context.Context, tenantID id.TenantID, actorID id.MemberID) error {
	ok, err := s.directory.IsManager(ctx, tenantID, actorID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve actor role")
	}
	if !ok {
		return dErrors.New(dErrors.CodeForbidden, "manager role required")
	}
	return nil
}

func (s *Service) requireOwnerOrManager(ctx context.Context, e *models.Entry, actorID id.MemberID) error {
	if actorID == e.MemberID {
		return nil
	}
	return s.requireManager(ctx, e.TenantID, actorID)
}

func (s *Service) invalidateMember(ctx context.Context, tenantID id.TenantID, memberID id.MemberID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateMember(ctx, tenantID, memberID); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "projection cache invalidation failed",
			"member_id", memberID.String(),
			"error", err.Error(),
		)
	}
}

func (s *Service) countCommand(command string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case dErrors.HasCode(err, dErrors.CodeInternal):
		result = "error"
	default:
		result = "rejected"
	}
	s.metrics.IncrementCommand(command, result)
}
