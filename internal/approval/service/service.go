package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	approvalmetrics "tempus/internal/approval/metrics"
	"tempus/internal/approval/models"
	"tempus/internal/approval/store"
	"tempus/internal/audit"
	"tempus/internal/eventstore"
	"tempus/internal/platform/telemetry"
	worklogmodels "tempus/internal/worklog/models"
	worklogstore "tempus/internal/worklog/store"
	id "tempus/pkg/domain"
	dErrors "tempus/pkg/domain-errors"
	"tempus/pkg/platform/sentinel"
	"tempus/pkg/requestcontext"
)

// EventAppender writes one batch of stream appends. Month-level commands
// combine approval and entry appends into a single call so a version
// conflict on either family leaves both unwritten.
type EventAppender interface {
	AppendBatch(ctx context.Context, batch []eventstore.StreamAppend) error
}

// ApprovalRepository loads approval aggregates and syncs their rows after a
// batch append succeeded.
type ApprovalRepository interface {
	Load(ctx context.Context, tenantID id.TenantID, approvalID id.ApprovalID) (*models.Approval, error)
	Commit(ctx context.Context, approvals ...*models.Approval) error
}

// ApprovalReader selects approval rows.
type ApprovalReader interface {
	FindForPeriod(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, periodStart time.Time) (store.Row, error)
}

// EntryRepository loads entry aggregates and syncs their rows after a batch
// append succeeded.
type EntryRepository interface {
	Load(ctx context.Context, tenantID id.TenantID, entryID id.EntryID) (*worklogmodels.Entry, error)
	Commit(ctx context.Context, entries ...*worklogmodels.Entry) error
}

// EntryReader selects entry rows inside the fiscal window.
type EntryReader interface {
	ListForPeriod(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, from, to time.Time) ([]worklogstore.Row, error)
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

// Service orchestrates the monthly approval commands. Submit, approve, and
// reject all sweep the member's entries in the fiscal window together with
// the approval itself: both aggregate families commit in one event batch or
// not at all.
type Service struct {
	events       EventAppender
	approvals    ApprovalRepository
	approvalRows ApprovalReader
	entries      EntryRepository
	entryRows    EntryReader
	directory    Directory

	fiscalStartDay int

	logger  *slog.Logger
	emitter *auditEmitter
	metrics *approvalmetrics.Metrics
	cache   CacheInvalidator
	tx      StoreTx
}

type serviceConfig struct {
	fiscalStartDay int
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *approvalmetrics.Metrics
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

func WithMetrics(m *approvalmetrics.Metrics) Option {
	return func(c *serviceConfig) { c.metrics = m }
}

func WithCache(cache CacheInvalidator) Option {
	return func(c *serviceConfig) { c.cache = cache }
}

func WithStoreTx(tx StoreTx) Option {
	return func(c *serviceConfig) { c.tx = tx }
}

// WithFiscalStartDay sets the day of month fiscal windows start on.
// Values outside 1..28 fall back to calendar months.
func WithFiscalStartDay(day int) Option {
	return func(c *serviceConfig) { c.fiscalStartDay = day }
}

// New constructs a Service. Without WithStoreTx the commands run on a
// coarse in-memory lock, which is correct for the memory stores.
func New(events EventAppender, approvals ApprovalRepository, approvalRows ApprovalReader, entries EntryRepository, entryRows EntryReader, directory Directory, opts ...Option) *Service {
	cfg := &serviceConfig{fiscalStartDay: 1}
	for _, opt := range opts {
		opt(cfg)
	}
	tx := cfg.tx
	if tx == nil {
		tx = newInMemoryStoreTx()
	}
	return &Service{
		events:         events,
		approvals:      approvals,
		approvalRows:   approvalRows,
		entries:        entries,
		entryRows:      entryRows,
		directory:      directory,
		fiscalStartDay: cfg.fiscalStartDay,
		logger:         cfg.logger,
		emitter:        newAuditEmitter(cfg.logger, cfg.auditPublisher),
		metrics:        cfg.metrics,
		cache:          cfg.cache,
		tx:             tx,
	}
}

// SubmitMonth hands the member's fiscal month in for review. Every DRAFT and
// REJECTED entry in the window moves to SUBMITTED together with the approval,
// all-or-nothing. A fresh month opens a new approval; a rejected month is
// resubmitted on the same record. Only the member may submit their own month.
func (s *Service) SubmitMonth(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, anchor time.Time, actorID id.MemberID) (approval *models.Approval, err error) {
	ctx, end := telemetry.StartSpan(ctx, "approval.SubmitMonth")
	defer func() { end(err) }()

	if actorID != memberID {
		err = dErrors.New(dErrors.CodeForbidden, "only the member may submit their own month")
		s.countCommand("submit_month", err)
		return nil, err
	}
	period := id.FiscalMonthOf(anchor, s.fiscalStartDay)

	var swept int
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		entries, txErr := s.selectEntries(txCtx, tenantID, memberID, period,
			worklogmodels.StatusDraft, worklogmodels.StatusRejected)
		if txErr != nil {
			return txErr
		}
		if len(entries) == 0 {
			return dErrors.New(dErrors.CodeNotFound,
				fmt.Sprintf("no submittable entries in %s", period))
		}

		now := requestcontext.Now(txCtx)
		a, txErr := s.findOrOpen(txCtx, tenantID, memberID, period, actorID, len(entries), now)
		if txErr != nil {
			return txErr
		}

		for _, e := range entries {
			if e.Status == worklogmodels.StatusRejected {
				txErr = e.Resubmit(actorID, now)
			} else {
				txErr = e.Submit(actorID, now)
			}
			if txErr != nil {
				return txErr
			}
		}

		if txErr = s.commitBatch(txCtx, a, entries); txErr != nil {
			return txErr
		}
		approval = a
		swept = len(entries)
		return s.emitter.emitMonth(txCtx, audit.ActionMonthSubmitted, a, actorID)
	})
	if err != nil {
		s.countCommand("submit_month", err)
		return nil, err
	}

	s.invalidateMember(ctx, tenantID, memberID)
	s.metrics.ObserveCascadeSize("submit_month", swept)
	s.countCommand("submit_month", nil)
	return approval, nil
}

// Approve closes the month. Every entry still SUBMITTED in the window moves
// to APPROVED with the approval, all-or-nothing. Reviewer must hold the
// manager role.
func (s *Service) Approve(ctx context.Context, tenantID id.TenantID, approvalID id.ApprovalID, reviewerID id.MemberID) (approval *models.Approval, err error) {
	ctx, end := telemetry.StartSpan(ctx, "approval.Approve")
	defer func() { end(err) }()

	if err = s.requireManager(ctx, tenantID, reviewerID); err != nil {
		s.countCommand("approve_month", err)
		return nil, err
	}

	var memberID id.MemberID
	var swept int
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		a, txErr := s.loadApproval(txCtx, tenantID, approvalID)
		if txErr != nil {
			return txErr
		}
		now := requestcontext.Now(txCtx)
		if txErr = a.Approve(reviewerID, now); txErr != nil {
			return txErr
		}

		entries, txErr := s.selectEntries(txCtx, tenantID, a.MemberID, a.Period(), worklogmodels.StatusSubmitted)
		if txErr != nil {
			return txErr
		}
		for _, e := range entries {
			if txErr = e.Approve(reviewerID, a.ID, now); txErr != nil {
				return txErr
			}
		}

		if txErr = s.commitBatch(txCtx, a, entries); txErr != nil {
			return txErr
		}
		approval = a
		memberID = a.MemberID
		swept = len(entries)
		return s.emitter.emitMonth(txCtx, audit.ActionMonthApproved, a, reviewerID)
	})
	if err != nil {
		s.countCommand("approve_month", err)
		return nil, err
	}

	s.invalidateMember(ctx, tenantID, memberID)
	s.metrics.ObserveCascadeSize("approve_month", swept)
	s.countCommand("approve_month", nil)
	return approval, nil
}

// Reject sends the month back with a reason. Every entry still SUBMITTED in
// the window is rejected and immediately reopened as DRAFT carrying the
// reason, so the member can fix and resubmit. All-or-nothing with the
// approval's own transition. Reviewer must hold the manager role.
func (s *Service) Reject(ctx context.Context, tenantID id.TenantID, approvalID id.ApprovalID, reviewerID id.MemberID, reason string) (approval *models.Approval, err error) {
	ctx, end := telemetry.StartSpan(ctx, "approval.Reject")
	defer func() { end(err) }()

	if err = s.requireManager(ctx, tenantID, reviewerID); err != nil {
		s.countCommand("reject_month", err)
		return nil, err
	}

	var memberID id.MemberID
	var swept int
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		a, txErr := s.loadApproval(txCtx, tenantID, approvalID)
		if txErr != nil {
			return txErr
		}
		now := requestcontext.Now(txCtx)
		if txErr = a.Reject(reviewerID, reason, now); txErr != nil {
			return txErr
		}

		entries, txErr := s.selectEntries(txCtx, tenantID, a.MemberID, a.Period(), worklogmodels.StatusSubmitted)
		if txErr != nil {
			return txErr
		}
		for _, e := range entries {
			if txErr = e.Reject(reviewerID, reason, worklogmodels.RejectionSourceMonthly, now); txErr != nil {
				return txErr
			}
			if txErr = e.Reopen(reason, worklogmodels.RejectionSourceMonthly, now); txErr != nil {
				return txErr
			}
		}

		if txErr = s.commitBatch(txCtx, a, entries); txErr != nil {
			return txErr
		}
		approval = a
		memberID = a.MemberID
		swept = len(entries)
		return s.emitter.emitMonth(txCtx, audit.ActionMonthRejected, a, reviewerID, "reason", reason)
	})
	if err != nil {
		s.countCommand("reject_month", err)
		return nil, err
	}

	s.invalidateMember(ctx, tenantID, memberID)
	s.metrics.ObserveCascadeSize("reject_month", swept)
	s.countCommand("reject_month", nil)
	return approval, nil
}

// GetApproval returns the approval by id.
func (s *Service) GetApproval(ctx context.Context, tenantID id.TenantID, approvalID id.ApprovalID) (approval *models.Approval, err error) {
	ctx, end := telemetry.StartSpan(ctx, "approval.GetApproval")
	defer func() { end(err) }()

	return s.loadApproval(ctx, tenantID, approvalID)
}

// FindForMonth returns the member's approval for the fiscal month containing
// the anchor date, if one has been opened.
func (s *Service) FindForMonth(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, anchor time.Time) (approval *models.Approval, err error) {
	ctx, end := telemetry.StartSpan(ctx, "approval.FindForMonth")
	defer func() { end(err) }()

	period := id.FiscalMonthOf(anchor, s.fiscalStartDay)
	row, err := s.approvalRows.FindForPeriod(ctx, tenantID, memberID, period.Start)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound,
				fmt.Sprintf("no approval for %s", period))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up approval for period")
	}
	return s.loadApproval(ctx, tenantID, row.ApprovalID)
}

// findOrOpen returns the member's approval for the period, opening a fresh
// one when none exists. A rejected approval is resubmitted on the same
// record; a month already under review or closed cannot be handed in again.
func (s *Service) findOrOpen(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, period id.FiscalMonth, actorID id.MemberID, entryCount int, now time.Time) (*models.Approval, error) {
	row, err := s.approvalRows.FindForPeriod(ctx, tenantID, memberID, period.Start)
	if errors.Is(err, sentinel.ErrNotFound) {
		a, openErr := models.Open(id.ApprovalID(uuid.New()), tenantID, memberID, period, now)
		if openErr != nil {
			return nil, openErr
		}
		if openErr = a.Submit(actorID, entryCount, now); openErr != nil {
			return nil, openErr
		}
		return a, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up approval for period")
	}

	a, err := s.approvals.Load(ctx, tenantID, row.ApprovalID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load approval")
	}
	switch a.Status {
	case models.StatusPending:
		err = a.Submit(actorID, entryCount, now)
	case models.StatusRejected:
		err = a.Resubmit(actorID, entryCount, now)
	case models.StatusSubmitted:
		err = dErrors.New(dErrors.CodeConflict, "month already submitted and awaiting review")
	default:
		err = dErrors.New(dErrors.CodeConflict, "month already approved")
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// selectEntries lists the member's rows inside the window, keeps those in
// one of the wanted statuses, and loads each backing aggregate. Loading
// inside the transaction pins the expected versions the batch append will
// verify.
func (s *Service) selectEntries(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, period id.FiscalMonth, want ...worklogmodels.Status) ([]*worklogmodels.Entry, error) {
	rows, err := s.entryRows.ListForPeriod(ctx, tenantID, memberID, period.Start, period.End)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list entries for period")
	}

	wanted := make(map[worklogmodels.Status]bool, len(want))
	for _, st := range want {
		wanted[st] = true
	}

	var entries []*worklogmodels.Entry
	for _, row := range rows {
		if !wanted[row.Status] {
			continue
		}
		e, err := s.entries.Load(ctx, tenantID, row.EntryID)
		if err != nil {
			// A listed row without a loadable stream is store corruption,
			// not a user condition.
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load entry for period")
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *Service) loadApproval(ctx context.Context, tenantID id.TenantID, approvalID id.ApprovalID) (*models.Approval, error) {
	a, err := s.approvals.Load(ctx, tenantID, approvalID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "approval not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load approval")
	}
	return a, nil
}

// commitBatch appends both families' uncommitted events in a single batch,
// then syncs their row images. The single append is what makes the month
// commands atomic: every stream's expected version is verified before
// anything is written.
func (s *Service) commitBatch(ctx context.Context, a *models.Approval, entries []*worklogmodels.Entry) error {
	batch, err := worklogstore.Appends(entries...)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode entry events")
	}
	approvalAppends, err := store.Appends(a)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode approval events")
	}
	batch = append(batch, approvalAppends...)
	if len(batch) == 0 {
		return nil
	}

	if err := s.events.AppendBatch(ctx, batch); err != nil {
		if errors.Is(err, eventstore.ErrVersionConflict) {
			s.metrics.IncrementConflict()
			return dErrors.New(dErrors.CodeConflict, "the month was modified concurrently; reload and retry")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save the month")
	}

	if err := s.entries.Commit(ctx, entries...); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to sync entry rows")
	}
	if err := s.approvals.Commit(ctx, a); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to sync approval row")
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
