// Package service implements absence commands. Absences are plain state:
// they are created whole, never amended, and removed outright. The totals
// projection is their only interesting consumer, so every write invalidates
// the member's cached projections the same way entry commands do.
package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	absencemetrics "tempus/internal/absence/metrics"
	"tempus/internal/absence/models"
	"tempus/internal/audit"
	"tempus/internal/platform/telemetry"
	id "tempus/pkg/domain"
	dErrors "tempus/pkg/domain-errors"
	"tempus/pkg/platform/sentinel"
	"tempus/pkg/requestcontext"
)

// AbsenceStore persists absences.
type AbsenceStore interface {
	Create(ctx context.Context, a *models.Absence) error
	Get(ctx context.Context, tenantID id.TenantID, absenceID id.AbsenceID) (*models.Absence, error)
	Delete(ctx context.Context, tenantID id.TenantID, absenceID id.AbsenceID) error
	ListOverlapping(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, from, to time.Time) ([]*models.Absence, error)
}

// Directory answers role questions for authorization. Unknown members are
// plain `false, nil`; errors are infrastructure only.
type Directory interface {
	IsManager(ctx context.Context, tenantID id.TenantID, memberID id.MemberID) (bool, error)
}

// AuditPublisher records audit events alongside absence writes.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// CacheInvalidator drops the member's cached projections after a write.
type CacheInvalidator interface {
	InvalidateMember(ctx context.Context, tenantID id.TenantID, memberID id.MemberID) error
}

// Service orchestrates absence writes and reads.
type Service struct {
	absences  AbsenceStore
	directory Directory

	logger  *slog.Logger
	emitter *auditEmitter
	metrics *absencemetrics.Metrics
	cache   CacheInvalidator
	tx      StoreTx
}

type serviceConfig struct {
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *absencemetrics.Metrics
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

func WithMetrics(m *absencemetrics.Metrics) Option {
	return func(c *serviceConfig) { c.metrics = m }
}

func WithCache(cache CacheInvalidator) Option {
	return func(c *serviceConfig) { c.cache = cache }
}

func WithStoreTx(tx StoreTx) Option {
	return func(c *serviceConfig) { c.tx = tx }
}

// New constructs a Service. Without WithStoreTx the commands run on a
// coarse in-memory lock, which is correct for the memory store.
func New(absences AbsenceStore, directory Directory, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	tx := cfg.tx
	if tx == nil {
		tx = newInMemoryStoreTx()
	}
	return &Service{
		absences:  absences,
		directory: directory,
		logger:    cfg.logger,
		emitter:   newAuditEmitter(cfg.logger, cfg.auditPublisher),
		metrics:   cfg.metrics,
		cache:     cfg.cache,
		tx:        tx,
	}
}

// CreateAbsenceInput carries one absence creation command. ActorID differing
// from MemberID is a proxy booking and requires the manager role.
type CreateAbsenceInput struct {
	TenantID    id.TenantID
	MemberID    id.MemberID
	StartDate   time.Time
	EndDate     time.Time
	HoursPerDay float64
	Kind        models.Kind
	Note        string
	ActorID     id.MemberID
}

// CreateAbsence records a new absence interval.
func (s *Service) CreateAbsence(ctx context.Context, in CreateAbsenceInput) (absence *models.Absence, err error) {
	ctx, end := telemetry.StartSpan(ctx, "absence.CreateAbsence")
	defer func() { end(err) }()

	if in.ActorID != in.MemberID {
		if err = s.requireManager(ctx, in.TenantID, in.ActorID); err != nil {
			return nil, err
		}
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		a, txErr := models.NewAbsence(
			id.AbsenceID(uuid.New()),
			in.TenantID, in.MemberID,
			in.StartDate, in.EndDate,
			in.HoursPerDay, in.Kind, in.Note,
			requestcontext.Now(txCtx),
		)
		if txErr != nil {
			return txErr
		}
		if txErr = s.absences.Create(txCtx, a); txErr != nil {
			return dErrors.Wrap(txErr, dErrors.CodeInternal, "failed to store absence")
		}
		absence = a
		return s.emitter.emitAbsence(txCtx, audit.ActionAbsenceCreated, a, in.ActorID)
	})
	if err != nil {
		s.countCommand("create_absence", err)
		return nil, err
	}

	s.invalidateMember(ctx, in.TenantID, in.MemberID)
	s.countCommand("create_absence", nil)
	return absence, nil
}

// GetAbsence returns one absence by id within the tenant.
func (s *Service) GetAbsence(ctx context.Context, tenantID id.TenantID, absenceID id.AbsenceID) (absence *models.Absence, err error) {
	ctx, end := telemetry.StartSpan(ctx, "absence.GetAbsence")
	defer func() { end(err) }()

	absence, err = s.absences.Get(ctx, tenantID, absenceID)
	if err != nil {
		return nil, wrapAbsenceErr(err)
	}
	return absence, nil
}

// DeleteAbsence removes an absence. Only the member it belongs to, or a
// manager, may remove it.
func (s *Service) DeleteAbsence(ctx context.Context, tenantID id.TenantID, absenceID id.AbsenceID, actorID id.MemberID) (err error) {
	ctx, end := telemetry.StartSpan(ctx, "absence.DeleteAbsence")
	defer func() { end(err) }()

	var memberID id.MemberID
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		a, txErr := s.absences.Get(txCtx, tenantID, absenceID)
		if txErr != nil {
			return wrapAbsenceErr(txErr)
		}
		if actorID != a.MemberID {
			if txErr = s.requireManager(txCtx, tenantID, actorID); txErr != nil {
				return txErr
			}
		}
		if txErr = s.absences.Delete(txCtx, tenantID, absenceID); txErr != nil {
			return wrapAbsenceErr(txErr)
		}
		memberID = a.MemberID
		return s.emitter.emitAbsence(txCtx, audit.ActionAbsenceDeleted, a, actorID)
	})
	if err != nil {
		s.countCommand("delete_absence", err)
		return err
	}

	s.invalidateMember(ctx, tenantID, memberID)
	s.countCommand("delete_absence", nil)
	return nil
}

// ListAbsences returns the member's absences overlapping the inclusive
// [from, to] date range, ordered by start date.
func (s *Service) ListAbsences(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, from, to time.Time) (absences []*models.Absence, err error) {
	ctx, end := telemetry.StartSpan(ctx, "absence.ListAbsences")
	defer func() { end(err) }()

	from = id.DateOf(from)
	to = id.DateOf(to)
	if from.IsZero() || to.Before(from) {
		return nil, dErrors.New(dErrors.CodeValidation, "range must have from <= to")
	}

	absences, err = s.absences.ListOverlapping(ctx, tenantID, memberID, from, to)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list absences")
	}
	return absences, nil
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

func wrapAbsenceErr(err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "absence not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "absence store failure")
}
