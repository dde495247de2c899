// Package service orchestrates tenant and member lifecycle management. It is
// the admin boundary of the system and also answers the role questions the
// command services ask before authorizing review operations.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"tempus/internal/audit"
	"tempus/internal/platform/telemetry"
	tenantmetrics "tempus/internal/tenant/metrics"
	"tempus/internal/tenant/models"
	id "tempus/pkg/domain"
	dErrors "tempus/pkg/domain-errors"
	"tempus/pkg/platform/sentinel"
	"tempus/pkg/requestcontext"
)

// TenantStore persists tenant records. CreateIfNameAvailable returns
// sentinel.ErrConflict when the name is taken (case-insensitive); Execute
// runs validate-then-mutate atomically under the store's lock.
type TenantStore interface {
	CreateIfNameAvailable(ctx context.Context, t *models.Tenant) error
	FindByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
	FindByName(ctx context.Context, name string) (*models.Tenant, error)
	Execute(ctx context.Context, tenantID id.TenantID, validate func(*models.Tenant) error, mutate func(*models.Tenant)) (*models.Tenant, error)
}

// MemberStore persists member records. All lookups are tenant-scoped.
type MemberStore interface {
	Create(ctx context.Context, m *models.Member) error
	FindByTenantAndID(ctx context.Context, tenantID id.TenantID, memberID id.MemberID) (*models.Member, error)
	ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*models.Member, error)
	Execute(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, validate func(*models.Member) error, mutate func(*models.Member)) (*models.Member, error)
	CountByTenant(ctx context.Context, tenantID id.TenantID) (int, error)
}

// AuditPublisher records audit events; inside a transaction the postgres
// implementation writes to the outbox through the ambient tx.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// StoreTx provides the transactional boundary for commands that pair a store
// write with an audit record.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

// Service orchestrates tenant and member management.
type Service struct {
	tenants TenantStore
	members MemberStore
	emitter *auditEmitter
	logger  *slog.Logger
	metrics *tenantmetrics.Metrics
	tx      StoreTx
}

type serviceConfig struct {
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *tenantmetrics.Metrics
	tx             StoreTx
}

type Option func(c *serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) { c.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(c *serviceConfig) { c.auditPublisher = publisher }
}

func WithMetrics(m *tenantmetrics.Metrics) Option {
	return func(c *serviceConfig) { c.metrics = m }
}

func WithStoreTx(tx StoreTx) Option {
	return func(c *serviceConfig) { c.tx = tx }
}

// New constructs a Service. Without WithStoreTx the commands run on a
// process-local lock, which is what the in-memory stores need.
func New(tenants TenantStore, members MemberStore, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	tx := cfg.tx
	if tx == nil {
		tx = newInMemoryStoreTx()
	}
	return &Service{
		tenants: tenants,
		members: members,
		emitter: newAuditEmitter(cfg.logger, cfg.auditPublisher),
		logger:  cfg.logger,
		metrics: cfg.metrics,
		tx:      tx,
	}
}

func (s *Service) CreateTenant(ctx context.Context, name string) (tenant *models.Tenant, err error) {
	ctx, end := telemetry.StartSpan(ctx, "tenant.CreateTenant")
	defer func() { end(err) }()

	name = strings.TrimSpace(name)

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		t, txErr := models.NewTenant(id.TenantID(uuid.New()), name, requestcontext.Now(txCtx))
		if txErr != nil {
			// Constructor invariants surface as validation errors at the API.
			if dErrors.HasCode(txErr, dErrors.CodeInvariantViolation) {
				return dErrors.New(dErrors.CodeValidation, txErr.Error())
			}
			return txErr
		}

		if txErr := s.tenants.CreateIfNameAvailable(txCtx, t); txErr != nil {
			if errors.Is(txErr, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "tenant name must be unique")
			}
			return dErrors.Wrap(txErr, dErrors.CodeInternal, "failed to create tenant")
		}
		tenant = t
		return s.emitter.emitTenant(txCtx, audit.ActionTenantCreated, t)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementTenantsCreated()
	return tenant, nil
}

// GetTenant fetches tenant metadata with the member count for the admin view.
func (s *Service) GetTenant(ctx context.Context, tenantID id.TenantID) (details *models.TenantDetails, err error) {
	ctx, end := telemetry.StartSpan(ctx, "tenant.GetTenant")
	defer func() { end(err) }()

	if err = requireTenantID(tenantID); err != nil {
		return nil, err
	}

	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, wrapTenantErr(err)
	}
	memberCount, err := s.members.CountByTenant(ctx, tenantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count members")
	}
	return &models.TenantDetails{Tenant: tenant, MemberCount: memberCount}, nil
}

// GetTenantByName retrieves a tenant by name (case-insensitive).
func (s *Service) GetTenantByName(ctx context.Context, name string) (*models.Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "tenant name is required")
	}
	tenant, err := s.tenants.FindByName(ctx, name)
	if err != nil {
		return nil, wrapTenantErr(err)
	}
	return tenant, nil
}

// DeactivateTenant transitions a tenant to inactive status. The store's
// Execute method holds the lock (mutex or FOR UPDATE) during both validation
// and mutation, so racing deactivations resolve to exactly one winner.
func (s *Service) DeactivateTenant(ctx context.Context, tenantID id.TenantID) (tenant *models.Tenant, err error) {
	ctx, end := telemetry.StartSpan(ctx, "tenant.DeactivateTenant")
	defer func() { end(err) }()

	if err = requireTenantID(tenantID); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	tenant, err = s.tenants.Execute(ctx, tenantID,
		func(t *models.Tenant) error {
			if err := t.CanDeactivate(); err != nil {
				return dErrors.New(dErrors.CodeConflict, "tenant is already inactive")
			}
			return nil
		},
		func(t *models.Tenant) {
			t.ApplyDeactivation(now)
		},
	)
	if err != nil {
		return nil, wrapTenantErr(err)
	}

	if err = s.emitter.emitTenant(ctx, audit.ActionTenantDeactivated, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

// ReactivateTenant transitions a tenant back to active status.
func (s *Service) ReactivateTenant(ctx context.Context, tenantID id.TenantID) (tenant *models.Tenant, err error) {
	ctx, end := telemetry.StartSpan(ctx, "tenant.ReactivateTenant")
	defer func() { end(err) }()

	if err = requireTenantID(tenantID); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	tenant, err = s.tenants.Execute(ctx, tenantID,
		func(t *models.Tenant) error {
			if err := t.CanReactivate(); err != nil {
				return dErrors.New(dErrors.CodeConflict, "tenant is already active")
			}
			return nil
		},
		func(t *models.Tenant) {
			t.ApplyReactivation(now)
		},
	)
	if err != nil {
		return nil, wrapTenantErr(err)
	}

	if err = s.emitter.emitTenant(ctx, audit.ActionTenantReactivated, tenant); err != nil {
		return nil, err
	}
	return tenant, nil
}

// CreateMemberInput carries one member creation command.
type CreateMemberInput struct {
	TenantID    id.TenantID
	DisplayName string
	Role        models.Role
}

// CreateMember registers a member under an active tenant.
func (s *Service) CreateMember(ctx context.Context, in CreateMemberInput) (member *models.Member, err error) {
	ctx, end := telemetry.StartSpan(ctx, "tenant.CreateMember")
	defer func() { end(err) }()

	if err = requireTenantID(in.TenantID); err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		tenant, txErr := s.tenants.FindByID(txCtx, in.TenantID)
		if txErr != nil {
			return wrapTenantErr(txErr)
		}
		if !tenant.IsActive() {
			return dErrors.New(dErrors.CodeConflict, "tenant is inactive")
		}

		m, txErr := models.NewMember(
			id.MemberID(uuid.New()), in.TenantID,
			strings.TrimSpace(in.DisplayName), in.Role,
			requestcontext.Now(txCtx),
		)
		if txErr != nil {
			if dErrors.HasCode(txErr, dErrors.CodeInvariantViolation) {
				return dErrors.New(dErrors.CodeValidation, txErr.Error())
			}
			return txErr
		}

		if txErr := s.members.Create(txCtx, m); txErr != nil {
			return dErrors.Wrap(txErr, dErrors.CodeInternal, "failed to create member")
		}
		member = m
		return s.emitter.emitMember(txCtx, audit.ActionMemberCreated, m)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementMembersCreated()
	return member, nil
}

// GetMember retrieves a member within a tenant.
func (s *Service) GetMember(ctx context.Context, tenantID id.TenantID, memberID id.MemberID) (*models.Member, error) {
	if err := requireTenantID(tenantID); err != nil {
		return nil, err
	}
	m, err := s.members.FindByTenantAndID(ctx, tenantID, memberID)
	if err != nil {
		return nil, wrapMemberErr(err)
	}
	return m, nil
}

// ListMembers returns all members of a tenant, oldest first.
func (s *Service) ListMembers(ctx context.Context, tenantID id.TenantID) (members []*models.Member, err error) {
	ctx, end := telemetry.StartSpan(ctx, "tenant.ListMembers")
	defer func() { end(err) }()

	if err = requireTenantID(tenantID); err != nil {
		return nil, err
	}
	if _, err = s.tenants.FindByID(ctx, tenantID); err != nil {
		return nil, wrapTenantErr(err)
	}
	members, err = s.members.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list members")
	}
	return members, nil
}

// DeactivateMember transitions a member to inactive status.
func (s *Service) DeactivateMember(ctx context.Context, tenantID id.TenantID, memberID id.MemberID) (member *models.Member, err error) {
	ctx, end := telemetry.StartSpan(ctx, "tenant.DeactivateMember")
	defer func() { end(err) }()

	if err = requireTenantID(tenantID); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	member, err = s.members.Execute(ctx, tenantID, memberID,
		func(m *models.Member) error {
			if err := m.CanDeactivate(); err != nil {
				return dErrors.New(dErrors.CodeConflict, "member is already inactive")
			}
			return nil
		},
		func(m *models.Member) {
			m.ApplyDeactivation(now)
		},
	)
	if err != nil {
		return nil, wrapMemberErr(err)
	}

	if err = s.emitter.emitMember(ctx, audit.ActionMemberDeactivated, member); err != nil {
		return nil, err
	}
	return member, nil
}

// ReactivateMember transitions a member back to active status.
func (s *Service) ReactivateMember(ctx context.Context, tenantID id.TenantID, memberID id.MemberID) (member *models.Member, err error) {
	ctx, end := telemetry.StartSpan(ctx, "tenant.ReactivateMember")
	defer func() { end(err) }()

	if err = requireTenantID(tenantID); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	member, err = s.members.Execute(ctx, tenantID, memberID,
		func(m *models.Member) error {
			if err := m.CanReactivate(); err != nil {
				return dErrors.New(dErrors.CodeConflict, "member is already active")
			}
			return nil
		},
		func(m *models.Member) {
			m.ApplyReactivation(now)
		},
	)
	if err != nil {
		return nil, wrapMemberErr(err)
	}

	if err = s.emitter.emitMember(ctx, audit.ActionMemberReactivated, member); err != nil {
		return nil, err
	}
	return member, nil
}

// IsManager reports whether the member holds an active manager role in the
// tenant. Unknown members answer false without error so authorization
// failures read as "not a manager" rather than "not found". This is the hot
// path for every review command.
func (s *Service) IsManager(ctx context.Context, tenantID id.TenantID, memberID id.MemberID) (bool, error) {
	start := time.Now()
	defer s.metrics.ObserveIsManager(start)

	m, err := s.members.FindByTenantAndID(ctx, tenantID, memberID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up member role")
	}
	return m.IsManager() && m.IsActive(), nil
}

func requireTenantID(tenantID id.TenantID) error {
	if tenantID == (id.TenantID{}) {
		return dErrors.New(dErrors.CodeValidation, "tenant id is required")
	}
	return nil
}

// wrapTenantErr converts store sentinels into domain errors, passing through
// errors that already carry a code.
func wrapTenantErr(err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "tenant not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "tenant store failure")
}

func wrapMemberErr(err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "member not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "member store failure")
}
