// Package handler exposes the admin surface for tenant and member
// management. Routes are mounted behind the admin token middleware; mutating
// routes are additionally decorated with route-level audit capture so denied
// and failed attempts leave a trail too.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tempus/internal/audit"
	"tempus/internal/tenant/models"
	"tempus/internal/tenant/service"
	id "tempus/pkg/domain"
	"tempus/pkg/platform/httputil"
	"tempus/pkg/platform/middleware/request"
)

// TenantService is the slice of the tenant service the admin surface needs.
type TenantService interface {
	CreateTenant(ctx context.Context, name string) (*models.Tenant, error)
	GetTenant(ctx context.Context, tenantID id.TenantID) (*models.TenantDetails, error)
	DeactivateTenant(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
	ReactivateTenant(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
	CreateMember(ctx context.Context, in service.CreateMemberInput) (*models.Member, error)
	ListMembers(ctx context.Context, tenantID id.TenantID) ([]*models.Member, error)
	DeactivateMember(ctx context.Context, tenantID id.TenantID, memberID id.MemberID) (*models.Member, error)
	ReactivateMember(ctx context.Context, tenantID id.TenantID, memberID id.MemberID) (*models.Member, error)
}

// Handler serves the tenant admin routes.
type Handler struct {
	svc    TenantService
	logger *slog.Logger
	audit  *audit.Publisher
}

type Option func(h *Handler)

// WithAuditPublisher enables route-level audit decoration.
func WithAuditPublisher(pub *audit.Publisher) Option {
	return func(h *Handler) { h.audit = pub }
}

func New(svc TenantService, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{svc: svc, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the admin routes on r. The caller is expected to have
// installed the admin token middleware on r already.
func (h *Handler) Register(r chi.Router) {
	r.Route("/admin/tenants", func(r chi.Router) {
		r.With(h.decorate(audit.ActionTenantCreated, audit.EntityTenant)).
			Post("/", h.createTenant)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getTenant)
			r.With(h.decorate(audit.ActionTenantDeactivated, audit.EntityTenant)).
				Post("/deactivate", h.deactivateTenant)
			r.With(h.decorate(audit.ActionTenantReactivated, audit.EntityTenant)).
				Post("/reactivate", h.reactivateTenant)
			r.Route("/members", func(r chi.Router) {
				r.With(h.decorate(audit.ActionMemberCreated, audit.EntityMember)).
					Post("/", h.createMember)
				r.Get("/", h.listMembers)
				r.With(h.decorate(audit.ActionMemberDeactivated, audit.EntityMember)).
					Post("/{memberID}/deactivate", h.deactivateMember)
				r.With(h.decorate(audit.ActionMemberReactivated, audit.EntityMember)).
					Post("/{memberID}/reactivate", h.reactivateMember)
			})
		})
	})
}

func (h *Handler) decorate(action audit.Action, entityType string) func(http.Handler) http.Handler {
	if h.audit == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return audit.Decorate(h.audit, action, entityType)
}

type tenantResponse struct {
	TenantID  id.TenantID         `json:"tenant_id"`
	Name      string              `json:"name"`
	Status    models.TenantStatus `json:"status"`
	CreatedAt string              `json:"created_at"`
	UpdatedAt string              `json:"updated_at"`
}

func toTenantResponse(t *models.Tenant) tenantResponse {
	return tenantResponse{
		TenantID:  t.ID,
		Name:      t.Name,
		Status:    t.Status,
		CreatedAt: t.CreatedAt.Format(time.RFC3339),
		UpdatedAt: t.UpdatedAt.Format(time.RFC3339),
	}
}

type memberResponse struct {
	MemberID    id.MemberID         `json:"member_id"`
	TenantID    id.TenantID         `json:"tenant_id"`
	DisplayName string              `json:"display_name"`
	Role        models.Role         `json:"role"`
	Status      models.MemberStatus `json:"status"`
}

func toMemberResponse(m *models.Member) memberResponse {
	return memberResponse{
		MemberID:    m.ID,
		TenantID:    m.TenantID,
		DisplayName: m.DisplayName,
		Role:        m.Role,
		Status:      m.Status,
	}
}

func (h *Handler) createTenant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndPrepare[CreateTenantRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}

	tenant, err := h.svc.CreateTenant(ctx, req.Name)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toTenantResponse(tenant))
}

func (h *Handler) getTenant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, err := id.ParseTenantID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	details, err := h.svc.GetTenant(ctx, tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, details)
}

func (h *Handler) deactivateTenant(w http.ResponseWriter, r *http.Request) {
	h.transitionTenant(w, r, h.svc.DeactivateTenant)
}

func (h *Handler) reactivateTenant(w http.ResponseWriter, r *http.Request) {
	h.transitionTenant(w, r, h.svc.ReactivateTenant)
}

func (h *Handler) transitionTenant(w http.ResponseWriter, r *http.Request, op func(context.Context, id.TenantID) (*models.Tenant, error)) {
	ctx := r.Context()

	tenantID, err := id.ParseTenantID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	tenant, err := op(ctx, tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTenantResponse(tenant))
}

func (h *Handler) createMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, err := id.ParseTenantID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[CreateMemberRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}

	member, err := h.svc.CreateMember(ctx, service.CreateMemberInput{
		TenantID:    tenantID,
		DisplayName: req.DisplayName,
		Role:        req.parsedRole,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toMemberResponse(member))
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, err := id.ParseTenantID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	members, err := h.svc.ListMembers(ctx, tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]memberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, toMemberResponse(m))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"members": out})
}

func (h *Handler) deactivateMember(w http.ResponseWriter, r *http.Request) {
	h.transitionMember(w, r, h.svc.DeactivateMember)
}

func (h *Handler) reactivateMember(w http.ResponseWriter, r *http.Request) {
	h.transitionMember(w, r, h.svc.ReactivateMember)
}

func (h *Handler) transitionMember(w http.ResponseWriter, r *http.Request, op func(context.Context, id.TenantID, id.MemberID) (*models.Member, error)) {
	ctx := r.Context()

	tenantID, err := id.ParseTenantID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	memberID, err := id.ParseMemberID(chi.URLParam(r, "memberID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	member, err := op(ctx, tenantID, memberID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toMemberResponse(member))
}
