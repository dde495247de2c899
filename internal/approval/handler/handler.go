// Package handler exposes the monthly approval routes. Identity comes from
// the gateway headers via the identity middleware; the handler never reads
// tenant or actor from the payload.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"tempus/internal/approval/models"
	id "tempus/pkg/domain"
	"tempus/pkg/platform/httputil"
	"tempus/pkg/platform/middleware/request"
	"tempus/pkg/requestcontext"
)

// ApprovalService is the slice of the approval service the routes need.
type ApprovalService interface {
	SubmitMonth(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, anchor time.Time, actorID id.MemberID) (*models.Approval, error)
	Approve(ctx context.Context, tenantID id.TenantID, approvalID id.ApprovalID, reviewerID id.MemberID) (*models.Approval, error)
	Reject(ctx context.Context, tenantID id.TenantID, approvalID id.ApprovalID, reviewerID id.MemberID, reason string) (*models.Approval, error)
	GetApproval(ctx context.Context, tenantID id.TenantID, approvalID id.ApprovalID) (*models.Approval, error)
	FindForMonth(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, anchor time.Time) (*models.Approval, error)
}

// Handler serves the approval routes.
type Handler struct {
	svc    ApprovalService
	logger *slog.Logger
}

func New(svc ApprovalService, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the approval routes on r. The caller is expected to have
// installed the identity middleware on r already.
func (h *Handler) Register(r chi.Router) {
	r.Route("/v1/approvals", func(r chi.Router) {
		r.Post("/", h.submitMonth)
		r.Get("/current", h.findForMonth)
		r.Get("/{id}", h.getApproval)
		r.Post("/{id}/approve", h.approveMonth)
		r.Post("/{id}/reject", h.rejectMonth)
	})
}

type approvalResponse struct {
	ApprovalID      id.ApprovalID `json:"approval_id"`
	MemberID        id.MemberID   `json:"member_id"`
	PeriodStart     string        `json:"period_start"`
	PeriodEnd       string        `json:"period_end"`
	Status          models.Status `json:"status"`
	SubmittedBy     id.MemberID   `json:"submitted_by"`
	SubmittedAt     string        `json:"submitted_at"`
	EntryCount      int           `json:"entry_count"`
	ReviewedBy      string        `json:"reviewed_by,omitempty"`
	ReviewedAt      string        `json:"reviewed_at,omitempty"`
	RejectionReason string        `json:"rejection_reason,omitempty"`
	Version         int           `json:"version"`
}

func toApprovalResponse(a *models.Approval) approvalResponse {
	resp := approvalResponse{
		ApprovalID:      a.ID,
		MemberID:        a.MemberID,
		PeriodStart:     id.FormatDate(a.PeriodStart),
		PeriodEnd:       id.FormatDate(a.PeriodEnd),
		Status:          a.Status,
		SubmittedBy:     a.SubmittedBy,
		SubmittedAt:     a.SubmittedAt.Format(time.RFC3339),
		EntryCount:      a.EntryCount,
		RejectionReason: a.RejectionReason,
		Version:         a.Version(),
	}
	if a.ReviewedBy != (id.MemberID{}) {
		resp.ReviewedBy = a.ReviewedBy.String()
		resp.ReviewedAt = a.ReviewedAt.Format(time.RFC3339)
	}
	return resp
}

func (h *Handler) submitMonth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndPrepare[SubmitMonthRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}

	actorID := requestcontext.ActorID(ctx)
	memberID := req.parsedMemberID
	if memberID == (id.MemberID{}) {
		memberID = actorID
	}

	approval, err := h.svc.SubmitMonth(ctx, requestcontext.TenantID(ctx), memberID, req.parsedAnchor, actorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toApprovalResponse(approval))
}

func (h *Handler) getApproval(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	approvalID, err := id.ParseApprovalID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	approval, err := h.svc.GetApproval(ctx, requestcontext.TenantID(ctx), approvalID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toApprovalResponse(approval))
}

func (h *Handler) approveMonth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	approvalID, err := id.ParseApprovalID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	approval, err := h.svc.Approve(ctx, requestcontext.TenantID(ctx), approvalID, requestcontext.ActorID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toApprovalResponse(approval))
}

func (h *Handler) rejectMonth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	approvalID, err := id.ParseApprovalID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[RejectMonthRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}

	approval, err := h.svc.Reject(ctx, requestcontext.TenantID(ctx), approvalID, requestcontext.ActorID(ctx), req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toApprovalResponse(approval))
}

// findForMonth resolves the approval for the fiscal month holding the
// anchor date. member_id defaults to the caller.
func (h *Handler) findForMonth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	anchor, err := id.ParseDate(strings.TrimSpace(r.URL.Query().Get("anchor")))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	memberID := requestcontext.ActorID(ctx)
	if raw := strings.TrimSpace(r.URL.Query().Get("member_id")); raw != "" {
		parsed, parseErr := id.ParseMemberID(raw)
		if parseErr != nil {
			httputil.WriteError(w, parseErr)
			return
		}
		memberID = parsed
	}

	approval, err := h.svc.FindForMonth(ctx, requestcontext.TenantID(ctx), memberID, anchor)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toApprovalResponse(approval))
}
