// Package handler exposes the member-facing work log routes: entry CRUD, the
// day-level submit and recall batch commands, and the manager's individual
// review action. Identity comes from the gateway headers via the identity
// middleware; the handler never reads tenant or actor from the payload.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"tempus/internal/worklog/models"
	"tempus/internal/worklog/service"
	id "tempus/pkg/domain"
	"tempus/pkg/platform/httputil"
	"tempus/pkg/platform/middleware/request"
	"tempus/pkg/requestcontext"
)

// WorklogService is the slice of the worklog service the routes need.
type WorklogService interface {
	CreateEntry(ctx context.Context, in service.CreateEntryInput) (*models.Entry, error)
	AmendEntry(ctx context.Context, in service.AmendEntryInput) (*models.Entry, error)
	DeleteEntry(ctx context.Context, tenantID id.TenantID, entryID id.EntryID, actorID id.MemberID) error
	GetEntry(ctx context.Context, tenantID id.TenantID, entryID id.EntryID) (*models.Entry, error)
	ChangeStatus(ctx context.Context, in service.ChangeStatusInput) (*models.Entry, error)
	SubmitDay(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, date time.Time, actorID id.MemberID) ([]*models.Entry, error)
	RecallDay(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, date time.Time, actorID id.MemberID) ([]*models.Entry, error)
}

// Handler serves the work log routes.
type Handler struct {
	svc    WorklogService
	logger *slog.Logger
}

func New(svc WorklogService, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the work log routes on r. The caller is expected to have
// installed the identity middleware on r already.
func (h *Handler) Register(r chi.Router) {
	r.Route("/v1/entries", func(r chi.Router) {
		r.Post("/", h.createEntry)
		r.Get("/{id}", h.getEntry)
		r.Put("/{id}", h.amendEntry)
		r.Delete("/{id}", h.deleteEntry)
		r.Post("/{id}/status", h.reviewEntry)
	})
	r.Route("/v1/days/{date}", func(r chi.Router) {
		r.Post("/submit", h.submitDay)
		r.Post("/recall", h.recallDay)
	})
}

type entryResponse struct {
	EntryID         id.EntryID    `json:"entry_id"`
	MemberID        id.MemberID   `json:"member_id"`
	ProjectID       id.ProjectID  `json:"project_id"`
	Date            string        `json:"date"`
	Hours           float64       `json:"hours"`
	Comment         string        `json:"comment,omitempty"`
	Status          models.Status `json:"status"`
	EnteredBy       id.MemberID   `json:"entered_by"`
	RejectionSource string        `json:"rejection_source,omitempty"`
	RejectionReason string        `json:"rejection_reason,omitempty"`
	Version         int           `json:"version"`
	UpdatedAt       string        `json:"updated_at"`
}

func toEntryResponse(e *models.Entry) entryResponse {
	return entryResponse{
		EntryID:         e.ID,
		MemberID:        e.MemberID,
		ProjectID:       e.ProjectID,
		Date:            id.FormatDate(e.Date),
		Hours:           e.Hours,
		Comment:         e.Comment,
		Status:          e.Status,
		EnteredBy:       e.EnteredBy,
		RejectionSource: e.RejectionSource,
		RejectionReason: e.RejectionReason,
		Version:         e.Version(),
		UpdatedAt:       e.UpdatedAt.Format(time.RFC3339),
	}
}

func toEntryResponses(entries []*models.Entry) []entryResponse {
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	return out
}

func (h *Handler) createEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndPrepare[CreateEntryRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}

	actorID := requestcontext.ActorID(ctx)
	memberID := req.parsedMemberID
	if memberID == (id.MemberID{}) {
		memberID = actorID
	}

	entry, err := h.svc.CreateEntry(ctx, service.CreateEntryInput{
		TenantID:  requestcontext.TenantID(ctx),
		MemberID:  memberID,
		ProjectID: req.parsedProjectID,
		Date:      req.parsedDate,
		Hours:     req.Hours,
		Comment:   req.Comment,
		ActorID:   actorID,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toEntryResponse(entry))
}

func (h *Handler) getEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entryID, err := id.ParseEntryID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entry, err := h.svc.GetEntry(ctx, requestcontext.TenantID(ctx), entryID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) amendEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entryID, err := id.ParseEntryID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[AmendEntryRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}

	entry, err := h.svc.AmendEntry(ctx, service.AmendEntryInput{
		TenantID:  requestcontext.TenantID(ctx),
		EntryID:   entryID,
		ProjectID: req.parsedProjectID,
		Date:      req.parsedDate,
		Hours:     req.Hours,
		Comment:   req.Comment,
		ActorID:   requestcontext.ActorID(ctx),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) deleteEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entryID, err := id.ParseEntryID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.svc.DeleteEntry(ctx, requestcontext.TenantID(ctx), entryID, requestcontext.ActorID(ctx)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) reviewEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entryID, err := id.ParseEntryID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[ReviewEntryRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}

	entry, err := h.svc.ChangeStatus(ctx, service.ChangeStatusInput{
		TenantID: requestcontext.TenantID(ctx),
		EntryID:  entryID,
		Target:   req.parsedStatus,
		ActorID:  requestcontext.ActorID(ctx),
		Reason:   req.Reason,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) submitDay(w http.ResponseWriter, r *http.Request) {
	h.runDayCommand(w, r, h.svc.SubmitDay)
}

func (h *Handler) recallDay(w http.ResponseWriter, r *http.Request) {
	h.runDayCommand(w, r, h.svc.RecallDay)
}

// runDayCommand shares the submit/recall plumbing: date from the path,
// member from the optional query parameter (the service holds these commands
// to the member themselves), full day echoed back.
func (h *Handler) runDayCommand(w http.ResponseWriter, r *http.Request,
	command func(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, date time.Time, actorID id.MemberID) ([]*models.Entry, error),
) {
	ctx := r.Context()

	date, err := id.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	actorID := requestcontext.ActorID(ctx)
	memberID := actorID
	if raw := strings.TrimSpace(r.URL.Query().Get("member_id")); raw != "" {
		parsed, err := id.ParseMemberID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		memberID = parsed
	}

	entries, err := command(ctx, requestcontext.TenantID(ctx), memberID, date, actorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"date":      id.FormatDate(date),
		"member_id": memberID,
		"entries":   toEntryResponses(entries),
	})
}
