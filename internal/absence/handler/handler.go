// Package handler exposes the member-facing absence routes. Identity comes
// from the gateway headers via the identity middleware; the handler never
// reads tenant or actor from the payload.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"tempus/internal/absence/models"
	"tempus/internal/absence/service"
	id "tempus/pkg/domain"
	dErrors "tempus/pkg/domain-errors"
	"tempus/pkg/platform/httputil"
	"tempus/pkg/platform/middleware/request"
	"tempus/pkg/requestcontext"
)

// AbsenceService is the slice of the absence service the routes need.
type AbsenceService interface {
	CreateAbsence(ctx context.Context, in service.CreateAbsenceInput) (*models.Absence, error)
	GetAbsence(ctx context.Context, tenantID id.TenantID, absenceID id.AbsenceID) (*models.Absence, error)
	DeleteAbsence(ctx context.Context, tenantID id.TenantID, absenceID id.AbsenceID, actorID id.MemberID) error
	ListAbsences(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, from, to time.Time) ([]*models.Absence, error)
}

// Handler serves the absence routes.
type Handler struct {
	svc    AbsenceService
	logger *slog.Logger
}

func New(svc AbsenceService, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the absence routes on r. The caller is expected to have
// installed the identity middleware on r already.
func (h *Handler) Register(r chi.Router) {
	r.Route("/v1/absences", func(r chi.Router) {
		r.Post("/", h.createAbsence)
		r.Get("/", h.listAbsences)
		r.Get("/{id}", h.getAbsence)
		r.Delete("/{id}", h.deleteAbsence)
	})
}

type absenceResponse struct {
	AbsenceID   id.AbsenceID `json:"absence_id"`
	MemberID    id.MemberID  `json:"member_id"`
	StartDate   string       `json:"start_date"`
	EndDate     string       `json:"end_date"`
	HoursPerDay float64      `json:"hours_per_day"`
	Kind        models.Kind  `json:"kind"`
	Note        string       `json:"note,omitempty"`
	CreatedAt   string       `json:"created_at"`
}

func toAbsenceResponse(a *models.Absence) absenceResponse {
	return absenceResponse{
		AbsenceID:   a.ID,
		MemberID:    a.MemberID,
		StartDate:   id.FormatDate(a.StartDate),
		EndDate:     id.FormatDate(a.EndDate),
		HoursPerDay: a.HoursPerDay,
		Kind:        a.Kind,
		Note:        a.Note,
		CreatedAt:   a.CreatedAt.Format(time.RFC3339),
	}
}

func (h *Handler) createAbsence(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndPrepare[CreateAbsenceRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}

	actorID := requestcontext.ActorID(ctx)
	memberID := req.parsedMemberID
	if memberID == (id.MemberID{}) {
		memberID = actorID
	}

	absence, err := h.svc.CreateAbsence(ctx, service.CreateAbsenceInput{
		TenantID:    requestcontext.TenantID(ctx),
		MemberID:    memberID,
		StartDate:   req.parsedStart,
		EndDate:     req.parsedEnd,
		HoursPerDay: req.HoursPerDay,
		Kind:        req.parsedKind,
		Note:        req.Note,
		ActorID:     actorID,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toAbsenceResponse(absence))
}

func (h *Handler) getAbsence(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	absenceID, err := id.ParseAbsenceID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	absence, err := h.svc.GetAbsence(ctx, requestcontext.TenantID(ctx), absenceID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAbsenceResponse(absence))
}

func (h *Handler) deleteAbsence(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	absenceID, err := id.ParseAbsenceID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.svc.DeleteAbsence(ctx, requestcontext.TenantID(ctx), absenceID, requestcontext.ActorID(ctx)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) listAbsences(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	memberID := requestcontext.ActorID(ctx)
	if raw := strings.TrimSpace(r.URL.Query().Get("member_id")); raw != "" {
		parsed, err := id.ParseMemberID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		memberID = parsed
	}

	from, to, err := parseDateRange(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	absences, err := h.svc.ListAbsences(ctx, requestcontext.TenantID(ctx), memberID, from, to)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]absenceResponse, 0, len(absences))
	for _, a := range absences {
		out = append(out, toAbsenceResponse(a))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"absences": out})
}

func parseDateRange(r *http.Request) (from, to time.Time, err error) {
	rawFrom := strings.TrimSpace(r.URL.Query().Get("from"))
	rawTo := strings.TrimSpace(r.URL.Query().Get("to"))
	if rawFrom == "" || rawTo == "" {
		return time.Time{}, time.Time{}, dErrors.New(dErrors.CodeValidation, "from and to query parameters are required")
	}
	if from, err = id.ParseDate(rawFrom); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to, err = id.ParseDate(rawTo); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}
