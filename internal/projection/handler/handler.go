// Package handler exposes the read-side reporting routes: calendar totals,
// day statuses, entry detail, the monthly rollup, and the reviewer queue.
// Identity comes from the gateway headers via the identity middleware.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"tempus/internal/projection/store"
	id "tempus/pkg/domain"
	dErrors "tempus/pkg/domain-errors"
	"tempus/pkg/platform/httputil"
	"tempus/pkg/requestcontext"
)

// ProjectionService is the slice of the projection service the routes need.
type ProjectionService interface {
	DailyTotals(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, from, to time.Time) ([]store.DayTotal, error)
	AbsenceTotals(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, from, to time.Time) ([]store.DayTotal, error)
	DayStatuses(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, from, to time.Time) ([]store.DayStatus, error)
	DailyEntries(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, day time.Time) ([]store.EntryDetail, error)
	MonthlySummary(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, period id.FiscalMonth) (store.MonthlySummary, error)
	PendingApprovals(ctx context.Context, tenantID id.TenantID) ([]store.PendingApproval, error)
}

// Handler serves the reporting routes.
type Handler struct {
	svc            ProjectionService
	fiscalStartDay int
	logger         *slog.Logger
}

// Option configures the handler.
type Option func(*Handler)

// WithFiscalStartDay sets the day of month fiscal windows start on, used to
// resolve the monthly summary anchor. Values outside 1..28 fall back to
// calendar months.
func WithFiscalStartDay(day int) Option {
	return func(h *Handler) { h.fiscalStartDay = day }
}

func New(svc ProjectionService, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{svc: svc, fiscalStartDay: 1, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the reporting routes on r. The caller is expected to have
// installed the identity middleware on r already.
func (h *Handler) Register(r chi.Router) {
	r.Route("/v1/reports", func(r chi.Router) {
		r.Get("/daily-totals", h.dailyTotals)
		r.Get("/absence-totals", h.absenceTotals)
		r.Get("/day-statuses", h.dayStatuses)
		r.Get("/daily-entries", h.dailyEntries)
		r.Get("/monthly-summary", h.monthlySummary)
		r.Get("/pending-approvals", h.pendingApprovals)
	})
}

type dayTotalView struct {
	Date  string  `json:"date"`
	Hours float64 `json:"hours"`
}

func toDayTotalViews(totals []store.DayTotal) []dayTotalView {
	out := make([]dayTotalView, 0, len(totals))
	for _, t := range totals {
		out = append(out, dayTotalView{Date: id.FormatDate(t.Date), Hours: t.Hours})
	}
	return out
}

type dayStatusView struct {
	Date   string `json:"date"`
	Status string `json:"status"`
}

type entryDetailView struct {
	EntryID         id.EntryID   `json:"entry_id"`
	ProjectID       id.ProjectID `json:"project_id"`
	Date            string       `json:"date"`
	Hours           float64      `json:"hours"`
	Comment         string       `json:"comment,omitempty"`
	Status          string       `json:"status"`
	RejectionSource string       `json:"rejection_source,omitempty"`
	RejectionReason string       `json:"rejection_reason,omitempty"`
}

type projectShareView struct {
	ProjectID id.ProjectID `json:"project_id"`
	Hours     float64      `json:"hours"`
	Percent   float64      `json:"percent"`
}

type monthlySummaryView struct {
	PeriodStart string             `json:"period_start"`
	PeriodEnd   string             `json:"period_end"`
	TotalHours  float64            `json:"total_hours"`
	Projects    []projectShareView `json:"projects"`
}

type pendingApprovalView struct {
	ApprovalID  id.ApprovalID `json:"approval_id"`
	MemberID    id.MemberID   `json:"member_id"`
	PeriodStart string        `json:"period_start"`
	PeriodEnd   string        `json:"period_end"`
	SubmittedAt string        `json:"submitted_at"`
	EntryCount  int           `json:"entry_count"`
	TotalHours  float64       `json:"total_hours"`
}

// memberScope resolves which member the query reads: member_id when given,
// the caller otherwise.
func memberScope(r *http.Request) (id.MemberID, error) {
	if raw := strings.TrimSpace(r.URL.Query().Get("member_id")); raw != "" {
		return id.ParseMemberID(raw)
	}
	return requestcontext.ActorID(r.Context()), nil
}

func (h *Handler) dailyTotals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	memberID, err := memberScope(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	from, to, err := parseDateRange(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	totals, err := h.svc.DailyTotals(ctx, requestcontext.TenantID(ctx), memberID, from, to)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"totals": toDayTotalViews(totals)})
}

func (h *Handler) absenceTotals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	memberID, err := memberScope(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	from, to, err := parseDateRange(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	totals, err := h.svc.AbsenceTotals(ctx, requestcontext.TenantID(ctx), memberID, from, to)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"totals": toDayTotalViews(totals)})
}

func (h *Handler) dayStatuses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	memberID, err := memberScope(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	from, to, err := parseDateRange(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	statuses, err := h.svc.DayStatuses(ctx, requestcontext.TenantID(ctx), memberID, from, to)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]dayStatusView, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, dayStatusView{Date: id.FormatDate(s.Date), Status: s.Status})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"statuses": out})
}

func (h *Handler) dailyEntries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	memberID, err := memberScope(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	day, err := id.ParseDate(strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	details, err := h.svc.DailyEntries(ctx, requestcontext.TenantID(ctx), memberID, day)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]entryDetailView, 0, len(details))
	for _, d := range details {
		out = append(out, entryDetailView{
			EntryID:         d.EntryID,
			ProjectID:       d.ProjectID,
			Date:            id.FormatDate(d.Date),
			Hours:           d.Hours,
			Comment:         d.Comment,
			Status:          d.Status,
			RejectionSource: d.RejectionSource,
			RejectionReason: d.RejectionReason,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"entries": out})
}

func (h *Handler) monthlySummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	memberID, err := memberScope(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	anchor, err := id.ParseDate(strings.TrimSpace(r.URL.Query().Get("anchor")))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	period := id.FiscalMonthOf(anchor, h.fiscalStartDay)

	summary, err := h.svc.MonthlySummary(ctx, requestcontext.TenantID(ctx), memberID, period)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	view := monthlySummaryView{
		PeriodStart: id.FormatDate(summary.PeriodStart),
		PeriodEnd:   id.FormatDate(summary.PeriodEnd),
		TotalHours:  summary.TotalHours,
		Projects:    make([]projectShareView, 0, len(summary.Projects)),
	}
	for _, p := range summary.Projects {
		view.Projects = append(view.Projects, projectShareView{ProjectID: p.ProjectID, Hours: p.Hours, Percent: p.Percent})
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// pendingApprovals serves the reviewer queue. It is tenant-scoped, not
// member-scoped, and bypasses the cache so a fresh submission shows up
// immediately.
func (h *Handler) pendingApprovals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	queue, err := h.svc.PendingApprovals(ctx, requestcontext.TenantID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]pendingApprovalView, 0, len(queue))
	for _, p := range queue {
		out = append(out, pendingApprovalView{
			ApprovalID:  p.ApprovalID,
			MemberID:    p.MemberID,
			PeriodStart: id.FormatDate(p.PeriodStart),
			PeriodEnd:   id.FormatDate(p.PeriodEnd),
			SubmittedAt: p.SubmittedAt.Format(time.RFC3339),
			EntryCount:  p.EntryCount,
			TotalHours:  p.TotalHours,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"pending": out})
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
