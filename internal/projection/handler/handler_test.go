package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	absencemodels "tempus/internal/absence/models"
	absencestore "tempus/internal/absence/store"
	approvalservice "tempus/internal/approval/service"
	approvalstore "tempus/internal/approval/store"
	"tempus/internal/eventstore"
	projservice "tempus/internal/projection/service"
	projstore "tempus/internal/projection/store"
	worklogservice "tempus/internal/worklog/service"
	worklogstore "tempus/internal/worklog/store"
	id "tempus/pkg/domain"
	"tempus/pkg/platform/middleware/identity"
)

type fakeDirectory struct {
	managers map[id.MemberID]bool
}

func (f *fakeDirectory) IsManager(_ context.Context, _ id.TenantID, memberID id.MemberID) (bool, error) {
	return f.managers[memberID], nil
}

// The fixture drives the write-side services directly and reads back over
// the HTTP reporting routes, so every view is derived from real commands.
type reportsFixture struct {
	router    chi.Router
	worklog   *worklogservice.Service
	approvals *approvalservice.Service
	absences  *absencestore.InMemoryAbsenceStore
	tenantID  id.TenantID
	memberID  id.MemberID
	managerID id.MemberID
	projectID id.ProjectID
}

func newReportsRouter(t *testing.T) *reportsFixture {
	t.Helper()

	f := &reportsFixture{
		tenantID:  id.TenantID(uuid.New()),
		memberID:  id.MemberID(uuid.New()),
		managerID: id.MemberID(uuid.New()),
		projectID: id.ProjectID(uuid.New()),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	events := eventstore.NewMemoryStore()
	entryRows := worklogstore.NewInMemoryEntryStore()
	entryRepo := worklogstore.NewRepository(events, entryRows)
	approvalRows := approvalstore.NewInMemoryApprovalStore()
	approvalRepo := approvalstore.NewRepository(events, approvalRows)
	f.absences = absencestore.NewInMemoryAbsenceStore()
	directory := &fakeDirectory{managers: map[id.MemberID]bool{f.managerID: true}}

	f.worklog = worklogservice.New(entryRepo, entryRows, approvalRows, directory, worklogservice.WithLogger(logger))
	f.approvals = approvalservice.New(events, approvalRepo, approvalRows, entryRepo, entryRows, directory,
		approvalservice.WithLogger(logger))

	reads := projstore.NewInMemoryReadStore(entryRows, f.absences, approvalRows)
	svc := projservice.New(reads, projservice.WithLogger(logger))

	router := chi.NewRouter()
	router.Use(identity.Require(logger))
	New(svc, logger).Register(router)
	f.router = router
	return f
}

func (f *reportsFixture) get(t *testing.T, target string, asMember id.MemberID) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("X-Tenant-ID", f.tenantID.String())
	req.Header.Set("X-Member-ID", asMember.String())
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *reportsFixture) addEntry(t *testing.T, projectID id.ProjectID, date string, hours float64) {
	t.Helper()

	day, err := id.ParseDate(date)
	if err != nil {
		t.Fatalf("bad date in test: %v", err)
	}
	if _, err := f.worklog.CreateEntry(context.Background(), worklogservice.CreateEntryInput{
		TenantID:  f.tenantID,
		MemberID:  f.memberID,
		ProjectID: projectID,
		Date:      day,
		Hours:     hours,
		ActorID:   f.memberID,
	}); err != nil {
		t.Fatalf("failed to seed entry: %v", err)
	}
}

func (f *reportsFixture) submitDay(t *testing.T, date string) {
	t.Helper()

	day, err := id.ParseDate(date)
	if err != nil {
		t.Fatalf("bad date in test: %v", err)
	}
	if _, err := f.worklog.SubmitDay(context.Background(), f.tenantID, f.memberID, day, f.memberID); err != nil {
		t.Fatalf("failed to submit day: %v", err)
	}
}

func (f *reportsFixture) addAbsence(t *testing.T, start, end string, hoursPerDay float64) {
	t.Helper()

	s, err := id.ParseDate(start)
	if err != nil {
		t.Fatalf("bad date in test: %v", err)
	}
	e, err := id.ParseDate(end)
	if err != nil {
		t.Fatalf("bad date in test: %v", err)
	}
	a, err := absencemodels.NewAbsence(id.AbsenceID(uuid.New()), f.tenantID, f.memberID, s, e,
		hoursPerDay, absencemodels.KindVacation, "", time.Now().UTC())
	if err != nil {
		t.Fatalf("failed to build absence: %v", err)
	}
	if err := f.absences.Create(context.Background(), a); err != nil {
		t.Fatalf("failed to seed absence: %v", err)
	}
}

type totalsJSON struct {
	Totals []struct {
		Date  string  `json:"date"`
		Hours float64 `json:"hours"`
	} `json:"totals"`
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if err := json.NewDecoder(rec.Body).Decode(dest); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestIdentityRequired(t *testing.T) {
	f := newReportsRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/reports/daily-totals?from=2026-04-01&to=2026-04-30", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity headers, got %d", rec.Code)
	}
}

func TestDailyTotals(t *testing.T) {
	f := newReportsRouter(t)
	f.addEntry(t, f.projectID, "2026-04-07", 3.5)
	f.addEntry(t, f.projectID, "2026-04-07", 4)
	f.addEntry(t, f.projectID, "2026-04-08", 2)

	var got totalsJSON
	decodeInto(t, f.get(t, "/v1/reports/daily-totals?from=2026-04-01&to=2026-04-30", f.memberID), &got)

	if len(got.Totals) != 2 {
		t.Fatalf("expected two days with hours, got %+v", got.Totals)
	}
	if got.Totals[0].Date != "2026-04-07" || got.Totals[0].Hours != 7.5 {
		t.Fatalf("expected 7.5 hours on the first day, got %+v", got.Totals[0])
	}
	if got.Totals[1].Date != "2026-04-08" || got.Totals[1].Hours != 2 {
		t.Fatalf("expected 2 hours on the second day, got %+v", got.Totals[1])
	}

	// The manager reads the member's calendar through member_id.
	var scoped totalsJSON
	decodeInto(t, f.get(t, "/v1/reports/daily-totals?from=2026-04-01&to=2026-04-30&member_id="+f.memberID.String(), f.managerID), &scoped)
	if len(scoped.Totals) != 2 {
		t.Fatalf("expected the member's totals for the manager, got %+v", scoped.Totals)
	}

	// Without member_id the caller reads their own, empty, calendar.
	var own totalsJSON
	decodeInto(t, f.get(t, "/v1/reports/daily-totals?from=2026-04-01&to=2026-04-30", f.managerID), &own)
	if len(own.Totals) != 0 {
		t.Fatalf("expected an empty calendar for the manager, got %+v", own.Totals)
	}
}

func TestAbsenceTotals(t *testing.T) {
	f := newReportsRouter(t)
	f.addAbsence(t, "2026-04-06", "2026-04-08", 8)

	var got totalsJSON
	decodeInto(t, f.get(t, "/v1/reports/absence-totals?from=2026-04-07&to=2026-04-30", f.memberID), &got)

	// The interval straddles the range start; April 6 must stay outside.
	if len(got.Totals) != 2 {
		t.Fatalf("expected two absence days inside the range, got %+v", got.Totals)
	}
	if got.Totals[0].Date != "2026-04-07" || got.Totals[0].Hours != 8 {
		t.Fatalf("expected 8 absence hours on April 7, got %+v", got.Totals[0])
	}
}

func TestDayStatuses(t *testing.T) {
	f := newReportsRouter(t)
	f.addEntry(t, f.projectID, "2026-04-07", 8)
	f.addEntry(t, f.projectID, "2026-04-08", 8)
	f.submitDay(t, "2026-04-08")
	f.addEntry(t, f.projectID, "2026-04-08", 1)

	var got struct {
		Statuses []struct {
			Date   string `json:"date"`
			Status string `json:"status"`
		} `json:"statuses"`
	}
	decodeInto(t, f.get(t, "/v1/reports/day-statuses?from=2026-04-07&to=2026-04-09", f.memberID), &got)

	if len(got.Statuses) != 3 {
		t.Fatalf("expected one row per day of the range, got %+v", got.Statuses)
	}
	if got.Statuses[0].Status != "DRAFT" {
		t.Fatalf("expected DRAFT on April 7, got %s", got.Statuses[0].Status)
	}
	if got.Statuses[1].Status != projstore.StatusMixed {
		t.Fatalf("expected MIXED where statuses disagree, got %s", got.Statuses[1].Status)
	}
	if got.Statuses[2].Status != "DRAFT" {
		t.Fatalf("expected empty days to default to DRAFT, got %s", got.Statuses[2].Status)
	}
}

func TestDailyEntries(t *testing.T) {
	f := newReportsRouter(t)
	f.addEntry(t, f.projectID, "2026-04-07", 3.5)
	f.addEntry(t, f.projectID, "2026-04-07", 4)

	var got struct {
		Entries []struct {
			EntryID   uuid.UUID `json:"entry_id"`
			ProjectID uuid.UUID `json:"project_id"`
			Date      string    `json:"date"`
			Hours     float64   `json:"hours"`
			Status    string    `json:"status"`
		} `json:"entries"`
	}
	decodeInto(t, f.get(t, "/v1/reports/daily-entries?date=2026-04-07", f.memberID), &got)

	if len(got.Entries) != 2 {
		t.Fatalf("expected both entries of the day, got %+v", got.Entries)
	}
	for _, e := range got.Entries {
		if e.Date != "2026-04-07" || e.Status != "DRAFT" {
			t.Fatalf("expected DRAFT entries on the day, got %+v", e)
		}
	}
}

func TestMonthlySummary(t *testing.T) {
	f := newReportsRouter(t)
	otherProject := id.ProjectID(uuid.New())
	f.addEntry(t, f.projectID, "2026-04-07", 6)
	f.addEntry(t, otherProject, "2026-04-08", 2)

	var got struct {
		PeriodStart string  `json:"period_start"`
		PeriodEnd   string  `json:"period_end"`
		TotalHours  float64 `json:"total_hours"`
		Projects    []struct {
			ProjectID uuid.UUID `json:"project_id"`
			Hours     float64   `json:"hours"`
			Percent   float64   `json:"percent"`
		} `json:"projects"`
	}
	decodeInto(t, f.get(t, "/v1/reports/monthly-summary?anchor=2026-04-15", f.memberID), &got)

	if got.PeriodStart != "2026-04-01" || got.PeriodEnd != "2026-04-30" {
		t.Fatalf("expected the calendar April window, got %s..%s", got.PeriodStart, got.PeriodEnd)
	}
	if got.TotalHours != 8 || len(got.Projects) != 2 {
		t.Fatalf("expected 8 hours across two projects, got %+v", got)
	}
	if got.Projects[0].Hours != 6 || got.Projects[0].Percent != 75 {
		t.Fatalf("expected the larger project first at 75 percent, got %+v", got.Projects[0])
	}
	if got.Projects[1].Percent != 25 {
		t.Fatalf("expected 25 percent for the smaller project, got %+v", got.Projects[1])
	}
}

func TestPendingApprovals(t *testing.T) {
	f := newReportsRouter(t)
	f.addEntry(t, f.projectID, "2026-04-07", 8)

	approval, err := f.approvals.SubmitMonth(context.Background(), f.tenantID, f.memberID,
		id.Date(2026, 4, 15), f.memberID)
	if err != nil {
		t.Fatalf("failed to submit month: %v", err)
	}

	var got struct {
		Pending []struct {
			ApprovalID uuid.UUID `json:"approval_id"`
			MemberID   uuid.UUID `json:"member_id"`
			EntryCount int       `json:"entry_count"`
			TotalHours float64   `json:"total_hours"`
		} `json:"pending"`
	}
	decodeInto(t, f.get(t, "/v1/reports/pending-approvals", f.managerID), &got)

	if len(got.Pending) != 1 {
		t.Fatalf("expected one queued approval, got %+v", got.Pending)
	}
	row := got.Pending[0]
	if row.ApprovalID != uuid.UUID(approval.ID) || row.EntryCount != 1 || row.TotalHours != 8 {
		t.Fatalf("expected the submitted month in the queue, got %+v", row)
	}

	if _, err := f.approvals.Approve(context.Background(), f.tenantID, approval.ID, f.managerID); err != nil {
		t.Fatalf("failed to approve month: %v", err)
	}

	var emptied struct {
		Pending []json.RawMessage `json:"pending"`
	}
	decodeInto(t, f.get(t, "/v1/reports/pending-approvals", f.managerID), &emptied)
	if len(emptied.Pending) != 0 {
		t.Fatalf("expected a drained queue after the decision, got %d rows", len(emptied.Pending))
	}
}

func TestQueryValidation(t *testing.T) {
	f := newReportsRouter(t)

	cases := []struct {
		name   string
		target string
	}{
		{"missing range", "/v1/reports/daily-totals"},
		{"malformed from", "/v1/reports/daily-totals?from=nope&to=2026-04-30"},
		{"bad member id", "/v1/reports/daily-totals?from=2026-04-01&to=2026-04-30&member_id=nope"},
		{"missing date", "/v1/reports/daily-entries"},
		{"malformed anchor", "/v1/reports/monthly-summary?anchor=April"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.get(t, tc.target, f.memberID)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}
