package store

import (
	"math"
	"sort"
	"time"

	worklogmodels "tempus/internal/worklog/models"
	id "tempus/pkg/domain"
)

// StatusMixed marks a day whose entries disagree on status. It extends the
// entry status set for the day-level view only; no entry ever carries it.
const StatusMixed = "MIXED"

// DayTotal is one day's summed hours.
type DayTotal struct {
	Date  time.Time `json:"date"`
	Hours float64   `json:"hours"`
}

// DayStatus is the aggregate submission state of one civil date: the shared
// entry status when all entries on the date agree, MIXED when they differ,
// DRAFT when the date has no entries.
type DayStatus struct {
	Date   time.Time `json:"date"`
	Status string    `json:"status"`
}

// EntryDetail is the entry-level view of one day.
type EntryDetail struct {
	EntryID         id.EntryID   `json:"entry_id"`
	ProjectID       id.ProjectID `json:"project_id"`
	Date            time.Time    `json:"date"`
	Hours           float64      `json:"hours"`
	Comment         string       `json:"comment,omitempty"`
	Status          string       `json:"status"`
	RejectionSource string       `json:"rejection_source,omitempty"`
	RejectionReason string       `json:"rejection_reason,omitempty"`
}

// ProjectShare is one project's slice of a monthly summary.
type ProjectShare struct {
	ProjectID id.ProjectID `json:"project_id"`
	Hours     float64      `json:"hours"`
	Percent   float64      `json:"percent"`
}

// MonthlySummary is the member's fiscal month rollup: total hours plus the
// per-project breakdown with share of total.
type MonthlySummary struct {
	PeriodStart time.Time      `json:"period_start"`
	PeriodEnd   time.Time      `json:"period_end"`
	TotalHours  float64        `json:"total_hours"`
	Projects    []ProjectShare `json:"projects"`
}

// PendingApproval is one row of the review queue: a submitted approval
// joined with the hours currently booked in its window.
type PendingApproval struct {
	ApprovalID  id.ApprovalID `json:"approval_id"`
	MemberID    id.MemberID   `json:"member_id"`
	PeriodStart time.Time     `json:"period_start"`
	PeriodEnd   time.Time     `json:"period_end"`
	SubmittedAt time.Time     `json:"submitted_at"`
	EntryCount  int           `json:"entry_count"`
	TotalHours  float64       `json:"total_hours"`
}

// buildSummary turns per-project sums into the summary shape. Percent is
// share of total rounded to one decimal; projects order by hours descending,
// then by id for a stable tie-break. Both backends use it so rounding has a
// single home.
func buildSummary(period id.FiscalMonth, byProject map[id.ProjectID]float64) MonthlySummary {
	summary := MonthlySummary{
		PeriodStart: period.Start,
		PeriodEnd:   period.End,
		Projects:    []ProjectShare{},
	}
	for _, hours := range byProject {
		summary.TotalHours += hours
	}
	for projectID, hours := range byProject {
		percent := 0.0
		if summary.TotalHours > 0 {
			percent = math.Round(hours/summary.TotalHours*1000) / 10
		}
		summary.Projects = append(summary.Projects, ProjectShare{
			ProjectID: projectID,
			Hours:     hours,
			Percent:   percent,
		})
	}
	sort.Slice(summary.Projects, func(i, j int) bool {
		if summary.Projects[i].Hours != summary.Projects[j].Hours {
			return summary.Projects[i].Hours > summary.Projects[j].Hours
		}
		return summary.Projects[i].ProjectID.String() < summary.Projects[j].ProjectID.String()
	})
	return summary
}

// denseStatuses expands sparse per-day statuses into one row per civil date
// of the inclusive range, defaulting empty days to DRAFT.
func denseStatuses(from, to time.Time, byDay map[time.Time]string) []DayStatus {
	from = id.DateOf(from)
	to = id.DateOf(to)

	var out []DayStatus
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		status, ok := byDay[d]
		if !ok {
			status = string(worklogmodels.StatusDraft)
		}
		out = append(out, DayStatus{Date: d, Status: status})
	}
	return out
}
