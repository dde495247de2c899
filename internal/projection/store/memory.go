package store

import (
	"context"
	"sort"
	"time"

	absencestore "tempus/internal/absence/store"
	approvalstore "tempus/internal/approval/store"
	worklogstore "tempus/internal/worklog/store"
	id "tempus/pkg/domain"
)

// InMemoryReadStore computes the projection queries directly from the
// in-memory row stores the write side maintains. Aggregation happens in Go;
// the Postgres implementation pushes the same aggregations into SQL.
type InMemoryReadStore struct {
	entries   worklogstore.EntryStore
	absences  absencestore.AbsenceStore
	approvals approvalstore.ApprovalStore
}

// NewInMemoryReadStore creates a read store over the given row stores.
func NewInMemoryReadStore(entries worklogstore.EntryStore, absences absencestore.AbsenceStore, approvals approvalstore.ApprovalStore) *InMemoryReadStore {
	return &InMemoryReadStore{entries: entries, absences: absences, approvals: approvals}
}

func (s *InMemoryReadStore) DailyTotals(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, from, to time.Time) ([]DayTotal, error) {
	rows, err := s.entries.ListForPeriod(ctx, tenantID, memberID, from, to)
	if err != nil {
		return nil, err
	}

	byDay := make(map[time.Time]float64)
	for _, row := range rows {
		byDay[row.WorkDate] += row.Hours
	}
	return sortedTotals(byDay), nil
}

func (s *InMemoryReadStore) AbsenceTotals(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, from, to time.Time) ([]DayTotal, error) {
	absences, err := s.absences.ListOverlapping(ctx, tenantID, memberID, from, to)
	if err != nil {
		return nil, err
	}

	from = id.DateOf(from)
	to = id.DateOf(to)
	byDay := make(map[time.Time]float64)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		for _, a := range absences {
			if a.CoversDay(d) {
				byDay[d] += a.HoursPerDay
			}
		}
	}
	return sortedTotals(byDay), nil
}

func (s *InMemoryReadStore) DayStatuses(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, from, to time.Time) ([]DayStatus, error) {
	rows, err := s.entries.ListForPeriod(ctx, tenantID, memberID, from, to)
	if err != nil {
		return nil, err
	}

	byDay := make(map[time.Time]string)
	for _, row := range rows {
		status := string(row.Status)
		if existing, ok := byDay[row.WorkDate]; ok && existing != status {
			status = StatusMixed
		}
		byDay[row.WorkDate] = status
	}
	return denseStatuses(from, to, byDay), nil
}

func (s *InMemoryReadStore) DailyEntries(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, day time.Time) ([]EntryDetail, error) {
	rows, err := s.entries.ListForDay(ctx, tenantID, memberID, day)
	if err != nil {
		return nil, err
	}

	details := make([]EntryDetail, 0, len(rows))
	for _, row := range rows {
		details = append(details, entryDetail(row))
	}
	return details, nil
}

func (s *InMemoryReadStore) MonthlySummary(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, period id.FiscalMonth) (MonthlySummary, error) {
	rows, err := s.entries.ListForPeriod(ctx, tenantID, memberID, period.Start, period.End)
	if err != nil {
		return MonthlySummary{}, err
	}

	byProject := make(map[id.ProjectID]float64)
	for _, row := range rows {
		byProject[row.ProjectID] += row.Hours
	}
	return buildSummary(period, byProject), nil
}

func (s *InMemoryReadStore) PendingApprovals(ctx context.Context, tenantID id.TenantID) ([]PendingApproval, error) {
	pending, err := s.approvals.ListPending(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	queue := make([]PendingApproval, 0, len(pending))
	for _, row := range pending {
		entryRows, err := s.entries.ListForPeriod(ctx, tenantID, row.MemberID, row.PeriodStart, row.PeriodEnd)
		if err != nil {
			return nil, err
		}
		var total float64
		for _, er := range entryRows {
			total += er.Hours
		}
		queue = append(queue, pendingApproval(row, total))
	}
	return queue, nil
}

func entryDetail(row worklogstore.Row) EntryDetail {
	return EntryDetail{
		EntryID:         row.EntryID,
		ProjectID:       row.ProjectID,
		Date:            row.WorkDate,
		Hours:           row.Hours,
		Comment:         row.Comment,
		Status:          string(row.Status),
		RejectionSource: row.RejectionSource,
		RejectionReason: row.RejectionReason,
	}
}

func pendingApproval(row approvalstore.Row, totalHours float64) PendingApproval {
	return PendingApproval{
		ApprovalID:  row.ApprovalID,
		MemberID:    row.MemberID,
		PeriodStart: row.PeriodStart,
		PeriodEnd:   row.PeriodEnd,
		SubmittedAt: row.SubmittedAt,
		EntryCount:  row.EntryCount,
		TotalHours:  totalHours,
	}
}

func sortedTotals(byDay map[time.Time]float64) []DayTotal {
	totals := make([]DayTotal, 0, len(byDay))
	for day, hours := range byDay {
		totals = append(totals, DayTotal{Date: day, Hours: hours})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Date.Before(totals[j].Date) })
	return totals
}
