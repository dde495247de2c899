package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	approvalmodels "tempus/internal/approval/models"
	"tempus/internal/audit"
	"tempus/internal/platform/telemetry"
	"tempus/internal/worklog/models"
	id "tempus/pkg/domain"
	dErrors "tempus/pkg/domain-errors"
	"tempus/pkg/platform/sentinel"
	"tempus/pkg/requestcontext"
)

// SubmitDay moves every DRAFT entry the member has on the given date to
// SUBMITTED, all-or-nothing: a version conflict on any entry rolls the whole
// day back. Only the member may submit their own day.
func (s *Service) SubmitDay(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, date time.Time, actorID id.MemberID) (submitted []*models.Entry, err error) {
	ctx, end := telemetry.StartSpan(ctx, "worklog.SubmitDay")
	defer func() { end(err) }()

	if actorID != memberID {
		err = dErrors.New(dErrors.CodeForbidden, "only the member may submit their own entries")
		s.countCommand("submit_day", err)
		return nil, err
	}
	day := id.DateOf(date)

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		entries, txErr := s.selectDay(txCtx, tenantID, memberID, day, models.StatusDraft)
		if txErr != nil {
			return txErr
		}
		if len(entries) == 0 {
			return dErrors.New(dErrors.CodeNotFound,
				fmt.Sprintf("no draft entries for %s", id.FormatDate(day)))
		}

		now := requestcontext.Now(txCtx)
		for _, e := range entries {
			if txErr = e.Submit(actorID, now); txErr != nil {
				return txErr
			}
		}
		if txErr = s.saveEntries(txCtx, entries...); txErr != nil {
			return txErr
		}
		submitted = entries
		return s.emitter.emitDay(txCtx, audit.ActionDaySubmitted, tenantID, memberID, day, len(entries))
	})
	if err != nil {
		s.countCommand("submit_day", err)
		return nil, err
	}

	s.invalidateMember(ctx, tenantID, memberID)
	s.metrics.ObserveBatchSize("submit_day", len(submitted))
	s.countCommand("submit_day", nil)
	return submitted, nil
}

// RecallDay returns every SUBMITTED entry the member has on the given date
// to DRAFT, all-or-nothing. A monthly approval covering the date blocks the
// recall once it has reached SUBMITTED, APPROVED, or REJECTED: the approval
// record must keep describing the entries it was built from. Only the member
// may recall their own day.
func (s *Service) RecallDay(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, date time.Time, actorID id.MemberID) (recalled []*models.Entry, err error) {
	ctx, end := telemetry.StartSpan(ctx, "worklog.RecallDay")
	defer func() { end(err) }()

	if actorID != memberID {
		err = dErrors.New(dErrors.CodeForbidden, "only the member may recall their own entries")
		s.countCommand("recall_day", err)
		return nil, err
	}
	day := id.DateOf(date)

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		entries, txErr := s.selectDay(txCtx, tenantID, memberID, day, models.StatusSubmitted)
		if txErr != nil {
			return txErr
		}
		if len(entries) == 0 {
			return dErrors.New(dErrors.CodeNotFound,
				fmt.Sprintf("no submitted entries for %s", id.FormatDate(day)))
		}

		if txErr = s.checkRecallGate(txCtx, tenantID, memberID, day); txErr != nil {
			return txErr
		}

		now := requestcontext.Now(txCtx)
		for _, e := range entries {
			if txErr = e.Recall(actorID, now); txErr != nil {
				return txErr
			}
		}
		if txErr = s.saveEntries(txCtx, entries...); txErr != nil {
			return txErr
		}
		recalled = entries
		return s.emitter.emitDay(txCtx, audit.ActionDayRecalled, tenantID, memberID, day, len(entries))
	})
	if err != nil {
		s.countCommand("recall_day", err)
		return nil, err
	}

	s.invalidateMember(ctx, tenantID, memberID)
	s.metrics.ObserveBatchSize("recall_day", len(recalled))
	s.countCommand("recall_day", nil)
	return recalled, nil
}

// selectDay lists the member's rows for the date, keeps those in the wanted
// status, and loads each backing aggregate. Loading inside the transaction
// pins the expected versions the batch save will verify.
func (s *Service) selectDay(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, day time.Time, want models.Status) ([]*models.Entry, error) {
	rows, err := s.rows.ListForDay(ctx, tenantID, memberID, day)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list entries for day")
	}

	entries := make([]*models.Entry, 0, len(rows))
	for _, row := range rows {
		if row.Status != want {
			continue
		}
		e, err := s.loadLive(ctx, tenantID, row.EntryID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// checkRecallGate blocks day-level recall while a monthly approval covers
// the date. PENDING never survives a transaction, so any found approval in
// SUBMITTED, APPROVED, or REJECTED closes the gate; a day submitted only
// through the daily command has no approval and recalls freely.
func (s *Service) checkRecallGate(ctx context.Context, tenantID id.TenantID, memberID id.MemberID, day time.Time) error {
	row, err := s.approvals.FindCovering(ctx, tenantID, memberID, day)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check monthly approval")
	}
	if row.Status != approvalmodels.StatusPending {
		return dErrors.New(dErrors.CodeConflict,
			fmt.Sprintf("recall blocked: a monthly approval in status %s covers %s", row.Status, id.FormatDate(day)))
	}
	return nil
}
