package service

import (
	"context"
	"log/slog"

	"tempus/internal/absence/models"
	"tempus/internal/audit"
	"tempus/internal/platform/telemetry"
	id "tempus/pkg/domain"
	"tempus/pkg/requestcontext"
)

// auditEmitter pairs structured audit logging with the audit publisher so
// every command leaves both a log line and a durable trail record.
type auditEmitter struct {
	logger    *slog.Logger
	publisher AuditPublisher
}

func newAuditEmitter(logger *slog.Logger, publisher AuditPublisher) *auditEmitter {
	return &auditEmitter{logger: logger, publisher: publisher}
}

func (a *auditEmitter) emitAbsence(ctx context.Context, action audit.Action, ab *models.Absence, actorID id.MemberID) error {
	attributes := []any{
		"absence_id", ab.ID.String(),
		"member_id", ab.MemberID.String(),
		"kind", ab.Kind.String(),
		"start_date", id.FormatDate(ab.StartDate),
		"end_date", id.FormatDate(ab.EndDate),
	}

	if a.logger != nil {
		args := attributes
		if requestID := requestcontext.RequestID(ctx); requestID != "" {
			args = append(args, "request_id", requestID)
		}
		args = append(args, "event", string(action), "log_type", "audit")
		a.logger.InfoContext(ctx, string(action), args...)
	}
	if a.publisher == nil {
		return nil
	}

	traceID, spanID := telemetry.TraceIDs(ctx)
	return a.publisher.Emit(ctx, audit.Event{
		TenantID:   ab.TenantID,
		ActorID:    actorID.String(),
		Action:     string(action),
		EntityType: audit.EntityAbsence,
		EntityID:   ab.ID.String(),
		Outcome:    audit.OutcomeSuccess,
		TraceID:    traceID,
		SpanID:     spanID,
	})
}
