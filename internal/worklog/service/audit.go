package service

import (
	"context"
	"log/slog"
	"time"

	"tempus/internal/audit"
	"tempus/internal/platform/telemetry"
	"tempus/internal/worklog/models"
	"tempus/pkg/attrs"
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

// emitEntry records an entry-level command. Extra attributes land in the log
// line; a "reason" attribute is also copied onto the audit event.
func (a *auditEmitter) emitEntry(ctx context.Context, action audit.Action, e *models.Entry, actorID id.MemberID, attributes ...any) error {
	attributes = append(attributes,
		"entry_id", e.ID.String(),
		"member_id", e.MemberID.String(),
		"status", string(e.Status),
	)
	return a.emit(ctx, action, e.TenantID, actorID, audit.EntityEntry, e.ID.String(), attributes)
}

// emitDay records a day-level batch command. The entity id is the civil date.
func (a *auditEmitter) emitDay(ctx context.Context, action audit.Action, tenantID id.TenantID, memberID id.MemberID, day time.Time, count int, attributes ...any) error {
	attributes = append(attributes,
		"member_id", memberID.String(),
		"work_date", id.FormatDate(day),
		"entry_count", count,
	)
	return a.emit(ctx, action, tenantID, memberID, audit.EntityDay, id.FormatDate(day), attributes)
}

func (a *auditEmitter) emit(ctx context.Context, action audit.Action, tenantID id.TenantID, actorID id.MemberID, entityType, entityID string, attributes []any) error {
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
		TenantID:   tenantID,
		ActorID:    actorID.String(),
		Action:     string(action),
		EntityType: entityType,
		EntityID:   entityID,
		Outcome:    audit.OutcomeSuccess,
		Reason:     attrs.ExtractString(attributes, "reason"),
		TraceID:    traceID,
		SpanID:     spanID,
	})
}
