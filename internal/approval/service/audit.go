package service

import (
	"context"
	"log/slog"

	"tempus/internal/approval/models"
	"tempus/internal/audit"
	"tempus/internal/platform/telemetry"
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

// emitMonth records a month-level command. Extra attributes land in the log
// line; a "reason" attribute is also copied onto the audit event.
func (a *auditEmitter) emitMonth(ctx context.Context, action audit.Action, approval *models.Approval, actorID id.MemberID, attributes ...any) error {
	attributes = append(attributes,
		"approval_id", approval.ID.String(),
		"member_id", approval.MemberID.String(),
		"period", approval.Period().String(),
		"status", string(approval.Status),
		"entry_count", approval.EntryCount,
	)
	return a.emit(ctx, action, approval.TenantID, actorID, audit.EntityApproval, approval.ID.String(), attributes)
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
