package service

import (
	"context"
	"log/slog"

	"tempus/internal/audit"
	"tempus/internal/platform/telemetry"
	"tempus/internal/tenant/models"
	id "tempus/pkg/domain"
	"tempus/pkg/requestcontext"
)

// auditEmitter pairs structured audit logging with the audit publisher so
// every admin command leaves both a log line and a durable trail record.
type auditEmitter struct {
	logger    *slog.Logger
	publisher AuditPublisher
}

func newAuditEmitter(logger *slog.Logger, publisher AuditPublisher) *auditEmitter {
	return &auditEmitter{logger: logger, publisher: publisher}
}

func (a *auditEmitter) emitTenant(ctx context.Context, action audit.Action, t *models.Tenant) error {
	return a.emit(ctx, action, t.ID, audit.EntityTenant, t.ID.String(),
		"tenant_name", t.Name,
		"status", string(t.Status),
	)
}

func (a *auditEmitter) emitMember(ctx context.Context, action audit.Action, m *models.Member) error {
	return a.emit(ctx, action, m.TenantID, audit.EntityMember, m.ID.String(),
		"member_id", m.ID.String(),
		"role", string(m.Role),
		"status", string(m.Status),
	)
}

func (a *auditEmitter) emit(ctx context.Context, action audit.Action, tenantID id.TenantID, entityType, entityID string, attributes ...any) error {
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
		ActorID:    adminActor(ctx),
		Action:     string(action),
		EntityType: entityType,
		EntityID:   entityID,
		Outcome:    audit.OutcomeSuccess,
		TraceID:    traceID,
		SpanID:     spanID,
	})
}

// adminActor resolves who ran the admin command. The admin surface is token
// authenticated, so most commands have no member identity behind them.
func adminActor(ctx context.Context) string {
	if actor := requestcontext.ActorID(ctx); actor != (id.MemberID{}) {
		return actor.String()
	}
	return "admin"
}
