package audit

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tempus/internal/platform/telemetry"
	id "tempus/pkg/domain"
	"tempus/pkg/requestcontext"
)

// Decorate wraps a handler so every request emits an audit event once the
// response is written. Admin routes use this instead of burying audit
// writes inside their services; the action names the route's intent and
// the outcome is derived from the response status.
func Decorate(pub *Publisher, action Action, entityType string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			ctx := r.Context()
			traceID, spanID := telemetry.TraceIDs(ctx)
			ev := Event{
				TenantID:   requestcontext.TenantID(ctx),
				ActorID:    actorLabel(ctx),
				Action:     string(action),
				EntityType: entityType,
				EntityID:   chi.URLParam(r, "id"),
				Outcome:    outcomeFromStatus(rw.statusCode),
				TraceID:    traceID,
				SpanID:     spanID,
			}
			// Auditing must not change the response already sent.
			_ = pub.Emit(ctx, ev)
		})
	}
}

// responseWriter captures the status code written by the handler.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func outcomeFromStatus(status int) Outcome {
	switch {
	case status < 400:
		return OutcomeSuccess
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return OutcomeDenied
	default:
		return OutcomeError
	}
}

func actorLabel(ctx context.Context) string {
	if actor := requestcontext.ActorID(ctx); actor != (id.MemberID{}) {
		return actor.String()
	}
	return "anonymous"
}
