// Package identity maps the gateway's pre-validated identity headers into the
// request context. Authentication happens upstream; by the time a request
// reaches this service, X-Tenant-ID and X-Member-ID carry verified UUIDs and
// this middleware only parses and propagates them.
package identity

import (
	"log/slog"
	"net/http"

	id "tempus/pkg/domain"
	dErrors "tempus/pkg/domain-errors"
	"tempus/pkg/platform/httputil"
	"tempus/pkg/requestcontext"
)

const (
	headerTenantID = "X-Tenant-ID"
	headerMemberID = "X-Member-ID"
)

// Require rejects requests without a parseable tenant and member identity and
// stores both on the context for handlers and services.
func Require(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			tenantID, err := id.ParseTenantID(r.Header.Get(headerTenantID))
			if err != nil {
				if logger != nil {
					logger.WarnContext(ctx, "request without tenant identity",
						"request_id", requestcontext.RequestID(ctx),
						"error", err)
				}
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "tenant identity required"))
				return
			}

			memberID, err := id.ParseMemberID(r.Header.Get(headerMemberID))
			if err != nil {
				if logger != nil {
					logger.WarnContext(ctx, "request without member identity",
						"request_id", requestcontext.RequestID(ctx),
						"tenant_id", tenantID.String(),
						"error", err)
				}
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "member identity required"))
				return
			}

			ctx = requestcontext.WithTenantID(ctx, tenantID)
			ctx = requestcontext.WithActorID(ctx, memberID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
