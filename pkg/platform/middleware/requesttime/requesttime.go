// Package requesttime freezes "now" at the start of each request. Every
// operation within one request observes the same clock reading, so all events
// committed by a batch command carry the same occurred-at time.
package requesttime

import (
	"net/http"
	"time"

	"tempus/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request and
// stores it in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
