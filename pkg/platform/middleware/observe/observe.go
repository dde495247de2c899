// Package observe records one metrics sample per completed request, keyed
// by the chi route pattern rather than the raw path so member and entry IDs
// never explode the label space.
package observe

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// Observer receives one sample per finished request. The status label is a
// class ("2xx", "4xx") to keep cardinality flat.
type Observer interface {
	ObserveRequest(route, method, status string, d time.Duration)
}

// Middleware wraps handlers and reports to the Observer once the response
// is written.
func Middleware(obs Observer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			obs.ObserveRequest(route, r.Method, statusClass(rw.statusCode), time.Since(start))
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "unknown"
	}
	return strconv.Itoa(code/100) + "xx"
}
