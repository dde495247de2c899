package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"

	ratelimitmetrics "tempus/internal/ratelimit/metrics"
	"tempus/pkg/platform/httputil"
	metadata "tempus/pkg/platform/middleware/metadata"
	"tempus/pkg/requestcontext"
)

// RateLimiter admits or rejects one request for a client key.
type RateLimiter interface {
	Allow(key string) Result
	Size() int
}

// Middleware throttles requests per client IP before they reach a handler.
type Middleware struct {
	limiter  RateLimiter
	logger   *slog.Logger
	metrics  *ratelimitmetrics.Metrics
	disabled bool
}

// MiddlewareOption configures a Middleware.
type MiddlewareOption func(*Middleware)

func WithLogger(logger *slog.Logger) MiddlewareOption {
	return func(m *Middleware) { m.logger = logger }
}

func WithMetrics(metrics *ratelimitmetrics.Metrics) MiddlewareOption {
	return func(m *Middleware) { m.metrics = metrics }
}

// WithDisabled disables rate limiting entirely (for testing/demo mode).
func WithDisabled(disabled bool) MiddlewareOption {
	return func(m *Middleware) { m.disabled = disabled }
}

func NewMiddleware(limiter RateLimiter, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{limiter: limiter}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type exceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}

// Limit is the chi middleware. Headers carry the budget on every response;
// exhausted clients get a 429 with Retry-After.
func (m *Middleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}

		ip := requestcontext.ClientIP(r.Context())
		if ip == "" {
			ip = metadata.ClientIPFromRequest(r)
		}

		result := m.limiter.Allow(ip)
		m.metrics.SetTrackedClients(m.limiter.Size())

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			m.metrics.IncrementRequest("throttled")
			if m.logger != nil {
				m.logger.WarnContext(r.Context(), "rate limit exceeded",
					"ip", ip,
					"retry_after", result.RetryAfter)
			}
			w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
			httputil.WriteJSON(w, http.StatusTooManyRequests, exceededResponse{
				Error:      "rate_limit_exceeded",
				Message:    "Too many requests from this IP address. Please try again later.",
				RetryAfter: result.RetryAfter,
			})
			return
		}

		m.metrics.IncrementRequest("allowed")
		next.ServeHTTP(w, r)
	})
}
