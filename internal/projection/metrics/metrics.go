package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the projection read side.
type Metrics struct {
	// Cache lookups by projection family and outcome
	CacheRequestsTotal *prometheus.CounterVec

	// Query latency against the backing read store, by family
	QueryDuration *prometheus.HistogramVec
}

// New creates a new Metrics instance with all projection metrics registered.
func New() *Metrics {
	return &Metrics{
		CacheRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tempus_projection_cache_requests_total",
			Help: "Total projection cache lookups by family and outcome",
		}, []string{"family", "outcome"}), // outcome: "hit", "miss", "bypass"

		QueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tempus_projection_query_seconds",
			Help:    "Latency of read-store queries by projection family",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"family"}),
	}
}

// IncrementCacheRequest records one cache lookup outcome.
func (m *Metrics) IncrementCacheRequest(family, outcome string) {
	if m != nil {
		m.CacheRequestsTotal.WithLabelValues(family, outcome).Inc()
	}
}

// ObserveQuery records the latency of one read-store query.
func (m *Metrics) ObserveQuery(family string, seconds float64) {
	if m != nil {
		m.QueryDuration.WithLabelValues(family).Observe(seconds)
	}
}
