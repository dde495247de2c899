package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for request throttling.
type Metrics struct {
	// Admission decisions by outcome
	RequestsTotal *prometheus.CounterVec

	// Clients currently holding a token bucket
	TrackedClients prometheus.Gauge
}

// New creates a new Metrics instance with all rate limit metrics registered.
func New() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tempus_ratelimit_requests_total",
			Help: "Total admission decisions by outcome",
		}, []string{"outcome"}), // outcome: "allowed", "throttled"

		TrackedClients: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "tempus_ratelimit_tracked_clients",
			Help: "Current number of clients with an active token bucket",
		}),
	}
}

// IncrementRequest records one admission decision.
func (m *Metrics) IncrementRequest(outcome string) {
	if m != nil {
		m.RequestsTotal.WithLabelValues(outcome).Inc()
	}
}

// SetTrackedClients records the current bucket count.
func (m *Metrics) SetTrackedClients(count int) {
	if m != nil {
		m.TrackedClients.Set(float64(count))
	}
}
