package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the tenant module.
// Tracks tenant/member creation counts and the role-lookup critical path.
type Metrics struct {
	TenantsCreated    prometheus.Counter
	MembersCreated    prometheus.Counter
	IsManagerDuration prometheus.Histogram
}

// New creates a new Metrics instance with all tenant module metrics registered.
func New() *Metrics {
	return &Metrics{
		TenantsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tempus_tenants_created_total",
			Help: "Total number of tenants created",
		}),
		MembersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tempus_members_created_total",
			Help: "Total number of members created",
		}),
		IsManagerDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tempus_is_manager_duration_seconds",
			Help:    "Duration of IsManager lookups (authorization critical path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementTenantsCreated records a successful tenant creation.
func (m *Metrics) IncrementTenantsCreated() {
	if m != nil {
		m.TenantsCreated.Inc()
	}
}

// IncrementMembersCreated records a successful member creation.
func (m *Metrics) IncrementMembersCreated() {
	if m != nil {
		m.MembersCreated.Inc()
	}
}

// ObserveIsManager records the duration of an IsManager lookup.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveIsManager(start time.Time) {
	if m != nil {
		m.IsManagerDuration.Observe(time.Since(start).Seconds())
	}
}
