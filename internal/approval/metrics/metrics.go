package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the monthly approval module.
type Metrics struct {
	// Month-level command outcomes by command and result (ok/rejected/error)
	CommandsTotal *prometheus.CounterVec

	// Entries swept per month-level command
	CascadeSize *prometheus.HistogramVec

	// Optimistic concurrency conflicts on month-level commits
	ConflictsTotal prometheus.Counter
}

// New creates a new Metrics instance with all approval module metrics registered.
func New() *Metrics {
	return &Metrics{
		CommandsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tempus_approval_commands_total",
			Help: "Total month-level commands by command and result",
		}, []string{"command", "result"}),

		CascadeSize: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tempus_approval_cascade_entries",
			Help:    "Entries swept per month-level command",
			Buckets: []float64{1, 5, 10, 20, 31, 50, 100},
		}, []string{"command"}),

		ConflictsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tempus_approval_version_conflicts_total",
			Help: "Total optimistic concurrency conflicts on month-level commits",
		}),
	}
}

// IncrementCommand records one month-level command outcome.
func (m *Metrics) IncrementCommand(command, result string) {
	if m != nil {
		m.CommandsTotal.WithLabelValues(command, result).Inc()
	}
}

// ObserveCascadeSize records how many entries a month-level command touched.
func (m *Metrics) ObserveCascadeSize(command string, n int) {
	if m != nil {
		m.CascadeSize.WithLabelValues(command).Observe(float64(n))
	}
}

// IncrementConflict records an optimistic concurrency conflict.
func (m *Metrics) IncrementConflict() {
	if m != nil {
		m.ConflictsTotal.Inc()
	}
}
