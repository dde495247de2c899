package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the worklog module.
type Metrics struct {
	// Command outcomes by command name and result
	CommandsTotal *prometheus.CounterVec

	// Entries touched per day-level batch command
	BatchSize *prometheus.HistogramVec

	// Optimistic concurrency conflicts surfaced to callers
	ConflictsTotal prometheus.Counter
}

// New creates a new Metrics instance with all worklog module metrics registered.
func New() *Metrics {
	return &Metrics{
		CommandsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tempus_worklog_commands_total",
			Help: "Total worklog commands by command and result",
		}, []string{"command", "result"}), // result: "ok", "rejected", "error"

		BatchSize: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tempus_worklog_batch_entries",
			Help:    "Entries touched per day-level batch command",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		}, []string{"command"}), // command: "submit_day", "recall_day"

		ConflictsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tempus_worklog_version_conflicts_total",
			Help: "Total optimistic concurrency conflicts returned to callers",
		}),
	}
}

// IncrementCommand records one command outcome.
func (m *Metrics) IncrementCommand(command, result string) {
	if m != nil {
		m.CommandsTotal.WithLabelValues(command, result).Inc()
	}
}

// ObserveBatchSize records how many entries a batch command touched.
func (m *Metrics) ObserveBatchSize(command string, n int) {
	if m != nil {
		m.BatchSize.WithLabelValues(command).Observe(float64(n))
	}
}

// IncrementConflict records an optimistic concurrency conflict.
func (m *Metrics) IncrementConflict() {
	if m != nil {
		m.ConflictsTotal.Inc()
	}
}
