package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the absence module.
type Metrics struct {
	// Command outcomes by command name and result
	CommandsTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all absence module metrics registered.
func New() *Metrics {
	return &Metrics{
		CommandsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tempus_absence_commands_total",
			Help: "Total absence commands by command and result",
		}, []string{"command", "result"}), // result: "ok", "rejected", "error"
	}
}

// IncrementCommand records one command outcome.
func (m *Metrics) IncrementCommand(command, result string) {
	if m != nil {
		m.CommandsTotal.WithLabelValues(command, result).Inc()
	}
}
