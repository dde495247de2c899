package main

import (
	"context"
	"net/http"
	"time"

	"tempus/pkg/platform/httputil"
)

const readinessTimeout = 2 * time.Second

// healthCheck pings one backing dependency. Checks are registered only for
// backends the process was configured with, so a memory-mode server is
// ready as soon as it listens.
type healthCheck struct {
	name string
	ping func(ctx context.Context) error
}

type healthProbe struct {
	checks []healthCheck
}

func (p *healthProbe) add(name string, ping func(ctx context.Context) error) {
	p.checks = append(p.checks, healthCheck{name: name, ping: ping})
}

// liveness answers as long as the process can serve HTTP at all.
func (p *healthProbe) liveness(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readiness pings every registered backend and reports per-dependency
// state. Any failure flips the probe to 503 so the load balancer drains
// the instance instead of feeding it doomed requests.
func (p *healthProbe) readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(p.checks))
	for _, c := range p.checks {
		if err := c.ping(ctx); err != nil {
			deps[c.name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[c.name] = "ok"
	}

	body := map[string]any{"status": "ok"}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	if len(deps) > 0 {
		body["dependencies"] = deps
	}
	httputil.WriteJSON(w, status, body)
}
