// Package metrics exposes the reconfiguration core's own operational
// counters — command throughput, latency, and error taxonomy — not to
// be confused with the out-of-scope dataplane packet counters
// (spec.md §1). Grounded on gyaan-fluxflow's direct use of
// prometheus/client_golang for operational counters; see DESIGN.md's
// "Mutation Operations" entry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the Prometheus collectors every reconfig.Ops command
// result passes through on its way back to a caller.
type Metrics struct {
	Commands       *prometheus.CounterVec
	CommandLatency *prometheus.HistogramVec
}

// New registers a fresh set of collectors against reg. Pass
// prometheus.NewRegistry() in tests to avoid colliding with the
// default global registry across test runs.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reconfig",
			Name:      "commands_total",
			Help:      "Number of runtime reconfiguration commands processed, by command and result code.",
		}, []string{"command", "code"}),
		CommandLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "reconfig",
			Name:      "command_latency_seconds",
			Help:      "Latency of runtime reconfiguration commands, by command.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"command"}),
	}

	reg.MustRegister(m.Commands, m.CommandLatency)
	return m
}

// Observe records one command's outcome.
func (m *Metrics) Observe(command, code string, seconds float64) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(command, code).Inc()
	m.CommandLatency.WithLabelValues(command).Observe(seconds)
}
