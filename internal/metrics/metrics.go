// Package metrics instruments a batch Driver run with Prometheus
// counters and histograms, grounded on the teacher's promauto-based
// instrumentation style (internal/pipeline/worker/metrics.go,
// internal/metrics/business.go). Unlike the teacher, this engine is a
// one-shot batch CLI rather than a long-lived server, so there is no HTTP
// /metrics endpoint here (out of scope) — metrics are instead dumped to a
// node_exporter-style textfile after the run completes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds this run's metric collectors, registered against a
// private prometheus.Registry rather than the global DefaultRegisterer so
// multiple runs (e.g. in tests) never collide on metric registration.
type Registry struct {
	reg *prometheus.Registry

	controllersProcessed *prometheus.CounterVec
	diagnosticsTotal     *prometheus.CounterVec
	emulationDuration    *prometheus.HistogramVec
	phasesEmitted        prometheus.Counter
}

// New builds a Registry with every collector registered.
func New() *Registry {
	reg := prometheus.NewRegistry()

	controllersProcessed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sigemu_controllers_processed_total",
			Help: "Total (controller, period) emulations attempted, by outcome.",
		},
		[]string{"period", "outcome"}, // outcome: ok, warning, fatal
	)
	diagnosticsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sigemu_diagnostics_total",
			Help: "Total diagnostics recorded, by severity and component.",
		},
		[]string{"severity", "component"},
	)
	emulationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sigemu_emulation_duration_seconds",
			Help:    "Wall-clock time to emulate one (controller, period).",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"period"},
	)
	phasesEmitted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sigemu_phase_timings_emitted_total",
			Help: "Total PhaseTiming records emitted across the run.",
		},
	)

	reg.MustRegister(controllersProcessed, diagnosticsTotal, emulationDuration, phasesEmitted)

	return &Registry{
		reg:                  reg,
		controllersProcessed: controllersProcessed,
		diagnosticsTotal:     diagnosticsTotal,
		emulationDuration:    emulationDuration,
		phasesEmitted:        phasesEmitted,
	}
}

// ObserveResult records one (controller, period) job's outcome: its
// emulation duration, its outcome class, and one diagnostics-total
// increment per recorded Diagnostic.
func (r *Registry) ObserveResult(period string, outcome string, duration time.Duration, diagnostics []Diagnostic, phaseCount int) {
	r.controllersProcessed.WithLabelValues(period, outcome).Inc()
	r.emulationDuration.WithLabelValues(period).Observe(duration.Seconds())
	r.phasesEmitted.Add(float64(phaseCount))
	for _, d := range diagnostics {
		r.diagnosticsTotal.WithLabelValues(d.Severity, d.Component).Inc()
	}
}

// Diagnostic is the subset of emuerr.Diagnostic metrics cares about,
// decoupled from that package so metrics has no import dependency on the
// core engine's error taxonomy.
type Diagnostic struct {
	Severity  string
	Component string
}

// Gatherer exposes the underlying prometheus.Gatherer for textfile dumps.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}
