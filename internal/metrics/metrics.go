// Package metrics holds the prometheus collectors of the monitoring engine.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	probes        *prometheus.CounterVec
	probeFailures *prometheus.CounterVec
	probeDuration prometheus.Histogram
	alerts        *prometheus.CounterVec
	storeErrors   *prometheus.CounterVec
	skipped       *prometheus.CounterVec
	rotations     *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkwatch_probes_total",
			Help: "Processed probe outcomes by derived state.",
		}, []string{"state"}),
		probeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkwatch_probe_failures_total",
			Help: "Probes that ended without a response, by failure kind.",
		}, []string{"kind"}),
		probeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "checkwatch_probe_duration_seconds",
			Help:    "Wall-clock time from request start to settled outcome.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2, 3, 4, 5, 6},
		}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkwatch_alerts_total",
			Help: "State-change alerts by delivery result.",
		}, []string{"result"}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkwatch_store_errors_total",
			Help: "Record store and audit log failures by operation.",
		}, []string{"op"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkwatch_checks_skipped_total",
			Help: "Checks skipped during a cycle, by reason.",
		}, []string{"reason"}),
		rotations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkwatch_rotations_total",
			Help: "Audit log rotations by result.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.probes, m.probeFailures, m.probeDuration, m.alerts,
			m.storeErrors, m.skipped, m.rotations)
	}
	return m
}

func (m *Metrics) ObserveProbe(state string, failureKind string, took time.Duration) {
	if m == nil {
		return
	}
	m.probes.WithLabelValues(state).Inc()
	if failureKind != "" {
		m.probeFailures.WithLabelValues(failureKind).Inc()
	}
	m.probeDuration.Observe(took.Seconds())
}

// Alert result is one of "sent", "failed".
func (m *Metrics) Alert(result string) {
	if m == nil {
		return
	}
	m.alerts.WithLabelValues(result).Inc()
}

func (m *Metrics) StoreError(op string) {
	if m == nil {
		return
	}
	m.storeErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) Skipped(reason string) {
	if m == nil {
		return
	}
	m.skipped.WithLabelValues(reason).Inc()
}

// Rotation result is one of "archived", "empty", "failed".
func (m *Metrics) Rotation(result string) {
	if m == nil {
		return
	}
	m.rotations.WithLabelValues(result).Inc()
}
