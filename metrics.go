package magmawheel

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records build step timings and failures.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry     *prometheus.Registry
	stepDuration *prometheus.HistogramVec
	stepFailures *prometheus.CounterVec
	backend      *prometheus.GaugeVec
}

// NewMetrics creates the build metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "magma_build_step_duration_seconds",
			Help:    "Wall time spent in each build step",
			Buckets: prometheus.ExponentialBuckets(0.1, 4, 8),
		}, []string{"step"}),
		stepFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "magma_build_step_failures_total",
			Help: "Number of failed build steps",
		}, []string{"step"}),
		backend: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "magma_build_backend",
			Help: "Backend selected for the build (1 for the selected backend)",
		}, []string{"backend"}),
	}
	m.registry.MustRegister(m.stepDuration, m.stepFailures, m.backend)
	return m
}

// Registry exposes the underlying registry, e.g. for a push gateway.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the metrics in text exposition format, for the
// node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) observeStep(r StepResult) {
	if m == nil {
		return
	}
	m.stepDuration.WithLabelValues(r.Name).Observe(r.Duration.Seconds())
	if !r.Success() {
		m.stepFailures.WithLabelValues(r.Name).Inc()
	}
}

func (m *Metrics) setBackend(b Backend) {
	if m == nil {
		return
	}
	for _, candidate := range []Backend{BackendNone, BackendCUDA, BackendROCm} {
		value := 0.0
		if candidate == b {
			value = 1
		}
		m.backend.WithLabelValues(candidate.String()).Set(value)
	}
}
