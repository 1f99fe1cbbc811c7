// Package metrics instruments the integration pipeline. The Prometheus
// implementation is used by long-running deployments; the in-memory one backs
// tests and the CLI, which has no scrape endpoint.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ─────────────────────────────────────────────────────────────────────────────
// Contract
// ─────────────────────────────────────────────────────────────────────────────

// PipelineMetrics records fit activity per engine mode ("multi_view",
// "single_view", "single_view_clust", ...).
type PipelineMetrics interface {
	// FitStarted marks the beginning of a model fit.
	FitStarted(mode string)
	// FitCompleted records a successful fit and its duration in seconds.
	FitCompleted(mode string, seconds float64)
	// FitFailed records a fit that returned an error.
	FitFailed(mode string)
	// PathwaysScored records how many pathways survived coverage filtering
	// for one scored block.
	PathwaysScored(block string, count int)
}

// ─────────────────────────────────────────────────────────────────────────────
// Prometheus implementation
// ─────────────────────────────────────────────────────────────────────────────

// PrometheusMetrics exports pipeline counters and histograms under the
// omicspath namespace.
type PrometheusMetrics struct {
	fitsStarted   *prometheus.CounterVec
	fitsCompleted *prometheus.CounterVec
	fitsFailed    *prometheus.CounterVec
	fitDuration   *prometheus.HistogramVec
	pathwayCount  *prometheus.GaugeVec
}

// NewPrometheusMetrics registers the pipeline collectors on reg.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	m := &PrometheusMetrics{
		fitsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "omicspath",
			Name:      "fits_started_total",
			Help:      "Model fits started, by engine mode.",
		}, []string{"mode"}),
		fitsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "omicspath",
			Name:      "fits_completed_total",
			Help:      "Model fits completed successfully, by engine mode.",
		}, []string{"mode"}),
		fitsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "omicspath",
			Name:      "fits_failed_total",
			Help:      "Model fits that returned an error, by engine mode.",
		}, []string{"mode"}),
		fitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "omicspath",
			Name:      "fit_duration_seconds",
			Help:      "Wall-clock duration of successful fits.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"mode"}),
		pathwayCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "omicspath",
			Name:      "pathways_scored",
			Help:      "Pathways surviving coverage filtering per scored block.",
		}, []string{"block"}),
	}
	for _, c := range []prometheus.Collector{
		m.fitsStarted, m.fitsCompleted, m.fitsFailed, m.fitDuration, m.pathwayCount,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *PrometheusMetrics) FitStarted(mode string) {
	m.fitsStarted.WithLabelValues(mode).Inc()
}

func (m *PrometheusMetrics) FitCompleted(mode string, seconds float64) {
	m.fitsCompleted.WithLabelValues(mode).Inc()
	m.fitDuration.WithLabelValues(mode).Observe(seconds)
}

func (m *PrometheusMetrics) FitFailed(mode string) {
	m.fitsFailed.WithLabelValues(mode).Inc()
}

func (m *PrometheusMetrics) PathwaysScored(block string, count int) {
	m.pathwayCount.WithLabelValues(block).Set(float64(count))
}

// ─────────────────────────────────────────────────────────────────────────────
// In-memory implementation
// ─────────────────────────────────────────────────────────────────────────────

// InMemoryMetrics accumulates counts behind a mutex for tests and one-shot
// CLI runs.
type InMemoryMetrics struct {
	mu sync.Mutex

	Started   map[string]int
	Completed map[string]int
	Failed    map[string]int
	Durations map[string][]float64
	Pathways  map[string]int
}

// NewInMemoryMetrics returns an empty recorder.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		Started:   make(map[string]int),
		Completed: make(map[string]int),
		Failed:    make(map[string]int),
		Durations: make(map[string][]float64),
		Pathways:  make(map[string]int),
	}
}

func (m *InMemoryMetrics) FitStarted(mode string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Started[mode]++
}

func (m *InMemoryMetrics) FitCompleted(mode string, seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Completed[mode]++
	m.Durations[mode] = append(m.Durations[mode], seconds)
}

func (m *InMemoryMetrics) FitFailed(mode string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Failed[mode]++
}

func (m *InMemoryMetrics) PathwaysScored(block string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Pathways[block] = count
}

// ─────────────────────────────────────────────────────────────────────────────
// No-op implementation
// ─────────────────────────────────────────────────────────────────────────────

type noopMetrics struct{}

// NewNoopMetrics returns a recorder that discards everything.
func NewNoopMetrics() PipelineMetrics { return noopMetrics{} }

func (noopMetrics) FitStarted(string)             {}
func (noopMetrics) FitCompleted(string, float64)  {}
func (noopMetrics) FitFailed(string)              {}
func (noopMetrics) PathwaysScored(string, int)    {}
