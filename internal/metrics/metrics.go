// Package metrics exposes concept evaluation and algorithm instantiation as
// Prometheus metrics. A *Metrics is both a concepts.Recorder and a
// constraints.Recorder.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Evaluations by concept and outcome
	Evaluations *prometheus.CounterVec

	// Evaluation latency by concept, cache misses only
	EvaluateLatency *prometheus.HistogramVec

	// Cache hits by layer: "memory" or "store"
	CacheHits *prometheus.CounterVec

	// Verdict store failures by operation: "get" or "put"
	StoreErrors *prometheus.CounterVec

	// Algorithm instantiations by algorithm and outcome
	Instantiations *prometheus.CounterVec

	// HTTP and gRPC requests by transport, route and status
	Requests *prometheus.CounterVec
}

// New registers the metrics with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Evaluations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "concepts_evaluations_total",
			Help: "Concept evaluations by concept and outcome",
		}, []string{"concept", "satisfied"}),

		EvaluateLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "concepts_evaluate_duration_seconds",
			Help:    "Duration of uncached concept evaluations",
			Buckets: []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}, []string{"concept"}),

		CacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "concepts_cache_hits_total",
			Help: "Verdicts served from a cache layer",
		}, []string{"layer"}),

		StoreErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "concepts_store_errors_total",
			Help: "Failed verdict store operations",
		}, []string{"op"}),

		Instantiations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "concepts_instantiations_total",
			Help: "Algorithm instantiations by algorithm and outcome",
		}, []string{"algorithm", "ok"}),

		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "concepts_requests_total",
			Help: "Served requests by transport, route and status",
		}, []string{"transport", "route", "status"}),
	}
}

func (m *Metrics) Evaluated(concept string, satisfied bool, d time.Duration) {
	if m == nil {
		return
	}
	m.Evaluations.WithLabelValues(concept, strconv.FormatBool(satisfied)).Inc()
	m.EvaluateLatency.WithLabelValues(concept).Observe(d.Seconds())
}

func (m *Metrics) CacheHit(layer string) {
	if m != nil {
		m.CacheHits.WithLabelValues(layer).Inc()
	}
}

func (m *Metrics) StoreError(op string) {
	if m != nil {
		m.StoreErrors.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) Instantiated(algorithm string, ok bool) {
	if m != nil {
		m.Instantiations.WithLabelValues(algorithm, strconv.FormatBool(ok)).Inc()
	}
}

// Served counts one request.
func (m *Metrics) Served(transport, route, status string) {
	if m != nil {
		m.Requests.WithLabelValues(transport, route, status).Inc()
	}
}
