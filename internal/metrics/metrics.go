// Package metrics exposes Prometheus counters and histograms for ingestion,
// retrieval, and collaborator calls.
//
// A nil *Metrics is valid and records nothing, so components can be built
// without a registry in tests and one-shot CLI commands.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "docvault"

// Metrics holds every collector the service records.
type Metrics struct {
	registry *prometheus.Registry

	documentsIngested prometheus.Counter
	chunksIngested    prometheus.Counter
	chunksDeleted     prometheus.Counter
	resets            prometheus.Counter
	questions         *prometheus.CounterVec
	collaboratorCalls *prometheus.HistogramVec
	httpRequests      *prometheus.HistogramVec
}

// Option configures Metrics.
type Option func(*options)

type options struct {
	buckets []float64
}

// WithDurationBuckets sets the buckets for every duration histogram.
func WithDurationBuckets(buckets []float64) Option {
	return func(o *options) { o.buckets = buckets }
}

// New creates a registry with Go runtime collectors and the service metrics.
func New(opts ...Option) *Metrics {
	o := options{buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}}
	for _, opt := range opts {
		opt(&o)
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		documentsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_ingested_total",
			Help:      "Documents successfully ingested.",
		}),
		chunksIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_ingested_total",
			Help:      "Chunks inserted into the vector index.",
		}),
		chunksDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_deleted_total",
			Help:      "Chunks removed by source deletion.",
		}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collection_resets_total",
			Help:      "Whole-collection resets.",
		}),
		questions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_total",
			Help:      "Questions answered, by outcome.",
		}, []string{"outcome"}),
		collaboratorCalls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "collaborator_call_duration_seconds",
			Help:      "Latency of embedder and language model calls.",
			Buckets:   o.buckets,
		}, []string{"collaborator", "outcome"}),
		httpRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   o.buckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.documentsIngested,
		m.chunksIngested,
		m.chunksDeleted,
		m.resets,
		m.questions,
		m.collaboratorCalls,
		m.httpRequests,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// DocumentIngested records one ingested document of n chunks.
func (m *Metrics) DocumentIngested(chunks int) {
	if m == nil {
		return
	}
	m.documentsIngested.Inc()
	m.chunksIngested.Add(float64(chunks))
}

// ChunksDeleted records n removed chunks.
func (m *Metrics) ChunksDeleted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.chunksDeleted.Add(float64(n))
}

// CollectionReset records a whole-collection reset.
func (m *Metrics) CollectionReset() {
	if m == nil {
		return
	}
	m.resets.Inc()
}

// QuestionAnswered records the outcome of a question.
func (m *Metrics) QuestionAnswered(err error) {
	if m == nil {
		return
	}
	m.questions.WithLabelValues(outcome(err)).Inc()
}

// ObserveCollaborator records the latency of an embedder or LLM call.
func (m *Metrics) ObserveCollaborator(name string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.collaboratorCalls.WithLabelValues(name, outcome(err)).Observe(time.Since(start).Seconds())
}

// ObserveHTTP records the latency of one HTTP request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, http.StatusText(status)).Observe(d.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
