// Package metrics exposes Prometheus collectors for the retrieval pipeline.
// All methods are safe to call on a nil *Metrics, so components can run
// without instrumentation in tests and the CLI.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lexground"

// Metrics holds all Prometheus collectors for lexground.
type Metrics struct {
	registry *prometheus.Registry

	RetrievalTotal     *prometheus.CounterVec
	RetrievalDuration  prometheus.Histogram
	CacheOperations    *prometheus.CounterVec
	ProviderErrors     *prometheus.CounterVec
	ProviderDuration   *prometheus.HistogramVec
	EmbeddingsTotal    *prometheus.CounterVec
	VectorFallbacks    prometheus.Counter
	ChunksIngested     prometheus.Counter
	HTTPRequestsTotal  *prometheus.CounterVec
	HTTPRequestLatency *prometheus.HistogramVec
}

// New creates a Metrics instance registered on its own registry, together
// with the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RetrievalTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retrieval_requests_total",
				Help:      "Total number of retrieval requests by outcome",
			},
			[]string{"outcome"},
		),

		// Buckets: 10ms .. 30s, provider calls dominate
		RetrievalDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "retrieval_duration_seconds",
				Help:      "Duration of uncached retrieval requests in seconds",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),

		CacheOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_cache_operations_total",
				Help:      "Query cache lookups by result",
			},
			[]string{"result"},
		),

		ProviderErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_errors_total",
				Help:      "Provider calls excluded from aggregation",
			},
			[]string{"provider"},
		),

		ProviderDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_duration_seconds",
				Help:      "Duration of store and provider calls in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"provider"},
		),

		EmbeddingsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "embeddings_total",
				Help:      "Embeddings served by origin (cache, upstream, degraded)",
			},
			[]string{"origin"},
		),

		VectorFallbacks: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "vector_fallbacks_total",
				Help:      "Similarity searches that fell back to lexical search",
			},
		),

		ChunksIngested: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chunks_ingested_total",
				Help:      "Chunks written by ingestion",
			},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route and status",
			},
			[]string{"route", "status"},
		),

		HTTPRequestLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler returns an HTTP handler serving the registry in text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordRetrieval records the outcome and duration of a retrieval request.
func (m *Metrics) RecordRetrieval(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RetrievalTotal.WithLabelValues(outcome).Inc()
	if outcome != "cached" {
		m.RetrievalDuration.Observe(duration.Seconds())
	}
}

// RecordCache records a query cache hit or miss.
func (m *Metrics) RecordCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheOperations.WithLabelValues("hit").Inc()
		return
	}
	m.CacheOperations.WithLabelValues("miss").Inc()
}

// RecordProvider records a store or provider call.
func (m *Metrics) RecordProvider(provider string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.ProviderDuration.WithLabelValues(provider).Observe(duration.Seconds())
	if err != nil {
		m.ProviderErrors.WithLabelValues(provider).Inc()
	}
}

// RecordEmbedding records where an embedding came from.
func (m *Metrics) RecordEmbedding(origin string) {
	if m == nil {
		return
	}
	m.EmbeddingsTotal.WithLabelValues(origin).Inc()
}

// RecordVectorFallback records a lexical fallback in a chunk store.
func (m *Metrics) RecordVectorFallback() {
	if m == nil {
		return
	}
	m.VectorFallbacks.Inc()
}

// RecordIngest records chunks written by ingestion.
func (m *Metrics) RecordIngest(chunks int) {
	if m == nil {
		return
	}
	m.ChunksIngested.Add(float64(chunks))
}

// RecordHTTP records a served HTTP request.
func (m *Metrics) RecordHTTP(route, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, status).Inc()
	m.HTTPRequestLatency.WithLabelValues(route).Observe(duration.Seconds())
}
