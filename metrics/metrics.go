// Package metrics defines the Prometheus collectors exported by the search
// service and the HTTP handler that serves them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	LookupKindTerm   = "term"
	LookupKindTerms  = "terms"
	LookupKindObject = "object"
	LookupKindTitle  = "title"

	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultError = "error"
)

// Metrics holds the collectors together with the registry they are
// registered on, so separate instances never collide.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	LookupsTotal        *prometheus.CounterVec
	LookupResultsCount  *prometheus.HistogramVec
	IndexLoadsTotal     *prometheus.CounterVec
	IndexEnvVersion     prometheus.Gauge
	IndexDocuments      prometheus.Gauge
	IndexTerms          prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"method", "path"},
		),
		LookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docsearch_lookups_total",
				Help: "Total lookups by kind (term, terms, object, title) and result (hit, miss, error).",
			},
			[]string{"kind", "result"},
		),
		LookupResultsCount: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docsearch_lookup_results_count",
				Help:    "Number of results returned per lookup.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
			},
			[]string{"kind"},
		),
		IndexLoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docsearch_index_loads_total",
				Help: "Total search index loads by outcome.",
			},
			[]string{"outcome"},
		),
		IndexEnvVersion: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "docsearch_index_env_version",
				Help: "Environment version stamped into the published search index.",
			},
		),
		IndexDocuments: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "docsearch_index_documents",
				Help: "Number of documents in the published search index.",
			},
		),
		IndexTerms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "docsearch_index_terms",
				Help: "Number of distinct terms in the published search index.",
			},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LookupsTotal,
		m.LookupResultsCount,
		m.IndexLoadsTotal,
		m.IndexEnvVersion,
		m.IndexDocuments,
		m.IndexTerms,
	)

	return m
}

// ObserveLookup records the outcome of one lookup of the given kind.
func (m *Metrics) ObserveLookup(kind string, results int, err error) {
	switch {
	case err != nil:
		m.LookupsTotal.WithLabelValues(kind, ResultError).Inc()
		return
	case results == 0:
		m.LookupsTotal.WithLabelValues(kind, ResultMiss).Inc()
	default:
		m.LookupsTotal.WithLabelValues(kind, ResultHit).Inc()
	}
	m.LookupResultsCount.WithLabelValues(kind).Observe(float64(results))
}

// Handler returns the Prometheus scrape HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
