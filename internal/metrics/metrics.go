// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all metrics for the server.
type Registry struct {
	// HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// gRPC
	GRPCRequestsTotal *prometheus.CounterVec

	// Catalogue
	CatalogArticles  *prometheus.GaugeVec
	CatalogReloads   *prometheus.CounterVec
	ArticlesImported *prometheus.CounterVec

	// Queries
	GraphQueriesTotal *prometheus.CounterVec
	GraphNodes        *prometheus.HistogramVec
	SummariesTotal    *prometheus.CounterVec

	// Background work
	EventsPublishFailed *prometheus.CounterVec
	ExplorerSessions    *prometheus.GaugeVec
	SyncRunsTotal       *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewRegistry creates a registry with every collector registered, plus the
// Go runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	r := &Registry{registry: reg}
	r.initHTTPMetrics()
	r.initDomainMetrics()
	return r
}

// Prometheus returns the underlying Prometheus registry.
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Registry) initHTTPMetrics() {
	f := promauto.With(r.registry)
	r.HTTPRequestsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "litgraph_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	r.HTTPRequestDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "litgraph_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	r.HTTPRequestsInFlight = f.NewGauge(prometheus.GaugeOpts{
		Name: "litgraph_http_requests_in_flight",
		Help: "Current number of HTTP requests being processed",
	})
	r.GRPCRequestsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "litgraph_grpc_requests_total",
			Help: "Total number of gRPC calls by method and status code",
		},
		[]string{"method", "code"},
	)
}

func (r *Registry) initDomainMetrics() {
	f := promauto.With(r.registry)
	r.CatalogArticles = f.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "litgraph_catalog_articles",
			Help: "Indexed articles by completeness tier",
		},
		[]string{"tier"},
	)
	r.CatalogReloads = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "litgraph_catalog_reloads_total",
			Help: "Catalogue reloads from the store",
		},
		[]string{"status"},
	)
	r.ArticlesImported = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "litgraph_articles_imported_total",
			Help: "Articles written through the import endpoint",
		},
		[]string{"result"},
	)
	r.GraphQueriesTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "litgraph_graph_queries_total",
			Help: "Knowledge-graph queries by mode",
		},
		[]string{"mode"},
	)
	r.GraphNodes = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "litgraph_graph_response_nodes",
			Help:    "Nodes returned per knowledge-graph query",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
		},
		[]string{"mode"},
	)
	r.SummariesTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "litgraph_summaries_total",
			Help: "Summary requests by outcome",
		},
		[]string{"outcome"},
	)
	r.EventsPublishFailed = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "litgraph_events_publish_failed_total",
			Help: "Events that could not be published",
		},
		[]string{"topic"},
	)
	r.ExplorerSessions = f.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "litgraph_explorer_sessions",
			Help: "Known explorer sessions by status",
		},
		[]string{"status"},
	)
	r.SyncRunsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "litgraph_sync_runs_total",
			Help: "Catalogue export runs by destination and status",
		},
		[]string{"destination", "status"},
	)
}
