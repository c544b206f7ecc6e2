// Package metrics provides Prometheus metrics for wikiserve
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for wikiserve
type Metrics struct {
	// HTTP request metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Dispatch outcomes: page, pinned, file, not_found, asset
	DispatchTotal *prometheus.CounterVec

	// Store metrics
	StoreOperationsTotal   *prometheus.CounterVec
	StoreOperationDuration *prometheus.HistogramVec
	StoreSizeBytes         prometheus.Gauge
	StorePagesTotal        prometheus.Gauge
	StoreCommitsTotal      prometheus.Gauge

	// Wiki operation metrics
	SearchQueriesTotal prometheus.Counter
	SearchResultsTotal prometheus.Counter
	EditsTotal         *prometheus.CounterVec
	UnsupportedClients prometheus.Counter

	// Server metrics
	ServerUptimeSeconds prometheus.Gauge
	ServerStartTime     time.Time
}

// NewMetrics creates all metrics and registers them with reg. A nil reg
// uses the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{
		ServerStartTime: time.Now(),
	}

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wikiserve_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "status"},
	)

	m.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wikiserve_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	m.HTTPRequestsInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "wikiserve_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	m.DispatchTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wikiserve_dispatch_total",
			Help: "Catch-all route outcomes by resolved kind",
		},
		[]string{"outcome"},
	)

	m.StoreOperationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wikiserve_store_operations_total",
			Help: "Total number of content store operations",
		},
		[]string{"operation", "status"},
	)

	m.StoreOperationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wikiserve_store_operation_duration_seconds",
			Help:    "Duration of content store operations in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	m.StoreSizeBytes = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "wikiserve_store_size_bytes",
			Help: "Current database size in bytes",
		},
	)

	m.StorePagesTotal = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "wikiserve_store_pages_total",
			Help: "Number of pages at the head commit",
		},
	)

	m.StoreCommitsTotal = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "wikiserve_store_commits_total",
			Help: "Number of commits in the store",
		},
	)

	m.SearchQueriesTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "wikiserve_search_queries_total",
			Help: "Total number of search queries",
		},
	)

	m.SearchResultsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "wikiserve_search_results_total",
			Help: "Total number of search results returned",
		},
	)

	m.EditsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wikiserve_edits_total",
			Help: "Page edits by outcome (committed, skipped, failed)",
		},
		[]string{"outcome"},
	)

	m.UnsupportedClients = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "wikiserve_unsupported_clients_total",
			Help: "Requests turned away by the browser compatibility check",
		},
	)

	m.ServerUptimeSeconds = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "wikiserve_server_uptime_seconds",
			Help: "Server uptime in seconds",
		},
	)

	return m
}

// RunUptime updates the uptime gauge every interval until done is closed.
func (m *Metrics) RunUptime(interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.ServerUptimeSeconds.Set(time.Since(m.ServerStartTime).Seconds())
		case <-done:
			return
		}
	}
}

// RecordHTTPRequest records a completed HTTP request
func (m *Metrics) RecordHTTPRequest(route string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordDispatch records how the catch-all route resolved a request
func (m *Metrics) RecordDispatch(outcome string) {
	m.DispatchTotal.WithLabelValues(outcome).Inc()
}

// RecordStoreOperation records a content store operation
func (m *Metrics) RecordStoreOperation(operation string, err error, duration time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.StoreOperationsTotal.WithLabelValues(operation, status).Inc()
	m.StoreOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordSearch records a search and the number of hits it returned
func (m *Metrics) RecordSearch(results int) {
	m.SearchQueriesTotal.Inc()
	m.SearchResultsTotal.Add(float64(results))
}

// RecordEdit records an edit outcome
func (m *Metrics) RecordEdit(outcome string) {
	m.EditsTotal.WithLabelValues(outcome).Inc()
}

// UpdateStoreStats updates store statistics
func (m *Metrics) UpdateStoreStats(sizeBytes int64, pages, commits int) {
	m.StoreSizeBytes.Set(float64(sizeBytes))
	m.StorePagesTotal.Set(float64(pages))
	m.StoreCommitsTotal.Set(float64(commits))
}
