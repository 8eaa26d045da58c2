// Package metrics defines the Prometheus collectors for lookups and the
// HTTP surface, and exposes a scrape handler.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/heartmarshall/leocli/internal/service/lookup"
)

// Metrics holds all Prometheus collectors of the application. Each instance
// owns its registry so tests and multiple servers never collide.
type Metrics struct {
	registry *prometheus.Registry

	LookupsTotal        *prometheus.CounterVec
	CacheResultsTotal   *prometheus.CounterVec
	FetchDuration       *prometheus.HistogramVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		LookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leo_lookups_total",
				Help: "Total lookups by outcome (cached, fetched, no_matches, invalid, error).",
			},
			[]string{"outcome"},
		),
		CacheResultsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leo_cache_results_total",
				Help: "Total cache reads by result (hit, miss, error).",
			},
			[]string{"result"},
		),
		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leo_fetch_duration_seconds",
				Help:    "Latency of dictionary fetches in seconds.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"status"},
		),
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
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
	}

	m.registry.MustRegister(
		m.LookupsTotal,
		m.CacheResultsTotal,
		m.FetchDuration,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveLookup implements lookup.Observer.
func (m *Metrics) ObserveLookup(outcome lookup.Outcome) {
	m.LookupsTotal.WithLabelValues(string(outcome)).Inc()
}

// ObserveCache implements lookup.Observer.
func (m *Metrics) ObserveCache(result lookup.CacheResult) {
	m.CacheResultsTotal.WithLabelValues(string(result)).Inc()
}

// ObserveFetch implements lookup.Observer.
func (m *Metrics) ObserveFetch(d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.FetchDuration.WithLabelValues(status).Observe(d.Seconds())
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, path string, status int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusClass(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
