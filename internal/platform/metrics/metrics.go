// Package metrics provides Prometheus metrics for the bus arrival service.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every collector the service exports. A nil *Metrics is valid
// and records nothing, which keeps tests and the CLI free of registry setup.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	UpstreamRequestsTotal   *prometheus.CounterVec
	UpstreamRequestDuration *prometheus.HistogramVec

	CacheLookupsTotal *prometheus.CounterVec
	OmittedTotal      *prometheus.CounterVec
	QueryDuration     prometheus.Histogram
}

// New creates and registers all application metrics with a new registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bus_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bus_http_request_duration_seconds",
				Help:    "HTTP request latency distribution",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		UpstreamRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bus_upstream_requests_total",
				Help: "Upstream provider calls by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		UpstreamRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bus_upstream_request_duration_seconds",
				Help:    "Upstream provider latency including retries",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"endpoint"},
		),
		CacheLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bus_cache_lookups_total",
				Help: "Cache lookups by cache name and result",
			},
			[]string{"cache", "result"},
		),
		OmittedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bus_omitted_total",
				Help: "Lines or buses dropped from a response because processing failed",
			},
			[]string{"stage"},
		),
		QueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bus_realtime_query_duration_seconds",
			Help:    "End-to-end realtime aggregation latency",
			Buckets: prometheus.DefBuckets,
		}),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.UpstreamRequestsTotal,
		m.UpstreamRequestDuration,
		m.CacheLookupsTotal,
		m.OmittedTotal,
		m.QueryDuration,
	)

	return m
}

func (m *Metrics) CacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookupsTotal.WithLabelValues(cache, result).Inc()
}

func (m *Metrics) Upstream(endpoint, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.UpstreamRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	m.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(seconds)
}

func (m *Metrics) Omitted(stage string) {
	if m == nil {
		return
	}
	m.OmittedTotal.WithLabelValues(stage).Inc()
}

func (m *Metrics) ObserveQuery(seconds float64) {
	if m == nil {
		return
	}
	m.QueryDuration.Observe(seconds)
}

func (m *Metrics) ObserveHTTP(method, path string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(seconds)
}
