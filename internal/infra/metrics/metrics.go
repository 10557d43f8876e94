// Package metrics owns the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nutrisense"

// Metrics holds the service collectors on a private registry, so every
// router instance (and every test) gets its own set.
type Metrics struct {
	registry *prometheus.Registry

	// HTTPRequestsTotal counts handled requests by method, route and status.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDurationSeconds is wall time per request by route.
	HTTPRequestDurationSeconds *prometheus.HistogramVec

	// UpstreamCallsTotal counts calls to the composition DB and models by outcome.
	UpstreamCallsTotal *prometheus.CounterVec

	// UpstreamDurationSeconds is wall time per upstream call, retries included.
	UpstreamDurationSeconds *prometheus.HistogramVec

	// ResolutionsTotal counts finished resolutions by pipeline and source.
	ResolutionsTotal *prometheus.CounterVec
}

// New builds and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests, labeled by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency, labeled by route.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"route"}),
		UpstreamCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "calls_total",
			Help:      "Total number of upstream calls, labeled by upstream and outcome.",
		}, []string{"upstream", "outcome"}),
		UpstreamDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "call_duration_seconds",
			Help:      "Upstream call latency including retries, labeled by upstream.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		}, []string{"upstream"}),
		ResolutionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "resolutions_total",
			Help:      "Total number of resolutions, labeled by pipeline and the source that produced the result.",
		}, []string{"pipeline", "source"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDurationSeconds,
		m.UpstreamCallsTotal,
		m.UpstreamDurationSeconds,
		m.ResolutionsTotal,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry (tests gather from it).
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDurationSeconds.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) ObserveUpstream(upstream, outcome string, d time.Duration) {
	m.UpstreamCallsTotal.WithLabelValues(upstream, outcome).Inc()
	m.UpstreamDurationSeconds.WithLabelValues(upstream).Observe(d.Seconds())
}

func (m *Metrics) ObserveResolution(pipeline, source string) {
	m.ResolutionsTotal.WithLabelValues(pipeline, source).Inc()
}
