// Package metrics backs the core's metric names with Prometheus.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alexisbeaulieu97/chameleon/internal/ports"
)

// Collector registers Chameleon's metrics on its own registry.
type Collector struct {
	registry *prometheus.Registry

	themeRequests   *prometheus.CounterVec
	themeDuration   prometheus.Histogram
	themeChanges    *prometheus.CounterVec
	rewriteStreams  *prometheus.CounterVec
	rewriteChunks   prometheus.Counter
	watchers        prometheus.Gauge
	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates a Collector with a fresh registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		themeRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: ports.MetricThemeRequests,
				Help: "Theme change requests by outcome",
			},
			[]string{"status"},
		),
		themeDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    ports.MetricThemeRequestDuration,
				Help:    "Theme generation latency in seconds",
				Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 30},
			},
		),
		themeChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: ports.MetricThemeChanges,
				Help: "Active theme replacements by source",
			},
			[]string{"source"},
		),
		rewriteStreams: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: ports.MetricRewriteStreams,
				Help: "Rewrite streams by tone and outcome",
			},
			[]string{"tone", "status"},
		),
		rewriteChunks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: ports.MetricRewriteChunks,
				Help: "Rewrite chunks applied to display buffers",
			},
		),
		watchers: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: ports.MetricWatchers,
				Help: "Connected theme watchers",
			},
		),
		requestCount: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chameleon_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "chameleon_http_request_duration_seconds",
				Help: "HTTP request duration in seconds",
			},
			[]string{"method", "endpoint"},
		),
	}
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served HTTP request.
func (c *Collector) ObserveHTTP(method, endpoint, status string, seconds float64) {
	c.requestCount.WithLabelValues(method, endpoint, status).Inc()
	c.requestDuration.WithLabelValues(method, endpoint).Observe(seconds)
}

// IncCounter increments a known counter. Unknown names are ignored.
func (c *Collector) IncCounter(_ context.Context, name string, labels map[string]string) {
	switch name {
	case ports.MetricThemeRequests:
		c.themeRequests.WithLabelValues(labels["status"]).Inc()
	case ports.MetricThemeChanges:
		c.themeChanges.WithLabelValues(labels["source"]).Inc()
	case ports.MetricRewriteStreams:
		c.rewriteStreams.WithLabelValues(labels["tone"], labels["status"]).Inc()
	case ports.MetricRewriteChunks:
		c.rewriteChunks.Inc()
	}
}

// SetGauge sets a known gauge. Unknown names are ignored.
func (c *Collector) SetGauge(_ context.Context, name string, value float64, _ map[string]string) {
	if name == ports.MetricWatchers {
		c.watchers.Set(value)
	}
}

// ObserveHistogram records into a known histogram. Unknown names are ignored.
func (c *Collector) ObserveHistogram(_ context.Context, name string, value float64, _ map[string]string) {
	if name == ports.MetricThemeRequestDuration {
		c.themeDuration.Observe(value)
	}
}

var _ ports.MetricsCollector = (*Collector)(nil)
