package ports

import "context"

// Metric names recorded by the core. Adapters map them onto a backend such as
// Prometheus.
const (
	// MetricThemeRequests counts theme change requests by status
	// (applied|failed|superseded|skipped).
	MetricThemeRequests = "chameleon_theme_requests_total"
	// MetricThemeRequestDuration observes generation latency in seconds.
	MetricThemeRequestDuration = "chameleon_theme_request_duration_seconds"
	// MetricThemeChanges counts active theme replacements by source.
	MetricThemeChanges = "chameleon_theme_changes_total"
	// MetricRewriteStreams counts rewrite streams by tone and status
	// (completed|failed|superseded|passthrough).
	MetricRewriteStreams = "chameleon_rewrite_streams_total"
	// MetricRewriteChunks counts rewrite chunks applied to display buffers.
	MetricRewriteChunks = "chameleon_rewrite_chunks_total"
	// MetricWatchers tracks connected theme watchers.
	MetricWatchers = "chameleon_theme_watchers"
)

// MetricsCollector records quantitative observability signals.
type MetricsCollector interface {
	IncCounter(ctx context.Context, name string, labels map[string]string)
	SetGauge(ctx context.Context, name string, value float64, labels map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, labels map[string]string)
}

// NoopMetrics discards every signal.
type NoopMetrics struct{}

// IncCounter does nothing.
func (NoopMetrics) IncCounter(context.Context, string, map[string]string) {}

// SetGauge does nothing.
func (NoopMetrics) SetGauge(context.Context, string, float64, map[string]string) {}

// ObserveHistogram does nothing.
func (NoopMetrics) ObserveHistogram(context.Context, string, float64, map[string]string) {}
