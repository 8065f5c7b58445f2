package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/chameleon/internal/ports"
)

func TestCollectorCounts(t *testing.T) {
	t.Parallel()

	c := New()
	ctx := context.Background()

	c.IncCounter(ctx, ports.MetricThemeRequests, map[string]string{"status": "applied"})
	c.IncCounter(ctx, ports.MetricThemeRequests, map[string]string{"status": "applied"})
	c.IncCounter(ctx, ports.MetricThemeRequests, map[string]string{"status": "superseded"})
	c.IncCounter(ctx, ports.MetricRewriteStreams, map[string]string{"tone": "technical", "status": "completed"})
	c.IncCounter(ctx, "unknown_metric", nil)
	c.SetGauge(ctx, ports.MetricWatchers, 3, nil)
	c.ObserveHistogram(ctx, ports.MetricThemeRequestDuration, 1.5, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.themeRequests.WithLabelValues("applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.themeRequests.WithLabelValues("superseded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.rewriteStreams.WithLabelValues("technical", "completed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.watchers))
	assert.Equal(t, 1, testutil.CollectAndCount(c.themeDuration))
}

func TestHandlerExposesMetrics(t *testing.T) {
	t.Parallel()

	c := New()
	c.ObserveHTTP("POST", "/api/vibe", "200", 0.2)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `chameleon_http_requests_total{endpoint="/api/vibe",method="POST",status="200"} 1`)
}
