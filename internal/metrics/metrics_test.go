package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopDoesNotPanic(t *testing.T) {
	m := Noop()
	m.IncCycles("ok")
	m.AddUnfollowers(3)
	m.IncSkippedTicks("detect")
	m.IncGatewayRequests("followers", 200)
	m.ObserveGatewayDuration("followers", time.Millisecond)
	m.IncCacheHits()
	m.IncCacheMisses()
	m.IncNotifications("desktop", "sent")
	m.SetGrowthSample("followers_daily", 10)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsCounters(t *testing.T) {
	m := New()

	m.IncCycles("ok")
	m.IncCycles("ok")
	m.IncCycles("error")
	m.AddUnfollowers(2)
	m.AddUnfollowers(0)
	m.IncGatewayRequests("followers", 200)
	m.IncGatewayRequests("followers", 404)
	m.IncGatewayRequests("followers", 0)
	m.SetGrowthSample("stars_monthly", 42)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cycles.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cycles.WithLabelValues("error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.unfollowers))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.gatewayRequests.WithLabelValues("followers", "4xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.gatewayRequests.WithLabelValues("followers", "error")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.growthSamples.WithLabelValues("stars_monthly")))
}

func TestMetricsHandler(t *testing.T) {
	m := New()
	m.IncCycles("ok")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "unfollow_watch_detection_cycles_total")
}

func TestHTTPStatusBucket(t *testing.T) {
	assert.Equal(t, "error", httpStatusBucket(0))
	assert.Equal(t, "2xx", httpStatusBucket(204))
	assert.Equal(t, "3xx", httpStatusBucket(304))
	assert.Equal(t, "5xx", httpStatusBucket(502))
}
