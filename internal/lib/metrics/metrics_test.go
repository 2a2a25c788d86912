package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	m := New()

	m.ObserveRequest(http.MethodPost, "/api/v1/orders", 201, 30*time.Millisecond)
	m.ObserveRequest(http.MethodPost, "/api/v1/orders", 201, 10*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "", 404, time.Millisecond)
	m.RecordOrder("review", "frequent")
	m.RecordClockIn("outside_geofence")
	m.RecordRateLimitHit("/api/v1/auth/login")
	m.RecordJob("report:daily", nil)
	m.RecordJob("report:daily", errors.New("telegram down"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "/api/v1/orders", "201")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Orders.WithLabelValues("review", "frequent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ClockIns.WithLabelValues("outside_geofence")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimitHits.WithLabelValues("/api/v1/auth/login")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobsProcessed.WithLabelValues("report:daily", "failure")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("GET", "/", 200, time.Second)
		m.RecordOrder("held", "none")
		m.RecordClockIn("ok")
		m.RecordRateLimitHit("/")
		m.RecordJob("x", nil)
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.RecordOrder("approved", "none")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `storeops_orders_total{anomaly="none",status="approved"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
