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

func TestObserveRequestCountsByRoute(t *testing.T) {
	m := New()

	m.ObserveRequest(http.MethodGet, "/projects/{id}", http.StatusOK, 20*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/projects/{id}", http.StatusOK, 30*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "", http.StatusNotFound, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/projects/{id}", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "unmatched", "404")))
}

func TestObserveUpstreamAndRateLimited(t *testing.T) {
	m := New()

	m.ObserveUpstream(http.MethodPost, "status_error", time.Second)
	m.RateLimited()
	m.RateLimited()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.upstreamCalls.WithLabelValues(http.MethodPost, "status_error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.rateLimited))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.ObserveUpstream(http.MethodGet, "ok", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `portfolio_upstream_calls_total{method="GET",outcome="ok"} 1`)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
		m.ObserveUpstream(http.MethodGet, "ok", time.Millisecond)
		m.RateLimited()
	})
	assert.Nil(t, m.Registry())
}
