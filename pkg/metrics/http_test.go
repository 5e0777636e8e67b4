package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestHTTPMetricsLabelsRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("/api/v1/orders/{orderId}", "GET", 200, 15*time.Millisecond)
	m.Observe("", "GET", 404, time.Millisecond)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "backoffice_http_requests_total", "route", "/api/v1/orders/{orderId}")
	require.NoError(t, err)
	require.Equal(t, float64(1), got)

	got, err = fetchCounterValue(mfs, "backoffice_http_requests_total", "route", "unmatched")
	require.NoError(t, err)
	require.Equal(t, float64(1), got)
}

func TestHTTPMetricsNilSafe(t *testing.T) {
	var m *HTTPMetrics
	m.Observe("/x", "GET", 200, time.Millisecond)
	NewHTTPMetrics(nil).Observe("/x", "GET", 200, time.Millisecond)
}
