package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestCollector_ObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("omega", reg, zap.NewNop())

	c.ObserveRequest("POST", "/tools/echo:invoke", "200", 25*time.Millisecond)
	c.ObserveRequest("POST", "/tools/echo:invoke", "200", 30*time.Millisecond)
	c.ObserveRequest("GET", "/tools", "500", 5*time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(
		c.requestsTotal.WithLabelValues("POST", "/tools/echo:invoke", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		c.requestsTotal.WithLabelValues("GET", "/tools", "500")))
}

func TestCollector_ObserveRetryAndToken(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("omega", reg, zap.NewNop())

	c.ObserveRetry("/tools")
	c.ObserveRetry("/tools")
	c.ObserveTokenRefresh("success")
	c.ObserveTokenRefresh("failure")
	c.ObserveToolInvocation("echo", "success")

	assert.Equal(t, float64(2), testutil.ToFloat64(c.retriesTotal.WithLabelValues("/tools")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.tokenRefreshes.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.tokenRefreshes.WithLabelValues("failure")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.toolInvocations.WithLabelValues("echo", "success")))
}
