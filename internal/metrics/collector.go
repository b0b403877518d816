// Package metrics provides internal metrics collection for the SDK.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector records gateway and signing activity.
type Collector struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	retriesTotal    *prometheus.CounterVec
	tokenRefreshes  *prometheus.CounterVec
	toolInvocations *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector creates a metrics collector registered on reg. A nil reg
// selects the default prometheus registerer.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.requestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of Federation Core requests",
		},
		[]string{"method", "path", "status"},
	)

	c.requestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Federation Core request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	c.retriesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Total number of retried attempts",
		},
		[]string{"path"},
	)

	c.tokenRefreshes = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refreshes_total",
			Help:      "Total number of access token fetches",
		},
		[]string{"result"},
	)

	c.toolInvocations = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_invocations_total",
			Help:      "Total number of signed tool invocations",
		},
		[]string{"tool", "outcome"},
	)

	return c
}

// ObserveRequest records a completed request.
func (c *Collector) ObserveRequest(method, path, status string, duration time.Duration) {
	c.requestsTotal.WithLabelValues(method, path, status).Inc()
	c.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveRetry records one retried attempt for a path.
func (c *Collector) ObserveRetry(path string) {
	c.retriesTotal.WithLabelValues(path).Inc()
}

// ObserveTokenRefresh records an access token fetch outcome.
func (c *Collector) ObserveTokenRefresh(result string) {
	c.tokenRefreshes.WithLabelValues(result).Inc()
}

// ObserveToolInvocation records a signed tool invocation outcome.
func (c *Collector) ObserveToolInvocation(tool, outcome string) {
	c.toolInvocations.WithLabelValues(tool, outcome).Inc()
}
