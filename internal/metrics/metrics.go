// Package metrics provides metrics collection and reporting for the MCP server.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Prometheus metric labels
const (
	labelTool   = "tool"
	labelStatus = "status"
)

// Metrics tracks operational metrics with both internal counters and
// Prometheus metrics. The atomic counters back the stats resource; the
// Prometheus side feeds the optional /metrics endpoint.
type Metrics struct {
	totalRequests      atomic.Uint64
	successfulRequests atomic.Uint64
	failedRequests     atomic.Uint64

	toolsMu     sync.RWMutex
	toolUsage   map[string]uint64
	toolErrors  map[string]uint64
	toolLatency map[string]int64 // microseconds

	logger *zap.Logger

	promStatements     *prometheus.CounterVec
	promStatementTime  prometheus.Histogram
	promToolCalls      *prometheus.CounterVec
	promToolErrors     *prometheus.CounterVec
	promToolLatency    *prometheus.HistogramVec
	promActiveSessions prometheus.Gauge
}

// New creates a new metrics tracker with Prometheus integration
func New(logger *zap.Logger) *Metrics {
	return &Metrics{
		toolUsage:   make(map[string]uint64),
		toolErrors:  make(map[string]uint64),
		toolLatency: make(map[string]int64),
		logger:      logger,

		promStatements: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dbx_mcp",
			Name:      "statements_total",
			Help:      "Total SQL statements executed against the warehouse, by outcome",
		}, []string{labelStatus}),
		promStatementTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dbx_mcp",
			Name:      "statement_latency_seconds",
			Help:      "Statement execution latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		}),
		promToolCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dbx_mcp",
			Name:      "tool_calls_total",
			Help:      "Total number of tool calls, labeled by tool name",
		}, []string{labelTool}),
		promToolErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dbx_mcp",
			Name:      "tool_errors_total",
			Help:      "Total number of tool errors, labeled by tool name",
		}, []string{labelTool}),
		promToolLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dbx_mcp",
			Name:      "tool_latency_seconds",
			Help:      "Tool execution latency in seconds, labeled by tool name",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15),
		}, []string{labelTool}),
		promActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "dbx_mcp",
			Name:      "configured_sessions",
			Help:      "Number of sessions with stored connection overrides",
		}),
	}
}

// RecordToolExecution records one tool call with its outcome and latency
func (m *Metrics) RecordToolExecution(tool string, success bool, duration time.Duration) {
	m.totalRequests.Add(1)
	if success {
		m.successfulRequests.Add(1)
	} else {
		m.failedRequests.Add(1)
	}

	m.toolsMu.Lock()
	m.toolUsage[tool]++
	if !success {
		m.toolErrors[tool]++
	}
	m.toolLatency[tool] += duration.Microseconds()
	m.toolsMu.Unlock()

	m.promToolCalls.WithLabelValues(tool).Inc()
	if !success {
		m.promToolErrors.WithLabelValues(tool).Inc()
	}
	m.promToolLatency.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordStatement records one statement execution against the warehouse
func (m *Metrics) RecordStatement(success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	m.promStatements.WithLabelValues(status).Inc()
	m.promStatementTime.Observe(duration.Seconds())
}

// SetConfiguredSessions updates the configured-session gauge
func (m *Metrics) SetConfiguredSessions(n int) {
	m.promActiveSessions.Set(float64(n))
}

// Stats returns a snapshot of the internal counters
func (m *Metrics) Stats() map[string]interface{} {
	m.toolsMu.RLock()
	usage := make(map[string]uint64, len(m.toolUsage))
	for k, v := range m.toolUsage {
		usage[k] = v
	}
	toolErrors := make(map[string]uint64, len(m.toolErrors))
	for k, v := range m.toolErrors {
		toolErrors[k] = v
	}
	m.toolsMu.RUnlock()

	return map[string]interface{}{
		"total_requests":      m.totalRequests.Load(),
		"successful_requests": m.successfulRequests.Load(),
		"failed_requests":     m.failedRequests.Load(),
		"tool_usage":          usage,
		"tool_errors":         toolErrors,
	}
}

// LogStats logs the current counters, typically on shutdown
func (m *Metrics) LogStats() {
	m.logger.Info("Server metrics",
		zap.Uint64("total_requests", m.totalRequests.Load()),
		zap.Uint64("successful_requests", m.successfulRequests.Load()),
		zap.Uint64("failed_requests", m.failedRequests.Load()),
	)
}
