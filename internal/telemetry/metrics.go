// Package telemetry defines the prometheus collectors shared across the
// server. Collectors register on the default registry; the HTTP transport
// exposes them under /metrics.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ToolCalls counts tool invocations by tool name and outcome
	// ("ok" or "error").
	ToolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "juradoc_tool_calls_total",
		Help: "Tool invocations by tool name and outcome.",
	}, []string{"tool", "outcome"})

	// ToolDuration observes wall time per tool call.
	ToolDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "juradoc_tool_duration_seconds",
		Help:    "Tool call duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"tool"})

	// PageFetches counts browser navigations by outcome.
	PageFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "juradoc_page_fetches_total",
		Help: "Authenticated page fetches by outcome.",
	}, []string{"outcome"})

	// LoginAttempts counts federated login handshakes by outcome.
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "juradoc_login_attempts_total",
		Help: "Portal login handshakes by outcome.",
	}, []string{"outcome"})
)
