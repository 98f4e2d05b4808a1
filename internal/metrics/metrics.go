package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"service", "method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sentinel_http_request_duration_seconds",
			Help:    "Duration of HTTP request handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "route"},
	)

	RelayBackendCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hornsiq_backend_calls_total",
			Help: "Total number of calls to the relay backend by outcome",
		},
		[]string{"operation", "outcome"},
	)

	RelaySessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hornsiq_sessions_created_total",
			Help: "Remote chat sessions created on first use of a session key",
		},
	)

	RelayStreamEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hornsiq_stream_events_total",
			Help: "Parsed backend stream events by kind",
		},
		[]string{"kind"},
	)
)

// Outcome label used for successful backend calls.
const OutcomeOK = "ok"
