package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RPCRequests tracks host commands sent, per command.
	RPCRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "markerbridge_rpc_requests_total",
			Help: "Total number of host RPC requests",
		},
		[]string{"command"},
	)

	// RPCErrors tracks failed host commands, per command.
	RPCErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "markerbridge_rpc_errors_total",
			Help: "Total number of failed host RPC requests",
		},
		[]string{"command"},
	)

	// RPCLatency tracks host command latency.
	RPCLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "markerbridge_rpc_latency_seconds",
			Help:    "Host RPC latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)

	// HeartbeatFailures counts missed heartbeats.
	HeartbeatFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "markerbridge_heartbeat_failures_total",
			Help: "Total number of failed heartbeat probes",
		},
	)

	// Reconnects counts successful reconnections.
	Reconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "markerbridge_reconnects_total",
			Help: "Total number of successful reconnections",
		},
	)

	// ConnectionState exposes the manager's state as a gauge.
	ConnectionState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "markerbridge_connection_state",
			Help: "Connection manager state (0=disconnected..5=failed)",
		},
	)

	// MarkersCreated counts markers created in the host session.
	MarkersCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "markerbridge_markers_created_total",
			Help: "Total number of markers created",
		},
	)

	// MarkersSkipped counts candidates skipped (validation, conflicts, dedupe).
	MarkersSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "markerbridge_markers_skipped_total",
			Help: "Total number of marker candidates skipped",
		},
		[]string{"reason"},
	)

	// MarkersFailed counts candidates that failed creation terminally.
	MarkersFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "markerbridge_markers_failed_total",
			Help: "Total number of marker candidates that failed creation",
		},
	)
)
