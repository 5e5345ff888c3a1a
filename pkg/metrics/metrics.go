// Package metrics exposes the gateway's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts handled requests by function and envelope status.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_requests_total",
		Help: "Handled requests by function and status.",
	}, []string{"function", "status"})

	// StreamFramesTotal counts emitted stream content frames.
	StreamFramesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_stream_frames_total",
		Help: "Emitted streaming content frames.",
	})

	// RequestDuration observes request handling time by function.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_request_duration_seconds",
		Help:    "Request handling duration by function.",
		Buckets: prometheus.DefBuckets,
	}, []string{"function"})
)
