// Courier Tracker - Background Location Capture and Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/courier-tracker

// Package metrics declares the Prometheus instruments of the capture pipeline.
// All collectors register with the default registry and are served on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline

	InvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_invocations_total",
			Help: "Scheduler invocations by outcome",
		},
		[]string{"outcome"}, // persisted, empty, batch_error, unauthenticated, not_found, remote_error
	)

	InvocationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tracker_invocation_duration_seconds",
			Help:    "Wall time of one scheduler invocation",
			Buckets: prometheus.DefBuckets,
		},
	)

	SamplesDiscarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_samples_discarded_total",
			Help: "Samples that were received but not processed",
		},
		[]string{"reason"}, // superseded, throttled, batch_error, unauthenticated
	)

	// Address resolution

	GeocodeLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_geocode_lookups_total",
			Help: "Reverse geocode lookups by result",
		},
		[]string{"result"}, // geocoded, fallback, cache_hit
	)

	GeocodeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tracker_geocode_duration_seconds",
			Help:    "Latency of reverse geocode requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	GeocodeCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracker_geocode_cache_entries",
			Help: "Entries held by the reverse geocode cache",
		},
	)

	// Circuit breaker

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Requests through a circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Persistence

	PersistTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_persist_total",
			Help: "Remote current-location writes by result",
		},
		[]string{"result"}, // persisted, not_found, remote_error
	)

	PersistDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tracker_persist_duration_seconds",
			Help:    "Latency of remote current-location writes",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Lifecycle

	TrackingState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracker_state",
			Help: "Lifecycle controller state (0=idle, 1=starting, 2=active, 3=stopping)",
		},
	)

	Registrations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracker_registrations",
			Help: "Scheduler registrations currently held by this process",
		},
	)

	PermissionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_permission_requests_total",
			Help: "Positioning permission requests by scope and decision",
		},
		[]string{"scope", "decision"},
	)

	// API

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracker_api_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tracker_api_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordInvocation records the outcome and duration of one invocation.
func RecordInvocation(outcome string, duration time.Duration) {
	InvocationsTotal.WithLabelValues(outcome).Inc()
	InvocationDuration.Observe(duration.Seconds())
}

// RecordPersist records one remote write.
func RecordPersist(result string, duration time.Duration) {
	PersistTotal.WithLabelValues(result).Inc()
	PersistDuration.Observe(duration.Seconds())
}

// RecordAPIRequest records one HTTP request.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
