package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// AuthAttempts counts signup/login outcomes by operation and result
	// (ok, invalid, conflict, error).
	AuthAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total signup and login attempts by outcome",
		},
		[]string{"operation", "result"},
	)

	// TokenResolutions counts bearer-token lookups by outcome
	// (authenticated, invalid, none).
	TokenResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "token_resolutions_total",
			Help: "Total bearer token resolutions by outcome",
		},
		[]string{"outcome"},
	)

	// ScrobblesIngested counts scrobbles accepted for storage.
	ScrobblesIngested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scrobbles_ingested_total",
			Help: "Total scrobbles stored",
		},
	)
)

var (
	numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)
	initOnce           sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, AuthAttempts, TokenResolutions, ScrobblesIngested)
	})
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
// E.g. /admin/users/123 -> /admin/users/{id}.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request. Call from middleware with method, path, statusCode, duration.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// RecordAuthAttempt records one signup or login outcome.
func RecordAuthAttempt(operation, result string) {
	AuthAttempts.WithLabelValues(operation, result).Inc()
}

// RecordTokenResolution records one bearer token lookup outcome.
func RecordTokenResolution(outcome string) {
	TokenResolutions.WithLabelValues(outcome).Inc()
}
