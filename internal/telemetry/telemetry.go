// Package telemetry defines the prometheus collectors exported on /metrics.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values.
const (
	SourceUpload = "upload"
	SourceDemo   = "demo"

	ResultSuccess = "success"
	ResultFailure = "failure"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ridechat_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ridechat_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint", "status_code"},
	)
)

// Engine metrics
var (
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ridechat_queries_total",
			Help: "Questions answered, by the intent that answered them",
		},
		[]string{"intent"},
	)

	RidesLoadedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ridechat_rides_loaded_total",
			Help: "Ride loads by source and result",
		},
		[]string{"source", "result"},
	)

	RideDataPoints = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ridechat_ride_data_points",
			Help:    "Samples per loaded ride",
			Buckets: prometheus.ExponentialBuckets(60, 2, 10),
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ridechat_active_sessions",
			Help: "Sessions currently held in memory",
		},
	)
)

// RecordQuery counts an answered question.
func RecordQuery(intent string) {
	QueriesTotal.WithLabelValues(intent).Inc()
}

// RecordLoad counts a ride load attempt. dataPoints is observed on success only.
func RecordLoad(source string, dataPoints int, err error) {
	if err != nil {
		RidesLoadedTotal.WithLabelValues(source, ResultFailure).Inc()
		return
	}
	RidesLoadedTotal.WithLabelValues(source, ResultSuccess).Inc()
	RideDataPoints.Observe(float64(dataPoints))
}

// SetActiveSessions records the live session count.
func SetActiveSessions(n int) {
	ActiveSessions.Set(float64(n))
}
