// Package metrics exposes Prometheus counters for the web client and can
// mirror booking activity to CloudWatch.
// file: metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickle_web_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pickle_web_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickle_web_bookings_total",
			Help: "Booking submissions by outcome",
		},
		[]string{"outcome"},
	)

	BookingCancellationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickle_web_booking_cancellations_total",
			Help: "Booking cancellations by outcome",
		},
		[]string{"outcome"},
	)

	APIErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickle_web_api_errors_total",
			Help: "Failed calls to the booking backend",
		},
		[]string{"operation"},
	)

	LiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pickle_web_live_connections",
			Help: "Open court availability websocket connections",
		},
	)
)

// Outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordBooking counts a booking submission. Successful ones are also sent
// to CloudWatch when enabled.
func RecordBooking(outcome string) {
	BookingsTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess {
		publish("BookingsCreated", 1, "Count")
	}
}

// RecordBookingCancellation counts a cancellation attempt.
func RecordBookingCancellation(outcome string) {
	BookingCancellationsTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess {
		publish("BookingsCancelled", 1, "Count")
	}
}

func RecordAPIError(operation string) {
	APIErrorsTotal.WithLabelValues(operation).Inc()
}

// SetLiveConnections reports the current websocket connection count.
func SetLiveConnections(n int) {
	LiveConnections.Set(float64(n))
}
