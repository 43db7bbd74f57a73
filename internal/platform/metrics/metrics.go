package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	AttendanceMarked   *prometheus.CounterVec
	AttendanceRejected *prometheus.CounterVec
	FraudRejections    prometheus.Counter
	DistanceMeters     prometheus.Histogram
	RequestDuration    *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		AttendanceMarked: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "steeple_attendance_marked_total",
			Help: "Attendance records created, labeled by service type",
		}, []string{"service"}),
		AttendanceRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "steeple_attendance_rejected_total",
			Help: "Mark-attendance requests rejected, labeled by failure reason",
		}, []string{"reason"}),
		FraudRejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "steeple_device_fraud_rejections_total",
			Help: "Requests blocked because the device was used for another member",
		}),
		DistanceMeters: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "steeple_submission_distance_meters",
			Help:    "Distance between submitted coordinates and the active location",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 5000, 50000},
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "steeple_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status class",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// ObserveRequest records one HTTP request observation.
func (m *Metrics) ObserveRequest(route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, status).Observe(elapsed.Seconds())
}

// MarkAccepted increments the per-service success counter.
func (m *Metrics) MarkAccepted(service string) {
	if m == nil {
		return
	}
	m.AttendanceMarked.WithLabelValues(service).Inc()
}

// MarkRejected increments the per-reason rejection counter.
func (m *Metrics) MarkRejected(reason string) {
	if m == nil {
		return
	}
	m.AttendanceRejected.WithLabelValues(reason).Inc()
}

// ObserveDistance records a geofence distance measurement.
func (m *Metrics) ObserveDistance(meters float64) {
	if m == nil {
		return
	}
	m.DistanceMeters.Observe(meters)
}

// FraudRejected increments the device fraud counter.
func (m *Metrics) FraudRejected() {
	if m == nil {
		return
	}
	m.FraudRejections.Inc()
}
