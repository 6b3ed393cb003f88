package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Booking outcomes recorded by the allocator.
const (
	OutcomeConfirmed          = "confirmed"
	OutcomeClassNotFound      = "class_not_found"
	OutcomeCapacityExhausted  = "capacity_exhausted"
	OutcomePersistenceFailure = "persistence_failure"
	OutcomeNotRecorded        = "not_recorded"
	OutcomeCancelled          = "cancelled"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestDuration   *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
	bookingsTotal     *prometheus.CounterVec
	persistDuration   *prometheus.HistogramVec
	remainingCapacity *prometheus.GaugeVec
	cacheLookups      *prometheus.CounterVec
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	bookingsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bookings_total",
		Help: "Booking attempts by outcome",
	}, []string{"outcome"})

	persistDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "snapshot_persist_duration_seconds",
		Help:    "Duration of snapshot writes by collection",
		Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"collection", "result"})

	remainingCapacity := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "class_remaining_capacity",
		Help: "Remaining bookable slots per class",
	}, []string{"class_id", "class_name"})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "class_cache_lookups_total",
		Help: "Class listing cache lookups by result",
	}, []string{"result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, bookingsTotal, persistDuration, remainingCapacity, cacheLookups, goroutines)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		bookingsTotal:     bookingsTotal,
		persistDuration:   persistDuration,
		remainingCapacity: remainingCapacity,
		cacheLookups:      cacheLookups,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordBooking counts one booking attempt.
func (m *MetricsService) RecordBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

// ObservePersist records a snapshot write.
func (m *MetricsService) ObservePersist(collection string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.persistDuration.WithLabelValues(collection, result).Observe(duration.Seconds())
}

// SetRemainingCapacity publishes the committed capacity of a class.
func (m *MetricsService) SetRemainingCapacity(classID, className string, remaining int) {
	if m == nil {
		return
	}
	m.remainingCapacity.WithLabelValues(classID, className).Set(float64(remaining))
}

// RecordCacheLookup counts a class listing cache hit or miss.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
