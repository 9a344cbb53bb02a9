package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/bunkbook/internal/models"
)

// Refresh outcomes reported to metrics.
const (
	RefreshResultSuccess    = "success"
	RefreshResultFailure    = "failure"
	RefreshResultSuperseded = "superseded"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	refreshDuration *prometheus.HistogramVec
	feedDuration    prometheus.Observer
	storeDuration   *prometheus.HistogramVec
	storeErrors     *prometheus.CounterVec
	conflicts       prometheus.Gauge
	courses         prometheus.Gauge

	requestCount         uint64
	requestDurationTotal uint64
	refreshCount         uint64
	refreshFailures      uint64
	storeErrorCount      uint64
}

// NewMetricsService registers core Prometheus collectors.
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

	refreshDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bunkbook_refresh_duration_seconds",
		Help:    "Duration of attendance refresh cycles",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30},
	}, []string{"result"})

	feedDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bunkbook_feed_fetch_seconds",
		Help:    "Latency of upstream attendance feed fetches",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20},
	})

	storeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bunkbook_store_operation_seconds",
		Help:    "Latency of state store operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	storeErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bunkbook_store_errors_total",
		Help: "Total failed state store operations",
	}, []string{"op"})

	conflicts := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bunkbook_timetable_conflicts",
		Help: "Unresolved manual/auto timetable conflicts",
	})

	courses := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "bunkbook_courses",
		Help: "Courses tracked in the ledger",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, refreshDuration, feedDuration, storeDuration, storeErrors, conflicts, courses, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		refreshDuration: refreshDuration,
		feedDuration:    feedDuration,
		storeDuration:   storeDuration,
		storeErrors:     storeErrors,
		conflicts:       conflicts,
		courses:         courses,
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

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveRefresh records the outcome of a refresh cycle.
func (m *MetricsService) ObserveRefresh(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.refreshDuration.WithLabelValues(result).Observe(duration.Seconds())
	atomic.AddUint64(&m.refreshCount, 1)
	if result == RefreshResultFailure {
		atomic.AddUint64(&m.refreshFailures, 1)
	}
}

// ObserveFeedFetch tracks upstream feed latency.
func (m *MetricsService) ObserveFeedFetch(duration time.Duration) {
	if m == nil {
		return
	}
	m.feedDuration.Observe(duration.Seconds())
}

// ObserveStoreOperation records state store timing and failures.
func (m *MetricsService) ObserveStoreOperation(op string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.storeDuration.WithLabelValues(op).Observe(duration.Seconds())
	if err != nil {
		m.storeErrors.WithLabelValues(op).Inc()
		atomic.AddUint64(&m.storeErrorCount, 1)
	}
}

// SetLedgerSize publishes the number of courses and open timetable conflicts.
func (m *MetricsService) SetLedgerSize(courses, conflicts int) {
	if m == nil {
		return
	}
	m.courses.Set(float64(courses))
	m.conflicts.Set(float64(conflicts))
}

// Snapshot returns aggregated metrics for the status endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		RefreshesTotal:           atomic.LoadUint64(&m.refreshCount),
		RefreshFailures:          atomic.LoadUint64(&m.refreshFailures),
		StoreErrors:              atomic.LoadUint64(&m.storeErrorCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
