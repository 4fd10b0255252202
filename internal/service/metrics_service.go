package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/surveyhustler-api/internal/models"
)

// Verification outcome labels besides the rejection error codes.
const verificationAccepted = "accepted"

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	sheetFetch      *prometheus.HistogramVec
	verifications   *prometheus.CounterVec
	webhookEvents   *prometheus.CounterVec
	aiCalls         *prometheus.HistogramVec
	jobRuns         *prometheus.HistogramVec

	requestCount         uint64
	requestDurationTotal uint64
	sheetFetchCount      uint64
	sheetFailureCount    uint64
	acceptedCount        uint64
	rejectedCount        uint64
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

	sheetFetch := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sheet_fetch_duration_seconds",
		Help:    "Latency of response sheet reads by outcome",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15, 30},
	}, []string{"outcome"})

	verifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "submission_verifications_total",
		Help: "Submission verifications by outcome",
	}, []string{"outcome"})

	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_events_total",
		Help: "Payment webhook deliveries by event and outcome",
	}, []string{"event", "outcome"})

	aiCalls := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "analysis_model_duration_seconds",
		Help:    "Latency of generative analysis calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})

	jobRuns := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "background_job_duration_seconds",
		Help:    "Background job attempts by queue, type and outcome",
		Buckets: prometheus.DefBuckets,
	}, []string{"queue", "type", "outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, sheetFetch, verifications, webhookEvents, aiCalls, jobRuns, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		sheetFetch:      sheetFetch,
		verifications:   verifications,
		webhookEvents:   webhookEvents,
		aiCalls:         aiCalls,
		jobRuns:         jobRuns,
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

// ObserveSheetFetch records the latency of one spreadsheet read.
func (m *MetricsService) ObserveSheetFetch(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.sheetFetch.WithLabelValues(outcome).Observe(duration.Seconds())
	atomic.AddUint64(&m.sheetFetchCount, 1)
	if outcome != "ok" {
		atomic.AddUint64(&m.sheetFailureCount, 1)
	}
}

// RecordVerification counts a verification by outcome code.
func (m *MetricsService) RecordVerification(outcome string) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(outcome).Inc()
	if outcome == verificationAccepted {
		atomic.AddUint64(&m.acceptedCount, 1)
	} else {
		atomic.AddUint64(&m.rejectedCount, 1)
	}
}

// RecordWebhook counts a webhook delivery.
func (m *MetricsService) RecordWebhook(event string, outcome models.WebhookOutcome) {
	if m == nil {
		return
	}
	if event == "" {
		event = "unknown"
	}
	m.webhookEvents.WithLabelValues(event, string(outcome)).Inc()
}

// ObserveModelCall records generative model latency.
func (m *MetricsService) ObserveModelCall(failed bool, duration time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if failed {
		status = "error"
	}
	m.aiCalls.WithLabelValues(status).Observe(duration.Seconds())
}

// ObserveJob records one background job attempt.
func (m *MetricsService) ObserveJob(queue, jobType, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(queue, jobType, outcome).Observe(duration.Seconds())
}

// Snapshot returns aggregated metrics suitable for the health endpoint.
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
		SheetFetches:             atomic.LoadUint64(&m.sheetFetchCount),
		SheetFetchFailures:       atomic.LoadUint64(&m.sheetFailureCount),
		VerificationsAccepted:    atomic.LoadUint64(&m.acceptedCount),
		VerificationsRejected:    atomic.LoadUint64(&m.rejectedCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
