package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	feedPageSize    prometheus.Histogram
	reviewsCreated  prometheus.Counter
	selectionsMade  *prometheus.CounterVec
	loaderRecords   *prometheus.CounterVec
	mailDispatched  *prometheus.CounterVec
	rateLimitHits   prometheus.Counter
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

	feedPageSize := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "feed_page_items",
		Help:    "Number of items returned per feed page",
		Buckets: []float64{0, 5, 10, 20, 50},
	})

	reviewsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reviews_created_total",
		Help: "Total reviews successfully created",
	})

	selectionsMade := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "academic_selections_total",
		Help: "Permanent academic selections recorded",
	}, []string{"kind"})

	loaderRecords := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "loader_records_total",
		Help: "Bulk loader record outcomes",
	}, []string{"entity", "outcome"})

	mailDispatched := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mail_dispatched_total",
		Help: "Outbound emails enqueued by kind",
	}, []string{"kind"})

	rateLimitHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_limit_rejections_total",
		Help: "Requests rejected by the rate limiter",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, feedPageSize, reviewsCreated,
		selectionsMade, loaderRecords, mailDispatched, rateLimitHits, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		feedPageSize:    feedPageSize,
		reviewsCreated:  reviewsCreated,
		selectionsMade:  selectionsMade,
		loaderRecords:   loaderRecords,
		mailDispatched:  mailDispatched,
		rateLimitHits:   rateLimitHits,
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveFeedPage records the size of a served feed page.
func (m *MetricsService) ObserveFeedPage(items int) {
	if m == nil {
		return
	}
	m.feedPageSize.Observe(float64(items))
}

// RecordReviewCreated counts a successful review creation.
func (m *MetricsService) RecordReviewCreated() {
	if m == nil {
		return
	}
	m.reviewsCreated.Inc()
}

// RecordSelection counts a permanent academic selection by kind
// ("masters_degree" or "program_specialization").
func (m *MetricsService) RecordSelection(kind string) {
	if m == nil {
		return
	}
	m.selectionsMade.WithLabelValues(kind).Inc()
}

// RecordLoaderOutcome counts a bulk-loader record outcome per entity.
func (m *MetricsService) RecordLoaderOutcome(entity, outcome string) {
	if m == nil {
		return
	}
	m.loaderRecords.WithLabelValues(entity, outcome).Inc()
}

// RecordMailDispatched counts an enqueued outbound email.
func (m *MetricsService) RecordMailDispatched(kind string) {
	if m == nil {
		return
	}
	m.mailDispatched.WithLabelValues(kind).Inc()
}

// RecordRateLimitRejection counts a rate-limited request.
func (m *MetricsService) RecordRateLimitRejection() {
	if m == nil {
		return
	}
	m.rateLimitHits.Inc()
}
