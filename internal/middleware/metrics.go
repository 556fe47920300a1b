package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "artemis_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"route", "method", "code"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "artemis_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"route"})

	// Chat metrics
	chatResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "artemis_chat_responses_total",
		Help: "Total number of chat responses by provider and outcome",
	}, []string{"provider", "outcome"})

	// Inference metrics
	inferenceRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "artemis_inference_request_duration_seconds",
		Help:    "Duration of inference API calls",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"task", "status"})

	inferenceRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "artemis_inference_requests_total",
		Help: "Total number of inference API calls",
	}, []string{"task", "status"})

	// Rate limit metrics
	rateLimitExceeded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "artemis_rate_limit_exceeded_total",
		Help: "Total number of requests rejected by the rate limiter",
	})
)

// Metrics provides methods to record metrics
type Metrics struct{}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordChatResponse records which path produced a chat reply. outcome is
// the note with any model or error detail stripped, e.g. "ok" or "fallback".
func (m *Metrics) RecordChatResponse(provider, outcome string) {
	chatResponses.WithLabelValues(provider, outcome).Inc()
}

// RecordInference records one inference call. status is "ok" or the error
// kind. Model ids are caller-supplied, so they stay out of the labels.
func (m *Metrics) RecordInference(task, status string, duration time.Duration) {
	inferenceRequestDuration.WithLabelValues(task, status).Observe(duration.Seconds())
	inferenceRequests.WithLabelValues(task, status).Inc()
}

// RecordRateLimitExceeded records a rejected request
func (m *Metrics) RecordRateLimitExceeded() {
	rateLimitExceeded.Inc()
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Instrument is a mux middleware recording request counts and latency per
// route template.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unknown"
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// StartMetricsServer starts the metrics HTTP server
func StartMetricsServer(port int, path string) error {
	router := mux.NewRouter()
	router.Handle(path, promhttp.Handler())
	router.HandleFunc("/health", HealthHandler)

	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}

// HealthHandler answers liveness probes.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
