// Package metrics provides Prometheus instrumentation for the valuation engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EvaluationsTotal counts position evaluations by product kind and risk status.
	EvaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notes_evaluations_total",
		Help: "Total position evaluations",
	}, []string{"kind", "status"})

	// EvaluationErrors counts evaluations rejected as structurally invalid.
	EvaluationErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notes_evaluation_errors_total",
		Help: "Position evaluations that returned an error",
	})

	// EvaluationDuration tracks evaluation latency.
	EvaluationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "notes_evaluation_duration_seconds",
		Help:    "Position evaluation latency in seconds",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
	})

	// CacheLookups counts snapshot cache lookups by result (hit or miss).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notes_snapshot_cache_lookups_total",
		Help: "Snapshot cache lookups",
	}, []string{"result"})

	// CacheEntries tracks the number of cached snapshots.
	CacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "notes_snapshot_cache_entries",
		Help: "Snapshots currently cached",
	})

	// HTTPRequestsTotal counts HTTP requests by method, route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notes_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notes_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// ObserveEvaluation records one successful evaluation.
func ObserveEvaluation(kind, status string, d time.Duration) {
	EvaluationsTotal.WithLabelValues(kind, status).Inc()
	EvaluationDuration.Observe(d.Seconds())
}

// CacheHit records a snapshot cache lookup.
func CacheHit(hit bool) {
	if hit {
		CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	CacheLookups.WithLabelValues("miss").Inc()
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Route pattern keeps the path label low cardinality.
		path := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			path = rc.RoutePattern()
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
