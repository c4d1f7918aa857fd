// Package metrics exposes Prometheus instrumentation for scans and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	samplesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astrocal_scan_samples_total",
			Help: "Daily samples taken by the year scanner.",
		},
		[]string{"category"},
	)

	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astrocal_events_total",
			Help: "Events emitted, by kind.",
		},
		[]string{"kind"},
	)

	refineIterations = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "astrocal_refine_iterations",
			Help:    "Bisection iterations per refined event.",
			Buckets: []float64{1, 5, 10, 15, 20, 25, 30, 40, 50},
		},
		[]string{"kind"},
	)

	unconvergedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astrocal_refine_unconverged_total",
			Help: "Refinements that stopped at the iteration cap.",
		},
		[]string{"kind"},
	)

	scanDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "astrocal_scan_duration_seconds",
			Help:    "Wall time of one category scan.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"category"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astrocal_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "astrocal_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)
)

func init() {
	prometheus.MustRegister(samplesTotal)
	prometheus.MustRegister(eventsTotal)
	prometheus.MustRegister(refineIterations)
	prometheus.MustRegister(unconvergedTotal)
	prometheus.MustRegister(scanDurationSeconds)
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Samples counts n daily samples for category.
func Samples(category string, n int) {
	samplesTotal.WithLabelValues(category).Add(float64(n))
}

// Event records one emitted event. iterations is zero for unrefined events.
func Event(kind string, iterations int, converged bool) {
	eventsTotal.WithLabelValues(kind).Inc()
	if iterations == 0 {
		return
	}
	refineIterations.WithLabelValues(kind).Observe(float64(iterations))
	if !converged {
		unconvergedTotal.WithLabelValues(kind).Inc()
	}
}

// ObserveScan records how long a category scan took.
func ObserveScan(category string, d time.Duration) {
	scanDurationSeconds.WithLabelValues(category).Observe(d.Seconds())
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request, labelled
// by the matched route template. Unmatched paths share the label "other".
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		path := "other"
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)

		httpRequestsTotal.WithLabelValues(path, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(path, r.Method).Observe(duration)
	})
}
