package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "xlinspect_http_request_duration_seconds",
		Help:    "HTTP request latencies in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	uploadSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "xlinspect_upload_size_bytes",
		Help:    "Size of accepted workbook uploads in bytes",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
	})

	scansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xlinspect_scans_total",
		Help: "Workbook scans by structure check status",
	}, []string{"status"}) // status=OK|WARNING|CORRUPT|ERROR

	cleanupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xlinspect_cleanups_total",
		Help: "Cleanup requests by outcome",
	}, []string{"outcome"}) // outcome=success|failure
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware records request latency per route pattern.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		httpRequestDuration.WithLabelValues(r.Method, path, strconv.Itoa(sw.status)).
			Observe(time.Since(start).Seconds())
	})
}
