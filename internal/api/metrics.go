package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "earthwork",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "earthwork",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	calculationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "earthwork",
		Subsystem: "engine",
		Name:      "calculations_total",
		Help:      "Volume calculations by method and outcome",
	}, []string{"method", "outcome"})

	calculationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "earthwork",
		Subsystem: "engine",
		Name:      "calculation_duration_seconds",
		Help:      "Time spent inside the volume engine",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	}, []string{"method"})

	trianglesRetained = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "earthwork",
		Subsystem: "engine",
		Name:      "triangles_retained",
		Help:      "Triangles kept inside the boundary per TIN calculation",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
	})

	poolInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "earthwork",
		Subsystem: "pool",
		Name:      "in_flight",
		Help:      "Surface calculations currently holding a compute slot",
	})

	poolWaitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "earthwork",
		Subsystem: "pool",
		Name:      "wait_duration_seconds",
		Help:      "Time spent waiting for a compute slot",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "earthwork",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Response cache lookups by endpoint and result",
	}, []string{"endpoint", "result"})
)

// metricsMiddleware records request counts and latency per route pattern.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
