// Package api exposes the earthwork engine over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/earthwork/internal/config"
)

// NewRouter builds the HTTP handler for the API from configuration.
func NewRouter(cfg *config.Config, version string) (http.Handler, error) {
	pool := NewComputePool(cfg.Engine.MaxConcurrent)
	cache := NewResultCache(cfg.Server.Cache.MaxEntries, time.Duration(cfg.Server.Cache.TTLSecs)*time.Second)
	h, err := NewHandler(cfg.Engine.Options(), pool, cache, version)
	if err != nil {
		return nil, err
	}
	return Routes(h, cfg.Server), nil
}

// Routes mounts h with the middleware stack described by sc.
func Routes(h *Handler, sc config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(metricsMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: sc.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id", "X-Cache"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, r, http.StatusNotFound, CodeNotFound, "no route for "+r.Method+" "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, r, http.StatusMethodNotAllowed, CodeBadRequest, "method "+r.Method+" not allowed on "+r.URL.Path)
	})

	r.Get("/", h.Welcome)
	r.Get("/health", Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/earthwork", func(r chi.Router) {
		r.Use(rateLimit(sc.RateLimit.RPS, sc.RateLimit.Burst))
		if sc.MaxBodyBytes > 0 {
			r.Use(middleware.RequestSize(sc.MaxBodyBytes))
		}
		r.Use(timeout(time.Duration(sc.RequestTimeoutSecs) * time.Second))

		r.Post("/calculate", h.Calculate)
		r.Post("/calculate-tin", h.CalculateTIN)
		r.Post("/tin-geojson", h.TINGeoJSON)
		r.Post("/generate-sample-points", h.GenerateSamplePoints)
		r.Post("/validate-polygon", h.ValidatePolygon)
		r.Get("/cache-stats", h.CacheStats)
	})

	return r
}

// requestID propagates the caller's X-Request-Id or assigns a new UUID. The
// ID is stored where chi's middleware.GetReqID finds it.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(middleware.RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLogger logs one line per request with zap.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		zap.L().Info("api: request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote", r.RemoteAddr),
		)
	})
}

// rateLimit rejects requests beyond rps (with burst) across the server. A
// non-positive rps disables limiting.
func rateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				writeStatus(w, r, http.StatusTooManyRequests, CodeRateLimited, "too many requests, retry later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// timeout bounds the request context. Handlers see the deadline through
// r.Context() and the engine stops at its next checkpoint.
func timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
