package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"regpulse/internal/config"
	apierrors "regpulse/internal/errors"
	"regpulse/internal/infrastructure"
)

// RequestIDHeader carries the request's trace ID in and out.
const RequestIDHeader = "X-Request-ID"

// RequestID assigns every request a trace ID, honoring one supplied by the
// caller, and threads it through the context so all log lines carry it.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(RequestIDHeader)
		if traceID == "" {
			traceID = uuid.New().String()
		}
		ctx := infrastructure.WithTraceID(r.Context(), traceID)
		w.Header().Set(RequestIDHeader, traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// StructuredLogger logs one line per request with method, path, status,
// byte count and latency.
func StructuredLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.LogAttrs(r.Context(), slog.LevelInfo, "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// Recoverer converts panics into a structured 500 response.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.ErrorContext(r.Context(), "panic recovered",
						slog.Any("panic", rec),
						slog.String("path", r.URL.Path))
					apierrors.WriteError(w, apierrors.ErrPanic(rec))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit applies a process-wide token bucket to all requests.
func RateLimit(cfg config.RateLimitConfig) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)
	return func(next http.Handler) http.Handler {
		if !cfg.Enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				apierrors.WriteError(w, apierrors.New(http.StatusTooManyRequests,
					"RATE_LIMITED", "Too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Metrics records request counts and latency per route pattern.
func Metrics(m *infrastructure.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			path := r.URL.Path
			if ctx := chi.RouteContext(r.Context()); ctx != nil {
				if pattern := ctx.RoutePattern(); pattern != "" {
					path = pattern
				}
			}
			m.RequestsTotal.WithLabelValues(path, strconv.Itoa(ww.Status())).Inc()
			m.RequestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
		})
	}
}
