package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facilityfinder/internal/config"
	logpkg "github.com/kailas-cloud/facilityfinder/internal/logger"
	"github.com/kailas-cloud/facilityfinder/internal/metrics"
	chiTransport "github.com/kailas-cloud/facilityfinder/internal/transport/chi"
)

func newRouter(svc services, cfg *config.Config, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(
		recoverJSON(logger),
		chiMiddleware.RequestID,
		accessLog(logger),
		metrics.Middleware(),
		chiTransport.CORSMiddleware(cfg.HTTP.CORSAllowedOrigins),
		chiTransport.RateLimitMiddleware(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst),
		chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys),
	)
	chiTransport.NewServer(svc.search, svc.health, cfg.Search.DefaultMaxResults, logger).Routes(r)
	return r
}

// recoverJSON turns a handler panic into the standard error envelope.
func recoverJSON(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				logpkg.From(r.Context(), logger).Error("panic recovered",
					zap.Any("panic", rvr),
					zap.String("path", r.URL.Path),
					zap.Stack("stacktrace"),
				)
				chiTransport.WriteError(w, http.StatusInternalServerError, "internal error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// accessLog writes one "http_request" line per request and echoes X-Request-ID.
// Handlers further down get a logger tagged with the request id.
func accessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := chiMiddleware.GetReqID(r.Context())
			if reqID != "" {
				w.Header().Set(chiMiddleware.RequestIDHeader, reqID)
			}
			l := logger.With(zap.String("request_id", reqID))

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(logpkg.Into(r.Context(), l)))

			l.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("latency", time.Since(start)),
				zap.String("remote", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
			)
		})
	}
}
