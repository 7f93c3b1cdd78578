package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/sportscache/sportscache/pkg/cache"
)

// newRouter assembles the HTTP surface: operational endpoints plus the
// proxy handler mounted at the root.
func newRouter(proxyHandler http.Handler, store *cache.Store, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/health", healthHandler(store))
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/*", proxyHandler)

	return r
}

// healthHandler reports liveness and the cache connection state. A dead
// or disabled cache does not make the process unhealthy; the proxy keeps
// serving by direct passthrough.
func healthHandler(store *cache.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cacheState := "down"
		if store.Alive(r.Context()) {
			cacheState = "up"
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok cache=%s\n", cacheState)
	}
}

// requestLogger logs each request with method, path, status and duration.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("Request")
		})
	}
}
