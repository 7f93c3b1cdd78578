// Package proxy implements the cache-aside request pipeline: cache
// lookup, upstream fetch on miss, and best-effort cache population.
package proxy

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/sportscache/sportscache/pkg/cache"
	"github.com/sportscache/sportscache/pkg/codec"
	"github.com/sportscache/sportscache/pkg/router"
)

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sportscache_requests_total",
	Help: "Total proxied requests by outcome",
}, []string{"outcome"}) // "hit", "miss", "not_found", "upstream_error", "decode_error"

// Cache is the subset of the response cache used by the handler.
// A nil Cache disables caching entirely; the handler then serves every
// request by direct upstream passthrough.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Fetcher retrieves the full response body for an upstream URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// Handler serves inbound requests with read-through caching.
//
// Per request: the router resolves the upstream URL (the URL, token
// included, is the cache key), the cache is consulted, and on a miss
// the body is fetched upstream, returned raw to the client, then
// written back compressed with the configured TTL. Cache failures
// never fail the client-facing request; upstream transport failures
// always do.
type Handler struct {
	routes  *router.Table
	cache   Cache
	fetcher Fetcher
	ttl     time.Duration
	logger  zerolog.Logger
}

// NewHandler creates the orchestrator. cache may be nil (degraded
// passthrough mode).
func NewHandler(routes *router.Table, c Cache, fetcher Fetcher, ttl time.Duration, logger zerolog.Logger) *Handler {
	return &Handler{
		routes:  routes,
		cache:   c,
		fetcher: fetcher,
		ttl:     ttl,
		logger:  logger,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upstreamURL, err := h.routes.Resolve(r.URL.Path, r.URL.RawQuery)
	if err != nil {
		requestsTotal.WithLabelValues("not_found").Inc()
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	ctx := r.Context()

	if body, ok := h.lookup(ctx, w, upstreamURL); ok {
		if body == nil {
			// Corrupted entry already answered with a 500.
			return
		}
		requestsTotal.WithLabelValues("hit").Inc()
		h.logger.Debug().Str("path", r.URL.Path).Msg("Cache hit")
		writeJSON(w, body)
		return
	}

	body, err := h.fetcher.Fetch(ctx, upstreamURL)
	if err != nil {
		requestsTotal.WithLabelValues("upstream_error").Inc()
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Upstream fetch failed")
		http.Error(w, "upstream request failed", http.StatusInternalServerError)
		return
	}

	requestsTotal.WithLabelValues("miss").Inc()

	// The client gets the raw body; only the cached copy is compressed.
	writeJSON(w, body)

	h.populate(ctx, upstreamURL, body)
}

// lookup consults the cache. It returns (body, true) on a usable hit,
// (nil, true) when a corrupted entry has already been answered with an
// error, and (nil, false) on a miss.
func (h *Handler) lookup(ctx context.Context, w http.ResponseWriter, key string) ([]byte, bool) {
	if h.cache == nil {
		return nil, false
	}

	encoded, err := h.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			h.logger.Warn().Err(err).Msg("Cache get failed, treating as miss")
		}
		return nil, false
	}

	body, err := codec.Decompress(string(encoded))
	if err != nil {
		// Corrupted cache entry. Surfaced, not silently re-fetched.
		requestsTotal.WithLabelValues("decode_error").Inc()
		h.logger.Error().Err(err).Str("key", key).Msg("Corrupted cache entry")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return nil, true
	}

	return body, true
}

// populate writes the fetched body back to the cache. Failures are
// logged and swallowed; the response has already been sent.
func (h *Handler) populate(ctx context.Context, key string, body []byte) {
	if h.cache == nil {
		return
	}

	encoded, err := codec.Compress(body)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Compress failed, skipping cache write")
		return
	}

	// The request context may be cancelled once the client has its
	// response; the write still gets a bounded window to finish.
	if err := h.cache.Set(context.WithoutCancel(ctx), key, encoded, h.ttl); err != nil {
		h.logger.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}

func writeJSON(w http.ResponseWriter, body []byte) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
