// Package cache provides the shared Redis-backed response cache for the
// sports-data proxy.
//
// The cache key is the fully-qualified upstream URL, including the API
// token and the original query string. Identical requests therefore map
// to the same entry; no key normalization occurs. Values are stored as
// base64-encoded deflate streams produced by the codec package, expiring
// via Redis TTL only.
//
// Caching is strictly best-effort: the proxy is constructed with a nil
// *Store when Redis is not configured or unreachable, and every Store
// operation degrades to a no-op in that case.
//
// # Basic Usage
//
//	store, err := cache.New(ctx, cache.Config{Addr: "localhost:6379"}, logger)
//	if err != nil {
//		// serve without caching
//	}
//
//	data, err := store.Get(ctx, upstreamURL)
//	if err == cache.ErrCacheMiss {
//		// fetch from upstream, then:
//		_ = store.Set(ctx, upstreamURL, encoded, 60*time.Second)
//	}
//
// # Metrics
//
// The store exports Prometheus metrics:
//
//   - sportscache_cache_hits_total - Cache hits
//   - sportscache_cache_misses_total - Cache misses
//   - sportscache_cache_writes_total - Entries written
//   - sportscache_cache_errors_total{operation} - Cache operation errors
package cache
