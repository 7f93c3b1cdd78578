package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cacheHits tracks responses served from Redis
	cacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sportscache_cache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	// cacheMisses tracks lookups that fell through to upstream
	cacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sportscache_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	// cacheWrites tracks successful cache population after a miss
	cacheWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sportscache_cache_writes_total",
			Help: "Total number of cache entries written",
		},
	)

	// cacheErrors tracks cache operation errors
	cacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sportscache_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set"
	)
)
