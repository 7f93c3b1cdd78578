package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrCacheMiss indicates the requested key was not found in cache.
var ErrCacheMiss = errors.New("cache miss")

// Config holds the Redis connection settings.
type Config struct {
	// Addr is the Redis host:port.
	Addr string

	// Password is the Redis auth password (empty for none).
	Password string

	// DB is the Redis database number.
	DB int
}

// Store is the shared Redis-backed response cache.
//
// A nil *Store is valid and behaves as a disabled cache: Get always
// misses, Set is a no-op and Alive reports false. This lets the proxy
// degrade to direct upstream passthrough when Redis is not configured
// or unreachable at startup.
type Store struct {
	redis  *redis.Client
	logger zerolog.Logger
}

// New connects to Redis and verifies the connection with a ping.
// The connection is established once per process lifetime; on ping
// failure the half-open client is closed before returning the error.
func New(ctx context.Context, cfg Config, logger zerolog.Logger) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	logger.Info().Str("addr", cfg.Addr).Int("db", cfg.DB).Msg("Connected to Redis")

	return &Store{
		redis:  client,
		logger: logger,
	}, nil
}

// Alive reports whether the Redis connection is currently usable.
func (s *Store) Alive(ctx context.Context) bool {
	if s == nil {
		return false
	}
	return s.redis.Ping(ctx).Err() == nil
}

// Get retrieves a cached value by key.
// Returns ErrCacheMiss if the key doesn't exist or has expired.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if s == nil {
		cacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			cacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		cacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	cacheHits.Inc()
	return data, nil
}

// Set stores a value under key with the given TTL. Expiry is the only
// removal mechanism; entries are never deleted explicitly.
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if s == nil {
		return nil
	}

	if err := s.redis.Set(ctx, key, value, ttl).Err(); err != nil {
		cacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	cacheWrites.Inc()
	s.logger.Debug().Str("key", key).Dur("ttl", ttl).Msg("Cached response")
	return nil
}

// Close releases the Redis connection.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.redis.Close()
}
