package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rs/zerolog"

	"github.com/sportscache/sportscache/pkg/cache"
	"github.com/sportscache/sportscache/pkg/config"
	"github.com/sportscache/sportscache/pkg/logging"
	"github.com/sportscache/sportscache/pkg/proxy"
	"github.com/sportscache/sportscache/pkg/router"
	"github.com/sportscache/sportscache/pkg/upstream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger := logging.Setup(logging.DefaultConfig())
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Server exited")
	}
}

func run(cfg config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The Redis connection is established once per process lifetime and
	// shared by all requests. Caching is best-effort: a missing or
	// unreachable Redis degrades the proxy to direct passthrough.
	var store *cache.Store
	if cfg.CacheEnabled() {
		s, err := cache.New(ctx, cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logging.NewLogger("cache"))
		if err != nil {
			logger.Error().Err(err).Msg("Cache unavailable, serving without cache")
		} else {
			store = s
			defer store.Close()
		}
	} else {
		logger.Warn().Msg("REDIS_ADDR not set, caching disabled")
	}

	routes := router.New([]router.Route{
		{Prefix: "football-v2", BaseURL: cfg.FootballV2BaseURL},
		{Prefix: "football-v3", BaseURL: cfg.FootballV3BaseURL},
		{Prefix: "cricket-v2", BaseURL: cfg.CricketV2BaseURL},
	}, cfg.APIToken)

	fetcher := upstream.New(cfg.APIToken, cfg.UpstreamTimeout, logging.NewLogger("upstream"))

	var cacheDep proxy.Cache
	if store != nil {
		cacheDep = store
	}
	handler := proxy.NewHandler(routes, cacheDep, fetcher, cfg.CacheTTL, logging.NewLogger("proxy"))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: newRouter(handler, store, logger),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Bool("cache", store != nil).Msg("Listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info().Msg("Shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
