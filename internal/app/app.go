// Package app assembles leocli's components from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/heartmarshall/leocli/internal/adapter/cache/filecache"
	"github.com/heartmarshall/leocli/internal/adapter/cache/pgcache"
	"github.com/heartmarshall/leocli/internal/adapter/cache/rediscache"
	"github.com/heartmarshall/leocli/internal/adapter/postgres"
	"github.com/heartmarshall/leocli/internal/adapter/provider/leo"
	"github.com/heartmarshall/leocli/internal/cache"
	"github.com/heartmarshall/leocli/internal/config"
	"github.com/heartmarshall/leocli/internal/markup"
	"github.com/heartmarshall/leocli/internal/metrics"
	"github.com/heartmarshall/leocli/internal/service/lookup"
	"github.com/heartmarshall/leocli/internal/transport/middleware"
	"github.com/heartmarshall/leocli/internal/transport/rest"
)

const rateLimitSweepInterval = time.Minute

// App holds the wired components. Cache is nil when caching is disabled.
type App struct {
	Config   *config.Config
	Log      *slog.Logger
	Metrics  *metrics.Metrics
	Provider *leo.Provider
	Cache    *cache.Cache
	Lookup   *lookup.Service

	closers []func()
}

// New builds the application. The cache backend named by cfg.Cache.Backend
// is connected (and, for postgres, migrated) only when cfg.UseCache is set.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{
		Config:  cfg,
		Log:     logger,
		Metrics: metrics.New(),
	}

	parser := markup.NewParser(markup.NewClassifier(cfg.Provider.AnnotationTags...), logger)
	a.Provider = leo.NewProvider(cfg.Provider, parser, logger)

	opts := []lookup.Option{lookup.WithObserver(a.Metrics)}
	if cfg.Provider.Timeout > 0 {
		// Two attempts plus the pause between them.
		opts = append(opts, lookup.WithFlightTimeout(2*cfg.Provider.Timeout+cfg.Provider.RetryDelay))
	}
	if !cfg.UseCache {
		a.Lookup = lookup.NewService(logger, nil, a.Provider, opts...)
		return a, nil
	}

	store, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Cache = cache.New(store, logger, cache.WithTTL(cfg.Cache.TTL))
	a.Lookup = lookup.NewService(logger, a.Cache, a.Provider, opts...)

	return a, nil
}

func (a *App) openStore(ctx context.Context) (cache.Store, error) {
	cfg := a.Config
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		rdb, err := rediscache.NewClient(ctx, cfg.Cache.Redis)
		if err != nil {
			return nil, fmt.Errorf("app: redis cache: %w", err)
		}
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		return rediscache.New(rdb, cfg.Cache.Redis.KeyPrefix, cfg.Cache.TTL, a.Log), nil

	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Cache.Database)
		if err != nil {
			return nil, fmt.Errorf("app: postgres cache: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		if err := postgres.Migrate(ctx, pool, a.Log); err != nil {
			return nil, fmt.Errorf("app: postgres cache: %w", err)
		}
		return pgcache.New(pool, a.Log), nil

	case config.BackendFile, "":
		return filecache.New(cfg.CacheDir, a.Log), nil
	}
	return nil, fmt.Errorf("app: unknown cache backend %q", cfg.Cache.Backend)
}

// Close releases backend connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// Handler returns the HTTP API with its middleware chain. The returned stop
// function releases the rate limiter.
func (a *App) Handler() (http.Handler, func()) {
	var pinger interface {
		Ping(ctx context.Context) error
	}
	if a.Cache != nil {
		pinger = a.Cache
	}

	router := rest.NewRouter(rest.Routes{
		Lookup:  rest.NewLookupHandler(a.Lookup, a.Config.Lang, a.Config.UseCache, a.Log),
		Health:  rest.NewHealthHandler(pinger, BuildVersion()),
		Metrics: a.Metrics.Handler(),
	})

	limiter := middleware.NewRateLimiter(rateLimitSweepInterval)
	chain := middleware.Chain(
		middleware.Recovery(a.Log),
		middleware.RequestID(),
		middleware.Logger(a.Log),
		middleware.Metrics(a.Metrics),
		middleware.CORS(a.Config.Server.CORS),
		limiter.Limit(a.Config.Server.RateLimitPerMinute),
	)
	return chain(router), limiter.Stop
}

// Serve runs the HTTP API until ctx is cancelled, then shuts down
// gracefully within cfg.Server.ShutdownTimeout.
func (a *App) Serve(ctx context.Context) error {
	handler, stop := a.Handler()
	defer stop()

	srvCfg := a.Config.Server
	server := &http.Server{
		Addr:         net.JoinHostPort(srvCfg.Host, strconv.Itoa(srvCfg.Port)),
		Handler:      handler,
		ReadTimeout:  srvCfg.ReadTimeout,
		WriteTimeout: srvCfg.WriteTimeout,
		IdleTimeout:  srvCfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("http server listening",
			slog.String("addr", server.Addr),
			slog.String("version", BuildVersion()),
		)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: listen: %w", err)
	case <-ctx.Done():
	}

	a.Log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), srvCfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("app: shutdown: %w", err)
	}
	return nil
}
