package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/weather-now/internal/api"
	"github.com/neexbeast/weather-now/internal/cache"
	"github.com/neexbeast/weather-now/internal/config"
	"github.com/neexbeast/weather-now/internal/location"
	"github.com/neexbeast/weather-now/internal/presenter"
	"github.com/neexbeast/weather-now/internal/storage"
	"github.com/neexbeast/weather-now/internal/units"
	"github.com/neexbeast/weather-now/internal/weather"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, closeBackend := openBackend(ctx, cfg, log)
	defer closeBackend()

	// Wire dependencies.
	weatherCache := cache.NewWeatherCache(backend, log)
	client := weather.NewClient(cfg.OpenWeatherAPIKey, cfg.HTTPTimeout)

	loop := presenter.NewLoop(log)
	defer loop.Close()

	p := presenter.New(client, weatherCache, loop, units.NewClock(nil), log)
	defer p.Close()

	// Show the last saved weather before anything arrives from the network.
	p.LoadFromCacheIfAvailable(ctx)

	var provider location.Provider = location.Unconfigured{}
	if coords, ok := cfg.Location(); ok {
		provider = location.NewStatic(coords)
	}
	locator := location.NewLocator(provider, p, log)

	handlers := api.NewHandlers(p, log)
	router := api.NewRouter(handlers, weatherCache, log)

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
		// No WriteTimeout: the event stream stays open. Streams end when
		// ctx is cancelled.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server starting", "port", cfg.Port, "cache", cfg.CacheBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listening: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		// The presenter already holds the error for the sink.
		if err := locator.Locate(gctx); err != nil {
			log.Warn("initial location fetch skipped", "err", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("server shut down cleanly")
	return nil
}

// openBackend connects the configured cache backend. An unreachable backend
// falls back to memory so the app still works from live fetches.
func openBackend(ctx context.Context, cfg *config.AppConfig, log *slog.Logger) (cache.Backend, func()) {
	switch cfg.CacheBackend {
	case config.BackendRedis:
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, using in-memory cache", "err", err)
			break
		}
		return cache.NewRedisBackend(client), func() { _ = client.Close() }

	case config.BackendPostgres:
		pool, err := storage.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Warn("postgres unavailable, using in-memory cache", "err", err)
			break
		}
		if err := storage.RunMigrations(ctx, pool, storage.Migrations()); err != nil {
			pool.Close()
			log.Warn("postgres migrations failed, using in-memory cache", "err", err)
			break
		}
		log.Info("migrations applied")
		return storage.NewPostgresBackend(pool), pool.Close

	case config.BackendSQLite:
		db, err := storage.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			log.Warn("sqlite unavailable, using in-memory cache", "err", err, "path", cfg.SQLitePath)
			break
		}
		return db, func() { _ = db.Close() }
	}

	return cache.NewMemoryBackend(), func() {}
}
