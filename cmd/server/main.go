package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/dininguru/internal/accounts"
	"github.com/neexbeast/dininguru/internal/api"
	"github.com/neexbeast/dininguru/internal/cache"
	"github.com/neexbeast/dininguru/internal/config"
	"github.com/neexbeast/dininguru/internal/dining"
	"github.com/neexbeast/dininguru/internal/storage"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.LoadServer()
	if err != nil {
		log.Error("loading config", "err", err)
		os.Exit(1)
	}
	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: config.Level(cfg.LogLevel)}))

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Server, log *slog.Logger) error {
	ctx := context.Background()

	pool, redisClient, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	defer func() { _ = redisClient.Close() }()

	applied, err := storage.RunMigrations(ctx, pool, storage.Migrations())
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("migrations applied", "new", applied)

	// Wire dependencies.
	repo := storage.NewRepository(pool)
	cacheLayer := cache.NewCache(redisClient)
	venues := dining.NewVenueSource(cfg.VenuesURL, cfg.BackupVenuesURL, log)
	accountService := accounts.NewService(repo, cacheLayer, accounts.LogMailer{Log: log})
	handlers := api.NewHandlers(repo, cacheLayer, venues, accountService, log)

	go warmVenues(ctx, venues, cacheLayer, log)

	// Build router with pingers adapted for health check.
	dbPinger := &pgxPoolPinger{pool: pool}
	redisPinger := &redisPingerAdapter{client: redisClient}

	router := api.NewRouter(handlers, api.RouterOptions{
		AdminToken:     cfg.AdminToken,
		RatePerMinute:  cfg.RatePerMinute,
		AllowedOrigins: cfg.AllowedOrigins,
	}, dbPinger, redisPinger, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("server goroutine panicked", "recover", r)
				errCh <- fmt.Errorf("server panicked: %v", r)
			}
		}()
		log.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server shut down cleanly")
	return nil
}

// connect opens Postgres and Redis concurrently. If either fails the
// other is closed.
func connect(ctx context.Context, cfg *config.Server) (*pgxpool.Pool, *redis.Client, error) {
	var pool *pgxpool.Pool
	var redisClient *redis.Client

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := storage.Connect(gctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		pool = p
		return nil
	})
	g.Go(func() error {
		c, err := cache.Connect(gctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		redisClient = c
		return nil
	})

	if err := g.Wait(); err != nil {
		if pool != nil {
			pool.Close()
		}
		if redisClient != nil {
			_ = redisClient.Close()
		}
		return nil, nil, err
	}
	return pool, redisClient, nil
}

// warmVenues fills the venue cache once at startup so the first client
// request does not wait on upstream.
func warmVenues(ctx context.Context, venues *dining.VenueSource, c *cache.Cache, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	list, fromBackup, err := venues.FetchListing(ctx)
	if err != nil {
		log.Warn("venue warmup failed", "err", err)
		return
	}
	if fromBackup {
		log.Warn("venue warmup got backup listing; not caching", "count", len(list))
		return
	}
	if err := c.SetVenues(ctx, list); err != nil {
		log.Warn("venue warmup cache set failed", "err", err)
		return
	}
	log.Info("venue cache warmed", "count", len(list))
}

// pgxPoolPinger adapts pgxpool.Pool to the api.dbPinger interface.
type pgxPoolPinger struct {
	pool interface {
		Ping(ctx context.Context) error
	}
}

func (p *pgxPoolPinger) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// redisPingerAdapter adapts redis.Client to the api.redisPinger interface.
type redisPingerAdapter struct {
	client *redis.Client
}

func (r *redisPingerAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
