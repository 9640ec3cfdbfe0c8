package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/af-corp/thoth/internal/caller"
	"github.com/af-corp/thoth/internal/config"
	"github.com/af-corp/thoth/internal/gateway"
	"github.com/af-corp/thoth/internal/health"
	"github.com/af-corp/thoth/internal/httputil"
	"github.com/af-corp/thoth/internal/quota"
	"github.com/af-corp/thoth/internal/relay"
	"github.com/af-corp/thoth/internal/screening"
	"github.com/af-corp/thoth/internal/summarize"
	"github.com/af-corp/thoth/internal/sweeper"
	"github.com/af-corp/thoth/internal/telemetry"
	"github.com/af-corp/thoth/internal/transcript"
	"github.com/af-corp/thoth/internal/youtube"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

var version = "dev"

func main() {
	configDir := flag.String("config", "configs", "path to configuration directory")
	envFile := flag.String("env-file", ".env", "optional dotenv file loaded before the configuration")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", *envFile, err)
	}

	bootLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	loader := config.NewLoader(*configDir, bootLogger)
	if err := loader.Load(); err != nil {
		bootLogger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	cfg := loader.Config()

	logger := telemetry.NewLogger(cfg.Telemetry, os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if err := loader.Watch(ctx.Done()); err != nil {
		logger.Warn("failed to start config watcher", "error", err)
	}

	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)

	// Connect to Redis
	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addresses[0],
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis not reachable (shared quota and transcript L2 cache disabled)", "error", err)
			rdb.Close()
			rdb = nil
		} else {
			logger.Info("redis connected")
			defer rdb.Close()
		}
	}

	store, closeStore := buildQuotaStore(ctx, cfg, rdb, logger)
	defer closeStore()
	ledger := quota.NewLedger(store, cfg.Quota.Capacity, cfg.Quota.Window)

	// Transcript pipeline
	ytClient := youtube.NewClient(cfg.Transcript.InnertubeBaseURL, &http.Client{})
	fetcher := transcript.NewFetcher(ytClient, func() config.TranscriptConfig {
		return loader.Config().Transcript
	}, metrics)
	var transcripts transcript.Source = fetcher
	if cfg.Transcript.CacheEnabled {
		cache := transcript.NewCache(fetcher, rdb, cfg.Transcript.CacheTTL, metrics)
		go sweeper.Run(ctx, "transcript_cache", cache, cfg.Transcript.CacheTTL)
		transcripts = cache
	}

	// Completion relay
	providerRegistry := relay.BuildFromConfig(loader.Providers())
	loader.OnReload(func() {
		providerRegistry.Replace(relay.BuildFromConfig(loader.Providers()))
		logger.Info("provider registry reloaded")
	})
	cb := cfg.Completion.CircuitBreaker
	tracker := health.NewTracker(cb.FailureThreshold, cb.RecoveryProbeInterval)
	completionRelay := relay.New(providerRegistry, tracker,
		func() config.CompletionConfig { return loader.Config().Completion },
		loader.Prompts,
		metrics,
	)

	screener := screening.NewScanner(func() config.ScreeningConfig {
		return loader.Config().Screening
	}, metrics)

	controller := summarize.NewController(ledger, transcripts, completionRelay, screener, metrics)
	handler := gateway.NewHandler(controller, ledger.Capacity(), loader.Config)

	// Router setup
	r := chi.NewRouter()
	r.Use(caller.Peer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httputil.RequestID)

	r.Get("/health", healthHandler(tracker))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(caller.Middleware(func() bool { return loader.Config().Quota.BypassLoopback }))
		r.Post("/api/summarize", handler.Summarize)
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("thoth starting", "addr", addr, "version", version, "quota_backend", cfg.Quota.Backend)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	stop()
	logger.Info("thoth stopped")
}

// buildQuotaStore selects the quota backend. Backends without native expiry
// get a sweeper tied to ctx.
func buildQuotaStore(ctx context.Context, cfg *config.Config, rdb *redis.Client, logger *slog.Logger) (quota.Store, func()) {
	noop := func() {}

	switch cfg.Quota.Backend {
	case config.QuotaBackendRedis:
		if rdb != nil {
			return quota.NewRedisStore(rdb), noop
		}
		logger.Warn("quota backend redis selected without a redis address, using memory")

	case config.QuotaBackendPostgres:
		poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
		if err != nil {
			logger.Error("invalid database configuration, using memory quota store", "error", err)
			break
		}
		if cfg.Database.MaxOpenConns > 0 {
			poolCfg.MaxConns = int32(cfg.Database.MaxOpenConns)
		}
		if cfg.Database.ConnMaxLifetime > 0 {
			poolCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
		}
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			logger.Error("failed to create database pool, using memory quota store", "error", err)
			break
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			logger.Warn("database not reachable (quota fails open until it is)", "error", err)
		} else {
			logger.Info("database connected")
		}
		store := quota.NewPostgresStore(pool)
		go sweeper.Run(ctx, "quota_postgres", store, cfg.Quota.SweepInterval)
		return store, pool.Close

	case config.QuotaBackendMemory, "":
	default:
		logger.Warn("unknown quota backend, using memory", "backend", cfg.Quota.Backend)
	}

	store := quota.NewMemoryStore()
	go sweeper.Run(ctx, "quota_memory", store, cfg.Quota.SweepInterval)
	return store, noop
}

func healthHandler(tracker *health.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "healthy",
			"version":   version,
			"providers": tracker.Snapshot(),
		})
	}
}
