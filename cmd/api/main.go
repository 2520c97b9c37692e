package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/leasedesk-backend/api/controllers"
	"github.com/angelmondragon/leasedesk-backend/api/middleware"
	"github.com/angelmondragon/leasedesk-backend/api/routes"
	"github.com/angelmondragon/leasedesk-backend/internal/annualrates"
	"github.com/angelmondragon/leasedesk-backend/internal/inflight"
	"github.com/angelmondragon/leasedesk-backend/internal/leaserequests"
	"github.com/angelmondragon/leasedesk-backend/pkg/cache"
	"github.com/angelmondragon/leasedesk-backend/pkg/config"
	"github.com/angelmondragon/leasedesk-backend/pkg/instance"
	"github.com/angelmondragon/leasedesk-backend/pkg/logger"
	"github.com/angelmondragon/leasedesk-backend/pkg/metrics"
	"github.com/angelmondragon/leasedesk-backend/pkg/redis"
	"github.com/angelmondragon/leasedesk-backend/pkg/upstream"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	workflowMetrics := metrics.NewWorkflowMetrics(registry)

	var (
		redisClient *redis.Client
		tracker     inflight.Tracker = inflight.NewMemoryTracker()
		limiter     middleware.WindowLimiter
		readiness   = map[string]controllers.Pinger{}
	)
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		tracker = inflight.NewRedisTracker(redisClient, cfg.InFlight.TTL)
		limiter = redisClient
		readiness["redis"] = redisClient
	} else {
		logg.Warn(ctx, "redis not configured; in-flight markers are process local")
		readiness["redis"] = nil
	}

	var snapshots cache.Cache
	if !cfg.Cache.DisableCaching {
		if redisClient != nil {
			snapshots = cache.New(redisClient.Raw(), cfg.Cache)
		} else {
			snapshots = cache.New(nil, cfg.Cache)
		}
	}

	records, err := upstream.New(cfg.Upstream, upstream.WithMetrics(workflowMetrics))
	if err != nil {
		logg.Error(ctx, "failed to create upstream client", err)
		os.Exit(1)
	}
	readiness["upstream"] = records

	leaseRequestService, err := leaserequests.NewService(records, tracker, snapshots, workflowMetrics, logg, leaserequests.Options{
		SnapshotTTL:  cfg.Cache.SnapshotTTL,
		MutationWait: cfg.Upstream.MutationWait,
	})
	if err != nil {
		logg.Error(ctx, "failed to create lease request service", err)
		os.Exit(1)
	}

	annualRateService, err := annualrates.NewService(records, snapshots, workflowMetrics, logg, annualrates.Options{
		SnapshotTTL:  cfg.Cache.SnapshotTTL,
		MutationWait: cfg.Upstream.MutationWait,
	})
	if err != nil {
		logg.Error(ctx, "failed to create annual rate service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
		"upstream": cfg.Upstream.BaseURL,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:         addr,
		Handler:      routes.NewRouter(cfg, logg, registry, limiter, readiness, leaseRequestService, annualRateService),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(logCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(logCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(logCtx, "graceful shutdown failed", err)
		}
	}
}
