package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/leasedesk-backend/internal/recordstub"
	"github.com/angelmondragon/leasedesk-backend/pkg/config"
	"github.com/angelmondragon/leasedesk-backend/pkg/db"
	"github.com/angelmondragon/leasedesk-backend/pkg/logger"
	"github.com/angelmondragon/leasedesk-backend/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "recordstub"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.LoadRecordStub()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	seedCount := flag.Int("seed-count", cfg.RecordStub.SeedCount, "number of demo tenant requests to insert on start")
	seedValue := flag.Int64("seed", cfg.RecordStub.SeedValue, "random seed for demo data")
	flag.Parse()

	logg = logger.New(logger.Options{
		ServiceName: "recordstub",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run migrations", err)
		os.Exit(1)
	}

	repo := recordstub.NewRepository(dbClient.DB())
	if *seedCount > 0 {
		result, err := recordstub.Seed(ctx, repo, *seedCount, *seedValue)
		if err != nil {
			logg.Error(ctx, "failed to seed demo data", err)
			os.Exit(1)
		}
		logg.Info(logg.WithFields(ctx, map[string]any{"requests": result.Requests, "rates": result.Rates}), "demo data seeded")
	}

	svc, err := recordstub.NewService(repo, dbClient, logg)
	if err != nil {
		logg.Error(ctx, "failed to create record stub service", err)
		os.Exit(1)
	}

	addr := ":" + cfg.RecordStub.Port
	logCtx := logg.WithFields(ctx, map[string]any{"addr": addr, "driver": dbClient.Driver()})
	logg.Info(logCtx, "starting record stub")

	server := &http.Server{Addr: addr, Handler: recordstub.NewRouter(svc, dbClient, logg)}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(logCtx, "record stub stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(logCtx, "graceful shutdown failed", err)
		}
	}
}
