// Package main provides the synchronizer entry point: it keeps daily index
// coverage of the news source complete and backfills gaps.
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

	"github.com/fairyhunter13/crhoy-crawler/internal/adapter/observability"
	"github.com/fairyhunter13/crhoy-crawler/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/crhoy-crawler/internal/adapter/source/crhoy"
	"github.com/fairyhunter13/crhoy-crawler/internal/config"
	"github.com/fairyhunter13/crhoy-crawler/internal/filestore"
	"github.com/fairyhunter13/crhoy-crawler/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg, "synchronizer")
	slog.SetDefault(logger)

	observability.InitMetrics()
	go func() {
		addr := fmt.Sprintf(":%d", cfg.OpsPort)
		if err := http.ListenAndServe(addr, observability.OpsRouter()); err != nil {
			slog.Error("ops server error", slog.Any("error", err))
		}
	}()

	shutdownTracer, err := observability.SetupTracing(cfg, "synchronizer")
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	loc, err := cfg.Location()
	if err != nil {
		slog.Error("timezone load failed", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("database connection failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		slog.Error("schema setup failed", slog.Any("error", err))
		os.Exit(1)
	}

	client := crhoy.NewClient(cfg.RequestTimeout, cfg.UserAgent, cfg.MaxRetries, loc)
	store := filestore.New(cfg.DataDir)
	sync := usecase.NewSynchronizer(cfg, client, postgres.NewIndexRepo(pool), store, loc)

	slog.Info("starting synchronizer", slog.String("env", cfg.AppEnv))
	if err := sync.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("synchronizer stopped", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("synchronizer shut down")
}
