// Package main provides the downloader entry point: it fetches article bodies
// and runs the LLM categorization and summarization pipeline.
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

	"github.com/google/uuid"

	"github.com/fairyhunter13/crhoy-crawler/internal/adapter/ai"
	"github.com/fairyhunter13/crhoy-crawler/internal/adapter/observability"
	"github.com/fairyhunter13/crhoy-crawler/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/crhoy-crawler/internal/adapter/source/crhoy"
	"github.com/fairyhunter13/crhoy-crawler/internal/agent"
	"github.com/fairyhunter13/crhoy-crawler/internal/config"
	"github.com/fairyhunter13/crhoy-crawler/internal/filestore"
	"github.com/fairyhunter13/crhoy-crawler/internal/service/ratelimiter"
	"github.com/fairyhunter13/crhoy-crawler/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg, "downloader")
	slog.SetDefault(logger)

	observability.InitMetrics()
	go func() {
		addr := fmt.Sprintf(":%d", cfg.OpsPort)
		if err := http.ListenAndServe(addr, observability.OpsRouter()); err != nil {
			slog.Error("ops server error", slog.Any("error", err))
		}
	}()

	shutdownTracer, err := observability.SetupTracing(cfg, "downloader")
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
	triggers, err := cfg.ParseTriggerTimes()
	if err != nil {
		slog.Error("trigger times parse failed", slog.Any("error", err))
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

	smartCats := postgres.NewSmartCategoryRepo(pool)
	if err := smartCats.Seed(ctx, agent.SeedCategories()); err != nil {
		slog.Error("category seed failed", slog.Any("error", err))
		os.Exit(1)
	}

	var dumper ai.RawDumper
	if cfg.KeepRawResponses {
		dumper = filestore.NewRawDumper(cfg.RawResponsesDir, uuid.NewString())
	}
	engine := ai.NewEngine(cfg, ratelimiter.NewRegistry(), dumper)
	pipeline := agent.NewPipeline(cfg, engine)

	store := filestore.New(cfg.DataDir)
	notifierRepo := postgres.NewNotifierRepo(pool)
	analyzer := usecase.NewAnalyzer(cfg, smartCats, notifierRepo, store, pipeline, triggers, loc)

	client := crhoy.NewClient(cfg.RequestTimeout, cfg.UserAgent, cfg.MaxRetries, loc)
	downloader := usecase.NewDownloader(cfg, postgres.NewArticleRepo(pool), client, crhoy.NewParser(), store, analyzer, triggers, loc)

	slog.Info("starting downloader", slog.String("env", cfg.AppEnv))
	if err := downloader.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("downloader stopped", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("downloader shut down")
}
