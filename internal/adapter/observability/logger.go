// Package observability provides logging, metrics, and tracing for the three
// pipeline services.
package observability

import (
	"log/slog"
	"os"

	"github.com/fairyhunter13/crhoy-crawler/internal/config"
)

// SetupLogger configures a JSON slog logger with service and environment fields.
func SetupLogger(cfg config.Config, service string) *slog.Logger {
	opts := &slog.HandlerOptions{}
	// In dev, show debug level; in prod, default to info
	if cfg.IsDev() {
		opts.Level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(os.Stdout, opts)
	logger := slog.New(h).With(
		slog.String("service", service),
		slog.String("env", cfg.AppEnv),
	)
	return logger
}
