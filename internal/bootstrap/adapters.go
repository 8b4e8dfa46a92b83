package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/msccenter/hrm-ui/config"
	"github.com/msccenter/hrm-ui/internal/adapters/reaper"
	"github.com/msccenter/hrm-ui/internal/observability/statsd"
	"github.com/redis/go-redis/v9"
)

// SessionReaperConfig contains configuration for the idle session reaper.
type SessionReaperConfig struct {
	DB      *sql.DB
	Redis   redis.UniversalClient
	Logger  *slog.Logger
	Config  config.SessionReaperConfig
	Metrics statsd.Sink
}

// RunSessionReaper starts the idle session reaper and blocks until the
// context is cancelled.
func RunSessionReaper(ctx context.Context, cfg SessionReaperConfig) error {
	runner, err := reaper.NewRunner(reaper.RunnerOptions{
		DB:      cfg.DB,
		Redis:   cfg.Redis,
		Config:  cfg.Config,
		Logger:  cfg.Logger,
		Metrics: cfg.Metrics,
	})
	if err != nil {
		return fmt.Errorf("create session reaper runner: %w", err)
	}

	return runner.Run(ctx)
}
