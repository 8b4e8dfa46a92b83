// Package reaper provides adapters for running the idle session reaper.
package reaper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/msccenter/hrm-ui/config"
	"github.com/msccenter/hrm-ui/internal/adapters/redis"
	"github.com/msccenter/hrm-ui/internal/core"
	"github.com/msccenter/hrm-ui/internal/data"
	"github.com/msccenter/hrm-ui/internal/observability/statsd"
	"github.com/msccenter/hrm-ui/internal/service"
)

// Runner provides a simple adapter to run the session reaper loop.
// It constructs the reaper service and runs the sweep loop.
type Runner struct {
	reaper  *service.SessionReaperService
	logger  *slog.Logger
	metrics statsd.Sink
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	DB     *sql.DB
	Redis  goredis.UniversalClient
	Config config.SessionReaperConfig
	Logger *slog.Logger

	// Optional dependency injection for testing/decoupling
	Sessions service.SessionReaperSessions
	Prefs    core.PreferenceRepository
	Metrics  statsd.Sink
}

// NewRunner creates a new session reaper runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if err := validateRunnerOptions(&opts); err != nil {
		return nil, err
	}

	reaper, err := wireReaperService(opts)
	if err != nil {
		return nil, fmt.Errorf("wire session reaper service: %w", err)
	}

	return &Runner{
		reaper:  reaper,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}, nil
}

// validateRunnerOptions validates and sets defaults for RunnerOptions.
func validateRunnerOptions(opts *RunnerOptions) error {
	if opts.Sessions == nil && opts.Redis == nil {
		return errors.New("redis connection is required")
	}
	if opts.Prefs == nil && opts.DB == nil {
		return errors.New("database connection is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return nil
}

// wireReaperService wires up all dependencies for the session reaper service.
func wireReaperService(opts RunnerOptions) (*service.SessionReaperService, error) {
	sessions := opts.Sessions
	if sessions == nil {
		sessions = redis.NewSessionStore(opts.Redis)
	}

	prefs := opts.Prefs
	if prefs == nil {
		prefs = data.NewPreferenceRepo(opts.DB)
	}

	return service.NewSessionReaperService(service.SessionReaperServiceOptions{
		Sessions: sessions,
		Prefs:    prefs,
		Config:   opts.Config,
		Logger:   opts.Logger,
		Metrics:  opts.Metrics,
	})
}

// Run starts the session reaper loop and runs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting session reaper runner")
	return r.reaper.Run(ctx)
}
