package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/msccenter/hrm-ui/config"
	"github.com/msccenter/hrm-ui/internal/core"
	"github.com/msccenter/hrm-ui/internal/data"
	domainauth "github.com/msccenter/hrm-ui/internal/domain/auth"
	"github.com/msccenter/hrm-ui/internal/domain/model"
	obserrors "github.com/msccenter/hrm-ui/internal/observability/errors"
	"github.com/msccenter/hrm-ui/internal/observability/metrics"
	"github.com/msccenter/hrm-ui/internal/observability/statsd"
	"github.com/msccenter/hrm-ui/internal/ports"
)

// SessionReaperSessions is the session access the reaper needs: iteration
// plus deletion.
type SessionReaperSessions interface {
	ports.SessionIterator
	Delete(ctx context.Context, id string) error
}

// SessionReaperServiceOptions groups dependencies for SessionReaperService.
type SessionReaperServiceOptions struct {
	Sessions SessionReaperSessions     // Required: session store with scan support
	Prefs    core.PreferenceRepository // Required: per-user auto logout lookup
	Config   config.SessionReaperConfig
	Logger   *slog.Logger // Optional: structured logger
	Metrics  statsd.Sink  // Optional: metrics sink (StatsD-compatible)
}

// SessionReaperService removes sessions that sat idle past the configured
// timeout, for users who enabled auto logout. Sessions of users without the
// setting only ever expire through their TTL.
type SessionReaperService struct {
	sessions SessionReaperSessions
	prefs    core.PreferenceRepository
	config   config.SessionReaperConfig
	logger   *slog.Logger
	metrics  statsd.Sink
}

// NewSessionReaperService constructs a new SessionReaperService.
func NewSessionReaperService(opts SessionReaperServiceOptions) (*SessionReaperService, error) {
	if opts.Sessions == nil {
		return nil, errors.New("session store is required")
	}
	if opts.Prefs == nil {
		return nil, errors.New("preference repository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "session_reaper")
		logger.Debug("SessionReaperService initialized",
			"interval", opts.Config.Interval,
			"idle_timeout", opts.Config.IdleTimeout,
		)
	}

	return &SessionReaperService{
		sessions: opts.Sessions,
		prefs:    opts.Prefs,
		config:   opts.Config,
		logger:   logger,
		metrics:  opts.Metrics,
	}, nil
}

// Run starts the reaper loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *SessionReaperService) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting session reaper",
			"interval", s.config.Interval,
			"idle_timeout", s.config.IdleTimeout,
		)
	}

	// Add jitter to prevent thundering herd if multiple instances start together
	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// Run a sweep immediately after jitter
	if _, err := s.Sweep(ctx); err != nil {
		s.logSweepError(err, "initial sweep")
	}

	return s.runLoop(ctx, ticker)
}

// waitWithJitter adds a random delay up to 10% of the interval to prevent thundering herd.
func (s *SessionReaperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// If crypto/rand fails, skip jitter rather than failing startup
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		}
		return
	}

	// Use modulo on uint64 before converting to avoid overflow
	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
		// Graceful shutdown during jitter
	}
}

// runLoop runs the sweep loop until context is cancelled.
func (s *SessionReaperService) runLoop(ctx context.Context, ticker *time.Ticker) error {
	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "session reaper stopping", "reason", ctx.Err())
			}
			// Return nil on graceful shutdown to avoid treating it as a failure
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logSweepError(err, "sweep")
				// Continue running despite errors
			}
		}
	}
}

// Sweep walks every stored session once and deletes the idle ones whose
// owner enabled auto logout. It returns the number of sessions removed.
func (s *SessionReaperService) Sweep(ctx context.Context) (int64, error) {
	start := time.Now()
	cutoff := start.Add(-s.config.IdleTimeout)

	var (
		scanned int64
		reaped  int64
		// autoLogout lookups are cached per sweep; most users have several
		// live sessions at once (browser tabs, phone).
		wantsLogout = map[string]bool{}
	)

	err := s.sessions.ForEachSession(ctx, func(sess domainauth.Session) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		scanned++

		lastSeen := sess.LastSeenAt
		if lastSeen.IsZero() {
			// Sessions created before activity tracking; fall back to a TTL
			// derived estimate so they do not get reaped immediately.
			lastSeen = sess.ExpiresAt.Add(-s.config.IdleTimeout)
		}
		if !lastSeen.Before(cutoff) {
			return nil
		}

		enabled, ok := wantsLogout[sess.UserID]
		if !ok {
			enabled = s.autoLogoutEnabled(ctx, sess.UserID)
			wantsLogout[sess.UserID] = enabled
		}
		if !enabled {
			return nil
		}

		if delErr := s.sessions.Delete(ctx, sess.ID); delErr != nil {
			return fmt.Errorf("delete idle session: %w", delErr)
		}
		reaped++
		if s.logger != nil {
			s.logger.InfoContext(ctx, "reaped idle session",
				"session_id", sess.ID,
				"user_id", sess.UserID,
				"idle", start.Sub(lastSeen).Round(time.Second).String(),
			)
		}
		return nil
	})

	s.emitSweepMetrics(scanned, reaped, time.Since(start), err)

	if err != nil {
		if isContextCancellation(err) {
			return reaped, context.Canceled
		}
		return reaped, fmt.Errorf("sweep failed: %w", err)
	}
	return reaped, nil
}

// autoLogoutEnabled decodes the user's stored preferences. Missing or
// unreadable preferences count as disabled, the conservative choice for a
// destructive background job.
func (s *SessionReaperService) autoLogoutEnabled(ctx context.Context, userID string) bool {
	rec, err := s.prefs.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, data.ErrPreferencesNotFound) && s.logger != nil {
			s.logger.WarnContext(ctx, "preference lookup failed, skipping user",
				"user_id", userID,
				"error", err,
			)
		}
		return false
	}
	return model.DecodePreferences(rec.Doc).AutoLogout
}

func (s *SessionReaperService) emitSweepMetrics(scanned, reaped int64, elapsed time.Duration, err error) {
	if s.metrics == nil {
		return
	}

	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	} else if reaped == 0 {
		result = metrics.ResultNoop
	}

	tags := map[string]string{"result": result}
	if err != nil {
		if class := obserrors.Classify(err); class != "" {
			tags["error_class"] = class
		}
	}

	s.metrics.Count("reaper.sweep", 1, tags)
	s.metrics.Count("reaper.sessions_scanned", scanned, nil)
	metrics.EmitSessionsReaped(s.metrics, reaped)

	if elapsed > 0 {
		s.metrics.Timing("reaper.sweep_duration", elapsed, metrics.CloneTags(tags))
	}
	if err == nil {
		s.metrics.Gauge("reaper.last_success_epoch", float64(time.Now().Unix()), nil)
	}
}

func (s *SessionReaperService) logSweepError(err error, label string) {
	if err == nil || s.logger == nil {
		return
	}

	if isContextCancellation(err) {
		s.logger.Debug(label+" cancelled by context", "error", err)
		return
	}

	s.logger.Error(label+" failed", "error", err)
}

func isContextCancellation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
