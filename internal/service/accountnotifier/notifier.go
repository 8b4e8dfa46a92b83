package accountnotifier

import (
	"context"
	"log/slog"
	"sync"

	"github.com/msccenter/hrm-ui/internal/observability/notify"
)

// SinkRegistration pairs a sink implementation with a human-readable name for logging.
type SinkRegistration struct {
	Name string
	Sink notify.Sink
}

// Options configures the account notifier service.
type Options struct {
	Logger *slog.Logger
	Sinks  []SinkRegistration
}

// Service dispatches account events to all registered sinks.
type Service struct {
	logger *slog.Logger
	sinks  []SinkRegistration
}

// NewService constructs an account notifier.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "account_notifier")
	}

	var sinks []SinkRegistration
	for _, entry := range opts.Sinks {
		if entry.Sink == nil {
			continue
		}
		name := entry.Name
		if name == "" {
			name = "sink"
		}
		sinks = append(sinks, SinkRegistration{
			Name: name,
			Sink: entry.Sink,
		})
	}

	return &Service{
		logger: logger,
		sinks:  sinks,
	}
}

// Notify fan-outs the account event payload to all sinks.
func (s *Service) Notify(ctx context.Context, payload notify.AccountEventPayload) {
	if len(s.sinks) == 0 {
		return
	}

	if payload.Severity == "" {
		if payload.Kind == notify.KindServiceFailure {
			payload.Severity = notify.SeverityCritical
		} else {
			payload.Severity = notify.SeverityInfo
		}
	}

	var wg sync.WaitGroup
	for _, entry := range s.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := entry.Sink.SendAccountEvent(ctx, payload); err != nil {
				s.logger.Error("account notifier delivery error",
					"sink", entry.Name,
					"kind", payload.Kind,
					"user_id", payload.UserID,
					"error", err,
				)
			}
		}()
	}
	wg.Wait()
}

// Enabled reports whether the notifier has any active sinks.
func (s *Service) Enabled() bool {
	return len(s.sinks) > 0
}
