package accountnotifier

import (
	"context"
	"errors"
	"testing"

	"github.com/msccenter/hrm-ui/internal/observability/notify"
)

func TestServiceNotify(t *testing.T) {
	ctx := context.Background()

	var received []notify.AccountEventPayload
	svc := NewService(Options{
		Sinks: []SinkRegistration{
			{
				Name: "capture",
				Sink: notify.SinkFunc(func(ctx context.Context, payload notify.AccountEventPayload) error {
					received = append(received, payload)
					return nil
				}),
			},
		},
	})

	svc.Notify(ctx, notify.AccountEventPayload{
		Kind:   notify.KindSignupPending,
		UserID: "u-123",
	})

	if len(received) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(received))
	}
	if received[0].Severity != notify.SeverityInfo {
		t.Fatalf("expected severity to default to info, got %s", received[0].Severity)
	}
}

func TestServiceNotifyFailureSeverity(t *testing.T) {
	ctx := context.Background()

	var received []notify.AccountEventPayload
	svc := NewService(Options{
		Sinks: []SinkRegistration{
			{
				Name: "capture",
				Sink: notify.SinkFunc(func(ctx context.Context, payload notify.AccountEventPayload) error {
					received = append(received, payload)
					return nil
				}),
			},
		},
	})

	svc.Notify(ctx, notify.AccountEventPayload{Kind: notify.KindServiceFailure})

	if len(received) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(received))
	}
	if received[0].Severity != notify.SeverityCritical {
		t.Fatalf("expected severity to default to critical, got %s", received[0].Severity)
	}
}

func TestServiceDisabled(t *testing.T) {
	svc := NewService(Options{})
	if svc.Enabled() {
		t.Fatal("expected Enabled() to be false when no sinks registered")
	}
}

func TestServiceLogsErrors(t *testing.T) {
	// Ensure we don't panic when sink returns an error.
	svc := NewService(Options{
		Sinks: []SinkRegistration{
			{
				Name: "fail",
				Sink: notify.SinkFunc(func(ctx context.Context, payload notify.AccountEventPayload) error {
					return errors.New("boom")
				}),
			},
		},
	})

	svc.Notify(context.Background(), notify.AccountEventPayload{UserID: "u-123"})
}
