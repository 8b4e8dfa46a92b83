package notify

import (
	"context"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityCritical = "critical"
	SeverityInfo     = "info"
)

// Event kinds emitted by the application.
const (
	KindSignupPending   = "signup_pending"
	KindAccountApproved = "account_approved"
	KindServiceFailure  = "service_failure"
)

// AccountEventPayload captures the canonical data we emit for account and
// service notifications.
type AccountEventPayload struct {
	Kind       string
	UserID     string
	UserName   string
	Email      string
	Error      string
	ErrorClass string
	Severity   string
	OccurredAt time.Time
	Metadata   map[string]string
}

// Sink describes a destination capable of consuming account event notifications.
type Sink interface {
	SendAccountEvent(ctx context.Context, payload AccountEventPayload) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, payload AccountEventPayload) error

// SendAccountEvent implements the Sink interface.
func (f SinkFunc) SendAccountEvent(ctx context.Context, payload AccountEventPayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}

// Summary renders a short human-readable description of the event.
func (p AccountEventPayload) Summary() string {
	switch p.Kind {
	case KindSignupPending:
		return "New signup awaiting approval: " + p.displayName()
	case KindAccountApproved:
		return "Account approved: " + p.displayName()
	case KindServiceFailure:
		if p.Error != "" {
			return "Service failure: " + p.Error
		}
		return "Service failure"
	default:
		return "Account event: " + p.Kind
	}
}

func (p AccountEventPayload) displayName() string {
	if p.UserName != "" && p.Email != "" {
		return p.UserName + " <" + p.Email + ">"
	}
	if p.UserName != "" {
		return p.UserName
	}
	if p.Email != "" {
		return p.Email
	}
	return p.UserID
}
