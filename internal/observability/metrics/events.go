package metrics

import (
	"time"

	obserrors "github.com/msccenter/hrm-ui/internal/observability/errors"
	"github.com/msccenter/hrm-ui/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// Auth operation names for metric tagging.
const (
	AuthOpLogin  = "login"
	AuthOpSignup = "signup"
	AuthOpLogout = "logout"
)

// AuthMetric captures details about an authentication event for metric emission.
type AuthMetric struct {
	Operation string
	Mode      string
	Result    string
	Duration  time.Duration
	Err       error
}

// EmitAuthEvent emits standardised authentication metrics.
func EmitAuthEvent(sink statsd.Sink, in AuthMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"operation": in.Operation,
		"mode":      in.Mode,
		"result":    in.Result,
	}

	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("auth.event", 1, tags)

	if in.Duration > 0 {
		sink.Timing("auth.duration", in.Duration, CloneTags(tags))
	}
}

// AttendanceMetric captures an attendance transition for metric emission.
type AttendanceMetric struct {
	Transition string // "check_in" or "check_out"
	Result     string
	Err        error
}

// EmitAttendanceEvent emits standardised attendance metrics.
func EmitAttendanceEvent(sink statsd.Sink, in AttendanceMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"transition": in.Transition,
		"result":     in.Result,
	}

	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("attendance.transition", 1, tags)
}

// EmitSessionsReaped records how many idle sessions a reaper pass removed.
func EmitSessionsReaped(sink statsd.Sink, count int64) {
	if sink == nil || count <= 0 {
		return
	}
	sink.Count("sessions.reaped", count, nil)
}

// CloneTags creates a shallow copy of a tag map, filtering out empty keys.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
