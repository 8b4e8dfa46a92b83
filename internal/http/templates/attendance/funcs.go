package attendance

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/msccenter/hrm-ui/internal/domain/model"
)

// Deps contains the dependencies required to build attendance template helpers.
type Deps struct {
	Template **template.Template
}

// Funcs returns a template.FuncMap with helpers tailored to attendance rendering.
func Funcs(deps Deps) template.FuncMap {
	funcs := template.FuncMap{
		"formatDuration":        FormatDuration,
		"attendanceStatusClass": StatusClass,
		"attendanceStatusLabel": StatusLabel,
		"clockTime":             ClockTime,
		"workDate":              WorkDate,
		"weekdayShort":          WeekdayShort,
		"initials":              Initials,
		"roleBadgeClass":        RoleBadgeClass,
		"statusBadgeClass":      UserStatusBadgeClass,
	}

	funcs["renderAttendancePartial"] = func(name string, data any) (template.HTML, error) {
		if deps.Template == nil || *deps.Template == nil {
			return "", errors.New("template not initialized")
		}
		var buf bytes.Buffer
		if err := (*deps.Template).ExecuteTemplate(&buf, name, data); err != nil {
			return "", err
		}
		// #nosec G203 - Rendered HTML originates from our trusted template set and varies only by data already escaped by html/template.
		return template.HTML(buf.String()), nil
	}

	return funcs
}

// FormatDuration renders a duration as "7h 32m" for display in attendance views.
// Sub-minute durations render as "0m"; negative durations clamp to zero.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

// StatusClass returns a CSS class suffix for an attendance status.
// Accepts model.AttendanceStatus or string; anything else renders as idle.
func StatusClass(status any) string {
	switch normalizeStatus(status) {
	case model.AttendanceStatusWorking:
		return "working"
	case model.AttendanceStatusDone:
		return "done"
	default:
		return "idle"
	}
}

// StatusLabel returns a human-readable label for an attendance status.
func StatusLabel(status any) string {
	switch normalizeStatus(status) {
	case model.AttendanceStatusWorking:
		return "Working"
	case model.AttendanceStatusDone:
		return "Done for today"
	default:
		return "Not started"
	}
}

func normalizeStatus(status any) model.AttendanceStatus {
	switch v := status.(type) {
	case model.AttendanceStatus:
		return v
	case string:
		return model.AttendanceStatus(v)
	default:
		return model.AttendanceStatusNotStarted
	}
}

// ClockTime formats a check-in/check-out timestamp as a wall-clock time.
// Accepts time.Time or *time.Time; nil and zero values render as a placeholder.
func ClockTime(ts any) string {
	var t time.Time
	switch v := ts.(type) {
	case time.Time:
		t = v
	case *time.Time:
		if v != nil {
			t = *v
		}
	}
	if t.IsZero() {
		return "--:--"
	}
	return t.Local().Format("15:04")
}

// WorkDate formats a work date for list views.
func WorkDate(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

// WeekdayShort returns the three-letter weekday for a work date.
func WeekdayShort(t time.Time) string {
	return t.Format("Mon")
}

// Initials derives up to two uppercase initials from a display name,
// for avatar placeholders.
func Initials(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "?"
	}
	first := []rune(fields[0])
	if len(fields) == 1 {
		return strings.ToUpper(string(first[0]))
	}
	last := []rune(fields[len(fields)-1])
	return strings.ToUpper(string(first[0]) + string(last[0]))
}

// RoleBadgeClass returns a CSS class suffix for a role badge.
func RoleBadgeClass(role string) string {
	switch strings.ToLower(role) {
	case "admin":
		return "admin"
	case "manager":
		return "manager"
	default:
		return "staff"
	}
}

// UserStatusBadgeClass returns a CSS class suffix for a user status badge.
func UserStatusBadgeClass(status model.UserStatus) string {
	switch status {
	case model.UserStatusActive:
		return "success"
	case model.UserStatusPending:
		return "warning"
	case model.UserStatusDisabled:
		return "danger"
	default:
		return "info"
	}
}
