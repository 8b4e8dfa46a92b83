//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"time"
)

// AttendanceStatus describes the state of a day's attendance record.
type AttendanceStatus string

const (
	AttendanceStatusNotStarted AttendanceStatus = "not_started"
	AttendanceStatusWorking    AttendanceStatus = "working"
	AttendanceStatusDone       AttendanceStatus = "done"
)

// AttendanceRecord is one user's attendance for one calendar day in the
// office timezone. CheckOutAt stays nil until the user checks out.
type AttendanceRecord struct {
	ID         string     `json:"id"                     db:"id"`
	UserID     string     `json:"user_id"                db:"user_id"`
	WorkDate   time.Time  `json:"work_date"              db:"work_date"`
	CheckInAt  time.Time  `json:"check_in_at"            db:"check_in_at"`
	CheckOutAt *time.Time `json:"check_out_at,omitempty" db:"check_out_at"`
	CreatedAt  time.Time  `json:"created_at"             db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"             db:"updated_at"`
}

// Status derives the record state from its timestamps.
func (r AttendanceRecord) Status() AttendanceStatus {
	switch {
	case r.CheckInAt.IsZero():
		return AttendanceStatusNotStarted
	case r.CheckOutAt == nil:
		return AttendanceStatusWorking
	default:
		return AttendanceStatusDone
	}
}

// Worked returns the worked duration, using now for an open record.
func (r AttendanceRecord) Worked(now time.Time) time.Duration {
	if r.CheckInAt.IsZero() {
		return 0
	}
	end := now
	if r.CheckOutAt != nil {
		end = *r.CheckOutAt
	}
	if end.Before(r.CheckInAt) {
		return 0
	}
	return end.Sub(r.CheckInAt)
}

// WeekSummary aggregates one user's attendance over a Monday-based week.
type WeekSummary struct {
	WeekStart  time.Time          `json:"week_start"`
	DaysWorked int                `json:"days_worked"`
	Total      time.Duration      `json:"total"`
	Records    []AttendanceRecord `json:"records"`
}

// ErrAlreadyCheckedIn is returned when a check-in already exists for the day.
var ErrAlreadyCheckedIn = errors.New("already checked in today")

// ErrNotCheckedIn is returned when checking out without an open record.
var ErrNotCheckedIn = errors.New("not checked in today")
