package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// User repository sentinels.
	ErrUserNotFound    = errors.New("user not found")
	ErrUserEmailExists = errors.New("email already registered")

	// Preference repository sentinels.
	ErrPreferencesNotFound = errors.New("preferences not found")

	// Attendance repository sentinels.
	ErrAttendanceNotFound = errors.New("attendance record not found")
)
