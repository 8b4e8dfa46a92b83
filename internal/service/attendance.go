package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/msccenter/hrm-ui/internal/core"
	"github.com/msccenter/hrm-ui/internal/data"
	"github.com/msccenter/hrm-ui/internal/domain/model"
	"github.com/msccenter/hrm-ui/internal/observability/metrics"
	"github.com/msccenter/hrm-ui/internal/observability/statsd"
)

// OfficeTimezone is the timezone workdays are computed in. Check-in at 23:59
// and 00:01 local time land on different workdays regardless of the server's
// own timezone.
const OfficeTimezone = "Asia/Ho_Chi_Minh"

// AttendanceServiceOptions groups dependencies for AttendanceService.
type AttendanceServiceOptions struct {
	Attendance core.AttendanceRepository

	// Location overrides the office timezone, mainly for tests. Nil loads
	// OfficeTimezone.
	Location *time.Location

	// Now overrides the clock, mainly for tests.
	Now func() time.Time

	Logger  *slog.Logger
	Metrics statsd.Sink
}

// AttendanceService tracks daily check-in and check-out. A user has at most
// one record per workday and the pair of transitions is strictly ordered.
type AttendanceService struct {
	attendance core.AttendanceRepository
	loc        *time.Location
	now        func() time.Time
	logger     *slog.Logger
	metrics    statsd.Sink
}

// NewAttendanceService constructs a new AttendanceService.
func NewAttendanceService(opts AttendanceServiceOptions) (*AttendanceService, error) {
	loc := opts.Location
	if loc == nil {
		var err error
		loc, err = time.LoadLocation(OfficeTimezone)
		if err != nil {
			return nil, fmt.Errorf("load office timezone: %w", err)
		}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AttendanceService{
		attendance: opts.Attendance,
		loc:        loc,
		now:        now,
		logger:     logger,
		metrics:    opts.Metrics,
	}, nil
}

// WorkDate returns the calendar day the instant falls on in the office
// timezone, as midnight UTC for storage.
func (s *AttendanceService) WorkDate(at time.Time) time.Time {
	local := at.In(s.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// CheckIn opens today's attendance record. A second check-in on the same
// workday returns model.ErrAlreadyCheckedIn.
func (s *AttendanceService) CheckIn(ctx context.Context, userID string) (*model.AttendanceRecord, error) {
	if userID == "" {
		return nil, errors.New("user ID is required")
	}

	now := s.now()
	rec, err := s.attendance.CheckIn(ctx, userID, s.WorkDate(now), now)
	s.emitTransition("check_in", err)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "checked in",
		"user_id", userID,
		"work_date", rec.WorkDate.Format("2006-01-02"),
	)
	return rec, nil
}

// CheckOut closes today's open attendance record. Checking out without an
// open record returns model.ErrNotCheckedIn.
func (s *AttendanceService) CheckOut(ctx context.Context, userID string) (*model.AttendanceRecord, error) {
	if userID == "" {
		return nil, errors.New("user ID is required")
	}

	now := s.now()
	rec, err := s.attendance.CheckOut(ctx, core.CheckOutParams{
		UserID:   userID,
		WorkDate: s.WorkDate(now),
		At:       now,
	})
	s.emitTransition("check_out", err)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "checked out",
		"user_id", userID,
		"worked", rec.Worked(now).Round(time.Minute).String(),
	)
	return rec, nil
}

// Today returns today's record, or a zero-value record with status
// not_started when the user has not checked in yet.
func (s *AttendanceService) Today(ctx context.Context, userID string) (*model.AttendanceRecord, error) {
	if userID == "" {
		return nil, errors.New("user ID is required")
	}

	rec, err := s.attendance.GetForDay(ctx, userID, s.WorkDate(s.now()))
	if err != nil {
		if errors.Is(err, data.ErrAttendanceNotFound) {
			return &model.AttendanceRecord{
				UserID:   userID,
				WorkDate: s.WorkDate(s.now()),
			}, nil
		}
		return nil, fmt.Errorf("load today's attendance: %w", err)
	}
	return rec, nil
}

// WeekSummary aggregates the current week's records, Monday based in the
// office timezone.
func (s *AttendanceService) WeekSummary(ctx context.Context, userID string) (*model.WeekSummary, error) {
	if userID == "" {
		return nil, errors.New("user ID is required")
	}

	now := s.now()
	start := s.weekStart(now)
	end := start.AddDate(0, 0, 6)

	records, err := s.attendance.ListRange(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("load week attendance: %w", err)
	}

	summary := &model.WeekSummary{WeekStart: start}
	for _, rec := range records {
		summary.Records = append(summary.Records, *rec)
		summary.DaysWorked++
		summary.Total += rec.Worked(now)
	}
	return summary, nil
}

// weekStart returns the Monday of the instant's week as a stored work date.
func (s *AttendanceService) weekStart(at time.Time) time.Time {
	day := s.WorkDate(at)
	offset := int(day.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7 // Sunday
	}
	return day.AddDate(0, 0, -offset)
}

func (s *AttendanceService) emitTransition(transition string, err error) {
	result := metrics.ResultSuccess
	switch {
	case errors.Is(err, model.ErrAlreadyCheckedIn), errors.Is(err, model.ErrNotCheckedIn):
		result = metrics.ResultNoop
	case err != nil:
		result = metrics.ResultError
	}
	metrics.EmitAttendanceEvent(s.metrics, metrics.AttendanceMetric{
		Transition: transition,
		Result:     result,
		Err:        err,
	})
}
