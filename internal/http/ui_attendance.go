package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/msccenter/hrm-ui/internal/domain/model"
)

// Attendance renders the attendance page: the live clock, today's
// check-in/check-out widget, and the current week's summary.
func (h *UIHandlers) Attendance(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())

	h.Page(w, r, PageSpec{
		Meta: PageMeta{Title: "Attendance - MSC HRM", PageTitle: "Attendance", CurrentPage: PageAttendance},
		Fetch: func(ctx context.Context, data map[string]any) error {
			if session == nil || h.AttendanceSvc == nil {
				return nil
			}
			today, err := h.AttendanceSvc.Today(ctx, session.UserID)
			if err != nil {
				return err
			}
			addAttendanceWidgetData(data, today)

			week, err := h.AttendanceSvc.WeekSummary(ctx, session.UserID)
			if err != nil {
				return err
			}
			data["Week"] = week
			return nil
		},
	})
}

// AttendanceWidget renders just the check-in/check-out card.
// GET /attendance/widget.
func (h *UIHandlers) AttendanceWidget(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())
	if session == nil || h.AttendanceSvc == nil {
		h.NotFound(w, r)
		return
	}

	today, err := h.AttendanceSvc.Today(r.Context(), session.UserID)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "attendance widget lookup failed", "error", err)
		http.Error(w, "Unable to load attendance.", http.StatusInternalServerError)
		return
	}
	h.renderAttendanceWidget(w, r, today)
}

// AttendanceCheckIn records the start of the working day.
// POST /attendance/check-in.
func (h *UIHandlers) AttendanceCheckIn(w http.ResponseWriter, r *http.Request) {
	h.attendanceTransition(w, r, attendanceTransition{
		Do:      h.AttendanceSvc.CheckIn,
		Success: "Checked in. Have a good day!",
		Noop:    model.ErrAlreadyCheckedIn,
		NoopMsg: "You have already checked in today.",
	})
}

// AttendanceCheckOut records the end of the working day.
// POST /attendance/check-out.
func (h *UIHandlers) AttendanceCheckOut(w http.ResponseWriter, r *http.Request) {
	h.attendanceTransition(w, r, attendanceTransition{
		Do:      h.AttendanceSvc.CheckOut,
		Success: "Checked out. See you tomorrow!",
		Noop:    model.ErrNotCheckedIn,
		NoopMsg: "You have not checked in yet today.",
	})
}

// AttendanceWeek renders the week summary table.
// GET /attendance/week.
func (h *UIHandlers) AttendanceWeek(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())
	if session == nil || h.AttendanceSvc == nil {
		h.NotFound(w, r)
		return
	}

	week, err := h.AttendanceSvc.WeekSummary(r.Context(), session.UserID)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "attendance week lookup failed", "error", err)
		http.Error(w, "Unable to load week summary.", http.StatusInternalServerError)
		return
	}
	h.renderFragment(w, r, "attendance-week", map[string]any{"Week": week})
}

// attendanceTransition groups the parts of a check-in/check-out request.
type attendanceTransition struct {
	Do      func(ctx context.Context, userID string) (*model.AttendanceRecord, error)
	Success string
	Noop    error
	NoopMsg string
}

// attendanceTransition runs a state change and re-renders the widget. A
// transition that is already satisfied (double check-in, check-out without
// check-in) is a warning, not an error: the widget still reflects reality.
func (h *UIHandlers) attendanceTransition(w http.ResponseWriter, r *http.Request, t attendanceTransition) {
	session := GetSessionFromContext(r.Context())
	if session == nil || h.AttendanceSvc == nil {
		h.NotFound(w, r)
		return
	}

	record, err := t.Do(r.Context(), session.UserID)
	switch {
	case err == nil:
		triggerToast(w, t.Success, "success")
	case errors.Is(err, t.Noop):
		triggerToast(w, t.NoopMsg, "warning")
		record, err = h.AttendanceSvc.Today(r.Context(), session.UserID)
		if err != nil {
			h.logger().ErrorContext(r.Context(), "attendance reload failed", "error", err)
			http.Error(w, "Unable to load attendance.", http.StatusInternalServerError)
			return
		}
	default:
		h.logger().ErrorContext(r.Context(), "attendance transition failed", "error", err)
		triggerToast(w, "Unable to update attendance. Please try again.", "error")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	h.renderAttendanceWidget(w, r, record)
}

// renderAttendanceWidget renders the attendance card for the given record.
func (h *UIHandlers) renderAttendanceWidget(w http.ResponseWriter, r *http.Request, record *model.AttendanceRecord) {
	data := map[string]any{"CSRFToken": GetCSRFToken(r)}
	addAttendanceWidgetData(data, record)
	h.renderFragment(w, r, "attendance-widget", data)
}

// addAttendanceWidgetData flattens the record into template fields.
func addAttendanceWidgetData(data map[string]any, record *model.AttendanceRecord) {
	if record == nil {
		return
	}
	status := record.Status()
	data["Today"] = record
	data["TodayStatus"] = string(status)
	data["CanCheckIn"] = status == model.AttendanceStatusNotStarted
	data["CanCheckOut"] = status == model.AttendanceStatusWorking
	if status != model.AttendanceStatusNotStarted {
		data["Worked"] = record.Worked(time.Now())
	}
}
