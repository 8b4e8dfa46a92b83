package httpx

import (
	"errors"
	"log/slog"
	"net/http"
)

// APIAttendanceToday returns today's attendance record for the signed-in user
// as JSON. A day without a check-in yields a record with zero timestamps.
// GET /api/attendance/today.
func (h *UIHandlers) APIAttendanceToday(w http.ResponseWriter, r *http.Request) {
	session, ok := GetUserSessionFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}

	rec, err := h.AttendanceSvc.Today(r.Context(), session.UserID)
	if err != nil {
		h.logger().Error("api: load today's attendance",
			slog.Any("error", err),
			slog.String("user_id", session.UserID))
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "internal_error",
			Err:     errors.New("unable to load attendance"),
		})
		return
	}

	WriteJSON(w, http.StatusOK, rec)
}

// APIPendingUsers lists accounts awaiting admin approval as JSON.
// GET /api/users/pending.
func (h *UIHandlers) APIPendingUsers(w http.ResponseWriter, r *http.Request) {
	page, pageSize := getPageParams(r.URL.Query())

	users, err := h.Users.ListPending(r.Context(), pageSize, (page-1)*pageSize)
	if err != nil {
		h.logger().Error("api: list pending users", slog.Any("error", err))
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "internal_error",
			Err:     errors.New("unable to load pending accounts"),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"users":     users,
		"page":      page,
		"page_size": pageSize,
	})
}
