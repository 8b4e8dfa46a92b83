package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domainauth "github.com/msccenter/hrm-ui/internal/domain/auth"
	"github.com/msccenter/hrm-ui/internal/domain/model"
	"github.com/msccenter/hrm-ui/internal/ports"
	"github.com/msccenter/hrm-ui/internal/service"
	"github.com/stretchr/testify/assert"
)

// stubAttendanceService serves a fixed today record for router tests.
type stubAttendanceService struct {
	today *model.AttendanceRecord
	err   error
}

func (s *stubAttendanceService) CheckIn(context.Context, string) (*model.AttendanceRecord, error) {
	return nil, errors.New("not implemented")
}

func (s *stubAttendanceService) CheckOut(context.Context, string) (*model.AttendanceRecord, error) {
	return nil, errors.New("not implemented")
}

func (s *stubAttendanceService) Today(context.Context, string) (*model.AttendanceRecord, error) {
	return s.today, s.err
}

func (s *stubAttendanceService) WeekSummary(context.Context, string) (*model.WeekSummary, error) {
	return nil, errors.New("not implemented")
}

// newAPITestRouter builds a full router with an in-memory session store
// holding one admin and one staff session.
func newAPITestRouter(t *testing.T, attendance AttendanceUIService, users UsersUIService) http.Handler {
	t.Helper()

	store := &memSessionStore{m: map[string]domainauth.Session{}}
	authSvc := service.NewAuthService(service.AuthServiceOptions{
		Sessions: ports.SessionStore(store),
	})
	_ = store.Save(context.Background(), domainauth.Session{
		ID:        "admin",
		UserID:    "admin-user",
		Email:     "admin@msc.local",
		Role:      domainauth.RoleAdmin,
		ExpiresAt: time.Now().Add(time.Hour),
	})
	_ = store.Save(context.Background(), domainauth.Session{
		ID:        "staff",
		UserID:    "staff-user",
		Email:     "staff@msc.local",
		Role:      domainauth.RoleStaff,
		ExpiresAt: time.Now().Add(time.Hour),
	})

	return NewRouter(RouterServices{Auth: authSvc, Attendance: attendance, Users: users})
}

func apiGet(router http.Handler, path, sessionID string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	r.Header.Set("Accept", "application/json")
	if sessionID != "" {
		r.AddCookie(&http.Cookie{Name: "session_id", Value: sessionID})
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func TestAPIAttendanceToday(t *testing.T) {
	checkIn := time.Date(2026, 8, 28, 8, 45, 0, 0, time.UTC)
	attendance := &stubAttendanceService{today: &model.AttendanceRecord{
		ID:        "rec1",
		UserID:    "staff-user",
		WorkDate:  time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC),
		CheckInAt: checkIn,
	}}
	router := newAPITestRouter(t, attendance, &stubUsersService{})

	t.Run("without a session answers 401 JSON, not a login redirect", func(t *testing.T) {
		w := apiGet(router, "/api/attendance/today", "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Body.String(), "authentication_required")
		assert.Empty(t, w.Header().Get("Location"))
	})

	t.Run("signed-in staff gets today's record", func(t *testing.T) {
		w := apiGet(router, "/api/attendance/today", "staff")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"user_id":"staff-user"`)
		assert.Contains(t, w.Body.String(), `"check_in_at":"2026-08-28T08:45:00Z"`)
	})

	t.Run("service failure answers a generic 500", func(t *testing.T) {
		broken := &stubAttendanceService{err: errors.New("pg: connection refused")}
		brokenRouter := newAPITestRouter(t, broken, &stubUsersService{})

		w := apiGet(brokenRouter, "/api/attendance/today", "staff")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "unable to load attendance")
		assert.NotContains(t, w.Body.String(), "connection refused")
	})
}

func TestAPIPendingUsers(t *testing.T) {
	users := &stubUsersService{pending: []*model.User{
		{
			ID:       "u-pending",
			Email:    "moi@msc.local",
			FullName: "Moi Tran",
			Role:     domainauth.RoleStaff,
			Status:   model.UserStatusPending,
		},
	}}
	router := newAPITestRouter(t, &stubAttendanceService{}, users)

	t.Run("without a session answers 401", func(t *testing.T) {
		w := apiGet(router, "/api/users/pending", "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "authentication_required")
	})

	t.Run("staff role is refused with 403", func(t *testing.T) {
		w := apiGet(router, "/api/users/pending", "staff")

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "insufficient_permissions")
	})

	t.Run("admin gets the pending accounts", func(t *testing.T) {
		w := apiGet(router, "/api/users/pending", "admin")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"moi@msc.local"`)
		assert.Contains(t, w.Body.String(), `"page":1`)
	})
}

func TestAuthStatusRoute_SessionFromCookie(t *testing.T) {
	router := newAPITestRouter(t, &stubAttendanceService{}, &stubUsersService{})

	t.Run("anonymous request reports unauthenticated", func(t *testing.T) {
		w := apiGet(router, "/auth/status", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"authenticated":false`)
	})

	t.Run("valid session cookie reports the signed-in user", func(t *testing.T) {
		w := apiGet(router, "/auth/status", "staff")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"authenticated":true`)
		assert.Contains(t, w.Body.String(), `"staff@msc.local"`)
	})
}
