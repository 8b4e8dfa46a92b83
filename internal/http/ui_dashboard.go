package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/msccenter/hrm-ui/internal/domain/model"
	"golang.org/x/sync/errgroup"
)

// Index redirects the root path to the dashboard.
func (h *UIHandlers) Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		h.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Dashboard renders the main landing page: a greeting, today's attendance
// state, and (for admins) the pending-approval queue.
func (h *UIHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())

	h.Page(w, r, PageSpec{
		Meta: PageMeta{Title: "Dashboard - MSC HRM", PageTitle: "Dashboard", CurrentPage: PageDashboard},
		Fetch: func(ctx context.Context, data map[string]any) error {
			if session == nil {
				return nil
			}
			data["Greeting"] = greetingFor(time.Now(), session.FirstName)

			// The three lookups hit independent tables; load them
			// concurrently and degrade per section on failure.
			var (
				today   *model.AttendanceRecord
				week    *model.WeekSummary
				pending []*model.User
			)

			g, gctx := errgroup.WithContext(ctx)
			if h.AttendanceSvc != nil {
				g.Go(func() error {
					rec, err := h.AttendanceSvc.Today(gctx, session.UserID)
					if err != nil {
						h.logger().WarnContext(gctx, "dashboard attendance lookup failed", "error", err)
						return nil
					}
					today = rec
					return nil
				})
				g.Go(func() error {
					summary, err := h.AttendanceSvc.WeekSummary(gctx, session.UserID)
					if err != nil {
						h.logger().WarnContext(gctx, "dashboard week summary lookup failed", "error", err)
						return nil
					}
					week = summary
					return nil
				})
			}
			if h.Users != nil && session.IsAdmin() {
				g.Go(func() error {
					users, err := h.Users.ListPending(gctx, 5, 0)
					if err != nil {
						h.logger().WarnContext(gctx, "dashboard pending users lookup failed", "error", err)
						return nil
					}
					pending = users
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			if today != nil {
				data["Today"] = today
				data["TodayStatus"] = string(today.Status())
			}
			if week != nil {
				data["Week"] = week
			}
			if pending != nil {
				data["PendingUsers"] = pending
				data["PendingCount"] = len(pending)
			}
			return nil
		},
	})
}

// PendingUsersFragment renders the pending-approvals card for HTMX refresh.
// GET /dashboard/pending-users.
func (h *UIHandlers) PendingUsersFragment(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())
	if session == nil || !session.IsAdmin() || h.Users == nil {
		h.NotFound(w, r)
		return
	}

	pending, err := h.Users.ListPending(r.Context(), 5, 0)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "pending users fragment failed", "error", err)
		http.Error(w, "Unable to load pending accounts.", http.StatusInternalServerError)
		return
	}

	h.renderFragment(w, r, "pending-users-card", map[string]any{
		"PendingUsers": pending,
		"PendingCount": len(pending),
		"CSRFToken":    GetCSRFToken(r),
	})
}

// greetingFor picks a time-of-day greeting line.
func greetingFor(now time.Time, firstName string) string {
	var prefix string
	switch hour := now.Hour(); {
	case hour < 12:
		prefix = "Good morning"
	case hour < 18:
		prefix = "Good afternoon"
	default:
		prefix = "Good evening"
	}
	if firstName == "" {
		return prefix
	}
	return prefix + ", " + firstName
}
