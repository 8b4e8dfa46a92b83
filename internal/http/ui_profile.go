package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/msccenter/hrm-ui/internal/domain/model"
	"github.com/msccenter/hrm-ui/internal/service"
)

// Profile renders the current user's account page.
func (h *UIHandlers) Profile(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())

	h.Page(w, r, PageSpec{
		Meta: PageMeta{Title: "My Profile - MSC HRM", PageTitle: "My Profile", CurrentPage: PageProfile},
		Fetch: func(ctx context.Context, data map[string]any) error {
			if session == nil || h.Users == nil {
				return nil
			}
			user, err := h.Users.GetByID(ctx, session.UserID)
			if err != nil {
				return err
			}
			data["Account"] = user
			return nil
		},
	})
}

// ProfileChangePassword changes the current user's password.
// POST /profile/password.
//
// A wrong current password or a validation problem re-renders the form with
// the message inline; the fields are never echoed back.
func (h *UIHandlers) ProfileChangePassword(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())
	if session == nil || h.Users == nil {
		h.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderPasswordForm(w, r, "Could not read the form. Please try again.")
		return
	}

	req := model.ChangePasswordRequest{
		Current: r.PostFormValue("current_password"),
		New:     r.PostFormValue("new_password"),
		Confirm: r.PostFormValue("confirm_password"),
	}

	err := h.Users.ChangePassword(r.Context(), session.UserID, req)
	switch {
	case err == nil:
		triggerToast(w, "Password changed.", "success")
		h.renderPasswordForm(w, r, "")
	case errors.Is(err, service.ErrWrongPassword):
		h.renderPasswordForm(w, r, capitalizeSentence(err.Error()))
	case isValidationError(err):
		h.renderPasswordForm(w, r, capitalizeSentence(err.Error()))
	default:
		h.logger().ErrorContext(r.Context(), "password change failed", "error", err)
		h.renderPasswordForm(w, r, "Unable to change the password. Please try again.")
	}
}

// renderPasswordForm renders the change-password card, optionally with an error.
func (h *UIHandlers) renderPasswordForm(w http.ResponseWriter, r *http.Request, errMsg string) {
	data := map[string]any{"CSRFToken": GetCSRFToken(r)}
	if errMsg != "" {
		data["Error"] = errMsg
	}
	h.renderFragment(w, r, "password-form", data)
}
