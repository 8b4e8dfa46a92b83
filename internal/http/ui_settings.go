package httpx

import (
	"context"
	"net/http"

	"github.com/msccenter/hrm-ui/internal/domain/model"
)

// Settings renders the settings page with the user's stored preferences.
// The preferences read is fail-soft: a missing or corrupt document renders
// as defaults rather than an error page.
func (h *UIHandlers) Settings(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())

	h.Page(w, r, PageSpec{
		Meta: PageMeta{Title: "Settings - MSC HRM", PageTitle: "Settings", CurrentPage: PageSettings},
		Fetch: func(ctx context.Context, data map[string]any) error {
			prefs := model.DefaultPreferences()
			if session != nil && h.Prefs != nil {
				loaded, err := h.Prefs.Get(ctx, session.UserID)
				if err != nil {
					h.logger().WarnContext(ctx, "preference load failed, using defaults", "error", err)
				} else {
					prefs = loaded
				}
			}
			addPreferenceData(data, prefs)
			return nil
		},
	})
}

// SettingsSetTheme persists a theme change immediately.
// POST /settings/theme.
func (h *UIHandlers) SettingsSetTheme(w http.ResponseWriter, r *http.Request) {
	h.writeThroughSetting(w, r, writeThroughSetting{
		Apply: func(ctx context.Context, userID string) (model.Preferences, error) {
			req := model.SetThemeRequest{Theme: model.Theme(r.PostFormValue("theme"))}
			return h.Prefs.SetTheme(ctx, userID, req)
		},
		ClientEvent: "applyTheme",
		EventValue:  func(p model.Preferences) string { return string(p.Theme) },
		FailureMsg:  "Could not change the theme. Please try again.",
	})
}

// SettingsSetLanguage persists a language change immediately.
// POST /settings/language.
func (h *UIHandlers) SettingsSetLanguage(w http.ResponseWriter, r *http.Request) {
	h.writeThroughSetting(w, r, writeThroughSetting{
		Apply: func(ctx context.Context, userID string) (model.Preferences, error) {
			req := model.SetLanguageRequest{Language: model.Language(r.PostFormValue("language"))}
			return h.Prefs.SetLanguage(ctx, userID, req)
		},
		ClientEvent: "applyLanguage",
		EventValue:  func(p model.Preferences) string { return string(p.Language) },
		FailureMsg:  "Could not change the language. Please try again.",
	})
}

// SettingsSave persists the explicitly saved section: notification toggles
// and auto logout. Success and failure both surface a toast, and the form is
// re-rendered on every path so the save button never stays stuck in its
// saving state.
// POST /settings.
func (h *UIHandlers) SettingsSave(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())
	if session == nil || h.Prefs == nil {
		h.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		triggerToast(w, "Could not save settings. Please try again.", "error")
		h.renderSettingsForm(w, r, session.UserID)
		return
	}

	req := model.UpdatePreferencesRequest{
		Notifications: model.NotificationSettings{
			Email: r.PostFormValue("notify_email") == "on",
			Push:  r.PostFormValue("notify_push") == "on",
			InApp: r.PostFormValue("notify_in_app") == "on",
		},
		AutoLogout: r.PostFormValue("auto_logout") == "on",
	}

	prefs, err := h.Prefs.SaveSettings(r.Context(), session.UserID, req)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "settings save failed", "error", err)
		triggerToast(w, "Could not save settings. Please try again.", "error")
		h.renderSettingsForm(w, r, session.UserID)
		return
	}

	triggerToast(w, "Settings saved.", "success")
	data := map[string]any{"CSRFToken": GetCSRFToken(r)}
	addPreferenceData(data, prefs)
	h.renderFragment(w, r, "settings-form", data)
}

// writeThroughSetting groups the parts of an immediately persisted setting.
type writeThroughSetting struct {
	Apply       func(ctx context.Context, userID string) (model.Preferences, error)
	ClientEvent string
	EventValue  func(model.Preferences) string
	FailureMsg  string
}

// writeThroughSetting applies a theme/language change. These save on change
// with no explicit save step: success is silent apart from the client event
// that applies the new value, failure gets a toast.
func (h *UIHandlers) writeThroughSetting(w http.ResponseWriter, r *http.Request, s writeThroughSetting) {
	session := GetSessionFromContext(r.Context())
	if session == nil || h.Prefs == nil {
		h.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		triggerToast(w, s.FailureMsg, "error")
		h.renderSettingsForm(w, r, session.UserID)
		return
	}

	prefs, err := s.Apply(r.Context(), session.UserID)
	if err != nil {
		h.logger().WarnContext(r.Context(), "preference write-through failed", "error", err)
		triggerToast(w, s.FailureMsg, "error")
		h.renderSettingsForm(w, r, session.UserID)
		return
	}

	SetHXTrigger(w, s.ClientEvent, map[string]string{"value": s.EventValue(prefs)})
	data := map[string]any{"CSRFToken": GetCSRFToken(r)}
	addPreferenceData(data, prefs)
	h.renderFragment(w, r, "settings-form", data)
}

// renderSettingsForm re-renders the form from the stored state.
func (h *UIHandlers) renderSettingsForm(w http.ResponseWriter, r *http.Request, userID string) {
	prefs := model.DefaultPreferences()
	if loaded, err := h.Prefs.Get(r.Context(), userID); err == nil {
		prefs = loaded
	}
	data := map[string]any{"CSRFToken": GetCSRFToken(r)}
	addPreferenceData(data, prefs)
	h.renderFragment(w, r, "settings-form", data)
}

// addPreferenceData flattens preferences into template fields.
func addPreferenceData(data map[string]any, prefs model.Preferences) {
	data["Prefs"] = prefs
	data["Theme"] = string(prefs.Theme)
	data["Language"] = string(prefs.Language)
	data["NotifyEmail"] = prefs.Notifications.Email
	data["NotifyPush"] = prefs.Notifications.Push
	data["NotifyInApp"] = prefs.Notifications.InApp
	data["AutoLogout"] = prefs.AutoLogout
	data["Themes"] = []string{string(model.ThemeLight), string(model.ThemeDark), string(model.ThemeSystem)}
	data["Languages"] = []string{string(model.LanguageVietnamese), string(model.LanguageEnglish)}
}
