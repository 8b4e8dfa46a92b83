//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"encoding/json"
	"errors"
	"time"
)

// PreferencesVersion is the current schema version of the stored preference
// document. Bump when the document shape changes.
const PreferencesVersion = 1

// Theme controls the dashboard color scheme.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// Valid reports whether the theme value is supported.
func (t Theme) Valid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	default:
		return false
	}
}

// Language is the UI language code.
type Language string

const (
	LanguageVietnamese Language = "vi"
	LanguageEnglish    Language = "en"
)

// Valid reports whether the language code is supported.
func (l Language) Valid() bool {
	switch l {
	case LanguageVietnamese, LanguageEnglish:
		return true
	default:
		return false
	}
}

// NotificationSettings holds the per-channel notification toggles.
type NotificationSettings struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
	InApp bool `json:"inApp"`
}

// Preferences is the composite per-user preference document. It is stored as
// a single versioned JSON value so every read observes one consistent record.
type Preferences struct {
	Version       int                  `json:"version"`
	Theme         Theme                `json:"theme"`
	Language      Language             `json:"language"`
	Notifications NotificationSettings `json:"notificationSettings"`
	AutoLogout    bool                 `json:"autoLogout"`
}

// PreferenceRecord is the persisted row wrapping a Preferences document.
type PreferenceRecord struct {
	UserID    string    `json:"user_id"    db:"user_id"`
	Doc       string    `json:"doc"        db:"doc"`
	Version   int       `json:"version"    db:"version"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultPreferences returns the document every user starts from and the
// fallback when a stored document cannot be decoded.
func DefaultPreferences() Preferences {
	return Preferences{
		Version:  PreferencesVersion,
		Theme:    ThemeSystem,
		Language: LanguageVietnamese,
		Notifications: NotificationSettings{
			Email: true,
			Push:  true,
			InApp: true,
		},
		AutoLogout: false,
	}
}

// DecodePreferences parses a stored document. Malformed JSON or invalid
// field values fall back to defaults field by field; the caller never sees
// an error, matching the policy that a corrupt record must not break the
// settings page.
func DecodePreferences(doc string) Preferences {
	defaults := DefaultPreferences()
	if doc == "" {
		return defaults
	}

	var raw struct {
		Version       *int             `json:"version"`
		Theme         *string          `json:"theme"`
		Language      *string          `json:"language"`
		Notifications *json.RawMessage `json:"notificationSettings"`
		AutoLogout    *bool            `json:"autoLogout"`
	}
	if err := json.Unmarshal([]byte(doc), &raw); err != nil {
		return defaults
	}

	p := defaults
	if raw.Theme != nil && Theme(*raw.Theme).Valid() {
		p.Theme = Theme(*raw.Theme)
	}
	if raw.Language != nil && Language(*raw.Language).Valid() {
		p.Language = Language(*raw.Language)
	}
	if raw.Notifications != nil {
		var ns NotificationSettings
		if err := json.Unmarshal(*raw.Notifications, &ns); err == nil {
			p.Notifications = ns
		}
	}
	if raw.AutoLogout != nil {
		p.AutoLogout = *raw.AutoLogout
	}
	return p
}

// Encode marshals the document for storage, stamping the current version.
func (p Preferences) Encode() (string, error) {
	p.Version = PreferencesVersion
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// UpdatePreferencesRequest carries the explicitly saved settings section
// (notification toggles and auto logout). Theme and language change through
// their own write-through requests.
type UpdatePreferencesRequest struct {
	Notifications NotificationSettings `json:"notificationSettings"`
	AutoLogout    bool                 `json:"autoLogout"`
}

// SetThemeRequest changes the theme immediately.
type SetThemeRequest struct {
	Theme Theme `json:"theme"`
}

// Validate validates SetThemeRequest.
func (r *SetThemeRequest) Validate() error {
	if !r.Theme.Valid() {
		return errors.New("invalid theme")
	}
	return nil
}

// SetLanguageRequest changes the language immediately.
type SetLanguageRequest struct {
	Language Language `json:"language"`
}

// Validate validates SetLanguageRequest.
func (r *SetLanguageRequest) Validate() error {
	if !r.Language.Valid() {
		return errors.New("invalid language")
	}
	return nil
}
