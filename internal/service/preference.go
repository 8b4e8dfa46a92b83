package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/msccenter/hrm-ui/internal/core"
	"github.com/msccenter/hrm-ui/internal/data"
	"github.com/msccenter/hrm-ui/internal/domain/model"
)

// PreferenceServiceOptions groups dependencies for PreferenceService.
type PreferenceServiceOptions struct {
	Prefs  core.PreferenceRepository
	Logger *slog.Logger
}

// PreferenceService reads and writes per-user dashboard preferences. Theme
// and language changes write through immediately; notification toggles and
// auto logout are saved together through SaveSettings.
type PreferenceService struct {
	prefs  core.PreferenceRepository
	logger *slog.Logger
}

// NewPreferenceService constructs a new PreferenceService.
func NewPreferenceService(opts PreferenceServiceOptions) *PreferenceService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PreferenceService{prefs: opts.Prefs, logger: logger}
}

// Get returns the user's preferences. Users without a stored record get the
// defaults, and a record that cannot be decoded also falls back to defaults
// so the settings page always renders.
func (s *PreferenceService) Get(ctx context.Context, userID string) (model.Preferences, error) {
	if userID == "" {
		return model.DefaultPreferences(), errors.New("user ID is required")
	}

	rec, err := s.prefs.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, data.ErrPreferencesNotFound) {
			return model.DefaultPreferences(), nil
		}
		return model.DefaultPreferences(), fmt.Errorf("load preferences: %w", err)
	}
	return model.DecodePreferences(rec.Doc), nil
}

// SaveSettings stores the explicitly saved settings section: notification
// toggles and auto logout. Theme and language are left as they are.
func (s *PreferenceService) SaveSettings(
	ctx context.Context,
	userID string,
	req model.UpdatePreferencesRequest,
) (model.Preferences, error) {
	return s.update(ctx, userID, func(p *model.Preferences) {
		p.Notifications = req.Notifications
		p.AutoLogout = req.AutoLogout
	})
}

// SetTheme changes the theme and persists it immediately.
func (s *PreferenceService) SetTheme(
	ctx context.Context,
	userID string,
	req model.SetThemeRequest,
) (model.Preferences, error) {
	if err := req.Validate(); err != nil {
		return model.DefaultPreferences(), err
	}
	return s.update(ctx, userID, func(p *model.Preferences) {
		p.Theme = req.Theme
	})
}

// SetLanguage changes the UI language and persists it immediately.
func (s *PreferenceService) SetLanguage(
	ctx context.Context,
	userID string,
	req model.SetLanguageRequest,
) (model.Preferences, error) {
	if err := req.Validate(); err != nil {
		return model.DefaultPreferences(), err
	}
	return s.update(ctx, userID, func(p *model.Preferences) {
		p.Language = req.Language
	})
}

// update applies mutate to the current document and replaces the stored
// record. The read side is fail-soft, so a corrupt document is repaired to
// defaults-plus-change on the next write.
func (s *PreferenceService) update(
	ctx context.Context,
	userID string,
	mutate func(*model.Preferences),
) (model.Preferences, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return current, err
	}

	mutate(&current)

	doc, err := current.Encode()
	if err != nil {
		return current, fmt.Errorf("encode preferences: %w", err)
	}
	if _, err := s.prefs.Upsert(ctx, userID, doc, model.PreferencesVersion); err != nil {
		return current, fmt.Errorf("save preferences: %w", err)
	}

	s.logger.DebugContext(ctx, "preferences updated", "user_id", userID)
	return current, nil
}
