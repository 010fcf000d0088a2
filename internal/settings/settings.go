// Package settings is the validation boundary for user-facing configuration.
// Every mutation of the work app list or alert settings passes through here,
// so values reaching the timer are already in range.
package settings

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/worktimer/worktimer/internal/matcher"
	"github.com/worktimer/worktimer/internal/models"
)

var (
	ErrDuplicateApp         = errors.New("work app already registered")
	ErrAppNotFound          = errors.New("work app not found")
	ErrEmptyIdentity        = errors.New("work app identity is empty")
	ErrInvalidAlertInterval = errors.Errorf("alert interval must be between %d and %d minutes",
		models.MinAlertMinutes, models.MaxAlertMinutes)
)

// AddApp appends a work app keyed by the strategy's normalized identity.
// An empty label is replaced by the strategy's default label.
func AddApp(cfg *models.UserConfig, s matcher.Strategy, identity, label string) (models.WorkApp, error) {
	key := s.Normalize(identity)
	if key == "" {
		return models.WorkApp{}, ErrEmptyIdentity
	}
	if IndexOf(cfg.WorkApps, key) >= 0 {
		return models.WorkApp{}, errors.Wrapf(ErrDuplicateApp, "%q", key)
	}

	label = strings.TrimSpace(label)
	if label == "" {
		label = s.DefaultLabel(identity)
	}

	app := models.WorkApp{Identity: key, Label: label}
	cfg.WorkApps = append(cfg.WorkApps, app)
	return app, nil
}

// RemoveApp deletes the work app with the given identity and returns it.
func RemoveApp(cfg *models.UserConfig, s matcher.Strategy, identity string) (models.WorkApp, error) {
	key := s.Normalize(identity)
	idx := IndexOf(cfg.WorkApps, key)
	if key == "" || idx < 0 {
		return models.WorkApp{}, errors.Wrapf(ErrAppNotFound, "%q", identity)
	}

	removed := cfg.WorkApps[idx]
	cfg.WorkApps = append(cfg.WorkApps[:idx:idx], cfg.WorkApps[idx+1:]...)
	return removed, nil
}

// IndexOf returns the position of identity in apps, or -1.
func IndexOf(apps []models.WorkApp, identity string) int {
	for i, app := range apps {
		if strings.EqualFold(app.Identity, identity) {
			return i
		}
	}
	return -1
}

// Apply validates the whole patch and only then mutates cfg.
func Apply(cfg *models.UserConfig, patch models.SettingsPatch) error {
	if patch.AlertMinutes != nil {
		if err := ValidateAlertMinutes(*patch.AlertMinutes); err != nil {
			return err
		}
	}

	if patch.ColorAlert != nil {
		cfg.ColorAlert = *patch.ColorAlert
	}
	if patch.AlertMinutes != nil {
		cfg.AlertMinutes = *patch.AlertMinutes
	}
	if patch.AlwaysOnTop != nil {
		cfg.AlwaysOnTop = *patch.AlwaysOnTop
	}
	if patch.StartMinimized != nil {
		cfg.StartMinimized = *patch.StartMinimized
	}
	if patch.OnboardingComplete != nil {
		cfg.OnboardingComplete = *patch.OnboardingComplete
	}
	return nil
}

func ValidateAlertMinutes(minutes int) error {
	if minutes < models.MinAlertMinutes || minutes > models.MaxAlertMinutes {
		return errors.Wrapf(ErrInvalidAlertInterval, "got %d", minutes)
	}
	return nil
}

func ClampAlertMinutes(minutes int) int {
	if minutes < models.MinAlertMinutes {
		return models.MinAlertMinutes
	}
	if minutes > models.MaxAlertMinutes {
		return models.MaxAlertMinutes
	}
	return minutes
}

// Sanitize repairs state read from storage: the alert interval is clamped,
// identities are normalized, and empty or duplicate entries are dropped
// keeping the first occurrence.
func Sanitize(cfg *models.UserConfig, s matcher.Strategy) {
	cfg.AlertMinutes = ClampAlertMinutes(cfg.AlertMinutes)
	if cfg.TodayTotalSeconds < 0 {
		cfg.TodayTotalSeconds = 0
	}

	apps := make([]models.WorkApp, 0, len(cfg.WorkApps))
	for _, app := range cfg.WorkApps {
		key := s.Normalize(app.Identity)
		if key == "" || IndexOf(apps, key) >= 0 {
			continue
		}
		label := strings.TrimSpace(app.Label)
		if label == "" {
			label = s.DefaultLabel(app.Identity)
		}
		apps = append(apps, models.WorkApp{Identity: key, Label: label})
	}
	cfg.WorkApps = apps
}

// RollOver zeroes the daily total when the last active date is not today.
// It is checked once at startup; a day boundary crossed while running is
// picked up on the next start.
func RollOver(cfg *models.UserConfig, now time.Time) bool {
	today := models.Today(now)
	if cfg.LastActiveDate == today {
		return false
	}
	cfg.TodayTotalSeconds = 0
	cfg.LastActiveDate = today
	return true
}
