package models

// WorkApp is a registered application whose foreground presence starts the timer.
// Identity is the matching key (a keyword or a lowercase executable name);
// Label is display-only.
type WorkApp struct {
	Identity string `json:"identity"`
	Label    string `json:"label"`
}

// UserConfig is the persisted per-user state: the work app list, alert
// settings and the running total for the current day.
type UserConfig struct {
	WorkApps           []WorkApp `json:"work_apps"`
	ColorAlert         bool      `json:"color_alert"`
	AlertMinutes       int       `json:"alert_minutes"`
	AlwaysOnTop        bool      `json:"always_on_top"`
	StartMinimized     bool      `json:"start_minimized"`
	OnboardingComplete bool      `json:"onboarding_complete"`
	TodayTotalSeconds  int64     `json:"today_total_seconds"`
	LastActiveDate     string    `json:"last_active_date"`
}

const (
	DefaultAlertMinutes = 30
	MinAlertMinutes     = 1
	MaxAlertMinutes     = 120
)

// DefaultUserConfig returns the state used when nothing has been persisted yet.
func DefaultUserConfig() UserConfig {
	return UserConfig{
		WorkApps:     []WorkApp{},
		ColorAlert:   true,
		AlertMinutes: DefaultAlertMinutes,
		AlwaysOnTop:  true,
	}
}

// Clone returns a copy that shares no slices with c.
func (c UserConfig) Clone() UserConfig {
	out := c
	out.WorkApps = make([]WorkApp, len(c.WorkApps))
	copy(out.WorkApps, c.WorkApps)
	return out
}

// SettingsPatch is a partial settings update. Nil fields are left untouched.
type SettingsPatch struct {
	ColorAlert         *bool `json:"colorAlert,omitempty"`
	AlertMinutes       *int  `json:"alertMinutes,omitempty"`
	AlwaysOnTop        *bool `json:"alwaysOnTop,omitempty"`
	StartMinimized     *bool `json:"startMinimized,omitempty"`
	OnboardingComplete *bool `json:"onboardingComplete,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p SettingsPatch) IsEmpty() bool {
	return p.ColorAlert == nil && p.AlertMinutes == nil && p.AlwaysOnTop == nil &&
		p.StartMinimized == nil && p.OnboardingComplete == nil
}
