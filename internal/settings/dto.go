package settings

import (
	"github.com/PatrickWalther/unfollow-watch-go/internal/constants"
)

// Settings are the user-tunable options shown in the settings panel.
type Settings struct {
	RefreshIntervalMinutes int    `json:"refreshIntervalMinutes" validate:"required|min:1|max:1440"`
	NotificationsEnabled   bool   `json:"notificationsEnabled"`
	CloseToTray            bool   `json:"closeToTray"`
	Theme                  string `json:"theme" validate:"required"`
	AccentColor            string `json:"accentColor" validate:"regex:^#[0-9a-fA-F]{6}$"`
	AutoUnfollow           bool   `json:"autoUnfollow"`
}

func Defaults() Settings {
	return Settings{
		RefreshIntervalMinutes: constants.DefaultRefreshIntervalMinutes,
		NotificationsEnabled:   true,
		CloseToTray:            true,
		Theme:                  "dark",
		AccentColor:            "#0366d6",
		AutoUnfollow:           false,
	}
}

// Patch is a partial settings update.
// Only non-nil fields are applied; pointer fields distinguish "unset" from
// "false"/zero values.
type Patch struct {
	RefreshIntervalMinutes *int    `json:"refreshIntervalMinutes,omitempty"`
	NotificationsEnabled   *bool   `json:"notificationsEnabled,omitempty"`
	CloseToTray            *bool   `json:"closeToTray,omitempty"`
	Theme                  *string `json:"theme,omitempty"`
	AccentColor            *string `json:"accentColor,omitempty"`
	AutoUnfollow           *bool   `json:"autoUnfollow,omitempty"`
}

// Apply overlays the non-nil fields of p onto s.
func (s Settings) Apply(p Patch) Settings {
	if p.RefreshIntervalMinutes != nil {
		s.RefreshIntervalMinutes = *p.RefreshIntervalMinutes
	}
	if p.NotificationsEnabled != nil {
		s.NotificationsEnabled = *p.NotificationsEnabled
	}
	if p.CloseToTray != nil {
		s.CloseToTray = *p.CloseToTray
	}
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.AccentColor != nil {
		s.AccentColor = *p.AccentColor
	}
	if p.AutoUnfollow != nil {
		s.AutoUnfollow = *p.AutoUnfollow
	}
	return s
}

// IsEmpty reports whether the patch sets no field at all.
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

// ToPatch converts full settings into a patch with every field populated.
func (s Settings) ToPatch() Patch {
	return Patch{
		RefreshIntervalMinutes: &s.RefreshIntervalMinutes,
		NotificationsEnabled:   &s.NotificationsEnabled,
		CloseToTray:            &s.CloseToTray,
		Theme:                  &s.Theme,
		AccentColor:            &s.AccentColor,
		AutoUnfollow:           &s.AutoUnfollow,
	}
}
