// ABOUTME: Theme and Settings value types plus the stored-file migration
// ABOUTME: Unknown theme strings decode to ThemeSystem rather than failing

package settings

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidTheme is returned when setting a theme that is not one of the
// known values.
var ErrInvalidTheme = errors.New("invalid theme")

// CurrentVersion is the settings schema version written by this build.
const CurrentVersion = 1

// Theme is the display theme preference.
type Theme string

const (
	ThemeLight  Theme = "LIGHT"
	ThemeDark   Theme = "DARK"
	ThemeSystem Theme = "SYSTEM"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	}
	return false
}

// ParseTheme decodes a stored theme, case-insensitively. Anything unknown
// is ThemeSystem.
func ParseTheme(s string) Theme {
	t, err := ParseThemeStrict(s)
	if err != nil {
		return ThemeSystem
	}
	return t
}

// ParseThemeStrict is ParseTheme for user input: unknown values are an error.
func ParseThemeStrict(s string) (Theme, error) {
	t := Theme(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTheme, s)
	}
	return t, nil
}

// Settings is the resolved view of every preference.
type Settings struct {
	Theme                 Theme     `json:"theme"`
	NotificationsEnabled  bool      `json:"notifications_enabled"`
	MessagePreviewEnabled bool      `json:"message_preview_enabled"`
	SoundEnabled          bool      `json:"sound_enabled"`
	VibrationEnabled      bool      `json:"vibration_enabled"`
	LastSync              time.Time `json:"last_sync"`
	Version               int       `json:"version"`
}

// Defaults returns the settings used for every missing key.
func Defaults() Settings {
	return Settings{
		Theme:                 ThemeSystem,
		NotificationsEnabled:  true,
		MessagePreviewEnabled: true,
		SoundEnabled:          true,
		VibrationEnabled:      true,
		LastSync:              time.UnixMilli(0),
		Version:               CurrentVersion,
	}
}

// fileData is the on-disk key/value layout. A nil field is an absent key.
type fileData struct {
	Theme          *string `toml:"theme_preference"`
	Notifications  *bool   `toml:"notifications_enabled"`
	MessagePreview *bool   `toml:"message_preview_enabled"`
	Sound          *bool   `toml:"sound_enabled"`
	Vibration      *bool   `toml:"vibration_enabled"`
	LastSync       *int64  `toml:"last_sync_timestamp"`
	Version        *int    `toml:"settings_version"`
}

// resolve fills absent keys with defaults.
func (fd fileData) resolve() Settings {
	s := Defaults()
	if fd.Theme != nil {
		s.Theme = ParseTheme(*fd.Theme)
	}
	if fd.Notifications != nil {
		s.NotificationsEnabled = *fd.Notifications
	}
	if fd.MessagePreview != nil {
		s.MessagePreviewEnabled = *fd.MessagePreview
	}
	if fd.Sound != nil {
		s.SoundEnabled = *fd.Sound
	}
	if fd.Vibration != nil {
		s.VibrationEnabled = *fd.Vibration
	}
	if fd.LastSync != nil {
		s.LastSync = time.UnixMilli(*fd.LastSync)
	}
	if fd.Version != nil {
		s.Version = *fd.Version
	} else {
		s.Version = 0
	}
	return s
}

// migrate brings stored data to CurrentVersion. Below version 1 the theme
// and notification keys are filled in if missing. Existing values are never
// overwritten and migrating twice changes nothing. Reports whether anything
// changed.
func migrate(fd fileData) (fileData, bool) {
	if fd.Version != nil && *fd.Version >= CurrentVersion {
		return fd, false
	}
	if fd.Theme == nil {
		fd.Theme = ptr(string(ThemeSystem))
	}
	if fd.Notifications == nil {
		fd.Notifications = ptr(true)
	}
	fd.Version = ptr(CurrentVersion)
	return fd, true
}

func ptr[T any](v T) *T {
	return &v
}
