// ABOUTME: Tests for settings handlers
// ABOUTME: Covers reading defaults, theme validation and the notifications toggle

package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/cheatsignal/internal/settings"
)

func TestGetSettings_Defaults(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decodeJSON[settings.Settings](t, rec)
	assert.Equal(t, settings.ThemeSystem, got.Theme)
	assert.True(t, got.NotificationsEnabled)
}

func TestSetTheme(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/api/settings/theme", SetThemeRequest{Theme: "dark"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, settings.ThemeDark, decodeJSON[settings.Settings](t, rec).Theme)
	assert.Equal(t, settings.ThemeDark, env.settings.Theme())
}

func TestSetTheme_RejectsUnknown(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/api/settings/theme", SetThemeRequest{Theme: "sepia"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeJSON[errorResponse](t, rec)
	assert.Equal(t, "validation failed", resp.Error)
	assert.Contains(t, resp.Fields, "theme")
	assert.Equal(t, settings.ThemeSystem, env.settings.Theme())
}

func TestSetNotifications(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/api/settings/notifications", map[string]bool{"enabled": false})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeJSON[settings.Settings](t, rec).NotificationsEnabled)
	assert.False(t, env.settings.NotificationsEnabled())

	rec = env.do(t, http.MethodPut, "/api/settings/notifications", map[string]string{"enabled": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/settings/notifications", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeJSON[errorResponse](t, rec).Fields, "enabled")
}
