// ABOUTME: Tests for the TOML-backed preference store
// ABOUTME: Covers defaults, round trips, migration, corrupt files, watchers and Follow

package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSettings(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.toml")
	s := Open(path, nil)
	t.Cleanup(s.Close)
	return s, path
}

func writeRaw(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestStore_DefaultsWhenFileMissing(t *testing.T) {
	s, _ := newTestSettings(t)

	got := s.Settings()
	assert.Equal(t, ThemeSystem, got.Theme)
	assert.True(t, got.NotificationsEnabled)
	assert.True(t, got.MessagePreviewEnabled)
	assert.True(t, got.SoundEnabled)
	assert.True(t, got.VibrationEnabled)
	assert.Equal(t, int64(0), got.LastSync.UnixMilli())
	assert.Equal(t, CurrentVersion, got.Version)
}

func TestStore_ThemeRoundTrip(t *testing.T) {
	for _, theme := range []Theme{ThemeLight, ThemeDark, ThemeSystem} {
		t.Run(string(theme), func(t *testing.T) {
			s, path := newTestSettings(t)
			require.NoError(t, s.SetTheme(t.Context(), theme))
			assert.Equal(t, theme, s.Theme())

			reopened := Open(path, nil)
			defer reopened.Close()
			assert.Equal(t, theme, reopened.Theme())
		})
	}
}

func TestStore_SetThemeRejectsUnknown(t *testing.T) {
	s, _ := newTestSettings(t)

	err := s.SetTheme(t.Context(), Theme("PURPLE"))
	assert.ErrorIs(t, err, ErrInvalidTheme)
	assert.Equal(t, ThemeSystem, s.Theme())
}

func TestStore_InvalidStoredThemeReadsAsSystem(t *testing.T) {
	s, path := newTestSettings(t)
	writeRaw(t, path, "theme_preference = \"neon\"\nsettings_version = 1\n")

	assert.Equal(t, ThemeSystem, s.Theme())
}

func TestStore_StoredThemeIsCaseInsensitive(t *testing.T) {
	s, path := newTestSettings(t)
	writeRaw(t, path, "theme_preference = \"dark\"\nsettings_version = 1\n")

	assert.Equal(t, ThemeDark, s.Theme())
}

func TestStore_KeysAreIndependent(t *testing.T) {
	s, path := newTestSettings(t)
	ctx := t.Context()

	require.NoError(t, s.SetNotificationsEnabled(ctx, false))
	require.NoError(t, s.SetTheme(ctx, ThemeDark))
	require.NoError(t, s.SetSoundEnabled(ctx, false))
	require.NoError(t, s.SetVibrationEnabled(ctx, false))
	require.NoError(t, s.SetMessagePreviewEnabled(ctx, false))
	synced := time.UnixMilli(1_700_000_000_000)
	require.NoError(t, s.MarkSynced(ctx, synced))

	reopened := Open(path, nil)
	defer reopened.Close()
	got := reopened.Settings()
	assert.Equal(t, ThemeDark, got.Theme)
	assert.False(t, got.NotificationsEnabled)
	assert.False(t, got.SoundEnabled)
	assert.False(t, got.VibrationEnabled)
	assert.False(t, got.MessagePreviewEnabled)
	assert.Equal(t, synced.UnixMilli(), got.LastSync.UnixMilli())
}

func TestStore_MigrationFillsMissingKeysOnly(t *testing.T) {
	s, path := newTestSettings(t)
	writeRaw(t, path, "notifications_enabled = false\n")

	got := s.Settings()
	assert.Equal(t, ThemeSystem, got.Theme)
	assert.False(t, got.NotificationsEnabled, "existing value kept")
	assert.Equal(t, 1, got.Version)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `theme_preference = "SYSTEM"`)
	assert.Contains(t, string(raw), "settings_version = 1")
}

func TestStore_CorruptFileFallsBackToDefaults(t *testing.T) {
	s, path := newTestSettings(t)
	writeRaw(t, path, "this is = = not toml")

	assert.Equal(t, Defaults(), s.Settings())
}

func TestStore_WriteAfterCorruptFileKeepsFullShape(t *testing.T) {
	s, path := newTestSettings(t)
	writeRaw(t, path, "this is = = not toml")
	require.Equal(t, Defaults(), s.Settings())

	require.NoError(t, s.SetSoundEnabled(t.Context(), false))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "settings_version = 1")
	assert.Contains(t, string(raw), `theme_preference = "SYSTEM"`)
	assert.Contains(t, string(raw), "sound_enabled = false")
}

func TestStore_WriteAfterReadFaultKeepsStoredKeys(t *testing.T) {
	s, path := newTestSettings(t)

	// A directory where the file should be makes the first read fail.
	require.NoError(t, os.Mkdir(path, 0o755))
	require.Equal(t, Defaults(), s.Settings())
	assert.Error(t, s.SetTheme(t.Context(), ThemeDark), "no write while the file is unreadable")

	require.NoError(t, os.Remove(path))
	writeRaw(t, path, "notifications_enabled = false\nsound_enabled = false\nsettings_version = 1\n")

	require.NoError(t, s.SetTheme(t.Context(), ThemeDark))

	reopened := Open(path, nil)
	defer reopened.Close()
	got := reopened.Settings()
	assert.Equal(t, ThemeDark, got.Theme)
	assert.False(t, got.NotificationsEnabled, "key stored before the fault survives")
	assert.False(t, got.SoundEnabled, "key stored before the fault survives")
	assert.Equal(t, got, s.Settings())
}

func TestStore_ReloadNeverRevertsConcurrentSetter(t *testing.T) {
	s, path := newTestSettings(t)
	ctx := t.Context()
	require.NoError(t, s.SetTheme(ctx, ThemeLight))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 50 {
			s.reload()
		}
	}()
	for i := range 50 {
		theme := ThemeLight
		if i%2 == 0 {
			theme = ThemeDark
		}
		require.NoError(t, s.SetTheme(ctx, theme))
	}
	<-done

	onDisk := Open(path, nil)
	defer onDisk.Close()
	assert.Equal(t, onDisk.Theme(), s.Theme(), "memory matches the file once writers settle")
	assert.Equal(t, ThemeLight, s.Theme())
}

func TestStore_CancelledContext(t *testing.T) {
	s, path := newTestSettings(t)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	assert.ErrorIs(t, s.SetTheme(ctx, ThemeDark), context.Canceled)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "nothing written")
}

func TestStore_WatchThemeEmitsChangesOnly(t *testing.T) {
	s, _ := newTestSettings(t)
	ctx := t.Context()

	themes := s.WatchTheme(ctx)
	assert.Equal(t, ThemeSystem, recvTheme(t, themes))

	// A change to another key does not produce a theme update.
	require.NoError(t, s.SetSoundEnabled(ctx, false))
	require.NoError(t, s.SetTheme(ctx, ThemeLight))
	assert.Equal(t, ThemeLight, recvTheme(t, themes))

	select {
	case v := <-themes:
		t.Fatalf("unexpected extra theme %q", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStore_WatchNotifications(t *testing.T) {
	s, _ := newTestSettings(t)
	ctx := t.Context()

	ch := s.WatchNotifications(ctx)
	assert.True(t, <-ch)

	require.NoError(t, s.SetNotificationsEnabled(ctx, false))
	select {
	case v := <-ch:
		assert.False(t, v)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notifications update")
	}
}

func TestStore_FollowPicksUpExternalEdits(t *testing.T) {
	s, path := newTestSettings(t)
	ctx := t.Context()

	require.NoError(t, s.SetTheme(ctx, ThemeLight))
	require.NoError(t, s.Follow(ctx))
	themes := s.WatchTheme(ctx)
	assert.Equal(t, ThemeLight, recvTheme(t, themes))

	writeRaw(t, path, "theme_preference = \"DARK\"\nsettings_version = 1\n")

	assert.Equal(t, ThemeDark, recvTheme(t, themes))
	assert.Equal(t, ThemeDark, s.Theme())
}

func recvTheme(t *testing.T, ch <-chan Theme) Theme {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for theme")
		return ""
	}
}

func TestParseTheme(t *testing.T) {
	assert.Equal(t, ThemeLight, ParseTheme("light"))
	assert.Equal(t, ThemeDark, ParseTheme(" DARK "))
	assert.Equal(t, ThemeSystem, ParseTheme(""))
	assert.Equal(t, ThemeSystem, ParseTheme("sepia"))

	_, err := ParseThemeStrict("sepia")
	assert.ErrorIs(t, err, ErrInvalidTheme)
}

var storedThemes = []string{"LIGHT", "DARK", "SYSTEM", "bogus"}

// genFileData builds stored data where each key may be absent.
func genFileData(hasTheme bool, themeIdx int, hasNotify, notify, hasVersion bool, version int) fileData {
	var fd fileData
	if hasTheme {
		fd.Theme = ptr(storedThemes[themeIdx])
	}
	if hasNotify {
		fd.Notifications = ptr(notify)
	}
	if hasVersion {
		fd.Version = ptr(version)
	}
	return fd
}

func TestMigrate_Idempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	gens := []gopter.Gen{
		gen.Bool(), gen.IntRange(0, len(storedThemes)-1),
		gen.Bool(), gen.Bool(),
		gen.Bool(), gen.IntRange(-1, 3),
	}

	properties.Property("migrating twice equals migrating once", prop.ForAll(
		func(hasTheme bool, themeIdx int, hasNotify, notify, hasVersion bool, version int) bool {
			fd := genFileData(hasTheme, themeIdx, hasNotify, notify, hasVersion, version)
			once, _ := migrate(fd)
			twice, changed := migrate(once)
			return !changed && twice.resolve() == once.resolve()
		},
		gens...,
	))

	properties.Property("migration never overwrites a stored value", prop.ForAll(
		func(hasTheme bool, themeIdx int, hasNotify, notify, hasVersion bool, version int) bool {
			fd := genFileData(hasTheme, themeIdx, hasNotify, notify, hasVersion, version)
			out, _ := migrate(fd)
			if fd.Theme != nil && *out.Theme != *fd.Theme {
				return false
			}
			if fd.Notifications != nil && *out.Notifications != *fd.Notifications {
				return false
			}
			return out.Version != nil && *out.Version >= CurrentVersion
		},
		gens...,
	))

	properties.TestingRun(t)
}
