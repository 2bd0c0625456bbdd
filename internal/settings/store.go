// ABOUTME: Preference store backed by a TOML key/value file
// ABOUTME: Lazy first read, one-time migration, per-key setters and watch streams

package settings

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/2389/cheatsignal/internal/broadcast"
)

const watchKey = "settings"

// errCorrupt marks a settings file that exists but cannot be decoded.
var errCorrupt = errors.New("settings file is corrupt")

// Store owns the preferences file. Reads are served from memory after the
// first access; every setter rewrites the file before returning.
type Store struct {
	path   string
	logger *slog.Logger

	mu     sync.Mutex
	loaded bool
	// fault is the last read failure. While set, data holds no stored keys
	// and must not be written back as is.
	fault   error
	data    fileData
	current Settings
	migrate sync.Once

	hub *broadcast.Broadcaster[Settings]
}

// Open returns a store for the file at path. Nothing is read until the
// first access. Pass nil logger for default.
func Open(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "settings")
	return &Store{
		path:   path,
		logger: logger,
		hub:    broadcast.New[Settings](logger),
	}
}

// Path returns the preferences file location.
func (s *Store) Path() string {
	return s.path
}

// Settings returns every preference, defaults substituted for missing keys.
func (s *Store) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()
	return s.current
}

// Theme returns the theme preference.
func (s *Store) Theme() Theme {
	return s.Settings().Theme
}

// NotificationsEnabled returns the notifications preference.
func (s *Store) NotificationsEnabled() bool {
	return s.Settings().NotificationsEnabled
}

// Watch streams the settings, starting with the current value. The channel
// closes when ctx is done or the store is closed.
func (s *Store) Watch(ctx context.Context) <-chan Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()
	ch, _ := s.hub.Subscribe(ctx, watchKey, s.current)
	return ch
}

// WatchTheme streams the theme, emitting only when it changes.
func (s *Store) WatchTheme(ctx context.Context) <-chan Theme {
	return project(ctx, s.Watch(ctx), func(v Settings) Theme { return v.Theme })
}

// WatchNotifications streams the notifications flag, emitting only when it
// changes.
func (s *Store) WatchNotifications(ctx context.Context) <-chan bool {
	return project(ctx, s.Watch(ctx), func(v Settings) bool { return v.NotificationsEnabled })
}

// SetTheme persists the theme preference.
func (s *Store) SetTheme(ctx context.Context, t Theme) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, string(t))
	}
	return s.update(ctx, func(fd *fileData) { fd.Theme = ptr(string(t)) })
}

// SetNotificationsEnabled persists the notifications preference.
func (s *Store) SetNotificationsEnabled(ctx context.Context, enabled bool) error {
	return s.update(ctx, func(fd *fileData) { fd.Notifications = ptr(enabled) })
}

// SetMessagePreviewEnabled persists the message preview preference.
func (s *Store) SetMessagePreviewEnabled(ctx context.Context, enabled bool) error {
	return s.update(ctx, func(fd *fileData) { fd.MessagePreview = ptr(enabled) })
}

// SetSoundEnabled persists the sound preference.
func (s *Store) SetSoundEnabled(ctx context.Context, enabled bool) error {
	return s.update(ctx, func(fd *fileData) { fd.Sound = ptr(enabled) })
}

// SetVibrationEnabled persists the vibration preference.
func (s *Store) SetVibrationEnabled(ctx context.Context, enabled bool) error {
	return s.update(ctx, func(fd *fileData) { fd.Vibration = ptr(enabled) })
}

// MarkSynced records the time of the last successful sync.
func (s *Store) MarkSynced(ctx context.Context, at time.Time) error {
	return s.update(ctx, func(fd *fileData) { fd.LastSync = ptr(at.UnixMilli()) })
}

// Close ends every watch stream.
func (s *Store) Close() {
	s.hub.Close()
}

func (s *Store) update(ctx context.Context, mutate func(*fileData)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()
	if err := s.recoverLocked(); err != nil {
		return fmt.Errorf("settings unavailable: %w", err)
	}

	next := s.data
	mutate(&next)
	if err := writeFile(s.path, next); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	s.apply(next)
	return nil
}

// ensureLoaded performs the first read and the one-time migration. Must be
// called with mu held.
func (s *Store) ensureLoaded() {
	if s.loaded {
		return
	}
	s.loaded = true

	fd, err := readFile(s.path)
	if err != nil {
		s.logger.Error("error reading settings, using defaults", "path", s.path, "error", err)
		s.fault = err
		s.data = fileData{}
		s.current = Defaults()
		return
	}

	s.migrate.Do(func() {
		migrated, changed := migrate(fd)
		if !changed {
			return
		}
		if err := writeFile(s.path, migrated); err != nil {
			s.logger.Error("error saving migrated settings", "path", s.path, "error", err)
			return
		}
		s.logger.Info("settings migrated", "version", CurrentVersion)
		fd = migrated
	})

	s.data = fd
	s.current = fd.resolve()
}

// apply installs fd as the current state and publishes it if the resolved
// view changed. Must be called with mu held.
func (s *Store) apply(fd fileData) {
	s.data = fd
	next := fd.resolve()
	if next == s.current {
		return
	}
	s.current = next
	s.hub.Publish(watchKey, next)
}

// recoverLocked rereads the file after an earlier read fault so a setter
// writes back every stored key, not just its own. A corrupt file holds
// nothing recoverable and is replaced by migrated defaults. Must be called
// with mu held.
func (s *Store) recoverLocked() error {
	if s.fault == nil {
		return nil
	}
	fd, err := readFile(s.path)
	switch {
	case errors.Is(err, errCorrupt):
		fd = fileData{}
	case err != nil:
		return err
	}
	s.fault = nil
	s.data, _ = migrate(fd)
	return nil
}

// reload rereads the file after an external edit. The read happens under
// mu so a concurrent setter is never overwritten by an older file state.
func (s *Store) reload() {
	s.mu.Lock()
	defer s.mu.Unlock()

	fd, err := readFile(s.path)
	if err != nil {
		s.logger.Warn("error rereading settings, keeping current values", "path", s.path, "error", err)
		return
	}
	s.loaded = true
	s.fault = nil
	s.apply(fd)
}

func readFile(path string) (fileData, error) {
	var fd fileData
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fd, nil
	}
	if err != nil {
		return fd, err
	}
	if _, err := toml.Decode(string(raw), &fd); err != nil {
		return fileData{}, fmt.Errorf("%w: parsing %s: %w", errCorrupt, path, err)
	}
	return fd, nil
}

// writeFile replaces the file atomically via a temp file and rename.
func writeFile(path string, fd fileData) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(fd); err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.toml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// project maps a settings stream to one field, dropping repeats.
func project[T comparable](ctx context.Context, src <-chan Settings, field func(Settings) T) <-chan T {
	out := make(chan T, 1)
	go func() {
		defer close(out)
		var last T
		first := true
		for v := range src {
			f := field(v)
			if !first && f == last {
				continue
			}
			first, last = false, f
			// Keep only the newest value if the reader is behind.
			select {
			case <-out:
			default:
			}
			select {
			case out <- f:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
