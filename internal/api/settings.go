// ABOUTME: Settings handlers for reading preferences and changing theme and notifications
// ABOUTME: Unknown themes are rejected with a field error rather than stored

package api

import (
	"net/http"

	"github.com/2389/cheatsignal/internal/settings"
)

// SetThemeRequest is the JSON request body for PUT /api/settings/theme.
type SetThemeRequest struct {
	Theme string `json:"theme"`
}

// SetNotificationsRequest is the JSON request body for PUT /api/settings/notifications.
type SetNotificationsRequest struct {
	Enabled *bool `json:"enabled"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.settings.Settings())
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	var req SetThemeRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	theme, err := settings.ParseThemeStrict(req.Theme)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "validation failed",
			Fields: map[string]string{"theme": "Theme must be LIGHT, DARK or SYSTEM"},
		})
		return
	}

	if err := s.settings.SetTheme(r.Context(), theme); err != nil {
		s.logger.Error("failed to save theme", "theme", theme, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	s.writeJSON(w, http.StatusOK, s.settings.Settings())
}

func (s *Server) handleSetNotifications(w http.ResponseWriter, r *http.Request) {
	var req SetNotificationsRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Enabled == nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "validation failed",
			Fields: map[string]string{"enabled": "enabled is required"},
		})
		return
	}

	if err := s.settings.SetNotificationsEnabled(r.Context(), *req.Enabled); err != nil {
		s.logger.Error("failed to save notifications preference", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	s.writeJSON(w, http.StatusOK, s.settings.Settings())
}
