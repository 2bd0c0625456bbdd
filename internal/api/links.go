// ABOUTME: Deep-link resolution endpoint mapping cheatsignal:// URIs to screens
// ABOUTME: Chat links also report whether the conversation exists

package api

import (
	"errors"
	"net/http"

	"github.com/2389/cheatsignal/internal/route"
)

// ResolveLinkResponse is the JSON response for GET /api/links/resolve.
type ResolveLinkResponse struct {
	route.Route
	Path     string `json:"path"`
	DeepLink string `json:"deep_link"`
	Exists   *bool  `json:"exists,omitempty"`
}

func (s *Server) handleResolveLink(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		s.sendJSONError(w, http.StatusBadRequest, "uri query param required")
		return
	}

	rt, err := route.Parse(uri)
	if errors.Is(err, route.ErrUnsupportedScheme) {
		s.sendJSONError(w, http.StatusBadRequest, "unsupported deep link scheme")
		return
	}
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid deep link")
		return
	}

	resp := ResolveLinkResponse{Route: rt, Path: rt.Path(), DeepLink: rt.DeepLink()}
	if rt.Screen == route.ScreenChat {
		_, ok := s.conversations.Store().Get(rt.ChatID)
		resp.Exists = &ok
	}
	s.writeJSON(w, http.StatusOK, resp)
}
