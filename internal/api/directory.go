// ABOUTME: Handlers for saved addresses, job/skill tags and hashtags
// ABOUTME: Validation failures come back as 400 with a per-field error map

package api

import (
	"net/http"
	"strings"

	"github.com/2389/cheatsignal/internal/store"
)

func (s *Server) handleListAddresses(w http.ResponseWriter, r *http.Request) {
	addrs, err := s.directory.ListAddresses(r.Context())
	if err != nil {
		s.sendStoreError(w, "list addresses", err)
		return
	}
	s.writeJSON(w, http.StatusOK, nonNil(addrs))
}

func (s *Server) handleSaveAddress(w http.ResponseWriter, r *http.Request) {
	var addr store.CommunalAddress
	if err := decodeBody(w, r, &addr); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.directory.SaveAddress(r.Context(), &addr); err != nil {
		s.sendStoreError(w, "save address", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, addr)
}

func (s *Server) handleDeleteAddress(w http.ResponseWriter, r *http.Request) {
	if err := s.directory.DeleteAddress(r.Context(), r.PathValue("id")); err != nil {
		s.sendStoreError(w, "delete address", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListSkills handles GET /api/skills. ?q= searches titles and takes
// precedence over ?type=, which filters to JOB or SKILL.
func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		out []*store.JobSkill
		err error
	)
	switch {
	case strings.TrimSpace(q.Get("q")) != "":
		out, err = s.directory.SearchJobSkills(r.Context(), strings.TrimSpace(q.Get("q")))
	case q.Get("type") != "":
		t, perr := store.ParseSkillType(q.Get("type"))
		if perr != nil {
			s.sendJSONError(w, http.StatusBadRequest, "type must be JOB or SKILL")
			return
		}
		out, err = s.directory.ListJobSkillsByType(r.Context(), t)
	default:
		out, err = s.directory.ListJobSkills(r.Context())
	}
	if err != nil {
		s.sendStoreError(w, "list skills", err)
		return
	}
	s.writeJSON(w, http.StatusOK, nonNil(out))
}

func (s *Server) handleSaveSkill(w http.ResponseWriter, r *http.Request) {
	var js store.JobSkill
	if err := decodeBody(w, r, &js); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.directory.SaveJobSkill(r.Context(), &js); err != nil {
		s.sendStoreError(w, "save skill", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, js)
}

func (s *Server) handleDeleteSkill(w http.ResponseWriter, r *http.Request) {
	if err := s.directory.DeleteJobSkill(r.Context(), r.PathValue("id")); err != nil {
		s.sendStoreError(w, "delete skill", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListHashtags returns trending hashtags, or matches for ?q=.
func (s *Server) handleListHashtags(w http.ResponseWriter, r *http.Request) {
	var (
		out []*store.Hashtag
		err error
	)
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		out, err = s.directory.SearchHashtags(r.Context(), q)
	} else {
		out, err = s.directory.TrendingHashtags(r.Context())
	}
	if err != nil {
		s.sendStoreError(w, "list hashtags", err)
		return
	}
	s.writeJSON(w, http.StatusOK, nonNil(out))
}

func (s *Server) handleSaveHashtag(w http.ResponseWriter, r *http.Request) {
	var h store.Hashtag
	if err := decodeBody(w, r, &h); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.directory.SaveHashtag(r.Context(), &h); err != nil {
		s.sendStoreError(w, "save hashtag", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, h)
}

func (s *Server) handleDeleteHashtag(w http.ResponseWriter, r *http.Request) {
	if err := s.directory.DeleteHashtag(r.Context(), r.PathValue("id")); err != nil {
		s.sendStoreError(w, "delete hashtag", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUseHashtag records one use of a hashtag.
func (s *Server) handleUseHashtag(w http.ResponseWriter, r *http.Request) {
	if err := s.directory.IncrementHashtagUsage(r.Context(), r.PathValue("id"), s.now()); err != nil {
		s.sendStoreError(w, "use hashtag", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
