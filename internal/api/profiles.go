package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/smartconnect-core/internal/auth"
)

// profileCreateRequest is the body of POST /profiles.
type profileCreateRequest struct {
	UserID      string `json:"user_id" validate:"required"`
	RoleID      string `json:"role_id" validate:"required"`
	DisplayName string `json:"display_name" validate:"max=100"`
}

// profileUpdateRequest is the body of PUT/PATCH /profiles/{id}.
type profileUpdateRequest struct {
	RoleID      *string `json:"role_id"`
	DisplayName *string `json:"display_name" validate:"omitempty,max=100"`
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceProfile, auth.ActionRead, nil) {
		return
	}
	profiles, err := s.profiles.List(r.Context())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profiles": profiles, "count": len(profiles)})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceProfile, auth.ActionRead, nil) {
		return
	}
	p, err := s.profiles.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleCreateProfile binds a user to a role. There is no existing target
// to own, so only an Admin passes the check.
func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceProfile, auth.ActionWrite, nil) {
		return
	}
	var req profileCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	p := &auth.Profile{UserID: req.UserID, RoleID: req.RoleID, DisplayName: req.DisplayName}
	if err := s.profiles.Create(r.Context(), p); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.invalidateRole(r.Context(), p.UserID)

	s.logger.Info("profile created", "profile_id", p.ID, "user_id", p.UserID, "role", p.RoleName)
	writeJSON(w, http.StatusCreated, p)
}

// handleUpdateProfile edits a profile. Its owner may change the display
// name; only an Admin may change the role.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadProfileForWrite(w, r)
	if !ok {
		return
	}
	var req profileUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	if req.RoleID != nil && *req.RoleID != p.RoleID && !isAdmin(r) {
		writeForbidden(w)
		return
	}

	if req.RoleID != nil {
		p.RoleID = *req.RoleID
	}
	if req.DisplayName != nil {
		p.DisplayName = *req.DisplayName
	}
	if err := s.profiles.Update(r.Context(), p); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.invalidateRole(r.Context(), p.UserID)
	writeJSON(w, http.StatusOK, p)
}

// handleDeleteProfile unbinds a user from their role.
func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadProfileForWrite(w, r)
	if !ok {
		return
	}
	if err := s.profiles.Delete(r.Context(), p.ID); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.invalidateRole(r.Context(), p.UserID)
	s.logger.Info("profile deleted", "profile_id", p.ID, "user_id", p.UserID)
	w.WriteHeader(http.StatusNoContent)
}

// loadProfileForWrite fetches the profile named in the URL and checks the
// caller may write it. Callers who are not Admin get 403 for a missing
// profile too, so the answer never reveals whether it exists.
func (s *Server) loadProfileForWrite(w http.ResponseWriter, r *http.Request) (*auth.Profile, bool) {
	// Callers without a role are turned away before any lookup.
	if !s.authorize(w, r, auth.ResourceProfile, auth.ActionRead, nil) {
		return nil, false
	}
	p, err := s.profiles.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if !errors.Is(err, auth.ErrProfileNotFound) {
			s.writeAppError(w, r, err)
			return nil, false
		}
		if !s.authorize(w, r, auth.ResourceProfile, auth.ActionWrite, nil) {
			return nil, false
		}
		s.writeAppError(w, r, err)
		return nil, false
	}
	if !s.authorize(w, r, auth.ResourceProfile, auth.ActionWrite, p) {
		return nil, false
	}
	return p, true
}
