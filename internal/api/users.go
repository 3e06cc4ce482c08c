package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/smartconnect-core/internal/auth"
)

// userRequest is the body of POST /users. Credentials live with the
// identity provider; only the directory entry is stored here.
type userRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Email    string `json:"email" validate:"omitempty,email"`
}

// roleRequest is the body of POST /roles.
type roleRequest struct {
	Name        auth.Role `json:"name" validate:"required"`
	Description string    `json:"description" validate:"max=255"`
}

// roleUpdateRequest is the body of PATCH /roles/{id}. Role names are fixed.
type roleUpdateRequest struct {
	Description string `json:"description" validate:"max=255"`
}

// ─── Users ─────────────────────────────────────────────────────────

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceUser, auth.ActionRead, nil) {
		return
	}
	users, err := s.users.List(r.Context())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users, "count": len(users)})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceUser, auth.ActionRead, nil) {
		return
	}
	u, err := s.users.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceUser, auth.ActionWrite, nil) {
		return
	}
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	u := &auth.User{Username: req.Username, Email: req.Email}
	if err := s.users.Create(r.Context(), u); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	s.logger.Info("user created", "user_id", u.ID, "username", u.Username)
	writeJSON(w, http.StatusCreated, u)
}

// handleDeleteUser removes a user together with their profile.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceUser, auth.ActionWrite, nil) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.users.Delete(r.Context(), id); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.invalidateRole(r.Context(), id)
	s.logger.Info("user deleted", "user_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// ─── Roles ─────────────────────────────────────────────────────────

func (s *Server) handleListRoles(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceRole, auth.ActionRead, nil) {
		return
	}
	roles, err := s.roles.List(r.Context())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"roles": roles, "count": len(roles)})
}

func (s *Server) handleGetRole(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceRole, auth.ActionRead, nil) {
		return
	}
	role, err := s.roles.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, role)
}

// handleCreateRole recreates one of the two fixed roles after it was removed.
func (s *Server) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceRole, auth.ActionWrite, nil) {
		return
	}
	var req roleRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	role := &auth.RoleRecord{Name: req.Name, Description: req.Description}
	if err := s.roles.Create(r.Context(), role); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, role)
}

func (s *Server) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceRole, auth.ActionWrite, nil) {
		return
	}
	var req roleUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	role, err := s.roles.UpdateDescription(r.Context(), chi.URLParam(r, "id"), req.Description)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, role)
}

// handleDeleteRole removes a role no profile is bound to.
func (s *Server) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceRole, auth.ActionWrite, nil) {
		return
	}
	if err := s.roles.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// invalidateRole drops any cached role for userID. A failure only delays
// the change until the cache entry expires, so it is logged, not returned.
// Live feed connections of a user who can no longer read events are closed.
func (s *Server) invalidateRole(ctx context.Context, userID string) {
	if err := s.authz.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("role cache invalidation failed", "user_id", userID, "error", err)
	}
	if s.mayReadFeed(ctx, userID) {
		return
	}
	if n := s.hub.Disconnect(userID); n > 0 {
		s.logger.Info("live feed access revoked", "user_id", userID, "connections", n)
	}
}
