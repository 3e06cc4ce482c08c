package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/smartconnect-core/internal/auth"
	"github.com/nerrad567/smartconnect-core/internal/department"
)

// departmentRequest is the body of POST and PUT/PATCH /departments.
type departmentRequest struct {
	Name        string  `json:"name" validate:"required,min=3,max=100"`
	Description *string `json:"description"`
}

// handleListDepartments returns all departments ordered by name.
func (s *Server) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceDepartment, auth.ActionRead, nil) {
		return
	}
	departments, err := s.departments.List(r.Context())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"departments": departments, "count": len(departments)})
}

// handleGetDepartment returns a single department by ID.
func (s *Server) handleGetDepartment(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceDepartment, auth.ActionRead, nil) {
		return
	}
	d, err := s.departments.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleCreateDepartment creates a department.
func (s *Server) handleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceDepartment, auth.ActionWrite, nil) {
		return
	}
	var req departmentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	d := &department.Department{Name: req.Name}
	if req.Description != nil {
		d.Description = *req.Description
	}
	if err := s.departments.Create(r.Context(), d); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	s.logger.Info("department created", "department_id", d.ID, "name", d.Name)
	writeJSON(w, http.StatusCreated, d)
}

// handleUpdateDepartment renames a department. An omitted description is
// left unchanged.
func (s *Server) handleUpdateDepartment(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceDepartment, auth.ActionWrite, nil) {
		return
	}
	var req departmentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	d, err := s.departments.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	d.Name = req.Name
	if req.Description != nil {
		d.Description = *req.Description
	}
	if err := s.departments.Update(r.Context(), d); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// handleDeleteDepartment removes a department that owns no sensors or barriers.
func (s *Server) handleDeleteDepartment(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceDepartment, auth.ActionWrite, nil) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.departments.Delete(r.Context(), id); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.logger.Info("department deleted", "department_id", id)
	w.WriteHeader(http.StatusNoContent)
}
