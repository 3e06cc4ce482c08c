package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/smartconnect-core/internal/department"
)

func TestDepartments_OperatorCanListButNotCreate(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/v1/departments", f.operator, map[string]any{"name": "Lobby"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, ErrCodeForbidden, errorBody(t, w).Code)

	f.lobby()

	w = f.do(http.MethodGet, "/api/v1/departments", f.operator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[struct {
		Departments []department.Department `json:"departments"`
		Count       int                     `json:"count"`
	}](t, w)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "Lobby", resp.Departments[0].Name)
}

func TestDepartments_CRUD(t *testing.T) {
	f := newFixture(t)
	lobby := f.lobby()
	path := "/api/v1/departments/" + lobby.ID

	w := f.do(http.MethodGet, path, f.operator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, lobby.ID, decode[department.Department](t, w).ID)

	w = f.do(http.MethodPatch, path, f.admin, map[string]any{"name": "Main Lobby", "description": "Ground floor"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[department.Department](t, w)
	assert.Equal(t, "Main Lobby", updated.Name)
	assert.Equal(t, "Ground floor", updated.Description)

	w = f.do(http.MethodDelete, path, f.admin, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(http.MethodGet, path, f.admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDepartments_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		body   any
		status int
		code   string
		field  string
	}{
		{"missing name", map[string]any{}, http.StatusBadRequest, ErrCodeValidation, "name"},
		{"short name", map[string]any{"name": "ab"}, http.StatusBadRequest, ErrCodeValidation, "name"},
		{"blank name", map[string]any{"name": "    "}, http.StatusBadRequest, ErrCodeValidation, "name"},
		{"invalid json", "{not json", http.StatusBadRequest, ErrCodeValidation, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(http.MethodPost, "/api/v1/departments", f.admin, tt.body)
			assert.Equal(t, tt.status, w.Code)
			body := errorBody(t, w)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.field, body.Field)
		})
	}
}

func TestDepartments_DuplicateNameConflicts(t *testing.T) {
	f := newFixture(t)
	f.lobby()

	w := f.do(http.MethodPost, "/api/v1/departments", f.admin, map[string]any{"name": "Lobby"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "name", errorBody(t, w).Field)
}

func TestDepartments_DeleteInUseConflicts(t *testing.T) {
	f := newFixture(t)
	lobby := f.lobby()

	w := f.do(http.MethodPost, "/api/v1/sensors", f.admin, map[string]any{"uid": "AA:BB:CC", "department_id": lobby.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(http.MethodDelete, "/api/v1/departments/"+lobby.ID, f.admin, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDepartments_OperatorCannotDeleteEvenMissing(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodDelete, "/api/v1/departments/dep-missing", f.operator, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
