package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/smartconnect-core/internal/auth"
	"github.com/nerrad567/smartconnect-core/internal/sensor"
)

// nullableString distinguishes an omitted JSON field from an explicit null.
type nullableString struct {
	Set   bool
	Value *string
}

func (n *nullableString) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Value = nil
		return nil
	}
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// sensorCreateRequest is the body of POST /sensors. An omitted state means Active.
type sensorCreateRequest struct {
	UID              string       `json:"uid" validate:"required,max=50"`
	State            sensor.State `json:"state"`
	DepartmentID     string       `json:"department_id" validate:"required"`
	AssociatedUserID *string      `json:"associated_user_id"`
}

// sensorUpdateRequest is the body of PUT/PATCH /sensors/{id}. Omitted
// fields keep their stored values; associated_user_id: null clears the user.
type sensorUpdateRequest struct {
	UID              *string        `json:"uid" validate:"omitempty,max=50"`
	State            sensor.State   `json:"state"`
	DepartmentID     *string        `json:"department_id"`
	AssociatedUserID nullableString `json:"associated_user_id"`
}

// sensorStateRequest is the body of PATCH /sensors/{id}/state.
type sensorStateRequest struct {
	State sensor.State `json:"state" validate:"required"`
}

// handleListSensors returns all sensors, newest first.
func (s *Server) handleListSensors(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceSensor, auth.ActionRead, nil) {
		return
	}
	sensors, err := s.sensors.List(r.Context())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sensors": sensors, "count": len(sensors)})
}

// handleGetSensor returns a single sensor by ID.
func (s *Server) handleGetSensor(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceSensor, auth.ActionRead, nil) {
		return
	}
	sn, err := s.sensors.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sn)
}

// handleCreateSensor registers a sensor.
func (s *Server) handleCreateSensor(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceSensor, auth.ActionWrite, nil) {
		return
	}
	var req sensorCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	sn, err := s.sensors.Create(r.Context(), sensor.Input{
		UID:              req.UID,
		State:            req.State,
		DepartmentID:     req.DepartmentID,
		AssociatedUserID: req.AssociatedUserID,
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	s.logger.Info("sensor created", "sensor_id", sn.ID, "uid", sn.UID, "state", sn.State)
	writeJSON(w, http.StatusCreated, sn)
}

// handleUpdateSensor edits a sensor. The lost/associated-user rule is
// re-checked by the store when the change is applied.
func (s *Server) handleUpdateSensor(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceSensor, auth.ActionWrite, nil) {
		return
	}
	var req sensorUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	if req.State != "" && !s.authorize(w, r, auth.ResourceSensor, auth.ActionChangeState, nil) {
		return
	}

	id := chi.URLParam(r, "id")
	current, err := s.sensors.Get(r.Context(), id)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	in := sensor.Input{
		UID:              current.UID,
		State:            req.State,
		DepartmentID:     current.DepartmentID,
		AssociatedUserID: current.AssociatedUserID,
	}
	if req.UID != nil {
		in.UID = *req.UID
	}
	if req.DepartmentID != nil {
		in.DepartmentID = *req.DepartmentID
	}
	if req.AssociatedUserID.Set {
		in.AssociatedUserID = req.AssociatedUserID.Value
	}

	updated, err := s.sensors.Update(r.Context(), id, in)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	if updated.State != current.State {
		s.hub.Broadcast(ChannelSensorStateChanged, updated)
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleSetSensorState applies a lifecycle state. Admin only.
func (s *Server) handleSetSensorState(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceSensor, auth.ActionChangeState, nil) {
		return
	}
	var req sensorStateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	sn, err := s.sensors.SetState(r.Context(), chi.URLParam(r, "id"), req.State)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	s.logger.Info("sensor state changed", "sensor_id", sn.ID, "uid", sn.UID, "state", sn.State)
	s.hub.Broadcast(ChannelSensorStateChanged, sn)
	writeJSON(w, http.StatusOK, sn)
}

// handleDeleteSensor removes a sensor and its events.
func (s *Server) handleDeleteSensor(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceSensor, auth.ActionWrite, nil) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.sensors.Delete(r.Context(), id); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.logger.Info("sensor deleted", "sensor_id", id)
	w.WriteHeader(http.StatusNoContent)
}
