package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/smartconnect-core/internal/apperr"
	"github.com/nerrad567/smartconnect-core/internal/auth"
	"github.com/nerrad567/smartconnect-core/internal/barrier"
	"github.com/nerrad567/smartconnect-core/internal/event"
)

// barrierCreateRequest is the body of POST /barriers. An omitted state means Closed.
type barrierCreateRequest struct {
	Name         string        `json:"name" validate:"required,min=3,max=100"`
	State        barrier.State `json:"state"`
	DepartmentID *string       `json:"department_id"`
}

// barrierUpdateRequest is the body of PUT/PATCH /barriers/{id}.
// department_id: null detaches the barrier from its department.
type barrierUpdateRequest struct {
	Name         *string        `json:"name" validate:"omitempty,min=3,max=100"`
	State        barrier.State  `json:"state"`
	DepartmentID nullableString `json:"department_id"`
}

// barrierStateRequest is the body of PATCH /barriers/{id}/state. When
// sensor_id is given, a manual open/close event is recorded for it.
type barrierStateRequest struct {
	State    barrier.State `json:"state" validate:"required"`
	SensorID string        `json:"sensor_id"`
	Note     string        `json:"note" validate:"max=255"`
}

// handleListBarriers returns all barriers ordered by name.
func (s *Server) handleListBarriers(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceBarrier, auth.ActionRead, nil) {
		return
	}
	barriers, err := s.barriers.List(r.Context())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"barriers": barriers, "count": len(barriers)})
}

// handleListOpenBarriers returns the barriers currently open.
func (s *Server) handleListOpenBarriers(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceBarrier, auth.ActionRead, nil) {
		return
	}
	barriers, err := s.barriers.ListOpen(r.Context())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"barriers": barriers, "count": len(barriers)})
}

// handleGetBarrier returns a single barrier by ID.
func (s *Server) handleGetBarrier(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceBarrier, auth.ActionRead, nil) {
		return
	}
	b, err := s.barriers.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// handleCreateBarrier registers a barrier.
func (s *Server) handleCreateBarrier(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceBarrier, auth.ActionWrite, nil) {
		return
	}
	var req barrierCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	b, err := s.barriers.Create(r.Context(), barrier.Input{
		Name:         req.Name,
		State:        req.State,
		DepartmentID: req.DepartmentID,
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	s.logger.Info("barrier created", "barrier_id", b.ID, "name", b.Name, "state", b.State)
	writeJSON(w, http.StatusCreated, b)
}

// handleUpdateBarrier edits a barrier. Omitted fields keep their stored values.
func (s *Server) handleUpdateBarrier(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceBarrier, auth.ActionWrite, nil) {
		return
	}
	var req barrierUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	if req.State != "" && !s.authorize(w, r, auth.ResourceBarrier, auth.ActionChangeState, nil) {
		return
	}

	id := chi.URLParam(r, "id")
	current, err := s.barriers.Get(r.Context(), id)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	in := barrier.Input{
		Name:         current.Name,
		State:        req.State,
		DepartmentID: current.DepartmentID,
	}
	if req.Name != nil {
		in.Name = *req.Name
	}
	if req.DepartmentID.Set {
		in.DepartmentID = req.DepartmentID.Value
	}

	updated, err := s.barriers.Update(r.Context(), id, in)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	if updated.State != current.State {
		s.hub.Broadcast(ChannelBarrierStateChanged, updated)
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleSetBarrierState opens or closes a barrier. Admin only.
//
// The barrier itself never writes to the event log. When the request names
// a sensor, a manual open/close event is recorded for it through the strict
// path; if that fails the new barrier state stands and the failure is
// reported alongside it.
func (s *Server) handleSetBarrierState(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceBarrier, auth.ActionChangeState, nil) {
		return
	}
	var req barrierStateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	b, err := s.barriers.SetState(r.Context(), chi.URLParam(r, "id"), req.State)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.logger.Info("barrier state changed", "barrier_id", b.ID, "state", b.State)
	s.hub.Broadcast(ChannelBarrierStateChanged, b)

	resp := map[string]any{"barrier": b}
	if req.SensorID != "" {
		kind := event.KindManualClose
		if b.State == barrier.StateOpen {
			kind = event.KindManualOpen
		}
		e, err := s.events.Record(r.Context(), event.Request{
			SensorID: req.SensorID,
			Kind:     kind,
			Note:     req.Note,
		})
		if err != nil {
			s.logger.Warn("manual barrier event not recorded",
				"barrier_id", b.ID,
				"sensor_id", req.SensorID,
				"error", err,
			)
			resp["event_error"] = eventFailure(err)
		} else {
			resp["event"] = e
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// eventFailure renders a failed event record in the error body shape.
func eventFailure(err error) Error {
	_, code, ok := statusFor(err)
	if !ok {
		return Error{Code: ErrCodeInternal, Message: "event could not be recorded"}
	}
	return Error{Code: code, Message: apperr.MessageOf(err), Field: apperr.FieldOf(err)}
}

// handleDeleteBarrier removes a barrier.
func (s *Server) handleDeleteBarrier(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceBarrier, auth.ActionWrite, nil) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.barriers.Delete(r.Context(), id); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.logger.Info("barrier deleted", "barrier_id", id)
	w.WriteHeader(http.StatusNoContent)
}
