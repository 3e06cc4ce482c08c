package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/smartconnect-core/internal/apperr"
	"github.com/nerrad567/smartconnect-core/internal/auth"
	"github.com/nerrad567/smartconnect-core/internal/event"
)

// maxRecentLimit caps ?limit= on GET /events/recent.
const maxRecentLimit = 500

// eventRequest is the body of POST /events. An omitted result is recorded
// as permitted.
type eventRequest struct {
	SensorID string        `json:"sensor_id" validate:"required"`
	Kind     event.Kind    `json:"kind" validate:"required"`
	Result   *event.Result `json:"result"`
	Note     string        `json:"note" validate:"max=255"`
}

// handleListEvents returns the whole log, newest first.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceEvent, auth.ActionRead, nil) {
		return
	}
	events, err := s.events.List(r.Context())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}

// handleRecentEvents returns the latest events across all sensors.
func (s *Server) handleRecentEvents(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceEvent, auth.ActionRead, nil) {
		return
	}

	limit := event.DefaultRecentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxRecentLimit {
			s.writeAppError(w, r, apperr.Validation("limit", "limit must be between 1 and "+strconv.Itoa(maxRecentLimit)))
			return
		}
		limit = n
	}

	events, err := s.events.Recent(r.Context(), limit)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}

// handleEventsBySensor returns one sensor's events, newest first.
func (s *Server) handleEventsBySensor(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceEvent, auth.ActionRead, nil) {
		return
	}
	sensorID := strings.TrimSpace(r.URL.Query().Get("sensor_id"))
	if sensorID == "" {
		s.writeAppError(w, r, apperr.Validation("sensor_id", "sensor_id query parameter is required"))
		return
	}

	events, err := s.events.ForSensor(r.Context(), sensorID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}

// handleGetEvent returns a single event by ID.
func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceEvent, auth.ActionRead, nil) {
		return
	}
	e, err := s.events.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// handleCreateEvent records an event through the strict path: the sensor
// must be active.
func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(w, r, auth.ResourceEvent, auth.ActionWrite, nil) {
		return
	}
	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	e, err := s.events.Record(r.Context(), event.Request{
		SensorID: req.SensorID,
		Kind:     req.Kind,
		Result:   req.Result,
		Note:     req.Note,
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	s.logger.Info("event recorded", "event_id", e.ID, "sensor_id", e.SensorID, "kind", e.Kind, "result", e.Result)
	writeJSON(w, http.StatusCreated, e)
}
