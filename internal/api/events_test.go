package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/smartconnect-core/internal/event"
)

type eventList struct {
	Events []event.Event `json:"events"`
	Count  int           `json:"count"`
}

// recordEvent posts an access event for sensorID as Admin.
func (f *fixture) recordEvent(sensorID, result string) event.Event {
	f.t.Helper()
	body := map[string]any{"sensor_id": sensorID, "kind": "access"}
	if result != "" {
		body["result"] = result
	}
	w := f.do(http.MethodPost, "/api/v1/events", f.admin, body)
	require.Equal(f.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[event.Event](f.t, w)
}

func TestEvents_CreateDefaultsToPermitted(t *testing.T) {
	f := newFixture(t)
	s := f.createSensor(map[string]any{"uid": "AA:BB:CC"})

	e := f.recordEvent(s.ID, "")
	assert.Equal(t, event.KindAccess, e.Kind)
	assert.Equal(t, event.ResultPermitted, e.Result)
	assert.Equal(t, "AA:BB:CC", e.SensorUID)
	assert.NotEmpty(t, e.ID)

	denied := f.recordEvent(s.ID, "denied")
	assert.Equal(t, event.ResultDenied, denied.Result)

	w := f.do(http.MethodGet, "/api/v1/events/"+e.ID, f.operator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, e.ID, decode[event.Event](t, w).ID)
}

func TestEvents_CreateRejections(t *testing.T) {
	f := newFixture(t)
	s := f.createSensor(map[string]any{"uid": "AA:BB:CC"})

	tests := []struct {
		name   string
		userID string
		body   map[string]any
		status int
		code   string
		field  string
	}{
		{"operator", f.operator, map[string]any{"sensor_id": s.ID, "kind": "access"}, http.StatusForbidden, ErrCodeForbidden, ""},
		{"missing sensor", f.admin, map[string]any{"kind": "access"}, http.StatusBadRequest, ErrCodeValidation, "sensor_id"},
		{"unknown sensor", f.admin, map[string]any{"sensor_id": "sen-nope", "kind": "access"}, http.StatusBadRequest, ErrCodeValidation, "sensor_id"},
		{"missing kind", f.admin, map[string]any{"sensor_id": s.ID}, http.StatusBadRequest, ErrCodeValidation, "kind"},
		{"unknown kind", f.admin, map[string]any{"sensor_id": s.ID, "kind": "tailgate"}, http.StatusBadRequest, ErrCodeInvalidValue, "kind"},
		{"unknown result", f.admin, map[string]any{"sensor_id": s.ID, "kind": "access", "result": "maybe"}, http.StatusBadRequest, ErrCodeInvalidValue, "result"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(http.MethodPost, "/api/v1/events", tt.userID, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			body := errorBody(t, w)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.field, body.Field)
		})
	}

	w := f.do(http.MethodGet, "/api/v1/events", f.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, decode[eventList](t, w).Count)
}

func TestEvents_InactiveSensorRejectedOverHTTP(t *testing.T) {
	f := newFixture(t)
	s := f.createSensor(map[string]any{"uid": "AA:BB:CC", "state": "inactive"})

	w := f.do(http.MethodPost, "/api/v1/events", f.admin, map[string]any{"sensor_id": s.ID, "kind": "access"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorBody(t, w).Message, "sensor is Inactive")
}

func TestEvents_RecentAndLimit(t *testing.T) {
	f := newFixture(t)
	s := f.createSensor(map[string]any{"uid": "AA:BB:CC"})

	var ids []string
	for range 12 {
		ids = append(ids, f.recordEvent(s.ID, "").ID)
	}

	w := f.do(http.MethodGet, "/api/v1/events/recent", f.operator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	recent := decode[eventList](t, w)
	require.Equal(t, event.DefaultRecentLimit, recent.Count)
	assert.Equal(t, ids[len(ids)-1], recent.Events[0].ID, "newest first")

	w = f.do(http.MethodGet, "/api/v1/events/recent?limit=3", f.operator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, decode[eventList](t, w).Count)

	for _, bad := range []string{"0", "-1", "501", "ten"} {
		w = f.do(http.MethodGet, "/api/v1/events/recent?limit="+bad, f.operator, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, "limit=%s", bad)
		assert.Equal(t, "limit", errorBody(t, w).Field)
	}
}

func TestEvents_BySensor(t *testing.T) {
	f := newFixture(t)
	lobby := f.lobby()
	a := f.createSensor(map[string]any{"uid": "AA:01", "department_id": lobby.ID})
	b := f.createSensor(map[string]any{"uid": "AA:02", "department_id": lobby.ID})

	first := f.recordEvent(a.ID, "")
	f.recordEvent(b.ID, "")
	last := f.recordEvent(a.ID, "denied")

	w := f.do(http.MethodGet, "/api/v1/events/by-sensor?sensor_id="+a.ID, f.operator, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[eventList](t, w)
	require.Equal(t, 2, list.Count)
	assert.Equal(t, last.ID, list.Events[0].ID)
	assert.Equal(t, first.ID, list.Events[1].ID)

	w = f.do(http.MethodGet, "/api/v1/events/by-sensor", f.operator, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "sensor_id", errorBody(t, w).Field)
}

func TestEvents_AreAppendOnly(t *testing.T) {
	f := newFixture(t)
	s := f.createSensor(map[string]any{"uid": "AA:BB:CC"})
	e := f.recordEvent(s.ID, "")

	for _, method := range []string{http.MethodPut, http.MethodPatch, http.MethodDelete} {
		w := f.do(method, "/api/v1/events/"+e.ID, f.admin, map[string]any{"note": "edited"})
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, method)
		assert.Equal(t, ErrCodeMethodNotAllow, errorBody(t, w).Code)
	}

	w := f.do(http.MethodGet, "/api/v1/events/"+e.ID, f.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[event.Event](t, w).Note)
}

func TestEvents_GetMissing(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/v1/events/evt-missing", f.operator, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
