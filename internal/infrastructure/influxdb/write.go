package influxdb

import (
	"context"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/smartconnect-core/internal/event"
)

// measurementAccessEvent is the measurement every event is written to.
const measurementAccessEvent = "access_event"

// EventRecorded implements event.Observer.
func (c *Client) EventRecorded(_ context.Context, e event.Event) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(accessEventPoint(e))
}

// accessEventPoint maps an event onto a point. Tags stay low-cardinality:
// event IDs and notes go into fields.
func accessEventPoint(e event.Event) *write.Point {
	permitted := 0
	if e.Result == event.ResultPermitted {
		permitted = 1
	}
	fields := map[string]interface{}{
		"count":     1,
		"permitted": permitted,
		"event_id":  e.ID,
	}
	if e.Note != "" {
		fields["note"] = e.Note
	}
	return write.NewPoint(
		measurementAccessEvent,
		map[string]string{
			"sensor_id":  e.SensorID,
			"sensor_uid": e.SensorUID,
			"kind":       string(e.Kind),
			"result":     string(e.Result),
		},
		fields,
		e.OccurredAt,
	)
}
