package event

import (
	"fmt"

	"github.com/nerrad567/smartconnect-core/internal/apperr"
	"github.com/nerrad567/smartconnect-core/internal/sensor"
)

var (
	// ErrEventNotFound is returned when an event ID does not exist.
	ErrEventNotFound = fmt.Errorf("event: %w", apperr.ErrNotFound)

	// ErrUnknownSensor is returned when sensor_id names no sensor.
	ErrUnknownSensor = apperr.Validation("sensor_id", "sensor does not exist")

	// ErrResultRequired is returned by the relaxed path when no result is given.
	ErrResultRequired = apperr.Validation("result", "result is required")
)

// SensorStateError is returned when the sensor's current state does not
// accept events on the path that was used. It unwraps to a
// ValidationFailed error on field sensor_id.
type SensorStateError struct {
	State  sensor.State
	Strict bool
}

func (e *SensorStateError) message() string {
	if e.Strict {
		return fmt.Sprintf("sensor is %s; events are only accepted from active sensors", e.State.Display())
	}
	return fmt.Sprintf("sensor is %s; events cannot be recorded for blocked or lost sensors", e.State.Display())
}

func (e *SensorStateError) Error() string {
	return e.Unwrap().Error()
}

// Unwrap exposes the field error so apperr.FieldOf and errors.Is work.
func (e *SensorStateError) Unwrap() error {
	return apperr.Validation("sensor_id", e.message())
}
