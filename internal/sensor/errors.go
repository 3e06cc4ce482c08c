package sensor

import (
	"fmt"

	"github.com/nerrad567/smartconnect-core/internal/apperr"
)

var (
	// ErrSensorNotFound is returned when a sensor ID or UID does not exist.
	ErrSensorNotFound = fmt.Errorf("sensor: %w", apperr.ErrNotFound)

	// ErrUIDExists is returned when another sensor already uses the UID.
	ErrUIDExists = apperr.Conflict("uid", "a sensor with this uid already exists")

	// ErrLostWithUser is returned when a change would leave a Lost sensor
	// with an associated user.
	ErrLostWithUser = apperr.Transition("state", "a lost sensor cannot have an associated user")

	// ErrUnknownDepartment is returned when department_id names no department.
	ErrUnknownDepartment = apperr.Validation("department_id", "department does not exist")

	// ErrUnknownUser is returned when associated_user_id names no user.
	ErrUnknownUser = apperr.Validation("associated_user_id", "user does not exist")
)
