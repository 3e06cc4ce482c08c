package barrier

import (
	"fmt"

	"github.com/nerrad567/smartconnect-core/internal/apperr"
)

var (
	// ErrBarrierNotFound is returned when a barrier ID does not exist.
	ErrBarrierNotFound = fmt.Errorf("barrier: %w", apperr.ErrNotFound)

	// ErrNameExists is returned when another barrier already uses the name.
	ErrNameExists = apperr.Conflict("name", "a barrier with this name already exists")

	// ErrUnknownDepartment is returned when department_id names no department.
	ErrUnknownDepartment = apperr.Validation("department_id", "department does not exist")
)
