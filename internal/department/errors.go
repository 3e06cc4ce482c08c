package department

import (
	"fmt"

	"github.com/nerrad567/smartconnect-core/internal/apperr"
)

var (
	// ErrDepartmentNotFound is returned when a department ID does not exist.
	ErrDepartmentNotFound = fmt.Errorf("department: %w", apperr.ErrNotFound)

	// ErrNameExists is returned when another department already uses the name.
	ErrNameExists = apperr.Conflict("name", "a department with this name already exists")

	// ErrDepartmentInUse is returned when sensors or barriers still reference the department.
	ErrDepartmentInUse = apperr.Conflict("id", "department is referenced by sensors or barriers")
)
