package barrier

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nerrad567/smartconnect-core/internal/apperr"
)

const (
	minNameLength = 3
	maxNameLength = 100
)

func normalize(in Input, creating bool) (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	n := utf8.RuneCountInString(in.Name)
	if n < minNameLength {
		return in, apperr.Validation("name", fmt.Sprintf("name must be at least %d characters", minNameLength))
	}
	if n > maxNameLength {
		return in, apperr.Validation("name", fmt.Sprintf("name exceeds %d characters", maxNameLength))
	}

	if in.DepartmentID != nil && strings.TrimSpace(*in.DepartmentID) == "" {
		in.DepartmentID = nil
	}

	if in.State == "" && creating {
		in.State = StateClosed
	}
	if in.State != "" && !in.State.IsValid() {
		return in, apperr.InvalidValue("state", fmt.Sprintf("unknown barrier state %q", in.State))
	}
	return in, nil
}
