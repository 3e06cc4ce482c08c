package sensor

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nerrad567/smartconnect-core/internal/apperr"
)

// MaxUIDLength is the longest UID a sensor may carry.
const MaxUIDLength = 50

// normalize trims and checks the input, filling create-time defaults when
// creating is true.
func normalize(in Input, creating bool) (Input, error) {
	in.UID = strings.TrimSpace(in.UID)
	if in.UID == "" {
		return in, apperr.Validation("uid", "uid must not be blank")
	}
	if utf8.RuneCountInString(in.UID) > MaxUIDLength {
		return in, apperr.Validation("uid", fmt.Sprintf("uid exceeds %d characters", MaxUIDLength))
	}

	in.DepartmentID = strings.TrimSpace(in.DepartmentID)
	if in.DepartmentID == "" {
		return in, apperr.Validation("department_id", "department is required")
	}

	if in.AssociatedUserID != nil && strings.TrimSpace(*in.AssociatedUserID) == "" {
		in.AssociatedUserID = nil
	}

	if in.State == "" && creating {
		in.State = StateActive
	}
	if in.State != "" && !in.State.IsValid() {
		return in, apperr.InvalidValue("state", fmt.Sprintf("unknown sensor state %q", in.State))
	}

	if in.State == StateLost && in.AssociatedUserID != nil {
		return in, ErrLostWithUser
	}
	return in, nil
}
