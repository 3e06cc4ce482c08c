package sensor

import (
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/smartconnect-core/internal/apperr"
)

// State is a sensor lifecycle state.
type State string

// Sensor states.
const (
	StateActive   State = "active"
	StateInactive State = "inactive"
	StateBlocked  State = "blocked"
	StateLost     State = "lost"
)

// ValidStates lists every sensor state.
var ValidStates = []State{StateActive, StateInactive, StateBlocked, StateLost}

var stateDisplayNames = map[State]string{
	StateActive:   "Active",
	StateInactive: "Inactive",
	StateBlocked:  "Blocked",
	StateLost:     "Lost",
}

// IsValid reports whether s is a known state.
func (s State) IsValid() bool {
	_, ok := stateDisplayNames[s]
	return ok
}

// Display returns the human-readable state name.
func (s State) Display() string {
	if name, ok := stateDisplayNames[s]; ok {
		return name
	}
	return string(s)
}

// ParseState converts a wire value into a State. "perdido" is accepted
// for lost, as older readers still send it.
func ParseState(s string) (State, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "perdido" {
		return StateLost, nil
	}
	st := State(v)
	if !st.IsValid() {
		return "", apperr.InvalidValue("state", fmt.Sprintf("unknown sensor state %q; expected one of active, inactive, blocked, lost", s))
	}
	return st, nil
}

// UnmarshalText rejects unknown states at decode time.
func (s *State) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Sensor is an RFID reader or tag registered to a department.
type Sensor struct {
	ID               string    `json:"id"`
	UID              string    `json:"uid"`
	State            State     `json:"state"`
	StateDisplay     string    `json:"state_display"`
	DepartmentID     string    `json:"department_id"`
	DepartmentName   string    `json:"department_name"`
	AssociatedUserID *string   `json:"associated_user_id"`
	AssociatedUser   *string   `json:"associated_username"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Input carries the editable fields of a sensor. An empty State means
// Active on create and "leave unchanged" on update.
type Input struct {
	UID              string
	State            State
	DepartmentID     string
	AssociatedUserID *string
}
