package barrier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/smartconnect-core/internal/apperr"
)

// State is a barrier position.
type State string

// Barrier states.
const (
	StateOpen   State = "open"
	StateClosed State = "closed"
)

// IsValid reports whether s is open or closed.
func (s State) IsValid() bool {
	return s == StateOpen || s == StateClosed
}

// Display returns the human-readable state.
func (s State) Display() string {
	switch s {
	case StateOpen:
		return "Open"
	case StateClosed:
		return "Closed"
	}
	return string(s)
}

// ParseState converts a wire value into a State.
func ParseState(s string) (State, error) {
	st := State(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", apperr.InvalidValue("state", fmt.Sprintf("unknown barrier state %q; expected open or closed", s))
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

// Barrier is a gate controlled by the system.
type Barrier struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	State          State     `json:"state"`
	StateDisplay   string    `json:"state_display"`
	DepartmentID   *string   `json:"department_id"`
	DepartmentName *string   `json:"department_name"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Input carries the editable fields of a barrier. An empty State means
// Closed on create and "leave unchanged" on update.
type Input struct {
	Name         string
	State        State
	DepartmentID *string
}

// Publisher receives every applied barrier state.
type Publisher interface {
	PublishBarrierState(ctx context.Context, b Barrier) error
}
