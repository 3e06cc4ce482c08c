package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/smartconnect-core/internal/apperr"
)

// Role is a fixed privilege tier.
type Role string

// Role constants. RoleUnresolved is the value the resolver returns for an
// identity without a profile; it carries no privileges.
const (
	RoleAdmin      Role = "admin"
	RoleOperator   Role = "operator"
	RoleUnresolved Role = ""
)

// ValidRoles lists the roles a profile may be bound to.
var ValidRoles = []Role{RoleAdmin, RoleOperator}

var roleDisplayNames = map[Role]string{
	RoleAdmin:    "Administrator",
	RoleOperator: "Operator",
}

// IsValid reports whether r is Admin or Operator.
func (r Role) IsValid() bool {
	_, ok := roleDisplayNames[r]
	return ok
}

// Resolved reports whether r grants any privileges at all.
func (r Role) Resolved() bool {
	return r.IsValid()
}

// Display returns the human-readable role name.
func (r Role) Display() string {
	if name, ok := roleDisplayNames[r]; ok {
		return name
	}
	return "Unresolved"
}

// ParseRole converts a wire value into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return RoleUnresolved, apperr.InvalidValue("name", fmt.Sprintf("unknown role %q", s))
	}
	return r, nil
}

// UnmarshalText rejects unknown roles at decode time.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// RoleRecord is a stored role row.
type RoleRecord struct {
	ID          string    `json:"id"`
	Name        Role      `json:"name"`
	DisplayName string    `json:"display_name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// User is an identity known to the system. Credentials are held by the
// identity provider, not here.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile binds one user to one role.
type Profile struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	RoleID      string    `json:"role_id"`
	DisplayName string    `json:"display_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Joined for presentation.
	Username        string `json:"username"`
	Email           string `json:"email,omitempty"`
	RoleName        Role   `json:"role_name"`
	RoleDisplayName string `json:"role_display_name"`
}

// Identity is the caller as established by the identity layer.
type Identity struct {
	Authenticated bool
	UserID        string
}

// Anonymous is the identity of a request without valid credentials.
var Anonymous = Identity{}

// Authenticated returns an identity for userID.
func Authenticated(userID string) Identity {
	return Identity{Authenticated: true, UserID: userID}
}

// Principal is an identity together with its resolved role.
type Principal struct {
	Identity
	Role Role
}

// Errors returned by the auth package.
var (
	ErrUnauthenticated = apperr.ErrUnauthenticated
	ErrForbidden       = apperr.ErrForbidden

	ErrUserNotFound    = fmt.Errorf("user: %w", apperr.ErrNotFound)
	ErrUsernameExists  = apperr.Conflict("username", "username already exists")
	ErrRoleNotFound    = fmt.Errorf("role: %w", apperr.ErrNotFound)
	ErrRoleExists      = apperr.Conflict("name", "role already exists")
	ErrRoleInUse       = apperr.Conflict("role", "role is referenced by profiles")
	ErrProfileNotFound = fmt.Errorf("profile: %w", apperr.ErrNotFound)
	ErrProfileExists   = apperr.Conflict("user_id", "user already has a profile")

	ErrTokenInvalid = fmt.Errorf("token invalid: %w", apperr.ErrUnauthenticated)
)
