package auth

// Action is the kind of operation being authorised.
type Action string

// Action constants. ActionChangeState covers the operational state
// sub-actions (sensor change-state, barrier set-state), which are gated
// at Admin regardless of the resource policy.
const (
	ActionRead        Action = "read"
	ActionWrite       Action = "write"
	ActionChangeState Action = "change_state"
)

// Resource is a class of protected entity.
type Resource string

// Resource constants.
const (
	ResourceDepartment Resource = "departments"
	ResourceSensor     Resource = "sensors"
	ResourceBarrier    Resource = "barriers"
	ResourceEvent      Resource = "events"
	ResourceRole       Resource = "roles"
	ResourceUser       Resource = "users"
	ResourceProfile    Resource = "profiles"
)

// Policy selects how reads and writes on a resource are gated.
type Policy uint8

// Policy constants.
const (
	// PolicyReadOpenWriteAdminOnly lets any resolved role read; writes need Admin.
	PolicyReadOpenWriteAdminOnly Policy = iota + 1
	// PolicyAdminOnly requires Admin for every action.
	PolicyAdminOnly
	// PolicyOwnerOrAdmin lets any resolved role read; writes need Admin or
	// ownership of the target.
	PolicyOwnerOrAdmin
)

func (p Policy) String() string {
	switch p {
	case PolicyReadOpenWriteAdminOnly:
		return "read_open_write_admin_only"
	case PolicyAdminOnly:
		return "admin_only"
	case PolicyOwnerOrAdmin:
		return "owner_or_admin"
	default:
		return "unknown"
	}
}

// OwnerFunc extracts the owning user from a target. ok is false when the
// target is nil or not of the expected type.
type OwnerFunc func(target any) (ownerID string, ok bool)

type policyEntry struct {
	policy Policy
	owner  OwnerFunc
}

// policyTable is the single source of truth for the authorisation model.
// A resource absent from the table is denied to everyone.
var policyTable = map[Resource]policyEntry{
	ResourceDepartment: {policy: PolicyReadOpenWriteAdminOnly},
	ResourceSensor:     {policy: PolicyReadOpenWriteAdminOnly},
	ResourceBarrier:    {policy: PolicyReadOpenWriteAdminOnly},
	ResourceEvent:      {policy: PolicyReadOpenWriteAdminOnly},
	ResourceRole:       {policy: PolicyAdminOnly},
	ResourceUser:       {policy: PolicyAdminOnly},
	ResourceProfile:    {policy: PolicyOwnerOrAdmin, owner: profileOwner},
}

func profileOwner(target any) (string, bool) {
	p, ok := target.(*Profile)
	if !ok || p == nil {
		return "", false
	}
	return p.UserID, true
}

// PolicyFor returns the policy registered for res and whether one exists.
func PolicyFor(res Resource) (Policy, bool) {
	entry, ok := policyTable[res]
	return entry.policy, ok
}

// Decision is the outcome of an authorisation check.
type Decision uint8

// Decision constants. The two deny values let the transport distinguish
// "who are you" from "not allowed".
const (
	DenyForbidden Decision = iota
	DenyUnauthenticated
	Allow
)

// Allowed reports whether the decision permits the action.
func (d Decision) Allowed() bool { return d == Allow }

// Err returns nil for Allow, otherwise ErrUnauthenticated or ErrForbidden.
func (d Decision) Err() error {
	switch d {
	case Allow:
		return nil
	case DenyUnauthenticated:
		return ErrUnauthenticated
	default:
		return ErrForbidden
	}
}

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Decide evaluates the policy table for p acting on res. target is only
// consulted by ownership checks and may be nil. Decide has no side effects.
func Decide(p Principal, res Resource, act Action, target any) Decision {
	if !p.Authenticated {
		return DenyUnauthenticated
	}
	if !p.Role.Resolved() {
		return DenyForbidden
	}

	entry, ok := policyTable[res]
	if !ok {
		return DenyForbidden
	}

	isAdmin := p.Role == RoleAdmin

	switch act {
	case ActionChangeState:
		return allowIf(isAdmin)
	case ActionRead, ActionWrite:
	default:
		return DenyForbidden
	}

	switch entry.policy {
	case PolicyReadOpenWriteAdminOnly:
		return allowIf(act == ActionRead || isAdmin)
	case PolicyAdminOnly:
		return allowIf(isAdmin)
	case PolicyOwnerOrAdmin:
		// Order matters: read, then admin, then ownership as the narrowest fallback.
		if act == ActionRead {
			return Allow
		}
		if isAdmin {
			return Allow
		}
		if entry.owner != nil {
			if ownerID, ok := entry.owner(target); ok && ownerID != "" && ownerID == p.UserID {
				return Allow
			}
		}
		return DenyForbidden
	default:
		return DenyForbidden
	}
}

func allowIf(cond bool) Decision {
	if cond {
		return Allow
	}
	return DenyForbidden
}
