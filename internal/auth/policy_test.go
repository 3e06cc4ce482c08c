package auth

import "testing"

var (
	anonymous  = Principal{Identity: Anonymous}
	unresolved = Principal{Identity: Authenticated("usr-nobody"), Role: RoleUnresolved}
	admin      = Principal{Identity: Authenticated("usr-admin"), Role: RoleAdmin}
	operator   = Principal{Identity: Authenticated("usr-oper"), Role: RoleOperator}

	allResources = []Resource{
		ResourceDepartment, ResourceSensor, ResourceBarrier, ResourceEvent,
		ResourceRole, ResourceUser, ResourceProfile,
	}
	allActions = []Action{ActionRead, ActionWrite, ActionChangeState}
)

func TestDecide_UnauthenticatedAlwaysDenied(t *testing.T) {
	for _, res := range allResources {
		for _, act := range allActions {
			if got := Decide(anonymous, res, act, nil); got != DenyUnauthenticated {
				t.Errorf("anonymous %s on %s = %v, want DenyUnauthenticated", act, res, got)
			}
		}
	}
}

func TestDecide_UnresolvedRoleDeniedEverything(t *testing.T) {
	ownProfile := &Profile{UserID: unresolved.UserID}
	for _, res := range allResources {
		for _, act := range allActions {
			got := Decide(unresolved, res, act, ownProfile)
			if got != DenyForbidden {
				t.Errorf("unresolved %s on %s = %v, want DenyForbidden", act, res, got)
			}
			if got.Err() != ErrForbidden {
				t.Errorf("unresolved %s on %s Err() = %v, want ErrForbidden", act, res, got.Err())
			}
		}
	}
}

func TestDecide_ReadOpenWriteAdminOnly(t *testing.T) {
	for _, res := range []Resource{ResourceDepartment, ResourceSensor, ResourceBarrier, ResourceEvent} {
		if !Decide(operator, res, ActionRead, nil).Allowed() {
			t.Errorf("operator should read %s", res)
		}
		if Decide(operator, res, ActionWrite, nil).Allowed() {
			t.Errorf("operator should not write %s", res)
		}
		if !Decide(admin, res, ActionRead, nil).Allowed() {
			t.Errorf("admin should read %s", res)
		}
		if !Decide(admin, res, ActionWrite, nil).Allowed() {
			t.Errorf("admin should write %s", res)
		}
	}
}

func TestDecide_AdminOnly(t *testing.T) {
	for _, res := range []Resource{ResourceRole, ResourceUser} {
		for _, act := range []Action{ActionRead, ActionWrite} {
			if Decide(operator, res, act, nil).Allowed() {
				t.Errorf("operator should not %s %s", act, res)
			}
			if !Decide(admin, res, act, nil).Allowed() {
				t.Errorf("admin should %s %s", act, res)
			}
		}
	}
}

func TestDecide_OwnerOrAdmin(t *testing.T) {
	own := &Profile{ID: "prf-1", UserID: operator.UserID}
	other := &Profile{ID: "prf-2", UserID: "usr-someone-else"}

	tests := []struct {
		name   string
		p      Principal
		act    Action
		target any
		want   Decision
	}{
		{"operator reads any profile", operator, ActionRead, other, Allow},
		{"operator reads without target", operator, ActionRead, nil, Allow},
		{"operator writes own profile", operator, ActionWrite, own, Allow},
		{"operator writes foreign profile", operator, ActionWrite, other, DenyForbidden},
		{"operator writes without target", operator, ActionWrite, nil, DenyForbidden},
		{"operator writes unrelated type", operator, ActionWrite, struct{ UserID string }{operator.UserID}, DenyForbidden},
		{"operator writes nil profile pointer", operator, ActionWrite, (*Profile)(nil), DenyForbidden},
		{"admin writes foreign profile", admin, ActionWrite, other, Allow},
		{"admin writes without target", admin, ActionWrite, nil, Allow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.p, ResourceProfile, tt.act, tt.target); got != tt.want {
				t.Errorf("Decide() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecide_ChangeStateIsAdminOnly(t *testing.T) {
	for _, res := range []Resource{ResourceSensor, ResourceBarrier} {
		if Decide(operator, res, ActionChangeState, nil).Allowed() {
			t.Errorf("operator should not change state of %s", res)
		}
		if !Decide(admin, res, ActionChangeState, nil).Allowed() {
			t.Errorf("admin should change state of %s", res)
		}
	}

	// Even an owner cannot reach a state change through the ownership path.
	own := &Profile{UserID: operator.UserID}
	if Decide(operator, ResourceProfile, ActionChangeState, own).Allowed() {
		t.Error("ownership must not grant change-state")
	}
}

func TestDecide_UnknownResourceAndAction(t *testing.T) {
	if Decide(admin, Resource("gates"), ActionRead, nil).Allowed() {
		t.Error("unregistered resource should be denied")
	}
	if Decide(admin, ResourceSensor, Action("purge"), nil).Allowed() {
		t.Error("unknown action should be denied")
	}
}

func TestPolicyFor(t *testing.T) {
	want := map[Resource]Policy{
		ResourceDepartment: PolicyReadOpenWriteAdminOnly,
		ResourceSensor:     PolicyReadOpenWriteAdminOnly,
		ResourceBarrier:    PolicyReadOpenWriteAdminOnly,
		ResourceEvent:      PolicyReadOpenWriteAdminOnly,
		ResourceRole:       PolicyAdminOnly,
		ResourceUser:       PolicyAdminOnly,
		ResourceProfile:    PolicyOwnerOrAdmin,
	}
	for res, policy := range want {
		got, ok := PolicyFor(res)
		if !ok || got != policy {
			t.Errorf("PolicyFor(%s) = %v, %v; want %v", res, got, ok, policy)
		}
	}
	if _, ok := PolicyFor("gates"); ok {
		t.Error("PolicyFor should report unregistered resources")
	}
}

func TestDecisionErr(t *testing.T) {
	if Allow.Err() != nil {
		t.Error("Allow.Err() should be nil")
	}
	if DenyUnauthenticated.Err() != ErrUnauthenticated {
		t.Error("DenyUnauthenticated.Err() should be ErrUnauthenticated")
	}
	if DenyForbidden.Err() != ErrForbidden {
		t.Error("DenyForbidden.Err() should be ErrForbidden")
	}
}

func TestParseRole(t *testing.T) {
	for _, in := range []string{"admin", "Admin", " operator "} {
		if _, err := ParseRole(in); err != nil {
			t.Errorf("ParseRole(%q) error = %v", in, err)
		}
	}
	if _, err := ParseRole("owner"); err == nil {
		t.Error("ParseRole(owner) should fail")
	}
	if RoleAdmin.Display() != "Administrator" || RoleOperator.Display() != "Operator" {
		t.Error("unexpected display names")
	}
	if RoleUnresolved.Resolved() {
		t.Error("RoleUnresolved must not be resolved")
	}
}
