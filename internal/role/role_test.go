package role_test

import (
	"testing"

	"github.com/dropDatabas3/fieldtask/internal/role"
	"github.com/dropDatabas3/fieldtask/internal/token"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		name   string
		groups []string
		want   role.Role
	}{
		{"admin only", []string{"admin"}, role.RoleAdmin},
		{"member only", []string{"member"}, role.RoleMember},
		{"admin precede a member", []string{"member", "admin"}, role.RoleAdmin},
		{"grupos ajenos", []string{"ops", "billing"}, role.RoleUnknown},
		{"sin grupos", []string{}, role.RoleUnknown},
		{"groups ausente", nil, role.RoleUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := role.Resolve(token.ClaimSet{Groups: tc.groups})
			if got != tc.want {
				t.Errorf("Resolve(%v) = %q, want %q", tc.groups, got, tc.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	if role.Parse("admin") != role.RoleAdmin {
		t.Error("Parse(admin)")
	}
	if role.Parse("member") != role.RoleMember {
		t.Error("Parse(member)")
	}
	if role.Parse("root") != role.RoleUnknown {
		t.Error("Parse(root) debe ser Unknown")
	}
}

func TestValid(t *testing.T) {
	if !role.RoleAdmin.Valid() || !role.RoleMember.Valid() {
		t.Error("admin/member deben ser válidos")
	}
	if role.RoleUnknown.Valid() {
		t.Error("Unknown no es asignable a una sesión")
	}
}
