package auth

import (
	"context"
	"testing"

	"github.com/trezcool/shule/core/user"
)

type fakeDirectory struct {
	users map[string]user.User
	roles map[string]user.Role
}

func (d *fakeDirectory) GetUserByID(_ context.Context, id string) (user.User, error) {
	if usr, ok := d.users[id]; ok {
		return usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (d *fakeDirectory) GetRoleByID(_ context.Context, id string) (user.Role, error) {
	if role, ok := d.roles[id]; ok {
		return role, nil
	}
	return user.Role{}, user.ErrRoleNotFound
}

func TestService_Resolve(t *testing.T) {
	svc := NewService(&fakeDirectory{
		users: map[string]user.User{
			"u1": {ID: "u1", RoleID: "r1"},
			"u2": {ID: "u2", RoleID: "gone"}, // dangling role reference
			"u3": {ID: "u3", RoleID: "r2"},
		},
		roles: map[string]user.Role{
			"r1": {ID: "r1", Name: user.RoleTeacher, Permissions: []string{user.PermMarksWrite, user.PermMarksReadAssigned}},
			"r2": {ID: "r2", Name: user.RoleAdmin}, // nil permissions
		},
	})
	ctx := context.Background()

	p, err := svc.Resolve(ctx, "u1")
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if p.UserID != "u1" || p.Role != user.RoleTeacher {
		t.Errorf("Resolve() = %+v", p)
	}
	if !p.HasPermission(user.PermMarksWrite) {
		t.Errorf("HasPermission(%q) = false, want true", user.PermMarksWrite)
	}
	if p.HasPermission(user.PermUsersManage) {
		t.Errorf("HasPermission(%q) = true, want false", user.PermUsersManage)
	}

	if _, err = svc.Resolve(ctx, "nope"); err != ErrNotAuthenticated {
		t.Errorf("Resolve() error = %v, want %v", err, ErrNotAuthenticated)
	}
	if _, err = svc.Resolve(ctx, "u2"); err != ErrNotAuthenticated {
		t.Errorf("Resolve() error = %v, want %v", err, ErrNotAuthenticated)
	}

	// a role without stored permissions resolves to an empty set, not nil
	p, err = svc.Resolve(ctx, "u3")
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if p.Permissions == nil {
		t.Error("Permissions = nil, want empty slice")
	}
}
