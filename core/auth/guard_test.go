package auth

import (
	"reflect"
	"testing"

	"github.com/trezcool/shule/core/user"
)

func TestGuard_Rules(t *testing.T) {
	want := []string{"admin-override", "capability-set"}
	if got := NewGuard().Rules(); !reflect.DeepEqual(got, want) {
		t.Errorf("Rules() = %v, want %v", got, want)
	}
}

func TestGuard_RequirePermission(t *testing.T) {
	guard := NewGuard()

	tests := []struct {
		name    string
		p       Principal
		perm    string
		wantErr error
	}{
		{
			// the override rule fires before the capability set is consulted
			name: "admin with empty permission set",
			p:    Principal{UserID: "u1", Role: user.RoleAdmin, Permissions: []string{}},
			perm: user.PermUsersManage,
		},
		{
			name: "teacher with the permission",
			p:    Principal{UserID: "u2", Role: user.RoleTeacher, Permissions: []string{user.PermMarksWrite}},
			perm: user.PermMarksWrite,
		},
		{
			name:    "teacher without the permission",
			p:       Principal{UserID: "u2", Role: user.RoleTeacher, Permissions: []string{user.PermMarksWrite}},
			perm:    user.PermUsersManage,
			wantErr: ErrForbidden,
		},
		{
			name:    "student without the permission",
			p:       Principal{UserID: "u3", Role: user.RoleStudent, Permissions: []string{user.PermMarksReadSelf}},
			perm:    user.PermMarksWrite,
			wantErr: ErrForbidden,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := guard.RequirePermission(tt.p, tt.perm); err != tt.wantErr {
				t.Errorf("RequirePermission() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGuard_RequireRole(t *testing.T) {
	guard := NewGuard()
	teacher := Principal{UserID: "u1", Role: user.RoleTeacher}

	if err := guard.RequireRole(teacher, user.RoleTeacher); err != nil {
		t.Errorf("RequireRole() error = %v, want nil", err)
	}
	if err := guard.RequireRole(teacher, user.RoleAdmin, user.RoleTeacher); err != nil {
		t.Errorf("RequireRole() error = %v, want nil", err)
	}
	if err := guard.RequireRole(teacher, user.RoleAdmin); err != ErrForbidden {
		t.Errorf("RequireRole() error = %v, want %v", err, ErrForbidden)
	}
	// role checks carry no admin override
	admin := Principal{UserID: "u2", Role: user.RoleAdmin}
	if err := guard.RequireRole(admin, user.RoleStudent); err != ErrForbidden {
		t.Errorf("RequireRole() error = %v, want %v", err, ErrForbidden)
	}
}
