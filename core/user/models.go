package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role names
const (
	RoleAdmin   = "Admin"
	RoleTeacher = "Teacher"
	RoleStudent = "Student"
)

// Permissions. They belong to a Role, never to an individual User.
const (
	PermUsersManage       = "users:manage"
	PermSubjectsManage    = "subjects:manage"
	PermGradesManage      = "grades:manage"
	PermMarksWrite        = "marks:write"
	PermMarksReadAssigned = "marks:read_assigned"
	PermMarksReadSelf     = "marks:read_self"
)

var (
	AllRoleNames = []string{RoleAdmin, RoleTeacher, RoleStudent}

	AllPermissions = []string{
		PermUsersManage,
		PermSubjectsManage,
		PermGradesManage,
		PermMarksWrite,
		PermMarksReadAssigned,
		PermMarksReadSelf,
	}

	// DefaultRolePermissions is the seeded permission set of each role.
	DefaultRolePermissions = map[string][]string{
		RoleAdmin:   AllPermissions,
		RoleTeacher: {PermMarksWrite, PermMarksReadAssigned},
		RoleStudent: {PermMarksReadSelf},
	}
)

// Role is static reference data: seeded once, referenced by Users.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

func (r Role) HasPermission(perm string) bool {
	for _, p := range r.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash []byte `json:"-"`
	RoleID       string `json:"role_id"`

	// Section is a student-only label, e.g. "Section A".
	Section string `json:"section,omitempty"`

	// Denormalized back-references to Grade memberships; kept in sync
	// with Grade.TeacherIDs / Grade.StudentIDs by the grade service,
	// the only writer allowed to touch both sides.
	AssignedGradeIDs []string `json:"assigned_grade_ids,omitempty"` // Teacher
	EnrolledGradeIDs []string `json:"enrolled_grade_ids,omitempty"` // Student

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
	LastLogin time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}
