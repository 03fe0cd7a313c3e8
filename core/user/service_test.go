package user

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

type fakeUserRepo struct {
	users map[string]*User
	roles map[string]*Role
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users: make(map[string]*User),
		roles: make(map[string]*Role),
	}
}

func (repo *fakeUserRepo) addRole(name string, perms []string) Role {
	role := Role{ID: "r" + strconv.Itoa(len(repo.roles)+1), Name: name, Permissions: perms}
	repo.roles[role.ID] = &role
	return role
}

func (repo *fakeUserRepo) CheckEmailUniqueness(_ context.Context, email string, excludedUsers ...User) error {
	excluded := make(map[string]struct{}, len(excludedUsers))
	for _, usr := range excludedUsers {
		excluded[usr.ID] = struct{}{}
	}
	for _, usr := range repo.users {
		if _, skip := excluded[usr.ID]; skip {
			continue
		}
		if usr.Email == email {
			return ErrEmailExists
		}
	}
	return nil
}

func (repo *fakeUserRepo) CreateUser(_ context.Context, usr User) (User, error) {
	usr.ID = "u" + strconv.Itoa(len(repo.users)+1)
	repo.users[usr.ID] = &usr
	return usr, nil
}

func (repo *fakeUserRepo) QueryUsers(_ context.Context, filter QueryFilter) ([]User, error) {
	var users []User
	for _, usr := range repo.users {
		if filter.RoleID != "" && usr.RoleID != filter.RoleID {
			continue
		}
		users = append(users, *usr)
	}
	return users, nil
}

func (repo *fakeUserRepo) GetUserByID(_ context.Context, id string) (User, error) {
	if usr, ok := repo.users[id]; ok {
		return *usr, nil
	}
	return User{}, ErrNotFound
}

func (repo *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (User, error) {
	for _, usr := range repo.users {
		if usr.Email == email {
			return *usr, nil
		}
	}
	return User{}, ErrNotFound
}

func (repo *fakeUserRepo) UpdateUser(_ context.Context, usr User) (User, error) {
	if _, ok := repo.users[usr.ID]; !ok {
		return User{}, ErrNotFound
	}
	repo.users[usr.ID] = &usr
	return usr, nil
}

func (repo *fakeUserRepo) UpdateOrCreateUser(ctx context.Context, usr User) (User, error) {
	for _, u := range repo.users {
		if u.Email == usr.Email {
			usr.ID = u.ID
			repo.users[usr.ID] = &usr
			return usr, nil
		}
	}
	return repo.CreateUser(ctx, usr)
}

func (repo *fakeUserRepo) DeleteUser(_ context.Context, id string) error {
	delete(repo.users, id)
	return nil
}

func (repo *fakeUserRepo) GetRoleByID(_ context.Context, id string) (Role, error) {
	if role, ok := repo.roles[id]; ok {
		return *role, nil
	}
	return Role{}, ErrRoleNotFound
}

func (repo *fakeUserRepo) GetRoleByName(_ context.Context, name string) (Role, error) {
	for _, role := range repo.roles {
		if role.Name == name {
			return *role, nil
		}
	}
	return Role{}, ErrRoleNotFound
}

func (repo *fakeUserRepo) QueryRoles(_ context.Context) ([]Role, error) {
	roles := make([]Role, 0, len(repo.roles))
	for _, role := range repo.roles {
		roles = append(roles, *role)
	}
	return roles, nil
}

func (repo *fakeUserRepo) UpdateOrCreateRole(_ context.Context, role Role) (Role, error) {
	for _, r := range repo.roles {
		if r.Name == role.Name {
			role.ID = r.ID
			repo.roles[role.ID] = &role
			return role, nil
		}
	}
	role.ID = "r" + strconv.Itoa(len(repo.roles)+1)
	repo.roles[role.ID] = &role
	return role, nil
}

type fakeEmailService struct {
	sent []*core.EmailMessage
}

func (svc *fakeEmailService) SendMessages(messages ...*core.EmailMessage) {
	svc.sent = append(svc.sent, messages...)
}

func setup() (*Service, *fakeUserRepo, *fakeEmailService) {
	repo := newFakeUserRepo()
	for _, name := range AllRoleNames {
		repo.addRole(name, DefaultRolePermissions[name])
	}
	mailSvc := &fakeEmailService{}
	conf := &core.Config{AppName: "Shule", FrontendBaseURL: "http://localhost:4200"}
	return NewService(repo, mailSvc, conf), repo, mailSvc
}

func TestService_Create(t *testing.T) {
	svc, repo, mailSvc := setup()
	ctx := context.Background()

	usr, err := svc.Create(ctx, NewUser{
		Name:     "Sample Teacher",
		Email:    "teacher@school.com",
		Password: "Teacher123!",
		Role:     RoleTeacher,
		Section:  "Section A", // ignored for teachers
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if usr.ID == "" {
		t.Error("Create() did not set an ID")
	}
	if usr.Section != "" {
		t.Errorf("Section = %q, want empty for a teacher", usr.Section)
	}
	role, err := repo.GetRoleByID(ctx, usr.RoleID)
	if err != nil || role.Name != RoleTeacher {
		t.Errorf("RoleID resolves to %v (err %v), want %s", role.Name, err, RoleTeacher)
	}
	if err := usr.CheckPassword("Teacher123!"); err != nil {
		t.Errorf("CheckPassword() failed: %v", err)
	}
	if len(mailSvc.sent) != 1 {
		t.Errorf("welcome emails sent = %d, want 1", len(mailSvc.sent))
	}

	// students keep their section
	usr, err = svc.Create(ctx, NewUser{
		Name:     "Sample Student",
		Email:    "student@school.com",
		Password: "Student123!",
		Role:     RoleStudent,
		Section:  "Section A",
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if usr.Section != "Section A" {
		t.Errorf("Section = %q, want %q", usr.Section, "Section A")
	}
}

func TestService_Create_unknownRole(t *testing.T) {
	svc, _, _ := setup()

	_, err := svc.Create(context.Background(), NewUser{
		Name:     "X Y",
		Email:    "x@school.com",
		Password: "secret1",
		Role:     "Headmaster",
	})
	var vErr *core.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Create() error = %v, want a validation error", err)
	}
}

func TestService_Query_roleFilter(t *testing.T) {
	svc, _, _ := setup()
	ctx := context.Background()

	mkUser := func(name, email, roleName string) {
		if _, err := svc.Create(ctx, NewUser{Name: name, Email: email, Password: "secret1", Role: roleName}); err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
	}
	mkUser("T One", "t1@school.com", RoleTeacher)
	mkUser("T Two", "t2@school.com", RoleTeacher)
	mkUser("S One", "s1@school.com", RoleStudent)

	users, err := svc.Query(ctx, RoleTeacher)
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("Query(Teacher) returned %d users, want 2", len(users))
	}

	// an unknown role name leaves the query unfiltered
	users, err = svc.Query(ctx, "Headmaster")
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(users) != 3 {
		t.Errorf("Query(Headmaster) returned %d users, want 3", len(users))
	}
}

func TestService_Authenticate(t *testing.T) {
	svc, _, _ := setup()
	ctx := context.Background()

	created, err := svc.Create(ctx, NewUser{
		Name:     "Sample Teacher",
		Email:    "teacher@school.com",
		Password: "Teacher123!",
		Role:     RoleTeacher,
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	before := time.Now().UTC()
	usr, err := svc.Authenticate(ctx, "Teacher@School.com", "Teacher123!")
	if err != nil {
		t.Fatalf("Authenticate() failed: %v", err)
	}
	if usr.ID != created.ID {
		t.Errorf("Authenticate() returned user %v, want %v", usr.ID, created.ID)
	}
	if usr.LastLogin.Before(before) {
		t.Errorf("LastLogin = %v, want >= %v", usr.LastLogin, before)
	}

	// unknown emails and wrong passwords are indistinguishable
	if _, err = svc.Authenticate(ctx, "teacher@school.com", "wrong"); err != ErrNotFound {
		t.Errorf("Authenticate() error = %v, want %v", err, ErrNotFound)
	}
	if _, err = svc.Authenticate(ctx, "nobody@school.com", "Teacher123!"); err != ErrNotFound {
		t.Errorf("Authenticate() error = %v, want %v", err, ErrNotFound)
	}
}

func TestService_Update(t *testing.T) {
	svc, _, _ := setup()
	ctx := context.Background()

	usr, err := svc.Create(ctx, NewUser{
		Name:     "Sample Student",
		Email:    "student@school.com",
		Password: "Student123!",
		Role:     RoleStudent,
		Section:  "Section A",
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	cleared := ""
	updated, err := svc.Update(ctx, usr.ID, UpdateUser{Name: "Renamed Student", Section: &cleared})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if updated.Name != "Renamed Student" {
		t.Errorf("Name = %q, want %q", updated.Name, "Renamed Student")
	}
	if updated.Section != "" {
		t.Errorf("Section = %q, want cleared", updated.Section)
	}
	if updated.Email != usr.Email {
		t.Errorf("Email = %q, want unchanged %q", updated.Email, usr.Email)
	}
}
