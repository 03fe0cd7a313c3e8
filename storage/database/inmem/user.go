package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core/grade"
	"github.com/trezcool/shule/core/user"
)

type userRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

var (
	_ user.Repository         = (*userRepository)(nil)
	_ grade.UserRefRepository = (*userRepository)(nil)
)

func (repo *userRepository) queryUsers() []user.User {
	users := make([]user.User, 0, len(repo.db.users))
	for _, u := range repo.db.users {
		cp := *u
		cp.AssignedGradeIDs = copyIDs(u.AssignedGradeIDs)
		cp.EnrolledGradeIDs = copyIDs(u.EnrolledGradeIDs)
		users = append(users, cp)
	}
	return users
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	exclUsrsLen := len(excludedUsers)
	if exclUsrsLen > 1 {
		sort.Slice(excludedUsers, func(i, j int) bool { return excludedUsers[i].ID < excludedUsers[j].ID })
	}

	for _, usr := range repo.db.users {
		if usr.Email == email && !isExcluded(*usr, excludedUsers, exclUsrsLen) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, u := range repo.db.users {
		if u.Email == usr.Email {
			return user.User{}, user.ErrEmailExists
		}
	}

	usr.ID = uuid.New().String()
	if usr.AssignedGradeIDs == nil {
		usr.AssignedGradeIDs = []string{}
	}
	if usr.EnrolledGradeIDs == nil {
		usr.EnrolledGradeIDs = []string{}
	}
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var users []user.User
	for _, usr := range repo.queryUsers() {
		if filter.RoleID != "" && usr.RoleID != filter.RoleID {
			continue
		}
		users = append(users, usr)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if usr, ok := repo.db.users[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.db.users {
		if usr.Email == email {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	origUsr, ok := repo.db.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	// membership fields are owned by the grade ref sweeps
	usr.AssignedGradeIDs = origUsr.AssignedGradeIDs
	usr.EnrolledGradeIDs = origUsr.EnrolledGradeIDs
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, u := range repo.db.users {
		if u.Email == usr.Email {
			usr.ID = u.ID
			usr.CreatedAt = u.CreatedAt
			usr.AssignedGradeIDs = u.AssignedGradeIDs
			usr.EnrolledGradeIDs = u.EnrolledGradeIDs
			repo.db.users[usr.ID] = &usr
			return usr, nil
		}
	}

	usr.ID = uuid.New().String()
	if usr.AssignedGradeIDs == nil {
		usr.AssignedGradeIDs = []string{}
	}
	if usr.EnrolledGradeIDs == nil {
		usr.EnrolledGradeIDs = []string{}
	}
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) DeleteUser(ctx context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	delete(repo.db.users, id)
	return nil
}

func (repo *userRepository) GetRoleByID(ctx context.Context, id string) (user.Role, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if role, ok := repo.db.roles[id]; ok {
		return *role, nil
	}
	return user.Role{}, user.ErrRoleNotFound
}

func (repo *userRepository) GetRoleByName(ctx context.Context, name string) (user.Role, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, role := range repo.db.roles {
		if role.Name == name {
			return *role, nil
		}
	}
	return user.Role{}, user.ErrRoleNotFound
}

func (repo *userRepository) QueryRoles(ctx context.Context) ([]user.Role, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	roles := make([]user.Role, 0, len(repo.db.roles))
	for _, role := range repo.db.roles {
		roles = append(roles, *role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
	return roles, nil
}

func (repo *userRepository) UpdateOrCreateRole(ctx context.Context, role user.Role) (user.Role, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, r := range repo.db.roles {
		if r.Name == role.Name {
			role.ID = r.ID
			role.CreatedAt = r.CreatedAt
			repo.db.roles[role.ID] = &role
			return role, nil
		}
	}

	role.ID = uuid.New().String()
	repo.db.roles[role.ID] = &role
	return role, nil
}

func (repo *userRepository) GradeRefHolders(ctx context.Context, field grade.RefField, gradeID string) ([]string, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var holders []string
	for _, usr := range repo.db.users {
		if containsID(repo.refs(usr, field), gradeID) {
			holders = append(holders, usr.ID)
		}
	}
	return holders, nil
}

func (repo *userRepository) AddGradeRef(ctx context.Context, field grade.RefField, gradeID string, userIDs []string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range userIDs {
		usr, ok := repo.db.users[id]
		if !ok {
			continue
		}
		if refs := repo.refs(usr, field); !containsID(refs, gradeID) {
			repo.setRefs(usr, field, append(refs, gradeID))
		}
	}
	return nil
}

func (repo *userRepository) RemoveGradeRef(ctx context.Context, field grade.RefField, gradeID string, userIDs []string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range userIDs {
		if usr, ok := repo.db.users[id]; ok {
			repo.setRefs(usr, field, removeID(repo.refs(usr, field), gradeID))
		}
	}
	return nil
}

func (repo *userRepository) refs(usr *user.User, field grade.RefField) []string {
	if field == grade.RefAssigned {
		return usr.AssignedGradeIDs
	}
	return usr.EnrolledGradeIDs
}

func (repo *userRepository) setRefs(usr *user.User, field grade.RefField, ids []string) {
	if field == grade.RefAssigned {
		usr.AssignedGradeIDs = ids
	} else {
		usr.EnrolledGradeIDs = ids
	}
}

func isExcluded(usr user.User, excludedUsers []user.User, n int) bool {
	if n <= 0 {
		return false
	}
	idx := sort.Search(n, func(i int) bool { return excludedUsers[i].ID >= usr.ID })
	return idx < n && excludedUsers[idx].ID == usr.ID
}
