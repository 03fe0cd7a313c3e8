// Package auth resolves authenticated principals and decides what they may do.
package auth

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/user"
)

var (
	// ErrNotAuthenticated covers every unresolvable principal: unknown
	// user and dangling role alike. A dangling role reference is a data
	// integrity issue, not a permissions issue, so it must not surface
	// as ErrForbidden.
	ErrNotAuthenticated = errors.New("not authenticated")

	ErrForbidden = errors.New("permission denied")
)

// Principal is an authenticated actor with a resolved role and permission set.
// It is resolved once per request and immutable for the request's duration.
type Principal struct {
	UserID      string   `json:"id"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

func (p Principal) HasPermission(perm string) bool {
	for _, pp := range p.Permissions {
		if pp == perm {
			return true
		}
	}
	return false
}

type (
	// Directory is the read-only identity lookup the resolver needs.
	Directory interface {
		GetUserByID(ctx context.Context, id string) (user.User, error)
		GetRoleByID(ctx context.Context, id string) (user.Role, error)
	}

	Service struct {
		dir Directory
	}
)

func NewService(dir Directory) *Service {
	return &Service{dir: dir}
}

// Resolve maps a verified user identifier to a Principal carrying role
// name and permission set.
func (svc *Service) Resolve(ctx context.Context, userID string) (Principal, error) {
	usr, err := svc.dir.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return Principal{}, ErrNotAuthenticated
		}
		return Principal{}, errors.Wrap(err, "finding user by ID")
	}

	role, err := svc.dir.GetRoleByID(ctx, usr.RoleID)
	if err != nil {
		if errors.Cause(err) == user.ErrRoleNotFound {
			return Principal{}, ErrNotAuthenticated
		}
		return Principal{}, errors.Wrap(err, "finding role by ID")
	}

	perms := role.Permissions
	if perms == nil {
		perms = []string{}
	}
	return Principal{
		UserID:      usr.ID,
		Role:        role.Name,
		Permissions: perms,
	}, nil
}
