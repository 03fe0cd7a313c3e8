package main

import (
	"context"
	"time"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(name, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)

	roleName := user.RoleStudent
	if isAdmin {
		roleName = user.RoleAdmin
	}
	role, err := cli.usrRepo.GetRoleByName(ctx, roleName)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Email:     email,
		RoleID:    role.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	if _, err := cli.usrRepo.UpdateOrCreateUser(ctx, usr); err != nil {
		return err
	}
	return nil
}
