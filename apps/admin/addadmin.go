package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/projectplatec/platec/core/user"
)

// addAdmin grants the Admin role to the user owning email, creating the account when there is none.
// The password is only asked for new accounts.
func (cli *commandLine) addAdmin(email, firstName, lastName string, password func() (string, error)) error {
	ctx := context.Background()
	if err := cli.usrSvc.CreateRole(ctx, user.RoleAdmin); err != nil {
		return err
	}

	usr, err := cli.usrSvc.FindByEmail(ctx, email)
	switch errors.Cause(err) {
	case nil:
		if usr.HasRole(user.RoleAdmin) {
			fmt.Printf("%s is already an admin\n", usr.Email)
			return nil
		}
	case user.ErrNotFound:
		var pwd string
		if pwd, err = password(); err != nil {
			return err
		}
		usr, err = cli.usrSvc.Create(ctx, user.User{
			Username:  email,
			Email:     email,
			FirstName: firstName,
			LastName:  lastName,
		}, pwd)
		if err != nil {
			return err
		}
	default:
		return err
	}

	if err = cli.usrSvc.AddToRole(ctx, usr, user.RoleAdmin); err != nil {
		return err
	}
	fmt.Printf("%s is now an admin\n", usr.Email)
	return nil
}
