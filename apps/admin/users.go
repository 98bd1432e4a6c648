package main

import (
	"context"

	"github.com/trezcool/darasa/core/user"
)

// addUser creates an admin user.
func (cli *commandLine) addUser(uname, email, pwd string) error {
	ctx := context.Background()

	nu := user.NewUser{
		Username: uname,
		Email:    email,
		Password: pwd,
		Role:     user.RoleAdmin,
	}
	if err := nu.Validate(cli.usrSvc); err != nil {
		return err
	}

	_, err := cli.usrSvc.Create(ctx, nu)
	return err
}

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()

	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	return cli.usrSvc.ResetPassword(ctx, usr, pwd)
}
