package main

import (
	"context"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	return cli.usrSvc.SetPassword(ctx, usr, pwd)
}
