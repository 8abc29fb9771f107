package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/projectplatec/platec/core/setup"
	"github.com/projectplatec/platec/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp       = errors.New("help provided")
	errNoDatabase = errors.New("migrations require the postgres database engine")
)

type commandLine struct {
	usrSvc     *user.Service
	reconciler *setup.Reconciler
	db         *sql.DB // nil with the in-memory engine
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS]                          - run a goose migration command (up, down, status...)")
	fmt.Println("  seed                                            - create missing roles, the seed admin & backfill roles")
	fmt.Println("  addadmin -email EMAIL [-first NAME] [-last NAME] - create an admin or promote an existing user")
	fmt.Println("  resetpassword -email EMAIL                      - reset user's password")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addAdminCmd := flag.NewFlagSet("addadmin", flag.ExitOnError)
	addAdminEmail := addAdminCmd.String("email", "", "The admin's email, also used as username.")
	addAdminFirst := addAdminCmd.String("first", "", "The admin's first name.")
	addAdminLast := addAdminCmd.String("last", "", "The admin's last name.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "seed":
		return cli.seed()

	case "addadmin":
		if err := addAdminCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addAdminEmail == "" {
			addAdminCmd.Usage()
			return errHelp
		}
		return cli.addAdmin(*addAdminEmail, *addAdminFirst, *addAdminLast, func() (string, error) {
			return promptPassword(addAdminCmd)
		})

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword(resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)

	default:
		cli.printUsage()
		return errHelp
	}
}

func promptPassword(cmd *flag.FlagSet) (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		cmd.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}
