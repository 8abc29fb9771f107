package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	dig_container "github.com/projectplatec/platec/apps/api/di/dig"
	"github.com/projectplatec/platec/core/setup"
	"github.com/projectplatec/platec/core/user"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	c := dig_container.New()
	err := c.Invoke(func(usrSvc *user.Service, reconciler *setup.Reconciler, db *sqlx.DB) error {
		cli := commandLine{usrSvc: usrSvc, reconciler: reconciler}
		if db != nil {
			defer db.Close()
			cli.db = db.DB
		}
		return cli.run(os.Args)
	})
	if err != nil {
		if !errors.Is(err, errHelp) {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
