package main

import "context"

func (cli *commandLine) seed() error {
	return cli.reconciler.Run(context.Background())
}
