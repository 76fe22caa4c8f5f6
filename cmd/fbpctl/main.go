// Package main implements fbpctl, a client CLI that drives a running
// fbprun instance's HTTP control surface, one subcommand per control
// operation.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

const appVersion = "0.1.0"

func addrFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "addr",
		Aliases: []string{"a"},
		Usage:   "Base URL of the fbprun control surface",
		EnvVars: []string{"FBPCTL_ADDR"},
		Value:   "http://localhost:8080/",
	}
}

func main() {
	app := &cli.App{
		Name:    "fbpctl",
		Usage:   "drive a running flow-based network's control surface",
		Version: appVersion,
		Flags:   []cli.Flag{addrFlag()},
		Commands: []*cli.Command{
			addComponentCommand(),
			removeComponentCommand(),
			connectCommand(),
			disconnectCommand(),
			initializeCommand(),
			uninitializeCommand(),
			runCommand(),
			terminateCommand(),
			statusCommand(),
			listComponentsCommand(),
			listConnectionsCommand(),
			describeCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "fbpctl:", err)
		os.Exit(1)
	}
}
