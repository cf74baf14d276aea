package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.App{
		Name:                 "voltplan",
		Usage:                "Explain table access paths offline",
		EnableBashCompletion: true,
		HideVersion:          true,
		Commands: []*cli.Command{
			NewExplainCommand(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
