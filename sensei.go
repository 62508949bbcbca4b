package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/gitsensei/sensei/cmd"
	"github.com/gitsensei/sensei/internal/logging"
)

const (
	version = "0.1.0"
)

func main() {
	// -v is taken by --verbose
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}

	app := &cli.App{
		Name:    "sensei",
		Usage:   "Commit messages for your staged changes, written by the AI CLI you already use",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE` on top of ~/.sensei.toml and ./.sensei.toml",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			logging.Setup(c.Bool("verbose"), os.Stderr)
			return nil
		},
		Commands: []*cli.Command{
			cmd.CommitCommand(),
			cmd.ListCommand(),
			cmd.UseCommand(),
			cmd.CheckCommand(),
			cmd.InitCommand(),
			cmd.ConfigCommand(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
