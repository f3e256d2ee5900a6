package cmd

import (
	"github.com/penguins-eggs/eggs/action"
	"github.com/urfave/cli/v2"
)

var configCommand = &cli.Command{
	Name:    "config",
	Usage:   "Create or refresh eggs.yaml, install the prerequisites and configure the installer",
	Aliases: []string{"dad"},
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "reset",
			Usage:   "Replace eggs.yaml with the defaults",
			Aliases: []string{"r"},
		},
		unattendedFlag,
		verboseFlag,
		debugFlag,
		traceFlag,
		settingsFlag,
	},
	Subcommands: []*cli.Command{
		configEditCommand,
	},
	Before: actions(initLogging, requireRoot, initManager, displayTitle),
	Action: func(ctx *cli.Context) error {
		configAction := action.Config{
			Manager:      manager(ctx),
			SettingsPath: ctx.String("settings"),
			Reset:        ctx.Bool("reset"),
			Stdout:       ctx.App.Writer,
			Unattended:   ctx.Bool("unattended"),
		}

		return withLogFile(ctx, configAction.Run())
	},
}
