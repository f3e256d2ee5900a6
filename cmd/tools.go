package cmd

import (
	"github.com/penguins-eggs/eggs/action"
	"github.com/urfave/cli/v2"
)

var toolsCommand = &cli.Command{
	Name:  "tools",
	Usage: "Helpers to prepare the system for a remaster",
	Subcommands: []*cli.Command{
		{
			Name:  "skel",
			Usage: "Copy the desktop configuration of a user to /etc/skel",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "user",
					Usage: "User whose configuration is copied, the primary user when empty",
				},
				&cli.BoolFlag{
					Name:  "no-translate",
					Usage: "Don't use the localized name of the Desktop folder",
				},
				unattendedFlag,
				verboseFlag,
				debugFlag,
				traceFlag,
			},
			Before: actions(initLogging, requireRoot, initManager, displayTitle),
			Action: func(ctx *cli.Context) error {
				skelAction := action.Skel{
					Manager:    manager(ctx),
					User:       ctx.String("user"),
					Translate:  !ctx.Bool("no-translate"),
					Stdout:     ctx.App.Writer,
					Unattended: ctx.Bool("unattended"),
				}
				return withLogFile(ctx, skelAction.Run())
			},
		},
	},
}
