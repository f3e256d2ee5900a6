package cmd

import (
	"fmt"

	"github.com/penguins-eggs/eggs/action"
	"github.com/urfave/cli/v2"
)

var calamaresCommand = &cli.Command{
	Name:  "calamares",
	Usage: "Configure, install or remove the calamares installer",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "install",
			Usage:   "Install calamares and its dependencies",
			Aliases: []string{"i"},
		},
		&cli.BoolFlag{
			Name:  "remove",
			Usage: "Remove calamares and its dependencies",
		},
		&cli.BoolFlag{
			Name:    "release",
			Usage:   "The installed system removes eggs and calamares",
			Aliases: []string{"r"},
		},
		&cli.StringFlag{
			Name:  "theme",
			Usage: "Theme for the installer branding",
		},
		unattendedFlag,
		verboseFlag,
		debugFlag,
		traceFlag,
		settingsFlag,
	},
	Before: actions(initLogging, requireRoot, initManager, loadSettings, displayTitle),
	Action: func(ctx *cli.Context) error {
		if ctx.Bool("install") && ctx.Bool("remove") {
			return fmt.Errorf("--install and --remove are mutually exclusive")
		}

		calamaresAction := action.Calamares{
			Manager:    manager(ctx),
			Stdout:     ctx.App.Writer,
			Unattended: ctx.Bool("unattended"),
			Install:    ctx.Bool("install"),
			Remove:     ctx.Bool("remove"),
			Release:    ctx.Bool("release"),
			Theme:      ctx.String("theme"),
		}

		return withLogFile(ctx, calamaresAction.Run())
	},
}
