package cmd

import (
	"github.com/penguins-eggs/eggs/action"

	"github.com/urfave/cli/v2"
)

var statusCommand = &cli.Command{
	Name:  "status",
	Usage: "Show the detected distribution and the settings",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Usage:   "Output format (yaml, json)",
			Aliases: []string{"o"},
			Value:   "yaml",
		},
		settingsFlag,
		debugFlag,
		traceFlag,
	},
	Before: actions(initSilentLogging, initManager, loadSettingsOptional),
	Action: func(ctx *cli.Context) error {
		statusAction := action.ConfigStatus{
			Manager: manager(ctx),
			Format:  ctx.String("output"),
			Writer:  ctx.App.Writer,
		}

		return statusAction.Run()
	},
}
