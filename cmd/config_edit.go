package cmd

import (
	"github.com/penguins-eggs/eggs/action"

	"github.com/urfave/cli/v2"
)

var configEditCommand = &cli.Command{
	Name:  "edit",
	Usage: "Edit eggs.yaml in the shell's default editor",
	Flags: []cli.Flag{
		settingsFlag,
	},
	Action: func(ctx *cli.Context) error {
		configEditAction := action.ConfigEdit{
			Path:   ctx.String("settings"),
			Stdout: ctx.App.Writer,
			Stderr: ctx.App.ErrWriter,
			Stdin:  ctx.App.Reader,
		}

		return configEditAction.Run()
	},
}
