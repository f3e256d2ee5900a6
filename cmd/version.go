package cmd

import (
	"fmt"

	"github.com/denisbrodbeck/machineid"
	"github.com/penguins-eggs/eggs/version"
	"github.com/urfave/cli/v2"
)

var versionCommand = &cli.Command{
	Name:  "version",
	Usage: "Output eggs version",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:   "machine-id",
			Hidden: true,
		},
	},
	Action: func(ctx *cli.Context) error {
		fmt.Fprintf(ctx.App.Writer, "version: %s\n", version.Version)
		fmt.Fprintf(ctx.App.Writer, "commit: %s\n", version.GitCommit)
		if ctx.Bool("machine-id") {
			id, err := machineid.ProtectedID("penguins-eggs")
			if err != nil {
				id = "failed: " + err.Error()
			}
			fmt.Fprintf(ctx.App.Writer, "machine-id: %s\n", id)
		}
		return nil
	},
}
