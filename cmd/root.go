package cmd

import (
	"github.com/urfave/cli/v2"
)

// App is the main urfave/cli.App for eggs
var App = &cli.App{
	Name:  "eggs",
	Usage: "remaster the running system into a live ISO and install it",
	Flags: []cli.Flag{
		debugFlag,
		traceFlag,
	},
	Before: initColors,
	Commands: []*cli.Command{
		versionCommand,
		produceCommand,
		installCommand,
		calamaresCommand,
		wardrobeCommand,
		toolsCommand,
		configCommand,
		statusCommand,
		completionCommand,
	},
}
