package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/penguins-eggs/eggs/action"
	"github.com/penguins-eggs/eggs/config"
	"github.com/urfave/cli/v2"
)

var installCommand = &cli.Command{
	Name:    "install",
	Usage:   "Install the live system to a disk with the krill installer",
	Aliases: []string{"krill"},
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "unattended",
			Usage:   "Install with the answers of krill.yaml on the first disk",
			Aliases: []string{"u"},
		},
		&cli.StringFlag{
			Name:      "krill",
			Usage:     "Path to the unattended answers",
			Value:     config.KrillPath,
			TakesFile: true,
		},
		&cli.BoolFlag{
			Name:  "no-geoip",
			Usage: "Don't look the time zone up from the network",
		},
		verboseFlag,
		debugFlag,
		traceFlag,
		settingsFlag,
	},
	Before: actions(initLogging, requireRoot, initManager, loadSettingsOptional, displayTitle),
	Action: func(ctx *cli.Context) error {
		sigctx, cancel := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
		defer cancel()

		installAction := action.Install{
			Manager:    manager(ctx),
			Context:    sigctx,
			Stdout:     ctx.App.Writer,
			Unattended: ctx.Bool("unattended"),
			KrillPath:  ctx.String("krill"),
			NoGeoIP:    ctx.Bool("no-geoip"),
		}

		return withLogFile(ctx, installAction.Run())
	},
}
