package cmd

import (
	"fmt"
	"strings"

	"github.com/penguins-eggs/eggs/action"
	"github.com/penguins-eggs/eggs/phase"
	"github.com/penguins-eggs/eggs/pkg/squashfs"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
)

var produceCommand = &cli.Command{
	Name:  "produce",
	Usage: "Produce a live ISO of the running system",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "prefix",
			Usage:   "Prefix of the ISO name",
			Aliases: []string{"p"},
		},
		&cli.StringFlag{
			Name:    "basename",
			Usage:   "Basename of the ISO, the hostname when empty",
			Aliases: []string{"b"},
		},
		&cli.BoolFlag{
			Name:  "backup",
			Usage: "Keep the user homes on the ISO",
		},
		&cli.BoolFlag{
			Name:    "fast",
			Usage:   "Fast compression (zstd, lz4 or gzip)",
			Aliases: []string{"f"},
		},
		&cli.BoolFlag{
			Name:  "normal",
			Usage: "Normal compression (xz)",
		},
		&cli.BoolFlag{
			Name:    "max",
			Usage:   "Maximum compression (xz -Xbcj x86)",
			Aliases: []string{"m"},
		},
		&cli.BoolFlag{
			Name:    "yolk",
			Usage:   "Refresh the local repository of the installer packages",
			Aliases: []string{"y"},
		},
		&cli.BoolFlag{
			Name:    "script",
			Usage:   "Write the long commands to scripts instead of running them",
			Aliases: []string{"s"},
		},
		&cli.StringFlag{
			Name:  "theme",
			Usage: "Theme for the live boot and the installer",
		},
		&cli.StringSliceFlag{
			Name:  "addons",
			Usage: "Launchers to add to the live desktop: " + strings.Join(phase.Addons, ", "),
		},
		&cli.BoolFlag{
			Name:  "release",
			Usage: "Maximum compression, the installer removes eggs and calamares",
		},
		unattendedFlag,
		verboseFlag,
		debugFlag,
		traceFlag,
		settingsFlag,
	},
	Before: actions(initLogging, requireRoot, initManager, loadSettings, displayTitle),
	Action: func(ctx *cli.Context) error {
		addons := ctx.StringSlice("addons")
		if unknown, _ := lo.Difference(addons, phase.Addons); len(unknown) > 0 {
			return fmt.Errorf("unknown addons: %s", strings.Join(unknown, ", "))
		}

		produceAction := action.Produce{
			Manager: manager(ctx),
			Ovary: &phase.Ovary{
				Prefix:   ctx.String("prefix"),
				Basename: ctx.String("basename"),
				Backup:   ctx.Bool("backup"),
				Script:   ctx.Bool("script"),
				Yolk:     ctx.Bool("yolk"),
				Release:  ctx.Bool("release"),
				Compression: squashfs.Options{
					Fast:   ctx.Bool("fast"),
					Normal: ctx.Bool("normal"),
					Max:    ctx.Bool("max"),
				},
				Theme:  ctx.String("theme"),
				Addons: addons,
			},
			Stdout:     ctx.App.Writer,
			Unattended: ctx.Bool("unattended"),
		}

		return withLogFile(ctx, produceAction.Run())
	},
}
