package cmd

import (
	"github.com/penguins-eggs/eggs/action"
	"github.com/penguins-eggs/eggs/pkg/wardrobe"
	"github.com/urfave/cli/v2"
)

var wardrobeFlag = &cli.StringFlag{
	Name:      "wardrobe",
	Usage:     "Wardrobe directory",
	Aliases:   []string{"w"},
	Value:     wardrobe.DefaultDir(),
	TakesFile: true,
}

func wardrobeFrom(ctx *cli.Context) *wardrobe.Wardrobe {
	return wardrobe.New(ctx.String("wardrobe"))
}

// costume returns the first argument or the default costume
func costume(ctx *cli.Context) string {
	if ctx.Args().Present() {
		return ctx.Args().First()
	}
	return wardrobe.DefaultCostume
}

var wardrobeCommand = &cli.Command{
	Name:  "wardrobe",
	Usage: "Costumes and accessories to dress the system",
	Subcommands: []*cli.Command{
		{
			Name:   "list",
			Usage:  "List the costumes and accessories",
			Flags:  []cli.Flag{wardrobeFlag, debugFlag, traceFlag},
			Before: actions(initSilentLogging),
			Action: func(ctx *cli.Context) error {
				listAction := action.WardrobeList{
					Wardrobe: wardrobeFrom(ctx),
					Writer:   ctx.App.Writer,
				}
				return listAction.Run()
			},
		},
		{
			Name:      "show",
			Usage:     "Show the index of a costume",
			ArgsUsage: "[costume]",
			Flags: []cli.Flag{
				wardrobeFlag,
				&cli.BoolFlag{
					Name:    "json",
					Usage:   "Output JSON instead of YAML",
					Aliases: []string{"j"},
				},
				debugFlag,
				traceFlag,
			},
			Before: actions(initSilentLogging),
			Action: func(ctx *cli.Context) error {
				showAction := action.WardrobeShow{
					Wardrobe: wardrobeFrom(ctx),
					Costume:  costume(ctx),
					JSON:     ctx.Bool("json"),
					Writer:   ctx.App.Writer,
				}
				return showAction.Run()
			},
		},
		{
			Name:      "get",
			Usage:     "Clone the wardrobe repository",
			ArgsUsage: "[repository]",
			Flags:     []cli.Flag{wardrobeFlag, verboseFlag, debugFlag, traceFlag},
			Before:    actions(initLogging, initManager),
			Action: func(ctx *cli.Context) error {
				getAction := action.WardrobeGet{
					Manager:  manager(ctx),
					Wardrobe: wardrobeFrom(ctx),
					Repo:     ctx.Args().First(),
				}
				return getAction.Run()
			},
		},
		{
			Name:      "wear",
			Usage:     "Install the packages and customizations of a costume",
			ArgsUsage: "[costume]",
			Flags: []cli.Flag{
				wardrobeFlag,
				&cli.BoolFlag{
					Name:  "no_accessories",
					Usage: "Don't install the accessories",
				},
				&cli.BoolFlag{
					Name:  "no_firmwares",
					Usage: "Don't install the firmwares accessory",
				},
				unattendedFlag,
				verboseFlag,
				debugFlag,
				traceFlag,
			},
			Before: actions(initLogging, requireRoot, initManager, displayTitle),
			Action: func(ctx *cli.Context) error {
				wearAction := action.WardrobeWear{
					Manager:       manager(ctx),
					Wardrobe:      wardrobeFrom(ctx),
					Costume:       costume(ctx),
					NoAccessories: ctx.Bool("no_accessories"),
					NoFirmwares:   ctx.Bool("no_firmwares"),
					Stdout:        ctx.App.Writer,
					Unattended:    ctx.Bool("unattended"),
				}
				return withLogFile(ctx, wearAction.Run())
			},
		},
	},
}
