package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"github.com/k0sproject/rig"
	"github.com/logrusorgru/aurora"
	"github.com/mattn/go-isatty"
	"github.com/penguins-eggs/eggs/cache"
	"github.com/penguins-eggs/eggs/config"
	"github.com/penguins-eggs/eggs/phase"
	"github.com/penguins-eggs/eggs/version"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

type (
	ctxManagerKey struct{}
	ctxLogFileKey struct{}
)

var (
	debugFlag = &cli.BoolFlag{
		Name:    "debug",
		Usage:   "Enable debug logging",
		Aliases: []string{"d"},
		EnvVars: []string{"DEBUG"},
	}

	traceFlag = &cli.BoolFlag{
		Name:    "trace",
		Usage:   "Enable trace logging",
		Aliases: []string{"dd"},
		EnvVars: []string{"TRACE"},
		Hidden:  true,
	}

	verboseFlag = &cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Verbose output, same as --debug",
		Aliases: []string{"v"},
	}

	unattendedFlag = &cli.BoolFlag{
		Name:    "unattended",
		Usage:   "Don't ask for confirmation",
		Aliases: []string{"u", "force"},
	}

	settingsFlag = &cli.StringFlag{
		Name:      "settings",
		Usage:     "Path to eggs.yaml",
		Value:     config.SettingsPath,
		TakesFile: true,
		Hidden:    true,
	}
)

// actions can be used to chain action functions (for urfave/cli's Before, After, etc)
func actions(funcs ...func(*cli.Context) error) func(*cli.Context) error {
	return func(ctx *cli.Context) error {
		for _, f := range funcs {
			if err := f(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

// requireRoot fails when the command does not run with root privileges
func requireRoot(ctx *cli.Context) error {
	if os.Geteuid() != 0 {
		return fmt.Errorf("%s requires root privileges, run it with sudo", ctx.Command.FullName())
	}
	return nil
}

func initColors(_ *cli.Context) error {
	phase.Colorize = aurora.NewAurora(isatty.IsTerminal(os.Stdout.Fd()))
	return nil
}

// initManager stores a new phase manager in the context
func initManager(ctx *cli.Context) error {
	ctx.Context = context.WithValue(ctx.Context, ctxManagerKey{}, &phase.Manager{})
	return nil
}

func manager(ctx *cli.Context) *phase.Manager {
	return ctx.Context.Value(ctxManagerKey{}).(*phase.Manager)
}

// loadSettings reads eggs.yaml into the manager, a missing file is an error
func loadSettings(ctx *cli.Context) error {
	return readSettings(ctx, true)
}

// loadSettingsOptional reads eggs.yaml into the manager when it exists
func loadSettingsOptional(ctx *cli.Context) error {
	return readSettings(ctx, false)
}

func readSettings(ctx *cli.Context, required bool) error {
	hostname, err := os.Hostname()
	if err != nil {
		return err
	}
	s, err := config.LoadSettings(ctx.String("settings"), hostname)
	if err != nil {
		if !required && errors.Is(err, config.ErrNotFound) {
			log.Debugf("no settings: %s", err)
			return nil
		}
		return err
	}
	manager(ctx).Settings = s
	return nil
}

func displayTitle(ctx *cli.Context) error {
	fmt.Fprintf(ctx.App.Writer, "eggs %s, %s\n", version.Version, ctx.Command.FullName())
	return nil
}

// initLogging initializes the logger
func initLogging(ctx *cli.Context) error {
	log.SetLevel(log.TraceLevel)
	log.SetOutput(io.Discard)
	initScreenLogger(logLevelFromCtx(ctx, log.InfoLevel))
	rig.SetLogger(log.StandardLogger())
	return initFileLogger(ctx)
}

// initSilentLogging initializes the logger in silent mode
func initSilentLogging(ctx *cli.Context) error {
	log.SetLevel(log.TraceLevel)
	log.SetOutput(io.Discard)
	initScreenLogger(logLevelFromCtx(ctx, log.FatalLevel))
	rig.SetLogger(log.StandardLogger())
	return initFileLogger(ctx)
}

func logLevelFromCtx(ctx *cli.Context, defaultLevel log.Level) log.Level {
	if ctx.Bool("debug") || ctx.Bool("verbose") {
		return log.DebugLevel
	} else if ctx.Bool("trace") {
		return log.TraceLevel
	} else {
		return defaultLevel
	}
}

func initScreenLogger(lvl log.Level) {
	log.AddHook(screenLoggerHook(lvl))
}

func initFileLogger(ctx *cli.Context) error {
	lf, fn, err := LogFile()
	if err != nil {
		return err
	}
	log.AddHook(fileLoggerHook(lf))
	ctx.Context = context.WithValue(ctx.Context, ctxLogFileKey{}, fn)
	return nil
}

// LogFile opens the log file in the cache dir for appending
func LogFile() (io.Writer, string, error) {
	logDir := cache.Dir()
	if err := cache.EnsureDir(logDir); err != nil {
		return nil, "", fmt.Errorf("error while creating log directory %s: %s", logDir, err.Error())
	}

	fn := path.Join(logDir, "eggs.log")
	logFile, err := os.OpenFile(fn, os.O_RDWR|os.O_CREATE|os.O_APPEND|os.O_SYNC, 0600)
	if err != nil {
		return nil, "", fmt.Errorf("Failed to open log %s: %s", fn, err.Error())
	}

	_, _ = fmt.Fprintf(logFile, "time=\"%s\" level=info msg=\"###### New session ######\"\n", time.Now().Format(time.RFC822))

	return logFile, fn, nil
}

// withLogFile adds the log file location to a failed command error
func withLogFile(ctx *cli.Context, err error) error {
	if err == nil {
		return nil
	}
	if fn, ok := ctx.Context.Value(ctxLogFileKey{}).(string); ok {
		return fmt.Errorf("%s failed - log file saved to %s: %w", ctx.Command.FullName(), fn, err)
	}
	return err
}

type loghook struct {
	Writer    io.Writer
	Formatter log.Formatter

	levels []log.Level
}

func (h *loghook) SetLevel(level log.Level) {
	h.levels = []log.Level{}
	for _, l := range log.AllLevels {
		if level >= l {
			h.levels = append(h.levels, l)
		}
	}
}

func (h *loghook) Levels() []log.Level {
	return h.levels
}

func (h *loghook) Fire(entry *log.Entry) error {
	line, err := h.Formatter.Format(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to format log entry: %v", err)
		return err
	}
	_, err = h.Writer.Write(line)
	return err
}

func screenLoggerHook(lvl log.Level) *loghook {
	l := &loghook{
		Formatter: &log.TextFormatter{DisableTimestamp: lvl < log.DebugLevel, ForceColors: true},
		Writer:    os.Stdout,
	}

	l.SetLevel(lvl)

	return l
}

func fileLoggerHook(logFile io.Writer) *loghook {
	l := &loghook{
		Formatter: &log.TextFormatter{
			FullTimestamp:          true,
			TimestampFormat:        time.RFC822,
			DisableLevelTruncation: true,
		},
		Writer: logFile,
	}

	l.SetLevel(log.DebugLevel)

	return l
}
