package phase

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/k0sproject/rig"
	rigos "github.com/k0sproject/rig/os"
	"github.com/logrusorgru/aurora"
	"github.com/penguins-eggs/eggs/config"
	"github.com/penguins-eggs/eggs/configurer"
	"github.com/penguins-eggs/eggs/pkg/distro"
	"github.com/penguins-eggs/eggs/report"
	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"
)

// ErrAborted is returned when the user or the failure handler stops the sequence
var ErrAborted = errors.New("aborted")

// Colorize is an instance of "aurora", used to colorize the output. Colors are
// enabled by the CLI when stdout is a terminal.
var Colorize = aurora.NewAurora(false)

type phase interface {
	Run() error
	Title() string
}

type withmanager interface {
	Prepare(*Manager) error
}

type conditional interface {
	ShouldRun() bool
}

type beforehook interface {
	Before() error
}

type afterhook interface {
	After(error) error
}

type withpercent interface {
	Percent() int
}

type withprops interface {
	Props() map[string]interface{}
}

// critical phases stop the sequence without consulting the failure handler
type critical interface {
	Critical() bool
}

// FailureHandler is called with the title and the error of a failed phase. It
// returns true to continue with the next phase.
type FailureHandler func(title string, err error) bool

// Abort is the failure handler of unattended runs
func Abort(string, error) bool {
	return false
}

// Manager executes phases in order
type Manager struct {
	phases  []phase
	cleanup []phase

	// Root is the root of the running system, "/" unless testing
	Root string
	// Target is where the installed system is mounted
	Target string

	Host         rigos.Host
	Distro       *distro.Distro
	Configurer   configurer.Configurer
	Settings     *config.Settings
	Installation *config.Installation
	Devices      Devices
	EFI          bool
	Ovary        *Ovary

	Report         *report.Report
	FailureHandler FailureHandler
	Progress       io.Writer
	// WaitKey is called with a message when the user has to press a key, nil in
	// unattended runs
	WaitKey func(message string)

	bar *progressbar.ProgressBar
}

// AddPhase adds a Phase to Manager
func (m *Manager) AddPhase(p ...phase) {
	m.phases = append(m.phases, p...)
}

// AddCleanup adds phases that run after the others, also when one of them failed.
// A failed cleanup phase does not stop the next one.
func (m *Manager) AddCleanup(p ...phase) {
	m.cleanup = append(m.cleanup, p...)
}

// HostPath returns p below the manager root
func (m *Manager) HostPath(p string) string {
	if m.Root == "" {
		return p
	}
	return filepath.Join(m.Root, p)
}

// TargetPath returns p below the install target
func (m *Manager) TargetPath(p string) string {
	return filepath.Join(m.Target, p)
}

// Connection returns the host as a rig connection when it is one
func (m *Manager) Connection() (*rig.Connection, bool) {
	c, ok := m.Host.(*rig.Connection)
	return c, ok
}

func (m *Manager) progress(title string, percent int) {
	if m.Progress == nil {
		return
	}
	if m.bar == nil {
		m.bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(m.Progress),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(30),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}
	m.bar.Describe(fmt.Sprintf("%s (%d%%)", title, percent))
	_ = m.bar.Set(percent)
}

// Run executes all the added Phases in order, then the cleanup phases
func (m *Manager) Run() error {
	result := m.run(m.phases)

	for _, p := range m.cleanup {
		if err := m.run([]phase{p}); err != nil {
			result = errors.Join(result, err)
		}
	}

	if m.bar != nil {
		_ = m.bar.Finish()
		fmt.Fprintln(m.Progress)
	}

	return result
}

// run stops at the first failure unless the failure handler accepts it. An
// accepted failure is only logged and kept in the report.
func (m *Manager) run(phases []phase) error {
	for _, p := range phases {
		title := p.Title()

		if wm, ok := p.(withmanager); ok {
			log.Debugf("preparing phase '%s'", title)
			if err := wm.Prepare(m); err != nil {
				return err
			}
		}

		if c, ok := p.(conditional); ok {
			if !c.ShouldRun() {
				log.Debugf("skipping phase '%s'", title)
				continue
			}
		}

		if p, ok := p.(beforehook); ok {
			if err := p.Before(); err != nil {
				log.Debugf("before hook failed '%s'", err.Error())
				return err
			}
		}

		text := Colorize.Green("==> Running phase: %s").String()
		log.Infof(text, title)

		if pp, ok := p.(withpercent); ok {
			m.progress(title, pp.Percent())
		}

		start := time.Now()
		err := p.Run()

		if m.Report != nil {
			var props map[string]interface{}
			if wp, ok := p.(withprops); ok {
				props = wp.Props()
			}
			m.Report.Add(title, time.Since(start), err, props)
		}

		if p, ok := p.(afterhook); ok {
			if err := p.After(err); err != nil {
				log.Debugf("after hook failed: '%s'", err.Error())
				return err
			}
		}

		if err != nil {
			log.Errorf("%s: %s", title, err.Error())
			if c, ok := p.(critical); ok && c.Critical() {
				return err
			}
			if m.FailureHandler == nil || !m.FailureHandler(title, err) {
				return err
			}
			log.Warnf("continuing after failed phase '%s': %s", title, err.Error())
		}
	}

	return nil
}
