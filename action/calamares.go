package action

import (
	"io"
	"time"

	"github.com/penguins-eggs/eggs/phase"
)

// Calamares installs, configures or removes the GUI installer
type Calamares struct {
	// Manager is the phase manager
	Manager    *phase.Manager
	Stdout     io.Writer
	Unattended bool

	Install bool
	Remove  bool
	// Release makes the installed system remove eggs and calamares
	Release bool
	Theme   string
}

func (c Calamares) Run() error {
	if err := confirm(c.Stdout, c.Unattended, "Going to configure the installer, continue?"); err != nil {
		return err
	}

	start := time.Now()

	m := c.Manager
	if c.Theme != "" {
		m.Settings.Theme = c.Theme
	}

	lock := &phase.Lock{}
	m.AddPhase(
		lock,
		&phase.Connect{},
		&phase.DetectOS{},
	)
	if c.Remove {
		m.AddPhase(&phase.CalamaresRemove{})
	} else {
		if c.Install {
			m.AddPhase(&phase.CalamaresInstall{})
		}
		m.AddPhase(&phase.Incubate{Release: c.Release})
	}
	m.AddCleanup(lock.UnlockPhase(), &phase.Disconnect{})

	if err := m.Run(); err != nil {
		return err
	}

	finished(start)

	return nil
}
