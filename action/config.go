package action

import (
	"io"
	"time"

	"github.com/penguins-eggs/eggs/phase"
)

// Config creates or refreshes eggs.yaml, installs the prerequisites and
// configures the installer
type Config struct {
	// Manager is the phase manager
	Manager      *phase.Manager
	SettingsPath string
	Reset        bool
	Stdout       io.Writer
	Unattended   bool
}

func (c Config) Run() error {
	if err := confirm(c.Stdout, c.Unattended, "Going to configure eggs, continue?"); err != nil {
		return err
	}

	start := time.Now()

	var askPrerequisites func(string) bool
	if !c.Unattended {
		askPrerequisites = ask
	}

	lock := &phase.Lock{}
	c.Manager.AddPhase(
		lock,
		&phase.Connect{},
		&phase.DetectOS{},
		&phase.Prerequisites{Confirm: askPrerequisites},
		&phase.WriteSettings{Path: c.SettingsPath, Reset: c.Reset},
		&phase.Incubate{},
		&phase.ShowFreeSpace{},
	)
	c.Manager.AddCleanup(lock.UnlockPhase(), &phase.Disconnect{})

	if err := c.Manager.Run(); err != nil {
		return err
	}

	finished(start)

	return nil
}
