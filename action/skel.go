package action

import (
	"io"
	"time"

	"github.com/penguins-eggs/eggs/phase"
	"github.com/penguins-eggs/eggs/pkg/skel"
)

// Skel copies the desktop configuration of a user to /etc/skel
type Skel struct {
	// Manager is the phase manager
	Manager    *phase.Manager
	User       string
	Translate  bool
	Stdout     io.Writer
	Unattended bool
}

func (s Skel) Run() error {
	if err := confirm(s.Stdout, s.Unattended, "Going to replace "+skel.Dir+", continue?"); err != nil {
		return err
	}

	start := time.Now()

	lock := &phase.Lock{}
	s.Manager.AddPhase(
		lock,
		&phase.Connect{},
		&phase.DetectOS{},
		&phase.CopySkel{User: s.User, Translate: s.Translate},
	)
	s.Manager.AddCleanup(lock.UnlockPhase(), &phase.Disconnect{})

	if err := s.Manager.Run(); err != nil {
		return err
	}

	finished(start)

	return nil
}
