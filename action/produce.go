package action

import (
	"io"
	"path/filepath"
	"time"

	"github.com/penguins-eggs/eggs/phase"
	log "github.com/sirupsen/logrus"
)

// Produce builds an ISO of the running system
type Produce struct {
	// Manager is the phase manager
	Manager    *phase.Manager
	Ovary      *phase.Ovary
	Stdout     io.Writer
	Unattended bool
}

func (p Produce) Run() error {
	if err := confirm(p.Stdout, p.Unattended, "Going to produce an ISO of the running system, continue?"); err != nil {
		return err
	}

	start := time.Now()

	var askPrerequisites func(string) bool
	if !p.Unattended {
		askPrerequisites = ask
	}

	m := p.Manager
	m.Ovary = p.Ovary
	lock := &phase.Lock{}
	m.AddPhase(
		lock,
		&phase.Connect{},
		&phase.DetectOS{},
		&phase.Prerequisites{Confirm: askPrerequisites},
		&phase.PrepareOvary{},
		&phase.Incubate{},
		&phase.Yolk{},
		&phase.BindLiveFs{},
		&phase.EditLiveFs{},
		&phase.UsersSize{},
		&phase.MakeSquashfs{},
		&phase.Isolinux{},
		&phase.MakeEFI{},
		&phase.MakeISO{},
	)
	m.AddCleanup(
		&phase.UnbindLiveFs{},
		lock.UnlockPhase(),
		&phase.Disconnect{},
	)

	if err := m.Run(); err != nil {
		return err
	}

	if p.Ovary.Script {
		log.Infof("scripts written to %s", m.Settings.Work.Ovarium)
	} else {
		log.Infof("ISO written to %s", filepath.Join(m.Settings.SnapshotMnt, p.Ovary.ISOName))
	}
	finished(start)

	return nil
}
