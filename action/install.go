package action

import (
	"context"
	"io"
	"time"

	"github.com/penguins-eggs/eggs/phase"
	"github.com/penguins-eggs/eggs/pkg/netinfo"
	"github.com/penguins-eggs/eggs/pkg/prompt"
	"github.com/penguins-eggs/eggs/report"
)

// Target is where the installed system is mounted
const Target = "/tmp/calamares-krill-root"

// Install runs the krill installer
type Install struct {
	// Manager is the phase manager
	Manager    *phase.Manager
	Context    context.Context
	Stdout     io.Writer
	Unattended bool
	// KrillPath is the answers file of unattended installs
	KrillPath string
	// NoGeoIP skips the time zone lookup
	NoGeoIP bool
}

func (i Install) Run() error {
	start := time.Now()

	m := i.Manager
	if m.Target == "" {
		m.Target = Target
	}
	m.Report = report.New("install")
	m.Progress = i.Stdout
	if i.Unattended {
		m.FailureHandler = phase.Abort
	} else {
		m.FailureHandler = askContinue
		m.WaitKey = waitKey
	}

	prepare := &phase.KrillPrepare{
		Context:    i.Context,
		Unattended: i.Unattended,
		Prompt:     prompt.Survey{},
		Out:        i.Stdout,
		KrillPath:  i.KrillPath,
		Detect:     netinfo.Detect,
		GeoIP:      phase.DefaultGeoIP,
	}
	if i.NoGeoIP {
		prepare.GeoIP = nil
	}

	lock := &phase.Lock{}
	m.AddPhase(
		lock,
		&phase.Connect{},
		&phase.DetectOS{},
		prepare,
		&phase.Partition{},
		&phase.Mkfs{},
		&phase.MountFs{},
		&phase.MountVfs{},
		&phase.Unpackfs{},
		&phase.Restore{},
		&phase.CalamaresModule{Name: "sources-yolk", At: 40},
		&phase.MachineID{},
		&phase.Fstab{},
		&phase.Locale{},
		&phase.Keyboard{},
		&phase.LocaleCfg{},
		&phase.NetworkCfg{},
		&phase.Hostname{},
		&phase.Hosts{},
		&phase.BootloaderConfig{},
		&phase.Grubcfg{},
		&phase.Bootloader{},
		&phase.InitramfsCfg{},
		&phase.Initramfs{},
		&phase.DelLiveUser{},
		&phase.AddUser{},
		&phase.RootPassword{},
		&phase.Autologin{},
		&phase.CleanMessages{},
		&phase.RemoveInstallerLink{},
		&phase.CalamaresModule{Name: "sources-yolk-unmount", At: 92},
		&phase.WriteReport{},
		&phase.UmountVfs{},
		&phase.UmountFs{},
		&phase.Finished{},
	)
	m.AddCleanup(lock.UnlockPhase(), &phase.Disconnect{})

	if err := m.Run(); err != nil {
		return err
	}

	finished(start)

	return nil
}

// askContinue lets the user go on after a failed step. The manager has already
// logged the error.
func askContinue(title string, _ error) bool {
	return ask("Step '" + title + "' failed, continue with the installation?")
}
