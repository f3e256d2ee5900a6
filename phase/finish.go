package phase

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/penguins-eggs/eggs/pkg/xdg"
	"github.com/penguins-eggs/eggs/report"
	log "github.com/sirupsen/logrus"
)

// InstallerLauncher is the desktop file starting the installer on the live system
const InstallerLauncher = "install-debian.desktop"

// RemoveInstallerLink removes the installer launchers from the installed system
type RemoveInstallerLink struct {
	GenericPhase
}

// Title for the phase
func (p *RemoveInstallerLink) Title() string {
	return "Removing installer link"
}

// Percent of the installation done when the phase starts
func (p *RemoveInstallerLink) Percent() int {
	return 87
}

// Run the phase
func (p *RemoveInstallerLink) Run() error {
	home := p.target(filepath.Join("/home", p.manager.Installation.Users.Name))
	desktop := xdg.UserDir(home, "DESKTOP", true)

	files := []string{
		filepath.Join(home, desktop, InstallerLauncher),
		p.target("/usr/share/applications/" + InstallerLauncher),
		p.target("/sbin/install-debian"),
	}
	for _, f := range files {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// WriteReport saves the timing report into the installed system
type WriteReport struct {
	GenericPhase
}

// Title for the phase
func (p *WriteReport) Title() string {
	return "Writing installation report"
}

// ShouldRun is true when the manager collects a report
func (p *WriteReport) ShouldRun() bool {
	return p.manager.Report != nil
}

// Run the phase
func (p *WriteReport) Run() error {
	path := p.target(report.InstallPath)
	if err := p.manager.Report.WriteFile(path); err != nil {
		return err
	}
	log.Infof("installation report written to %s", report.InstallPath)
	return nil
}

// Finished shows the summary and reboots
type Finished struct {
	GenericPhase
}

// Title for the phase
func (p *Finished) Title() string {
	return "Finished"
}

// Percent of the installation done when the phase starts
func (p *Finished) Percent() int {
	return 100
}

// Run the phase
func (p *Finished) Run() error {
	u := p.manager.Installation.Users
	log.Info(Colorize.Green("Installation finished").String())
	log.Infof("device:   %s", p.manager.Devices.Disk)
	log.Infof("hostname: %s", u.Hostname)
	log.Infof("user:     %s", u.Name)

	if p.manager.WaitKey != nil {
		p.manager.WaitKey("Press a key to reboot...")
	}
	if err := p.manager.Host.Exec("reboot"); err != nil {
		return fmt.Errorf("reboot: %w", err)
	}
	return nil
}
