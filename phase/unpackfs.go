package phase

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

// LuksBackupFile marks an ISO carrying an encrypted backup of the user data
const LuksBackupFile = "live/luks-eggs-backup"

// PersonalFile marks an ISO made from a personal backup, the users already exist
const PersonalFile = "live/personal.md"

// squashfsPath returns the squashfs image on the live medium
func (m *Manager) squashfsPath() string {
	return m.HostPath(m.Distro.LiveMediumPath + m.Distro.Squashfs)
}

// hasLuksBackup is true when the live medium holds an encrypted user backup
func (m *Manager) hasLuksBackup() bool {
	_, err := os.Stat(m.HostPath(m.Distro.LiveMediumPath + LuksBackupFile))
	return err == nil
}

// createsUsers is true when the installer has to create the users, the backup
// restore brings them otherwise
func (m *Manager) createsUsers() bool {
	if !m.hasLuksBackup() {
		return true
	}
	_, err := os.Stat(m.HostPath(m.Distro.LiveMediumPath + PersonalFile))
	return err == nil
}

// Unpackfs extracts the live file system onto the target
type Unpackfs struct {
	GenericPhase
}

// Title for the phase
func (p *Unpackfs) Title() string {
	return "Unpacking file system"
}

// Percent of the installation done when the phase starts
func (p *Unpackfs) Percent() int {
	return 10
}

// Run the phase
func (p *Unpackfs) Run() error {
	image := p.manager.Distro.LiveMediumPath + p.manager.Distro.Squashfs
	if !p.exists(p.manager.squashfsPath()) {
		return fmt.Errorf("live file system %s not found", image)
	}
	log.Infof("unpacking %s to %s", image, p.manager.Target)
	return p.execf("unsquashfs -f -d %s %s", quote(p.manager.Target), quote(image))
}

// Restore brings back the encrypted user data of a backup ISO
type Restore struct {
	GenericPhase
}

// Title for the phase
func (p *Restore) Title() string {
	return "Restoring user data"
}

// Percent of the installation done when the phase starts
func (p *Restore) Percent() int {
	return 37
}

// ShouldRun is true when the live medium carries a luks backup
func (p *Restore) ShouldRun() bool {
	return p.manager.hasLuksBackup()
}

// Run the phase
func (p *Restore) Run() error {
	return p.execf("eggs syncfrom --rootdir %s/", quote(p.manager.Target))
}
