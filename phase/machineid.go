package phase

import (
	"os"
)

// MachineID gives the installed system its own machine id
type MachineID struct {
	GenericPhase
}

// Title for the phase
func (p *MachineID) Title() string {
	return "Creating machine id"
}

// Percent of the installation done when the phase starts
func (p *MachineID) Percent() int {
	return 41
}

// Run the phase
func (p *MachineID) Run() error {
	for _, f := range []string{"/etc/machine-id", "/var/lib/dbus/machine-id"} {
		if err := os.Remove(p.target(f)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	if p.manager.Configurer.IsSystemd(p.manager.Host) {
		return p.chroot("systemd-machine-id-setup")
	}
	return p.chroot("dbus-uuidgen --ensure=/etc/machine-id")
}
