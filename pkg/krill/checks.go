// Package krill asks the installation answers on the terminal and checks the
// live system can be installed
package krill

import (
	"errors"
	"fmt"
	"strings"

	"github.com/k0sproject/rig/os"
	"github.com/penguins-eggs/eggs/configurer"
	log "github.com/sirupsen/logrus"
)

// ErrRefused is returned by Check when the system can't be installed
var ErrRefused = errors.New("krill refuses to continue")

// ErrAborted is returned when the user aborts a screen
var ErrAborted = errors.New("installation aborted")

// Disks returns the device paths of the disks
func Disks(h os.Host) ([]string, error) {
	out, err := h.ExecOutput("lsblk -d -n -p -o NAME,TYPE")
	if err != nil {
		return nil, fmt.Errorf("lsblk: %w", err)
	}
	return ParseDisks(out), nil
}

// ParseDisks picks the disks out of lsblk NAME,TYPE output
func ParseDisks(out string) []string {
	var disks []string
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 2 && fields[1] == "disk" {
			disks = append(disks, fields[0])
		}
	}
	return disks
}

// Check refuses to install when there is no disk or an LVM2 physical volume is in
// the way, and stops udisks2 which would automount the new partitions
func Check(h os.Host, c configurer.Configurer) ([]string, error) {
	disks, err := Disks(h)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRefused, err)
	}
	if len(disks) == 0 {
		return nil, fmt.Errorf("%w: no disk found", ErrRefused)
	}

	// pvdisplay fails when lvm2 is not installed, there is nothing in the way then
	if out, err := h.ExecOutput("pvdisplay -c"); err == nil && strings.TrimSpace(out) != "" {
		return nil, fmt.Errorf("%w: an LVM2 physical volume exists, remove it with vgremove and pvremove first", ErrRefused)
	}

	if c.ServiceIsActive(h, "udisks2.service") {
		log.Infof("stopping udisks2.service")
		if err := c.StopService(h, "udisks2.service"); err != nil {
			return nil, fmt.Errorf("%w: can't stop udisks2.service: %w", ErrRefused, err)
		}
	}

	return disks, nil
}
