package phase

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/penguins-eggs/eggs/config"
	log "github.com/sirupsen/logrus"
)

// DefaultExcludes is written to the exclude list when it does not exist
var DefaultExcludes = `# paths left out of the live file system, one per line
/boot/efi/EFI
/etc/fstab.d/*
/etc/mtab
/etc/udev/rules.d/70-persistent-cd.rules
/etc/udev/rules.d/70-persistent-net.rules
/lib/live/mount/*
/media/*
/mnt/*
/proc/*
/run/*
/swapfile
/sys/*
/tmp/*
/var/cache/apt/archives/*.deb
/var/log/*
/var/tmp/*
`

// WriteSettings creates or refreshes eggs.yaml and the exclude list
type WriteSettings struct {
	GenericPhase

	Path string
	// Reset replaces an existing eggs.yaml with the defaults
	Reset bool
}

// Title for the phase
func (p *WriteSettings) Title() string {
	return "Writing configuration"
}

// Critical stops the sequence, later phases need the settings
func (p *WriteSettings) Critical() bool {
	return true
}

// Run the phase
func (p *WriteSettings) Run() error {
	m := p.manager
	path := p.Path
	if path == "" {
		path = config.SettingsPath
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "eggs"
	}

	var s *config.Settings
	if !p.Reset {
		data, err := os.ReadFile(p.hostPath(path))
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return err
		default:
			if s, err = config.ParseSettings(data); err != nil {
				return err
			}
			if err := s.Validate(); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}
	}
	if s == nil {
		log.Infof("creating %s", path)
		s = config.NewSettings()
		p.SetProp("created", true)
	}
	if s.Timezone == "" {
		s.Timezone = config.ReadTimezone()
	}

	kv, err := m.Configurer.KernelVersion(m.Host)
	if err != nil {
		return err
	}
	s.SetKernel(m.Distro, kv)
	s.AdjustEFI(m.Configurer.CommandExist(m.Host, "grub-mkstandalone"))

	// saved before Derive so that an empty basename keeps following the hostname
	if err := s.Save(p.hostPath(path)); err != nil {
		return err
	}
	s.Derive(hostname)
	m.Settings = s

	excludes := p.hostPath(s.SnapshotExcludes)
	if !p.exists(excludes) {
		log.Infof("creating %s", s.SnapshotExcludes)
		if err := createFile(excludes, DefaultExcludes); err != nil {
			return err
		}
	}
	return nil
}

// ShowFreeSpace reports the space available for snapshots
type ShowFreeSpace struct {
	GenericPhase
}

// Title for the phase
func (p *ShowFreeSpace) Title() string {
	return "Checking free space"
}

// Run the phase
func (p *ShowFreeSpace) Run() error {
	free, err := p.manager.Settings.ListFreeSpace()
	if err != nil {
		return err
	}
	p.SetProp("available", free.Available)
	p.SetProp("snapshots", free.Snapshots)
	return nil
}
