package phase

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-version"
	"github.com/penguins-eggs/eggs/config"
	"github.com/penguins-eggs/eggs/pkg/squashfs"
	log "github.com/sirupsen/logrus"
)

// PrepareOvary decides names, kernel and compression and creates the work dirs
type PrepareOvary struct {
	GenericPhase
}

// Title for the phase
func (p *PrepareOvary) Title() string {
	return "Preparing work dirs"
}

// Critical stops the build, nothing can be made without the work dirs
func (p *PrepareOvary) Critical() bool {
	return true
}

// Run the phase
func (p *PrepareOvary) Run() error {
	m := p.manager
	s := m.Settings
	ov := m.Ovary

	if ov.Prefix != "" {
		s.SnapshotPrefix = ov.Prefix
	}
	if ov.Basename != "" {
		s.SnapshotBasename = ov.Basename
	}
	if ov.Theme != "" {
		s.Theme = ov.Theme
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "eggs"
	}
	s.Derive(hostname)

	kv, err := m.Configurer.KernelVersion(m.Host)
	if err != nil {
		return err
	}
	s.SetKernel(m.Distro, kv)
	s.Derive(hostname)
	if !p.exists(p.hostPath(s.Vmlinuz)) {
		return fmt.Errorf("kernel %s not found", s.Vmlinuz)
	}
	if !p.exists(p.hostPath(s.InitrdImg)) {
		return fmt.Errorf("initrd %s not found", s.InitrdImg)
	}

	s.AdjustEFI(m.Configurer.CommandExist(m.Host, "grub-mkstandalone"))

	arch, err := m.Configurer.Arch(m.Host)
	if err != nil {
		return err
	}
	ov.Arch = arch
	ov.Remix = config.NewRemix(s)
	ov.ISOName = ISOName(s.SnapshotPrefix, s.SnapshotBasename, arch, time.Now())
	ov.DiskID = uuid.NewString()

	opts := ov.Compression
	opts.Legacy = m.Distro.IsLegacy()
	opts.Setting = s.Compression
	opts.Release = opts.Release || ov.Release
	ov.Compressor = squashfs.Choose(opts, p.mksquashfsVersion())

	p.SetProp("compression", ov.Compressor)
	p.SetProp("efi", s.MakeEFI)
	log.Infof("producing %s, compression %s", ov.ISOName, ov.Compressor)

	if _, err := s.ListFreeSpace(); err != nil {
		return err
	}
	return nil
}

func (p *PrepareOvary) mksquashfsVersion() *version.Version {
	out, err := p.manager.Host.ExecOutput("mksquashfs -version")
	if err != nil {
		log.Debugf("mksquashfs -version: %s", err)
		return nil
	}
	v, err := squashfs.ParseVersion(out)
	if err != nil {
		log.Debugf("mksquashfs version: %s", err)
		return nil
	}
	return v
}
