package phase

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/penguins-eggs/eggs/pkg/retry"
	log "github.com/sirupsen/logrus"
)

// DataMountpoint is where the lvm2 data volume is mounted on the target
const DataMountpoint = "/var/lib/vz"

// vfs are the virtual file systems bind mounted into the target
var vfs = []string{"/dev", "/dev/pts", "/proc", "/run", "/sys"}

const efivars = "/sys/firmware/efi/efivars"

// MountFs mounts the new file systems on the target
type MountFs struct {
	GenericPhase
}

// Title for the phase
func (p *MountFs) Title() string {
	return "Mounting target file systems"
}

// Percent of the installation done when the phase starts
func (p *MountFs) Percent() int {
	return 3
}

func (p *MountFs) mount(dev, dir string) error {
	if err := os.MkdirAll(p.target(dir), 0o755); err != nil {
		return err
	}
	return p.execf("mount %s %s", quote(dev), quote(p.target(dir)))
}

// Run the phase
func (p *MountFs) Run() error {
	devs := p.manager.Devices
	if err := os.MkdirAll(p.manager.Target, 0o755); err != nil {
		return err
	}
	if err := p.execf("mount %s %s", quote(devs.Root), quote(p.manager.Target)); err != nil {
		return err
	}
	if devs.EFI != "" {
		if err := p.mount(devs.EFI, "/boot/efi"); err != nil {
			return err
		}
	}
	if devs.Data != "" {
		if err := p.mount(devs.Data, DataMountpoint); err != nil {
			return err
		}
	}
	return nil
}

// MountVfs bind mounts the virtual file systems into the target
type MountVfs struct {
	GenericPhase
}

// Title for the phase
func (p *MountVfs) Title() string {
	return "Mounting virtual file systems"
}

// Percent of the installation done when the phase starts
func (p *MountVfs) Percent() int {
	return 6
}

// Run the phase
func (p *MountVfs) Run() error {
	for _, dir := range vfs {
		if err := os.MkdirAll(p.target(dir), 0o755); err != nil {
			return err
		}
		if err := p.execf("mount -o bind %s %s", dir, quote(p.target(dir))); err != nil {
			return err
		}
	}
	if p.manager.EFI {
		if err := os.MkdirAll(p.target(efivars), 0o755); err != nil {
			return err
		}
		if err := p.execf("mount -o bind %s %s", efivars, quote(p.target(efivars))); err != nil {
			return err
		}
	}
	return nil
}

// umount retries unmounting dir a few times, busy mounts are common right after
// chroot commands exit
func (p *GenericPhase) umount(dir string) error {
	return retry.Times(context.Background(), 3, func(_ context.Context) error {
		if err := p.execf("mountpoint -q %s", quote(dir)); err != nil {
			return nil
		}
		return p.execf("umount %s", quote(dir))
	})
}

// UmountVfs unmounts the virtual file systems from the target
type UmountVfs struct {
	GenericPhase
}

// Title for the phase
func (p *UmountVfs) Title() string {
	return "Unmounting virtual file systems"
}

// Percent of the installation done when the phase starts
func (p *UmountVfs) Percent() int {
	return 95
}

// Run the phase
func (p *UmountVfs) Run() error {
	var failed []string
	dirs := vfs
	if p.manager.EFI {
		dirs = append(append([]string{}, vfs...), efivars)
	}
	for i := len(dirs) - 1; i >= 0; i-- {
		if err := p.umount(p.target(dirs[i])); err != nil {
			log.Warnf("umount %s: %s", dirs[i], err)
			failed = append(failed, dirs[i])
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("failed to unmount %s", strings.Join(failed, ", "))
	}
	return nil
}

// UmountFs unmounts the target file systems and closes the mapped devices
type UmountFs struct {
	GenericPhase
}

// Title for the phase
func (p *UmountFs) Title() string {
	return "Unmounting target file systems"
}

// Percent of the installation done when the phase starts
func (p *UmountFs) Percent() int {
	return 97
}

// Run the phase
func (p *UmountFs) Run() error {
	devs := p.manager.Devices
	if devs.Data != "" {
		if err := p.umount(p.target(DataMountpoint)); err != nil {
			return err
		}
	}
	if devs.EFI != "" {
		if err := p.umount(p.target("/boot/efi")); err != nil {
			return err
		}
	}
	if err := p.umount(p.manager.Target); err != nil {
		return err
	}
	if devs.Swap != "" {
		_ = p.execf("swapoff %s", quote(devs.Swap))
	}
	if devs.Crypted {
		if err := p.execf("cryptsetup close %s", CryptedRootName); err != nil {
			return err
		}
	}
	if devs.LVM {
		if err := p.execf("vgchange -an %s", VolumeGroup); err != nil {
			return err
		}
	}
	return nil
}
