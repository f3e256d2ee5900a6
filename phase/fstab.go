package phase

import (
	"fmt"
	"strings"

	"github.com/penguins-eggs/eggs/config"
)

// SwapFileSize is the size of /swapfile when swap goes to a file
const SwapFileSize = "2G"

// Fstab writes /etc/fstab and /etc/crypttab of the installed system
type Fstab struct {
	GenericPhase
}

// Title for the phase
func (p *Fstab) Title() string {
	return "Creating fstab"
}

// Percent of the installation done when the phase starts
func (p *Fstab) Percent() int {
	return 47
}

// blkidUUID returns the file system UUID of dev
func (m *Manager) blkidUUID(dev string) (string, error) {
	out, err := m.Host.ExecOutput(fmt.Sprintf("blkid -s UUID -o value %s", quote(dev)))
	if err != nil {
		return "", fmt.Errorf("blkid %s: %w", dev, err)
	}
	uuid := strings.TrimSpace(out)
	if uuid == "" {
		return "", fmt.Errorf("blkid %s: no uuid", dev)
	}
	return uuid, nil
}

// Run the phase
func (p *Fstab) Run() error {
	devs := p.manager.Devices
	fstype := p.manager.Installation.Partitions.FilesystemType

	var b strings.Builder
	b.WriteString("# /etc/fstab: static file system information.\n")
	b.WriteString("# <file system> <mount point> <type> <options> <dump> <pass>\n")

	root := devs.Root
	if !devs.Crypted {
		uuid, err := p.manager.blkidUUID(devs.Root)
		if err != nil {
			return err
		}
		root = "UUID=" + uuid
	}
	pass := 1
	if fstype == "btrfs" || fstype == "xfs" {
		pass = 0
	}
	fmt.Fprintf(&b, "%s / %s defaults,noatime 0 %d\n", root, fstype, pass)

	if devs.EFI != "" {
		uuid, err := p.manager.blkidUUID(devs.EFI)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "UUID=%s /boot/efi vfat umask=0077 0 2\n", uuid)
	}
	if devs.Data != "" {
		uuid, err := p.manager.blkidUUID(devs.Data)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "UUID=%s %s ext4 defaults,noatime 0 2\n", uuid, DataMountpoint)
	}
	if devs.Swap != "" {
		uuid, err := p.manager.blkidUUID(devs.Swap)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "UUID=%s none swap sw 0 0\n", uuid)
	}

	if p.manager.Installation.Partitions.UserSwapChoice == config.SwapFile {
		if err := p.swapfile(); err != nil {
			return err
		}
		b.WriteString("/swapfile none swap sw 0 0\n")
	}

	if err := p.writeTarget("/etc/fstab", b.String(), 0o644); err != nil {
		return err
	}

	if devs.Crypted {
		uuid, err := p.manager.blkidUUID(devs.RootPartition)
		if err != nil {
			return err
		}
		crypttab := fmt.Sprintf("# <target name> <source device> <key file> <options>\n%s UUID=%s none luks,discard\n", CryptedRootName, uuid)
		if err := p.writeTarget("/etc/crypttab", crypttab, 0o600); err != nil {
			return err
		}
	}

	return nil
}

func (p *Fstab) swapfile() error {
	swap := quote(p.target("/swapfile"))
	if err := p.execf("fallocate -l %s %s", SwapFileSize, swap); err != nil {
		return err
	}
	if err := p.execf("chmod 600 %s", swap); err != nil {
		return err
	}
	return p.execf("mkswap %s", swap)
}
