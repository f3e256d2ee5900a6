package phase

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/k0sproject/rig/exec"
	"github.com/penguins-eggs/eggs/config"
	"github.com/penguins-eggs/eggs/pkg/retry"
	log "github.com/sirupsen/logrus"
)

// ESPSizeMiB is the size of the EFI system partition
const ESPSizeMiB = 256

// SwapSize returns the swap size in MiB for the swap choice and the amount of RAM
// in MiB
func SwapSize(choice string, ramMiB uint64) uint64 {
	switch choice {
	case config.SwapSmall:
		if ramMiB <= 8192 {
			return 8192
		}
		return ramMiB
	case config.SwapSuspend:
		return ramMiB * 2
	default:
		return 0
	}
}

// MemTotalMiB reads MemTotal from a meminfo file
func MemTotalMiB(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[0] == "MemTotal:" {
			kb, err := strconv.ParseUint(fields[1], 10, 64)
			if err != nil {
				return 0, fmt.Errorf("invalid MemTotal %q: %w", fields[1], err)
			}
			return kb / 1024, nil
		}
	}
	return 0, fmt.Errorf("MemTotal not found in %s", path)
}

// Partition creates the partition table and the partitions of the install disk
type Partition struct {
	GenericPhase

	ramMiB uint64
}

// Title for the phase
func (p *Partition) Title() string {
	return "Creating partitions"
}

// Percent of the installation done when the phase starts
func (p *Partition) Percent() int {
	return 1
}

// Critical stops the sequence, nothing can be installed on an unpartitioned disk
func (p *Partition) Critical() bool {
	return true
}

// Prepare reads the amount of memory
func (p *Partition) Prepare(m *Manager) error {
	p.manager = m
	ram, err := MemTotalMiB(m.HostPath("/proc/meminfo"))
	if err != nil {
		return err
	}
	p.ramMiB = ram
	return nil
}

func (p *Partition) parted(args string) error {
	return p.execf("parted --script --align optimal %s %s", quote(p.manager.Devices.Disk), args)
}

// Run the phase
func (p *Partition) Run() error {
	inst := p.manager.Installation.Partitions
	disk := inst.Device
	swap := SwapSize(inst.UserSwapChoice, p.ramMiB)
	mode := inst.InstallationMode

	devs := Devices{Disk: disk, Crypted: mode == config.ModeFullEncrypted, LVM: mode == config.ModeLVM2}
	p.manager.Devices = devs
	p.SetProp("device", disk)
	p.SetProp("mode", mode)
	p.SetProp("swap-mib", swap)

	if err := p.execf("wipefs -a %s", quote(disk)); err != nil {
		return err
	}

	n := 1
	var start uint64 = 1
	if p.manager.EFI {
		if err := p.parted("mklabel gpt"); err != nil {
			return err
		}
		if err := p.parted(fmt.Sprintf("mkpart efi fat32 1MiB %dMiB", 1+ESPSizeMiB)); err != nil {
			return err
		}
		if err := p.parted("set 1 esp on"); err != nil {
			return err
		}
		devs.EFI = PartitionName(disk, n)
		n++
		start = 1 + ESPSizeMiB
	} else if err := p.parted("mklabel msdos"); err != nil {
		return err
	}

	if !devs.LVM && swap > 0 {
		if err := p.parted(fmt.Sprintf("mkpart primary linux-swap %dMiB %dMiB", start, start+swap)); err != nil {
			return err
		}
		devs.Swap = PartitionName(disk, n)
		n++
		start += swap
	}

	if err := p.parted(fmt.Sprintf("mkpart primary %s %dMiB 100%%", inst.FilesystemType, start)); err != nil {
		return err
	}
	devs.RootPartition = PartitionName(disk, n)
	devs.Root = devs.RootPartition

	if !p.manager.EFI {
		if err := p.parted(fmt.Sprintf("set %d boot on", n)); err != nil {
			return err
		}
	}

	if err := p.settle(devs); err != nil {
		return err
	}

	switch {
	case devs.Crypted:
		if err := p.encrypt(&devs); err != nil {
			return err
		}
	case devs.LVM:
		if err := p.lvm(&devs, swap); err != nil {
			return err
		}
	}

	p.manager.Devices = devs
	log.Infof("root on %s", devs.Root)

	return nil
}

// settle waits for udev to create the partition device nodes
func (p *Partition) settle(devs Devices) error {
	_ = p.execf("partprobe %s", quote(devs.Disk))
	_ = p.manager.Host.Exec("udevadm settle")

	for _, dev := range []string{devs.EFI, devs.Swap, devs.RootPartition} {
		if dev == "" {
			continue
		}
		err := retry.Timeout(context.Background(), 10*time.Second, func(_ context.Context) error {
			return p.execf("test -b %s", quote(dev))
		})
		if err != nil {
			return fmt.Errorf("device %s did not appear: %w", dev, err)
		}
	}
	return nil
}

func (p *Partition) encrypt(devs *Devices) error {
	passphrase := p.manager.Installation.Users.Password
	opts := []exec.Option{exec.Stdin(passphrase), exec.RedactString(passphrase)}

	log.Infof("encrypting %s", devs.RootPartition)
	if err := p.manager.Host.Exec(fmt.Sprintf("cryptsetup -q luksFormat --type luks1 --key-file=- %s", quote(devs.RootPartition)), opts...); err != nil {
		return fmt.Errorf("luksFormat failed: %w", err)
	}
	if err := p.manager.Host.Exec(fmt.Sprintf("cryptsetup open --key-file=- %s %s", quote(devs.RootPartition), CryptedRootName), opts...); err != nil {
		return fmt.Errorf("luksOpen failed: %w", err)
	}
	devs.Root = "/dev/mapper/" + CryptedRootName
	return nil
}

func (p *Partition) lvm(devs *Devices, swap uint64) error {
	pv := devs.RootPartition
	if err := p.execf("pvcreate -ff -y %s", quote(pv)); err != nil {
		return err
	}
	if err := p.execf("vgcreate %s %s", VolumeGroup, quote(pv)); err != nil {
		return err
	}
	if swap > 0 {
		if err := p.execf("lvcreate -y -L %dM -n swap %s", swap, VolumeGroup); err != nil {
			return err
		}
		devs.Swap = "/dev/" + VolumeGroup + "/swap"
	}
	if err := p.execf("lvcreate -y -l 50%%FREE -n root %s", VolumeGroup); err != nil {
		return err
	}
	if err := p.execf("lvcreate -y -l 100%%FREE -n data %s", VolumeGroup); err != nil {
		return err
	}
	if err := p.execf("vgchange -ay %s", VolumeGroup); err != nil {
		return err
	}
	devs.Root = "/dev/" + VolumeGroup + "/root"
	devs.Data = "/dev/" + VolumeGroup + "/data"
	return nil
}

// Mkfs formats the partitions
type Mkfs struct {
	GenericPhase
}

// Title for the phase
func (p *Mkfs) Title() string {
	return "Formatting file system"
}

// Percent of the installation done when the phase starts
func (p *Mkfs) Percent() int {
	return 2
}

// MkfsCmd returns the command formatting dev with fstype
func MkfsCmd(fstype, dev string) string {
	switch fstype {
	case "btrfs", "xfs":
		return fmt.Sprintf("mkfs.%s -f %s", fstype, quote(dev))
	case "vfat":
		return fmt.Sprintf("mkfs.vfat -F 32 %s", quote(dev))
	default:
		return fmt.Sprintf("mkfs.%s -F %s", fstype, quote(dev))
	}
}

// Run the phase
func (p *Mkfs) Run() error {
	devs := p.manager.Devices
	fstype := p.manager.Installation.Partitions.FilesystemType

	if devs.EFI != "" {
		if err := p.manager.Host.Exec(MkfsCmd("vfat", devs.EFI)); err != nil {
			return err
		}
	}
	if err := p.manager.Host.Exec(MkfsCmd(fstype, devs.Root)); err != nil {
		return err
	}
	if devs.Data != "" {
		if err := p.manager.Host.Exec(MkfsCmd("ext4", devs.Data)); err != nil {
			return err
		}
	}
	if devs.Swap != "" {
		if err := p.execf("mkswap %s", quote(devs.Swap)); err != nil {
			return err
		}
	}
	return nil
}
