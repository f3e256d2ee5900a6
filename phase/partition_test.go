package phase

import (
	"testing"

	"github.com/penguins-eggs/eggs/config"
	"github.com/stretchr/testify/require"
)

const meminfo4G = "MemTotal:        4014080 kB\nMemFree:          214080 kB\n"

func TestSwapSize(t *testing.T) {
	require.Equal(t, uint64(0), SwapSize(config.SwapNone, 4096))
	require.Equal(t, uint64(8192), SwapSize(config.SwapSmall, 4096))
	require.Equal(t, uint64(8192), SwapSize(config.SwapSmall, 8192))
	require.Equal(t, uint64(16384), SwapSize(config.SwapSmall, 16384))
	require.Equal(t, uint64(8192), SwapSize(config.SwapSuspend, 4096))
	require.Equal(t, uint64(0), SwapSize(config.SwapFile, 4096))
}

func TestPartitionName(t *testing.T) {
	require.Equal(t, "/dev/sda1", PartitionName("/dev/sda", 1))
	require.Equal(t, "/dev/nvme0n1p2", PartitionName("/dev/nvme0n1", 2))
	require.Equal(t, "/dev/mmcblk0p1", PartitionName("/dev/mmcblk0", 1))
}

func TestMemTotalMiB(t *testing.T) {
	m, _ := newTestManager(t)
	writeFile(t, m.Root, "/proc/meminfo", meminfo4G)
	ram, err := MemTotalMiB(m.HostPath("/proc/meminfo"))
	require.NoError(t, err)
	require.Equal(t, uint64(3920), ram)

	writeFile(t, m.Root, "/proc/bad", "MemFree: 1 kB\n")
	_, err = MemTotalMiB(m.HostPath("/proc/bad"))
	require.Error(t, err)
}

func TestPartitionEFI(t *testing.T) {
	m, h := newTestManager(t)
	m.EFI = true
	writeFile(t, m.Root, "/proc/meminfo", meminfo4G)

	runPhase(t, m, &Partition{})

	parted := "parted --script --align optimal /dev/sda "
	require.Equal(t, []string{
		"wipefs -a /dev/sda",
		parted + "mklabel gpt",
		parted + "mkpart efi fat32 1MiB 257MiB",
		parted + "set 1 esp on",
		parted + "mkpart primary linux-swap 257MiB 8449MiB",
		parted + "mkpart primary ext4 8449MiB 100%",
		"partprobe /dev/sda",
		"udevadm settle",
		"test -b /dev/sda1",
		"test -b /dev/sda2",
		"test -b /dev/sda3",
	}, h.commands)

	require.Equal(t, "/dev/sda1", m.Devices.EFI)
	require.Equal(t, "/dev/sda2", m.Devices.Swap)
	require.Equal(t, "/dev/sda3", m.Devices.Root)
	require.False(t, m.Devices.Crypted)
}

func TestPartitionBIOSNoSwap(t *testing.T) {
	m, h := newTestManager(t)
	m.Installation.Partitions.UserSwapChoice = config.SwapNone
	writeFile(t, m.Root, "/proc/meminfo", meminfo4G)

	runPhase(t, m, &Partition{})

	parted := "parted --script --align optimal /dev/sda "
	require.Contains(t, h.commands, parted+"mklabel msdos")
	require.Contains(t, h.commands, parted+"mkpart primary ext4 1MiB 100%")
	require.Contains(t, h.commands, parted+"set 1 boot on")
	require.Equal(t, "/dev/sda1", m.Devices.Root)
	require.Empty(t, m.Devices.Swap)
	require.Empty(t, m.Devices.EFI)
}

func TestPartitionEncrypted(t *testing.T) {
	m, h := newTestManager(t)
	m.Installation.Partitions.InstallationMode = config.ModeFullEncrypted
	m.Installation.Partitions.UserSwapChoice = config.SwapNone
	writeFile(t, m.Root, "/proc/meminfo", meminfo4G)

	runPhase(t, m, &Partition{})

	require.Len(t, h.ran("cryptsetup -q luksFormat --type luks1 --key-file=- /dev/sda1"), 1)
	require.Len(t, h.ran("cryptsetup open --key-file=- /dev/sda1 root_crypted"), 1)
	require.Equal(t, "/dev/mapper/root_crypted", m.Devices.Root)
	require.Equal(t, "/dev/sda1", m.Devices.RootPartition)
	require.True(t, m.Devices.Crypted)
}

func TestPartitionLVM(t *testing.T) {
	m, h := newTestManager(t)
	m.Installation.Partitions.InstallationMode = config.ModeLVM2
	writeFile(t, m.Root, "/proc/meminfo", meminfo4G)

	runPhase(t, m, &Partition{})

	require.Empty(t, h.ran("parted --script --align optimal /dev/sda mkpart primary linux-swap"))
	require.Contains(t, h.commands, "pvcreate -ff -y /dev/sda1")
	require.Contains(t, h.commands, "vgcreate pve /dev/sda1")
	require.Contains(t, h.commands, "lvcreate -y -L 8192M -n swap pve")
	require.Contains(t, h.commands, "lvcreate -y -l 50%FREE -n root pve")
	require.Contains(t, h.commands, "lvcreate -y -l 100%FREE -n data pve")
	require.Equal(t, "/dev/pve/root", m.Devices.Root)
	require.Equal(t, "/dev/pve/swap", m.Devices.Swap)
	require.Equal(t, "/dev/pve/data", m.Devices.Data)
}

func TestPartitionFailureIsCritical(t *testing.T) {
	m, h := newTestManager(t)
	writeFile(t, m.Root, "/proc/meminfo", meminfo4G)
	h.fail["wipefs -a /dev/sda"] = true

	after := &conditionalPhase{}
	m.FailureHandler = func(string, error) bool { return true }
	m.AddPhase(&Partition{}, after)

	require.Error(t, m.Run())
	require.False(t, after.shouldrunCalled)
}

func TestMkfs(t *testing.T) {
	m, h := newTestManager(t)
	m.Installation.Partitions.FilesystemType = "btrfs"
	m.Devices = Devices{Disk: "/dev/sda", EFI: "/dev/sda1", Swap: "/dev/sda2", Root: "/dev/sda3"}

	runPhase(t, m, &Mkfs{})

	require.Equal(t, []string{
		"mkfs.vfat -F 32 /dev/sda1",
		"mkfs.btrfs -f /dev/sda3",
		"mkswap /dev/sda2",
	}, h.commands)
}

func TestMkfsCmd(t *testing.T) {
	require.Equal(t, "mkfs.ext4 -F /dev/sda1", MkfsCmd("ext4", "/dev/sda1"))
	require.Equal(t, "mkfs.xfs -f /dev/sda1", MkfsCmd("xfs", "/dev/sda1"))
}
