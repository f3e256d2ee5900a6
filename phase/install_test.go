package phase

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/penguins-eggs/eggs/config"
	"github.com/penguins-eggs/eggs/pkg/distro"
	"github.com/penguins-eggs/eggs/pkg/incubator"
	"github.com/stretchr/testify/require"
)

func TestMountAndUmount(t *testing.T) {
	m, h := newTestManager(t)
	m.EFI = true
	m.Devices = Devices{Disk: "/dev/sda", EFI: "/dev/sda1", Root: "/dev/sda2"}

	runPhase(t, m, &MountFs{})
	require.Equal(t, []string{
		"mount /dev/sda2 " + m.Target,
		"mount /dev/sda1 " + m.Target + "/boot/efi",
	}, h.commands)

	h.commands = nil
	runPhase(t, m, &MountVfs{})
	require.Len(t, h.ran("mount -o bind"), 6)
	require.Contains(t, h.commands, "mount -o bind /sys/firmware/efi/efivars "+m.Target+"/sys/firmware/efi/efivars")

	h.commands = nil
	runPhase(t, m, &UmountVfs{})
	umounts := h.ran("umount ")
	require.Len(t, umounts, 6)
	require.Equal(t, "umount "+m.Target+"/sys/firmware/efi/efivars", umounts[0])
	require.Equal(t, "umount "+m.Target+"/dev", umounts[5])
}

func TestUmountFsClosesDevices(t *testing.T) {
	m, h := newTestManager(t)
	m.Devices = Devices{Disk: "/dev/sda", Root: "/dev/mapper/root_crypted", RootPartition: "/dev/sda1", Crypted: true}

	runPhase(t, m, &UmountFs{})
	require.Contains(t, h.commands, "umount "+m.Target)
	require.Equal(t, "cryptsetup close root_crypted", h.commands[len(h.commands)-1])
}

func TestUmountSkipsUnmounted(t *testing.T) {
	m, h := newTestManager(t)
	m.Devices = Devices{Disk: "/dev/sda", Root: "/dev/sda1"}
	h.fail["mountpoint -q "+m.Target] = true

	runPhase(t, m, &UmountFs{})
	require.Empty(t, h.ran("umount"))
}

func TestUnpackfs(t *testing.T) {
	m, h := newTestManager(t)
	p := &Unpackfs{}
	require.NoError(t, p.Prepare(m))
	require.Error(t, p.Run())

	writeFile(t, m.Root, "/run/live/medium/live/filesystem.squashfs", "hsqs")
	require.NoError(t, p.Run())
	require.Equal(t, "unsquashfs -f -d "+m.Target+" /run/live/medium/live/filesystem.squashfs", h.commands[0])
}

func TestRestoreAndUsersConditions(t *testing.T) {
	m, _ := newTestManager(t)
	restore := &Restore{}
	add := &AddUser{}
	require.NoError(t, restore.Prepare(m))
	require.NoError(t, add.Prepare(m))

	require.False(t, restore.ShouldRun())
	require.True(t, add.ShouldRun())

	writeFile(t, m.Root, "/run/live/medium/live/luks-eggs-backup", "luks")
	require.True(t, restore.ShouldRun())
	require.False(t, add.ShouldRun())

	writeFile(t, m.Root, "/run/live/medium/live/personal.md", "# personal")
	require.True(t, add.ShouldRun())
}

func TestCalamaresModule(t *testing.T) {
	m, h := newTestManager(t)
	p := &CalamaresModule{Name: "sources-yolk", At: 40}
	require.NoError(t, p.Prepare(m))
	require.False(t, p.ShouldRun())

	inst := incubator.NewInstaller(incubator.Krill, m.Distro.UsrLibPath)
	writeFile(t, m.Root, inst.ModuleDescPath("sources-yolk"), "type: job\ninterface: process\ncommand: /usr/lib/yolk.sh ${ROOT}\ntimeout: 600\n")
	require.NoError(t, p.Prepare(m))
	require.True(t, p.ShouldRun())
	require.NoError(t, p.Run())
	require.Equal(t, []string{"/usr/lib/yolk.sh " + m.Target}, h.commands)
	require.Equal(t, 40, p.Percent())

	m.Distro.FamilyID = "archlinux"
	require.False(t, p.ShouldRun())
}

func TestFstab(t *testing.T) {
	m, h := newTestManager(t)
	m.Devices = Devices{Disk: "/dev/sda", EFI: "/dev/sda1", Swap: "/dev/sda2", Root: "/dev/sda3"}
	h.outputs["blkid -s UUID -o value /dev/sda1"] = "AAAA-BBBB\n"
	h.outputs["blkid -s UUID -o value /dev/sda2"] = "swap-uuid\n"
	h.outputs["blkid -s UUID -o value /dev/sda3"] = "root-uuid\n"

	runPhase(t, m, &Fstab{})

	fstab := readFile(t, m.Target, "/etc/fstab")
	require.Contains(t, fstab, "UUID=root-uuid / ext4 defaults,noatime 0 1\n")
	require.Contains(t, fstab, "UUID=AAAA-BBBB /boot/efi vfat umask=0077 0 2\n")
	require.Contains(t, fstab, "UUID=swap-uuid none swap sw 0 0\n")
	_, err := os.Stat(filepath.Join(m.Target, "/etc/crypttab"))
	require.True(t, os.IsNotExist(err))
}

func TestFstabEncryptedSwapfile(t *testing.T) {
	m, h := newTestManager(t)
	m.Installation.Partitions.UserSwapChoice = config.SwapFile
	m.Devices = Devices{Disk: "/dev/sda", Root: "/dev/mapper/root_crypted", RootPartition: "/dev/sda1", Crypted: true}
	h.outputs["blkid -s UUID -o value /dev/sda1"] = "luks-uuid"

	runPhase(t, m, &Fstab{})

	fstab := readFile(t, m.Target, "/etc/fstab")
	require.Contains(t, fstab, "/dev/mapper/root_crypted / ext4")
	require.Contains(t, fstab, "/swapfile none swap sw 0 0")
	require.Contains(t, h.commands, "fallocate -l 2G "+m.Target+"/swapfile")
	require.Equal(t, "# <target name> <source device> <key file> <options>\nroot_crypted UUID=luks-uuid none luks,discard\n", readFile(t, m.Target, "/etc/crypttab"))
}

func TestFstabBlkidFailure(t *testing.T) {
	m, _ := newTestManager(t)
	m.Devices = Devices{Disk: "/dev/sda", Root: "/dev/sda1"}
	p := &Fstab{}
	require.NoError(t, p.Prepare(m))
	require.ErrorContains(t, p.Run(), "no uuid")
}

func TestMachineID(t *testing.T) {
	m, h := newTestManager(t)
	writeFile(t, m.Target, "/etc/machine-id", "live-machine-id\n")

	runPhase(t, m, &MachineID{})
	_, err := os.Stat(filepath.Join(m.Target, "/etc/machine-id"))
	require.True(t, os.IsNotExist(err))
	require.Equal(t, []string{"chroot " + m.Target + " systemd-machine-id-setup"}, h.commands)
}

func TestLocale(t *testing.T) {
	m, h := newTestManager(t)
	m.Installation.Location.Language = "it_IT.UTF-8"
	m.Installation.Location.SetTimezone("Europe/Rome")
	m.Settings.Locales = []string{"en_US.UTF-8", "it_IT.UTF-8"}

	runPhase(t, m, &Locale{})
	gen := readFile(t, m.Target, "/etc/locale.gen")
	require.Contains(t, gen, "it_IT.UTF-8 UTF-8\nen_US.UTF-8 UTF-8\n")
	require.Empty(t, h.commands, "locale-gen is not installed on the target")
	require.Equal(t, "Europe/Rome\n", readFile(t, m.Target, "/etc/timezone"))
	link, err := os.Readlink(filepath.Join(m.Target, "/etc/localtime"))
	require.NoError(t, err)
	require.Equal(t, "/usr/share/zoneinfo/Europe/Rome", link)

	writeFile(t, m.Target, "/usr/sbin/locale-gen", "#!/bin/sh\n")
	runPhase(t, m, &Locale{})
	require.Equal(t, []string{"chroot " + m.Target + " locale-gen"}, h.commands)

	runPhase(t, m, &LocaleCfg{})
	require.Equal(t, "LANG=it_IT.UTF-8\n", readFile(t, m.Target, "/etc/default/locale"))
}

func TestLocaleGenLine(t *testing.T) {
	require.Equal(t, "en_US.UTF-8 UTF-8", LocaleGenLine("en_US.UTF-8"))
	require.Equal(t, "de_DE ISO-8859-1", LocaleGenLine("de_DE"))
}

func TestKeyboard(t *testing.T) {
	m, h := newTestManager(t)
	m.Installation.Keyboard.Layout = "it"

	runPhase(t, m, &Keyboard{})
	require.Equal(t, []string{"chroot " + m.Target + " localectl set-keymap it"}, h.commands)
	require.Contains(t, readFile(t, m.Target, "/etc/default/keyboard"), "XKBLAYOUT=\"it\"\n")
	require.Contains(t, readFile(t, m.Target, "/etc/default/keyboard"), "BACKSPACE=\"guess\"")
	require.Contains(t, readFile(t, m.Target, "/etc/vconsole.conf"), "KEYMAP=\"it\"")
	require.Contains(t, readFile(t, m.Target, "/etc/X11/xorg.conf.d/00-keyboard.conf"), "Option \"XkbLayout\" \"it\"")
}

func TestKeyboardSysvinit(t *testing.T) {
	m, h := newTestManager(t)
	m.Configurer.(*fakeConfigurer).systemd = false

	runPhase(t, m, &Keyboard{})
	require.Equal(t, []string{"chroot " + m.Target + " setupcon"}, h.commands)
	_, err := os.Stat(filepath.Join(m.Target, "/etc/vconsole.conf"))
	require.True(t, os.IsNotExist(err))
}

func TestNetworkStatic(t *testing.T) {
	m, _ := newTestManager(t)
	m.Installation.Network = config.Network{
		Iface:       "eth0",
		AddressType: config.AddressStatic,
		Address:     "192.168.1.10",
		Netmask:     "255.255.255.0",
		Gateway:     "192.168.1.1",
		DNS:         []string{"1.1.1.1"},
		Domain:      "lan",
	}

	runPhase(t, m, &NetworkCfg{})
	ifaces := readFile(t, m.Target, "/etc/network/interfaces")
	require.Contains(t, ifaces, "iface eth0 inet static\n    address 192.168.1.10\n    netmask 255.255.255.0\n    gateway 192.168.1.1\n")
	require.Equal(t, "search lan\ndomain lan\nnameserver 1.1.1.1\n", readFile(t, m.Target, "/etc/resolv.conf"))

	runPhase(t, m, &Hosts{})
	hosts := readFile(t, m.Target, "/etc/hosts")
	require.Contains(t, hosts, "127.0.0.1 localhost")
	require.Contains(t, hosts, "192.168.1.10 colibri.lan colibri\n")
	require.Contains(t, hosts, "ff02::2 ip6-allrouters")

	runPhase(t, m, &Hostname{})
	require.Equal(t, "colibri\n", readFile(t, m.Target, "/etc/hostname"))
}

func TestNetworkDHCPWithoutIfupdown(t *testing.T) {
	m, _ := newTestManager(t)
	m.Configurer.(*fakeConfigurer).ifupdown = false
	m.Installation.Network.Iface = "eth0"

	runPhase(t, m, &NetworkCfg{})
	_, err := os.Stat(filepath.Join(m.Target, "/etc/network/interfaces"))
	require.True(t, os.IsNotExist(err))

	require.Contains(t, Interfaces(m.Installation.Network), "iface eth0 inet dhcp")
}

func TestGrubcfg(t *testing.T) {
	m, h := newTestManager(t)
	m.Devices = Devices{Disk: "/dev/sda", Swap: "/dev/sda1", Root: "/dev/mapper/root_crypted", RootPartition: "/dev/sda2", Crypted: true}
	h.outputs["blkid -s UUID -o value /dev/sda1"] = "swap-uuid"
	writeFile(t, m.Target, "/etc/default/grub", "GRUB_DEFAULT=0\nGRUB_CMDLINE_LINUX_DEFAULT=\"quiet\"\n#GRUB_ENABLE_CRYPTODISK=n\n")

	runPhase(t, m, &Grubcfg{})
	grub := readFile(t, m.Target, "/etc/default/grub")
	require.Equal(t, "GRUB_DEFAULT=0\n"+
		"GRUB_CMDLINE_LINUX_DEFAULT=\"quiet splash resume=UUID=swap-uuid\"\n"+
		"GRUB_ENABLE_CRYPTODISK=\"y\"\n", grub)
	require.Equal(t, "y", ShellVar(grub, "GRUB_ENABLE_CRYPTODISK"))
	require.Empty(t, h.ran("blkid -s UUID -o value /dev/sda2"))
}

func TestGrubcfgArchCryptdevice(t *testing.T) {
	m, h := newTestManager(t)
	m.Distro.FamilyID = distro.FamilyArchlinux
	m.Devices = Devices{Disk: "/dev/sda", Root: "/dev/mapper/root_crypted", RootPartition: "/dev/sda2", Crypted: true}
	h.outputs["blkid -s UUID -o value /dev/sda2"] = "luks-uuid"

	runPhase(t, m, &Grubcfg{})
	grub := readFile(t, m.Target, "/etc/default/grub")
	require.Equal(t, "cryptdevice=UUID=luks-uuid:root_crypted", ShellVar(grub, "GRUB_CMDLINE_LINUX"))
	require.Equal(t, "y", ShellVar(grub, "GRUB_ENABLE_CRYPTODISK"))
}

func TestBootloaderConfig(t *testing.T) {
	tests := []struct {
		name   string
		family string
		like   string
		efi    bool
		want   string
	}{
		{"debian bios", distro.FamilyDebian, "Debian", false, "apt-get --yes install grub-pc grub-pc-bin"},
		{"debian efi", distro.FamilyDebian, "Debian", true, "apt-get --yes install grub-efi-amd64 grub-efi-amd64-bin efibootmgr"},
		{"ubuntu efi", distro.FamilyDebian, "Ubuntu", true, "apt-get --yes install grub-efi-amd64 grub-efi-amd64-signed shim-signed efibootmgr"},
		{"arch efi", distro.FamilyArchlinux, "Arch", true, "pacman -S --noconfirm --needed grub efibootmgr"},
		{"arch bios", distro.FamilyArchlinux, "Arch", false, "pacman -S --noconfirm --needed grub"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, h := newTestManager(t)
			m.Distro.FamilyID = tc.family
			m.Distro.DistroLike = tc.like
			m.EFI = tc.efi

			p := &BootloaderConfig{}
			require.NoError(t, p.Prepare(m))
			require.True(t, p.ShouldRun())
			require.NoError(t, p.Run())
			require.Equal(t, []string{"chroot " + m.Target + " " + tc.want}, h.commands)
		})
	}
}

func TestBootloaderConfigSkipsFedora(t *testing.T) {
	m, _ := newTestManager(t)
	m.Distro.FamilyID = distro.FamilyFedora
	p := &BootloaderConfig{}
	require.NoError(t, p.Prepare(m))
	require.False(t, p.ShouldRun())
}

func TestBootloader(t *testing.T) {
	m, h := newTestManager(t)
	m.EFI = true
	m.Devices.Disk = "/dev/sda"

	runPhase(t, m, &Bootloader{})
	require.Equal(t, []string{
		"chroot " + m.Target + " grub-install --target=x86_64-efi --efi-directory=/boot/efi --bootloader-id=debian --recheck",
		"chroot " + m.Target + " update-grub",
	}, h.commands)
	require.Equal(t, "linuxmint", BootloaderID("Linux Mint"))
}

func TestInitramfs(t *testing.T) {
	m, h := newTestManager(t)
	m.Devices = Devices{Disk: "/dev/sda", Swap: "/dev/sda1", Root: "/dev/sda2"}
	h.outputs["blkid -s UUID -o value /dev/sda1"] = "swap-uuid"

	cfg := &InitramfsCfg{}
	runPhase(t, m, cfg)
	require.True(t, cfg.ShouldRun())
	require.Equal(t, "RESUME=UUID=swap-uuid\n", readFile(t, m.Target, "/etc/initramfs-tools/conf.d/resume"))

	h.commands = nil
	runPhase(t, m, &Initramfs{})
	require.Equal(t, []string{"chroot " + m.Target + " update-initramfs -k all -u"}, h.commands)
}

func TestUsers(t *testing.T) {
	m, h := newTestManager(t)
	m.Installation.Users.Name = "piero"
	m.Installation.Users.Fullname = "Piero Proietti"
	writeFile(t, m.Target, "/etc/passwd", "root:x:0:0:root:/root:/bin/bash\nlive:x:1000:1000:live:/home/live:/bin/bash\n")

	del := &DelLiveUser{}
	require.NoError(t, del.Prepare(m))
	require.True(t, del.ShouldRun())
	require.NoError(t, del.Run())

	runPhase(t, m, &AddUser{})
	runPhase(t, m, &RootPassword{})

	chroot := "chroot " + m.Target + " "
	require.Equal(t, []string{
		chroot + "userdel -r -f live",
		chroot + "useradd -m -s /bin/bash -c 'Piero Proietti' piero",
		chroot + "chpasswd",
		chroot + "usermod -aG sudo piero",
		chroot + "chpasswd",
	}, h.commands)

	m.Installation.Users.Name = "live"
	require.False(t, del.ShouldRun())
}

func TestAutologinGUI(t *testing.T) {
	m, _ := newTestManager(t)
	m.Installation.Users.Name = "piero"
	fc := m.Configurer.(*fakeConfigurer)
	fc.installed = map[string]bool{"xserver-xorg-core": true, "lightdm": true, "sddm": true, "gdm3": true}
	writeFile(t, m.Target, "/etc/lightdm/lightdm.conf", "[Seat:*]\nautologin-user=live\nautologin-user-timeout=0\n")

	runPhase(t, m, &Autologin{})
	require.Equal(t, "[Seat:*]\nautologin-user=piero\nautologin-user-timeout=0\n", readFile(t, m.Target, "/etc/lightdm/lightdm.conf"))
	require.Equal(t, "[Autologin]\nUser=piero\n", readFile(t, m.Target, "/etc/sddm.conf.d/autologin.conf"))
	require.Equal(t, "[daemon]\nAutomaticLoginEnable=true\nAutomaticLogin=piero\n", readFile(t, m.Target, "/etc/gdm3/custom.conf"))
}

func TestAutologinCLI(t *testing.T) {
	m, _ := newTestManager(t)
	writeFile(t, m.Target, GettyOverride, "[Service]\nExecStart=-/sbin/agetty --autologin live --noclear %I $TERM\n")
	writeFile(t, m.Target, "/etc/inittab", "1:2345:respawn:/sbin/getty --noclear --autologin live 38400 tty1\n")

	runPhase(t, m, &Autologin{})
	_, err := os.Stat(filepath.Join(m.Target, GettyOverride))
	require.True(t, os.IsNotExist(err))
	require.Equal(t, "1:2345:respawn:/sbin/getty --noclear 38400 tty1\n", readFile(t, m.Target, "/etc/inittab"))
}

func TestMessages(t *testing.T) {
	motd := AddMessage("Welcome\n", "live user: live, password: evolution")
	require.Equal(t, "Welcome\n"+MessageStart+"\nlive user: live, password: evolution\n"+MessageEnd+"\n", motd)
	require.Equal(t, "Welcome\n", RemoveMessage(motd))
	require.Equal(t, motd, AddMessage(motd, "live user: live, password: evolution"))

	m, _ := newTestManager(t)
	writeFile(t, m.Target, "/etc/issue", motd)
	runPhase(t, m, &CleanMessages{})
	require.Equal(t, "Welcome\n", readFile(t, m.Target, "/etc/issue"))
}

func TestRemoveInstallerLink(t *testing.T) {
	m, _ := newTestManager(t)
	m.Installation.Users.Name = "piero"
	writeFile(t, m.Target, "/home/piero/.config/user-dirs.dirs", "XDG_DESKTOP_DIR=\"$HOME/Scrivania\"\n")
	writeFile(t, m.Target, "/home/piero/Scrivania/"+InstallerLauncher, "[Desktop Entry]\n")
	writeFile(t, m.Target, "/usr/share/applications/"+InstallerLauncher, "[Desktop Entry]\n")

	runPhase(t, m, &RemoveInstallerLink{})
	_, err := os.Stat(filepath.Join(m.Target, "/home/piero/Scrivania", InstallerLauncher))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(m.Target, "/usr/share/applications", InstallerLauncher))
	require.True(t, os.IsNotExist(err))
}

func TestFinished(t *testing.T) {
	m, h := newTestManager(t)
	var waited string
	m.WaitKey = func(msg string) { waited = msg }

	runPhase(t, m, &Finished{})
	require.Equal(t, "Press a key to reboot...", waited)
	require.Equal(t, []string{"reboot"}, h.commands)
}
