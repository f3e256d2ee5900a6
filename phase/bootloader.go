package phase

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/penguins-eggs/eggs/pkg/distro"
	"github.com/samber/lo"
)

// BootloaderConfig installs the grub packages matching the firmware into the
// installed system
type BootloaderConfig struct {
	GenericPhase
}

// Title for the phase
func (p *BootloaderConfig) Title() string {
	return "Configuring bootloader"
}

// Percent of the installation done when the phase starts
func (p *BootloaderConfig) Percent() int {
	return 62
}

// BootloaderPackages returns the grub packages for the distro and firmware, nil
// for families that ship grub with the live system
func BootloaderPackages(d *distro.Distro, efi bool) []string {
	switch {
	case d.IsDebianFamily() && strings.EqualFold(d.DistroLike, "ubuntu"):
		if efi {
			return []string{"grub-efi-amd64", "grub-efi-amd64-signed", "shim-signed", "efibootmgr"}
		}
		return []string{"grub-pc", "grub-pc-bin"}
	case d.IsDebianFamily():
		if efi {
			return []string{"grub-efi-amd64", "grub-efi-amd64-bin", "efibootmgr"}
		}
		return []string{"grub-pc", "grub-pc-bin"}
	case d.FamilyID == distro.FamilyArchlinux:
		if efi {
			return []string{"grub", "efibootmgr"}
		}
		return []string{"grub"}
	}
	return nil
}

// ShouldRun is false on fedora, its live system already carries grub2
func (p *BootloaderConfig) ShouldRun() bool {
	return len(BootloaderPackages(p.manager.Distro, p.manager.EFI)) > 0
}

// Run the phase
func (p *BootloaderConfig) Run() error {
	pkgs := BootloaderPackages(p.manager.Distro, p.manager.EFI)
	p.SetProp("packages", pkgs)
	args := strings.Join(lo.Map(pkgs, func(s string, _ int) string { return quote(s) }), " ")
	if p.manager.Distro.FamilyID == distro.FamilyArchlinux {
		return p.chrootf("pacman -S --noconfirm --needed %s", args)
	}
	return p.chrootf("apt-get --yes install %s", args)
}

// SetShellVar sets KEY="value" in the content of a shell variables file, replacing
// an existing assignment, commented or not
func SetShellVar(content, key, value string) string {
	line := fmt.Sprintf("%s=%q", key, value)
	var out []string
	found := false

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		l := scanner.Text()
		trimmed := strings.TrimLeft(strings.TrimSpace(l), "# ")
		if !found && strings.HasPrefix(trimmed, key+"=") {
			out = append(out, line)
			found = true
			continue
		}
		out = append(out, l)
	}
	if !found {
		out = append(out, line)
	}
	return strings.Join(out, "\n") + "\n"
}

// ShellVar returns the unquoted value of KEY in a shell variables file
func ShellVar(content, key string) string {
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		l := strings.TrimSpace(scanner.Text())
		if v, ok := strings.CutPrefix(l, key+"="); ok {
			return strings.Trim(v, `"'`)
		}
	}
	return ""
}

// Grubcfg writes the kernel command line and the encryption settings of grub
type Grubcfg struct {
	GenericPhase
}

// Title for the phase
func (p *Grubcfg) Title() string {
	return "Configuring grub"
}

// Percent of the installation done when the phase starts
func (p *Grubcfg) Percent() int {
	return 63
}

// Run the phase
func (p *Grubcfg) Run() error {
	devs := p.manager.Devices
	content, err := p.readTarget("/etc/default/grub")
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	cmdline := "quiet splash"
	if devs.Swap != "" {
		uuid, err := p.manager.blkidUUID(devs.Swap)
		if err != nil {
			return err
		}
		cmdline += " resume=UUID=" + uuid
	}
	content = SetShellVar(content, "GRUB_CMDLINE_LINUX_DEFAULT", cmdline)

	if devs.Crypted {
		content = SetShellVar(content, "GRUB_ENABLE_CRYPTODISK", "y")
	}
	// mkinitcpio's encrypt hook reads cryptdevice=, the debian family unlocks
	// root through crypttab
	if devs.Crypted && p.manager.Distro.FamilyID == distro.FamilyArchlinux {
		uuid, err := p.manager.blkidUUID(devs.RootPartition)
		if err != nil {
			return err
		}
		content = SetShellVar(content, "GRUB_CMDLINE_LINUX", fmt.Sprintf("cryptdevice=UUID=%s:%s", uuid, CryptedRootName))
	}
	p.SetProp("cmdline", cmdline)

	return p.writeTarget("/etc/default/grub", content, 0o644)
}

// Bootloader installs grub on the target disk
type Bootloader struct {
	GenericPhase
}

// Title for the phase
func (p *Bootloader) Title() string {
	return "Installing bootloader"
}

// Percent of the installation done when the phase starts
func (p *Bootloader) Percent() int {
	return 64
}

// BootloaderID is the EFI boot entry name for the distro
func BootloaderID(distroID string) string {
	id := strings.ToLower(strings.ReplaceAll(distroID, " ", ""))
	if id == "" {
		return "eggs"
	}
	return id
}

// Run the phase
func (p *Bootloader) Run() error {
	c := p.manager.Configurer
	cmd := c.GrubInstallCmd(p.manager.Devices.Disk, p.manager.EFI, BootloaderID(p.manager.Distro.DistroID))
	p.SetProp("efi", p.manager.EFI)
	if err := p.chroot(cmd); err != nil {
		return err
	}
	return p.chroot(c.GrubMkconfigCmd())
}

// InitramfsCfg configures resume and decryption in the initramfs
type InitramfsCfg struct {
	GenericPhase
}

// Title for the phase
func (p *InitramfsCfg) Title() string {
	return "Configuring initramfs"
}

// Percent of the installation done when the phase starts
func (p *InitramfsCfg) Percent() int {
	return 65
}

// ShouldRun is true on the debian family, the others configure resume from the
// kernel command line
func (p *InitramfsCfg) ShouldRun() bool {
	return p.manager.Distro.IsDebianFamily()
}

// Run the phase
func (p *InitramfsCfg) Run() error {
	devs := p.manager.Devices
	resume := "RESUME=none\n"
	if devs.Swap != "" {
		uuid, err := p.manager.blkidUUID(devs.Swap)
		if err != nil {
			return err
		}
		resume = fmt.Sprintf("RESUME=UUID=%s\n", uuid)
	}
	if err := p.writeTarget("/etc/initramfs-tools/conf.d/resume", resume, 0o644); err != nil {
		return err
	}
	if devs.Crypted {
		return p.writeTarget("/etc/cryptsetup-initramfs/conf-hook", "CRYPTSETUP=y\n", 0o644)
	}
	return nil
}

// Initramfs regenerates the initramfs of the installed system
type Initramfs struct {
	GenericPhase
}

// Title for the phase
func (p *Initramfs) Title() string {
	return "Creating initramfs"
}

// Percent of the installation done when the phase starts
func (p *Initramfs) Percent() int {
	return 67
}

// Run the phase
func (p *Initramfs) Run() error {
	return p.chroot(p.manager.Configurer.InitramfsCmd())
}
