package linux

import (
	"fmt"

	"github.com/alessio/shellescape"
	"github.com/k0sproject/rig"
	"github.com/k0sproject/rig/os"
	"github.com/k0sproject/rig/os/registry"
	"github.com/penguins-eggs/eggs/configurer"
	"github.com/penguins-eggs/eggs/pkg/distro"
)

// Archlinux provides OS support for Archlinux systems
type Archlinux struct {
	configurer.Linux
}

var _ configurer.Configurer = (*Archlinux)(nil)

func init() {
	registry.RegisterOSModule(
		func(os rig.OSVersion) bool {
			return os.IDLike == distro.FamilyArchlinux && !isManjaro(os)
		},
		func() any {
			return &Archlinux{}
		},
	)
}

// Kind returns "archlinux"
func (c *Archlinux) Kind() string {
	return "archlinux"
}

// Family returns the distro family
func (c *Archlinux) Family() string {
	return distro.FamilyArchlinux
}

// PackageIsInstalled queries the pacman database
func (c *Archlinux) PackageIsInstalled(h os.Host, pkg string) bool {
	return h.Execf("pacman -Qi %s", shellescape.Quote(pkg)) == nil
}

// UpdateRepositories synchronizes the package databases
func (c *Archlinux) UpdateRepositories(h os.Host) error {
	if err := h.Exec("pacman -Sy --noconfirm"); err != nil {
		return fmt.Errorf("failed to synchronize package databases: %w", err)
	}
	return nil
}

// InstallPackage installs packages via pacman
func (c *Archlinux) InstallPackage(h os.Host, s ...string) error {
	if err := h.Execf("pacman -S --noconfirm --needed --noprogressbar %s", shellescape.QuoteCommand(s)); err != nil {
		return fmt.Errorf("failed to install packages: %w", err)
	}
	return nil
}

// RemovePackage removes packages with their unneeded dependencies
func (c *Archlinux) RemovePackage(h os.Host, s ...string) error {
	if err := h.Execf("pacman -Rns --noconfirm %s", shellescape.QuoteCommand(s)); err != nil {
		return fmt.Errorf("failed to remove packages: %w", err)
	}
	return nil
}

// Prerequisites lists the packages needed to produce an ISO
func (c *Archlinux) Prerequisites() []string {
	return []string{"squashfs-tools", "libisoburn", "syslinux", "mkinitcpio-archiso", "rsync", "dosfstools", "parted"}
}

// CalamaresPackages lists the packages of the GUI installer
func (c *Archlinux) CalamaresPackages() []string {
	return []string{"calamares"}
}

// GuiPackages are the packages providing a display server
func (c *Archlinux) GuiPackages() []string {
	return []string{"xorg-server", "xorg-xwayland"}
}

// GrubMkconfigCmd regenerates grub.cfg
func (c *Archlinux) GrubMkconfigCmd() string {
	return "grub-mkconfig -o /boot/grub/grub.cfg"
}

// InitramfsCmd regenerates every mkinitcpio preset
func (c *Archlinux) InitramfsCmd() string {
	return "mkinitcpio -P"
}
