package linux

import (
	"fmt"
	"strings"

	"github.com/alessio/shellescape"
	"github.com/k0sproject/rig"
	"github.com/k0sproject/rig/os"
	"github.com/k0sproject/rig/os/registry"
	"github.com/penguins-eggs/eggs/configurer"
	"github.com/penguins-eggs/eggs/pkg/distro"
)

const liveConfigGettyGenerator = "/lib/systemd/system-generators/live-config-getty-generator"

// Fedora provides OS support for Fedora systems
type Fedora struct {
	configurer.Linux
}

var _ configurer.Configurer = (*Fedora)(nil)

func init() {
	registry.RegisterOSModule(
		func(os rig.OSVersion) bool {
			return os.IDLike == distro.FamilyFedora
		},
		func() any {
			return &Fedora{}
		},
	)
}

// Kind returns "fedora"
func (c *Fedora) Kind() string {
	return "fedora"
}

// Family returns the distro family
func (c *Fedora) Family() string {
	return distro.FamilyFedora
}

// PackageIsInstalled lists the installed package and looks for its name in the output
func (c *Fedora) PackageIsInstalled(h os.Host, pkg string) bool {
	out, err := h.ExecOutputf("dnf list --installed %s", shellescape.Quote(pkg))
	if err != nil {
		return false
	}
	return strings.Contains(out, pkg)
}

// UpdateRepositories refreshes the dnf metadata cache
func (c *Fedora) UpdateRepositories(h os.Host) error {
	if err := h.Exec("dnf makecache -y"); err != nil {
		return fmt.Errorf("failed to refresh dnf cache: %w", err)
	}
	return nil
}

// InstallPackage installs packages via dnf
func (c *Fedora) InstallPackage(h os.Host, s ...string) error {
	if err := h.Execf("dnf install -y %s", shellescape.QuoteCommand(s)); err != nil {
		return fmt.Errorf("failed to install packages: %w", err)
	}
	return nil
}

// RemovePackage removes packages via dnf
func (c *Fedora) RemovePackage(h os.Host, s ...string) error {
	if err := h.Execf("dnf remove -y %s", shellescape.QuoteCommand(s)); err != nil {
		return fmt.Errorf("failed to remove packages: %w", err)
	}
	return nil
}

// Prerequisites lists the packages needed to produce an ISO
func (c *Fedora) Prerequisites() []string {
	return []string{"xorriso", "xz-lzma-compat", "syslinux", "squashfs-tools", "rsync", "dosfstools", "parted"}
}

// CalamaresPackages lists the packages of the GUI installer
func (c *Fedora) CalamaresPackages() []string {
	return []string{"calamares"}
}

// GuiPackages are the packages providing a display server
func (c *Fedora) GuiPackages() []string {
	return []string{"xorg-x11-server-Xorg", "xorg-x11-server-Xwayland"}
}

// GrubInstallCmd uses grub2-install
func (c *Fedora) GrubInstallCmd(device string, efi bool, bootloaderID string) string {
	return configurer.GrubInstallCmd("grub2-install", device, efi, bootloaderID)
}

// GrubMkconfigCmd regenerates grub.cfg
func (c *Fedora) GrubMkconfigCmd() string {
	return "grub2-mkconfig -o /boot/grub2/grub.cfg"
}

// InitramfsCmd regenerates every initramfs with dracut
func (c *Fedora) InitramfsCmd() string {
	return "dracut --regenerate-all --force"
}

// FinalizePrerequisites drops the live-config getty generator on systems without
// a display server
func (c *Fedora) FinalizePrerequisites(h os.Host) error {
	if configurer.IsInstalledGui(c, h) {
		return nil
	}
	if !c.FileExist(h, liveConfigGettyGenerator) {
		return nil
	}
	return h.Execf("rm -f %s", liveConfigGettyGenerator)
}
