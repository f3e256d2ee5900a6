// Package linux contains the configurers for the distribution families eggs supports
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

// Debian provides OS support for Debian systems
type Debian struct {
	configurer.Linux
}

var _ configurer.Configurer = (*Debian)(nil)

func init() {
	registry.RegisterOSModule(
		func(os rig.OSVersion) bool {
			return os.ID == "debian"
		},
		func() any {
			return &Debian{}
		},
	)
}

// Kind returns "debian"
func (c *Debian) Kind() string {
	return "debian"
}

// Family returns the distro family
func (c *Debian) Family() string {
	return distro.FamilyDebian
}

// PackageIsInstalled queries dpkg for the package status
func (c *Debian) PackageIsInstalled(h os.Host, pkg string) bool {
	out, err := h.ExecOutputf("dpkg-query -W -f='${Status}' %s", shellescape.Quote(pkg))
	if err != nil {
		return false
	}
	return strings.Contains(out, "ok installed")
}

// UpdateRepositories refreshes the apt cache
func (c *Debian) UpdateRepositories(h os.Host) error {
	if err := h.Exec("apt-get update"); err != nil {
		return fmt.Errorf("failed to update apt cache: %w", err)
	}
	return nil
}

// InstallPackage installs packages via apt-get
func (c *Debian) InstallPackage(h os.Host, s ...string) error {
	if err := h.Execf("DEBIAN_FRONTEND=noninteractive apt-get install -y -q %s", shellescape.QuoteCommand(s)); err != nil {
		return fmt.Errorf("failed to install packages: %w", err)
	}
	return nil
}

// RemovePackage purges packages and their unused dependencies
func (c *Debian) RemovePackage(h os.Host, s ...string) error {
	if err := h.Execf("DEBIAN_FRONTEND=noninteractive apt-get purge -y -q %s", shellescape.QuoteCommand(s)); err != nil {
		return fmt.Errorf("failed to remove packages: %w", err)
	}
	if err := h.Exec("DEBIAN_FRONTEND=noninteractive apt-get autoremove -y -q"); err != nil {
		return fmt.Errorf("failed to autoremove packages: %w", err)
	}
	return nil
}

// Prerequisites lists the packages needed to produce an ISO
func (c *Debian) Prerequisites() []string {
	return []string{
		"squashfs-tools",
		"xorriso",
		"isolinux",
		"syslinux-common",
		"live-boot",
		"live-boot-initramfs-tools",
		"live-config",
		"live-config-systemd",
		"rsync",
		"cryptsetup",
		"dosfstools",
		"parted",
	}
}

// CalamaresPackages lists the packages of the GUI installer
func (c *Debian) CalamaresPackages() []string {
	return []string{"calamares", "qml-module-qtquick2", "qml-module-qtquick-controls"}
}

// GuiPackages are the packages providing a display server
func (c *Debian) GuiPackages() []string {
	return []string{"xserver-xorg-core", "xserver-xorg-core-hwe-18.04", "xwayland"}
}

// GrubMkconfigCmd regenerates grub.cfg
func (c *Debian) GrubMkconfigCmd() string {
	return "update-grub"
}

// InitramfsCmd regenerates the initramfs of every installed kernel
func (c *Debian) InitramfsCmd() string {
	return "update-initramfs -k all -u"
}

// AdminGroup returns "sudo"
func (c *Debian) AdminGroup() string {
	return "sudo"
}

// UsesIfupdown returns true
func (c *Debian) UsesIfupdown() bool {
	return true
}

// LocaleFiles returns /etc/default/locale
func (c *Debian) LocaleFiles() []string {
	return []string{"/etc/default/locale"}
}
