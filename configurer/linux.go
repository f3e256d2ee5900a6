package configurer

import (
	"fmt"
	"strings"

	"github.com/alessio/shellescape"
	"github.com/k0sproject/rig/os"
)

// CalamaresPolicyPath is the polkit policy of the calamares launcher
const CalamaresPolicyPath = "/usr/share/polkit-1/actions/com.github.calamares.calamares.policy"

// Linux is a base module for the family configurers
type Linux struct{}

// IsSystemd returns true when the host was booted with systemd
func (l Linux) IsSystemd(h os.Host) bool {
	return h.Exec("test -d /run/systemd/system") == nil
}

// StopService stops a service using systemctl or the sysvinit service wrapper
func (l Linux) StopService(h os.Host, s string) error {
	if l.IsSystemd(h) {
		return h.Execf("systemctl stop %s", shellescape.Quote(s))
	}
	return h.Execf("service %s stop", shellescape.Quote(s))
}

// ServiceIsActive returns true when the service is running
func (l Linux) ServiceIsActive(h os.Host, s string) bool {
	if l.IsSystemd(h) {
		return h.Execf("systemctl is-active --quiet %s", shellescape.Quote(s)) == nil
	}
	return h.Execf("service %s status", shellescape.Quote(s)) == nil
}

// KernelVersion returns the release of the running kernel
func (l Linux) KernelVersion(h os.Host) (string, error) {
	out, err := h.ExecOutput("uname -r")
	if err != nil {
		return "", fmt.Errorf("get kernel version: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Arch returns the host architecture in debian notation
func (l Linux) Arch(h os.Host) (string, error) {
	arch, err := h.ExecOutput("uname -m")
	if err != nil {
		return "", err
	}
	switch strings.TrimSpace(arch) {
	case "x86_64":
		return "amd64", nil
	case "i686", "i386":
		return "i386", nil
	case "aarch64":
		return "arm64", nil
	default:
		return strings.TrimSpace(arch), nil
	}
}

// FileExist checks if a file exists on the host
func (l Linux) FileExist(h os.Host, path string) bool {
	return h.Execf("test -e %s", shellescape.Quote(path)) == nil
}

// CommandExist returns true if the command can be found in PATH
func (l Linux) CommandExist(h os.Host, cmd string) bool {
	return h.Execf("command -v %s", shellescape.Quote(cmd)) == nil
}

// CalamaresPolicies lets users in the admin group start calamares without a password
func (l Linux) CalamaresPolicies(h os.Host) error {
	if !l.FileExist(h, CalamaresPolicyPath) {
		return nil
	}
	return h.Execf("sed -i 's/auth_admin/yes/' %s", CalamaresPolicyPath)
}

// GrubInstallCmd returns the grub-install command line
func (l Linux) GrubInstallCmd(device string, efi bool, bootloaderID string) string {
	return grubInstallCmd("grub-install", device, efi, bootloaderID)
}

// LocaleFiles returns the files the LANG setting is written to
func (l Linux) LocaleFiles() []string {
	return []string{"/etc/default/locale", "/etc/locale.conf"}
}

// AdminGroup is the group granting administrative rights
func (l Linux) AdminGroup() string {
	return "wheel"
}

// UsesIfupdown is true when network interfaces are configured in /etc/network/interfaces
func (l Linux) UsesIfupdown() bool {
	return false
}

// DisplayManagers lists the display managers the autologin step knows about
func (l Linux) DisplayManagers() []string {
	return []string{"slim", "lightdm", "sddm", "gdm", "gdm3"}
}

func grubInstallCmd(bin, device string, efi bool, bootloaderID string) string {
	if efi {
		return fmt.Sprintf("%s --target=x86_64-efi --efi-directory=/boot/efi --bootloader-id=%s --recheck", bin, shellescape.Quote(bootloaderID))
	}
	return fmt.Sprintf("%s %s", bin, shellescape.Quote(device))
}

// GrubInstallCmd builds a grub-install style command line for binaries other than
// grub-install
func GrubInstallCmd(bin, device string, efi bool, bootloaderID string) string {
	return grubInstallCmd(bin, device, efi, bootloaderID)
}
