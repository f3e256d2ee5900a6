package linux

import (
	"strings"

	"github.com/k0sproject/rig"
	"github.com/k0sproject/rig/os/registry"
	"github.com/penguins-eggs/eggs/configurer"
	"github.com/penguins-eggs/eggs/pkg/distro"
)

// Manjaro provides OS support for Manjaro and BigLinux
type Manjaro struct {
	Archlinux
}

var _ configurer.Configurer = (*Manjaro)(nil)

func init() {
	registry.RegisterOSModule(
		func(os rig.OSVersion) bool {
			return os.IDLike == distro.FamilyArchlinux && isManjaro(os)
		},
		func() any {
			return &Manjaro{}
		},
	)
}

func isManjaro(os rig.OSVersion) bool {
	return os.Name == "ManjaroLinux" || strings.Contains(strings.ToLower(os.Name), "biglinux")
}

// Kind returns "manjaro"
func (c *Manjaro) Kind() string {
	return "manjaro"
}

// Prerequisites uses the miso hooks of manjaro-tools instead of archiso
func (c *Manjaro) Prerequisites() []string {
	return []string{"squashfs-tools", "libisoburn", "syslinux", "manjaro-tools-iso", "rsync", "dosfstools", "parted"}
}
