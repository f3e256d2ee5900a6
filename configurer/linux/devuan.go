package linux

import (
	"github.com/k0sproject/rig"
	"github.com/k0sproject/rig/os/registry"
	"github.com/penguins-eggs/eggs/configurer"
	"github.com/samber/lo"
)

// Devuan provides OS support for Devuan systems
type Devuan struct {
	Debian
}

var _ configurer.Configurer = (*Devuan)(nil)

func init() {
	registry.RegisterOSModule(
		func(os rig.OSVersion) bool {
			return os.ID == "devuan"
		},
		func() any {
			return &Devuan{}
		},
	)
}

// Kind returns "devuan"
func (c *Devuan) Kind() string {
	return "devuan"
}

// Prerequisites swaps the systemd live-config backend for sysvinit
func (c *Devuan) Prerequisites() []string {
	return lo.Map(c.Debian.Prerequisites(), func(p string, _ int) string {
		if p == "live-config-systemd" {
			return "live-config-sysvinit"
		}
		return p
	})
}
