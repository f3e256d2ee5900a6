package phase

import (
	rigos "github.com/k0sproject/rig/os"
	"github.com/penguins-eggs/eggs/config"
	"github.com/penguins-eggs/eggs/configurer"
	"github.com/penguins-eggs/eggs/pkg/incubator"
)

// Incubate writes the installer configuration for the running system
type Incubate struct {
	GenericPhase

	// Installer is calamares or krill, empty to choose calamares when it is
	// installed along a GUI
	Installer string
	Release   bool
}

// Title for the phase
func (p *Incubate) Title() string {
	return "Configuring installer"
}

// ChooseInstaller returns calamares when a GUI and calamares are installed, krill
// otherwise
func ChooseInstaller(c configurer.Configurer, h rigos.Host) string {
	if configurer.IsInstalledGui(c, h) && c.PackageIsInstalled(h, incubator.Calamares) {
		return incubator.Calamares
	}
	return incubator.Krill
}

// Run the phase
func (p *Incubate) Run() error {
	m := p.manager
	name := p.Installer
	if name == "" {
		name = ChooseInstaller(m.Configurer, m.Host)
	}

	remix := config.NewRemix(m.Settings)
	inc := incubator.New(name, m.Distro, remix)
	inc.Root = m.Root
	inc.Release = p.Release
	inc.UserOpt = m.Settings.UserOpt
	inc.Systemd = m.Configurer.IsSystemd(m.Host)
	_, inc.DisplayManager = configurer.InstalledDisplayManager(m.Configurer, m.Host)
	if m.Ovary != nil {
		inc.Remix = m.Ovary.Remix
		inc.Clone = m.Ovary.Backup
		inc.Release = inc.Release || m.Ovary.Release
	}
	if m.Settings.Theme != "" {
		inc.Theme = m.Settings.Theme
	}

	p.SetProp("installer", name)
	return inc.Config()
}
