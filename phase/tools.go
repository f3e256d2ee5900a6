package phase

import (
	"fmt"

	"github.com/penguins-eggs/eggs/config"
	"github.com/penguins-eggs/eggs/configurer"
	"github.com/penguins-eggs/eggs/pkg/incubator"
	"github.com/penguins-eggs/eggs/pkg/skel"
	"github.com/penguins-eggs/eggs/pkg/wardrobe"
	log "github.com/sirupsen/logrus"
)

// CalamaresInstall installs calamares, its polkit policies and forces it as the
// installer in eggs.yaml
type CalamaresInstall struct {
	GenericPhase

	// SettingsPath is the eggs.yaml updated with force_installer
	SettingsPath string
}

// Title for the phase
func (p *CalamaresInstall) Title() string {
	return "Installing calamares"
}

// ShouldRun is true when a GUI is installed, krill serves the others
func (p *CalamaresInstall) ShouldRun() bool {
	if configurer.IsInstalledGui(p.manager.Configurer, p.manager.Host) {
		return true
	}
	log.Warnf("no GUI installed, krill will be configured instead of calamares")
	return false
}

// Run the phase
func (p *CalamaresInstall) Run() error {
	m := p.manager
	pkgs := m.Configurer.CalamaresPackages()
	p.SetProp("packages", len(pkgs))
	if err := m.Configurer.InstallPackage(m.Host, pkgs...); err != nil {
		return fmt.Errorf("install calamares: %w", err)
	}
	if err := m.Configurer.CalamaresPolicies(m.Host); err != nil {
		return fmt.Errorf("calamares policies: %w", err)
	}
	return p.forceInstaller(true)
}

func (p *GenericPhase) saveSettings(path string) error {
	if path == "" {
		path = config.SettingsPath
	}
	return p.manager.Settings.Save(p.hostPath(path))
}

func (p *CalamaresInstall) forceInstaller(v bool) error {
	if p.manager.Settings == nil {
		return nil
	}
	p.manager.Settings.ForceInstaller = v
	return p.saveSettings(p.SettingsPath)
}

// CalamaresRemove removes calamares and clears force_installer
type CalamaresRemove struct {
	GenericPhase

	SettingsPath string
}

// Title for the phase
func (p *CalamaresRemove) Title() string {
	return "Removing calamares"
}

// ShouldRun is true when calamares is installed
func (p *CalamaresRemove) ShouldRun() bool {
	return p.manager.Configurer.PackageIsInstalled(p.manager.Host, incubator.Calamares)
}

// Run the phase
func (p *CalamaresRemove) Run() error {
	m := p.manager
	if err := m.Configurer.RemovePackage(m.Host, m.Configurer.CalamaresPackages()...); err != nil {
		return fmt.Errorf("remove calamares: %w", err)
	}
	if m.Settings == nil {
		return nil
	}
	m.Settings.ForceInstaller = false
	return p.saveSettings(p.SettingsPath)
}

// Wear dresses the system with a costume from the wardrobe
type Wear struct {
	GenericPhase

	Wardrobe      *wardrobe.Wardrobe
	Costume       string
	NoAccessories bool
	NoFirmwares   bool
}

// Title for the phase
func (p *Wear) Title() string {
	return "Wearing " + wardrobe.Name(p.Costume)
}

// Run the phase
func (p *Wear) Run() error {
	m := p.manager
	t := &wardrobe.Tailor{
		Wardrobe:      p.Wardrobe,
		Host:          m.Host,
		Configurer:    m.Configurer,
		Distro:        m.Distro,
		NoAccessories: p.NoAccessories,
		NoFirmwares:   p.NoFirmwares,
		Root:          m.Root,
	}
	p.SetProp("costume", wardrobe.Name(p.Costume))
	return t.Wear(p.Costume)
}

// CopySkel rebuilds /etc/skel from the home of a user
type CopySkel struct {
	GenericPhase

	// User is the login whose home is copied, empty for the primary user
	User      string
	Translate bool
}

// Title for the phase
func (p *CopySkel) Title() string {
	return "Copying user configuration to " + skel.Dir
}

// Run the phase
func (p *CopySkel) Run() error {
	m := p.manager
	u, err := skel.User(p.hostPath("/etc/passwd"), p.User)
	if err != nil {
		return err
	}
	log.Infof("copying the configuration of %s from %s", u.Login, u.Home)
	s := &skel.Skel{
		Host:       m.Host,
		Configurer: m.Configurer,
		Root:       m.Root,
		Translate:  p.Translate,
	}
	return s.Run(u.Home)
}
