package phase

import (
	"errors"
	"io/fs"

	"github.com/penguins-eggs/eggs/pkg/incubator"
	log "github.com/sirupsen/logrus"
)

// CalamaresModule runs the command of a calamares job module
type CalamaresModule struct {
	GenericPhase

	Name string
	// At is the installation percentage when the module runs
	At int

	desc *incubator.ModuleDesc
}

// Title for the phase
func (p *CalamaresModule) Title() string {
	return "Running module " + p.Name
}

// Percent of the installation done when the phase starts
func (p *CalamaresModule) Percent() int {
	return p.At
}

// Prepare reads the module descriptor
func (p *CalamaresModule) Prepare(m *Manager) error {
	p.manager = m
	inst := incubator.NewInstaller(incubator.Krill, m.Distro.UsrLibPath)
	desc, err := incubator.ReadModuleDesc(m.HostPath(inst.ModuleDescPath(p.Name)))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Debugf("module %s: no module.desc", p.Name)
		return nil
	case err != nil:
		return err
	}
	p.desc = desc
	return nil
}

// ShouldRun is true on the debian family when the module exists
func (p *CalamaresModule) ShouldRun() bool {
	return p.desc != nil && p.manager.Distro.IsDebianFamily()
}

// Run the phase
func (p *CalamaresModule) Run() error {
	p.SetProp("command", p.desc.Command)
	return p.manager.Host.Exec(p.desc.CommandFor(p.manager.Target))
}
