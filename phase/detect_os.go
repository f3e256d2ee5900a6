package phase

import (
	"github.com/penguins-eggs/eggs/configurer"
	"github.com/penguins-eggs/eggs/pkg/distro"

	// anonymous import is needed to load the os configurers
	_ "github.com/penguins-eggs/eggs/configurer/linux"

	log "github.com/sirupsen/logrus"
)

// DetectOS detects the distribution and resolves its configurer
type DetectOS struct {
	GenericPhase
}

// Title for the phase
func (p *DetectOS) Title() string {
	return "Detect operating system"
}

// ShouldRun is false when the distro has already been detected
func (p *DetectOS) ShouldRun() bool {
	return p.manager.Distro == nil || p.manager.Configurer == nil
}

// Run the phase
func (p *DetectOS) Run() error {
	if p.manager.Distro == nil {
		dt := distro.NewDetector(p.manager.Host)
		if p.manager.Root != "" {
			dt.Root = p.manager.Root
		}
		d, err := dt.Detect()
		if err != nil {
			return err
		}
		p.manager.Distro = d
	}

	c, err := configurer.Resolve(p.manager.Distro)
	if err != nil {
		p.SetProp("missing-support", p.manager.Distro.String())
		return err
	}
	p.manager.Configurer = c
	p.SetProp("distro", p.manager.Distro.String())

	log.Infof("running %s, %s family", p.manager.Distro, c.Kind())

	return nil
}

// Critical stops the sequence, nothing works without a configurer
func (p *DetectOS) Critical() bool {
	return true
}
