package phase

import (
	"fmt"
	"strings"

	"github.com/penguins-eggs/eggs/configurer"
	log "github.com/sirupsen/logrus"
)

// Prerequisites installs the packages eggs needs to produce an ISO
type Prerequisites struct {
	GenericPhase

	// Confirm is asked before installing, nil installs without asking
	Confirm func(message string) bool

	missing []string
}

// Title for the phase
func (p *Prerequisites) Title() string {
	return "Checking prerequisites"
}

// Prepare lists the missing packages
func (p *Prerequisites) Prepare(m *Manager) error {
	p.manager = m
	p.missing = configurer.MissingPrerequisites(m.Configurer, m.Host)
	return nil
}

// ShouldRun is true when packages are missing or the configurer needs to finish
// the setup
func (p *Prerequisites) ShouldRun() bool {
	if len(p.missing) > 0 {
		return true
	}
	_, ok := p.manager.Configurer.(configurer.PrerequisitesFinalizer)
	return ok
}

// Run the phase
func (p *Prerequisites) Run() error {
	if len(p.missing) > 0 {
		log.Warnf("missing packages: %s", strings.Join(p.missing, ", "))
		p.SetProp("missing", len(p.missing))
		if p.Confirm != nil && !p.Confirm(fmt.Sprintf("Install %d missing package(s)?", len(p.missing))) {
			return fmt.Errorf("%w: prerequisites not installed", ErrAborted)
		}
	}
	return configurer.InstallPrerequisites(p.manager.Configurer, p.manager.Host)
}
