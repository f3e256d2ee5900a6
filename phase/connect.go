package phase

import (
	"github.com/k0sproject/rig"
	log "github.com/sirupsen/logrus"
)

// Connect opens the local connection used to run commands
type Connect struct {
	GenericPhase
}

// Title for the phase
func (p *Connect) Title() string {
	return "Connect to localhost"
}

// ShouldRun is true when no host has been set
func (p *Connect) ShouldRun() bool {
	return p.manager.Host == nil
}

// Run the phase
func (p *Connect) Run() error {
	h := &rig.Connection{Localhost: &rig.Localhost{Enabled: true}}
	if err := h.Connect(); err != nil {
		return err
	}
	log.Debugf("%s: connected", h)
	p.manager.Host = h
	return nil
}

// Disconnect closes the local connection
type Disconnect struct {
	GenericPhase
}

// Title for the phase
func (p *Disconnect) Title() string {
	return "Disconnect from localhost"
}

// ShouldRun is true when the host is a rig connection
func (p *Disconnect) ShouldRun() bool {
	_, ok := p.manager.Connection()
	return ok
}

// Run the phase
func (p *Disconnect) Run() error {
	if c, ok := p.manager.Connection(); ok {
		c.Disconnect()
	}
	return nil
}
