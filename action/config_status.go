package action

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/penguins-eggs/eggs/config"
	"github.com/penguins-eggs/eggs/phase"
	"github.com/penguins-eggs/eggs/pkg/distro"
	"gopkg.in/yaml.v2"
)

// Status is what eggs status prints
type Status struct {
	Distro    *distro.Distro   `yaml:"distro" json:"distro"`
	Family    string           `yaml:"family" json:"family"`
	Installer string           `yaml:"installer" json:"installer"`
	Settings  *config.Settings `yaml:"settings,omitempty" json:"settings,omitempty"`
}

// ConfigStatus prints the detected distro and the settings
type ConfigStatus struct {
	Manager *phase.Manager
	// Format is yaml or json
	Format string
	Writer io.Writer
}

func (c ConfigStatus) Run() error {
	m := c.Manager
	m.AddPhase(
		&phase.Connect{},
		&phase.DetectOS{},
	)
	if err := m.Run(); err != nil {
		return err
	}
	if conn, ok := m.Connection(); ok {
		defer conn.Disconnect()
	}

	st := Status{
		Distro:    m.Distro,
		Family:    m.Configurer.Kind(),
		Installer: phase.ChooseInstaller(m.Configurer, m.Host),
		Settings:  m.Settings,
	}

	var (
		out []byte
		err error
	)
	switch c.Format {
	case "json":
		out, err = json.MarshalIndent(st, "", "  ")
	case "", "yaml":
		out, err = yaml.Marshal(st)
	default:
		return fmt.Errorf("unknown output format %q", c.Format)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(c.Writer, string(out))

	return nil
}
