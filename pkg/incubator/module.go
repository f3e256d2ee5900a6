package incubator

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// RootVar is replaced with the install target when a job runs
const RootVar = "${ROOT}"

// ModuleDesc is the descriptor of a calamares job module
type ModuleDesc struct {
	Type      string `yaml:"type"`
	Name      string `yaml:"name"`
	Interface string `yaml:"interface"`
	Command   string `yaml:"command"`
	Timeout   int    `yaml:"timeout"`
}

// NewJob returns the descriptor of a process job
func NewJob(name, command string) ModuleDesc {
	return ModuleDesc{Type: "job", Name: name, Interface: "process", Command: command, Timeout: 600}
}

// CommandFor returns the command with the target root substituted
func (d ModuleDesc) CommandFor(root string) string {
	return strings.ReplaceAll(d.Command, RootVar, root)
}

// ReadModuleDesc reads a module.desc. It returns os.ErrNotExist when the file does
// not exist.
func ReadModuleDesc(path string) (*ModuleDesc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d := &ModuleDesc{}
	if err := yaml.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if d.Command == "" {
		return nil, fmt.Errorf("%s: %w", path, errors.New("no command"))
	}
	return d, nil
}

// Module is a calamares module written by the incubator. Job modules carry a
// descriptor and an optional script, the others a configuration.
type Module struct {
	Name   string
	Conf   interface{}
	Job    *ModuleDesc
	Script string
}

// IsJob is true for modules run as a process
func (m Module) IsJob() bool {
	return m.Job != nil
}
