package phase

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alessio/shellescape"
	"github.com/k0sproject/rig/exec"
	"github.com/penguins-eggs/eggs/report"
)

// GenericPhase is a basic phase which gets the manager via prepare
type GenericPhase struct {
	report.Phase

	manager *Manager
}

// Prepare the phase
func (p *GenericPhase) Prepare(m *Manager) error {
	p.manager = m
	return nil
}

// target returns a path below the install target
func (p *GenericPhase) target(path string) string {
	return p.manager.TargetPath(path)
}

// hostPath returns a path below the root of the running system
func (p *GenericPhase) hostPath(path string) string {
	return p.manager.HostPath(path)
}

func (p *GenericPhase) exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// execf runs a command on the host
func (p *GenericPhase) execf(format string, args ...any) error {
	return p.manager.Host.Execf(format, args...)
}

// chroot runs a command inside the install target
func (p *GenericPhase) chroot(cmd string, opts ...exec.Option) error {
	return p.manager.Host.Exec(fmt.Sprintf("chroot %s %s", shellescape.Quote(p.manager.Target), cmd), opts...)
}

// chrootf is chroot with a format string
func (p *GenericPhase) chrootf(format string, args ...any) error {
	return p.chroot(fmt.Sprintf(format, args...))
}

// writeTarget writes a file below the install target, creating the parent dirs
func (p *GenericPhase) writeTarget(path, content string, perm os.FileMode) error {
	full := p.target(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(full, []byte(content), perm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// readTarget reads a file below the install target
func (p *GenericPhase) readTarget(path string) (string, error) {
	data, err := os.ReadFile(p.target(path))
	return string(data), err
}

// quote is shellescape.Quote
func quote(s string) string {
	return shellescape.Quote(s)
}
