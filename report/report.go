// Package report records how long each installer phase took and how it ended
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/penguins-eggs/eggs/version"
	log "github.com/sirupsen/logrus"
	"github.com/ulikunitz/xz"
	"gopkg.in/yaml.v2"
)

// InstallPath is where the install report is written, relative to the target
const InstallPath = "/var/log/krill-install.yaml.xz"

// Entry is the record of one phase
type Entry struct {
	Phase    string                 `yaml:"phase"`
	Duration time.Duration          `yaml:"duration"`
	Result   string                 `yaml:"result"`
	Error    string                 `yaml:"error,omitempty"`
	Props    map[string]interface{} `yaml:"props,omitempty"`
}

// Report is a list of phase records
type Report struct {
	Command   string    `yaml:"command"`
	Version   string    `yaml:"version"`
	MachineID string    `yaml:"machineId,omitempty"`
	Started   time.Time `yaml:"started"`
	Entries   []Entry   `yaml:"entries"`

	mu sync.Mutex
}

// New returns a report for the command
func New(command string) *Report {
	r := &Report{
		Command: command,
		Version: version.Version,
		Started: time.Now(),
	}
	if id, err := machineid.ProtectedID("penguins-eggs"); err == nil {
		r.MachineID = id
	} else {
		log.Debugf("can't read machine id: %s", err.Error())
	}
	return r
}

// Add records a phase result
func (r *Report) Add(phase string, d time.Duration, result error, props map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := Entry{Phase: phase, Duration: d.Round(time.Millisecond), Result: "success", Props: props}
	if result != nil {
		e.Result = "failure"
		e.Error = result.Error()
	}
	r.Entries = append(r.Entries, e)
}

// Write encodes the report as xz compressed YAML
func (r *Report) Write(w io.Writer) error {
	r.mu.Lock()
	data, err := yaml.Marshal(r)
	r.mu.Unlock()
	if err != nil {
		return err
	}

	xw, err := xz.NewWriter(w)
	if err != nil {
		return err
	}
	if _, err := xw.Write(data); err != nil {
		return err
	}
	return xw.Close()
}

// WriteFile writes the report to path, creating the parent dir
func (r *Report) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if err := r.Write(f); err != nil {
		f.Close()
		return fmt.Errorf("write report: %w", err)
	}
	return f.Close()
}

// Read decodes an xz compressed report
func Read(rd io.Reader) (*Report, error) {
	xr, err := xz.NewReader(rd)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(xr)
	if err != nil {
		return nil, err
	}
	r := &Report{}
	if err := yaml.Unmarshal(data, r); err != nil {
		return nil, err
	}
	return r, nil
}
