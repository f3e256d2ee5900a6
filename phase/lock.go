package phase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/penguins-eggs/eggs/cache"
	"github.com/penguins-eggs/eggs/pkg/retry"
	log "github.com/sirupsen/logrus"
)

// Lock acquires an exclusive eggs lock on the system, two builds or installs
// would share the work dirs and the mounts
type Lock struct {
	GenericPhase

	// Path of the lock file, in the cache dir when empty
	Path string

	instanceID string
	locked     bool
}

// Prepare the phase
func (p *Lock) Prepare(m *Manager) error {
	p.manager = m
	if p.Path == "" {
		p.Path = cache.File("eggs.lock")
	}
	p.instanceID = strconv.Itoa(os.Getpid())
	return nil
}

// Title for the phase
func (p *Lock) Title() string {
	return "Acquire exclusive lock"
}

// Critical stops the sequence, nothing may run without the lock
func (p *Lock) Critical() bool {
	return true
}

// Cancel releases the lock
func (p *Lock) Cancel() {
	if !p.locked {
		return
	}
	if err := os.Remove(p.Path); err != nil {
		log.Debugf("failed to remove lock file %s: %s", p.Path, err)
	}
	p.locked = false
}

// UnlockPhase returns an unlock phase for this lock phase
func (p *Lock) UnlockPhase() *Unlock {
	return &Unlock{Cancel: p.Cancel}
}

// Run the phase
func (p *Lock) Run() error {
	if err := os.MkdirAll(filepath.Dir(p.Path), 0o755); err != nil {
		return err
	}
	return retry.Times(context.Background(), 2, func(_ context.Context) error {
		return p.tryLock()
	})
}

func (p *Lock) tryLock() error {
	f, err := os.OpenFile(p.Path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err == nil {
		defer f.Close()
		if _, err := f.WriteString(p.instanceID); err != nil {
			return err
		}
		p.locked = true
		return nil
	}
	if !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%w: %w", retry.ErrAbort, err)
	}

	content, err := os.ReadFile(p.Path)
	if err != nil {
		return fmt.Errorf("lock file disappeared: %w", err)
	}
	pid := strings.TrimSpace(string(content))
	if pid != "" && pid != p.instanceID && p.exists(p.hostPath(filepath.Join("/proc", pid))) {
		return fmt.Errorf("%w: another instance of eggs (pid %s) is running, delete %s if it is not", retry.ErrAbort, pid, p.Path)
	}
	_ = os.Remove(p.Path)
	return fmt.Errorf("removed stale lock file of pid %s, will retry", pid)
}

// Unlock releases the lock taken by Lock
type Unlock struct {
	GenericPhase
	Cancel func()
}

// Prepare the phase
func (p *Unlock) Prepare(m *Manager) error {
	p.manager = m
	if p.Cancel == nil {
		p.Cancel = func() {
			log.Fatalf("cancel function not defined")
		}
	}
	return nil
}

// Title for the phase
func (p *Unlock) Title() string {
	return "Release exclusive lock"
}

// Run the phase
func (p *Unlock) Run() error {
	p.Cancel()
	return nil
}
