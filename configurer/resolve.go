package configurer

import (
	"errors"
	"fmt"

	"github.com/k0sproject/rig/os"
	"github.com/k0sproject/rig/os/registry"
	"github.com/penguins-eggs/eggs/pkg/distro"
	"github.com/samber/lo"
)

// ErrNotSupported is returned when no configurer matches the distro
var ErrNotSupported = errors.New("distro family not supported")

// Resolve returns the configurer registered for the distro
func Resolve(d *distro.Distro) (Configurer, error) {
	bf, err := registry.GetOSModuleBuilder(d.OSModuleKey())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotSupported, d, err)
	}

	c, ok := bf().(Configurer)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotSupported, d)
	}

	return c, nil
}

// MissingPrerequisites returns the prerequisites that are not installed
func MissingPrerequisites(c Configurer, h os.Host) []string {
	return lo.Filter(c.Prerequisites(), func(p string, _ int) bool {
		return !c.PackageIsInstalled(h, p)
	})
}

// InstallPrerequisites installs the missing prerequisites
func InstallPrerequisites(c Configurer, h os.Host) error {
	missing := MissingPrerequisites(c, h)
	if len(missing) > 0 {
		if err := c.UpdateRepositories(h); err != nil {
			return err
		}
		if err := c.InstallPackage(h, missing...); err != nil {
			return err
		}
	}
	if f, ok := c.(PrerequisitesFinalizer); ok {
		return f.FinalizePrerequisites(h)
	}
	return nil
}

// IsInstalledGui returns true when an X server or Xwayland is installed
func IsInstalledGui(c Configurer, h os.Host) bool {
	return lo.ContainsBy(c.GuiPackages(), func(p string) bool {
		return c.PackageIsInstalled(h, p)
	})
}

// InstalledDisplayManager returns the first installed display manager
func InstalledDisplayManager(c Configurer, h os.Host) (string, bool) {
	return lo.Find(c.DisplayManagers(), func(dm string) bool {
		return c.PackageIsInstalled(h, dm)
	})
}
