// Package incubator writes the configuration of the system installers, calamares
// for graphical systems and krill otherwise.
package incubator

import (
	"path/filepath"
)

// Installer names
const (
	Calamares = "calamares"
	Krill     = "krill"
)

// Installer locates the configuration of an installer
type Installer struct {
	Name string
	// Configuration holds settings.conf, branding/ and modules/
	Configuration string
	// Multiarch is below the distro multiarch lib dir
	Multiarch        string
	MultiarchModules string
}

// NewInstaller returns the installer layout for name. usrLibPath is the multiarch
// lib dir of the distro, for example /usr/lib/x86_64-linux-gnu/.
func NewInstaller(name, usrLibPath string) Installer {
	i := Installer{Name: name}
	if name == Calamares {
		i.Configuration = "/etc/calamares/"
	} else {
		i.Name = Krill
		i.Configuration = "/etc/penguins-eggs.d/krill/"
	}
	i.Multiarch = filepath.Join(usrLibPath, i.Name) + "/"
	i.MultiarchModules = i.Multiarch + "modules/"
	return i
}

// ModuleDescPath returns the path of the module.desc of a job module
func (i Installer) ModuleDescPath(module string) string {
	return filepath.Join(i.MultiarchModules, module, "module.desc")
}
