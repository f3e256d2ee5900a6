package configurer

import (
	"github.com/k0sproject/rig/os"
)

// Configurer defines the per-family operations eggs needs on the running system and
// on an install target.
type Configurer interface {
	Kind() string
	Family() string

	PackageIsInstalled(os.Host, string) bool
	InstallPackage(os.Host, ...string) error
	RemovePackage(os.Host, ...string) error
	UpdateRepositories(os.Host) error

	Prerequisites() []string
	CalamaresPackages() []string
	GuiPackages() []string
	DisplayManagers() []string

	GrubInstallCmd(device string, efi bool, bootloaderID string) string
	GrubMkconfigCmd() string
	InitramfsCmd() string
	AdminGroup() string
	UsesIfupdown() bool
	LocaleFiles() []string

	IsSystemd(os.Host) bool
	StopService(os.Host, string) error
	ServiceIsActive(os.Host, string) bool
	KernelVersion(os.Host) (string, error)
	Arch(os.Host) (string, error)
	FileExist(os.Host, string) bool
	CommandExist(os.Host, string) bool
	CalamaresPolicies(os.Host) error
}

// PrerequisitesFinalizer is implemented by configurers that need to adjust the
// system after the prerequisites have been installed.
type PrerequisitesFinalizer interface {
	FinalizePrerequisites(os.Host) error
}
