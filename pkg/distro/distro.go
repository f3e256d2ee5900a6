// Package distro detects the running distribution and describes the paths eggs needs
// to produce and install it.
package distro

import (
	"errors"
	"fmt"
	"strings"

	"github.com/k0sproject/rig"
)

// Families
const (
	FamilyDebian    = "debian"
	FamilyArchlinux = "archlinux"
	FamilyFedora    = "fedora"
)

// ErrNotRecognized is returned when neither the codename table nor the derivatives
// table knows the distribution
var ErrNotRecognized = errors.New("distro not recognized")

// Distro is the descriptor of the running distribution
type Distro struct {
	FamilyID             string `yaml:"familyId" json:"familyId"`
	DistroID             string `yaml:"distroId" json:"distroId"`
	DistroLike           string `yaml:"distroLike" json:"distroLike"`
	CodenameID           string `yaml:"codenameId" json:"codenameId"`
	CodenameLikeID       string `yaml:"codenameLikeId" json:"codenameLikeId"`
	ReleaseID            string `yaml:"releaseId" json:"releaseId"`
	ReleaseLike          string `yaml:"releaseLike" json:"releaseLike"`
	LiveMediumPath       string `yaml:"liveMediumPath" json:"liveMediumPath"`
	Squashfs             string `yaml:"squashfs" json:"squashfs"`
	IsolinuxPath         string `yaml:"isolinuxPath" json:"isolinuxPath"`
	SyslinuxPath         string `yaml:"syslinuxPath" json:"syslinuxPath"`
	PxelinuxPath         string `yaml:"pxelinuxPath" json:"pxelinuxPath"`
	MemdiskPath          string `yaml:"memdiskPath" json:"memdiskPath"`
	UsrLibPath           string `yaml:"usrLibPath" json:"usrLibPath"`
	HomeURL              string `yaml:"homeUrl" json:"homeUrl"`
	SupportURL           string `yaml:"supportUrl" json:"supportUrl"`
	BugReportURL         string `yaml:"bugReportUrl" json:"bugReportUrl"`
	IsCalamaresAvailable bool   `yaml:"isCalamaresAvailable" json:"isCalamaresAvailable"`

	OSVersion rig.OSVersion `yaml:"-" json:"-"`
}

func (d *Distro) String() string {
	return fmt.Sprintf("%s %s (%s/%s)", d.DistroID, d.ReleaseID, d.CodenameID, d.CodenameLikeID)
}

// IsDebianFamily is true for Debian, Devuan, Ubuntu and their derivatives
func (d *Distro) IsDebianFamily() bool {
	return d.FamilyID == FamilyDebian
}

// IsManjaro is true for Manjaro and BigLinux
func (d *Distro) IsManjaro() bool {
	return d.DistroID == "ManjaroLinux" || strings.Contains(strings.ToLower(d.DistroID), "biglinux")
}

// IsLegacy is true for releases that predate the current live-boot layout
func (d *Distro) IsLegacy() bool {
	return d.CodenameLikeID == "jessie" || d.CodenameLikeID == "stretch"
}

// OSModuleKey returns the identity used to look up the family configurer in the
// OS module registry.
func (d *Distro) OSModuleKey() rig.OSVersion {
	return rig.OSVersion{
		ID:      strings.ToLower(d.DistroLike),
		IDLike:  d.FamilyID,
		Name:    d.DistroID,
		Version: d.CodenameLikeID,
	}
}
