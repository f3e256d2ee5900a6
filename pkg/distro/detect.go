package distro

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/k0sproject/rig"
	"github.com/k0sproject/rig/exec"
	"github.com/penguins-eggs/eggs/internal/shell"
	log "github.com/sirupsen/logrus"
)

const (
	projectHomeURL      = "https://penguins-eggs.net"
	projectSupportURL   = "https://penguins-eggs.net"
	projectBugReportURL = "https://github.com/pieroproietti/penguins-eggs/issues"
)

// Runner runs a command and returns its output
type Runner interface {
	ExecOutput(cmd string, opts ...exec.Option) (string, error)
}

// Detector builds a Distro by reading the files below Root and running commands
// through Runner
type Detector struct {
	Root            string
	Runner          Runner
	DerivativesPath string
}

// NewDetector returns a detector for the running host
func NewDetector(r Runner) *Detector {
	return &Detector{Root: "/", Runner: r, DerivativesPath: DerivativesPath}
}

// Detect returns the descriptor of the running distribution
func Detect(r Runner) (*Distro, error) {
	return NewDetector(r).Detect()
}

func (dt *Detector) path(p string) string {
	if dt.Root == "" {
		return p
	}
	return filepath.Join(dt.Root, p)
}

func (dt *Detector) exists(p string) bool {
	_, err := os.Stat(dt.path(p))
	return err == nil
}

func (dt *Detector) output(cmd string) string {
	out, err := dt.Runner.ExecOutput(cmd)
	if err != nil {
		log.Debugf("%s: %s", cmd, err.Error())
		return ""
	}
	return strings.TrimSpace(out)
}

// Detect runs the detection
func (dt *Detector) Detect() (*Distro, error) {
	d := &Distro{
		FamilyID:             FamilyDebian,
		LiveMediumPath:       "/run/live/medium/",
		Squashfs:             "live/filesystem.squashfs",
		UsrLibPath:           "/usr/lib",
		HomeURL:              projectHomeURL,
		SupportURL:           projectSupportURL,
		BugReportURL:         projectBugReportURL,
		IsCalamaresAvailable: true,
	}

	if err := dt.readOSRelease(d); err != nil {
		return nil, err
	}

	d.CodenameID = dt.output("lsb_release -cs")
	d.ReleaseID = dt.output("lsb_release -rs")
	d.DistroID = dt.output("lsb_release -is")
	d.ReleaseLike = d.ReleaseID

	if d.DistroID == "Debian" {
		switch {
		case d.ReleaseID == "unstable" && d.CodenameID == "sid":
			d.CodenameID = "trixie"
		case d.ReleaseID == "testing/unstable":
			d.CodenameID = "trixie"
			d.ReleaseLike = "unstable"
		}
	}

	if err := dt.classify(d); err != nil {
		return nil, err
	}

	dt.familyPaths(d)

	if err := dt.readLSBRelease(d); err != nil {
		return nil, err
	}

	if d.IsManjaro() {
		d.LiveMediumPath = "/run/miso/bootmnt/"
		d.Squashfs = "manjaro/x86_64/livefs.sfs"
	}

	log.Debugf("detected distro: %s", d)

	return d, nil
}

func (dt *Detector) classify(d *Distro) error {
	switch d.CodenameID {
	case "jessie", "stretch":
		d.DistroLike = "Debian"
		d.CodenameLikeID = d.CodenameID
		d.LiveMediumPath = "/lib/live/mount/medium/"
		d.IsCalamaresAvailable = false
	case "buster", "bullseye", "bookworm", "trixie":
		d.DistroLike = "Debian"
		d.CodenameLikeID = d.CodenameID
	case "beowulf", "chimaera", "daedalus":
		d.DistroLike = "Devuan"
		d.CodenameLikeID = d.CodenameID
	case "bionic":
		d.DistroLike = "Ubuntu"
		d.CodenameLikeID = d.CodenameID
		d.LiveMediumPath = "/lib/live/mount/medium/"
	case "focal", "jammy", "noble", "devel":
		d.DistroLike = "Ubuntu"
		d.CodenameLikeID = d.CodenameID
	case "Spizaetus", "n/a", "rolling":
		if isFedora(d.OSVersion) {
			setFedora(d)
			return nil
		}
		d.FamilyID = FamilyArchlinux
		d.DistroLike = "Arch"
		d.CodenameID = "rolling"
		d.CodenameLikeID = "rolling"
		d.LiveMediumPath = "/run/archiso/bootmnt/"
		d.Squashfs = "arch/x86_64/airootfs.sfs"
	default:
		derivatives, err := LoadDerivatives(dt.path(dt.DerivativesPath))
		if err != nil {
			return err
		}
		if deriv, ok := derivatives.Lookup(d.CodenameID); ok {
			d.DistroLike = deriv.DistroLike
			d.CodenameLikeID = deriv.ID
			if deriv.Family != "" {
				d.FamilyID = deriv.Family
			}
			return nil
		}
		if isFedora(d.OSVersion) {
			setFedora(d)
			return nil
		}
		return &NotRecognizedError{DistroID: d.DistroID, CodenameID: d.CodenameID, Path: DerivativesPath}
	}
	return nil
}

func isFedora(osv rig.OSVersion) bool {
	if osv.ID == "fedora" {
		return true
	}
	for _, like := range strings.Fields(osv.IDLike) {
		if like == "fedora" {
			return true
		}
	}
	return false
}

func setFedora(d *Distro) {
	d.FamilyID = FamilyFedora
	d.DistroLike = "Fedora"
	d.CodenameLikeID = "fedora"
	d.LiveMediumPath = "/run/initramfs/live/"
	d.Squashfs = "LiveOS/squashfs.img"
}

func (dt *Detector) familyPaths(d *Distro) {
	switch d.FamilyID {
	case FamilyArchlinux:
		d.IsolinuxPath = "/usr/lib/syslinux/bios/"
		d.SyslinuxPath = d.IsolinuxPath
		d.PxelinuxPath = d.IsolinuxPath
		d.MemdiskPath = d.IsolinuxPath
		d.UsrLibPath = "/usr/lib/"
	case FamilyFedora:
		d.IsolinuxPath = "/usr/share/syslinux/"
		d.SyslinuxPath = d.IsolinuxPath
		d.PxelinuxPath = d.IsolinuxPath
		d.MemdiskPath = d.IsolinuxPath
		d.UsrLibPath = "/usr/lib64/"
	default:
		d.IsolinuxPath = "/usr/lib/ISOLINUX/"
		d.SyslinuxPath = "/usr/lib/syslinux/modules/bios/"
		d.PxelinuxPath = "/usr/lib/PXELINUX/"
		d.MemdiskPath = "/usr/lib/syslinux/"
		d.UsrLibPath = "/usr/lib/" + dt.multiarch()
	}
}

var goarchTriplets = map[string]string{
	"amd64": "x86_64-linux-gnu",
	"386":   "i386-linux-gnu",
	"arm64": "aarch64-linux-gnu",
	"arm":   "arm-linux-gnueabihf",
}

func (dt *Detector) multiarch() string {
	if m := dt.output("dpkg-architecture -qDEB_HOST_MULTIARCH"); m != "" {
		return m
	}
	return goarchTriplets[runtime.GOARCH]
}

func (dt *Detector) readOSRelease(d *Distro) error {
	f, err := os.Open(dt.path("/etc/os-release"))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	env, err := shell.ParseEnv(f)
	if err != nil {
		return err
	}
	if v := env["HOME_URL"]; v != "" {
		d.HomeURL = v
	}
	if v := env["SUPPORT_URL"]; v != "" {
		d.SupportURL = v
	}
	if v := env["BUG_REPORT_URL"]; v != "" {
		d.BugReportURL = v
	}
	d.OSVersion = rig.OSVersion{
		ID:      env["ID"],
		IDLike:  env["ID_LIKE"],
		Name:    env["NAME"],
		Version: env["VERSION_ID"],
	}
	return nil
}

func (dt *Detector) readLSBRelease(d *Distro) error {
	f, err := os.Open(dt.path("/etc/lsb-release"))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	env, err := shell.ParseEnv(f)
	if err != nil {
		return err
	}
	if v := env["DISTRIB_ID"]; v != "" {
		d.DistroID = v
	}
	if v := env["DISTRIB_CODENAME"]; v != "" {
		d.CodenameID = v
	}
	return nil
}
