// Package config loads and saves the eggs settings and the installer answers
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/a8m/envsubst"
	"github.com/creasty/defaults"
	validator "github.com/go-playground/validator/v10"
	"github.com/penguins-eggs/eggs/pkg/distro"
	"github.com/penguins-eggs/eggs/pkg/squashfs"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// Paths of the configuration files
const (
	ConfigDir    = "/etc/penguins-eggs.d"
	SettingsPath = ConfigDir + "/eggs.yaml"
	KrillPath    = ConfigDir + "/krill.yaml"
	ExcludesPath = ConfigDir + "/exclude.list"
)

// ErrNotFound is returned when a configuration file does not exist
var ErrNotFound = errors.New("configuration file not found")

// Settings is the content of eggs.yaml
type Settings struct {
	Version          string   `yaml:"version,omitempty" json:"version,omitempty"`
	SnapshotDir      string   `yaml:"snapshot_dir" json:"snapshot_dir" default:"/home/eggs/" validate:"required"`
	SnapshotPrefix   string   `yaml:"snapshot_prefix" json:"snapshot_prefix"`
	SnapshotBasename string   `yaml:"snapshot_basename" json:"snapshot_basename"`
	SnapshotExcludes string   `yaml:"snapshot_excludes" json:"snapshot_excludes" default:"/etc/penguins-eggs.d/exclude.list"`
	UserOpt          string   `yaml:"user_opt" json:"user_opt" default:"live" validate:"required"`
	UserOptPasswd    string   `yaml:"user_opt_passwd" json:"user_opt_passwd" default:"evolution"`
	RootPasswd       string   `yaml:"root_passwd" json:"root_passwd" default:"evolution"`
	Theme            string   `yaml:"theme" json:"theme" default:"eggs"`
	MakeEFI          bool     `yaml:"make_efi" json:"make_efi" default:"true"`
	MakeIsohybrid    bool     `yaml:"make_isohybrid" json:"make_isohybrid" default:"true"`
	MakeMd5sum       bool     `yaml:"make_md5sum" json:"make_md5sum"`
	Compression      string   `yaml:"compression" json:"compression" default:"xz" validate:"compressor"`
	Timezone         string   `yaml:"timezone" json:"timezone"`
	Locales          []string `yaml:"locales,omitempty" json:"locales,omitempty"`
	LocalesDefault   string   `yaml:"locales_default,omitempty" json:"locales_default,omitempty"`
	Vmlinuz          string   `yaml:"vmlinuz" json:"vmlinuz"`
	InitrdImg        string   `yaml:"initrd_img" json:"initrd_img"`
	ForceInstaller   bool     `yaml:"force_installer" json:"force_installer"`
	SSHPass          bool     `yaml:"ssh_pass" json:"ssh_pass"`
	PmountFixed      bool     `yaml:"pmount_fixed" json:"pmount_fixed"`

	SnapshotMnt string   `yaml:"-" json:"-"`
	Work        WorkDirs `yaml:"-" json:"-"`
	KernelImage string   `yaml:"-" json:"-"`
	InitrdImage string   `yaml:"-" json:"-"`
}

// UnmarshalYAML sets the defaults before reading the data so that explicit false
// values survive
func (s *Settings) UnmarshalYAML(unmarshal func(interface{}) error) error {
	if err := defaults.Set(s); err != nil {
		return fmt.Errorf("failed to set defaults: %w", err)
	}

	type settings Settings
	ys := (*settings)(s)

	return unmarshal(ys)
}

// NewSettings returns settings filled with defaults
func NewSettings() *Settings {
	s := &Settings{}
	_ = defaults.Set(s)
	return s
}

// Validate performs a configuration sanity check
func (s *Settings) Validate() error {
	v := validator.New()
	if err := v.RegisterValidation("compressor", func(fl validator.FieldLevel) bool {
		return squashfs.IsCompressor(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.Struct(s)
}

// Derive computes the fields that are not stored in the file
func (s *Settings) Derive(hostname string) {
	if !strings.HasSuffix(s.SnapshotDir, "/") {
		s.SnapshotDir += "/"
	}
	if s.SnapshotBasename == "" {
		s.SnapshotBasename = hostname
	}
	s.SnapshotMnt = s.SnapshotDir + "mnt/"
	s.Work = NewWorkDirs(s.SnapshotDir)
	if s.Vmlinuz != "" {
		s.KernelImage = filepath.Base(s.Vmlinuz)
	}
	if s.InitrdImg != "" {
		s.InitrdImage = filepath.Base(s.InitrdImg)
	}
}

// AdjustEFI turns make_efi off when the system has no GRUB EFI support
func (s *Settings) AdjustEFI(available bool) {
	if s.MakeEFI && !available {
		log.Errorf("make_efi is set but no GRUB EFI support is installed, the ISO will only boot on BIOS systems")
		s.MakeEFI = false
	}
}

// ParseSettings parses eggs.yaml content after environment substitution
func ParseSettings(data []byte) (*Settings, error) {
	subst, err := envsubst.Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to substitute environment variables: %w", err)
	}

	s := NewSettings()
	if err := yaml.Unmarshal(subst, s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	return s, nil
}

// LoadSettings reads, validates and derives the settings
func LoadSettings(path, hostname string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s, create it with: sudo eggs config", ErrNotFound, path)
		}
		return nil, err
	}

	s, err := ParseSettings(data)
	if err != nil {
		return nil, err
	}

	if s.Timezone == "" {
		s.Timezone = ReadTimezone()
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	s.Derive(hostname)

	return s, nil
}

// Save writes the settings to path
func (s *Settings) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// SetKernel fills vmlinuz and initrd_img with the family defaults when empty
func (s *Settings) SetKernel(d *distro.Distro, kernelVersion string) {
	vmlinuz, initrd := KernelPaths(d, kernelVersion)
	if s.Vmlinuz == "" {
		s.Vmlinuz = vmlinuz
	}
	if s.InitrdImg == "" {
		s.InitrdImg = initrd
	}
}

// KernelPaths returns the default kernel and initrd paths for the family
func KernelPaths(d *distro.Distro, kernelVersion string) (string, string) {
	switch {
	case d.IsManjaro():
		return "/boot/vmlinuz-" + manjaroKernel(kernelVersion), "/boot/initramfs-" + manjaroKernel(kernelVersion) + ".img"
	case d.FamilyID == distro.FamilyArchlinux:
		return "/boot/vmlinuz-linux", "/boot/initramfs-linux.img"
	case d.FamilyID == distro.FamilyFedora:
		return "/boot/vmlinuz-" + kernelVersion, "/boot/initramfs-" + kernelVersion + ".img"
	default:
		return "/boot/vmlinuz-" + kernelVersion, "/boot/initrd.img-" + kernelVersion
	}
}

// manjaroKernel turns 6.6.30-2-MANJARO into linux66
func manjaroKernel(kv string) string {
	parts := strings.SplitN(kv, ".", 3)
	if len(parts) < 2 {
		return "linux"
	}
	return "linux" + parts[0] + parts[1]
}

// TimezonePath is where the system timezone name is read from
var TimezonePath = "/etc/timezone"

// ReadTimezone returns the content of /etc/timezone, or an empty string
func ReadTimezone() string {
	data, err := os.ReadFile(TimezonePath)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
