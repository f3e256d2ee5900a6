package config

import (
	"errors"
	"os"
	"regexp"
	"strings"

	"github.com/creasty/defaults"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/k0sproject/dig"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v2"
)

// Installation modes
const (
	ModeStandard      = "standard"
	ModeFullEncrypted = "full-encrypted"
	ModeLVM2          = "lvm2"
)

// Swap choices
const (
	SwapNone    = "none"
	SwapSmall   = "small"
	SwapSuspend = "suspend"
	SwapFile    = "file"
)

// Address types
const (
	AddressDHCP   = "dhcp"
	AddressStatic = "static"
)

var (
	// InstallationModes lists the supported partitioning modes
	InstallationModes = []string{ModeStandard, ModeFullEncrypted, ModeLVM2}
	// SwapChoices lists the supported swap layouts
	SwapChoices = []string{SwapNone, SwapSmall, SwapSuspend, SwapFile}
	// FilesystemTypes lists the supported root filesystems
	FilesystemTypes = []string{"ext4", "btrfs", "xfs"}

	userNameRe = regexp.MustCompile(`^[a-z_][a-z0-9_-]*$`)
	hostnameRe = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?$`)
)

// PartitionConfPath is the calamares partition module config that may carry the
// default filesystem type
var PartitionConfPath = "/etc/calamares/modules/partition.conf"

// HostnamePath is where the current hostname is read from
var HostnamePath = "/etc/hostname"

// Location answers
type Location struct {
	Language string `yaml:"language" default:"en_US.UTF-8"`
	Region   string `yaml:"region" default:"Europe"`
	Zone     string `yaml:"zone" default:"London"`
}

// Keyboard answers
type Keyboard struct {
	Model   string `yaml:"model" default:"pc105"`
	Layout  string `yaml:"layout" default:"us"`
	Variant string `yaml:"variant"`
	Option  string `yaml:"option"`
}

// Partitions answers
type Partitions struct {
	Device           string `yaml:"device"`
	InstallationMode string `yaml:"installationMode" default:"standard"`
	FilesystemType   string `yaml:"filesystemType" default:"ext4"`
	UserSwapChoice   string `yaml:"userSwapChoice" default:"small"`
}

// Users answers
type Users struct {
	Name         string `yaml:"name" default:"artisan"`
	Fullname     string `yaml:"fullname" default:"artisan"`
	Password     string `yaml:"password" default:"evolution"`
	RootPassword string `yaml:"rootPassword" default:"evolution"`
	Autologin    bool   `yaml:"autologin" default:"true"`
	Hostname     string `yaml:"hostname"`
}

// Network answers
type Network struct {
	Iface       string   `yaml:"iface"`
	AddressType string   `yaml:"addressType" default:"dhcp"`
	Address     string   `yaml:"address"`
	Netmask     string   `yaml:"netmask"`
	Gateway     string   `yaml:"gateway"`
	DNS         []string `yaml:"dns"`
	Domain      string   `yaml:"domain"`
}

// Installation holds every answer the installer needs
type Installation struct {
	Location   Location   `yaml:"location"`
	Keyboard   Keyboard   `yaml:"keyboard"`
	Partitions Partitions `yaml:"partitions"`
	Users      Users      `yaml:"users"`
	Network    Network    `yaml:"network"`
}

// NewInstallation returns the answers prefilled with the defaults of the running
// system
func NewInstallation() *Installation {
	i := &Installation{}
	_ = defaults.Set(i)

	if tz := ReadTimezone(); tz != "" {
		i.Location.SetTimezone(tz)
	}
	if fs := DefaultFilesystemType(); fs != "" {
		i.Partitions.FilesystemType = fs
	}
	if data, err := os.ReadFile(HostnamePath); err == nil {
		i.Users.Hostname = strings.TrimSpace(string(data))
	}
	if i.Users.Hostname == "" {
		i.Users.Hostname = "eggs"
	}

	return i
}

// SetTimezone splits a zone name like Europe/Rome into region and zone
func (l *Location) SetTimezone(tz string) {
	region, zone, ok := strings.Cut(strings.TrimSpace(tz), "/")
	if !ok || region == "" || zone == "" {
		return
	}
	l.Region = region
	l.Zone = zone
}

// Timezone returns region/zone
func (l Location) Timezone() string {
	return l.Region + "/" + l.Zone
}

// DefaultFilesystemType reads defaultFileSystemType from the calamares partition
// module configuration
func DefaultFilesystemType() string {
	data, err := os.ReadFile(PartitionConfPath)
	if err != nil {
		return ""
	}
	m := dig.Mapping{}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return ""
	}
	return m.DigString("defaultFileSystemType")
}

// Validate checks the answers
func (i *Installation) Validate() error {
	validation.ErrorTag = "yaml"
	return validation.ValidateStruct(i,
		validation.Field(&i.Location),
		validation.Field(&i.Keyboard),
		validation.Field(&i.Partitions),
		validation.Field(&i.Users),
		validation.Field(&i.Network),
	)
}

// Validate checks the location answers
func (l Location) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Language, validation.Required, validation.By(validLocale)),
		validation.Field(&l.Region, validation.Required),
		validation.Field(&l.Zone, validation.Required),
	)
}

// Validate checks the keyboard answers
func (k Keyboard) Validate() error {
	return validation.ValidateStruct(&k,
		validation.Field(&k.Model, validation.Required),
		validation.Field(&k.Layout, validation.Required),
	)
}

// Validate checks the partitioning answers
func (p Partitions) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Device, validation.Required),
		validation.Field(&p.InstallationMode, validation.Required, validation.In(toAny(InstallationModes)...)),
		validation.Field(&p.FilesystemType, validation.Required, validation.In(toAny(FilesystemTypes)...)),
		validation.Field(&p.UserSwapChoice, validation.Required, validation.In(toAny(SwapChoices)...)),
	)
}

// Validate checks the user answers
func (u Users) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Name, validation.Required, validation.Length(1, 32), validation.Match(userNameRe).Error("must start with a lowercase letter or underscore and contain only lowercase letters, digits, underscores and dashes")),
		validation.Field(&u.Password, validation.Required),
		validation.Field(&u.RootPassword, validation.Required),
		validation.Field(&u.Hostname, validation.Required, validation.Match(hostnameRe).Error("must be a valid hostname label")),
	)
}

// Validate checks the network answers
func (n Network) Validate() error {
	static := n.AddressType == AddressStatic
	return validation.ValidateStruct(&n,
		validation.Field(&n.AddressType, validation.Required, validation.In(AddressDHCP, AddressStatic)),
		validation.Field(&n.Address, validation.When(static, validation.Required, is.IPv4)),
		validation.Field(&n.Netmask, validation.When(static, validation.Required, is.IPv4)),
		validation.Field(&n.Gateway, validation.When(static, validation.Required, is.IPv4)),
		validation.Field(&n.DNS, validation.Each(is.IP)),
		validation.Field(&n.Domain, validation.When(static && n.Domain != "", is.DNSName)),
	)
}

func validLocale(value interface{}) error {
	s, _ := value.(string)
	tag, _, _ := strings.Cut(s, ".")
	if _, err := language.Parse(strings.ReplaceAll(tag, "_", "-")); err != nil {
		return errors.New("must be a locale like en_US.UTF-8")
	}
	return nil
}

func toAny(s []string) []interface{} {
	out := make([]interface{}, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
