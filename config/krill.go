package config

import (
	"fmt"
	"os"

	"github.com/a8m/envsubst"
	"github.com/creasty/defaults"
	"gopkg.in/yaml.v2"
)

// Krill is the content of krill.yaml, the answers used by unattended installations
type Krill struct {
	Language         string   `yaml:"language" default:"en_US.UTF-8"`
	Region           string   `yaml:"region"`
	Zone             string   `yaml:"zone"`
	KeyboardModel    string   `yaml:"keyboardModel" default:"pc105"`
	KeyboardLayout   string   `yaml:"keyboardLayout" default:"us"`
	KeyboardVariant  string   `yaml:"keyboardVariant"`
	KeyboardOption   string   `yaml:"keyboardOption"`
	InstallationMode string   `yaml:"installationMode" default:"standard"`
	FilesystemType   string   `yaml:"filesystemType" default:"ext4"`
	UserSwapChoice   string   `yaml:"userSwapChoice" default:"small"`
	Name             string   `yaml:"name" default:"artisan"`
	Fullname         string   `yaml:"fullname" default:"artisan"`
	Password         string   `yaml:"password" default:"evolution"`
	RootPassword     string   `yaml:"rootPassword" default:"evolution"`
	Autologin        bool     `yaml:"autologin" default:"true"`
	Hostname         string   `yaml:"hostname"`
	Iface            string   `yaml:"iface"`
	AddressType      string   `yaml:"addressType" default:"dhcp"`
	Address          string   `yaml:"address"`
	Netmask          string   `yaml:"netmask"`
	Gateway          string   `yaml:"gateway"`
	DNS              []string `yaml:"dns,flow"`
	Domain           string   `yaml:"domain"`
}

// UnmarshalYAML sets the defaults before reading the data
func (k *Krill) UnmarshalYAML(unmarshal func(interface{}) error) error {
	if err := defaults.Set(k); err != nil {
		return fmt.Errorf("failed to set defaults: %w", err)
	}

	type krill Krill
	yk := (*krill)(k)

	return unmarshal(yk)
}

// LoadKrill reads krill.yaml
func LoadKrill(path string) (*Krill, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s is required for unattended installations", ErrNotFound, path)
		}
		return nil, err
	}

	subst, err := envsubst.Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to substitute environment variables: %w", err)
	}

	k := &Krill{}
	if err := defaults.Set(k); err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(subst, k); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return k, nil
}

// Apply copies the non-empty answers over the installation
func (k *Krill) Apply(i *Installation) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&i.Location.Language, k.Language)
	set(&i.Location.Region, k.Region)
	set(&i.Location.Zone, k.Zone)
	set(&i.Keyboard.Model, k.KeyboardModel)
	set(&i.Keyboard.Layout, k.KeyboardLayout)
	set(&i.Keyboard.Variant, k.KeyboardVariant)
	set(&i.Keyboard.Option, k.KeyboardOption)
	set(&i.Partitions.InstallationMode, k.InstallationMode)
	set(&i.Partitions.FilesystemType, k.FilesystemType)
	set(&i.Partitions.UserSwapChoice, k.UserSwapChoice)
	set(&i.Users.Name, k.Name)
	set(&i.Users.Fullname, k.Fullname)
	set(&i.Users.Password, k.Password)
	set(&i.Users.RootPassword, k.RootPassword)
	set(&i.Users.Hostname, k.Hostname)
	i.Users.Autologin = k.Autologin
	set(&i.Network.Iface, k.Iface)
	set(&i.Network.AddressType, k.AddressType)
	set(&i.Network.Address, k.Address)
	set(&i.Network.Netmask, k.Netmask)
	set(&i.Network.Gateway, k.Gateway)
	set(&i.Network.Domain, k.Domain)
	if len(k.DNS) > 0 {
		i.Network.DNS = k.DNS
	}
}

// Save writes krill.yaml
func (k *Krill) Save(path string) error {
	data, err := yaml.Marshal(k)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// NewKrill returns the default unattended answers
func NewKrill() *Krill {
	k := &Krill{}
	_ = defaults.Set(k)
	return k
}
