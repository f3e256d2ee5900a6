package incubator

import (
	"fmt"
	"strings"

	"github.com/penguins-eggs/eggs/pkg/distro"
	"gopkg.in/yaml.v2"
)

// Module set names
const (
	SetJessie  = "jessie"
	SetBuster  = "buster"
	SetFocal   = "focal"
	SetRolling = "rolling"
)

// jobModules are the exec steps that only exist when their module is written
var jobModules = []string{"sources-yolk", "sources-yolk-unmount", "bootloader-config"}

// SetFor returns the module set used for the distro
func SetFor(d *distro.Distro) string {
	switch d.CodenameLikeID {
	case "jessie", "stretch":
		return SetJessie
	case "focal", "groovy", "hirsute", "impish", "jammy", "noble", "bionic":
		return SetFocal
	}
	if d.IsDebianFamily() {
		return SetBuster
	}
	return SetRolling
}

// removeCommands removes eggs and calamares from the installed system
var removeCommands = map[string]string{
	distro.FamilyDebian:    "apt-get purge --yes",
	distro.FamilyArchlinux: "pacman -Rns --noconfirm",
	distro.FamilyFedora:    "dnf remove -y",
}

func (c *Incubator) modules() []Module {
	set := SetFor(c.Distro)

	mods := []Module{c.partition()}
	switch set {
	case SetRolling:
		mods = append(mods, c.users(), c.displaymanager(), c.removeuser())
		return mods
	default:
		mods = append(mods, c.yolk())
	}
	if set != SetJessie {
		mods = append(mods, c.packages(), c.displaymanager(), c.unpackfs(), c.bootloaderConfig(set == SetFocal))
	}
	mods = append(mods, c.removeuser(), c.yolkUnmount())
	return mods
}

func (c *Incubator) job(name, script string) Module {
	path := c.Installer.MultiarchModules + name + "/" + name + ".sh"
	return Module{
		Name:   name,
		Job:    ptr(NewJob(name, path+" "+RootVar)),
		Script: script,
	}
}

func (c *Incubator) partition() Module {
	return Module{Name: "partition", Conf: yaml.MapSlice{
		{Key: "efiSystemPartition", Value: "/boot/efi"},
		{Key: "userSwapChoices", Value: []string{"none", "small", "suspend", "file"}},
		{Key: "drawNestedPartitions", Value: false},
		{Key: "alwaysShowPartitionLabels", Value: true},
		{Key: "initialPartitioningChoice", Value: "erase"},
		{Key: "initialSwapChoice", Value: "small"},
		{Key: "defaultFileSystemType", Value: "ext4"},
		{Key: "availableFileSystemTypes", Value: []string{"ext4", "btrfs", "xfs"}},
	}}
}

func (c *Incubator) users() Module {
	sudoers := "wheel"
	if c.Distro.IsDebianFamily() {
		sudoers = "sudo"
	}
	return Module{Name: "users", Conf: yaml.MapSlice{
		{Key: "defaultGroups", Value: []string{"users", "lp", "video", "network", "storage", sudoers, "audio"}},
		{Key: "autologinGroup", Value: "autologin"},
		{Key: "doAutologin", Value: true},
		{Key: "sudoersGroup", Value: sudoers},
		{Key: "setRootPassword", Value: true},
		{Key: "doReusePassword", Value: true},
	}}
}

func (c *Incubator) displaymanager() Module {
	return Module{Name: "displaymanager", Conf: yaml.MapSlice{
		{Key: "displaymanagers", Value: []string{"slim", "sddm", "lightdm", "gdm"}},
		{Key: "basicSetup", Value: false},
		{Key: "sysconfigSetup", Value: false},
	}}
}

func (c *Incubator) packages() Module {
	ops := []yaml.MapSlice{{{Key: "try_remove", Value: []string{}}}}
	if c.Release {
		ops = []yaml.MapSlice{{{Key: "remove", Value: []string{"calamares", "eggs"}}}}
	}
	return Module{Name: "packages", Conf: yaml.MapSlice{
		{Key: "backend", Value: "apt"},
		{Key: "update_db", Value: false},
		{Key: "operations", Value: ops},
	}}
}

func (c *Incubator) unpackfs() Module {
	source := c.Distro.LiveMediumPath + c.Distro.Squashfs
	return Module{Name: "unpackfs", Conf: yaml.MapSlice{
		{Key: "unpack", Value: []yaml.MapSlice{{
			{Key: "source", Value: source},
			{Key: "sourcefs", Value: "squashfs"},
			{Key: "destination", Value: ""},
		}}},
	}}
}

func (c *Incubator) removeuser() Module {
	cmd := fmt.Sprintf("chroot %s userdel -r -f %s", RootVar, c.UserOpt)
	if c.Release {
		if rm, ok := removeCommands[c.Distro.FamilyID]; ok {
			cmd += fmt.Sprintf("; chroot %s %s calamares eggs", RootVar, rm)
		}
	}
	return Module{Name: "removeuser", Job: ptr(NewJob("removeuser", "/bin/sh -c '"+cmd+"'"))}
}

func (c *Incubator) yolk() Module {
	return c.job("sources-yolk", c.template("sources-yolk.sh", nil))
}

func (c *Incubator) yolkUnmount() Module {
	return c.job("sources-yolk-unmount", c.template("sources-yolk-unmount.sh", nil))
}

func (c *Incubator) bootloaderConfig(ubuntu bool) Module {
	efi := "grub-efi-amd64 grub-efi-amd64-bin efibootmgr"
	bios := "grub-pc grub-pc-bin"
	if ubuntu {
		efi = "grub-efi-amd64 grub-efi-amd64-signed shim-signed efibootmgr"
	}
	script := c.template("bootloader-config.sh", map[string]string{
		"efiPackages":  efi,
		"biosPackages": bios,
	})
	return c.job("bootloader-config", script)
}

func (c *Incubator) template(name string, values map[string]string) string {
	data, err := templates.ReadFile("templates/" + name)
	if err != nil {
		panic(err)
	}
	s := string(data)
	for k, v := range values {
		s = strings.ReplaceAll(s, "{{"+k+"}}", v)
	}
	return s
}

func ptr[T any](v T) *T {
	return &v
}
