package incubator

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/penguins-eggs/eggs/config"
	"github.com/penguins-eggs/eggs/pkg/distro"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

type settingsDoc struct {
	Sequence []map[string][]string `yaml:"sequence"`
	Branding string                `yaml:"branding"`
}

func (s settingsDoc) exec() []string {
	for _, block := range s.Sequence {
		if steps, ok := block["exec"]; ok {
			return steps
		}
	}
	return nil
}

func bookworm() *distro.Distro {
	return &distro.Distro{
		FamilyID:       distro.FamilyDebian,
		DistroID:       "Debian",
		DistroLike:     "Debian",
		CodenameID:     "bookworm",
		CodenameLikeID: "bookworm",
		ReleaseID:      "12",
		UsrLibPath:     "/usr/lib/x86_64-linux-gnu/",
		LiveMediumPath: "/run/live/medium/",
		Squashfs:       "live/filesystem.squashfs",
	}
}

func newTestIncubator(t *testing.T, installer string, d *distro.Distro) *Incubator {
	t.Helper()
	c := New(installer, d, config.Remix{Branding: "eggs", Name: "egg-of-debian", Fullname: "debian bookworm", VersionName: "BOOKWORM"})
	c.Root = t.TempDir()
	return c
}

func readSettings(t *testing.T, c *Incubator) settingsDoc {
	t.Helper()
	data, err := os.ReadFile(c.path(c.Installer.Configuration + "settings.conf"))
	require.NoError(t, err)
	var doc settingsDoc
	require.NoError(t, yaml.Unmarshal(data, &doc))
	return doc
}

func TestNewInstaller(t *testing.T) {
	i := NewInstaller(Calamares, "/usr/lib/x86_64-linux-gnu/")
	require.Equal(t, "/etc/calamares/", i.Configuration)
	require.Equal(t, "/usr/lib/x86_64-linux-gnu/calamares/modules/", i.MultiarchModules)

	k := NewInstaller("anything", "/usr/lib/x86_64-linux-gnu/")
	require.Equal(t, Krill, k.Name)
	require.Equal(t, "/etc/penguins-eggs.d/krill/", k.Configuration)
	require.Equal(t, "/usr/lib/x86_64-linux-gnu/krill/modules/sources-yolk/module.desc", k.ModuleDescPath("sources-yolk"))
}

func TestSetFor(t *testing.T) {
	require.Equal(t, SetJessie, SetFor(&distro.Distro{FamilyID: "debian", CodenameLikeID: "stretch"}))
	require.Equal(t, SetBuster, SetFor(&distro.Distro{FamilyID: "debian", CodenameLikeID: "daedalus"}))
	require.Equal(t, SetFocal, SetFor(&distro.Distro{FamilyID: "debian", CodenameLikeID: "bionic"}))
	require.Equal(t, SetFocal, SetFor(&distro.Distro{FamilyID: "debian", CodenameLikeID: "jammy"}))
	require.Equal(t, SetRolling, SetFor(&distro.Distro{FamilyID: "archlinux", CodenameLikeID: "rolling"}))
	require.Equal(t, SetRolling, SetFor(&distro.Distro{FamilyID: "fedora", CodenameLikeID: "fedora"}))
}

func TestConfigKrillDebian(t *testing.T) {
	c := newTestIncubator(t, Krill, bookworm())
	c.Systemd = true
	require.NoError(t, c.Config())

	doc := readSettings(t, c)
	require.Equal(t, "eggs", doc.Branding)
	exec := doc.exec()
	require.Contains(t, exec, "sources-yolk")
	require.Contains(t, exec, "bootloader-config")
	require.Contains(t, exec, "users")
	require.Contains(t, exec, "services-systemd")
	require.NotContains(t, exec, "displaymanager")
	require.Equal(t, "umount", exec[len(exec)-1])

	desc, err := ReadModuleDesc(c.path(c.Installer.ModuleDescPath("sources-yolk")))
	require.NoError(t, err)
	require.Equal(t, "job", desc.Type)
	require.Equal(t, "process", desc.Interface)
	require.Equal(t, "/usr/lib/x86_64-linux-gnu/krill/modules/sources-yolk/sources-yolk.sh /target", desc.CommandFor("/target"))

	script, err := os.ReadFile(c.path(c.Installer.MultiarchModules + "bootloader-config/bootloader-config.sh"))
	require.NoError(t, err)
	require.Contains(t, string(script), "grub-efi-amd64-bin")
	require.NotContains(t, string(script), "shim-signed")

	unpack, err := os.ReadFile(c.path(c.Installer.Configuration + "modules/unpackfs.conf"))
	require.NoError(t, err)
	require.Contains(t, string(unpack), "/run/live/medium/live/filesystem.squashfs")

	branding, err := os.ReadFile(c.path(c.Installer.Configuration + "branding/eggs/branding.desc"))
	require.NoError(t, err)
	require.Contains(t, string(branding), "productName: debian bookworm")
}

func TestConfigClone(t *testing.T) {
	c := newTestIncubator(t, Krill, bookworm())
	c.Clone = true
	c.DisplayManager = true
	require.NoError(t, c.Config())

	exec := readSettings(t, c).exec()
	require.NotContains(t, exec, "users")
	require.Contains(t, exec, "displaymanager")
	require.NotContains(t, exec, "services-systemd")
}

func TestConfigUbuntuBootloader(t *testing.T) {
	d := bookworm()
	d.CodenameLikeID = "jammy"
	c := newTestIncubator(t, Krill, d)
	require.NoError(t, c.Config())

	script, err := os.ReadFile(c.path(c.Installer.MultiarchModules + "bootloader-config/bootloader-config.sh"))
	require.NoError(t, err)
	require.Contains(t, string(script), "shim-signed")
}

func TestConfigRolling(t *testing.T) {
	d := &distro.Distro{FamilyID: distro.FamilyArchlinux, DistroID: "Arch", CodenameLikeID: "rolling", UsrLibPath: "/usr/lib/"}
	c := newTestIncubator(t, Krill, d)
	require.NoError(t, c.Config())

	exec := readSettings(t, c).exec()
	require.NotContains(t, exec, "sources-yolk")
	require.NotContains(t, exec, "sources-yolk-unmount")
	require.NotContains(t, exec, "bootloader-config")

	users, err := os.ReadFile(c.path(c.Installer.Configuration + "modules/users.conf"))
	require.NoError(t, err)
	require.Contains(t, string(users), "sudoersGroup: wheel")
}

func TestRemoveuserRelease(t *testing.T) {
	c := newTestIncubator(t, Krill, bookworm())
	c.Release = true
	require.NoError(t, c.Config())

	desc, err := ReadModuleDesc(c.path(c.Installer.ModuleDescPath("removeuser")))
	require.NoError(t, err)
	require.Contains(t, desc.Command, "userdel -r -f live")
	require.Contains(t, desc.Command, "apt-get purge --yes calamares eggs")
}

func TestCalamaresMissingTheme(t *testing.T) {
	c := newTestIncubator(t, Calamares, bookworm())
	c.Theme = "/nowhere/theme"
	require.ErrorIs(t, c.Config(), ErrThemeNotFound)
}

func TestCalamaresThemeAndCfs(t *testing.T) {
	c := newTestIncubator(t, Calamares, bookworm())
	c.Theme = "/themes/waydroid"
	c.Remix.Branding = "waydroid"

	branding := c.path("/themes/waydroid/theme/calamares/branding")
	require.NoError(t, os.MkdirAll(filepath.Join(branding, "images"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(branding, "images", "logo.png"), []byte("png"), 0o644))
	require.NoError(t, os.WriteFile(c.path("/themes/waydroid/theme/calamares/cfs.yml"), []byte("- cfs-one\n- cfs-two\n"), 0o644))
	require.NoError(t, c.Config())

	_, err := os.Stat(c.path("/etc/calamares/branding/waydroid/images/logo.png"))
	require.NoError(t, err)

	doc := readSettings(t, c)
	require.Equal(t, "waydroid", doc.Branding)
	exec := doc.exec()
	n := len(exec)
	require.Equal(t, []string{"sources-yolk-unmount", "cfs-one", "cfs-two", "umount"}, exec[n-4:])
}

func TestEditSequence(t *testing.T) {
	in := []byte("sequence:\n- show:\n  - welcome\n- exec:\n  - partition\n  - sources-yolk\n  - umount\nbranding: eggs\n")
	out, err := EditSequence(in, []string{"sources-yolk"}, []string{"extra"})
	require.NoError(t, err)

	var doc settingsDoc
	require.NoError(t, yaml.Unmarshal(out, &doc))
	require.Equal(t, []string{"partition", "extra", "umount"}, doc.exec())
	require.Equal(t, []string{"welcome"}, doc.Sequence[0]["show"])
}

func TestReadModuleDescMissing(t *testing.T) {
	_, err := ReadModuleDesc(filepath.Join(t.TempDir(), "module.desc"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewBranding(t *testing.T) {
	c := New(Krill, bookworm(), config.Remix{Branding: "eggs", Name: "egg-of-debian", Fullname: "debian bookworm"})
	b := c.NewBranding(time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC))
	require.Equal(t, "eggs", b.ComponentName)
	require.Equal(t, "12", b.Strings.ShortVersion)
	require.Equal(t, "12 (2024-05-01_1030)", b.Strings.Version)
}
