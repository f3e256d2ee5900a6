package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/penguins-eggs/eggs/pkg/distro"
	"github.com/stretchr/testify/require"
)

func TestParseSettingsDefaults(t *testing.T) {
	s, err := ParseSettings([]byte("snapshot_prefix: egg-of-\n"))
	require.NoError(t, err)
	require.Equal(t, "/home/eggs/", s.SnapshotDir)
	require.Equal(t, "live", s.UserOpt)
	require.Equal(t, "xz", s.Compression)
	require.True(t, s.MakeEFI)
	require.NoError(t, s.Validate())
}

func TestParseSettingsExplicitFalse(t *testing.T) {
	s, err := ParseSettings([]byte("make_efi: false\nmake_isohybrid: false\n"))
	require.NoError(t, err)
	require.False(t, s.MakeEFI)
	require.False(t, s.MakeIsohybrid)
}

func TestParseSettingsEnvsubst(t *testing.T) {
	t.Setenv("EGGS_SNAPSHOT_DIR", "/mnt/eggs")
	s, err := ParseSettings([]byte("snapshot_dir: ${EGGS_SNAPSHOT_DIR}\n"))
	require.NoError(t, err)
	s.Derive("host")
	require.Equal(t, "/mnt/eggs/", s.SnapshotDir)
	require.Equal(t, "/mnt/eggs/mnt/", s.SnapshotMnt)
	require.Equal(t, "host", s.SnapshotBasename)
	require.Equal(t, "/mnt/eggs/ovarium/", s.Work.Ovarium)
	require.Equal(t, "/mnt/eggs/.overlay/upperdir", s.Work.UpperDir)
	require.Equal(t, "/mnt/eggs/mnt/filesystem.squashfs", s.Work.Merged)
	require.Equal(t, "/mnt/eggs/mnt/iso/", s.Work.ISO)
}

func TestSettingsValidation(t *testing.T) {
	s := NewSettings()
	s.Compression = "bzip2"
	require.Error(t, s.Validate())
	s.Compression = "zstd -Xcompression-level 1"
	require.NoError(t, s.Validate())
	s.UserOpt = ""
	require.Error(t, s.Validate())
}

func TestLoadSettings(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadSettings(filepath.Join(dir, "eggs.yaml"), "host")
	require.ErrorIs(t, err, ErrNotFound)
	require.Contains(t, err.Error(), "eggs config")

	TimezonePath = filepath.Join(dir, "timezone")
	t.Cleanup(func() { TimezonePath = "/etc/timezone" })
	require.NoError(t, os.WriteFile(TimezonePath, []byte("Europe/Rome\n"), 0o644))

	s := NewSettings()
	s.SnapshotBasename = "colibri"
	s.Vmlinuz = "/boot/vmlinuz-6.1.0-18-amd64"
	path := filepath.Join(dir, "eggs.yaml")
	require.NoError(t, s.Save(path))

	loaded, err := LoadSettings(path, "host")
	require.NoError(t, err)
	require.Equal(t, "colibri", loaded.SnapshotBasename)
	require.Equal(t, "Europe/Rome", loaded.Timezone)
	require.Equal(t, "vmlinuz-6.1.0-18-amd64", loaded.KernelImage)
}

func TestAdjustEFI(t *testing.T) {
	s := NewSettings()
	s.AdjustEFI(true)
	require.True(t, s.MakeEFI)
	s.AdjustEFI(false)
	require.False(t, s.MakeEFI)
}

func TestKernelPaths(t *testing.T) {
	v, i := KernelPaths(&distro.Distro{FamilyID: distro.FamilyDebian}, "6.1.0-18-amd64")
	require.Equal(t, "/boot/vmlinuz-6.1.0-18-amd64", v)
	require.Equal(t, "/boot/initrd.img-6.1.0-18-amd64", i)

	v, i = KernelPaths(&distro.Distro{FamilyID: distro.FamilyArchlinux, DistroID: "Arch"}, "6.9.1-arch1-1")
	require.Equal(t, "/boot/vmlinuz-linux", v)
	require.Equal(t, "/boot/initramfs-linux.img", i)

	v, i = KernelPaths(&distro.Distro{FamilyID: distro.FamilyArchlinux, DistroID: "ManjaroLinux"}, "6.6.30-2-MANJARO")
	require.Equal(t, "/boot/vmlinuz-linux66", v)
	require.Equal(t, "/boot/initramfs-linux66.img", i)

	s := NewSettings()
	s.SetKernel(&distro.Distro{FamilyID: distro.FamilyFedora}, "6.8.9-300.fc40.x86_64")
	require.Equal(t, "/boot/initramfs-6.8.9-300.fc40.x86_64.img", s.InitrdImg)
}

func TestRemix(t *testing.T) {
	s := NewSettings()
	s.SnapshotPrefix = "egg-of-debian-"
	s.SnapshotBasename = "bookworm"
	s.Theme = "/home/artisan/themes/waydroid/"
	r := NewRemix(s)
	require.Equal(t, "waydroid", r.Branding)
	require.Equal(t, "debian bookworm", r.Fullname)
	require.Equal(t, "DEBIAN BOOKWORM", r.VersionName)
	require.Equal(t, "bookworm", r.Name)
}

func TestListFreeSpace(t *testing.T) {
	s := NewSettings()
	s.SnapshotDir = t.TempDir()
	s.Derive("host")
	require.NoError(t, os.MkdirAll(s.SnapshotMnt, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(s.SnapshotMnt, "egg-of-host-amd64_2024-01-01_1200.iso"), make([]byte, 1024), 0o644))

	fs, err := s.ListFreeSpace()
	require.NoError(t, err)
	require.Equal(t, 1, fs.Snapshots)
	require.Equal(t, int64(1024), fs.SnapshotsSize)
	require.Greater(t, fs.Available, uint64(0))
	for _, d := range s.Work.All() {
		require.DirExists(t, d)
	}
}

func TestHumanBytes(t *testing.T) {
	require.Equal(t, "512 B", HumanBytes(512))
	require.Equal(t, "1.5 KiB", HumanBytes(1536))
	require.Equal(t, "3.0 GiB", HumanBytes(3<<30))
}
