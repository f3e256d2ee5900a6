package efi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildImage(t *testing.T) {
	dir := t.TempDir()
	loader := filepath.Join(dir, "bootx64.efi")
	require.NoError(t, os.WriteFile(loader, []byte("MZ fake efi binary"), 0o644))

	img := filepath.Join(dir, "efi.img")
	require.NoError(t, BuildImage(img,
		Entry{Path: "/EFI/BOOT/bootx64.efi", Source: loader},
		Entry{Path: "/EFI/BOOT/grub.cfg", Data: []byte(GrubConfig("1234"))},
	))

	fi, err := os.Stat(img)
	require.NoError(t, err)
	require.Equal(t, int64(ImageSize), fi.Size())
}

func TestBuildImageMissingSource(t *testing.T) {
	dir := t.TempDir()
	err := BuildImage(filepath.Join(dir, "efi.img"), Entry{Path: "/EFI/BOOT/bootx64.efi", Source: filepath.Join(dir, "missing")})
	require.Error(t, err)
}

func TestGrubConfig(t *testing.T) {
	cfg := GrubConfig("0b6f0e4c-0a64-4c39-a1a3-7f0e3f5b2b59")
	require.Contains(t, cfg, "search --file --set=root /.disk/id/0b6f0e4c-0a64-4c39-a1a3-7f0e3f5b2b59\n")
	require.Contains(t, cfg, "configfile ($root)/boot/grub/grub.cfg")
}

func TestMkstandaloneCmd(t *testing.T) {
	require.Equal(t,
		"grub-mkstandalone --format=x86_64-efi --output=/home/eggs/mnt/efi-work/bootx64.efi --locales= --fonts= boot/grub/grub.cfg=/home/eggs/mnt/efi-work/grub.cfg",
		MkstandaloneCmd("/home/eggs/mnt/efi-work/bootx64.efi", "/home/eggs/mnt/efi-work/grub.cfg"),
	)
}
