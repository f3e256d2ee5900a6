// Package efi builds the FAT image that makes the ISO bootable on UEFI machines
package efi

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/alessio/shellescape"
	"github.com/diskfs/go-diskfs/backend/file"
	"github.com/diskfs/go-diskfs/filesystem/fat32"
)

// ImageSize is the size of efi.img. FAT32 needs a bit over 32MiB with 512 byte
// sectors.
const ImageSize = 64 << 20

// Entry is a file to put in the image. Either Source, a path on the local
// filesystem, or Data is used.
type Entry struct {
	Path   string
	Source string
	Data   []byte
}

func (e Entry) open() (io.ReadCloser, error) {
	if e.Source == "" {
		return io.NopCloser(bytes.NewReader(e.Data)), nil
	}
	return os.Open(e.Source)
}

// BuildImage creates a FAT32 image at imgPath holding the entries
func BuildImage(imgPath string, entries ...Entry) error {
	if err := os.Remove(imgPath); err != nil && !os.IsNotExist(err) {
		return err
	}

	b, err := file.CreateFromPath(imgPath, ImageSize)
	if err != nil {
		return fmt.Errorf("create %s: %w", imgPath, err)
	}
	defer b.Close()

	fs, err := fat32.Create(b, ImageSize, 0, 0, "efi")
	if err != nil {
		return fmt.Errorf("format %s: %w", imgPath, err)
	}

	made := map[string]bool{"/": true}
	for _, e := range entries {
		dir := path.Dir(e.Path)
		if !made[dir] {
			if err := fs.Mkdir(dir); err != nil {
				return fmt.Errorf("mkdir %s: %w", dir, err)
			}
			made[dir] = true
		}
		if err := copyEntry(fs, e); err != nil {
			return fmt.Errorf("write %s: %w", e.Path, err)
		}
	}

	return nil
}

func copyEntry(fs *fat32.FileSystem, e Entry) error {
	in, err := e.open()
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := fs.OpenFile(e.Path, os.O_RDWR|os.O_TRUNC|os.O_CREATE)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// GrubConfig is the configuration embedded in the standalone EFI binary. It finds
// the ISO by its disk id and hands over to the grub.cfg on the ISO.
func GrubConfig(diskID string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "search --file --set=root /.disk/id/%s\n", diskID)
	b.WriteString("set prefix=($root)/boot/grub\n")
	b.WriteString("configfile ($root)/boot/grub/grub.cfg\n")
	return b.String()
}

// MkstandaloneCmd returns the grub-mkstandalone command producing bootx64.efi
// with cfgPath embedded as its grub.cfg
func MkstandaloneCmd(output, cfgPath string) string {
	return fmt.Sprintf(
		"grub-mkstandalone --format=x86_64-efi --output=%s --locales= --fonts= %s",
		shellescape.Quote(output),
		shellescape.Quote("boot/grub/grub.cfg="+cfgPath),
	)
}
