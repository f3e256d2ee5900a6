package phase

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/penguins-eggs/eggs/config"
	"github.com/penguins-eggs/eggs/pkg/squashfs"
	"github.com/penguins-eggs/eggs/pkg/users"
)

// Addons can add launchers to the live system
var Addons = []string{"adapt", "ichoice", "pve", "rsupport"}

// Ovary holds the options and the state of an ISO build
type Ovary struct {
	Prefix   string
	Basename string
	// Backup keeps the user homes on the ISO
	Backup bool
	// Script writes the commands to scripts in the ovarium instead of running
	// the long ones
	Script      bool
	Yolk        bool
	Release     bool
	Compression squashfs.Options
	Theme       string
	Addons      []string

	Remix      config.Remix
	Arch       string
	Compressor string
	DiskID     string
	ISOName    string
	Saveable   []users.User
	UsersSize  int64

	// bind and ubind are the commands mounting and unmounting the live fs
	bind  []string
	ubind []string
}

// ISOName returns <prefix><basename>-<arch>_<YYYY-MM-DD_HHMM>.iso
func ISOName(prefix, basename, arch string, now time.Time) string {
	return fmt.Sprintf("%s%s-%s_%s.iso", prefix, basename, arch, now.Format("2006-01-02_1504"))
}

// VolumeID returns the ISO volume id, at most 32 characters
func VolumeID(basename string) string {
	id := strings.ToUpper(strings.NewReplacer(" ", "-", ".", "-").Replace(basename))
	if len(id) > 32 {
		id = id[:32]
	}
	return id
}

// writeScript writes the lines as an executable shell script
func writeScript(path string, lines []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	content := "#!/bin/sh\n# generated by eggs produce --script\n\n" + strings.Join(lines, "\n") + "\n"
	return os.WriteFile(path, []byte(content), 0o755)
}
