package config

import (
	"path/filepath"
	"strings"
)

// Remix holds the names shown in the boot menus and in the installer branding
type Remix struct {
	Branding    string
	Name        string
	Fullname    string
	VersionName string
	Kernel      string
}

// NewRemix derives the remix names from the settings
func NewRemix(s *Settings) Remix {
	r := Remix{
		Branding: "eggs",
		Name:     s.SnapshotBasename,
		Kernel:   s.KernelImage,
	}
	if s.Theme != "" {
		r.Branding = filepath.Base(strings.TrimSuffix(s.Theme, "/"))
	}
	r.Fullname = strings.ReplaceAll(s.SnapshotPrefix+s.SnapshotBasename, "-", " ")
	r.Fullname = strings.ReplaceAll(r.Fullname, "egg of ", "")
	r.VersionName = strings.ToUpper(r.Fullname)
	return r
}
