package cache

import (
	"os"
	"path"
)

// Dir returns the directory where eggs keeps its log and transient files. Running
// without root privileges falls back to a per-user directory.
func Dir() string {
	if os.Geteuid() == 0 {
		return "/var/cache/penguins-eggs"
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return path.Join(dir, "penguins-eggs")
	}
	return path.Join(os.TempDir(), "penguins-eggs")
}
