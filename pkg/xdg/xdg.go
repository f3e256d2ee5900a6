// Package xdg resolves home and XDG user directories, possibly for users other
// than the current one
package xdg

import (
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/penguins-eggs/eggs/internal/shell"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var title = cases.Title(language.Und)

// Home returns the home directory of the current user
func Home() string {
	return xdg.Home
}

// Capitalize turns DESKTOP into Desktop
func Capitalize(key string) string {
	return title.String(strings.ToLower(key))
}

// UserDir returns the folder name of an XDG user dir key (DESKTOP, DOCUMENTS,
// DOWNLOAD, ...) for the user owning home. Without translation, or when the user
// has no user-dirs.dirs, the capitalized key is returned.
func UserDir(home, key string, translate bool) string {
	key = strings.ToUpper(key)
	if !translate {
		return Capitalize(key)
	}

	if filepath.Clean(home) == filepath.Clean(xdg.Home) {
		if dir := currentUserDir(key); dir != "" {
			return filepath.Base(dir)
		}
	}

	env, err := shell.ParseEnvFile(filepath.Join(home, ".config", "user-dirs.dirs"))
	if err != nil {
		return Capitalize(key)
	}
	v, ok := env["XDG_"+key+"_DIR"]
	if !ok || v == "" {
		return Capitalize(key)
	}
	v = strings.TrimPrefix(v, "$HOME/")
	v = strings.TrimPrefix(v, home+"/")
	return v
}

func currentUserDir(key string) string {
	switch key {
	case "DESKTOP":
		return xdg.UserDirs.Desktop
	case "DOCUMENTS":
		return xdg.UserDirs.Documents
	case "DOWNLOAD":
		return xdg.UserDirs.Download
	case "MUSIC":
		return xdg.UserDirs.Music
	case "PICTURES":
		return xdg.UserDirs.Pictures
	case "VIDEOS":
		return xdg.UserDirs.Videos
	case "TEMPLATES":
		return xdg.UserDirs.Templates
	case "PUBLICSHARE":
		return xdg.UserDirs.PublicShare
	}
	return ""
}
