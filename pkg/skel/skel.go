// Package skel rebuilds /etc/skel from the home of a user, so that the live user
// and the users created by the installer get the same desktop configuration
package skel

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alessio/shellescape"
	rigos "github.com/k0sproject/rig/os"
	"github.com/penguins-eggs/eggs/configurer"
	"github.com/penguins-eggs/eggs/pkg/users"
	"github.com/penguins-eggs/eggs/pkg/xdg"
	log "github.com/sirupsen/logrus"
)

// Dir is the skeleton copied into new homes
const Dir = "/etc/skel"

// Dotfiles are always copied
var Dotfiles = []string{".bash_logout", ".bashrc", ".profile"}

// Desktop is a desktop environment, recognized by its package
type Desktop struct {
	Name    string
	Package string
	Files   []string
}

// Desktops in detection order
var Desktops = []Desktop{
	{"gnome", "gnome-session", []string{".config", ".gtkrc-2.0"}},
	{"cinnamon", "cinnamon-core", []string{".config", ".cinnamon"}},
	{"plasma", "plasma-desktop", []string{".config", ".kde"}},
	{"lxde", "lxde-core", []string{".config", ".gtkrc-2.0"}},
	{"lxqt", "lxqt-core", []string{".config", ".gtkrc-2.0"}},
	{"mate", "mate-session-manager", []string{".config", ".gtkrc-2.0"}},
	{"xfce", "xfce4-session", []string{".config/xfce4", ".local/share/recently-used.xbel"}},
}

// DetectDesktop returns the first desktop whose package is installed
func DetectDesktop(h rigos.Host, c configurer.Configurer) (Desktop, bool) {
	for _, d := range Desktops {
		if c.PackageIsInstalled(h, d.Package) {
			return d, true
		}
	}
	return Desktop{}, false
}

// User returns the user whose home is copied: login, then SUDO_USER, then the
// first user with uid 1000
func User(passwd, login string) (users.User, error) {
	list, err := users.Load(passwd)
	if err != nil {
		return users.User{}, err
	}
	if login == "" {
		login = os.Getenv("SUDO_USER")
	}
	if login == "root" {
		login = ""
	}
	u, ok := users.Primary(list, login)
	if !ok {
		if login == "" {
			return u, fmt.Errorf("no user with uid 1000, use --user")
		}
		return u, fmt.Errorf("user %s not found", login)
	}
	return u, nil
}

// Skel rebuilds /etc/skel
type Skel struct {
	Host       rigos.Host
	Configurer configurer.Configurer
	// Root prefixes the paths checked on the local file system
	Root string
	// Translate uses the localized name of the Desktop folder
	Translate bool
}

func (s *Skel) exists(path string) bool {
	_, err := os.Stat(filepath.Join(s.Root, path))
	return err == nil
}

// Run replaces /etc/skel with the configuration found in home
func (s *Skel) Run(home string) error {
	if !s.exists(home) {
		return fmt.Errorf("home %s does not exist", home)
	}
	q := shellescape.Quote

	cmds := []string{"rm -rf " + Dir, "mkdir -p " + Dir}
	for _, f := range Dotfiles {
		if s.exists(filepath.Join(home, f)) {
			cmds = append(cmds, fmt.Sprintf("cp %s %s/", q(filepath.Join(home, f)), Dir))
		}
	}

	if d, ok := DetectDesktop(s.Host, s.Configurer); ok {
		log.Infof("desktop %s detected", d.Name)
		for _, f := range d.Files {
			if !s.exists(filepath.Join(home, f)) {
				continue
			}
			dest := filepath.Dir(filepath.Join(Dir, f))
			cmds = append(cmds,
				"mkdir -p "+q(dest),
				fmt.Sprintf("rsync -avx %s %s/", q(filepath.Join(home, f)), q(dest)),
			)
		}
	} else {
		log.Warnf("no known desktop installed, only the shell dotfiles are copied")
	}

	desktop := xdg.UserDir(filepath.Join(s.Root, home), "DESKTOP", s.Translate)
	cmds = append(cmds,
		"mkdir -p "+q(filepath.Join(Dir, desktop)),
		"chown -R root:root "+Dir,
		"chmod -R a+rwx,g-w,o-w "+Dir,
	)
	for _, f := range Dotfiles {
		if s.exists(filepath.Join(home, f)) {
			cmds = append(cmds, fmt.Sprintf("chmod a+rwx,g-w-x,o-wx %s/%s", Dir, f))
		}
	}

	for _, cmd := range cmds {
		if err := s.Host.Exec(cmd); err != nil {
			return err
		}
	}
	log.Infof("%s rebuilt from %s", Dir, home)
	return nil
}
