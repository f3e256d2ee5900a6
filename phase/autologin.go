package phase

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/penguins-eggs/eggs/configurer"
	log "github.com/sirupsen/logrus"
)

// Markers around the messages eggs adds to motd and issue on the live system
const (
	MessageStart = "# eggs-message-start"
	MessageEnd   = "# eggs-message-end"
)

// GettyOverride is the systemd drop-in giving the live user an autologin console
const GettyOverride = "/etc/systemd/system/getty@.service.d/override.conf"

// AddMessage appends msg between the eggs markers, replacing a previous one
func AddMessage(content, msg string) string {
	content = RemoveMessage(content)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + MessageStart + "\n" + strings.TrimSuffix(msg, "\n") + "\n" + MessageEnd + "\n"
}

// RemoveMessage removes the lines between the eggs markers
func RemoveMessage(content string) string {
	start := strings.Index(content, MessageStart)
	if start < 0 {
		return content
	}
	end := strings.Index(content[start:], MessageEnd)
	if end < 0 {
		return content[:start]
	}
	end += start + len(MessageEnd)
	if end < len(content) && content[end] == '\n' {
		end++
	}
	return content[:start] + content[end:]
}

// editTarget rewrites a file below the target, it returns false when the file
// does not exist
func (p *GenericPhase) editTarget(path string, edit func(string) string) (bool, error) {
	content, err := p.readTarget(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	fi, err := os.Stat(p.target(path))
	if err != nil {
		return false, err
	}
	return true, p.writeTarget(path, edit(content), fi.Mode().Perm())
}

// Autologin moves the autologin of the live user to the new user
type Autologin struct {
	GenericPhase

	gui bool
}

// Title for the phase
func (p *Autologin) Title() string {
	return "Configuring autologin"
}

// Percent of the installation done when the phase starts
func (p *Autologin) Percent() int {
	return 80
}

// Prepare checks for a graphical system
func (p *Autologin) Prepare(m *Manager) error {
	p.manager = m
	p.gui = configurer.IsInstalledGui(m.Configurer, m.Host)
	return nil
}

func (p *Autologin) liveUser() string {
	if p.manager.Settings != nil && p.manager.Settings.UserOpt != "" {
		return p.manager.Settings.UserOpt
	}
	return "live"
}

// Run the phase
func (p *Autologin) Run() error {
	if !p.gui {
		p.SetProp("mode", "cli")
		return p.removeConsoleAutologin()
	}
	p.SetProp("mode", "gui")

	c := p.manager.Configurer
	for _, dm := range c.DisplayManagers() {
		if !c.PackageIsInstalled(p.manager.Host, dm) {
			continue
		}
		log.Debugf("autologin: configuring %s", dm)
		if err := p.displayManager(dm); err != nil {
			return fmt.Errorf("%s: %w", dm, err)
		}
	}
	return nil
}

func (p *Autologin) displayManager(dm string) error {
	old := p.liveUser()
	u := p.manager.Installation.Users
	user := u.Name
	if !u.Autologin {
		user = ""
	}

	switch dm {
	case "slim":
		_, err := p.editTarget("/etc/slim.conf", func(s string) string {
			if u.Autologin {
				s = strings.ReplaceAll(s, "auto_login no", "auto_login yes")
			} else {
				s = strings.ReplaceAll(s, "auto_login yes", "auto_login no")
			}
			return replaceValue(s, `default_user[ \t]+`+regexp.QuoteMeta(old), "default_user "+u.Name)
		})
		return err
	case "lightdm":
		edit := func(s string) string {
			return replaceValue(s, `autologin-user=`+regexp.QuoteMeta(old), "autologin-user="+user)
		}
		found, err := p.editTarget("/etc/lightdm/lightdm.conf.d/lightdm-autologin-greeter.conf", edit)
		if err != nil || found {
			return err
		}
		_, err = p.editTarget("/etc/lightdm/lightdm.conf", edit)
		return err
	case "sddm":
		edit := func(s string) string {
			return replaceValue(s, `User=`+regexp.QuoteMeta(old), "User="+user)
		}
		if content, err := p.readTarget("/etc/sddm.conf"); err == nil && strings.Contains(content, "[Autologin]") {
			_, err := p.editTarget("/etc/sddm.conf", edit)
			return err
		}
		found, err := p.editTarget("/etc/sddm.conf.d/autologin.conf", edit)
		if err != nil || found {
			return err
		}
		return p.writeTarget("/etc/sddm.conf.d/autologin.conf", fmt.Sprintf("[Autologin]\nUser=%s\n", user), 0o644)
	case "gdm", "gdm3":
		dir := "/etc/" + dm
		conf := dir + "/custom.conf"
		if p.exists(p.target(dir + "/daemon.conf")) {
			conf = dir + "/daemon.conf"
		}
		content := fmt.Sprintf("[daemon]\nAutomaticLoginEnable=%t\nAutomaticLogin=%s\n", u.Autologin, user)
		return p.writeTarget(conf, content, 0o644)
	}
	return nil
}

func replaceValue(content, pattern, value string) string {
	re := regexp.MustCompile(`(?m)^[ \t]*` + pattern + `[ \t]*$`)
	return re.ReplaceAllLiteralString(content, value)
}

var autologinArg = regexp.MustCompile(`\s--autologin\s+\S+`)

// removeConsoleAutologin drops the live user autologin on the consoles
func (p *Autologin) removeConsoleAutologin() error {
	if err := os.Remove(p.target(GettyOverride)); err != nil && !os.IsNotExist(err) {
		return err
	}
	_, err := p.editTarget("/etc/inittab", func(s string) string {
		return autologinArg.ReplaceAllString(s, "")
	})
	return err
}

// CleanMessages removes the live session messages from motd and issue
type CleanMessages struct {
	GenericPhase
}

// Title for the phase
func (p *CleanMessages) Title() string {
	return "Cleaning motd and issue"
}

// Run the phase
func (p *CleanMessages) Run() error {
	for _, f := range []string{"/etc/motd", "/etc/issue"} {
		if _, err := p.editTarget(f, RemoveMessage); err != nil {
			return err
		}
	}
	return nil
}
