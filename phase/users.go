package phase

import (
	"fmt"

	"github.com/k0sproject/rig/exec"
	"github.com/penguins-eggs/eggs/pkg/users"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

// userPhase runs only when the installer has to create the users
type userPhase struct {
	GenericPhase
}

// ShouldRun is false when a luks backup brings its own users
func (p *userPhase) ShouldRun() bool {
	return p.manager.createsUsers()
}

func (p *userPhase) liveUser() string {
	if p.manager.Settings != nil && p.manager.Settings.UserOpt != "" {
		return p.manager.Settings.UserOpt
	}
	return "live"
}

// targetHasUser is true when the installed passwd lists login
func (p *userPhase) targetHasUser(login string) bool {
	list, err := users.Load(p.target(users.PasswdPath))
	if err != nil {
		log.Debugf("read target passwd: %s", err)
		return false
	}
	return lo.ContainsBy(list, func(u users.User) bool { return u.Login == login })
}

// DelLiveUser removes the live user from the installed system
type DelLiveUser struct {
	userPhase
}

// Title for the phase
func (p *DelLiveUser) Title() string {
	return "Removing live user"
}

// Percent of the installation done when the phase starts
func (p *DelLiveUser) Percent() int {
	return 70
}

// ShouldRun is true when the live user exists and is not the user being created
func (p *DelLiveUser) ShouldRun() bool {
	live := p.liveUser()
	return p.userPhase.ShouldRun() && live != p.manager.Installation.Users.Name && p.targetHasUser(live)
}

// Run the phase
func (p *DelLiveUser) Run() error {
	return p.chrootf("userdel -r -f %s", quote(p.liveUser()))
}

// AddUser creates the user of the installed system
type AddUser struct {
	userPhase
}

// Title for the phase
func (p *AddUser) Title() string {
	return "Adding user"
}

// Percent of the installation done when the phase starts
func (p *AddUser) Percent() int {
	return 73
}

// Run the phase
func (p *AddUser) Run() error {
	u := p.manager.Installation.Users
	p.SetProp("user", u.Name)

	if !p.targetHasUser(u.Name) {
		if err := p.chrootf("useradd -m -s /bin/bash -c %s %s", quote(u.Fullname), quote(u.Name)); err != nil {
			return err
		}
	}
	if err := p.setPassword(u.Name, u.Password); err != nil {
		return err
	}
	return p.chrootf("usermod -aG %s %s", p.manager.Configurer.AdminGroup(), quote(u.Name))
}

// setPassword feeds the password to chpasswd on stdin
func (p *GenericPhase) setPassword(login, password string) error {
	err := p.chroot("chpasswd", exec.Stdin(fmt.Sprintf("%s:%s\n", login, password)), exec.RedactString(password))
	if err != nil {
		return fmt.Errorf("set password of %s: %w", login, err)
	}
	return nil
}

// RootPassword sets the root password of the installed system
type RootPassword struct {
	userPhase
}

// Title for the phase
func (p *RootPassword) Title() string {
	return "Setting root password"
}

// Percent of the installation done when the phase starts
func (p *RootPassword) Percent() int {
	return 77
}

// Run the phase
func (p *RootPassword) Run() error {
	return p.setPassword("root", p.manager.Installation.Users.RootPassword)
}
