package phase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/k0sproject/rig/exec"
	"github.com/penguins-eggs/eggs/config"
	"github.com/penguins-eggs/eggs/pkg/incubator"
	"github.com/penguins-eggs/eggs/pkg/retry"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

// noBind are the top level dirs recreated empty in the live file system
var noBind = []string{"cdrom", "dev", "home", "live", "lost+found", "media", "mnt", "proc", "run", "sys", "swapfile", "tmp"}

// copied are the top level dirs the live file system gets a writable copy of
var copied = []string{"boot", "etc", "var"}

// BindLiveFs builds the live file system in the merged dir, binding / read only
// and copying the dirs that get edited
type BindLiveFs struct {
	GenericPhase
}

// Title for the phase
func (p *BindLiveFs) Title() string {
	return "Binding live file system"
}

// Critical stops the build, a half bound file system can't be squashed
func (p *BindLiveFs) Critical() bool {
	return true
}

// BindCommands returns the commands building the live file system in merged from
// the top level entries of /, and the commands undoing them
func BindCommands(entries []os.DirEntry, merged string, backup bool) (bind, ubind []string) {
	for _, e := range entries {
		name := e.Name()
		src := "/" + name
		dest := quote(filepath.Join(merged, name))

		var undo []string
		switch {
		case e.Type()&os.ModeSymlink != 0:
			bind = append(bind, fmt.Sprintf("cp -a %s %s", quote(src), quote(merged+"/")))
			undo = []string{"rm -f " + dest}
		case !e.IsDir():
			continue
		case name == "home" && backup, !lo.Contains(noBind, name) && !lo.Contains(copied, name):
			bind = append(bind, "mkdir -p "+dest)
			bind = append(bind, bindRO(src, dest)...)
			undo = []string{"umount " + dest, "rmdir " + dest}
		case lo.Contains(copied, name):
			bind = append(bind, "mkdir -p "+dest, fmt.Sprintf("rsync -aq %s %s", quote(src), quote(merged+"/")))
			undo = []string{"rm -rf " + dest}
		default:
			bind = append(bind, "mkdir -p "+dest)
			undo = []string{"rm -rf " + dest}
		}
		// undone in reverse order
		ubind = append(undo, ubind...)
	}
	return bind, ubind
}

func bindRO(src, dest string) []string {
	return []string{
		fmt.Sprintf("mount --bind --make-slave %s %s", quote(src), dest),
		fmt.Sprintf("mount -o remount,bind,ro %s", dest),
	}
}

// Run the phase
func (p *BindLiveFs) Run() error {
	ov := p.manager.Ovary
	merged := p.manager.Settings.Work.Merged

	entries, err := os.ReadDir(p.hostPath("/"))
	if err != nil {
		return err
	}
	ov.bind, ov.ubind = BindCommands(entries, merged, ov.Backup)

	for _, cmd := range ov.bind {
		if err := p.manager.Host.Exec(cmd); err != nil {
			return err
		}
	}
	p.SetProp("commands", len(ov.bind))
	return nil
}

// EditLiveFs turns the copy of the system into a live system
type EditLiveFs struct {
	GenericPhase
}

// Title for the phase
func (p *EditLiveFs) Title() string {
	return "Editing live file system"
}

// merged returns a path in the live file system
func (p *EditLiveFs) merged(path string) string {
	return filepath.Join(p.manager.Settings.Work.Merged, path)
}

func (p *EditLiveFs) write(path, content string, perm os.FileMode) error {
	full := p.merged(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, []byte(content), perm)
}

// LiveFstab is the fstab of the live session
const LiveFstab = "# live session, the root is assembled by the initramfs\noverlay / overlay rw 0 0\ntmpfs /tmp tmpfs nosuid,nodev 0 0\n"

// Run the phase
func (p *EditLiveFs) Run() error {
	s := p.manager.Settings
	ov := p.manager.Ovary

	if err := p.write("/etc/machine-id", "", 0o444); err != nil {
		return err
	}
	for _, f := range []string{"/var/lib/dbus/machine-id", "/etc/crypttab"} {
		if err := os.Remove(p.merged(f)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	if err := p.write("/etc/hostname", s.SnapshotBasename+"\n", 0o644); err != nil {
		return err
	}
	if err := p.write("/etc/hosts", HostsFile(s.SnapshotBasename, config.Network{}), 0o644); err != nil {
		return err
	}
	if err := p.write("/etc/fstab", LiveFstab, 0o644); err != nil {
		return err
	}
	if p.exists(p.merged("/etc/initramfs-tools")) {
		if err := p.write("/etc/initramfs-tools/conf.d/resume", "RESUME=none\n", 0o644); err != nil {
			return err
		}
	}

	if !ov.Backup {
		if err := p.liveUser(); err != nil {
			return err
		}
	}

	msg := fmt.Sprintf("You are in a live session, user: %s password: %s, root password: %s", s.UserOpt, s.UserOptPasswd, s.RootPasswd)
	for _, f := range []string{"/etc/motd", "/etc/issue"} {
		content, _ := os.ReadFile(p.merged(f))
		if err := p.write(f, AddMessage(string(content), msg), 0o644); err != nil {
			return err
		}
	}

	return p.addons()
}

// liveUser creates the live user on families without live-config and sets the
// passwords
func (p *EditLiveFs) liveUser() error {
	s := p.manager.Settings
	merged := quote(p.manager.Settings.Work.Merged)
	c := p.manager.Configurer

	if !p.manager.Distro.IsDebianFamily() {
		cmd := fmt.Sprintf("chroot %s useradd -m -s /bin/bash -G %s %s", merged, c.AdminGroup(), quote(s.UserOpt))
		if err := p.manager.Host.Exec(cmd); err != nil {
			return err
		}
	}

	pw := fmt.Sprintf("%s:%s\nroot:%s\n", s.UserOpt, s.UserOptPasswd, s.RootPasswd)
	if p.manager.Distro.IsDebianFamily() {
		pw = fmt.Sprintf("root:%s\n", s.RootPasswd)
	}
	opts := []exec.Option{exec.Stdin(pw), exec.RedactString(s.UserOptPasswd, s.RootPasswd)}
	if err := p.manager.Host.Exec(fmt.Sprintf("chroot %s chpasswd", merged), opts...); err != nil {
		return fmt.Errorf("live passwords: %w", err)
	}

	if c.IsSystemd(p.manager.Host) {
		override := fmt.Sprintf("[Service]\nExecStart=\nExecStart=-/sbin/agetty --autologin %s --noclear %%I $TERM\n", s.UserOpt)
		return p.write(GettyOverride, override, 0o644)
	}
	return nil
}

// addons copies the launchers of the selected addons into the live system
func (p *EditLiveFs) addons() error {
	for _, addon := range p.manager.Ovary.Addons {
		dir := p.hostPath(filepath.Join(incubator.AddonsDir, "eggs", addon, "applications"))
		files, err := filepath.Glob(filepath.Join(dir, "*.desktop"))
		if err != nil {
			return err
		}
		if len(files) == 0 {
			log.Warnf("addon %s has no launcher", addon)
			continue
		}
		for _, f := range files {
			data, err := os.ReadFile(f)
			if err != nil {
				return err
			}
			if err := p.write("/usr/share/applications/"+filepath.Base(f), string(data), 0o644); err != nil {
				return err
			}
		}
		log.Infof("addon %s added", addon)
	}
	return nil
}

// UnbindLiveFs undoes the live file system bindings, in script mode it writes the
// bind and ubind scripts instead
type UnbindLiveFs struct {
	GenericPhase
}

// Title for the phase
func (p *UnbindLiveFs) Title() string {
	return "Cleaning up"
}

// ShouldRun is true when something was bound
func (p *UnbindLiveFs) ShouldRun() bool {
	return len(p.manager.Ovary.bind) > 0
}

// Run the phase
func (p *UnbindLiveFs) Run() error {
	ov := p.manager.Ovary
	if ov.Script {
		ovarium := p.manager.Settings.Work.Ovarium
		if err := writeScript(filepath.Join(ovarium, "bind"), ov.bind); err != nil {
			return err
		}
		return writeScript(filepath.Join(ovarium, "ubind"), ov.ubind)
	}

	var failed []string
	for _, cmd := range ov.ubind {
		if strings.HasPrefix(cmd, "umount ") {
			err := retry.Times(context.Background(), 3, func(_ context.Context) error {
				return p.manager.Host.Exec(cmd)
			})
			if err != nil {
				failed = append(failed, strings.TrimPrefix(cmd, "umount "))
				// never remove what is still bound
				break
			}
			continue
		}
		if err := p.manager.Host.Exec(cmd); err != nil {
			log.Warnf("%s: %s", cmd, err)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("failed to unmount %s", strings.Join(failed, ", "))
	}
	ov.bind = nil
	return nil
}
