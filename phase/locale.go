package phase

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// Locale generates the locales and sets the time zone of the installed system
type Locale struct {
	GenericPhase
}

// Title for the phase
func (p *Locale) Title() string {
	return "Setting locale"
}

// Percent of the installation done when the phase starts
func (p *Locale) Percent() int {
	return 47
}

// LocaleGenLine returns the locale.gen entry of a locale, en_US.UTF-8 becomes
// "en_US.UTF-8 UTF-8"
func LocaleGenLine(locale string) string {
	if _, charset, ok := strings.Cut(locale, "."); ok {
		return locale + " " + charset
	}
	return locale + " ISO-8859-1"
}

func (p *Locale) locales() []string {
	locales := []string{p.manager.Installation.Location.Language}
	if p.manager.Settings != nil {
		locales = append(locales, p.manager.Settings.Locales...)
	}
	return lo.Uniq(lo.Compact(locales))
}

// Run the phase
func (p *Locale) Run() error {
	var b strings.Builder
	b.WriteString("# generated by the eggs installer, run locale-gen after editing\n")
	for _, l := range p.locales() {
		b.WriteString(LocaleGenLine(l) + "\n")
	}
	if err := p.writeTarget("/etc/locale.gen", b.String(), 0o644); err != nil {
		return err
	}
	if p.exists(p.target("/usr/sbin/locale-gen")) || p.exists(p.target("/usr/bin/locale-gen")) {
		if err := p.chroot("locale-gen"); err != nil {
			return err
		}
	}

	tz := p.manager.Installation.Location.Timezone()
	localtime := p.target("/etc/localtime")
	if err := os.MkdirAll(filepath.Dir(localtime), 0o755); err != nil {
		return err
	}
	if err := os.Remove(localtime); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.Symlink("/usr/share/zoneinfo/"+tz, localtime); err != nil {
		return fmt.Errorf("link localtime: %w", err)
	}
	p.SetProp("timezone", tz)
	return p.writeTarget("/etc/timezone", tz+"\n", 0o644)
}

// LocaleCfg writes the default language of the installed system
type LocaleCfg struct {
	GenericPhase
}

// Title for the phase
func (p *LocaleCfg) Title() string {
	return "Configuring locale"
}

// Percent of the installation done when the phase starts
func (p *LocaleCfg) Percent() int {
	return 50
}

// Run the phase
func (p *LocaleCfg) Run() error {
	content := fmt.Sprintf("LANG=%s\n", p.manager.Installation.Location.Language)
	for _, f := range p.manager.Configurer.LocaleFiles() {
		if err := p.writeTarget(f, content, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// Keyboard sets the keyboard layout of the installed system
type Keyboard struct {
	GenericPhase
}

// Title for the phase
func (p *Keyboard) Title() string {
	return "Setting keyboard"
}

// Percent of the installation done when the phase starts
func (p *Keyboard) Percent() int {
	return 48
}

// Run the phase
func (p *Keyboard) Run() error {
	kb := p.manager.Installation.Keyboard
	systemd := p.manager.Configurer.IsSystemd(p.manager.Host)

	if systemd {
		if err := p.chrootf("localectl set-keymap %s", quote(kb.Layout)); err != nil {
			return err
		}
	} else if err := p.chroot("setupcon"); err != nil {
		return err
	}

	if !systemd {
		return nil
	}

	keyboard := fmt.Sprintf(`# KEYBOARD CONFIGURATION FILE

# Consult the keyboard(5) manual page.

XKBMODEL="%s"
XKBLAYOUT="%s"
XKBVARIANT="%s"
XKBOPTIONS="%s"

BACKSPACE="guess"
`, kb.Model, kb.Layout, kb.Variant, kb.Option)
	if err := p.writeTarget("/etc/default/keyboard", keyboard, 0o644); err != nil {
		return err
	}

	vconsole := fmt.Sprintf("KEYMAP=\"%s\"\nFONT=\nFONT_MAP=\n", kb.Layout)
	if err := p.writeTarget("/etc/vconsole.conf", vconsole, 0o644); err != nil {
		return err
	}

	xorg := fmt.Sprintf(`# Read and parsed by systemd-localed.
Section "InputClass"
        Identifier "system-keyboard"
        MatchIsKeyboard "on"
        Option "XkbLayout" "%s"
        Option "XkbModel" "%s"
EndSection
`, kb.Layout, kb.Model)
	return p.writeTarget("/etc/X11/xorg.conf.d/00-keyboard.conf", xorg, 0o644)
}
