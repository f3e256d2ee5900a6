package incubator

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/penguins-eggs/eggs/config"
	"github.com/penguins-eggs/eggs/pkg/distro"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

//go:embed templates/*
var templates embed.FS

// AddonsDir holds the themes shipped with eggs
var AddonsDir = "/usr/lib/penguins-eggs/addons"

// ErrThemeNotFound is returned when calamares is the installer and the theme has no
// calamares branding
var ErrThemeNotFound = errors.New("theme not found")

// Incubator writes the installer configuration
type Incubator struct {
	Installer Installer
	Distro    *distro.Distro
	Remix     config.Remix
	// Theme is a theme name below AddonsDir or a path to a theme dir
	Theme   string
	UserOpt string
	Release bool
	// Clone is set for clone and backup ISOs, the users already exist
	Clone          bool
	Systemd        bool
	DisplayManager bool
	// Root prefixes every written path, empty on a real system
	Root string
}

// New returns an incubator for the installer
func New(installer string, d *distro.Distro, remix config.Remix) *Incubator {
	return &Incubator{
		Installer: NewInstaller(installer, d.UsrLibPath),
		Distro:    d,
		Remix:     remix,
		Theme:     remix.Branding,
		UserOpt:   "live",
	}
}

func (c *Incubator) path(p string) string {
	if c.Root == "" {
		return p
	}
	return filepath.Join(c.Root, p)
}

// ThemeDir returns the directory of the theme
func (c *Incubator) ThemeDir() string {
	return ThemePath(c.Theme)
}

// ThemePath resolves a theme name to its dir below AddonsDir, a path is used as is
func ThemePath(theme string) string {
	if strings.Contains(theme, "/") {
		return theme
	}
	return filepath.Join(AddonsDir, theme)
}

// Branding returns the branding name, the base name of the theme
func (c *Incubator) Branding() string {
	if c.Remix.Branding != "" {
		return c.Remix.Branding
	}
	return filepath.Base(strings.TrimSuffix(c.Theme, "/"))
}

func (c *Incubator) write(path string, data []byte, perm os.FileMode) error {
	full := c.path(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	log.Debugf("incubator: writing %s", path)
	return os.WriteFile(full, data, perm)
}

// Config writes the complete installer configuration
func (c *Incubator) Config() error {
	if err := c.createDirs(); err != nil {
		return err
	}
	if c.Installer.Name == Calamares {
		if err := c.copyTheme(); err != nil {
			return err
		}
	}

	mods := c.modules()
	if err := c.writeSettings(mods); err != nil {
		return err
	}
	for _, m := range mods {
		if err := c.writeModule(m); err != nil {
			return fmt.Errorf("module %s: %w", m.Name, err)
		}
	}
	if err := c.writeBranding(); err != nil {
		return err
	}

	log.Infof("%s configured for %s (%s modules)", c.Installer.Name, c.Distro, SetFor(c.Distro))
	return nil
}

func (c *Incubator) createDirs() error {
	if c.Installer.Name != Calamares {
		for _, dir := range []string{c.Installer.Configuration, c.Installer.Multiarch} {
			if err := os.RemoveAll(c.path(dir)); err != nil {
				return err
			}
		}
	}
	dirs := []string{
		c.Installer.Configuration,
		c.Installer.Configuration + "branding/" + c.Branding(),
		c.Installer.Configuration + "modules",
		c.Installer.MultiarchModules,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(c.path(dir), 0o755); err != nil {
			return err
		}
	}
	return nil
}

// copyTheme copies the calamares branding of the theme and its launcher
func (c *Incubator) copyTheme() error {
	src := filepath.Join(c.ThemeDir(), "theme", "calamares", "branding")
	if _, err := os.Stat(c.path(src)); err != nil {
		return fmt.Errorf("%w: %s", ErrThemeNotFound, src)
	}
	dest := c.Installer.Configuration + "branding/" + c.Branding()
	if err := c.copyTree(src, dest); err != nil {
		return err
	}

	extras := map[string]string{
		"theme/artwork/install-debian.png":          "/usr/share/icons/install-debian.png",
		"theme/applications/install-debian.desktop": "/usr/share/applications/install-debian.desktop",
	}
	for from, to := range extras {
		data, err := os.ReadFile(c.path(filepath.Join(c.ThemeDir(), from)))
		if err != nil {
			log.Warnf("theme %s: %s not found", c.Theme, from)
			continue
		}
		if err := c.write(to, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (c *Incubator) copyTree(src, dest string) error {
	fsys := os.DirFS(c.path(src))
	matches, err := doublestar.Glob(fsys, "**")
	if err != nil {
		return err
	}
	for _, m := range matches {
		if fi, err := fs.Stat(fsys, m); err != nil || fi.IsDir() {
			continue
		}
		data, err := fs.ReadFile(fsys, m)
		if err != nil {
			return err
		}
		if err := c.write(filepath.Join(dest, m), data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// writeModule writes the conf of a module or the descriptor and script of a job
func (c *Incubator) writeModule(m Module) error {
	if !m.IsJob() {
		data, err := yaml.Marshal(m.Conf)
		if err != nil {
			return err
		}
		return c.write(c.Installer.Configuration+"modules/"+m.Name+".conf", append([]byte("---\n"), data...), 0o644)
	}

	data, err := yaml.Marshal(m.Job)
	if err != nil {
		return err
	}
	if err := c.write(c.Installer.ModuleDescPath(m.Name), append([]byte("---\n"), data...), 0o644); err != nil {
		return err
	}
	if m.Script != "" {
		return c.write(c.Installer.MultiarchModules+m.Name+"/"+m.Name+".sh", []byte(m.Script), 0o755)
	}
	return nil
}

func placeholder(on bool) string {
	if on {
		return "- "
	}
	return "# "
}

// writeSettings writes settings.conf from the template, dropping the job steps
// without a module and inserting the steps of the theme cfs.yml before umount
func (c *Incubator) writeSettings(mods []Module) error {
	content := c.template("settings.conf", map[string]string{
		"hasSystemd":        placeholder(c.Systemd),
		"hasDisplaymanager": placeholder(c.DisplayManager),
		"branding":          c.Branding(),
		"createUsers":       placeholder(!c.Clone),
	})

	present := lo.Map(mods, func(m Module, _ int) string { return m.Name })
	missing := lo.Without(jobModules, present...)

	var cfs []string
	if data, err := os.ReadFile(c.path(filepath.Join(c.ThemeDir(), "theme", "calamares", "cfs.yml"))); err == nil {
		if err := yaml.Unmarshal(data, &cfs); err != nil {
			return fmt.Errorf("parse cfs.yml: %w", err)
		}
	}

	out, err := EditSequence([]byte(content), missing, cfs)
	if err != nil {
		return err
	}
	return c.write(c.Installer.Configuration+"settings.conf", out, 0o644)
}

// EditSequence removes the drop steps from the exec sequence of a settings.conf and
// inserts the insert steps before umount
func EditSequence(settings []byte, drop, insert []string) ([]byte, error) {
	var doc yaml.MapSlice
	if err := yaml.Unmarshal(settings, &doc); err != nil {
		return nil, fmt.Errorf("parse settings.conf: %w", err)
	}

	for i, item := range doc {
		if item.Key != "sequence" {
			continue
		}
		seq, ok := item.Value.([]interface{})
		if !ok {
			return nil, fmt.Errorf("settings.conf: sequence is not a list")
		}
		for j, step := range seq {
			block, ok := step.(yaml.MapSlice)
			if !ok || len(block) != 1 || block[0].Key != "exec" {
				continue
			}
			steps, _ := block[0].Value.([]interface{})
			block[0].Value = editExec(steps, drop, insert)
			seq[j] = block
		}
		doc[i].Value = seq
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return append([]byte("---\n"), out...), nil
}

func editExec(steps []interface{}, drop, insert []string) []interface{} {
	var out []interface{}
	for _, s := range steps {
		name, _ := s.(string)
		if lo.Contains(drop, name) {
			continue
		}
		if name == "umount" {
			for _, ins := range insert {
				out = append(out, ins)
			}
		}
		out = append(out, s)
	}
	return out
}
