package wardrobe

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/alessio/shellescape"
	"github.com/bmatcuk/doublestar/v4"
	rigos "github.com/k0sproject/rig/os"
	"github.com/penguins-eggs/eggs/configurer"
	"github.com/penguins-eggs/eggs/pkg/distro"
	log "github.com/sirupsen/logrus"
)

// FirmwaresAccessory is skipped with NoFirmwares
const FirmwaresAccessory = "firmwares"

// Tailor wears costumes on the running system
type Tailor struct {
	Wardrobe      *Wardrobe
	Host          rigos.Host
	Configurer    configurer.Configurer
	Distro        *distro.Distro
	NoAccessories bool
	NoFirmwares   bool
	// Root prefixes the paths written by the customizations, / on a real system
	Root string

	worn map[string]bool
}

// Get clones the wardrobe repository, DefaultRepo when repo is empty
func (w *Wardrobe) Get(h rigos.Host, repo string) error {
	if repo == "" {
		repo = DefaultRepo
	}
	if _, err := os.Stat(w.Dir); err == nil {
		return fmt.Errorf("%s already exists", w.Dir)
	}
	if err := h.Exec(fmt.Sprintf("git clone %s %s", shellescape.Quote(repo), shellescape.Quote(w.Dir))); err != nil {
		return fmt.Errorf("clone %s: %w", repo, err)
	}
	return nil
}

// Wear installs a costume and its accessories
func (t *Tailor) Wear(name string) error {
	t.worn = map[string]bool{}
	return t.wear(Name(name), false)
}

// wear dresses one costume or accessory. Accessories that don't support the
// distribution are skipped with a warning.
func (t *Tailor) wear(name string, accessory bool) error {
	if t.worn[name] {
		return nil
	}
	t.worn[name] = true

	c, err := t.Wardrobe.Costume(name)
	if err != nil {
		return err
	}
	if !c.Supports(t.Distro.CodenameID, t.Distro.CodenameLikeID) {
		if accessory {
			log.Warnf("%s does not support %s, skipped", name, t.Distro.CodenameLikeID)
			return nil
		}
		return fmt.Errorf("%s does not support %s, it supports: %s", name, t.Distro.CodenameLikeID, strings.Join(c.Distributions, ", "))
	}
	log.Infof("wearing %s: %s", name, c.Description)

	seq := c.Sequence
	if seq.Repositories.Update {
		if err := t.Configurer.UpdateRepositories(t.Host); err != nil {
			return err
		}
	}
	for _, pkgs := range [][]string{seq.Dependencies, seq.Packages} {
		if len(pkgs) == 0 {
			continue
		}
		if err := t.Configurer.InstallPackage(t.Host, pkgs...); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	for _, pkg := range seq.TryPackages {
		if err := t.Configurer.InstallPackage(t.Host, pkg); err != nil {
			log.Warnf("%s: %s not installed: %s", name, pkg, err)
		}
	}

	if !t.NoAccessories {
		for _, acc := range seq.Accessories {
			if err := t.accessory(name, acc); err != nil {
				return err
			}
		}
		for _, acc := range seq.TryAccessories {
			if err := t.accessory(name, acc); err != nil {
				log.Warnf("%s: accessory %s not worn: %s", name, acc, err)
			}
		}
	}

	if c.Customize.Dirs {
		n, err := CopyDirs(filepath.Join(t.Wardrobe.Path(name), "dirs"), t.root())
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		log.Infof("%s: %d file(s) copied", name, n)
	}
	if c.Customize.Hostname {
		if err := t.hostname(c.Name); err != nil {
			return err
		}
	}
	for _, script := range c.Customize.Scripts {
		cmd := fmt.Sprintf("cd %s && %s", shellescape.Quote(t.Wardrobe.Path(name)), script)
		if err := t.Host.Exec("sh -c " + shellescape.Quote(cmd)); err != nil {
			return fmt.Errorf("%s: script %s: %w", name, script, err)
		}
	}
	return nil
}

// accessory resolves an accessory name relative to its costume: ./name lives
// inside the costume, anything else under accessories/
func (t *Tailor) accessory(parent, acc string) error {
	if t.NoFirmwares && acc == FirmwaresAccessory {
		log.Infof("skipping %s", acc)
		return nil
	}
	name := "accessories/" + acc
	if rel, ok := strings.CutPrefix(acc, "./"); ok {
		name = parent + "/" + rel
	}
	return t.wear(name, true)
}

func (t *Tailor) root() string {
	if t.Root == "" {
		return "/"
	}
	return t.Root
}

func (t *Tailor) hostname(name string) error {
	path := filepath.Join(t.root(), "etc", "hostname")
	if err := os.WriteFile(path, []byte(name+"\n"), 0o644); err != nil {
		return fmt.Errorf("set hostname: %w", err)
	}
	log.Infof("hostname set to %s", name)
	return nil
}

// CopyDirs copies every file below src to the same path below dest and returns the
// number of files copied
func CopyDirs(src, dest string) (int, error) {
	fsys := os.DirFS(src)
	matches, err := doublestar.Glob(fsys, "**")
	if err != nil {
		return 0, err
	}
	n := 0
	for _, m := range matches {
		fi, err := fs.Stat(fsys, m)
		if err != nil {
			return n, err
		}
		if fi.IsDir() {
			continue
		}
		if err := copyFile(filepath.Join(src, m), filepath.Join(dest, m), fi.Mode().Perm()); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func copyFile(src, dest string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
