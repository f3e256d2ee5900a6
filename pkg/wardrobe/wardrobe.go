// Package wardrobe reads costumes and accessories, descriptions of packages and
// customizations applied on top of a naked system
package wardrobe

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/penguins-eggs/eggs/pkg/xdg"
	"gopkg.in/yaml.v2"
)

// IndexFile describes a costume
const IndexFile = "index.yml"

// DefaultCostume is worn and shown when no name is given
const DefaultCostume = "costumes/colibri"

// DefaultRepo is cloned by Get
const DefaultRepo = "https://github.com/pieroproietti/penguins-wardrobe"

// Kinds are the top level dirs of a wardrobe
var Kinds = []string{"costumes", "accessories", "servers"}

// ErrNotFound is returned for a missing costume or index
var ErrNotFound = errors.New("not found")

// DefaultDir returns ~/.wardrobe
func DefaultDir() string {
	return filepath.Join(xdg.Home(), ".wardrobe")
}

// Repositories of a costume
type Repositories struct {
	SourcesList  []string `yaml:"sources_list,omitempty" json:"sources_list,omitempty"`
	SourcesListD []string `yaml:"sources_list_d,omitempty" json:"sources_list_d,omitempty"`
	Update       bool     `yaml:"update" json:"update"`
	Upgrade      bool     `yaml:"upgrade" json:"upgrade"`
}

// Sequence is what the tailor installs
type Sequence struct {
	Repositories   Repositories `yaml:"repositories" json:"repositories"`
	Dependencies   []string     `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
	Packages       []string     `yaml:"packages,omitempty" json:"packages,omitempty"`
	TryPackages    []string     `yaml:"try_packages,omitempty" json:"try_packages,omitempty"`
	Accessories    []string     `yaml:"accessories,omitempty" json:"accessories,omitempty"`
	TryAccessories []string     `yaml:"try_accessories,omitempty" json:"try_accessories,omitempty"`
}

// Customize is what the tailor changes after installing
type Customize struct {
	Dirs     bool     `yaml:"dirs" json:"dirs"`
	Hostname bool     `yaml:"hostname" json:"hostname"`
	Scripts  []string `yaml:"scripts,omitempty" json:"scripts,omitempty"`
}

// Costume is the content of index.yml
type Costume struct {
	Name          string    `yaml:"name" json:"name"`
	Author        string    `yaml:"author,omitempty" json:"author,omitempty"`
	Description   string    `yaml:"description" json:"description"`
	Release       string    `yaml:"release,omitempty" json:"release,omitempty"`
	Distributions []string  `yaml:"distributions,omitempty" json:"distributions,omitempty"`
	Sequence      Sequence  `yaml:"sequence" json:"sequence"`
	Customize     Customize `yaml:"customize" json:"customize"`
	Reboot        bool      `yaml:"reboot" json:"reboot"`
}

// Supports is true when the costume lists one of the codenames, or none at all
func (c *Costume) Supports(codenames ...string) bool {
	if len(c.Distributions) == 0 {
		return true
	}
	for _, d := range c.Distributions {
		for _, cn := range codenames {
			if d == cn {
				return true
			}
		}
	}
	return false
}

// Wardrobe is a dir holding costumes, accessories and servers
type Wardrobe struct {
	Dir string
}

// New returns the wardrobe in dir, DefaultDir when empty
func New(dir string) *Wardrobe {
	if dir == "" {
		dir = DefaultDir()
	}
	return &Wardrobe{Dir: dir}
}

// Name completes a costume name with costumes/ unless it names a kind already
func Name(name string) string {
	if name == "" {
		return DefaultCostume
	}
	name = strings.Trim(name, "/")
	for _, k := range Kinds {
		if strings.HasPrefix(name, k+"/") {
			return name
		}
	}
	return "costumes/" + name
}

// Path returns the dir of a costume
func (w *Wardrobe) Path(name string) string {
	return filepath.Join(w.Dir, Name(name))
}

// Index returns the raw index.yml of a costume
func (w *Wardrobe) Index(name string) ([]byte, error) {
	dir := w.Path(name)
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("costume %s %w in %s", Name(name), ErrNotFound, w.Dir)
	}
	data, err := os.ReadFile(filepath.Join(dir, IndexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s of %s %w", IndexFile, Name(name), ErrNotFound)
		}
		return nil, err
	}
	return data, nil
}

// Costume reads and parses the index.yml of a costume
func (w *Wardrobe) Costume(name string) (*Costume, error) {
	data, err := w.Index(name)
	if err != nil {
		return nil, err
	}
	c := &Costume{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("%s: %w", Name(name), err)
	}
	return c, nil
}

// Item is an entry of List
type Item struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// List returns the costumes, accessories and servers having an index.yml
func (w *Wardrobe) List() ([]Item, error) {
	if _, err := os.Stat(w.Dir); err != nil {
		return nil, fmt.Errorf("wardrobe %s %w, get it with: eggs wardrobe get", w.Dir, ErrNotFound)
	}
	var items []Item
	for _, kind := range Kinds {
		entries, err := os.ReadDir(filepath.Join(w.Dir, kind))
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			name := kind + "/" + e.Name()
			c, err := w.Costume(name)
			if err != nil {
				continue
			}
			items = append(items, Item{Name: name, Description: c.Description})
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

// Show returns the index of a costume as YAML, or as indented JSON
func (w *Wardrobe) Show(name string, asJSON bool) (string, error) {
	if !asJSON {
		data, err := w.Index(name)
		return string(data), err
	}
	c, err := w.Costume(name)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}
