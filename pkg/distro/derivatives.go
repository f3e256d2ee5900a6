package distro

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// DerivativesPath is the user editable derivatives table
const DerivativesPath = "/etc/penguins-eggs.d/derivatives.yaml"

//go:embed derivatives.yaml
var defaultDerivatives []byte

// Derivative maps the codenames of a derived distribution to a reference codename
type Derivative struct {
	ID         string   `yaml:"id"`
	DistroLike string   `yaml:"distroLike"`
	Family     string   `yaml:"family"`
	IDs        []string `yaml:"ids"`
}

// Derivatives is the lookup table of known derived distributions
type Derivatives []Derivative

// ParseDerivatives parses a derivatives table
func ParseDerivatives(data []byte) (Derivatives, error) {
	var d Derivatives
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse derivatives: %w", err)
	}
	return d, nil
}

// LoadDerivatives reads the table from path, or returns the built-in table when
// path does not exist
func LoadDerivatives(path string) (Derivatives, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ParseDerivatives(defaultDerivatives)
	}
	if err != nil {
		return nil, err
	}
	return ParseDerivatives(data)
}

// Lookup returns the derivative entry listing the codename
func (ds Derivatives) Lookup(codename string) (Derivative, bool) {
	for _, d := range ds {
		for _, id := range d.IDs {
			if id == codename {
				return d, true
			}
		}
	}
	return Derivative{}, false
}
