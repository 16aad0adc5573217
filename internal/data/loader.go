package data

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed identities.yaml
var identitiesYAML []byte

// Identity is one anonymous persona from the pool: a color-and-animal
// display name plus the embed sidebar color used when posting as it.
type Identity struct {
	Name  string `yaml:"name"`
	Color int    `yaml:"color"`
}

// Components splits the identity name into its color and animal words.
func (i Identity) Components() []string {
	return strings.Fields(i.Name)
}

// Loader reads game data, searching the configured directory hierarchy
// first and falling back to the embedded defaults.
type Loader struct {
	dataDirs []string
}

// NewLoader initializes a Loader with the given data directory fallback hierarchy
func NewLoader(dataDirs []string) *Loader {
	return &Loader{
		dataDirs: dataDirs,
	}
}

type identitiesFile struct {
	Identities []Identity `yaml:"identities"`
}

// LoadIdentities returns the anonymous identity pool. A GM can override
// the embedded pool by placing an identities.yaml in any data directory.
func (l *Loader) LoadIdentities() ([]Identity, error) {
	var f identitiesFile
	if err := l.load("identities.yaml", identitiesYAML, &f); err != nil {
		return nil, err
	}
	if len(f.Identities) == 0 {
		return nil, fmt.Errorf("identity pool is empty")
	}
	seen := make(map[string]bool, len(f.Identities))
	for _, id := range f.Identities {
		key := strings.ToLower(id.Name)
		if seen[key] {
			return nil, fmt.Errorf("duplicate identity %q in pool", id.Name)
		}
		seen[key] = true
	}
	return f.Identities, nil
}

func (l *Loader) load(ref string, embedded []byte, target interface{}) error {
	for _, dir := range l.dataDirs {
		path := filepath.Join(dir, ref)
		f, err := os.Open(path)
		if err == nil {
			defer f.Close()
			decoder := yaml.NewDecoder(f)
			if err := decoder.Decode(target); err != nil {
				return fmt.Errorf("failed to decode yaml reference %s: %w", ref, err)
			}
			return nil
		}
	}
	if err := yaml.Unmarshal(embedded, target); err != nil {
		return fmt.Errorf("failed to decode embedded reference %s: %w", ref, err)
	}
	return nil
}
