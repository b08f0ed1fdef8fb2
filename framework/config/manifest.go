package config

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Manifest is a YAML scan listing, read once at startup.
//
//	# beans.yaml
//	scan:
//	  - github.com/km-arc/go-spring/example/application
//	exclude:
//	  - customPostProcessor
type Manifest struct {
	Scan    []string `yaml:"scan" validate:"required,min=1,dive,required"`
	Exclude []string `yaml:"exclude" validate:"dive,required"`
}

// LoadManifest reads and validates the manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest decodes and validates a manifest document.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if err := validate.Struct(&m); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &m, nil
}

// Apply merges the manifest into c. Packages and exclusions already present
// are kept and duplicates dropped.
func (m *Manifest) Apply(c *Config) {
	c.Scan.BasePackages = merge(c.Scan.BasePackages, m.Scan)
	c.Scan.Exclude = merge(c.Scan.Exclude, m.Exclude)
}

// LoadScanManifest applies the manifest named by c.Scan.Manifest, if any.
func (c *Config) LoadScanManifest() error {
	if c.Scan.Manifest == "" {
		return nil
	}
	m, err := LoadManifest(c.Scan.Manifest)
	if err != nil {
		return err
	}
	m.Apply(c)
	return nil
}

func merge(dst, src []string) []string {
	for _, s := range src {
		if !slices.Contains(dst, s) {
			dst = append(dst, s)
		}
	}
	return dst
}
