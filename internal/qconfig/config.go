// Package qconfig loads the store's config file (spec §6:
// `config.(toml|yaml)`): ontology overrides, per-link-type cost overrides,
// and a `store_path` override consulted during store discovery.
//
// YAML (gopkg.in/yaml.v3) is the default, direct-marshaled form. A
// config.toml is parsed with github.com/BurntSushi/toml when present,
// grounded in the example pack's own local-tool configs
// (madstone-tech-mdstn-kb-mcp, jacoblindqvist-obsidian-hugo-sync) which use
// that library for the same purpose. This mirrors the teacher's
// internal/ticket/config.go merge-onto-defaults shape, retargeted from
// ticket-dir/editor settings to ontology/cost-table settings.
package qconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/qipu-dev/qipu/internal/ontology"
)

// LinkTypeConfig is the on-disk shape of a configured link type.
type LinkTypeConfig struct {
	Label   string `yaml:"label" toml:"label"`
	Inverse string `yaml:"inverse" toml:"inverse"`
}

// Config is the full on-disk store configuration.
type Config struct {
	OntologyMode string              `yaml:"ontology_mode,omitempty" toml:"ontology_mode,omitempty"`
	NoteTypes    []string            `yaml:"note_types,omitempty" toml:"note_types,omitempty"`
	LinkTypes    []LinkTypeConfig    `yaml:"link_types,omitempty" toml:"link_types,omitempty"`
	LinkCosts    map[string]float64  `yaml:"link_costs,omitempty" toml:"link_costs,omitempty"`
	StorePath    string              `yaml:"store_path,omitempty" toml:"store_path,omitempty"`
	DuplicateThreshold float64       `yaml:"duplicate_threshold,omitempty" toml:"duplicate_threshold,omitempty"`
}

// Default returns the default store configuration.
func Default() Config {
	return Config{
		OntologyMode:       string(ontology.ModeExtended),
		DuplicateThreshold: 0.7,
	}
}

// FileNames are the config file names discovery looks for, in order.
var FileNames = []string{"config.yaml", "config.yml", "config.toml"}

// Load reads and parses a config file, dispatching on extension.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("qconfig: read %s: %w", path, err)
	}

	cfg := Default()

	switch filepath.Ext(path) {
	case ".toml":
		_, err = toml.Decode(string(data), &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("qconfig: parse toml %s: %w", path, err)
		}
	default:
		err = yaml.Unmarshal(data, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("qconfig: parse yaml %s: %w", path, err)
		}
	}

	return cfg, nil
}

// Save marshals cfg as YAML and returns the bytes; it does not write path
// (the caller writes them).
func Save(path string, cfg Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("qconfig: marshal: %w", err)
	}

	return data, nil
}

// OntologyConfig converts the on-disk config into an ontology.Config.
func (c Config) OntologyConfig() ontology.Config {
	oc := ontology.Config{Mode: ontology.Mode(c.OntologyMode), NoteTypes: c.NoteTypes}
	for _, lt := range c.LinkTypes {
		oc.LinkTypes = append(oc.LinkTypes, ontology.LinkType{Label: lt.Label, Inverse: lt.Inverse})
	}

	return oc
}

// defaultLinkCost is the cost of any link type not named in identityCosts
// or overridden by the config (spec §4.4).
const defaultLinkCost = 1.0

// identityCosts are the structural/identity link types that cost less by
// default (spec §4.4).
var identityCosts = map[string]float64{
	"part-of":   0.5,
	"has-part":  0.5,
	"same-as":   0.5,
	"alias-of":  0.5,
	"has-alias": 0.5,
}

// LinkTypeCost resolves the traversal cost of a link type: config override,
// then the identity-type default, then the global default.
func (c Config) LinkTypeCost(linkType string) float64 {
	if cost, ok := c.LinkCosts[linkType]; ok {
		return cost
	}

	if cost, ok := identityCosts[linkType]; ok {
		return cost
	}

	return defaultLinkCost
}
