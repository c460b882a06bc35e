package cmd

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dcsim/dcsim/sim"
)

// Presets represents the full defaults.yaml structure.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Presets struct {
	Version   string                        `yaml:"version"`
	Scenarios map[string]sim.ScenarioConfig `yaml:"scenarios"`
}

// loadPresets parses defaults.yaml into a Presets struct.
// Uses strict field checking: typos must cause errors.
func loadPresets(path string) (*Presets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read defaults file: %w", err)
	}
	var presets Presets
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&presets); err != nil {
		return nil, fmt.Errorf("parse defaults YAML %s: %w", path, err)
	}
	return &presets, nil
}

// Names returns the preset names in sorted order.
func (p *Presets) Names() []string {
	names := make([]string, 0, len(p.Scenarios))
	for name := range p.Scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// loadPreset returns a copy of the named scenario. The scenario name defaults
// to the preset name.
func loadPreset(path, name string) (*sim.ScenarioConfig, error) {
	presets, err := loadPresets(path)
	if err != nil {
		return nil, err
	}
	cfg, ok := presets.Scenarios[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q (available: %s)", name, strings.Join(presets.Names(), ", "))
	}
	if cfg.Name == "" {
		cfg.Name = name
	}
	return &cfg, nil
}
