package content

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Overrides is the YAML shape of a content override file. Entries replace
// catalog entries with the same id or add new ones.
type Overrides struct {
	DefaultScenario string           `yaml:"default_scenario"`
	DefaultProfile  string           `yaml:"default_profile"`
	MaxWorldRadius  float64          `yaml:"max_world_radius"`
	HireFoodCost    float64          `yaml:"hire_food_cost"`
	Buildings       []BuildingDef    `yaml:"buildings"`
	Techs           []TechDef        `yaml:"techs"`
	Scenarios       []Scenario       `yaml:"scenarios"`
	Profiles        []BalanceProfile `yaml:"profiles"`
}

// Load reads an override file and applies it on top of the built-in catalog.
// An empty path returns the built-in catalog.
func Load(path string) (*Catalog, error) {
	cat := Default()
	if path == "" {
		return cat, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	var ov Overrides
	if err := yaml.Unmarshal(raw, &ov); err != nil {
		return nil, fmt.Errorf("content yaml: %w", err)
	}
	cat.Apply(ov)
	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("content %s: %w", path, err)
	}
	slog.Info("content overrides applied",
		"path", path,
		"buildings", len(ov.Buildings),
		"techs", len(ov.Techs),
		"scenarios", len(ov.Scenarios),
		"profiles", len(ov.Profiles),
	)
	return cat, nil
}

// Apply merges overrides into the catalog.
func (c *Catalog) Apply(ov Overrides) {
	if ov.DefaultScenario != "" {
		c.DefaultScenario = ov.DefaultScenario
	}
	if ov.DefaultProfile != "" {
		c.DefaultProfile = ov.DefaultProfile
	}
	if ov.MaxWorldRadius > 0 {
		c.MaxWorldRadius = ov.MaxWorldRadius
	}
	if ov.HireFoodCost > 0 {
		c.HireFoodCost = ov.HireFoodCost
	}
	for _, b := range ov.Buildings {
		c.Buildings[b.ID] = b
	}
	for _, t := range ov.Techs {
		c.Techs[t.ID] = t
	}
	for _, s := range ov.Scenarios {
		c.Scenarios[s.ID] = s
	}
	for _, p := range ov.Profiles {
		c.Profiles[p.ID] = p
	}
}
