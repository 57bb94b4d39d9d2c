package content

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalogValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default catalog invalid: %v", err)
	}
}

func TestHarshIsLeanerThanFrontier(t *testing.T) {
	c := Default()
	f, _ := c.Scenario("frontier")
	h, _ := c.Scenario("harsh")
	if h.StartingColonists >= f.StartingColonists {
		t.Errorf("harsh colonists %d >= frontier %d", h.StartingColonists, f.StartingColonists)
	}
	if h.StartingResources[Food] >= f.StartingResources[Food] {
		t.Errorf("harsh food %v >= frontier %v", h.StartingResources[Food], f.StartingResources[Food])
	}
}

func TestUnknownScenario(t *testing.T) {
	c := Default()
	if _, err := c.Scenario("atlantis"); !errors.Is(err, ErrUnknownScenario) {
		t.Fatalf("err = %v, want ErrUnknownScenario", err)
	}
	if got := c.ScenarioOrDefault("atlantis").ID; got != "frontier" {
		t.Fatalf("fallback = %q", got)
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "content.yaml")
	doc := `
hire_food_cost: 40
profiles:
  - id: nightmare
    name: Nightmare
    need_decay_multiplier: 1.5
    damage_multiplier: 2
    production_multiplier: 0.8
    objective_reward_multiplier: 0.5
buildings:
  - id: shrine
    name: Shrine
    cost: {wood: 10, stone: 10}
    build_time: 8
    size: [2, 3, 2]
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.HireFoodCost != 40 {
		t.Errorf("HireFoodCost = %v", c.HireFoodCost)
	}
	p, err := c.Profile("nightmare")
	if err != nil || p.DamageMultiplier != 2 {
		t.Errorf("nightmare profile = %+v, %v", p, err)
	}
	b, ok := c.Building("shrine")
	if !ok || b.Cost[Wood] != 10 || len(b.Size) != 3 {
		t.Errorf("shrine = %+v", b)
	}
	if _, ok := c.Building("farm"); !ok {
		t.Error("built-in buildings should survive overrides")
	}
}

func TestLoadRejectsBadSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	doc := "buildings:\n  - id: flat\n    build_time: 4\n    size: [1, 1]\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for two-element size")
	}
}
