// Package content holds the data tables the simulation engine consumes:
// resources, jobs, building and tech definitions, scenarios and balance
// profiles. The engine resolves scenario and profile values into the colony
// rules once at creation and never re-reads them mid-run.
package content

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownScenario is returned when a scenario or profile id is not in the catalog.
var ErrUnknownScenario = errors.New("unknown scenario")

// Resource is a stockpiled good.
type Resource string

const (
	Food      Resource = "food"
	Wood      Resource = "wood"
	Stone     Resource = "stone"
	Iron      Resource = "iron"
	Tools     Resource = "tools"
	Medicine  Resource = "medicine"
	Knowledge Resource = "knowledge"
)

// Resources lists every resource in storage depletion order.
var Resources = []Resource{Food, Wood, Stone, Iron, Tools, Medicine, Knowledge}

// Job is a colonist work role.
type Job string

const (
	JobLaborer    Job = "laborer"
	JobFarmer     Job = "farmer"
	JobWoodcutter Job = "woodcutter"
	JobMiner      Job = "miner"
	JobBuilder    Job = "builder"
	JobScholar    Job = "scholar"
	JobMedic      Job = "medic"
	JobSmith      Job = "smith"
)

// Jobs lists every job. Skills are tracked for each.
var Jobs = []Job{JobLaborer, JobFarmer, JobWoodcutter, JobMiner, JobBuilder, JobScholar, JobMedic, JobSmith}

// ColonyCharter is the tech whose completion is one of the win conditions.
const ColonyCharter = "colony-charter"

// BuildingDef describes a constructible building type.
type BuildingDef struct {
	ID              string               `yaml:"id" json:"id"`
	Name            string               `yaml:"name" json:"name"`
	Cost            map[Resource]float64 `yaml:"cost" json:"cost"`
	BuildTime       float64              `yaml:"build_time" json:"buildTime"`
	Size            []float64            `yaml:"size" json:"size"` // x, y, z
	WorkerSlots     int                  `yaml:"worker_slots" json:"workerSlots"`
	PreferredJob    Job                  `yaml:"preferred_job" json:"preferredJob,omitempty"`
	InputPerWorker  map[Resource]float64 `yaml:"input_per_worker" json:"inputPerWorker,omitempty"`
	OutputPerWorker map[Resource]float64 `yaml:"output_per_worker" json:"outputPerWorker,omitempty"`
	PopulationCap   int                  `yaml:"population_cap" json:"populationCap"`
	StorageCap      float64              `yaml:"storage_cap" json:"storageCap"`
	RequiresTech    string               `yaml:"requires_tech" json:"requiresTech,omitempty"`
}

// Footprint returns the larger horizontal extent of the building.
func (d BuildingDef) Footprint() float64 {
	if len(d.Size) < 3 {
		return 0
	}
	if d.Size[0] > d.Size[2] {
		return d.Size[0]
	}
	return d.Size[2]
}

// TechDef describes a research project.
type TechDef struct {
	ID            string   `yaml:"id" json:"id"`
	Name          string   `yaml:"name" json:"name"`
	Cost          float64  `yaml:"cost" json:"cost"` // knowledge, paid on start
	ResearchTime  float64  `yaml:"research_time" json:"researchTime"`
	Prerequisites []string `yaml:"prerequisites" json:"prerequisites,omitempty"`
}

// Placement is a starting building position.
type Placement struct {
	Type string  `yaml:"type" json:"type"`
	X    float64 `yaml:"x" json:"x"`
	Z    float64 `yaml:"z" json:"z"`
}

// Scenario is a starting-condition preset with content multipliers.
type Scenario struct {
	ID                string               `yaml:"id" json:"id"`
	Name              string               `yaml:"name" json:"name"`
	Description       string               `yaml:"description" json:"description"`
	StartingColonists int                  `yaml:"starting_colonists" json:"startingColonists"`
	StartingResources map[Resource]float64 `yaml:"starting_resources" json:"startingResources"`
	StartingBuildings []Placement          `yaml:"starting_buildings" json:"startingBuildings"`
	BasePopulationCap int                  `yaml:"base_population_cap" json:"basePopulationCap"`
	BaseStorageCap    float64              `yaml:"base_storage_cap" json:"baseStorageCap"`

	NeedDecayMultiplier              float64 `yaml:"need_decay_multiplier" json:"needDecayMultiplier"`
	StarvationHealthDamageMultiplier float64 `yaml:"starvation_health_damage_multiplier" json:"starvationHealthDamageMultiplier"`
	ExhaustionHealthDamageMultiplier float64 `yaml:"exhaustion_health_damage_multiplier" json:"exhaustionHealthDamageMultiplier"`
	MoraleHealthDamageMultiplier     float64 `yaml:"morale_health_damage_multiplier" json:"moraleHealthDamageMultiplier"`
	ObjectiveRewardMultiplier        float64 `yaml:"objective_reward_multiplier" json:"objectiveRewardMultiplier"`

	ResourceMultipliers    map[Resource]float64 `yaml:"resource_multipliers" json:"resourceMultipliers,omitempty"`
	JobMultipliers         map[Job]float64      `yaml:"job_multipliers" json:"jobMultipliers,omitempty"`
	JobPriorityMultipliers map[Job]float64      `yaml:"job_priority_multipliers" json:"jobPriorityMultipliers,omitempty"`
}

// BalanceProfile is a global difficulty layer applied on top of a scenario.
type BalanceProfile struct {
	ID                        string  `yaml:"id" json:"id"`
	Name                      string  `yaml:"name" json:"name"`
	NeedDecayMultiplier       float64 `yaml:"need_decay_multiplier" json:"needDecayMultiplier"`
	DamageMultiplier          float64 `yaml:"damage_multiplier" json:"damageMultiplier"`
	ProductionMultiplier      float64 `yaml:"production_multiplier" json:"productionMultiplier"`
	ObjectiveRewardMultiplier float64 `yaml:"objective_reward_multiplier" json:"objectiveRewardMultiplier"`
}

// Catalog is the complete content table set.
type Catalog struct {
	Buildings map[string]BuildingDef
	Techs     map[string]TechDef
	Scenarios map[string]Scenario
	Profiles  map[string]BalanceProfile

	DefaultScenario string
	DefaultProfile  string

	MaxWorldRadius float64
	HireFoodCost   float64
}

// Building looks up a building definition.
func (c *Catalog) Building(id string) (BuildingDef, bool) {
	d, ok := c.Buildings[id]
	return d, ok
}

// Tech looks up a tech definition.
func (c *Catalog) Tech(id string) (TechDef, bool) {
	t, ok := c.Techs[id]
	return t, ok
}

// Scenario looks up a scenario.
func (c *Catalog) Scenario(id string) (Scenario, error) {
	s, ok := c.Scenarios[id]
	if !ok {
		return Scenario{}, fmt.Errorf("%w: %q", ErrUnknownScenario, id)
	}
	return s, nil
}

// Profile looks up a balance profile.
func (c *Catalog) Profile(id string) (BalanceProfile, error) {
	p, ok := c.Profiles[id]
	if !ok {
		return BalanceProfile{}, fmt.Errorf("%w: profile %q", ErrUnknownScenario, id)
	}
	return p, nil
}

// ScenarioOrDefault returns the named scenario, falling back to the default.
func (c *Catalog) ScenarioOrDefault(id string) Scenario {
	if s, ok := c.Scenarios[id]; ok {
		return s
	}
	return c.Scenarios[c.DefaultScenario]
}

// ProfileOrDefault returns the named profile, falling back to the default.
func (c *Catalog) ProfileOrDefault(id string) BalanceProfile {
	if p, ok := c.Profiles[id]; ok {
		return p
	}
	return c.Profiles[c.DefaultProfile]
}

// BuildingIDs returns building ids in a stable order.
func (c *Catalog) BuildingIDs() []string {
	return sortedKeys(c.Buildings)
}

// TechIDs returns tech ids in a stable order.
func (c *Catalog) TechIDs() []string {
	return sortedKeys(c.Techs)
}

// ScenarioIDs returns scenario ids in a stable order.
func (c *Catalog) ScenarioIDs() []string {
	return sortedKeys(c.Scenarios)
}

// ProfileIDs returns balance profile ids in a stable order.
func (c *Catalog) ProfileIDs() []string {
	return sortedKeys(c.Profiles)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks cross-references inside the catalog.
func (c *Catalog) Validate() error {
	if _, ok := c.Scenarios[c.DefaultScenario]; !ok {
		return fmt.Errorf("default scenario %q missing", c.DefaultScenario)
	}
	if _, ok := c.Profiles[c.DefaultProfile]; !ok {
		return fmt.Errorf("default profile %q missing", c.DefaultProfile)
	}
	for _, id := range c.BuildingIDs() {
		d := c.Buildings[id]
		if len(d.Size) != 3 {
			return fmt.Errorf("building %q: size must have 3 elements, got %d", id, len(d.Size))
		}
		if d.BuildTime <= 0 {
			return fmt.Errorf("building %q: build time must be positive", id)
		}
		if d.RequiresTech != "" {
			if _, ok := c.Techs[d.RequiresTech]; !ok {
				return fmt.Errorf("building %q: unknown tech %q", id, d.RequiresTech)
			}
		}
	}
	for _, id := range c.TechIDs() {
		for _, pre := range c.Techs[id].Prerequisites {
			if _, ok := c.Techs[pre]; !ok {
				return fmt.Errorf("tech %q: unknown prerequisite %q", id, pre)
			}
		}
	}
	for _, id := range c.ScenarioIDs() {
		for _, p := range c.Scenarios[id].StartingBuildings {
			if _, ok := c.Buildings[p.Type]; !ok {
				return fmt.Errorf("scenario %q: unknown starting building %q", id, p.Type)
			}
		}
	}
	return nil
}
