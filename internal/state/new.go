package state

import (
	"github.com/talgya/colony-sim/internal/content"
	"github.com/talgya/colony-sim/internal/entropy"
)

// Options select the content configuration and seed for a new run.
type Options struct {
	ScenarioID       string `json:"scenarioId"`
	BalanceProfileID string `json:"balanceProfileId"`
	Seed             string `json:"seed"`
}

// CreateInitial builds a fresh run: resolves rules, seeds the stream, places
// the starting buildings and spawns the starting colonists. Unknown scenario
// or profile ids fall back to the catalog defaults.
func CreateInitial(cat *content.Catalog, opts Options) *State {
	sc := cat.ScenarioOrDefault(opts.ScenarioID)
	pr := cat.ProfileOrDefault(opts.BalanceProfileID)
	seed := opts.Seed
	if seed == "" {
		seed = DefaultSeed
	}

	s := &State{
		Day:               1,
		Speed:             MinSpeed,
		Status:            StatusPlaying,
		ScenarioID:        sc.ID,
		BalanceProfileID:  pr.ID,
		RNGSeed:           seed,
		RNGState:          entropy.SeedFromString(seed),
		Resources:         make(map[content.Resource]float64, len(content.Resources)),
		Colonists:         []Colonist{},
		Buildings:         []Building{},
		ConstructionQueue: []ConstructionItem{},
		Research:          Research{Completed: []string{}},
		Objectives:        Objectives{Completed: []string{}},
		Rules:             ResolveRules(sc, pr),
		RunSummaryHistory: []RunSummary{},
		NextEntityID:      1,
		Debug:             Debug{InvariantViolations: []string{}},
	}

	for _, res := range content.Resources {
		s.Resources[res] = sc.StartingResources[res]
	}

	for _, p := range sc.StartingBuildings {
		def, ok := cat.Building(p.Type)
		if !ok {
			continue
		}
		s.Buildings = append(s.Buildings, NewBuilding(s, def, p.X, p.Z))
	}

	for i := 0; i < sc.StartingColonists; i++ {
		s.Colonists = append(s.Colonists, SpawnColonist(s))
	}
	s.Metrics.PeakPopulation = AliveCount(s)

	return s
}

// NewBuilding allocates an id and returns an operational building of def's type.
func NewBuilding(s *State, def content.BuildingDef, x, z float64) Building {
	id := s.NextEntityID
	s.NextEntityID++
	size := make([]float64, len(def.Size))
	copy(size, def.Size)
	return Building{
		ID:            id,
		Type:          def.ID,
		X:             x,
		Z:             z,
		Size:          size,
		IsOperational: true,
		Health:        BuildingHealth,
		CreatedAt:     s.TimeSeconds,
	}
}
