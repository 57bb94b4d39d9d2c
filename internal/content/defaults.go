package content

// Default returns a fresh copy of the built-in catalog.
func Default() *Catalog {
	return &Catalog{
		Buildings:       defaultBuildings(),
		Techs:           defaultTechs(),
		Scenarios:       defaultScenarios(),
		Profiles:        defaultProfiles(),
		DefaultScenario: "frontier",
		DefaultProfile:  "standard",
		MaxWorldRadius:  36,
		HireFoodCost:    25,
	}
}

type costs = map[Resource]float64

func defaultBuildings() map[string]BuildingDef {
	defs := []BuildingDef{
		{
			ID: "town-hall", Name: "Town Hall",
			Cost: costs{Wood: 60, Stone: 40}, BuildTime: 40,
			Size: []float64{4, 3, 4}, PopulationCap: 6, StorageCap: 150,
		},
		{
			ID: "hut", Name: "Hut",
			Cost: costs{Wood: 20}, BuildTime: 10,
			Size: []float64{2, 1.6, 2}, PopulationCap: 4,
		},
		{
			ID: "farm", Name: "Farm",
			Cost: costs{Wood: 18, Stone: 4}, BuildTime: 12,
			Size: []float64{4, 0.4, 4}, WorkerSlots: 3, PreferredJob: JobFarmer,
			OutputPerWorker: costs{Food: 0.9},
		},
		{
			ID: "lumber-camp", Name: "Lumber Camp",
			Cost: costs{Wood: 14, Stone: 6}, BuildTime: 12,
			Size: []float64{3, 1.5, 3}, WorkerSlots: 3, PreferredJob: JobWoodcutter,
			OutputPerWorker: costs{Wood: 0.7},
		},
		{
			ID: "quarry", Name: "Quarry",
			Cost: costs{Wood: 22}, BuildTime: 14,
			Size: []float64{3, 1, 3}, WorkerSlots: 3, PreferredJob: JobMiner,
			OutputPerWorker: costs{Stone: 0.55},
		},
		{
			ID: "storehouse", Name: "Storehouse",
			Cost: costs{Wood: 30, Stone: 14}, BuildTime: 16,
			Size: []float64{3, 2, 3}, StorageCap: 260,
		},
		{
			ID: "builders-yard", Name: "Builders' Yard",
			Cost: costs{Wood: 24, Stone: 10}, BuildTime: 14,
			Size: []float64{3, 1.2, 3}, WorkerSlots: 2, PreferredJob: JobBuilder,
		},
		{
			ID: "library", Name: "Library",
			Cost: costs{Wood: 26, Stone: 18}, BuildTime: 20,
			Size: []float64{3, 2.4, 3}, WorkerSlots: 2, PreferredJob: JobScholar,
			OutputPerWorker: costs{Knowledge: 0.3},
		},
		{
			ID: "iron-mine", Name: "Iron Mine",
			Cost: costs{Wood: 30, Stone: 24}, BuildTime: 22,
			Size: []float64{3, 1.4, 3}, WorkerSlots: 3, PreferredJob: JobMiner,
			OutputPerWorker: costs{Iron: 0.35}, RequiresTech: "mining",
		},
		{
			ID: "workshop", Name: "Workshop",
			Cost: costs{Wood: 34, Stone: 20, Iron: 10}, BuildTime: 24,
			Size: []float64{3, 2, 3}, WorkerSlots: 2, PreferredJob: JobSmith,
			InputPerWorker:  costs{Iron: 0.12, Wood: 0.18},
			OutputPerWorker: costs{Tools: 0.2}, RequiresTech: "tool-making",
		},
		{
			ID: "infirmary", Name: "Infirmary",
			Cost: costs{Wood: 30, Stone: 26, Tools: 4}, BuildTime: 26,
			Size: []float64{3, 2, 3}, WorkerSlots: 2, PreferredJob: JobMedic,
			InputPerWorker:  costs{Food: 0.12},
			OutputPerWorker: costs{Medicine: 0.1}, RequiresTech: "medicine",
		},
		{
			ID: "stone-house", Name: "Stone House",
			Cost: costs{Wood: 24, Stone: 36, Tools: 2}, BuildTime: 22,
			Size: []float64{3, 2.2, 3}, PopulationCap: 7, RequiresTech: "masonry",
		},
		{
			ID: "granary", Name: "Granary",
			Cost: costs{Wood: 28, Stone: 30}, BuildTime: 24,
			Size: []float64{4, 2.6, 4}, StorageCap: 420, RequiresTech: "masonry",
		},
	}
	out := make(map[string]BuildingDef, len(defs))
	for _, d := range defs {
		out[d.ID] = d
	}
	return out
}

func defaultTechs() map[string]TechDef {
	defs := []TechDef{
		{ID: "tool-making", Name: "Tool Making", Cost: 30, ResearchTime: 40},
		{ID: "mining", Name: "Mining", Cost: 25, ResearchTime: 35},
		{ID: "medicine", Name: "Medicine", Cost: 40, ResearchTime: 50},
		{ID: "masonry", Name: "Masonry", Cost: 50, ResearchTime: 60, Prerequisites: []string{"tool-making"}},
		{ID: "governance", Name: "Governance", Cost: 70, ResearchTime: 80, Prerequisites: []string{"masonry"}},
		{
			ID: ColonyCharter, Name: "Colony Charter", Cost: 120, ResearchTime: 120,
			Prerequisites: []string{"governance", "medicine", "mining"},
		},
	}
	out := make(map[string]TechDef, len(defs))
	for _, d := range defs {
		out[d.ID] = d
	}
	return out
}

func defaultScenarios() map[string]Scenario {
	return map[string]Scenario{
		"frontier": {
			ID: "frontier", Name: "Frontier",
			Description:       "A temperate valley with a modest stockpile.",
			StartingColonists: 7,
			StartingResources: costs{Food: 160, Wood: 90, Stone: 40, Tools: 6, Medicine: 6, Knowledge: 20},
			StartingBuildings: []Placement{
				{Type: "town-hall", X: 0, Z: 0},
				{Type: "farm", X: 8, Z: 2},
				{Type: "hut", X: -6, Z: 3},
				{Type: "hut", X: -5, Z: -6},
			},
			BasePopulationCap:                4,
			BaseStorageCap:                   300,
			NeedDecayMultiplier:              1,
			StarvationHealthDamageMultiplier: 1,
			ExhaustionHealthDamageMultiplier: 1,
			MoraleHealthDamageMultiplier:     1,
			ObjectiveRewardMultiplier:        1,
			JobPriorityMultipliers:           map[Job]float64{JobBuilder: 1.1},
		},
		"harsh": {
			ID: "harsh", Name: "Harsh Winter",
			Description:       "Thin soil, short supplies and a long cold season.",
			StartingColonists: 5,
			StartingResources: costs{Food: 80, Wood: 60, Stone: 20, Tools: 2, Medicine: 2, Knowledge: 10},
			StartingBuildings: []Placement{
				{Type: "town-hall", X: 0, Z: 0},
				{Type: "farm", X: 8, Z: 2},
				{Type: "hut", X: -6, Z: 3},
			},
			BasePopulationCap:                2,
			BaseStorageCap:                   220,
			NeedDecayMultiplier:              1.2,
			StarvationHealthDamageMultiplier: 1.3,
			ExhaustionHealthDamageMultiplier: 1.2,
			MoraleHealthDamageMultiplier:     1.2,
			ObjectiveRewardMultiplier:        1.25,
			ResourceMultipliers:              map[Resource]float64{Food: 0.85},
			JobPriorityMultipliers:           map[Job]float64{JobFarmer: 1.25},
		},
		"prosperous": {
			ID: "prosperous", Name: "Prosperous Delta",
			Description:       "Fertile river land and a well-stocked caravan.",
			StartingColonists: 9,
			StartingResources: costs{Food: 240, Wood: 140, Stone: 80, Iron: 10, Tools: 10, Medicine: 10, Knowledge: 30},
			StartingBuildings: []Placement{
				{Type: "town-hall", X: 0, Z: 0},
				{Type: "farm", X: 8, Z: 2},
				{Type: "lumber-camp", X: -8, Z: 8},
				{Type: "hut", X: -6, Z: 3},
				{Type: "hut", X: -5, Z: -6},
			},
			BasePopulationCap:                6,
			BaseStorageCap:                   700,
			NeedDecayMultiplier:              0.9,
			StarvationHealthDamageMultiplier: 1,
			ExhaustionHealthDamageMultiplier: 1,
			MoraleHealthDamageMultiplier:     1,
			ObjectiveRewardMultiplier:        0.8,
			ResourceMultipliers:              map[Resource]float64{Food: 1.15, Wood: 1.1},
			JobMultipliers:                   map[Job]float64{JobFarmer: 1.05},
		},
	}
}

func defaultProfiles() map[string]BalanceProfile {
	return map[string]BalanceProfile{
		"standard": {
			ID: "standard", Name: "Standard",
			NeedDecayMultiplier: 1, DamageMultiplier: 1, ProductionMultiplier: 1, ObjectiveRewardMultiplier: 1,
		},
		"relaxed": {
			ID: "relaxed", Name: "Relaxed",
			NeedDecayMultiplier: 0.85, DamageMultiplier: 0.75, ProductionMultiplier: 1.1, ObjectiveRewardMultiplier: 1.2,
		},
		"brutal": {
			ID: "brutal", Name: "Brutal",
			NeedDecayMultiplier: 1.2, DamageMultiplier: 1.35, ProductionMultiplier: 0.9, ObjectiveRewardMultiplier: 0.85,
		},
	}
}
