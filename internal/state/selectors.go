// Selectors are pure read-only queries over the state. None of them keep a
// reference to the state past the call.
package state

import (
	"slices"

	"github.com/talgya/colony-sim/internal/content"
)

// AliveCount returns the number of living colonists.
func AliveCount(s *State) int {
	n := 0
	for i := range s.Colonists {
		if s.Colonists[i].Alive {
			n++
		}
	}
	return n
}

// PopulationCapacity is the scenario base plus housing from operational buildings.
func PopulationCapacity(s *State, cat *content.Catalog) int {
	capacity := s.Rules.BasePopulationCap
	for i := range s.Buildings {
		b := &s.Buildings[i]
		if !b.IsOperational {
			continue
		}
		if def, ok := cat.Building(b.Type); ok {
			capacity += def.PopulationCap
		}
	}
	return capacity
}

// StorageCapacity is the scenario base plus storage from operational buildings.
func StorageCapacity(s *State, cat *content.Catalog) float64 {
	capacity := s.Rules.BaseStorageCap
	for i := range s.Buildings {
		b := &s.Buildings[i]
		if !b.IsOperational {
			continue
		}
		if def, ok := cat.Building(b.Type); ok {
			capacity += def.StorageCap
		}
	}
	return capacity
}

// TotalStored sums every resource amount.
func TotalStored(s *State) float64 {
	total := 0.0
	for _, res := range content.Resources {
		total += s.Resources[res]
	}
	return total
}

// AverageMorale is the mean morale of living colonists, 0 with nobody alive.
func AverageMorale(s *State) float64 {
	return averageNeed(s, func(n Needs) float64 { return n.Morale })
}

// AverageHunger is the mean hunger of living colonists, 0 with nobody alive.
func AverageHunger(s *State) float64 {
	return averageNeed(s, func(n Needs) float64 { return n.Hunger })
}

func averageNeed(s *State, pick func(Needs) float64) float64 {
	sum, n := 0.0, 0
	for i := range s.Colonists {
		if s.Colonists[i].Alive {
			sum += pick(s.Colonists[i].Needs)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// CountJob returns the number of living colonists holding job.
func CountJob(s *State, job content.Job) int {
	n := 0
	for i := range s.Colonists {
		if s.Colonists[i].Alive && s.Colonists[i].Job == job {
			n++
		}
	}
	return n
}

// CountBuildings returns the number of buildings of a type.
func CountBuildings(s *State, buildingType string) int {
	n := 0
	for i := range s.Buildings {
		if s.Buildings[i].Type == buildingType {
			n++
		}
	}
	return n
}

// BuildingIndex maps building id to its position in s.Buildings.
func BuildingIndex(s *State) map[int]int {
	idx := make(map[int]int, len(s.Buildings))
	for i := range s.Buildings {
		idx[s.Buildings[i].ID] = i
	}
	return idx
}

// FindBuilding returns the building with id, or nil.
func FindBuilding(s *State, id int) *Building {
	for i := range s.Buildings {
		if s.Buildings[i].ID == id {
			return &s.Buildings[i]
		}
	}
	return nil
}

// HasTech reports whether a tech has been researched.
func HasTech(s *State, techID string) bool {
	return slices.Contains(s.Research.Completed, techID)
}

// IsBuildingUnlocked reports whether def's tech gate (if any) is satisfied.
func IsBuildingUnlocked(s *State, def content.BuildingDef) bool {
	return def.RequiresTech == "" || HasTech(s, def.RequiresTech)
}

// UnlockedBuildings lists building types the colony can currently queue.
func UnlockedBuildings(s *State, cat *content.Catalog) []string {
	var out []string
	for _, id := range cat.BuildingIDs() {
		if IsBuildingUnlocked(s, cat.Buildings[id]) {
			out = append(out, id)
		}
	}
	return out
}

// AvailableTechs lists techs not yet researched whose prerequisites are all met.
func AvailableTechs(s *State, cat *content.Catalog) []string {
	var out []string
	for _, id := range cat.TechIDs() {
		if HasTech(s, id) {
			continue
		}
		ready := true
		for _, pre := range cat.Techs[id].Prerequisites {
			if !HasTech(s, pre) {
				ready = false
				break
			}
		}
		if ready {
			out = append(out, id)
		}
	}
	return out
}

// CanAfford reports whether every cost line is covered by stock.
func CanAfford(s *State, cost map[content.Resource]float64) bool {
	for res, amount := range cost {
		if s.Resources[res] < amount {
			return false
		}
	}
	return true
}

// Spend deducts cost from stock. Callers check CanAfford first.
func Spend(s *State, cost map[content.Resource]float64) {
	for res, amount := range cost {
		s.Resources[res] -= amount
	}
}
