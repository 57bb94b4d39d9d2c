// Building production and storage limits.
package engine

import (
	"github.com/talgya/colony-sim/internal/content"
	"github.com/talgya/colony-sim/internal/state"
)

// RunEconomySystem runs every staffed building's recipe, then trims stock
// that no longer fits in storage.
func RunEconomySystem(ctx Context) {
	s := ctx.State
	for i := range s.Buildings {
		b := &s.Buildings[i]
		def, ok := ctx.Catalog.Building(b.Type)
		if !ok || !b.IsOperational || def.WorkerSlots <= 0 || len(def.OutputPerWorker) == 0 {
			continue
		}
		produce(ctx, b, def)
	}
	enforceStorage(ctx)
}

func produce(ctx Context, b *state.Building, def content.BuildingDef) {
	s := ctx.State
	workers := b.WorkersAssigned
	if workers > def.WorkerSlots {
		workers = def.WorkerSlots
	}
	if workers <= 0 {
		return
	}
	w := float64(workers) * ctx.Delta

	// All inputs or nothing.
	for _, res := range content.Resources {
		if need := def.InputPerWorker[res] * w; need > 0 && s.Resources[res] < need {
			return
		}
	}
	for _, res := range content.Resources {
		s.Resources[res] -= def.InputPerWorker[res] * w
	}

	eff := efficiency(s, b.ID, def.PreferredJob)
	jobMul := state.Multiplier(s.Rules.JobMultipliers, def.PreferredJob)
	for _, res := range content.Resources {
		out := def.OutputPerWorker[res]
		if out <= 0 {
			continue
		}
		s.Resources[res] += out * w * eff * state.Multiplier(s.Rules.ResourceMultipliers, res) * jobMul
	}
}

// efficiency is the mean skill in job of the living colonists assigned to building id.
func efficiency(s *state.State, buildingID int, job content.Job) float64 {
	sum, n := 0.0, 0
	for i := range s.Colonists {
		c := &s.Colonists[i]
		if !c.Alive || c.AssignedBuildingID == nil || *c.AssignedBuildingID != buildingID {
			continue
		}
		sum += c.Skills[job]
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// enforceStorage removes overflow in depletion order.
func enforceStorage(ctx Context) {
	s := ctx.State
	capacity := state.StorageCapacity(s, ctx.Catalog)
	overflow := state.TotalStored(s) - capacity
	if overflow <= 0 {
		return
	}
	lost := make(map[string]any)
	left := overflow
	for _, res := range content.Resources {
		if left <= 0 {
			break
		}
		take := s.Resources[res]
		if take > left {
			take = left
		}
		if take <= 0 {
			continue
		}
		s.Resources[res] -= take
		left -= take
		lost[string(res)] = take
	}
	ctx.emit(EventStorageOverflow, map[string]any{
		"capacity": capacity,
		"overflow": overflow,
		"lost":     lost,
	})
}
