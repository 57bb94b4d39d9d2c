package engine

import (
	"fmt"
	"math"

	"github.com/talgya/colony-sim/internal/content"
	"github.com/talgya/colony-sim/internal/state"
)

// placementGap is the free space kept between two footprints.
const placementGap = 2.4

// Construction throughput in build-seconds per simulated second.
const (
	baseBuildRate   = 0.9
	perBuilderBuild = 0.45
)

// IsPlacementValid reports whether a building of def's type fits at (x, z):
// inside the world radius and clear of every building and queued site.
func IsPlacementValid(s *state.State, cat *content.Catalog, def content.BuildingDef, x, z float64) bool {
	if math.Hypot(x, z) > cat.MaxWorldRadius {
		return false
	}
	half := def.Footprint() / 2
	for i := range s.Buildings {
		b := &s.Buildings[i]
		other := 0.0
		if len(b.Size) == 3 {
			other = math.Max(b.Size[0], b.Size[2]) / 2
		}
		if math.Hypot(b.X-x, b.Z-z) < half+other+placementGap {
			return false
		}
	}
	for i := range s.ConstructionQueue {
		q := &s.ConstructionQueue[i]
		other := 0.0
		if qd, ok := cat.Building(q.BuildingType); ok {
			other = qd.Footprint() / 2
		}
		if math.Hypot(q.X-x, q.Z-z) < half+other+placementGap {
			return false
		}
	}
	return true
}

// QueueConstruction validates placement and cost, charges the cost and
// appends a construction order. It does not check tech gates or game status;
// the engine command does.
func QueueConstruction(s *state.State, cat *content.Catalog, buildingType string, x, z float64) (state.ConstructionItem, error) {
	def, ok := cat.Building(buildingType)
	if !ok {
		return state.ConstructionItem{}, fmt.Errorf("unknown building type %q", buildingType)
	}
	if !IsPlacementValid(s, cat, def, x, z) {
		return state.ConstructionItem{}, fmt.Errorf("invalid placement for %s at (%.1f, %.1f)", def.Name, x, z)
	}
	if !state.CanAfford(s, def.Cost) {
		return state.ConstructionItem{}, fmt.Errorf("insufficient resources for %s", def.Name)
	}
	state.Spend(s, def.Cost)

	item := state.ConstructionItem{
		ID:           s.NextEntityID,
		BuildingType: def.ID,
		X:            x,
		Z:            z,
		BuildTime:    def.BuildTime,
	}
	s.NextEntityID++
	s.ConstructionQueue = append(s.ConstructionQueue, item)
	return item, nil
}

// RunConstructionSystem spreads builder throughput evenly over every queued
// site and converts finished sites into buildings.
func RunConstructionSystem(ctx Context) {
	s := ctx.State
	if len(s.ConstructionQueue) == 0 {
		return
	}
	builders := state.CountJob(s, content.JobBuilder)
	rate := (baseBuildRate + float64(builders)*perBuilderBuild) / float64(len(s.ConstructionQueue))

	remaining := s.ConstructionQueue[:0]
	var done []state.ConstructionItem
	for _, item := range s.ConstructionQueue {
		item.Progress += rate * ctx.Delta
		if item.Progress >= item.BuildTime {
			done = append(done, item)
			continue
		}
		remaining = append(remaining, item)
	}
	s.ConstructionQueue = remaining

	for _, item := range done {
		def, ok := ctx.Catalog.Building(item.BuildingType)
		if !ok {
			continue
		}
		b := state.NewBuilding(s, def, item.X, item.Z)
		s.Buildings = append(s.Buildings, b)
		s.Metrics.BuildingsConstructed++
		ctx.emit(EventConstructionComplete, map[string]any{
			"buildingId":   b.ID,
			"buildingType": b.Type,
			"queueItemId":  item.ID,
			"x":            b.X,
			"z":            b.Z,
		})
	}
}
