package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/talgya/colony-sim/internal/content"
	"github.com/talgya/colony-sim/internal/state"
)

// ValidateState checks the state's cross-field invariants and returns one
// message per violation. It never modifies the state.
func ValidateState(s *state.State) []string {
	if s == nil {
		return []string{"state is nil"}
	}
	var errs []string

	if s.Resources == nil {
		errs = append(errs, "resources must be an object")
	}
	for _, key := range resourceKeys(s.Resources) {
		v := s.Resources[key]
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			errs = append(errs, fmt.Sprintf("resources.%s is not finite", key))
		case v < 0:
			errs = append(errs, fmt.Sprintf("resources.%s is negative (%.3f)", key, v))
		}
	}

	buildingIDs := make(map[int]bool, len(s.Buildings))
	for i := range s.Buildings {
		b := &s.Buildings[i]
		if buildingIDs[b.ID] {
			errs = append(errs, fmt.Sprintf("duplicate building id %d", b.ID))
		}
		buildingIDs[b.ID] = true
		if len(b.Size) != 3 {
			errs = append(errs, fmt.Sprintf("building %d size must have 3 elements, has %d", b.ID, len(b.Size)))
		}
	}

	colonistIDs := make(map[int]bool, len(s.Colonists))
	for i := range s.Colonists {
		c := &s.Colonists[i]
		if colonistIDs[c.ID] {
			errs = append(errs, fmt.Sprintf("duplicate colonist id %d", c.ID))
		}
		colonistIDs[c.ID] = true

		if c.AssignedBuildingID != nil && !buildingIDs[*c.AssignedBuildingID] {
			errs = append(errs, fmt.Sprintf("colonist %d references missing building %d", c.ID, *c.AssignedBuildingID))
		}
		if !c.Alive {
			continue
		}
		for _, need := range []struct {
			name string
			v    float64
		}{
			{"hunger", c.Needs.Hunger},
			{"rest", c.Needs.Rest},
			{"health", c.Needs.Health},
			{"morale", c.Needs.Morale},
		} {
			if math.IsNaN(need.v) || math.IsInf(need.v, 0) || need.v < 0 || need.v > state.NeedMax {
				errs = append(errs, fmt.Sprintf("colonist %d %s out of range (%v)", c.ID, need.name, need.v))
			}
		}
	}

	if s.Objectives.Completed == nil {
		errs = append(errs, "objectives.completed must be an array")
	}
	switch s.Status {
	case state.StatusPlaying, state.StatusWon, state.StatusLost:
	default:
		errs = append(errs, fmt.Sprintf("unknown status %q", s.Status))
	}
	return errs
}

// resourceKeys lists known resources in depletion order, then any extras sorted.
func resourceKeys(m map[content.Resource]float64) []content.Resource {
	keys := make([]content.Resource, 0, len(m))
	known := make(map[content.Resource]bool, len(content.Resources))
	for _, r := range content.Resources {
		known[r] = true
		if _, ok := m[r]; ok {
			keys = append(keys, r)
		}
	}
	var extra []content.Resource
	for r := range m {
		if !known[r] {
			extra = append(extra, r)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(keys, extra...)
}
