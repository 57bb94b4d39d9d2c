package engine

import (
	"math"
	"slices"

	"github.com/talgya/colony-sim/internal/content"
	"github.com/talgya/colony-sim/internal/state"
)

// Reward is granted once when an objective completes.
type Reward struct {
	Resources map[content.Resource]float64 `json:"resources,omitempty"`
	Morale    float64                      `json:"morale,omitempty"`
}

// Objective is a predicate-gated milestone.
type Objective struct {
	ID          string                                    `json:"id"`
	Title       string                                    `json:"title"`
	Description string                                    `json:"description"`
	Reward      Reward                                    `json:"reward"`
	IsComplete  func(*state.State, *content.Catalog) bool `json:"-"`
}

var objectiveCatalog = []Objective{
	{
		ID: "full-larder", Title: "Full Larder",
		Description: "Stockpile 250 food.",
		Reward:      Reward{Resources: map[content.Resource]float64{content.Wood: 20}, Morale: 4},
		IsComplete: func(s *state.State, _ *content.Catalog) bool {
			return s.Resources[content.Food] >= 250
		},
	},
	{
		ID: "roofs-overhead", Title: "Roofs Overhead",
		Description: "Stand three homes.",
		Reward:      Reward{Resources: map[content.Resource]float64{content.Stone: 15}, Morale: 5},
		IsComplete: func(s *state.State, _ *content.Catalog) bool {
			return state.CountBuildings(s, "hut")+state.CountBuildings(s, "stone-house") >= 3
		},
	},
	{
		ID: "growing-colony", Title: "Growing Colony",
		Description: "Reach ten living colonists.",
		Reward:      Reward{Resources: map[content.Resource]float64{content.Food: 40}, Morale: 6},
		IsComplete: func(s *state.State, _ *content.Catalog) bool {
			return state.AliveCount(s) >= 10
		},
	},
	{
		ID: "first-discovery", Title: "First Discovery",
		Description: "Complete any research.",
		Reward:      Reward{Resources: map[content.Resource]float64{content.Knowledge: 15}},
		IsComplete: func(s *state.State, _ *content.Catalog) bool {
			return len(s.Research.Completed) >= 1
		},
	},
	{
		ID: "learned-colony", Title: "Learned Colony",
		Description: "Complete three research projects.",
		Reward:      Reward{Resources: map[content.Resource]float64{content.Knowledge: 30, content.Tools: 4}},
		IsComplete: func(s *state.State, _ *content.Catalog) bool {
			return len(s.Research.Completed) >= 3
		},
	},
	{
		ID: "builders-stock", Title: "Builders' Stock",
		Description: "Hold 200 wood and 120 stone at once.",
		Reward:      Reward{Resources: map[content.Resource]float64{content.Tools: 6}},
		IsComplete: func(s *state.State, _ *content.Catalog) bool {
			return s.Resources[content.Wood] >= 200 && s.Resources[content.Stone] >= 120
		},
	},
	{
		ID: "forge-fires", Title: "Forge Fires",
		Description: "Build a workshop.",
		Reward:      Reward{Resources: map[content.Resource]float64{content.Iron: 15}, Morale: 3},
		IsComplete: func(s *state.State, _ *content.Catalog) bool {
			return state.CountBuildings(s, "workshop") >= 1
		},
	},
	{
		ID: "well-tended", Title: "Well Tended",
		Description: "Keep 20 medicine in store.",
		Reward:      Reward{Morale: 8},
		IsComplete: func(s *state.State, _ *content.Catalog) bool {
			return s.Resources[content.Medicine] >= 20
		},
	},
	{
		ID: "township", Title: "Township",
		Description: "Stand ten buildings.",
		Reward:      Reward{Resources: map[content.Resource]float64{content.Food: 60, content.Wood: 40}, Morale: 6},
		IsComplete: func(s *state.State, _ *content.Catalog) bool {
			return len(s.Buildings) >= 10
		},
	},
}

// Objectives returns the objective catalog in evaluation order.
func Objectives() []Objective {
	return slices.Clone(objectiveCatalog)
}

// RunObjectiveSystem awards every objective whose predicate has become true.
// Completion is latched in state so each reward is paid at most once per run.
func RunObjectiveSystem(ctx Context) {
	s := ctx.State
	if s.Status != state.StatusPlaying {
		return
	}
	for _, obj := range objectiveCatalog {
		if slices.Contains(s.Objectives.Completed, obj.ID) {
			continue
		}
		if !obj.IsComplete(s, ctx.Catalog) {
			continue
		}
		s.Objectives.Completed = append(s.Objectives.Completed, obj.ID)
		s.Metrics.ObjectivesCompleted++
		granted := grantReward(s, obj.Reward)
		ctx.emit(EventObjectiveComplete, map[string]any{
			"objectiveId": obj.ID,
			"title":       obj.Title,
			"reward":      granted,
		})
	}
}

// grantReward applies a reward scaled by the run's multiplier and returns
// what was actually granted. Each line is rounded and floored at 1.
func grantReward(s *state.State, r Reward) Reward {
	mul := s.Rules.ObjectiveRewardMultiplier
	granted := Reward{Resources: make(map[content.Resource]float64, len(r.Resources))}
	for _, res := range content.Resources {
		base, ok := r.Resources[res]
		if !ok {
			continue
		}
		amount := scaleReward(base, mul)
		s.Resources[res] += amount
		granted.Resources[res] = amount
	}
	if r.Morale > 0 {
		granted.Morale = scaleReward(r.Morale, mul)
		for i := range s.Colonists {
			c := &s.Colonists[i]
			if c.Alive {
				c.Needs.Morale = state.Clamp(c.Needs.Morale+granted.Morale, 0, state.NeedMax)
			}
		}
	}
	return granted
}

func scaleReward(base, mul float64) float64 {
	return math.Max(1, math.Round(base*mul))
}
