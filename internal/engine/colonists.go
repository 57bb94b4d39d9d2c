// Colonist behaviour: job assignment, needs, consumption, damage, skill
// growth, movement and death.
package engine

import (
	"math"
	"sort"

	"github.com/talgya/colony-sim/internal/content"
	"github.com/talgya/colony-sim/internal/entropy"
	"github.com/talgya/colony-sim/internal/state"
)

// Need rates are per simulated second.
const (
	hungerDecay      = 0.55
	restDecayWorking = 0.55
	restDecayIdle    = 0.3
	moraleDecay      = 0.1

	restRecoveryResting = 1.6
	restRecoveryIdle    = 0.5
	moraleRecovery      = 0.16
	healthRegen         = 0.2

	forageFood = 0.05
	forageWood = 0.03

	eatThreshold        = 70.0
	eatRate             = 4.0
	foodPerHungerPoint  = 0.1
	healThreshold       = 70.0
	healRate            = 2.5
	medicinePerHealthPt = 0.05

	starvationHealthDamage = 1.2
	starvationMoraleDamage = 0.8
	exhaustionThreshold    = 6.0
	exhaustionHealthDamage = 0.5
	exhaustionMoraleDamage = 0.4
	lowMoraleThreshold     = 8.0
	lowMoraleHealthDamage  = 0.3
	overcrowdingPenalty    = 0.3

	skillGrowth = 0.004

	walkSpeed    = 1.6
	restingSpeed = 0.6
	arriveRadius = 0.3
)

// Work eligibility.
const (
	minHealthToWork = 20.0
	minRestToWork   = 12.0
	minHungerToWork = 10.0
	restedThreshold = 55.0 // a resting colonist stays down until this
	affinityBonus   = 0.75
	slotDecay       = 0.01
	maxTopUpBuilder = 4
)

type workSlot struct {
	buildingIdx int
	job         content.Job
	priority    float64
}

// RunColonistSystem advances every colonist by one tick.
func RunColonistSystem(ctx Context) {
	s := ctx.State
	dt := ctx.Delta

	assignJobs(ctx)
	topUpBuilders(s)

	alive := state.AliveCount(s)
	overcrowded := alive > state.PopulationCapacity(s, ctx.Catalog)
	buildings := state.BuildingIndex(s)

	for i := range s.Colonists {
		c := &s.Colonists[i]
		if !c.Alive {
			continue
		}
		decayNeeds(s, c, dt)
		consume(s, c, dt)
		applyDamage(s, c, dt, overcrowded)
		growSkill(c, dt)
		move(s, c, buildings, dt)

		state.ClampNeeds(&c.Needs)
		if c.Needs.Health <= 0 {
			kill(ctx, c, buildings)
		}
	}

	if n := state.AliveCount(s); n > s.Metrics.PeakPopulation {
		s.Metrics.PeakPopulation = n
	}
}

// eligible reports whether a colonist is fit to take a job this tick.
func eligible(c *state.Colonist) bool {
	n := c.Needs
	if n.Health <= minHealthToWork || n.Rest <= minRestToWork || n.Hunger <= minHungerToWork {
		return false
	}
	if c.Task == state.TaskResting && n.Rest < restedThreshold {
		return false
	}
	return true
}

// assignJobs clears every assignment and refills open worker slots
// highest-priority first.
func assignJobs(ctx Context) {
	s := ctx.State
	fit := make([]bool, len(s.Colonists))
	for i := range s.Colonists {
		c := &s.Colonists[i]
		if !c.Alive {
			continue
		}
		fit[i] = eligible(c)
		c.Job = content.JobLaborer
		c.AssignedBuildingID = nil
		if fit[i] {
			c.Task = state.TaskIdle
		} else {
			c.Task = state.TaskResting
		}
	}
	for i := range s.Buildings {
		s.Buildings[i].WorkersAssigned = 0
	}

	var slots []workSlot
	for i := range s.Buildings {
		b := &s.Buildings[i]
		def, ok := ctx.Catalog.Building(b.Type)
		if !ok || !b.IsOperational || def.WorkerSlots <= 0 || def.PreferredJob == "" {
			continue
		}
		base := jobPriority(ctx, def.PreferredJob) * state.Multiplier(s.Rules.JobPriorityMultipliers, def.PreferredJob)
		for k := 0; k < def.WorkerSlots; k++ {
			slots = append(slots, workSlot{
				buildingIdx: i,
				job:         def.PreferredJob,
				priority:    base - float64(k)*slotDecay,
			})
		}
	}
	sort.SliceStable(slots, func(a, b int) bool { return slots[a].priority > slots[b].priority })

	taken := make([]bool, len(s.Colonists))
	for _, slot := range slots {
		best, bestScore := -1, math.Inf(-1)
		for i := range s.Colonists {
			c := &s.Colonists[i]
			if !c.Alive || !fit[i] || taken[i] {
				continue
			}
			score := c.Skills[slot.job]
			if c.Affinity == slot.job {
				score += affinityBonus
			}
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		if best < 0 {
			break
		}
		taken[best] = true
		b := &s.Buildings[slot.buildingIdx]
		c := &s.Colonists[best]
		id := b.ID
		c.Job = slot.job
		c.AssignedBuildingID = &id
		c.Task = state.TaskWorking
		b.WorkersAssigned++
	}
}

// jobPriority is the hand-tuned urgency of filling a job right now.
func jobPriority(ctx Context, job content.Job) float64 {
	s := ctx.State
	res := s.Resources
	switch job {
	case content.JobFarmer:
		if res[content.Food] < math.Max(80, float64(state.AliveCount(s))*22) {
			return 3
		}
		return 1.2
	case content.JobBuilder:
		if len(s.ConstructionQueue) > 0 {
			return 2.6
		}
		return 0.3
	case content.JobWoodcutter:
		if res[content.Wood] < 120 {
			return 2
		}
		return 1
	case content.JobMiner:
		if res[content.Stone] < 90 || res[content.Iron] < 30 {
			return 1.8
		}
		return 0.9
	case content.JobScholar:
		if s.Research.Current != nil {
			return 2.2
		}
		return 1
	case content.JobMedic:
		for i := range s.Colonists {
			if s.Colonists[i].Alive && s.Colonists[i].Needs.Health < 60 {
				return 2.4
			}
		}
		if res[content.Medicine] < 15 {
			return 1.4
		}
		return 0.6
	case content.JobSmith:
		if res[content.Tools] < 20 {
			return 1.6
		}
		return 0.8
	}
	return 0.5
}

// topUpBuilders flags otherwise idle colonists as builders while anything is queued.
func topUpBuilders(s *state.State) {
	q := len(s.ConstructionQueue)
	if q == 0 {
		return
	}
	limit := int(math.Min(maxTopUpBuilder, math.Ceil(float64(q)*1.5)))

	var idle []int
	for i := range s.Colonists {
		c := &s.Colonists[i]
		if c.Alive && c.Task == state.TaskIdle && c.AssignedBuildingID == nil {
			idle = append(idle, i)
		}
	}
	sort.SliceStable(idle, func(a, b int) bool {
		return builderScore(&s.Colonists[idle[a]]) > builderScore(&s.Colonists[idle[b]])
	})
	for k := 0; k < len(idle) && k < limit; k++ {
		c := &s.Colonists[idle[k]]
		c.Job = content.JobBuilder
		c.Task = state.TaskWorking
	}
}

func builderScore(c *state.Colonist) float64 {
	score := c.Skills[content.JobBuilder]
	if c.Affinity == content.JobBuilder {
		score += affinityBonus
	}
	return score
}

func decayNeeds(s *state.State, c *state.Colonist, dt float64) {
	m := s.Rules.NeedDecayMultiplier
	n := &c.Needs

	n.Hunger -= hungerDecay * traitFactor(c.Trait, state.TraitFrugal, 0.85) * m * dt
	n.Morale -= moraleDecay * moraleTraitFactor(c.Trait) * m * dt

	restFactor := traitFactor(c.Trait, state.TraitStoic, 0.85)
	switch c.Task {
	case state.TaskWorking:
		n.Rest -= restDecayWorking * restFactor * m * dt
	case state.TaskResting:
		n.Rest += restRecoveryResting * dt
	default:
		n.Rest += (restRecoveryIdle - restDecayIdle*restFactor*m) * dt
		s.Resources[content.Food] += forageFood * dt
		s.Resources[content.Wood] += forageWood * dt
	}

	if n.Hunger > 60 && n.Rest > 50 {
		n.Morale += moraleRecovery * dt
	}
	if n.Hunger > 50 && n.Rest > 40 {
		n.Health += healthRegen * dt
	}
	state.ClampNeeds(n)
}

// consume feeds and treats a colonist from the shared stockpile, bounded by
// what is actually there.
func consume(s *state.State, c *state.Colonist, dt float64) {
	n := &c.Needs

	if food := s.Resources[content.Food]; n.Hunger < eatThreshold && food > 0 {
		gain := math.Min(eatRate*dt, state.NeedMax-n.Hunger)
		cost := gain * foodPerHungerPoint
		if cost > food {
			cost = food
			gain = cost / foodPerHungerPoint
		}
		s.Resources[content.Food] = food - cost
		n.Hunger += gain
	}

	// Medicine cannot outpace starvation; a colonist with no food keeps declining.
	if med := s.Resources[content.Medicine]; n.Health < healThreshold && n.Hunger > 0 && med > 0 {
		gain := math.Min(healRate*dt, state.NeedMax-n.Health)
		cost := gain * medicinePerHealthPt
		if cost > med {
			cost = med
			gain = cost / medicinePerHealthPt
		}
		s.Resources[content.Medicine] = med - cost
		n.Health += gain
	}
}

func applyDamage(s *state.State, c *state.Colonist, dt float64, overcrowded bool) {
	n := &c.Needs
	r := s.Rules
	toughness := traitFactor(c.Trait, state.TraitHardy, 0.8)

	if n.Hunger <= 0 {
		n.Health -= starvationHealthDamage * r.StarvationHealthDamageMultiplier * toughness * dt
		n.Morale -= starvationMoraleDamage * r.StarvationHealthDamageMultiplier * dt
	}
	if n.Rest <= exhaustionThreshold {
		n.Health -= exhaustionHealthDamage * r.ExhaustionHealthDamageMultiplier * toughness * dt
		n.Morale -= exhaustionMoraleDamage * r.ExhaustionHealthDamageMultiplier * dt
	}
	if n.Morale <= lowMoraleThreshold {
		n.Health -= lowMoraleHealthDamage * r.MoraleHealthDamageMultiplier * toughness * dt
	}
	if overcrowded {
		n.Morale -= overcrowdingPenalty * dt
	}
}

func growSkill(c *state.Colonist, dt float64) {
	if c.Task != state.TaskWorking || c.Job == content.JobLaborer {
		return
	}
	if c.Skills == nil {
		c.Skills = make(map[content.Job]float64, len(content.Jobs))
	}
	rate := skillGrowth * traitFactor(c.Trait, state.TraitDiligent, 1.5)
	c.Skills[c.Job] = state.Clamp(c.Skills[c.Job]+rate*dt, 0, state.SkillMax)
}

// move walks a colonist toward its workplace, the construction site, or a
// wander point. Only idle colonists draw new wander points from the stream.
func move(s *state.State, c *state.Colonist, buildings map[int]int, dt float64) {
	p := &c.Position
	switch {
	case c.AssignedBuildingID != nil:
		if idx, ok := buildings[*c.AssignedBuildingID]; ok {
			p.TargetX, p.TargetZ = s.Buildings[idx].X, s.Buildings[idx].Z
		}
	case c.Job == content.JobBuilder && len(s.ConstructionQueue) > 0:
		p.TargetX, p.TargetZ = s.ConstructionQueue[0].X, s.ConstructionQueue[0].Z
	case c.Task == state.TaskIdle:
		if math.Hypot(p.TargetX-p.X, p.TargetZ-p.Z) < arriveRadius {
			p.TargetX = entropy.Range(&s.RNGState, -state.WanderRadius, state.WanderRadius)
			p.TargetZ = entropy.Range(&s.RNGState, -state.WanderRadius, state.WanderRadius)
		}
	}

	speed := walkSpeed
	if c.Task == state.TaskResting {
		speed = restingSpeed
	}
	dx, dz := p.TargetX-p.X, p.TargetZ-p.Z
	dist := math.Hypot(dx, dz)
	step := speed * dt
	if dist <= step {
		p.X, p.Z = p.TargetX, p.TargetZ
		return
	}
	p.X += dx / dist * step
	p.Z += dz / dist * step
}

func kill(ctx Context, c *state.Colonist, buildings map[int]int) {
	s := ctx.State
	if c.AssignedBuildingID != nil {
		if idx, ok := buildings[*c.AssignedBuildingID]; ok && s.Buildings[idx].WorkersAssigned > 0 {
			s.Buildings[idx].WorkersAssigned--
		}
	}
	c.Alive = false
	c.Task = state.TaskDead
	c.AssignedBuildingID = nil
	c.Needs.Health = 0
	s.Metrics.Deaths++
	ctx.emit(EventColonistDeath, map[string]any{
		"colonistId": c.ID,
		"name":       c.Name,
		"hunger":     c.Needs.Hunger,
		"rest":       c.Needs.Rest,
		"morale":     c.Needs.Morale,
	})
}

// traitFactor returns factor when the colonist has trait, else 1.
func traitFactor(have, trait state.Trait, factor float64) float64 {
	if have == trait {
		return factor
	}
	return 1
}

func moraleTraitFactor(t state.Trait) float64 {
	switch t {
	case state.TraitCheerful:
		return 0.7
	case state.TraitSensitive:
		return 1.3
	}
	return 1
}
