// Colonist spawning. Every draw comes from the run's own stream so a hire
// at the same tick of two identical runs yields the same person.
package state

import (
	"github.com/talgya/colony-sim/internal/content"
	"github.com/talgya/colony-sim/internal/entropy"
)

// Trait is a colonist's temperament, which bends one need or growth rate.
type Trait string

const (
	TraitHardy     Trait = "hardy"     // takes less health damage
	TraitDiligent  Trait = "diligent"  // learns faster
	TraitCheerful  Trait = "cheerful"  // morale decays slower
	TraitFrugal    Trait = "frugal"    // hunger decays slower
	TraitStoic     Trait = "stoic"     // rest decays slower
	TraitSensitive Trait = "sensitive" // morale decays faster
)

var traits = []Trait{TraitHardy, TraitDiligent, TraitCheerful, TraitFrugal, TraitStoic, TraitSensitive}

var givenNames = []string{
	"Ada", "Bram", "Cora", "Dane", "Edda", "Finn", "Greta", "Hale",
	"Ines", "Joss", "Kira", "Lorne", "Mira", "Nils", "Odile", "Piet",
	"Quill", "Rhea", "Sven", "Tilde", "Ulla", "Vale", "Wren", "Yara",
}

var familyNames = []string{
	"Ashford", "Brook", "Carden", "Dunmore", "Elling", "Fairweather",
	"Greaves", "Holt", "Ivers", "Kettle", "Marsh", "Oakes", "Penrose",
	"Rook", "Stave", "Thorne", "Wick",
}

// affinityJobs are the jobs a colonist can be drawn to. Laborer is the
// fallback for everyone and never an affinity.
var affinityJobs = []content.Job{
	content.JobFarmer, content.JobWoodcutter, content.JobMiner, content.JobBuilder,
	content.JobScholar, content.JobMedic, content.JobSmith,
}

// SpawnColonist allocates an id and creates a colonist near the colony centre.
// It advances s.RNGState and s.NextEntityID.
func SpawnColonist(s *State) Colonist {
	rng := &s.RNGState

	id := s.NextEntityID
	s.NextEntityID++

	name := entropy.Pick(rng, givenNames) + " " + entropy.Pick(rng, familyNames)
	trait := entropy.Pick(rng, traits)
	age := 18 + entropy.Intn(rng, 30)
	affinity := entropy.Pick(rng, affinityJobs)

	// Everyone starts competent at everything; the affinity job is stronger.
	skills := make(map[content.Job]float64, len(content.Jobs))
	for _, job := range content.Jobs {
		skills[job] = 0.8 + entropy.Next(rng)*0.4
	}
	skills[affinity] = Clamp(skills[affinity]+0.6, 0, SkillMax)

	x := entropy.Range(rng, -SpawnJitter, SpawnJitter)
	z := entropy.Range(rng, -SpawnJitter, SpawnJitter)

	return Colonist{
		ID:       id,
		Name:     name,
		Trait:    trait,
		Age:      age,
		Alive:    true,
		Job:      content.JobLaborer,
		Affinity: affinity,
		Task:     TaskIdle,
		Position: Position{X: x, Z: z, TargetX: x, TargetZ: z},
		Needs: Needs{
			Hunger: 80 + entropy.Next(rng)*15,
			Rest:   75 + entropy.Next(rng)*20,
			Health: NeedMax,
			Morale: 70 + entropy.Next(rng)*15,
		},
		Skills: skills,
	}
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampNeeds bounds every need to [0, NeedMax].
func ClampNeeds(n *Needs) {
	n.Hunger = Clamp(n.Hunger, 0, NeedMax)
	n.Rest = Clamp(n.Rest, 0, NeedMax)
	n.Health = Clamp(n.Health, 0, NeedMax)
	n.Morale = Clamp(n.Morale, 0, NeedMax)
}
