package state

import "github.com/talgya/colony-sim/internal/content"

// ResolveRules layers a balance profile over a scenario into the numeric
// rules the systems read.
func ResolveRules(sc content.Scenario, pr content.BalanceProfile) Rules {
	r := Rules{
		NeedDecayMultiplier:              orOne(sc.NeedDecayMultiplier) * orOne(pr.NeedDecayMultiplier),
		StarvationHealthDamageMultiplier: orOne(sc.StarvationHealthDamageMultiplier) * orOne(pr.DamageMultiplier),
		ExhaustionHealthDamageMultiplier: orOne(sc.ExhaustionHealthDamageMultiplier) * orOne(pr.DamageMultiplier),
		MoraleHealthDamageMultiplier:     orOne(sc.MoraleHealthDamageMultiplier) * orOne(pr.DamageMultiplier),
		ObjectiveRewardMultiplier:        orOne(sc.ObjectiveRewardMultiplier) * orOne(pr.ObjectiveRewardMultiplier),
		ResourceMultipliers:              make(map[content.Resource]float64, len(content.Resources)),
		JobMultipliers:                   make(map[content.Job]float64, len(content.Jobs)),
		JobPriorityMultipliers:           make(map[content.Job]float64, len(content.Jobs)),
		BasePopulationCap:                sc.BasePopulationCap,
		BaseStorageCap:                   sc.BaseStorageCap,
	}
	for _, res := range content.Resources {
		m, ok := sc.ResourceMultipliers[res]
		if !ok {
			m = 1
		}
		r.ResourceMultipliers[res] = m * orOne(pr.ProductionMultiplier)
	}
	for _, job := range content.Jobs {
		r.JobMultipliers[job] = 1
		if m, ok := sc.JobMultipliers[job]; ok {
			r.JobMultipliers[job] = m
		}
		r.JobPriorityMultipliers[job] = 1
		if m, ok := sc.JobPriorityMultipliers[job]; ok {
			r.JobPriorityMultipliers[job] = m
		}
	}
	return r
}

// orOne treats an unset (zero) multiplier as neutral.
func orOne(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}

// Multiplier returns m[k], or 1 when the key is absent.
func Multiplier[K comparable](m map[K]float64, k K) float64 {
	if v, ok := m[k]; ok {
		return v
	}
	return 1
}
