package state

// Clone returns a structural deep copy. Nothing in the copy aliases the
// receiver, so callers may mutate either side freely.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s

	c.Resources = cloneMap(s.Resources)
	c.Colonists = make([]Colonist, len(s.Colonists))
	for i := range s.Colonists {
		c.Colonists[i] = s.Colonists[i].Clone()
	}
	c.Buildings = make([]Building, len(s.Buildings))
	for i := range s.Buildings {
		c.Buildings[i] = s.Buildings[i].Clone()
	}
	c.ConstructionQueue = cloneSlice(s.ConstructionQueue)

	c.Research.Completed = cloneSlice(s.Research.Completed)
	if s.Research.Current != nil {
		cur := *s.Research.Current
		c.Research.Current = &cur
	}
	c.Objectives.Completed = cloneSlice(s.Objectives.Completed)

	c.Rules.ResourceMultipliers = cloneMap(s.Rules.ResourceMultipliers)
	c.Rules.JobMultipliers = cloneMap(s.Rules.JobMultipliers)
	c.Rules.JobPriorityMultipliers = cloneMap(s.Rules.JobPriorityMultipliers)

	c.RunSummaryHistory = cloneSlice(s.RunSummaryHistory)
	if s.LastRunSummary != nil {
		last := *s.LastRunSummary
		c.LastRunSummary = &last
	}
	c.Debug.InvariantViolations = cloneSlice(s.Debug.InvariantViolations)
	if s.SaveMeta != nil {
		meta := *s.SaveMeta
		c.SaveMeta = &meta
	}
	return &c
}

// Clone deep-copies a colonist.
func (c Colonist) Clone() Colonist {
	out := c
	if c.AssignedBuildingID != nil {
		id := *c.AssignedBuildingID
		out.AssignedBuildingID = &id
	}
	out.Skills = cloneMap(c.Skills)
	return out
}

// Clone deep-copies a building.
func (b Building) Clone() Building {
	out := b
	out.Size = cloneSlice(b.Size)
	return out
}

// cloneSlice preserves nil versus empty, which the invariant validator distinguishes.
func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	if in == nil {
		return nil
	}
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
