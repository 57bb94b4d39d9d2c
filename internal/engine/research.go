package engine

import (
	"fmt"

	"github.com/talgya/colony-sim/internal/content"
	"github.com/talgya/colony-sim/internal/state"
)

// Research throughput in research-seconds per simulated second.
const (
	baseResearchRate   = 0.5
	perScholarResearch = 0.45
)

// CanStartResearch returns nil when techID may be started now.
func CanStartResearch(s *state.State, cat *content.Catalog, techID string) error {
	tech, ok := cat.Tech(techID)
	if !ok {
		return fmt.Errorf("unknown tech %q", techID)
	}
	if s.Research.Current != nil {
		return fmt.Errorf("already researching %s", *s.Research.Current)
	}
	if state.HasTech(s, techID) {
		return fmt.Errorf("%s already researched", tech.Name)
	}
	for _, pre := range tech.Prerequisites {
		if !state.HasTech(s, pre) {
			return fmt.Errorf("%s requires %s", tech.Name, pre)
		}
	}
	if s.Resources[content.Knowledge] < tech.Cost {
		return fmt.Errorf("insufficient knowledge for %s (need %.0f)", tech.Name, tech.Cost)
	}
	return nil
}

// StartResearch charges the knowledge cost and makes techID current.
func StartResearch(s *state.State, cat *content.Catalog, techID string) error {
	if err := CanStartResearch(s, cat, techID); err != nil {
		return err
	}
	tech, _ := cat.Tech(techID)
	s.Resources[content.Knowledge] -= tech.Cost
	id := tech.ID
	s.Research.Current = &id
	s.Research.Progress = 0
	return nil
}

// RunResearchSystem advances the current project.
func RunResearchSystem(ctx Context) {
	s := ctx.State
	if s.Research.Current == nil {
		return
	}
	techID := *s.Research.Current
	tech, ok := ctx.Catalog.Tech(techID)
	if !ok {
		// Unknown tech from a save: drop it rather than research forever.
		s.Research.Current = nil
		s.Research.Progress = 0
		return
	}
	scholars := state.CountJob(s, content.JobScholar)
	s.Research.Progress += (baseResearchRate + float64(scholars)*perScholarResearch) * ctx.Delta
	if s.Research.Progress < tech.ResearchTime {
		return
	}
	s.Research.Completed = append(s.Research.Completed, techID)
	s.Research.Current = nil
	s.Research.Progress = 0
	s.Metrics.ResearchCompleted++
	ctx.emit(EventResearchComplete, map[string]any{
		"techId": techID,
		"name":   tech.Name,
	})
}
