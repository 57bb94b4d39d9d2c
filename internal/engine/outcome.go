package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/colony-sim/internal/content"
	"github.com/talgya/colony-sim/internal/state"
)

// Loss and win thresholds.
const (
	starvationLossTicks = 52
	lowMoraleLossTicks  = 70
	winPopulation       = 24
	winBuildings        = 14

	starvingFoodLevel   = 1.0
	starvingHungerLevel = 15.0
	collapseMoraleLevel = 25.0
)

// summaryNamespace scopes run-summary ids so the same run always gets the same id.
var summaryNamespace = uuid.MustParse("6f1f6a8e-3c55-4c4b-9b7e-0f3f0c9a2d11")

// RunOutcomeSystem updates the pressure counters and resolves the run status.
// Once the run is terminal it does nothing.
func RunOutcomeSystem(ctx Context) {
	s := ctx.State
	if s.Status != state.StatusPlaying {
		return
	}
	updatePressure(s)

	alive := state.AliveCount(s)
	switch {
	case alive == 0:
		finishRun(ctx, state.StatusLost, "colony-died-out")
	case s.Metrics.StarvationTicks >= starvationLossTicks:
		finishRun(ctx, state.StatusLost, "starvation")
	case s.Metrics.LowMoraleTicks >= lowMoraleLossTicks:
		finishRun(ctx, state.StatusLost, "morale-collapse")
	case state.HasTech(s, content.ColonyCharter) && alive >= winPopulation && len(s.Buildings) >= winBuildings:
		finishRun(ctx, state.StatusWon, "charter-granted")
	}
}

// updatePressure moves the hysteresis counters: up while the colony is in
// crisis, back down one step per tick otherwise.
func updatePressure(s *state.State) {
	m := &s.Metrics
	if s.Resources[content.Food] < starvingFoodLevel && state.AverageHunger(s) < starvingHungerLevel {
		m.StarvationTicks++
	} else if m.StarvationTicks > 0 {
		m.StarvationTicks--
	}
	if state.AverageMorale(s) < collapseMoraleLevel {
		m.LowMoraleTicks++
	} else if m.LowMoraleTicks > 0 {
		m.LowMoraleTicks--
	}
}

func finishRun(ctx Context, outcome state.Status, reason string) {
	s := ctx.State
	s.Status = outcome

	now := time.Time{}
	if ctx.Now != nil {
		now = ctx.Now()
	}
	summary := state.RunSummary{
		ID:                  uuid.NewSHA1(summaryNamespace, []byte(fmt.Sprintf("%s/%s/%s/%d", s.RNGSeed, s.ScenarioID, s.BalanceProfileID, s.Tick))).String(),
		Outcome:             outcome,
		Reason:              reason,
		ScenarioID:          s.ScenarioID,
		BalanceProfileID:    s.BalanceProfileID,
		Seed:                s.RNGSeed,
		Day:                 s.Day,
		Tick:                s.Tick,
		Population:          state.AliveCount(s),
		PeakPopulation:      s.Metrics.PeakPopulation,
		ResearchCompleted:   len(s.Research.Completed),
		ObjectivesCompleted: len(s.Objectives.Completed),
		RecordedAt:          now.UTC().Format(time.RFC3339),
	}
	s.RunSummaryHistory = append(s.RunSummaryHistory, summary)
	if over := len(s.RunSummaryHistory) - state.MaxRunSummaries; over > 0 {
		s.RunSummaryHistory = append([]state.RunSummary(nil), s.RunSummaryHistory[over:]...)
	}
	last := summary
	s.LastRunSummary = &last

	slog.Warn("run finished",
		"outcome", outcome,
		"reason", reason,
		"day", s.Day,
		"population", summary.Population,
		"scenario", s.ScenarioID,
	)
	ctx.emit(EventGameOver, map[string]any{
		"outcome": string(outcome),
		"reason":  reason,
		"summary": summary,
	})
}
