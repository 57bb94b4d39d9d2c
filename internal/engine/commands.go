package engine

import (
	"fmt"
	"strings"

	"github.com/talgya/colony-sim/internal/content"
	"github.com/talgya/colony-sim/internal/persistence"
	"github.com/talgya/colony-sim/internal/state"
)

// Result is the outcome of a player command. Expected failures are reported
// here with OK false, never as errors or panics.
type Result struct {
	OK      bool           `json:"ok"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

func (g *Game) reject(command, format string, args ...any) Result {
	msg := fmt.Sprintf(format, args...)
	g.logger.Debug("command rejected", "command", command, "reason", msg, "tick", g.state.Tick)
	return Result{Message: msg}
}

func (g *Game) requirePlaying(command string) (Result, bool) {
	if g.state.Status != state.StatusPlaying {
		return g.reject(command, "the run is over (%s)", g.state.Status), false
	}
	return Result{}, true
}

// QueueBuilding orders a building of type buildingType centred at (x, z).
func (g *Game) QueueBuilding(buildingType string, x, z float64) Result {
	if r, ok := g.requirePlaying("build"); !ok {
		return r
	}
	s := g.state
	def, ok := g.catalog.Building(buildingType)
	if !ok {
		return g.reject("build", "unknown building type %q", buildingType)
	}
	if !state.IsBuildingUnlocked(s, def) {
		return g.reject("build", "%s requires %s research", def.Name, def.RequiresTech)
	}
	if !IsPlacementValid(s, g.catalog, def, x, z) {
		return g.reject("build", "cannot place %s at (%.1f, %.1f)", def.Name, x, z)
	}
	if !state.CanAfford(s, def.Cost) {
		return g.reject("build", "not enough resources for %s", def.Name)
	}
	item, err := QueueConstruction(s, g.catalog, buildingType, x, z)
	if err != nil {
		return g.reject("build", "%v", err)
	}
	data := map[string]any{
		"id":           item.ID,
		"buildingType": item.BuildingType,
		"x":            item.X,
		"z":            item.Z,
	}
	g.emit(EventConstructionQueued, data)
	return Result{OK: true, Message: def.Name + " queued", Data: data}
}

// HireColonist spends food to bring a new colonist into the colony.
func (g *Game) HireColonist() Result {
	if r, ok := g.requirePlaying("hire"); !ok {
		return r
	}
	s := g.state
	cost := g.catalog.HireFoodCost
	if s.Resources[content.Food] < cost {
		return g.reject("hire", "hiring needs %.0f food", cost)
	}
	if capacity := state.PopulationCapacity(s, g.catalog); state.AliveCount(s) >= capacity {
		return g.reject("hire", "no housing: population is at capacity (%d)", capacity)
	}
	s.Resources[content.Food] -= cost
	c := state.SpawnColonist(s)
	s.Colonists = append(s.Colonists, c)
	if alive := state.AliveCount(s); alive > s.Metrics.PeakPopulation {
		s.Metrics.PeakPopulation = alive
	}
	data := map[string]any{"colonistId": c.ID, "name": c.Name, "cost": cost}
	g.emit(EventColonistHired, data)
	return Result{OK: true, Message: c.Name + " joined the colony", Data: data}
}

// BeginResearch starts researching techID.
func (g *Game) BeginResearch(techID string) Result {
	if r, ok := g.requirePlaying("research"); !ok {
		return r
	}
	if err := StartResearch(g.state, g.catalog, techID); err != nil {
		return g.reject("research", "%v", err)
	}
	tech, _ := g.catalog.Tech(techID)
	data := map[string]any{"techId": tech.ID, "name": tech.Name, "cost": tech.Cost}
	g.emit(EventResearchStarted, data)
	return Result{OK: true, Message: "researching " + tech.Name, Data: data}
}

// SetScenario discards the current run and starts a new one on scenario id.
func (g *Game) SetScenario(id string) Result {
	if _, err := g.catalog.Scenario(id); err != nil {
		return g.reject("scenario", "%v", err)
	}
	opts := g.options
	opts.ScenarioID = id
	return g.restart(opts, "scenario")
}

// SetBalanceProfile discards the current run and starts a new one on profile id.
func (g *Game) SetBalanceProfile(id string) Result {
	if _, err := g.catalog.Profile(id); err != nil {
		return g.reject("profile", "%v", err)
	}
	opts := g.options
	opts.BalanceProfileID = id
	return g.restart(opts, "profile")
}

func (g *Game) restart(opts state.Options, changed string) Result {
	g.options = opts
	g.state = state.CreateInitial(g.catalog, opts)
	g.accumulator = 0
	data := map[string]any{
		"scenarioId":       g.state.ScenarioID,
		"balanceProfileId": g.state.BalanceProfileID,
		"changed":          changed,
	}
	g.logger.Info("run restarted", "scenario", g.state.ScenarioID, "profile", g.state.BalanceProfileID)
	g.emit(EventScenarioChange, data)
	g.emit(EventGameReset, data)
	return Result{OK: true, Data: data}
}

// Reset starts a new run with the last-used options.
func (g *Game) Reset() Result {
	g.state = state.CreateInitial(g.catalog, g.options)
	g.accumulator = 0
	data := map[string]any{
		"scenarioId":       g.state.ScenarioID,
		"balanceProfileId": g.state.BalanceProfileID,
		"seed":             g.state.RNGSeed,
	}
	g.emit(EventGameReset, data)
	return Result{OK: true, Data: data}
}

// SetSpeed sets the simulation speed multiplier, clamped to 1..4.
func (g *Game) SetSpeed(speed int) Result {
	speed = min(max(speed, state.MinSpeed), state.MaxSpeed)
	if g.state.Speed != speed {
		g.state.Speed = speed
		g.emit(EventSpeedChange, map[string]any{"speed": speed})
	}
	return Result{OK: true, Data: map[string]any{"speed": speed}}
}

// TogglePause flips the paused flag.
func (g *Game) TogglePause() Result {
	return g.SetPaused(!g.state.Paused)
}

// SetPaused pauses or resumes Update.
func (g *Game) SetPaused(paused bool) Result {
	if g.state.Paused != paused {
		g.state.Paused = paused
		g.emit(EventPauseChange, map[string]any{"paused": paused})
	}
	return Result{OK: true, Data: map[string]any{"paused": paused}}
}

// LoadState replaces the run with candidate, which may be serialized save
// bytes, a decoded JSON object or a state value. The candidate is migrated,
// structurally checked and invariant-checked first; on any failure the
// current run is left untouched.
func (g *Game) LoadState(candidate any) Result {
	next, err := persistence.Restore(candidate, g.catalog)
	if err != nil {
		return g.reject("load", "%v", err)
	}
	if violations := ValidateState(next); len(violations) > 0 {
		return g.reject("load", "save failed validation: %s", strings.Join(violations, "; "))
	}
	g.state = next
	g.accumulator = 0
	g.options = state.Options{
		ScenarioID:       next.ScenarioID,
		BalanceProfileID: next.BalanceProfileID,
		Seed:             next.RNGSeed,
	}
	data := map[string]any{
		"tick":       next.Tick,
		"scenarioId": next.ScenarioID,
		"status":     string(next.Status),
	}
	if next.SaveMeta != nil {
		data["migratedFrom"] = next.SaveMeta.MigratedFrom
	}
	g.logger.Info("state loaded", "tick", next.Tick, "scenario", next.ScenarioID, "colonists", len(next.Colonists))
	g.emit(EventStateLoaded, data)
	return Result{OK: true, Data: data}
}
