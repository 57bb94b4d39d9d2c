package engine

import (
	"log/slog"
	"math"
	"time"

	"github.com/talgya/colony-sim/internal/content"
	"github.com/talgya/colony-sim/internal/state"
)

// FixedStep is the simulated length of one tick in seconds.
const FixedStep = 0.2

// stepEpsilon absorbs float drift in the accumulator.
const stepEpsilon = 1e-9

// systems run once per tick in this order.
var systems = []func(Context){
	RunColonistSystem,
	RunConstructionSystem,
	RunEconomySystem,
	RunResearchSystem,
	RunOutcomeSystem,
	RunObjectiveSystem,
}

// Game owns the colony state and is the only thing that mutates it. It is
// not safe for concurrent use; see Runner.
type Game struct {
	catalog     *content.Catalog
	options     state.Options
	state       *state.State
	bus         *EventBus
	accumulator float64
	now         func() time.Time
	logger      *slog.Logger
}

// New creates a game with a fresh run for opts.
func New(cat *content.Catalog, opts state.Options) *Game {
	g := &Game{
		catalog: cat,
		options: opts,
		bus:     NewEventBus(),
		now:     time.Now,
		logger:  slog.Default(),
	}
	g.state = state.CreateInitial(cat, opts)
	return g
}

// SetClock replaces the wall clock used to timestamp run summaries.
func (g *Game) SetClock(now func() time.Time) {
	g.now = now
}

// SetLogger replaces the logger used for command and lifecycle messages.
func (g *Game) SetLogger(l *slog.Logger) {
	g.logger = l
}

// State returns the live state. Callers must treat it as read-only.
func (g *Game) State() *state.State {
	return g.state
}

// Snapshot returns a deep copy of the state.
func (g *Game) Snapshot() *state.State {
	return g.state.Clone()
}

// Catalog returns the content the game was created with.
func (g *Game) Catalog() *content.Catalog {
	return g.catalog
}

// Options returns the options the current run was created with.
func (g *Game) Options() state.Options {
	return g.options
}

// On subscribes handler to topic and returns its unsubscribe function.
func (g *Game) On(topic EventType, handler Handler) func() {
	return g.bus.On(topic, handler)
}

func (g *Game) emit(t EventType, data map[string]any) {
	g.bus.Publish(Event{Type: t, Tick: g.state.Tick, Data: data})
}

// Update advances the simulation by deltaSeconds of wall time scaled by the
// current speed. Time is consumed in whole FixedStep ticks; any remainder is
// carried to the next call. It does nothing while paused or once the run
// is over.
func (g *Game) Update(deltaSeconds float64) {
	s := g.state
	if s.Status != state.StatusPlaying || s.Paused {
		return
	}
	if deltaSeconds <= 0 || math.IsNaN(deltaSeconds) || math.IsInf(deltaSeconds, 0) {
		return
	}
	g.accumulator += deltaSeconds * float64(s.Speed)
	for g.accumulator+stepEpsilon >= FixedStep {
		g.accumulator -= FixedStep
		g.Step(FixedStep)
		// A tick may end the run, pause on a violation, or a handler may
		// have swapped the state out.
		if g.state != s || s.Paused || s.Status != state.StatusPlaying {
			g.accumulator = 0
			return
		}
	}
}

// Step runs exactly one tick of dt simulated seconds, regardless of pause or
// status, then checks the state's invariants.
func (g *Game) Step(dt float64) {
	s := g.state
	s.Tick++
	s.TimeSeconds += dt
	s.Day = state.DayFor(s.TimeSeconds)

	ctx := Context{
		State:   s,
		Catalog: g.catalog,
		Delta:   dt,
		Emit:    g.emit,
		Now:     g.now,
	}
	for _, system := range systems {
		system(ctx)
	}
	g.checkInvariants()
}

// checkInvariants pauses the run and reports when the state is inconsistent.
// The violation list replaces the previous one rather than accumulating.
func (g *Game) checkInvariants() {
	s := g.state
	violations := ValidateState(s)
	if len(violations) == 0 {
		if len(s.Debug.InvariantViolations) > 0 {
			s.Debug.InvariantViolations = []string{}
		}
		return
	}
	s.Paused = true
	s.Debug.InvariantViolations = violations
	g.logger.Warn("state invariants violated, pausing",
		"tick", s.Tick,
		"violations", len(violations),
		"first", violations[0],
	)
	g.emit(EventStateInvalid, map[string]any{
		"violations": append([]string(nil), violations...),
	})
}
