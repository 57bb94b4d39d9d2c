package engine

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/talgya/colony-sim/internal/content"
	"github.com/talgya/colony-sim/internal/persistence"
	"github.com/talgya/colony-sim/internal/state"
)

func newGame(t *testing.T, opts state.Options) (*Game, *recorder) {
	t.Helper()
	g := New(content.Default(), opts)
	rec := &recorder{}
	g.On(EventAll, rec.handle)
	return g, rec
}

func TestDeterministicTrajectory(t *testing.T) {
	run := func() *state.State {
		g, _ := newGame(t, state.Options{Seed: "determinism", ScenarioID: "frontier"})
		for i := 0; i < 900; i++ {
			if i == 50 {
				g.QueueBuilding("hut", 10, -10)
			}
			if i == 120 {
				g.HireColonist()
			}
			g.Step(FixedStep)
		}
		return g.State()
	}
	a, b := run(), run()

	if a.RNGState != b.RNGState {
		t.Fatalf("rngState diverged: %d vs %d", a.RNGState, b.RNGState)
	}
	if !reflect.DeepEqual(a.Resources, b.Resources) {
		t.Fatalf("resources diverged:\n%v\n%v", a.Resources, b.Resources)
	}
	if len(a.ConstructionQueue) != len(b.ConstructionQueue) {
		t.Fatal("construction queues diverged")
	}
	if len(a.Colonists) != len(b.Colonists) {
		t.Fatal("colonist counts diverged")
	}
	for i := range a.Colonists {
		if a.Colonists[i].Position != b.Colonists[i].Position || a.Colonists[i].Needs != b.Colonists[i].Needs {
			t.Fatalf("colonist %d diverged", a.Colonists[i].ID)
		}
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a, _ := newGame(t, state.Options{Seed: "alpha"})
	b, _ := newGame(t, state.Options{Seed: "beta"})
	for i := 0; i < 300; i++ {
		a.Step(FixedStep)
		b.Step(FixedStep)
	}
	if a.State().RNGState == b.State().RNGState {
		t.Fatal("rng streams identical for different seeds")
	}
	same := true
	for i := range a.State().Colonists {
		if a.State().Colonists[i].Position != b.State().Colonists[i].Position {
			same = false
		}
	}
	if same {
		t.Fatal("colonist positions identical for different seeds")
	}
}

func TestResourcesNeverNegative(t *testing.T) {
	g, _ := newGame(t, state.Options{ScenarioID: "harsh", BalanceProfileID: "brutal", Seed: "floor"})
	g.QueueBuilding("hut", 10, -10)
	for i := 0; i < 4000; i++ {
		g.Step(FixedStep)
		for res, v := range g.State().Resources {
			if v < 0 {
				t.Fatalf("tick %d: %s = %v", g.State().Tick, res, v)
			}
		}
		if len(g.State().Debug.InvariantViolations) > 0 {
			t.Fatalf("tick %d: violations %v", g.State().Tick, g.State().Debug.InvariantViolations)
		}
	}
}

func TestUpdateUsesFixedSteps(t *testing.T) {
	g, _ := newGame(t, state.Options{})
	g.Update(0.1)
	if g.State().Tick != 0 {
		t.Fatalf("partial step ran: tick %d", g.State().Tick)
	}
	g.Update(0.1)
	if g.State().Tick != 1 {
		t.Fatalf("tick = %d, want 1", g.State().Tick)
	}
	g.SetSpeed(4)
	g.Update(0.2)
	if g.State().Tick != 5 {
		t.Fatalf("tick = %d at speed 4, want 5", g.State().Tick)
	}
	if g.State().Day != 1 || g.State().TimeSeconds < 0.99 || g.State().TimeSeconds > 1.01 {
		t.Fatalf("clock = day %d, %vs", g.State().Day, g.State().TimeSeconds)
	}

	g.SetPaused(true)
	g.Update(10)
	if g.State().Tick != 5 {
		t.Fatal("paused game advanced")
	}
	g.SetPaused(false)
	g.State().Status = state.StatusWon
	g.Update(10)
	if g.State().Tick != 5 {
		t.Fatal("finished game advanced")
	}
}

func TestInvariantViolationPauses(t *testing.T) {
	g, rec := newGame(t, state.Options{})
	g.State().Resources[content.Wood] = -5
	g.Step(FixedStep)

	s := g.State()
	if !s.Paused {
		t.Fatal("game not paused on violation")
	}
	if len(s.Debug.InvariantViolations) == 0 || !strings.Contains(s.Debug.InvariantViolations[0], "wood") {
		t.Fatalf("violations = %v", s.Debug.InvariantViolations)
	}
	if rec.count(EventStateInvalid) != 1 {
		t.Fatalf("state-invalid events = %d", rec.count(EventStateInvalid))
	}

	tick := s.Tick
	g.Update(1)
	if s.Tick != tick {
		t.Fatal("update ran while paused")
	}

	s.Resources[content.Wood] = 5
	g.SetPaused(false)
	g.Step(FixedStep)
	if len(s.Debug.InvariantViolations) != 0 {
		t.Fatalf("violations not cleared: %v", s.Debug.InvariantViolations)
	}
}

func TestQueueBuildingCommand(t *testing.T) {
	g, rec := newGame(t, state.Options{})
	s := g.State()
	wood := s.Resources[content.Wood]

	tests := []struct {
		name         string
		buildingType string
		x, z         float64
		want         string
	}{
		{"unknown type", "castle", 10, -10, "unknown"},
		{"tech locked", "iron-mine", 10, -10, "mining"},
		{"overlapping", "hut", 0, 0, "cannot place"},
		{"outside world", "hut", 50, 0, "cannot place"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := g.QueueBuilding(tt.buildingType, tt.x, tt.z)
			if res.OK || !strings.Contains(res.Message, tt.want) {
				t.Fatalf("result = %+v, want failure mentioning %q", res, tt.want)
			}
		})
	}
	if s.Resources[content.Wood] != wood || len(s.ConstructionQueue) != 0 {
		t.Fatal("failed command changed state")
	}

	res := g.QueueBuilding("hut", 10, -10)
	if !res.OK {
		t.Fatalf("queue hut: %s", res.Message)
	}
	if len(s.ConstructionQueue) != 1 || rec.count(EventConstructionQueued) != 1 {
		t.Fatal("hut not queued")
	}

	s.Resources[content.Wood] = 0
	if res := g.QueueBuilding("hut", -14, -14); res.OK || !strings.Contains(res.Message, "resources") {
		t.Fatalf("result = %+v, want insufficient resources", res)
	}

	s.Status = state.StatusLost
	if res := g.QueueBuilding("hut", 14, 14); res.OK {
		t.Fatal("build accepted after the run ended")
	}
}

func TestHireColonistCommand(t *testing.T) {
	g, rec := newGame(t, state.Options{})
	s := g.State()

	s.Resources[content.Food] = 10
	if res := g.HireColonist(); res.OK || !strings.Contains(res.Message, "food") {
		t.Fatalf("result = %+v, want food failure", res)
	}

	s.Resources[content.Food] = 10000
	capacity := state.PopulationCapacity(s, g.Catalog())
	hired := 0
	for {
		res := g.HireColonist()
		if !res.OK {
			if !strings.Contains(res.Message, "capacity") {
				t.Fatalf("unexpected failure: %s", res.Message)
			}
			break
		}
		hired++
	}
	if state.AliveCount(s) != capacity {
		t.Fatalf("alive = %d, want capacity %d", state.AliveCount(s), capacity)
	}
	if rec.count(EventColonistHired) != hired || s.Metrics.PeakPopulation != capacity {
		t.Fatalf("hired %d, events %d, peak %d", hired, rec.count(EventColonistHired), s.Metrics.PeakPopulation)
	}
	if s.Resources[content.Food] != 10000-float64(hired)*g.Catalog().HireFoodCost {
		t.Fatalf("food = %v", s.Resources[content.Food])
	}
}

func TestBeginResearchCommand(t *testing.T) {
	g, rec := newGame(t, state.Options{})
	if res := g.BeginResearch("masonry"); res.OK {
		t.Fatal("masonry started without prerequisite")
	}
	g.State().Resources[content.Knowledge] = 50
	if res := g.BeginResearch("tool-making"); !res.OK {
		t.Fatalf("tool-making: %s", res.Message)
	}
	if rec.count(EventResearchStarted) != 1 {
		t.Fatal("research-started not emitted")
	}
}

func TestScenarioAndProfileSwitchReset(t *testing.T) {
	g, rec := newGame(t, state.Options{Seed: "switch"})
	g.Step(FixedStep)

	if res := g.SetScenario("atlantis"); res.OK {
		t.Fatal("unknown scenario accepted")
	}
	if g.State().Tick != 1 {
		t.Fatal("rejected switch reset the run")
	}

	if res := g.SetScenario("harsh"); !res.OK {
		t.Fatal(res.Message)
	}
	s := g.State()
	if s.ScenarioID != "harsh" || s.Tick != 0 || len(s.Colonists) != 5 || s.RNGSeed != "switch" {
		t.Fatalf("state after switch: scenario %s tick %d colonists %d seed %s", s.ScenarioID, s.Tick, len(s.Colonists), s.RNGSeed)
	}
	if rec.count(EventScenarioChange) != 1 || rec.count(EventGameReset) != 1 {
		t.Fatal("switch events missing")
	}

	if res := g.SetBalanceProfile("brutal"); !res.OK {
		t.Fatal(res.Message)
	}
	if g.State().BalanceProfileID != "brutal" || g.State().ScenarioID != "harsh" {
		t.Fatal("profile switch lost the scenario")
	}

	g.Step(FixedStep)
	g.Reset()
	if g.State().Tick != 0 || g.State().BalanceProfileID != "brutal" {
		t.Fatal("reset did not reuse the last options")
	}
}

func TestSpeedAndPauseCommands(t *testing.T) {
	g, rec := newGame(t, state.Options{})
	if res := g.SetSpeed(9); g.State().Speed != state.MaxSpeed || res.Data["speed"] != state.MaxSpeed {
		t.Fatalf("speed = %d", g.State().Speed)
	}
	g.SetSpeed(4)
	g.SetSpeed(0)
	if g.State().Speed != state.MinSpeed {
		t.Fatalf("speed = %d, want clamp to %d", g.State().Speed, state.MinSpeed)
	}
	if rec.count(EventSpeedChange) != 2 {
		t.Fatalf("speed-change events = %d, want 2", rec.count(EventSpeedChange))
	}

	g.TogglePause()
	g.TogglePause()
	if g.State().Paused || rec.count(EventPauseChange) != 2 {
		t.Fatal("toggle pause misbehaved")
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	g, _ := newGame(t, state.Options{})
	snap := g.Snapshot()
	snap.Resources[content.Food] = -1
	snap.Colonists[0].Needs.Health = 1
	snap.Buildings[0].Size[0] = 99
	s := g.State()
	if s.Resources[content.Food] < 0 || s.Colonists[0].Needs.Health == 1 || s.Buildings[0].Size[0] == 99 {
		t.Fatal("snapshot shares memory with live state")
	}
}

func TestLoadState(t *testing.T) {
	src, _ := newGame(t, state.Options{ScenarioID: "prosperous", Seed: "saved"})
	for i := 0; i < 40; i++ {
		src.Step(FixedStep)
	}
	data, err := persistence.Serialize(src.State(), time.Now())
	if err != nil {
		t.Fatal(err)
	}

	g, rec := newGame(t, state.Options{})
	res := g.LoadState(data)
	if !res.OK {
		t.Fatalf("load: %s", res.Message)
	}
	if g.State().Tick != 40 || g.State().ScenarioID != "prosperous" || g.State().RNGState != src.State().RNGState {
		t.Fatal("loaded state does not match the save")
	}
	if rec.count(EventStateLoaded) != 1 {
		t.Fatal("state-loaded not emitted")
	}
	if g.Options().Seed != "saved" {
		t.Fatalf("options not taken from save: %+v", g.Options())
	}

	// Loaded runs continue identically.
	src.Step(FixedStep)
	g.Step(FixedStep)
	if g.State().RNGState != src.State().RNGState {
		t.Fatal("loaded run diverged")
	}
}

func TestLoadStateRejectsInvalid(t *testing.T) {
	g, rec := newGame(t, state.Options{})
	live := g.State()

	broken := g.Snapshot()
	missing := 4242
	broken.Colonists[0].AssignedBuildingID = &missing

	for name, candidate := range map[string]any{
		"dangling reference": broken,
		"not json":           []byte("{"),
		"wrong types":        map[string]any{"buildings": "none", "colonists": []any{map[string]any{"id": "x"}}},
	} {
		res := g.LoadState(candidate)
		if res.OK {
			t.Fatalf("%s: load accepted", name)
		}
		if g.State() != live {
			t.Fatalf("%s: live state replaced", name)
		}
	}
	if rec.count(EventStateLoaded) != 0 {
		t.Fatal("state-loaded emitted for a rejected save")
	}
}

func TestLoadStateMigratesLegacySave(t *testing.T) {
	g, _ := newGame(t, state.Options{})
	legacy := map[string]any{
		"scenarioId": "harsh",
		"resources":  map[string]any{"food": 42.0},
		"colonists":  []any{},
		"buildings":  []any{},
	}
	res := g.LoadState(legacy)
	if !res.OK {
		t.Fatalf("legacy load: %s", res.Message)
	}
	s := g.State()
	if s.Resources[content.Food] != 42 || s.Objectives.Completed == nil || s.RNGSeed == "" {
		t.Fatalf("migrated state = %+v", s)
	}
	if s.SaveMeta == nil || s.SaveMeta.MigratedFrom != 0 {
		t.Fatalf("saveMeta = %+v", s.SaveMeta)
	}
}

func TestGameOverRecordsSummary(t *testing.T) {
	g, rec := newGame(t, state.Options{Seed: "doomed"})
	g.SetClock(func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) })
	for i := range g.State().Colonists {
		g.State().Colonists[i].Alive = false
		g.State().Colonists[i].Task = state.TaskDead
	}
	g.Step(FixedStep)
	s := g.State()
	if s.Status != state.StatusLost || rec.count(EventGameOver) != 1 {
		t.Fatalf("status = %s", s.Status)
	}
	if s.LastRunSummary.RecordedAt != "2026-05-01T00:00:00Z" || s.LastRunSummary.Seed != "doomed" {
		t.Fatalf("summary = %+v", s.LastRunSummary)
	}
	if res := g.HireColonist(); res.OK {
		t.Fatal("hire accepted after game over")
	}
}
