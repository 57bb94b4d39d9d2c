package engine

import (
	"testing"

	"github.com/talgya/colony-sim/internal/content"
	"github.com/talgya/colony-sim/internal/state"
)

// recorder collects emitted events for assertions.
type recorder struct {
	events []Event
}

func (r *recorder) emit(t EventType, data map[string]any) {
	r.events = append(r.events, Event{Type: t, Data: data})
}

func (r *recorder) handle(ev Event) {
	r.events = append(r.events, ev)
}

func (r *recorder) count(t EventType) int {
	n := 0
	for _, ev := range r.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

func newState(t *testing.T, scenario string) (*state.State, *content.Catalog) {
	t.Helper()
	cat := content.Default()
	return state.CreateInitial(cat, state.Options{ScenarioID: scenario, Seed: "test-" + scenario}), cat
}

func newContext(s *state.State, cat *content.Catalog, rec *recorder) Context {
	ctx := Context{State: s, Catalog: cat, Delta: FixedStep}
	if rec != nil {
		ctx.Emit = rec.emit
	}
	return ctx
}
