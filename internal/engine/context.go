package engine

import (
	"time"

	"github.com/talgya/colony-sim/internal/content"
	"github.com/talgya/colony-sim/internal/state"
)

// Context is what every system receives for one call. Systems mutate State
// in place and must not keep any of these references after returning.
type Context struct {
	State   *state.State
	Catalog *content.Catalog
	Delta   float64 // simulated seconds
	Emit    EmitFunc
	Now     func() time.Time // wall clock for run summaries; nil in tests
}

// emit tolerates a nil Emit so systems can be driven directly in tests.
func (c Context) emit(t EventType, data map[string]any) {
	if c.Emit != nil {
		c.Emit(t, data)
	}
}
