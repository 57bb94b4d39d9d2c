package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/talgya/colony-sim/internal/state"
)

// maxFrameDelta bounds how much wall time a single frame may feed the game,
// so a stalled process does not replay minutes of ticks at once.
const maxFrameDelta = time.Second

// Runner drives a Game from the wall clock. Every access to the game, from
// the loop or from other goroutines, goes through the runner's lock.
type Runner struct {
	mu   sync.Mutex
	game *Game
	last time.Time
	day  int

	Interval      time.Duration // frame interval (default 50ms)
	AutosaveEvery time.Duration // 0 disables autosave

	// Callbacks, populated during setup. OnDay runs under the lock;
	// OnAutosave and OnStop receive a snapshot and run outside it.
	OnDay      func(g *Game, day int)
	OnAutosave func(snap *state.State)
	OnStop     func(snap *state.State)
}

// NewRunner wraps g with default settings.
func NewRunner(g *Game) *Runner {
	return &Runner{
		game:     g,
		day:      g.State().Day,
		Interval: 50 * time.Millisecond,
	}
}

// Do runs fn with exclusive access to the game. Event handlers fire inside
// fn's call stack, so they must not call Do themselves.
func (r *Runner) Do(fn func(g *Game)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.game)
}

// Snapshot returns a deep copy of the current state.
func (r *Runner) Snapshot() *state.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.game.Snapshot()
}

// Run advances the game every Interval until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	snap := r.Snapshot()
	slog.Info("simulation runner started", "tick", snap.Tick, "speed", snap.Speed, "scenario", snap.ScenarioID)

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	lastSave := time.Now()
	r.last = lastSave
	for {
		select {
		case <-ctx.Done():
			snap := r.Snapshot()
			if r.OnStop != nil {
				r.OnStop(snap)
			}
			slog.Info("simulation runner stopped", "tick", snap.Tick, "clock", Clock(snap))
			return
		case now := <-ticker.C:
			r.frame(now)
			if r.AutosaveEvery > 0 && now.Sub(lastSave) >= r.AutosaveEvery {
				lastSave = now
				if r.OnAutosave != nil {
					r.OnAutosave(r.Snapshot())
				}
			}
		}
	}
}

// frame feeds the wall time since the previous frame into the game.
func (r *Runner) frame(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delta := now.Sub(r.last)
	r.last = now
	if delta <= 0 {
		return
	}
	delta = min(delta, maxFrameDelta)
	r.game.Update(delta.Seconds())

	if day := r.game.State().Day; day != r.day {
		r.day = day
		if r.OnDay != nil {
			r.OnDay(r.game, day)
		}
	}
}

// Clock returns a human-readable simulation time such as "Day 3, 14:24",
// mapping each simulated day onto a 24-hour dial.
func Clock(s *state.State) string {
	frac := math.Mod(s.TimeSeconds, state.SecondsPerDay) / state.SecondsPerDay
	minutes := int(frac * 24 * 60)
	return fmt.Sprintf("Day %d, %02d:%02d", s.Day, minutes/60, minutes%60)
}
