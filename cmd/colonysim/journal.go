package main

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/talgya/colony-sim/internal/engine"
	"github.com/talgya/colony-sim/internal/persistence"
	"github.com/talgya/colony-sim/internal/state"
)

// maxPending bounds the journal between flushes; older events are dropped.
const maxPending = 4096

// journal buffers engine events and finished runs until the next flush.
// record runs inside the runner lock, so it only appends; flush does the I/O.
type journal struct {
	mu        sync.Mutex
	events    []persistence.EventRecord
	summaries []state.RunSummary
	dropped   int
}

func (j *journal) record(ev engine.Event) {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		slog.Error("encode event", "type", ev.Type, "error", err)
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.events) >= maxPending {
		j.events = j.events[1:]
		j.dropped++
	}
	j.events = append(j.events, persistence.EventRecord{Tick: ev.Tick, Type: string(ev.Type), Data: string(data)})
	if ev.Type == engine.EventGameOver {
		if rs, ok := ev.Data["summary"].(state.RunSummary); ok {
			j.summaries = append(j.summaries, rs)
		}
	}
}

func (j *journal) take() ([]persistence.EventRecord, []state.RunSummary, int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	events, summaries, dropped := j.events, j.summaries, j.dropped
	j.events, j.summaries, j.dropped = nil, nil, 0
	return events, summaries, dropped
}

// flush writes everything buffered so far. Failed writes are logged and lost.
func (j *journal) flush(db *persistence.DB) {
	events, summaries, dropped := j.take()
	if dropped > 0 {
		slog.Warn("event journal overflowed", "dropped", dropped)
	}
	for _, rs := range summaries {
		if err := db.SaveRunSummary(rs); err != nil {
			slog.Error("save run summary failed", "id", rs.ID, "error", err)
		}
	}
	if err := db.SaveEvents(events); err != nil {
		slog.Error("save events failed", "count", len(events), "error", err)
	}
}
