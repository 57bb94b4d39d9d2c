package persistence

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/talgya/colony-sim/internal/content"
	"github.com/talgya/colony-sim/internal/state"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "colony.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLoadLatestEmpty(t *testing.T) {
	db := openTestDB(t)
	if _, _, err := db.LoadLatest(DefaultSlot); !errors.Is(err, ErrNoSave) {
		t.Fatalf("err = %v, want ErrNoSave", err)
	}
}

func TestSaveAndLoadLatest(t *testing.T) {
	db := openTestDB(t)
	cat := content.Default()

	first := state.CreateInitial(cat, state.Options{Seed: "one"})
	if _, err := db.SaveState(DefaultSlot, first, fixedNow); err != nil {
		t.Fatal(err)
	}
	second := state.CreateInitial(cat, state.Options{Seed: "two"})
	second.Tick = 99
	rec, err := db.SaveState(DefaultSlot, second, fixedNow.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if rec.Tick != 99 || rec.SchemaVersion != SchemaVersion {
		t.Errorf("record = %+v", rec)
	}

	data, got, err := db.LoadLatest(DefaultSlot)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != rec.ID {
		t.Errorf("latest id = %s, want %s", got.ID, rec.ID)
	}
	restored, err := Deserialize(data, cat)
	if err != nil {
		t.Fatal(err)
	}
	if restored.RNGSeed != "two" || restored.Tick != 99 {
		t.Errorf("restored seed=%q tick=%d", restored.RNGSeed, restored.Tick)
	}

	saves, err := db.ListSaves("", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(saves) != 2 {
		t.Fatalf("ListSaves = %d records, want 2", len(saves))
	}
	if n, err := db.PruneSaves(DefaultSlot, 1); err != nil || n != 1 {
		t.Fatalf("PruneSaves = %d, %v", n, err)
	}
}

func TestLatestWithinSameSecond(t *testing.T) {
	db := openTestDB(t)
	cat := content.Default()

	older := state.CreateInitial(cat, state.Options{Seed: "older"})
	older.Tick = 1
	if _, err := db.SaveState(DefaultSlot, older, fixedNow.Add(500*time.Millisecond)); err != nil {
		t.Fatal(err)
	}
	newer := state.CreateInitial(cat, state.Options{Seed: "newer"})
	newer.Tick = 2
	rec, err := db.SaveState(DefaultSlot, newer, fixedNow.Add(550*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}

	_, got, err := db.LoadLatest(DefaultSlot)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != rec.ID || got.Tick != 2 {
		t.Fatalf("latest tick=%d savedAt=%s, want tick 2", got.Tick, got.SavedAt)
	}

	if _, err := db.PruneSaves(DefaultSlot, 1); err != nil {
		t.Fatal(err)
	}
	saves, err := db.ListSaves(DefaultSlot, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(saves) != 1 || saves[0].ID != rec.ID {
		t.Fatalf("prune kept %+v, want the newest save", saves)
	}
}

func TestRunSummariesAndEvents(t *testing.T) {
	db := openTestDB(t)
	rs := state.RunSummary{
		ID: "run-1", Outcome: state.StatusLost, Reason: "starvation",
		ScenarioID: "harsh", BalanceProfileID: "brutal", Seed: "s",
		Day: 4, Tick: 1200, RecordedAt: fixedNow.Format(time.RFC3339),
	}
	if err := db.SaveRunSummary(rs); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveRunSummary(rs); err != nil {
		t.Fatalf("duplicate summary: %v", err)
	}
	got, err := db.RecentRunSummaries(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != rs {
		t.Fatalf("summaries = %+v", got)
	}

	events := []EventRecord{
		{Tick: 1, Type: "construction-queued", Data: `{"id":9}`},
		{Tick: 2, Type: "construction-complete", Data: `{"id":9}`},
	}
	if err := db.SaveEvents(events); err != nil {
		t.Fatal(err)
	}
	recent, err := db.RecentEvents(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 || recent[0].Type != "construction-complete" {
		t.Fatalf("recent = %+v", recent)
	}

	if err := db.SaveMeta("last_tick", "1200"); err != nil {
		t.Fatal(err)
	}
	if v, err := db.GetMeta("last_tick"); err != nil || v != "1200" {
		t.Fatalf("GetMeta = %q, %v", v, err)
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	cat := content.Default()
	s := state.CreateInitial(cat, state.Options{ScenarioID: "harsh"})
	data, err := Serialize(s, fixedNow)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "exports", "run"+ArchiveExt)
	if err := WriteArchive(path, data); err != nil {
		t.Fatal(err)
	}
	back, err := ReadArchive(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(back) != string(data) {
		t.Fatal("archive payload changed")
	}
}
