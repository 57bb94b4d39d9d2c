// Package persistence stores colony saves, run summaries and the event log
// in SQLite, and converts saves to and from the current schema.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/colony-sim/internal/state"
)

// ErrNoSave is returned when a slot has never been written.
var ErrNoSave = errors.New("no save found")

// DefaultSlot is the slot autosaves write to.
const DefaultSlot = "autosave"

// DB wraps a SQLite connection for colony persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS saves (
		id TEXT PRIMARY KEY,
		slot TEXT NOT NULL,
		saved_at TEXT NOT NULL,
		schema_version INTEGER NOT NULL,
		tick INTEGER NOT NULL,
		scenario_id TEXT NOT NULL,
		status TEXT NOT NULL,
		size INTEGER NOT NULL,
		payload BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_summaries (
		id TEXT PRIMARY KEY,
		outcome TEXT NOT NULL,
		reason TEXT NOT NULL,
		scenario_id TEXT NOT NULL,
		balance_profile_id TEXT NOT NULL,
		seed TEXT NOT NULL,
		day INTEGER NOT NULL,
		tick INTEGER NOT NULL,
		population INTEGER NOT NULL,
		peak_population INTEGER NOT NULL,
		research_completed INTEGER NOT NULL,
		objectives_completed INTEGER NOT NULL,
		recorded_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		type TEXT NOT NULL,
		data TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS colony_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_saves_slot ON saves(slot, saved_at);
	CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// savedAtLayout is fixed width so saved_at sorts chronologically as text.
const savedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SaveRecord describes a stored save without its payload.
type SaveRecord struct {
	ID            string `db:"id" json:"id"`
	Slot          string `db:"slot" json:"slot"`
	SavedAt       string `db:"saved_at" json:"savedAt"`
	SchemaVersion int    `db:"schema_version" json:"schemaVersion"`
	Tick          uint64 `db:"tick" json:"tick"`
	ScenarioID    string `db:"scenario_id" json:"scenarioId"`
	Status        string `db:"status" json:"status"`
	Size          int    `db:"size" json:"size"`
}

// SaveState serializes s and stores it compressed under slot.
func (db *DB) SaveState(slot string, s *state.State, now time.Time) (SaveRecord, error) {
	data, err := Serialize(s, now)
	if err != nil {
		return SaveRecord{}, err
	}
	blob := compress(data)
	rec := SaveRecord{
		ID:            uuid.NewString(),
		Slot:          slot,
		SavedAt:       now.UTC().Format(savedAtLayout),
		SchemaVersion: SchemaVersion,
		Tick:          s.Tick,
		ScenarioID:    s.ScenarioID,
		Status:        string(s.Status),
		Size:          len(data),
	}
	_, err = db.conn.Exec(`INSERT INTO saves
		(id, slot, saved_at, schema_version, tick, scenario_id, status, size, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Slot, rec.SavedAt, rec.SchemaVersion, rec.Tick,
		rec.ScenarioID, rec.Status, rec.Size, blob,
	)
	if err != nil {
		return SaveRecord{}, fmt.Errorf("insert save: %w", err)
	}
	slog.Info("colony saved",
		"slot", slot,
		"tick", s.Tick,
		"size", humanize.Bytes(uint64(len(data))),
		"stored", humanize.Bytes(uint64(len(blob))),
	)
	return rec, nil
}

// LoadLatest returns the newest serialized save in slot. The payload still
// has to go through migration before use.
func (db *DB) LoadLatest(slot string) ([]byte, SaveRecord, error) {
	var row struct {
		SaveRecord
		Payload []byte `db:"payload"`
	}
	err := db.conn.Get(&row, `SELECT id, slot, saved_at, schema_version, tick,
		scenario_id, status, size, payload
		FROM saves WHERE slot = ? ORDER BY saved_at DESC, rowid DESC LIMIT 1`, slot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, SaveRecord{}, fmt.Errorf("slot %q: %w", slot, ErrNoSave)
	}
	if err != nil {
		return nil, SaveRecord{}, err
	}
	data, err := decompress(row.Payload)
	if err != nil {
		return nil, SaveRecord{}, fmt.Errorf("%w: %v", ErrInvalidSave, err)
	}
	return data, row.SaveRecord, nil
}

// ListSaves returns the newest saves in slot, or in every slot when slot is empty.
func (db *DB) ListSaves(slot string, limit int) ([]SaveRecord, error) {
	var recs []SaveRecord
	query := `SELECT id, slot, saved_at, schema_version, tick, scenario_id, status, size
		FROM saves`
	args := []any{}
	if slot != "" {
		query += " WHERE slot = ?"
		args = append(args, slot)
	}
	query += " ORDER BY saved_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)
	err := db.conn.Select(&recs, query, args...)
	return recs, err
}

// PruneSaves keeps only the newest keep saves in slot.
func (db *DB) PruneSaves(slot string, keep int) (int64, error) {
	res, err := db.conn.Exec(`DELETE FROM saves WHERE slot = ? AND id NOT IN (
		SELECT id FROM saves WHERE slot = ? ORDER BY saved_at DESC, rowid DESC LIMIT ?)`,
		slot, slot, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type summaryRow struct {
	ID                  string `db:"id"`
	Outcome             string `db:"outcome"`
	Reason              string `db:"reason"`
	ScenarioID          string `db:"scenario_id"`
	BalanceProfileID    string `db:"balance_profile_id"`
	Seed                string `db:"seed"`
	Day                 int    `db:"day"`
	Tick                uint64 `db:"tick"`
	Population          int    `db:"population"`
	PeakPopulation      int    `db:"peak_population"`
	ResearchCompleted   int    `db:"research_completed"`
	ObjectivesCompleted int    `db:"objectives_completed"`
	RecordedAt          string `db:"recorded_at"`
}

// SaveRunSummary records a finished run. Recording the same run twice is a no-op.
func (db *DB) SaveRunSummary(rs state.RunSummary) error {
	_, err := db.conn.NamedExec(`INSERT OR IGNORE INTO run_summaries
		(id, outcome, reason, scenario_id, balance_profile_id, seed, day, tick,
		 population, peak_population, research_completed, objectives_completed, recorded_at)
		VALUES (:id, :outcome, :reason, :scenario_id, :balance_profile_id, :seed, :day, :tick,
		 :population, :peak_population, :research_completed, :objectives_completed, :recorded_at)`,
		summaryRow{
			ID: rs.ID, Outcome: string(rs.Outcome), Reason: rs.Reason,
			ScenarioID: rs.ScenarioID, BalanceProfileID: rs.BalanceProfileID, Seed: rs.Seed,
			Day: rs.Day, Tick: rs.Tick, Population: rs.Population, PeakPopulation: rs.PeakPopulation,
			ResearchCompleted: rs.ResearchCompleted, ObjectivesCompleted: rs.ObjectivesCompleted,
			RecordedAt: rs.RecordedAt,
		})
	if err != nil {
		return fmt.Errorf("insert run summary %s: %w", rs.ID, err)
	}
	return nil
}

// RecentRunSummaries returns the most recent N recorded runs, newest first.
func (db *DB) RecentRunSummaries(limit int) ([]state.RunSummary, error) {
	var rows []summaryRow
	err := db.conn.Select(&rows, `SELECT * FROM run_summaries
		ORDER BY recorded_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	out := make([]state.RunSummary, len(rows))
	for i, r := range rows {
		out[i] = state.RunSummary{
			ID: r.ID, Outcome: state.Status(r.Outcome), Reason: r.Reason,
			ScenarioID: r.ScenarioID, BalanceProfileID: r.BalanceProfileID, Seed: r.Seed,
			Day: r.Day, Tick: r.Tick, Population: r.Population, PeakPopulation: r.PeakPopulation,
			ResearchCompleted: r.ResearchCompleted, ObjectivesCompleted: r.ObjectivesCompleted,
			RecordedAt: r.RecordedAt,
		}
	}
	return out, nil
}

// EventRecord is one logged simulation event. Data is the JSON payload.
type EventRecord struct {
	Tick uint64 `db:"tick" json:"tick"`
	Type string `db:"type" json:"type"`
	Data string `db:"data" json:"data"`
}

// SaveEvents appends events to the log.
func (db *DB) SaveEvents(events []EventRecord) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (tick, type, data) VALUES (?, ?, ?)",
			e.Tick, e.Type, e.Data,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(limit int) ([]EventRecord, error) {
	var events []EventRecord
	err := db.conn.Select(&events,
		"SELECT tick, type, data FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	return events, err
}

// SaveMeta stores a key-value pair in colony metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO colony_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM colony_meta WHERE key = ?", key)
	return value, err
}
