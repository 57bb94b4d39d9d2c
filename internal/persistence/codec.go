package persistence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/talgya/colony-sim/internal/content"
	"github.com/talgya/colony-sim/internal/state"
)

// Serialize encodes a copy of s stamped with the save envelope.
func Serialize(s *state.State, now time.Time) ([]byte, error) {
	out := s.Clone()
	from := SchemaVersion
	if s.SaveMeta != nil {
		from = s.SaveMeta.MigratedFrom
	}
	out.SaveMeta = &state.SaveMeta{
		SchemaVersion: SchemaVersion,
		SavedAt:       now.UTC().Format(time.RFC3339),
		MigratedFrom:  from,
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return data, nil
}

// Deserialize parses a save and always migrates it before decoding.
func Deserialize(data []byte, cat *content.Catalog) (*state.State, error) {
	return Restore(data, cat)
}

// Restore turns any candidate save (raw JSON bytes or string, a decoded
// JSON object, or a state value) into a state of the current schema. The
// result has passed migration and structural validation but not the
// engine's invariant check.
func Restore(candidate any, cat *content.Catalog) (*state.State, error) {
	doc, err := MigrateSaveState(candidate, cat)
	if err != nil {
		return nil, err
	}
	if err := ValidateStructure(doc); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSave, err)
	}
	var s state.State
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSave, err)
	}
	return &s, nil
}
