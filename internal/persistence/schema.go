package persistence

import (
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidSave reports a save that is malformed even after migration.
var ErrInvalidSave = errors.New("invalid save")

const saveSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["tick", "timeSeconds", "day", "speed", "paused", "status",
               "scenarioId", "balanceProfileId", "rngSeed", "rngState",
               "resources", "colonists", "buildings", "constructionQueue",
               "research", "objectives", "metrics", "rules",
               "runSummaryHistory", "nextEntityId", "debug"],
  "properties": {
    "tick": {"type": "integer", "minimum": 0},
    "timeSeconds": {"type": "number", "minimum": 0},
    "day": {"type": "integer", "minimum": 1},
    "speed": {"type": "integer", "minimum": 1, "maximum": 4},
    "paused": {"type": "boolean"},
    "status": {"enum": ["playing", "won", "lost"]},
    "scenarioId": {"type": "string"},
    "balanceProfileId": {"type": "string"},
    "rngSeed": {"type": "string", "minLength": 1},
    "rngState": {"type": "integer", "minimum": 0, "maximum": 4294967295},
    "resources": {"type": "object", "additionalProperties": {"type": "number"}},
    "colonists": {"type": "array", "items": {"$ref": "#/definitions/colonist"}},
    "buildings": {"type": "array", "items": {"$ref": "#/definitions/building"}},
    "constructionQueue": {"type": "array", "items": {"$ref": "#/definitions/constructionItem"}},
    "research": {
      "type": "object",
      "required": ["completed", "progress"],
      "properties": {
        "completed": {"type": "array", "items": {"type": "string"}},
        "current": {"type": ["string", "null"]},
        "progress": {"type": "number"}
      }
    },
    "objectives": {
      "type": "object",
      "required": ["completed"],
      "properties": {"completed": {"type": "array", "items": {"type": "string"}}}
    },
    "metrics": {"type": "object", "additionalProperties": {"type": "integer"}},
    "rules": {"type": "object"},
    "runSummaryHistory": {"type": "array", "items": {"type": "object"}},
    "lastRunSummary": {"type": ["object", "null"]},
    "nextEntityId": {"type": "integer", "minimum": 1},
    "debug": {"type": "object"}
  },
  "definitions": {
    "colonist": {
      "type": "object",
      "required": ["id", "name", "alive", "job", "task", "position", "needs", "skills"],
      "properties": {
        "id": {"type": "integer"},
        "name": {"type": "string"},
        "age": {"type": "integer"},
        "alive": {"type": "boolean"},
        "job": {"type": "string"},
        "task": {"enum": ["Idle", "Working", "Resting", "Dead"]},
        "assignedBuildingId": {"type": ["integer", "null"]},
        "position": {"type": "object", "additionalProperties": {"type": "number"}},
        "needs": {"type": "object", "additionalProperties": {"type": "number"}},
        "skills": {"type": "object", "additionalProperties": {"type": "number"}}
      }
    },
    "building": {
      "type": "object",
      "required": ["id", "type", "x", "z", "size"],
      "properties": {
        "id": {"type": "integer"},
        "type": {"type": "string"},
        "x": {"type": "number"},
        "z": {"type": "number"},
        "size": {"type": "array", "items": {"type": "number"}},
        "isOperational": {"type": "boolean"},
        "health": {"type": "number"},
        "workersAssigned": {"type": "integer", "minimum": 0}
      }
    },
    "constructionItem": {
      "type": "object",
      "required": ["id", "buildingType", "x", "z", "progress", "buildTime"],
      "properties": {
        "id": {"type": "integer"},
        "buildingType": {"type": "string"},
        "progress": {"type": "number"},
        "buildTime": {"type": "number", "exclusiveMinimum": 0}
      }
    }
  }
}`

var saveSchema = jsonschema.MustCompileString("colony-save.schema.json", saveSchemaJSON)

// ValidateStructure checks a migrated save's shape and types. Cross-field
// invariants such as dangling references are the engine validator's job.
func ValidateStructure(doc map[string]any) error {
	if err := saveSchema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSave, err)
	}
	return nil
}
