package persistence

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/talgya/colony-sim/internal/content"
	"github.com/talgya/colony-sim/internal/entropy"
	"github.com/talgya/colony-sim/internal/state"
)

// SchemaVersion is the save layout this build writes and migrates to.
//
//	1: resources, colonists and buildings only
//	2: objectives, metrics and rules added
//	3: rngSeed/rngState, run summaries and saveMeta envelope
const SchemaVersion = 3

// MigrateSaveState upgrades an arbitrary decoded save to the current schema.
// Missing or malformed fields are filled with defaults derived from the
// save's scenario and balance profile; fields that are already well-typed are
// never overwritten. The candidate itself is not modified.
func MigrateSaveState(candidate any, cat *content.Catalog) (map[string]any, error) {
	root, err := toObject(candidate)
	if err != nil {
		return nil, err
	}

	from := 0
	if meta, ok := root["saveMeta"].(map[string]any); ok {
		if v, ok := number(meta["schemaVersion"]); ok {
			from = int(v)
		}
	}

	sc := cat.ScenarioOrDefault(stringOr(root["scenarioId"], ""))
	pr := cat.ProfileOrDefault(stringOr(root["balanceProfileId"], ""))
	if s, ok := root["scenarioId"].(string); !ok || s == "" {
		root["scenarioId"] = sc.ID
	}
	if s, ok := root["balanceProfileId"].(string); !ok || s == "" {
		root["balanceProfileId"] = pr.ID
	}

	migrateClock(root)
	migrateRNG(root)
	migrateResources(root)
	migrateColonists(root)
	migrateBuildings(root, cat)
	migrateQueue(root, cat)
	migrateResearch(root)
	migrateObjectives(root)
	migrateMetrics(root)
	if err := migrateRules(root, state.ResolveRules(sc, pr)); err != nil {
		return nil, err
	}
	migrateSummaries(root)
	migrateEntityCounter(root)

	debug := objectOr(root, "debug")
	if _, ok := debug["invariantViolations"].([]any); !ok {
		debug["invariantViolations"] = []any{}
	}

	savedAt := ""
	if meta, ok := root["saveMeta"].(map[string]any); ok {
		savedAt = stringOr(meta["savedAt"], "")
	}
	root["saveMeta"] = map[string]any{
		"schemaVersion": float64(SchemaVersion),
		"savedAt":       savedAt,
		"migratedFrom":  float64(from),
	}
	return root, nil
}

func migrateClock(root map[string]any) {
	tick, ok := number(root["tick"])
	if !ok || tick < 0 {
		tick = 0
		root["tick"] = tick
	}
	secs, ok := number(root["timeSeconds"])
	if !ok || secs < 0 {
		secs = tick * 0.2
		root["timeSeconds"] = secs
	}
	if day, ok := number(root["day"]); !ok || day < 1 {
		root["day"] = float64(state.DayFor(secs))
	}
	if speed, ok := number(root["speed"]); !ok {
		root["speed"] = float64(state.MinSpeed)
	} else {
		root["speed"] = math.Round(state.Clamp(speed, state.MinSpeed, state.MaxSpeed))
	}
	if _, ok := root["paused"].(bool); !ok {
		root["paused"] = false
	}
	switch root["status"] {
	case string(state.StatusPlaying), string(state.StatusWon), string(state.StatusLost):
	default:
		root["status"] = string(state.StatusPlaying)
	}
}

func migrateRNG(root map[string]any) {
	seed, ok := root["rngSeed"].(string)
	if !ok || seed == "" {
		seed = state.DefaultSeed
		root["rngSeed"] = seed
	}
	if v, ok := number(root["rngState"]); !ok || v < 0 || v > math.MaxUint32 || v != math.Trunc(v) {
		root["rngState"] = float64(entropy.SeedFromString(seed))
	}
}

func migrateResources(root map[string]any) {
	res := objectOr(root, "resources")
	for _, key := range content.Resources {
		if _, ok := number(res[string(key)]); !ok {
			res[string(key)] = 0.0
		}
	}
}

func migrateColonists(root map[string]any) {
	list := arrayOr(root, "colonists")
	for i, raw := range list {
		c, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if _, ok := c["name"].(string); !ok {
			c["name"] = fmt.Sprintf("Colonist %d", i+1)
		}
		if _, ok := c["alive"].(bool); !ok {
			c["alive"] = true
		}
		alive := c["alive"].(bool)
		if _, ok := c["job"].(string); !ok {
			c["job"] = string(content.JobLaborer)
		}
		if _, ok := c["affinity"].(string); !ok {
			c["affinity"] = c["job"]
		}
		if _, ok := c["trait"].(string); !ok {
			c["trait"] = ""
		}
		if _, ok := number(c["age"]); !ok {
			c["age"] = 30.0
		}
		if _, ok := c["task"].(string); !ok {
			if alive {
				c["task"] = string(state.TaskIdle)
			} else {
				c["task"] = string(state.TaskDead)
			}
		}
		if v, present := c["assignedBuildingId"]; present && v != nil {
			if _, ok := number(v); !ok {
				c["assignedBuildingId"] = nil
			}
		}
		pos := objectOr(c, "position")
		for _, k := range []string{"x", "z"} {
			if _, ok := number(pos[k]); !ok {
				pos[k] = 0.0
			}
		}
		if _, ok := number(pos["targetX"]); !ok {
			pos["targetX"] = pos["x"]
		}
		if _, ok := number(pos["targetZ"]); !ok {
			pos["targetZ"] = pos["z"]
		}
		needs := objectOr(c, "needs")
		for _, k := range []string{"hunger", "rest", "health", "morale"} {
			if _, ok := number(needs[k]); !ok {
				needs[k] = state.NeedMax
			}
		}
		skills := objectOr(c, "skills")
		for k, v := range skills {
			if _, ok := number(v); !ok {
				delete(skills, k)
			}
		}
	}
}

func migrateBuildings(root map[string]any, cat *content.Catalog) {
	for _, raw := range arrayOr(root, "buildings") {
		b, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		for _, k := range []string{"x", "z", "workersAssigned", "createdAt"} {
			if _, ok := number(b[k]); !ok {
				b[k] = 0.0
			}
		}
		if _, ok := b["isOperational"].(bool); !ok {
			b["isOperational"] = true
		}
		if _, ok := number(b["health"]); !ok {
			b["health"] = state.BuildingHealth
		}
		if _, present := b["size"]; !present {
			if def, ok := cat.Building(stringOr(b["type"], "")); ok {
				size := make([]any, len(def.Size))
				for i, v := range def.Size {
					size[i] = v
				}
				b["size"] = size
			}
		}
	}
}

func migrateQueue(root map[string]any, cat *content.Catalog) {
	for _, raw := range arrayOr(root, "constructionQueue") {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		for _, k := range []string{"x", "z", "progress"} {
			if _, ok := number(item[k]); !ok {
				item[k] = 0.0
			}
		}
		if _, ok := number(item["buildTime"]); !ok {
			if def, ok := cat.Building(stringOr(item["buildingType"], "")); ok {
				item["buildTime"] = def.BuildTime
			}
		}
	}
}

func migrateResearch(root map[string]any) {
	r := objectOr(root, "research")
	if _, ok := r["completed"].([]any); !ok {
		r["completed"] = []any{}
	}
	if cur, present := r["current"]; !present {
		r["current"] = nil
	} else if _, ok := cur.(string); !ok && cur != nil {
		r["current"] = nil
	}
	if _, ok := number(r["progress"]); !ok {
		r["progress"] = 0.0
	}
}

func migrateObjectives(root map[string]any) {
	o := objectOr(root, "objectives")
	list, ok := o["completed"].([]any)
	if !ok {
		o["completed"] = []any{}
		return
	}
	kept := list[:0]
	for _, v := range list {
		if _, ok := v.(string); ok {
			kept = append(kept, v)
		}
	}
	o["completed"] = kept
}

func migrateMetrics(root map[string]any) {
	m := objectOr(root, "metrics")
	for _, k := range []string{"deaths", "starvationTicks", "lowMoraleTicks", "buildingsConstructed", "researchCompleted", "objectivesCompleted"} {
		if _, ok := number(m[k]); !ok {
			m[k] = 0.0
		}
	}
	if _, ok := number(m["peakPopulation"]); !ok {
		alive := 0
		for _, raw := range root["colonists"].([]any) {
			if c, ok := raw.(map[string]any); ok && c["alive"] == true {
				alive++
			}
		}
		m["peakPopulation"] = float64(alive)
	}
}

// migrateRules fills absent rule fields from the resolved scenario and profile.
func migrateRules(root map[string]any, resolved state.Rules) error {
	defaults, err := toObject(resolved)
	if err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}
	rules, ok := root["rules"].(map[string]any)
	if !ok {
		root["rules"] = defaults
		return nil
	}
	for k, def := range defaults {
		switch def.(type) {
		case map[string]any:
			if _, ok := rules[k].(map[string]any); !ok {
				rules[k] = def
			}
		default:
			if _, ok := number(rules[k]); !ok {
				rules[k] = def
			}
		}
	}
	return nil
}

func migrateSummaries(root map[string]any) {
	history := arrayOr(root, "runSummaryHistory")
	if over := len(history) - state.MaxRunSummaries; over > 0 {
		root["runSummaryHistory"] = history[over:]
	}
	if last, present := root["lastRunSummary"]; !present {
		root["lastRunSummary"] = nil
	} else if _, ok := last.(map[string]any); !ok {
		root["lastRunSummary"] = nil
	}
}

// migrateEntityCounter keeps nextEntityId above every id already in use.
func migrateEntityCounter(root map[string]any) {
	maxID := 0.0
	for _, key := range []string{"colonists", "buildings", "constructionQueue"} {
		for _, raw := range root[key].([]any) {
			if obj, ok := raw.(map[string]any); ok {
				if id, ok := number(obj["id"]); ok && id > maxID {
					maxID = id
				}
			}
		}
	}
	if next, ok := number(root["nextEntityId"]); !ok || next <= maxID {
		root["nextEntityId"] = maxID + 1
	}
}

// toObject deep-copies v into generic JSON form and requires an object.
func toObject(v any) (map[string]any, error) {
	var raw []byte
	switch t := v.(type) {
	case nil:
		return nil, fmt.Errorf("%w: save is empty", ErrInvalidSave)
	case []byte:
		raw = t
	case string:
		raw = []byte(t)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSave, err)
		}
		raw = b
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSave, err)
	}
	obj, ok := out.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: save must be a JSON object", ErrInvalidSave)
	}
	return obj, nil
}

func number(v any) (float64, bool) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fallback
}

// objectOr returns parent[key] as an object, replacing it with an empty one
// when missing or mistyped.
func objectOr(parent map[string]any, key string) map[string]any {
	if obj, ok := parent[key].(map[string]any); ok {
		return obj
	}
	obj := map[string]any{}
	parent[key] = obj
	return obj
}

func arrayOr(parent map[string]any, key string) []any {
	if list, ok := parent[key].([]any); ok {
		return list
	}
	list := []any{}
	parent[key] = list
	return list
}
