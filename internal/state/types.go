// Package state provides the colony state model: the single mutable
// aggregate the engine owns, its entities, the factory that builds a fresh
// run from a scenario and balance profile, deep cloning and the read-only
// selectors the systems share.
package state

import (
	"github.com/talgya/colony-sim/internal/content"
)

// Status is the run outcome state.
type Status string

const (
	StatusPlaying Status = "playing"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
)

// Terminal reports whether the run has ended.
func (s Status) Terminal() bool {
	return s == StatusWon || s == StatusLost
}

// Task is what a colonist is doing this tick.
type Task string

const (
	TaskIdle    Task = "Idle"
	TaskWorking Task = "Working"
	TaskResting Task = "Resting"
	TaskDead    Task = "Dead"
)

// Need and skill bounds.
const (
	NeedMax  = 100.0
	SkillMax = 3.5
)

// Position holds a colonist's location and movement target on the ground plane.
type Position struct {
	X       float64 `json:"x"`
	Z       float64 `json:"z"`
	TargetX float64 `json:"targetX"`
	TargetZ float64 `json:"targetZ"`
}

// Needs are each clamped to [0, 100].
type Needs struct {
	Hunger float64 `json:"hunger"` // 100 = fed
	Rest   float64 `json:"rest"`
	Health float64 `json:"health"`
	Morale float64 `json:"morale"`
}

// Colonist is a person in the colony.
type Colonist struct {
	ID       int         `json:"id"`
	Name     string      `json:"name"`
	Trait    Trait       `json:"trait"`
	Age      int         `json:"age"`
	Alive    bool        `json:"alive"`
	Job      content.Job `json:"job"`
	Affinity content.Job `json:"affinity"`
	Task     Task        `json:"task"`

	// AssignedBuildingID is a weak reference to Building.ID.
	AssignedBuildingID *int `json:"assignedBuildingId"`

	Position Position                `json:"position"`
	Needs    Needs                   `json:"needs"`
	Skills   map[content.Job]float64 `json:"skills"`
}

// Building is a completed structure.
type Building struct {
	ID              int       `json:"id"`
	Type            string    `json:"type"`
	X               float64   `json:"x"`
	Z               float64   `json:"z"`
	Size            []float64 `json:"size"`
	IsOperational   bool      `json:"isOperational"`
	Health          float64   `json:"health"`
	WorkersAssigned int       `json:"workersAssigned"`
	CreatedAt       float64   `json:"createdAt"` // simulation seconds
}

// ConstructionItem is an in-progress construction order.
type ConstructionItem struct {
	ID           int     `json:"id"`
	BuildingType string  `json:"buildingType"`
	X            float64 `json:"x"`
	Z            float64 `json:"z"`
	Progress     float64 `json:"progress"`
	BuildTime    float64 `json:"buildTime"`
}

// Research tracks tech progress. Current is nil when nothing is being researched.
type Research struct {
	Completed []string `json:"completed"`
	Current   *string  `json:"current"`
	Progress  float64  `json:"progress"`
}

// Objectives latches awarded objective ids.
type Objectives struct {
	Completed []string `json:"completed"`
}

// Metrics are run-wide counters.
type Metrics struct {
	Deaths               int `json:"deaths"`
	StarvationTicks      int `json:"starvationTicks"`
	LowMoraleTicks       int `json:"lowMoraleTicks"`
	PeakPopulation       int `json:"peakPopulation"`
	BuildingsConstructed int `json:"buildingsConstructed"`
	ResearchCompleted    int `json:"researchCompleted"`
	ObjectivesCompleted  int `json:"objectivesCompleted"`
}

// Rules are the numeric multipliers resolved from scenario and balance profile.
type Rules struct {
	NeedDecayMultiplier              float64 `json:"needDecayMultiplier"`
	StarvationHealthDamageMultiplier float64 `json:"starvationHealthDamageMultiplier"`
	ExhaustionHealthDamageMultiplier float64 `json:"exhaustionHealthDamageMultiplier"`
	MoraleHealthDamageMultiplier     float64 `json:"moraleHealthDamageMultiplier"`
	ObjectiveRewardMultiplier        float64 `json:"objectiveRewardMultiplier"`

	ResourceMultipliers    map[content.Resource]float64 `json:"resourceMultipliers"`
	JobMultipliers         map[content.Job]float64      `json:"jobMultipliers"`
	JobPriorityMultipliers map[content.Job]float64      `json:"jobPriorityMultipliers"`

	BasePopulationCap int     `json:"basePopulationCap"`
	BaseStorageCap    float64 `json:"baseStorageCap"`
}

// RunSummary is recorded when a run reaches a terminal status.
type RunSummary struct {
	ID                  string `json:"id"`
	Outcome             Status `json:"outcome"`
	Reason              string `json:"reason"`
	ScenarioID          string `json:"scenarioId"`
	BalanceProfileID    string `json:"balanceProfileId"`
	Seed                string `json:"seed"`
	Day                 int    `json:"day"`
	Tick                uint64 `json:"tick"`
	Population          int    `json:"population"`
	PeakPopulation      int    `json:"peakPopulation"`
	ResearchCompleted   int    `json:"researchCompleted"`
	ObjectivesCompleted int    `json:"objectivesCompleted"`
	RecordedAt          string `json:"recordedAt"` // RFC 3339
}

// Debug holds diagnostics the engine persists alongside the state.
type Debug struct {
	InvariantViolations []string `json:"invariantViolations"`
}

// SaveMeta is the persistence envelope stamped by save migration.
type SaveMeta struct {
	SchemaVersion int    `json:"schemaVersion"`
	SavedAt       string `json:"savedAt,omitempty"`
	MigratedFrom  int    `json:"migratedFrom"`
}

// State is the root simulation aggregate.
type State struct {
	Tick        uint64  `json:"tick"`
	TimeSeconds float64 `json:"timeSeconds"`
	Day         int     `json:"day"`
	Speed       int     `json:"speed"`
	Paused      bool    `json:"paused"`
	Status      Status  `json:"status"`

	ScenarioID       string `json:"scenarioId"`
	BalanceProfileID string `json:"balanceProfileId"`
	RNGSeed          string `json:"rngSeed"`
	RNGState         uint32 `json:"rngState"`

	Resources         map[content.Resource]float64 `json:"resources"`
	Colonists         []Colonist                   `json:"colonists"`
	Buildings         []Building                   `json:"buildings"`
	ConstructionQueue []ConstructionItem           `json:"constructionQueue"`
	Research          Research                     `json:"research"`
	Objectives        Objectives                   `json:"objectives"`
	Metrics           Metrics                      `json:"metrics"`
	Rules             Rules                        `json:"rules"`

	RunSummaryHistory []RunSummary `json:"runSummaryHistory"`
	LastRunSummary    *RunSummary  `json:"lastRunSummary"`

	NextEntityID int       `json:"nextEntityId"`
	Debug        Debug     `json:"debug"`
	SaveMeta     *SaveMeta `json:"saveMeta,omitempty"`
}

// Simulation clock constants.
const (
	SecondsPerDay   = 60.0
	MinSpeed        = 1
	MaxSpeed        = 4
	MaxRunSummaries = 20
	DefaultSeed     = "first-landing"
	WanderRadius    = 12.0
	BuildingHealth  = 100.0
	SpawnJitter     = 3.0
)

// DayFor returns the 1-based day number at a simulation time.
func DayFor(seconds float64) int {
	return int(seconds/SecondsPerDay) + 1
}
