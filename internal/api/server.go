// Package api serves the colony over HTTP.
// GET endpoints are public and read-only.
// POST endpoints are player commands and require a bearer token.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/talgya/colony-sim/internal/content"
	"github.com/talgya/colony-sim/internal/engine"
	"github.com/talgya/colony-sim/internal/persistence"
	"github.com/talgya/colony-sim/internal/state"
	"github.com/talgya/colony-sim/internal/world"
)

const (
	maxBodyBytes   = 8 << 20
	defaultSpacing = 2.0
	defaultLimit   = 20
	maxLimit       = 200
)

// Server exposes a running colony. All game access goes through Runner.
type Server struct {
	Runner      *engine.Runner
	DB          *persistence.DB // optional; save, load and history need it
	Hub         *Hub            // optional; nil disables /stream
	Port        int
	AdminKey    string // Bearer token for POST endpoints. Empty = POST disabled.
	CORSOrigins []string

	// Commands per second per client IP.
	CommandRate  float64
	CommandBurst int

	limiter *RateLimiter

	terrainMu   sync.Mutex
	terrainSeed string
	terrain     *world.Terrain
}

// Handler builds the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	rate, burst := s.CommandRate, s.CommandBurst
	if rate <= 0 {
		rate = 5
	}
	if burst <= 0 {
		burst = 10
	}
	limiter := NewRateLimiter(rate, burst)
	command := func(h http.HandlerFunc) http.HandlerFunc {
		return postOnly(s.adminOnly(RateLimitMiddleware(limiter, h)))
	}

	mux := http.NewServeMux()

	// Public endpoints.
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/state", s.handleState)
	mux.HandleFunc("/api/v1/colonists", s.handleColonists)
	mux.HandleFunc("/api/v1/buildings", s.handleBuildings)
	mux.HandleFunc("/api/v1/catalog", s.handleCatalog)
	mux.HandleFunc("/api/v1/terrain", s.handleTerrain)
	mux.HandleFunc("/api/v1/summaries", s.handleSummaries)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/saves", s.handleSaves)
	if s.Hub != nil {
		mux.HandleFunc("/api/v1/stream", s.Hub.ServeWS)
	}

	// Commands.
	mux.HandleFunc("/api/v1/build", command(s.handleBuild))
	mux.HandleFunc("/api/v1/hire", command(s.handleHire))
	mux.HandleFunc("/api/v1/research", command(s.handleResearch))
	mux.HandleFunc("/api/v1/speed", command(s.handleSpeed))
	mux.HandleFunc("/api/v1/pause", command(s.handlePause))
	mux.HandleFunc("/api/v1/scenario", command(s.handleScenario))
	mux.HandleFunc("/api/v1/profile", command(s.handleProfile))
	mux.HandleFunc("/api/v1/reset", command(s.handleReset))
	mux.HandleFunc("/api/v1/save", command(s.handleSave))
	mux.HandleFunc("/api/v1/load", command(s.handleLoad))

	s.limiter = limiter

	return corsMiddleware(s.CORSOrigins, mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", srv.Addr, "admin_auth", s.AdminKey != "", "stream", s.Hub != nil)

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	go s.sweepLimiter(ctx)

	select {
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	slog.Info("HTTP API stopped")
	return nil
}

func (s *Server) sweepLimiter(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.limiter.Sweep(30 * time.Minute); n > 0 {
				slog.Debug("rate limiter swept idle clients", "dropped", n)
			}
		}
	}
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Localhost dev servers are always allowed.
func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	for _, origin := range origins {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowedOrigins[origin] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "commands disabled (no COLONY_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func postOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}

// view returns a snapshot and the (immutable) catalog in one lock.
func (s *Server) view() (*state.State, *content.Catalog) {
	var snap *state.State
	var cat *content.Catalog
	s.Runner.Do(func(g *engine.Game) {
		snap = g.Snapshot()
		cat = g.Catalog()
	})
	return snap, cat
}

func (s *Server) exec(fn func(g *engine.Game) engine.Result) engine.Result {
	var res engine.Result
	s.Runner.Do(func(g *engine.Game) { res = fn(g) })
	return res
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, cat := s.view()

	var current any
	if snap.Research.Current != nil {
		current = *snap.Research.Current
	}
	status := map[string]any{
		"tick":             snap.Tick,
		"day":              snap.Day,
		"clock":            engine.Clock(snap),
		"time_seconds":     snap.TimeSeconds,
		"speed":            snap.Speed,
		"paused":           snap.Paused,
		"status":           snap.Status,
		"scenario_id":      snap.ScenarioID,
		"balance_profile":  snap.BalanceProfileID,
		"seed":             snap.RNGSeed,
		"resources":        snap.Resources,
		"buildings":        len(snap.Buildings),
		"queued":           len(snap.ConstructionQueue),
		"objectives_done":  len(snap.Objectives.Completed),
		"violations":       snap.Debug.InvariantViolations,
		"last_run_summary": snap.LastRunSummary,
		"population": map[string]any{
			"alive":    state.AliveCount(snap),
			"capacity": state.PopulationCapacity(snap, cat),
			"peak":     snap.Metrics.PeakPopulation,
			"deaths":   snap.Metrics.Deaths,
			"morale":   state.AverageMorale(snap),
			"hunger":   state.AverageHunger(snap),
		},
		"storage": map[string]any{
			"stored":   state.TotalStored(snap),
			"capacity": state.StorageCapacity(snap, cat),
		},
		"research": map[string]any{
			"current":   current,
			"progress":  snap.Research.Progress,
			"completed": len(snap.Research.Completed),
		},
	}
	if s.Hub != nil {
		status["stream_clients"] = s.Hub.Clients()
	}
	writeJSON(w, status)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Runner.Snapshot())
}

// handleColonists lists colonists; ?alive=true hides the dead.
func (s *Server) handleColonists(w http.ResponseWriter, r *http.Request) {
	snap := s.Runner.Snapshot()
	aliveOnly := r.URL.Query().Get("alive") == "true"
	out := make([]state.Colonist, 0, len(snap.Colonists))
	for _, c := range snap.Colonists {
		if aliveOnly && !c.Alive {
			continue
		}
		out = append(out, c)
	}
	writeJSON(w, out)
}

func (s *Server) handleBuildings(w http.ResponseWriter, r *http.Request) {
	snap := s.Runner.Snapshot()
	writeJSON(w, map[string]any{
		"buildings":          snap.Buildings,
		"construction_queue": snap.ConstructionQueue,
	})
}

// handleCatalog returns content tables annotated with what the colony can use now.
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	snap, cat := s.view()

	type buildingEntry struct {
		content.BuildingDef
		Unlocked   bool `json:"unlocked"`
		Affordable bool `json:"affordable"`
	}
	type techEntry struct {
		content.TechDef
		Available bool `json:"available"`
		Completed bool `json:"completed"`
	}
	type objectiveEntry struct {
		engine.Objective
		Completed bool `json:"completed"`
	}

	available := state.AvailableTechs(snap, cat)
	buildings := make([]buildingEntry, 0, len(cat.Buildings))
	for _, id := range cat.BuildingIDs() {
		def := cat.Buildings[id]
		buildings = append(buildings, buildingEntry{
			BuildingDef: def,
			Unlocked:    state.IsBuildingUnlocked(snap, def),
			Affordable:  state.CanAfford(snap, def.Cost),
		})
	}
	techs := make([]techEntry, 0, len(cat.Techs))
	for _, id := range cat.TechIDs() {
		techs = append(techs, techEntry{
			TechDef:   cat.Techs[id],
			Available: slices.Contains(available, id),
			Completed: state.HasTech(snap, id),
		})
	}
	var objectives []objectiveEntry
	for _, o := range engine.Objectives() {
		objectives = append(objectives, objectiveEntry{
			Objective: o,
			Completed: slices.Contains(snap.Objectives.Completed, o.ID),
		})
	}
	scenarios := make([]content.Scenario, 0, len(cat.Scenarios))
	for _, id := range cat.ScenarioIDs() {
		scenarios = append(scenarios, cat.Scenarios[id])
	}
	profiles := make([]content.BalanceProfile, 0, len(cat.Profiles))
	for _, id := range cat.ProfileIDs() {
		profiles = append(profiles, cat.Profiles[id])
	}

	writeJSON(w, map[string]any{
		"buildings":  buildings,
		"techs":      techs,
		"objectives": objectives,
		"scenarios":  scenarios,
		"profiles":   profiles,
		"hire_cost":  cat.HireFoodCost,
		"radius":     cat.MaxWorldRadius,
	})
}

// handleTerrain samples the seed's terrain across the build radius.
// ?spacing=N sets the grid step (0.5 to 10).
func (s *Server) handleTerrain(w http.ResponseWriter, r *http.Request) {
	spacing := defaultSpacing
	if v := r.URL.Query().Get("spacing"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0.5 || f > 10 {
			http.Error(w, "spacing must be between 0.5 and 10", http.StatusBadRequest)
			return
		}
		spacing = f
	}
	snap, cat := s.view()
	grid := s.terrainFor(snap.RNGSeed).Sample(cat.MaxWorldRadius, spacing)
	writeJSON(w, map[string]any{
		"seed":   snap.RNGSeed,
		"grid":   grid,
		"ground": world.GroundCounts(grid),
	})
}

func (s *Server) terrainFor(seed string) *world.Terrain {
	s.terrainMu.Lock()
	defer s.terrainMu.Unlock()
	if s.terrain == nil || s.terrainSeed != seed {
		s.terrain = world.New(seed, world.DefaultConfig())
		s.terrainSeed = seed
	}
	return s.terrain
}

// handleSummaries returns finished runs, newest first. The database keeps
// every run; without one the state's bounded history is used.
func (s *Server) handleSummaries(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	if s.DB != nil {
		summaries, err := s.DB.RecentRunSummaries(limit)
		if err != nil {
			slog.Error("load run summaries", "error", err)
			http.Error(w, "failed to load run summaries", http.StatusInternalServerError)
			return
		}
		writeJSON(w, summaries)
		return
	}
	history := s.Runner.Snapshot().RunSummaryHistory
	out := make([]state.RunSummary, 0, len(history))
	for i := len(history) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, history[i])
	}
	writeJSON(w, out)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	events, err := s.DB.RecentEvents(limit)
	if err != nil {
		slog.Error("load events", "error", err)
		http.Error(w, "failed to load events", http.StatusInternalServerError)
		return
	}
	writeJSON(w, events)
}

// handleSaves lists stored saves for ?slot= (default autosave).
func (s *Server) handleSaves(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	slot := r.URL.Query().Get("slot")
	if slot == "" {
		slot = persistence.DefaultSlot
	}
	saves, err := s.DB.ListSaves(slot, limit)
	if err != nil {
		slog.Error("list saves", "slot", slot, "error", err)
		http.Error(w, "failed to list saves", http.StatusInternalServerError)
		return
	}
	writeJSON(w, saves)
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type string  `json:"type"`
		X    float64 `json:"x"`
		Z    float64 `json:"z"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	writeResult(w, s.exec(func(g *engine.Game) engine.Result {
		return g.QueueBuilding(req.Type, req.X, req.Z)
	}))
}

func (s *Server) handleHire(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.exec((*engine.Game).HireColonist))
}

func (s *Server) handleResearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TechID string `json:"tech_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	writeResult(w, s.exec(func(g *engine.Game) engine.Result {
		return g.BeginResearch(req.TechID)
	}))
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Speed int `json:"speed"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	writeResult(w, s.exec(func(g *engine.Game) engine.Result {
		return g.SetSpeed(req.Speed)
	}))
}

// handlePause sets {"paused": bool}, or toggles when the field is absent.
func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Paused *bool `json:"paused"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	writeResult(w, s.exec(func(g *engine.Game) engine.Result {
		if req.Paused == nil {
			return g.TogglePause()
		}
		return g.SetPaused(*req.Paused)
	}))
}

func (s *Server) handleScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	writeResult(w, s.exec(func(g *engine.Game) engine.Result {
		return g.SetScenario(req.ID)
	}))
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	writeResult(w, s.exec(func(g *engine.Game) engine.Result {
		return g.SetBalanceProfile(req.ID)
	}))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.exec((*engine.Game).Reset))
}

// handleSave stores the current state under {"slot": name}.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	var req struct {
		Slot string `json:"slot"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Slot == "" {
		req.Slot = persistence.DefaultSlot
	}
	rec, err := s.DB.SaveState(req.Slot, s.Runner.Snapshot(), time.Now())
	if err != nil {
		slog.Error("manual save failed", "slot", req.Slot, "error", err)
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, engine.Result{OK: true, Message: "saved", Data: map[string]any{"save": rec}})
}

// handleLoad replaces the state with an inline {"state": {...}} document or
// the newest save in {"slot": name}.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Slot  string          `json:"slot"`
		State json.RawMessage `json:"state"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	data := []byte(req.State)
	if len(data) == 0 {
		if !s.requireDB(w) {
			return
		}
		if req.Slot == "" {
			req.Slot = persistence.DefaultSlot
		}
		var err error
		data, _, err = s.DB.LoadLatest(req.Slot)
		if errors.Is(err, persistence.ErrNoSave) {
			http.Error(w, fmt.Sprintf("no save in slot %q", req.Slot), http.StatusNotFound)
			return
		}
		if err != nil {
			slog.Error("load save failed", "slot", req.Slot, "error", err)
			http.Error(w, "load failed", http.StatusInternalServerError)
			return
		}
	}
	writeResult(w, s.exec(func(g *engine.Game) engine.Result {
		return g.LoadState(data)
	}))
}

func (s *Server) requireDB(w http.ResponseWriter) bool {
	if s.DB == nil {
		http.Error(w, "persistence disabled", http.StatusServiceUnavailable)
		return false
	}
	return true
}

// decodeBody decodes an optional JSON body into dst. An empty body leaves
// dst untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
	if err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultLimit, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > maxLimit {
		http.Error(w, fmt.Sprintf("limit must be between 1 and %d", maxLimit), http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

// writeResult maps a rejected command to 422 Unprocessable Entity.
func writeResult(w http.ResponseWriter, res engine.Result) {
	if !res.OK {
		writeJSONStatus(w, http.StatusUnprocessableEntity, res)
		return
	}
	writeJSON(w, res)
}

func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
