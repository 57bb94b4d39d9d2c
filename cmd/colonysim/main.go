// Command colonysim runs a colony simulation with an HTTP control plane.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/talgya/colony-sim/internal/api"
	"github.com/talgya/colony-sim/internal/config"
	"github.com/talgya/colony-sim/internal/content"
	"github.com/talgya/colony-sim/internal/engine"
	"github.com/talgya/colony-sim/internal/persistence"
	"github.com/talgya/colony-sim/internal/state"
	"github.com/talgya/colony-sim/internal/world"
)

// Saves kept per slot after each autosave.
const keepSaves = 10

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	setupLogging(cfg)

	if err := run(cfg); err != nil {
		slog.Error("colonysim failed", "error", err)
		os.Exit(1)
	}
}

func setupLogging(cfg config.Config) {
	level, _ := cfg.Level()
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func run(cfg config.Config) error {
	cat, err := content.Load(cfg.ContentPath)
	if err != nil {
		return err
	}

	// ── Database ──────────────────────────────────────────────────────
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// ── Game (restored from an archive or the latest save if present) ─
	game := engine.New(cat, state.Options{
		ScenarioID:       cfg.Scenario,
		BalanceProfileID: cfg.Profile,
		Seed:             cfg.Seed,
	})
	game.SetLogger(slog.Default())
	if !restore(game, db, cfg.ImportPath) {
		game.SetSpeed(cfg.Speed)
	}
	snap := game.Snapshot()

	terrain := world.New(snap.RNGSeed, world.DefaultConfig())
	for ground, count := range world.GroundCounts(terrain.Sample(cat.MaxWorldRadius, 2)) {
		slog.Debug("terrain", "ground", ground, "samples", count)
	}

	if err := db.SaveMeta("last_started", time.Now().UTC().Format(time.RFC3339)); err != nil {
		slog.Warn("save metadata failed", "error", err)
	}

	// ── Event fan-out ─────────────────────────────────────────────────
	hub := api.NewHub()
	var events journal
	game.On(engine.EventAll, hub.Broadcast)
	game.On(engine.EventAll, events.record)

	// ── Runner ────────────────────────────────────────────────────────
	save := func(snap *state.State) {
		events.flush(db)
		if _, err := db.SaveState(persistence.DefaultSlot, snap, time.Now()); err != nil {
			slog.Error("autosave failed", "error", err)
			return
		}
		if n, err := db.PruneSaves(persistence.DefaultSlot, keepSaves); err != nil {
			slog.Error("prune saves failed", "error", err)
		} else if n > 0 {
			slog.Debug("pruned old saves", "count", n)
		}
	}

	runner := engine.NewRunner(game)
	runner.Interval = cfg.FrameInterval()
	runner.AutosaveEvery = cfg.AutosaveInterval()
	runner.OnAutosave = save
	runner.OnDay = func(g *engine.Game, day int) {
		s := g.State()
		slog.Info("new day",
			"day", day,
			"population", state.AliveCount(s),
			"buildings", len(s.Buildings),
			"food", int(s.Resources[content.Food]),
			"status", s.Status,
		)
	}
	runner.OnStop = func(snap *state.State) {
		slog.Info("final save...")
		save(snap)
		if cfg.ExportPath != "" {
			exportArchive(snap, cfg.ExportPath)
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.AdminKey == "" {
		slog.Warn("COLONY_ADMIN_KEY not set, command endpoints will be disabled")
	}
	server := &api.Server{
		Runner:      runner,
		DB:          db,
		Hub:         hub,
		Port:        cfg.APIPort,
		AdminKey:    cfg.AdminKey,
		CORSOrigins: cfg.CORSOrigins,
	}

	// ── Start ─────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		hub.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := server.ListenAndServe(ctx, cfg.ShutdownTimeout); err != nil {
			slog.Error("HTTP API error", "error", err)
			stop()
		}
	}()

	fmt.Printf("\nColony %q is alive: %d colonists, %d buildings (%s / %s).\n",
		snap.RNGSeed, state.AliveCount(snap), len(snap.Buildings), snap.ScenarioID, snap.BalanceProfileID)
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.APIPort)
	if snap.Tick > 0 {
		fmt.Printf("Resuming from tick %d (%s)\n", snap.Tick, engine.Clock(snap))
	}
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	runner.Run(ctx)
	wg.Wait()

	fmt.Println("Simulation stopped. Colony saved.")
	return nil
}

// restore loads an import archive when given, else the latest autosave.
// It reports whether a saved run replaced the fresh one.
func restore(game *engine.Game, db *persistence.DB, importPath string) bool {
	var (
		data   []byte
		source string
		err    error
	)
	if importPath != "" {
		data, err = persistence.ReadArchive(importPath)
		source = importPath
	} else {
		data, _, err = db.LoadLatest(persistence.DefaultSlot)
		source = "autosave"
	}
	if errors.Is(err, persistence.ErrNoSave) {
		slog.Info("no saved colony found, starting fresh")
		return false
	}
	if err != nil {
		slog.Error("read save failed, starting fresh", "source", source, "error", err)
		return false
	}
	res := game.LoadState(data)
	if !res.OK {
		slog.Error("save rejected, starting fresh", "source", source, "reason", res.Message)
		return false
	}
	slog.Info("colony restored", "source", source, "tick", res.Data["tick"])
	return true
}

func exportArchive(snap *state.State, path string) {
	data, err := persistence.Serialize(snap, time.Now())
	if err != nil {
		slog.Error("export failed", "error", err)
		return
	}
	if filepath.Ext(path) == "" {
		path += persistence.ArchiveExt
	}
	if err := persistence.WriteArchive(path, data); err != nil {
		slog.Error("export failed", "path", path, "error", err)
		return
	}
	slog.Info("colony exported", "path", path)
}
