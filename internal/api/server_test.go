package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/colony-sim/internal/content"
	"github.com/talgya/colony-sim/internal/engine"
	"github.com/talgya/colony-sim/internal/persistence"
	"github.com/talgya/colony-sim/internal/state"
)

const testKey = "secret"

func newTestServer(t *testing.T, withDB bool) (*Server, http.Handler) {
	t.Helper()
	g := engine.New(content.Default(), state.Options{Seed: "api-test"})
	s := &Server{Runner: engine.NewRunner(g), AdminKey: testKey}
	if withDB {
		db, err := persistence.Open(filepath.Join(t.TempDir(), "colony.db"))
		if err != nil {
			t.Fatalf("open db: %v", err)
		}
		t.Cleanup(func() { db.Close() })
		s.DB = db
	}
	return s, s.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if method == http.MethodPost {
		req.Header.Set("Authorization", "Bearer "+testKey)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestStatus(t *testing.T) {
	_, h := newTestServer(t, false)
	rec := do(t, h, http.MethodGet, "/api/v1/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}
	body := decode[map[string]any](t, rec)
	if body["status"] != "playing" || body["seed"] != "api-test" {
		t.Errorf("status = %v, seed = %v", body["status"], body["seed"])
	}
	pop := body["population"].(map[string]any)
	if pop["alive"].(float64) <= 0 {
		t.Errorf("population = %v", pop)
	}
	if body["clock"] != "Day 1, 00:00" {
		t.Errorf("clock = %v", body["clock"])
	}
}

func TestCommandAuth(t *testing.T) {
	s, h := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/hire", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: code = %d, want 401", rec.Code)
	}

	if rec := do(t, h, http.MethodGet, "/api/v1/hire", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET command: code = %d, want 405", rec.Code)
	}

	s.AdminKey = ""
	if rec := do(t, s.Handler(), http.MethodPost, "/api/v1/hire", ""); rec.Code != http.StatusForbidden {
		t.Errorf("no admin key: code = %d, want 403", rec.Code)
	}
}

func TestBuildCommand(t *testing.T) {
	_, h := newTestServer(t, false)

	rec := do(t, h, http.MethodPost, "/api/v1/build", `{"type":"hut","x":10,"z":-10}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("build: code = %d body = %s", rec.Code, rec.Body)
	}
	res := decode[engine.Result](t, rec)
	if !res.OK {
		t.Fatalf("build result = %+v", res)
	}

	rec = do(t, h, http.MethodPost, "/api/v1/build", `{"type":"castle","x":10,"z":-10}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unknown type: code = %d", rec.Code)
	}
	if res := decode[engine.Result](t, rec); res.OK || !strings.Contains(res.Message, "unknown") {
		t.Errorf("unknown type result = %+v", res)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/buildings", "")
	body := decode[struct {
		Queue []state.ConstructionItem `json:"construction_queue"`
	}](t, rec)
	if len(body.Queue) != 1 || body.Queue[0].BuildingType != "hut" {
		t.Errorf("queue = %+v", body.Queue)
	}
}

func TestBadJSON(t *testing.T) {
	_, h := newTestServer(t, false)
	if rec := do(t, h, http.MethodPost, "/api/v1/build", `{"type":`); rec.Code != http.StatusBadRequest {
		t.Errorf("code = %d, want 400", rec.Code)
	}
}

func TestPauseToggleAndSet(t *testing.T) {
	s, h := newTestServer(t, false)

	do(t, h, http.MethodPost, "/api/v1/pause", "")
	if !s.Runner.Snapshot().Paused {
		t.Fatal("empty body should toggle pause on")
	}
	do(t, h, http.MethodPost, "/api/v1/pause", `{"paused":false}`)
	if s.Runner.Snapshot().Paused {
		t.Fatal("explicit paused=false ignored")
	}
}

func TestScenarioAndResearch(t *testing.T) {
	s, h := newTestServer(t, false)

	if rec := do(t, h, http.MethodPost, "/api/v1/scenario", `{"id":"atlantis"}`); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("unknown scenario: code = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/research", `{"tech_id":"masonry"}`); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("research without prerequisite: code = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/speed", `{"speed":3}`); rec.Code != http.StatusOK {
		t.Errorf("speed: code = %d", rec.Code)
	}
	if got := s.Runner.Snapshot().Speed; got != 3 {
		t.Errorf("speed = %d, want 3", got)
	}
}

func TestCommandRateLimit(t *testing.T) {
	s, _ := newTestServer(t, false)
	s.CommandRate, s.CommandBurst = 1, 2
	h := s.Handler()

	for i := 0; i < 2; i++ {
		if rec := do(t, h, http.MethodPost, "/api/v1/speed", `{"speed":2}`); rec.Code == http.StatusTooManyRequests {
			t.Fatalf("request %d limited early", i)
		}
	}
	rec := do(t, h, http.MethodPost, "/api/v1/speed", `{"speed":2}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("code = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
}

func TestSaveAndLoad(t *testing.T) {
	s, h := newTestServer(t, true)

	rec := do(t, h, http.MethodPost, "/api/v1/save", `{"slot":"manual"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("save: code = %d body = %s", rec.Code, rec.Body)
	}

	s.Runner.Do(func(g *engine.Game) {
		for i := 0; i < 25; i++ {
			g.Step(engine.FixedStep)
		}
	})
	if s.Runner.Snapshot().Tick != 25 {
		t.Fatal("steps did not advance")
	}

	rec = do(t, h, http.MethodPost, "/api/v1/load", `{"slot":"manual"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("load: code = %d body = %s", rec.Code, rec.Body)
	}
	if tick := s.Runner.Snapshot().Tick; tick != 0 {
		t.Errorf("tick after load = %d, want 0", tick)
	}

	if rec := do(t, h, http.MethodPost, "/api/v1/load", `{"slot":"empty"}`); rec.Code != http.StatusNotFound {
		t.Errorf("empty slot: code = %d, want 404", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/saves?slot=manual", "")
	saves := decode[[]persistence.SaveRecord](t, rec)
	if len(saves) != 1 || saves[0].Slot != "manual" {
		t.Errorf("saves = %+v", saves)
	}
}

func TestLoadInlineState(t *testing.T) {
	s, h := newTestServer(t, false)

	other := state.CreateInitial(content.Default(), state.Options{Seed: "inline", ScenarioID: "harsh"})
	other.Tick = 40
	doc, err := json.Marshal(map[string]any{"state": other})
	if err != nil {
		t.Fatal(err)
	}
	rec := do(t, h, http.MethodPost, "/api/v1/load", string(doc))
	if rec.Code != http.StatusOK {
		t.Fatalf("load: code = %d body = %s", rec.Code, rec.Body)
	}
	snap := s.Runner.Snapshot()
	if snap.Tick != 40 || snap.RNGSeed != "inline" {
		t.Errorf("loaded tick %d seed %q", snap.Tick, snap.RNGSeed)
	}

	if rec := do(t, h, http.MethodPost, "/api/v1/load", `{"state":[1,2]}`); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("array state: code = %d, want 422", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/load", `{}`); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("slot load without db: code = %d, want 503", rec.Code)
	}
}

func TestTerrain(t *testing.T) {
	_, h := newTestServer(t, false)

	rec := do(t, h, http.MethodGet, "/api/v1/terrain?spacing=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	body := decode[struct {
		Grid struct {
			Size    int       `json:"size"`
			Heights []float64 `json:"heights"`
		} `json:"grid"`
		Ground map[string]int `json:"ground"`
	}](t, rec)
	if body.Grid.Size == 0 || len(body.Grid.Heights) != body.Grid.Size*body.Grid.Size {
		t.Errorf("grid size %d with %d heights", body.Grid.Size, len(body.Grid.Heights))
	}
	if len(body.Ground) == 0 {
		t.Error("no ground counts")
	}

	if rec := do(t, h, http.MethodGet, "/api/v1/terrain?spacing=0.1", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("tiny spacing: code = %d", rec.Code)
	}
}

func TestCatalog(t *testing.T) {
	_, h := newTestServer(t, false)
	body := decode[struct {
		Buildings []struct {
			ID       string `json:"id"`
			Unlocked bool   `json:"unlocked"`
		} `json:"buildings"`
		Techs []struct {
			ID        string `json:"id"`
			Available bool   `json:"available"`
		} `json:"techs"`
		Objectives []struct {
			ID string `json:"id"`
		} `json:"objectives"`
	}](t, do(t, h, http.MethodGet, "/api/v1/catalog", ""))

	unlocked := map[string]bool{}
	for _, b := range body.Buildings {
		unlocked[b.ID] = b.Unlocked
	}
	if !unlocked["hut"] || unlocked["iron-mine"] {
		t.Errorf("unlocked = %v", unlocked)
	}
	for _, tech := range body.Techs {
		if tech.ID == "masonry" && tech.Available {
			t.Error("masonry available before tool-making")
		}
	}
	if len(body.Objectives) != len(engine.Objectives()) {
		t.Errorf("objectives = %d", len(body.Objectives))
	}
}

func TestSummariesWithoutDB(t *testing.T) {
	s, h := newTestServer(t, false)
	s.Runner.Do(func(g *engine.Game) {
		st := g.State()
		st.RunSummaryHistory = []state.RunSummary{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	})
	got := decode[[]state.RunSummary](t, do(t, h, http.MethodGet, "/api/v1/summaries?limit=2", ""))
	if len(got) != 2 || got[0].ID != "c" || got[1].ID != "b" {
		t.Errorf("summaries = %+v", got)
	}
	if rec := do(t, h, http.MethodGet, "/api/v1/summaries?limit=0", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("limit=0: code = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/v1/events", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("events without db: code = %d", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	s, _ := newTestServer(t, false)
	s.CORSOrigins = []string{"https://colony.example"}
	h := s.Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/build", nil)
	req.Header.Set("Origin", "https://colony.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight code = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://colony.example" {
		t.Errorf("allow origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("unlisted origin allowed")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"remote addr", "10.0.0.7:5123", "", "10.0.0.7"},
		{"forwarded", "10.0.0.7:5123", "203.0.113.9, 10.0.0.1", "203.0.113.9"},
		{"no port", "10.0.0.7", "", "10.0.0.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStreamDeliversEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	s, _ := newTestServer(t, false)
	s.Hub = hub
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Broadcast(engine.Event{Type: engine.EventSpeedChange, Tick: 7, Data: map[string]any{"speed": 2}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got StreamMessage
	if err := json.NewDecoder(bytes.NewReader(msg)).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Type != string(engine.EventSpeedChange) || got.Tick != 7 || got.Data["speed"] != float64(2) {
		t.Errorf("message = %+v", got)
	}
}
