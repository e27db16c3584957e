package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/conquest/internal/combat"
	"github.com/talgya/conquest/internal/engine"
	"github.com/talgya/conquest/internal/social"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	nations := []*social.Nation{
		{
			Code: "NOR", Name: "Nordmark",
			Aggression: 2, Military: 3, Freedom: 70, Economy: 60,
			Population: 5_000_000, Soldiers: 20_000,
			Stats:     combat.DefaultArmyStats(),
			Relations: map[social.NationCode]float64{},
		},
		{
			Code: "SUD", Name: "Sudreich",
			Aggression: 4, Military: 2, Freedom: 10, Economy: 40,
			Population: 3_000_000, Soldiers: 9_000,
			Stats:     combat.DefaultArmyStats(),
			Relations: map[social.NationCode]float64{},
		},
	}
	sim := engine.NewSimulation(nil, nations, 5)
	eng := engine.NewEngine()
	return &Server{Sim: sim, Eng: eng, AdminKey: "secret"}
}

func do(t *testing.T, h http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "192.0.2.1:4000"
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStatus(t *testing.T) {
	h := testServer(t).Handler()
	rec := do(t, h, http.MethodGet, "/api/v1/status", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}
	var got struct {
		Tick    uint64          `json:"tick"`
		SimTime string          `json:"sim_time"`
		Stats   engine.SimStats `json:"stats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.SimTime != "Eve of war" || got.Stats.LivingNations != 2 || got.Stats.TotalSoldiers != 29_000 {
		t.Errorf("unexpected status: %+v", got)
	}
}

func TestNationDetail(t *testing.T) {
	h := testServer(t).Handler()

	rec := do(t, h, http.MethodGet, "/api/v1/nations/nor", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}
	var got struct {
		Nation social.Nation `json:"nation"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Nation.Name != "Nordmark" {
		t.Errorf("nation = %+v", got.Nation)
	}

	if rec := do(t, h, http.MethodGet, "/api/v1/nations/XXX", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown nation status = %d, want 404", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/nations", "", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /nations status = %d, want 405", rec.Code)
	}
}

func TestEvents_CategoryFilter(t *testing.T) {
	s := testServer(t)
	s.Sim.Events = []engine.Event{
		{Tick: 1, Description: "a", Category: "diplomacy"},
		{Tick: 2, Description: "b", Category: "war"},
		{Tick: 3, Description: "c", Category: "war"},
	}
	rec := do(t, s.Handler(), http.MethodGet, "/api/v1/events?category=war&limit=1", "", nil)
	var got []engine.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Description != "c" {
		t.Errorf("events = %+v, want only the latest war event", got)
	}
}

func TestSimulate_SeededIsReproducible(t *testing.T) {
	h := testServer(t).Handler()
	body := `{"attackers": 5000, "defenders": 4000, "intensity": "all_out_war",
		"fortified": true, "options": {"terrain": "mountains", "supply": {"distance_km": 450}},
		"seed": 99, "trials": 20}`

	first := do(t, h, http.MethodPost, "/api/v1/simulate", body, nil)
	second := do(t, h, http.MethodPost, "/api/v1/simulate", body, nil)
	if first.Code != http.StatusOK {
		t.Fatalf("status code = %d: %s", first.Code, first.Body)
	}
	if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Error("same seed produced different responses")
	}

	var got simulateResponse
	if err := json.Unmarshal(first.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	res := got.Result
	if got.Seed != 99 || res.Intensity != combat.AllOutWar {
		t.Errorf("seed = %d intensity = %v", got.Seed, res.Intensity)
	}
	if res.AttackerRemaining+res.AttackerLosses != 5000 || res.DefenderRemaining+res.DefenderLosses != 4000 {
		t.Errorf("losses do not balance: %+v", res)
	}
	if got.Odds == nil || got.Odds.Trials != 20 {
		t.Errorf("odds = %+v, want 20 trials", got.Odds)
	}
}

func TestSimulate_EmptyDefender(t *testing.T) {
	h := testServer(t).Handler()
	rec := do(t, h, http.MethodPost, "/api/v1/simulate", `{"attackers": 100, "defenders": 0}`, nil)
	var got simulateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Result.Winner != combat.Attacker || len(got.Result.Rounds) != 0 {
		t.Errorf("result = %+v, want attacker win with no rounds", got.Result)
	}
	if got.Seed == 0 {
		t.Error("seed 0 should be replaced with a drawn seed")
	}
	if got.Odds != nil {
		t.Error("odds returned without trials")
	}
}

func TestSimulate_BadRequests(t *testing.T) {
	h := testServer(t).Handler()
	tests := []struct {
		name, body string
	}{
		{"malformed", `{"attackers":`},
		{"intensity", `{"attackers": 10, "defenders": 10, "intensity": "nuclear"}`},
		{"terrain", `{"attackers": 10, "defenders": 10, "options": {"terrain": "lava"}}`},
		{"negative", `{"attackers": -1, "defenders": 10}`},
		{"trials", `{"attackers": 10, "defenders": 10, "trials": 100000}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(t, h, http.MethodPost, "/api/v1/simulate", tt.body, nil); rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestSimulate_RateLimited(t *testing.T) {
	s := testServer(t)
	s.SimulateRate = 1
	h := s.Handler()

	body := `{"attackers": 10, "defenders": 10, "seed": 1}`
	if rec := do(t, h, http.MethodPost, "/api/v1/simulate", body, nil); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}
	rec := do(t, h, http.MethodPost, "/api/v1/simulate", body, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
}

func TestWarGoal(t *testing.T) {
	h := testServer(t).Handler()
	tests := []struct {
		name, body string
		code       int
		wantType   string
		wantPen    float64
	}{
		{"explicit", `{"type": "reconquest", "target": "SUD", "territory": "the lowlands"}`, http.StatusOK, "RECONQUEST", -5},
		{"chosen", `{"attacker": "NOR", "target": "SUD"}`, http.StatusOK, "LIBERATION", 0},
		{"unknown type", `{"type": "revenge", "target": "SUD"}`, http.StatusBadRequest, "", 0},
		{"no target", `{"type": "defensive"}`, http.StatusBadRequest, "", 0},
		{"no attacker", `{"target": "SUD"}`, http.StatusBadRequest, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/v1/wargoals", tt.body, nil)
			if rec.Code != tt.code {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.code, rec.Body)
			}
			if tt.code != http.StatusOK {
				return
			}
			var got struct {
				Goal struct {
					Type          string `json:"type"`
					Justification string `json:"justification"`
				} `json:"goal"`
				Reaction struct {
					RelationsPenalty float64 `json:"relations_penalty"`
				} `json:"reaction"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatal(err)
			}
			if got.Goal.Type != tt.wantType || got.Reaction.RelationsPenalty != tt.wantPen {
				t.Errorf("goal = %+v reaction = %+v", got.Goal, got.Reaction)
			}
			if got.Goal.Justification == "" {
				t.Error("empty justification")
			}
		})
	}
}

func TestSpeed_AdminAuth(t *testing.T) {
	s := testServer(t)
	h := s.Handler()

	if rec := do(t, h, http.MethodPost, "/api/v1/speed", `{"speed": 5}`, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", rec.Code)
	}
	auth := map[string]string{"Authorization": "Bearer secret"}
	if rec := do(t, h, http.MethodPost, "/api/v1/speed", `{"speed": 5000}`, auth); rec.Code != http.StatusBadRequest {
		t.Errorf("out of range status = %d, want 400", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/speed", `{"speed": 5}`, auth); rec.Code != http.StatusOK {
		t.Errorf("authorized status = %d, want 200", rec.Code)
	}
	if s.Eng.Speed() != 5 {
		t.Errorf("Speed() = %v, want 5", s.Eng.Speed())
	}
	if rec := do(t, h, http.MethodGet, "/api/v1/speed", "", nil); rec.Code != http.StatusOK {
		t.Errorf("GET speed status = %d, want 200", rec.Code)
	}

	s.AdminKey = ""
	if rec := do(t, s.Handler(), http.MethodPost, "/api/v1/speed", `{"speed": 1}`, auth); rec.Code != http.StatusForbidden {
		t.Errorf("disabled admin status = %d, want 403", rec.Code)
	}
}

func TestSnapshot_NoDatabase(t *testing.T) {
	h := testServer(t).Handler()
	auth := map[string]string{"Authorization": "Bearer secret"}
	if rec := do(t, h, http.MethodPost, "/api/v1/snapshot", "", auth); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	s := testServer(t)
	s.CORSOrigins = []string{"https://war.example"}
	h := s.Handler()

	rec := do(t, h, http.MethodOptions, "/api/v1/status", "", map[string]string{"Origin": "https://war.example"})
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://war.example" {
		t.Errorf("allow origin = %q", got)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/status", "", map[string]string{"Origin": "https://evil.example"})
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected allow origin %q", got)
	}
}

func TestStream_CatchUp(t *testing.T) {
	s := testServer(t)
	s.Sim.Events = []engine.Event{
		{Tick: 1, Description: "Nordmark arms", Category: "diplomacy"},
		{Tick: 2, Description: "Sudreich declares war", Category: "war"},
	}
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	for _, want := range s.Sim.Events {
		var got engine.Event
		if err := conn.ReadJSON(&got); err != nil {
			t.Fatalf("read: %v", err)
		}
		if got != want {
			t.Errorf("event = %+v, want %+v", got, want)
		}
	}
}
