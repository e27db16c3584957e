// Package api provides the HTTP API for observing the campaign.
// GET endpoints are public (read-only observation).
// POST /speed and /snapshot require a bearer token (admin control plane).
// POST /simulate and /wargoals are public calculators; /simulate is rate limited.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/talgya/conquest/internal/combat"
	"github.com/talgya/conquest/internal/diplomacy"
	"github.com/talgya/conquest/internal/engine"
	"github.com/talgya/conquest/internal/entropy"
	"github.com/talgya/conquest/internal/persistence"
	"github.com/talgya/conquest/internal/social"
	"github.com/talgya/conquest/internal/strategy"
)

const (
	maxStreamConns  = 8
	streamCatchUp   = 50
	streamPing      = 15 * time.Second
	streamWriteWait = 5 * time.Second
	maxTrials       = 1000
	maxBodyBytes    = 1 << 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server serves the campaign state over HTTP.
type Server struct {
	Sim         *engine.Simulation
	Eng         *engine.Engine
	DB          *persistence.DB // Optional. Battles fall back to the in-memory log.
	Port        int
	AdminKey    string   // Bearer token for admin POST endpoints. Empty = admin disabled.
	CORSOrigins []string // Extra allowed origins; localhost dev servers are always allowed.

	// Simulate requests allowed per client per hour. Zero means 60.
	SimulateRate int

	streamConns atomic.Int32
}

// Handler builds the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	rate := s.SimulateRate
	if rate <= 0 {
		rate = 60
	}
	simulateLimiter := NewRateLimiter(rate, time.Hour)

	r := mux.NewRouter()
	v1 := r.PathPrefix("/api/v1").Subrouter()

	// Public endpoints (GET, read-only).
	v1.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	v1.HandleFunc("/nations", s.handleNations).Methods(http.MethodGet)
	v1.HandleFunc("/nations/{code}", s.handleNationDetail).Methods(http.MethodGet)
	v1.HandleFunc("/wars", s.handleWars).Methods(http.MethodGet)
	v1.HandleFunc("/battles", s.handleBattles).Methods(http.MethodGet)
	v1.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)
	v1.HandleFunc("/stream", s.handleStream).Methods(http.MethodGet)

	// Calculators.
	v1.HandleFunc("/simulate", RateLimitMiddleware(simulateLimiter, s.handleSimulate)).Methods(http.MethodPost)
	v1.HandleFunc("/wargoals", s.handleWarGoal).Methods(http.MethodPost)

	// Admin endpoints (POST requires bearer token).
	v1.HandleFunc("/speed", s.adminOnly(s.handleSpeed)).Methods(http.MethodGet, http.MethodPost)
	v1.HandleFunc("/snapshot", s.adminOnly(s.handleSnapshot)).Methods(http.MethodPost)

	return corsMiddleware(s.CORSOrigins, r)
}

// Start begins serving the HTTP API in a goroutine. The caller owns shutdown.
func (s *Server) Start() *http.Server {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", srv.Addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	return srv
}

// corsMiddleware adds CORS headers for allowed frontend origins.
func corsMiddleware(origins []string, next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
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

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both GET and POST).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no CONQUEST_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	tick := s.Sim.CurrentTick()
	status := map[string]any{
		"name":     "Conquest",
		"tick":     tick,
		"sim_time": engine.SimTime(tick),
		"seed":     s.Sim.Seed,
		"stats":    s.Sim.CurrentStats(),
	}
	if s.Eng != nil {
		status["speed"] = s.Eng.Speed()
		status["running"] = s.Eng.Running()
	}
	writeJSON(w, status)
}

func (s *Server) handleNations(w http.ResponseWriter, r *http.Request) {
	type nationSummary struct {
		Code        social.NationCode    `json:"code"`
		Name        string               `json:"name"`
		Soldiers    int                  `json:"soldiers"`
		Power       float64              `json:"power"`
		Economy     float64              `json:"economy"`
		Unrest      float64              `json:"unrest"`
		AtWar       bool                 `json:"at_war"`
		Annexed     bool                 `json:"annexed"`
		Personality strategy.Personality `json:"personality"`
		Focus       strategy.Focus       `json:"focus"`
	}

	states := s.Sim.StrategyStates()
	nations := s.Sim.NationList()
	includeAnnexed := r.URL.Query().Get("annexed") == "true"

	out := make([]nationSummary, 0, len(nations))
	for _, n := range nations {
		if n.Annexed && !includeAnnexed {
			continue
		}
		st := states[n.Code]
		out = append(out, nationSummary{
			Code:        n.Code,
			Name:        n.Name,
			Soldiers:    n.Soldiers,
			Power:       n.Power,
			Economy:     n.Economy,
			Unrest:      n.Unrest,
			AtWar:       n.AtWar,
			Annexed:     n.Annexed,
			Personality: st.Personality,
			Focus:       st.Focus,
		})
	}
	writeJSON(w, out)
}

func (s *Server) handleNationDetail(w http.ResponseWriter, r *http.Request) {
	code := social.NationCode(strings.ToUpper(mux.Vars(r)["code"]))
	n, st, ok := s.Sim.NationDetail(code)
	if !ok {
		http.Error(w, "nation not found", http.StatusNotFound)
		return
	}

	var wars []engine.War
	for _, war := range s.Sim.ActiveWars() {
		if war.Attacker == code || war.Defender == code {
			wars = append(wars, war)
		}
	}

	writeJSON(w, map[string]any{
		"nation":   n,
		"strategy": st,
		"wars":     wars,
	})
}

func (s *Server) handleWars(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.ActiveWars())
}

// handleBattles lists recent battles newest first, from the archive when one
// is attached.
func (s *Server) handleBattles(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 50, 500)
	nation := social.NationCode(strings.ToUpper(r.URL.Query().Get("nation")))

	if s.DB != nil {
		battles, err := s.DB.RecentBattles(nation, limit)
		if err != nil {
			slog.Error("battle query failed", "error", err)
			http.Error(w, "battle query failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, battles)
		return
	}

	battles := s.Sim.RecentBattles(0)
	if nation != "" {
		var filtered []engine.Battle
		for _, b := range battles {
			if b.Attacker == nation || b.Defender == nation {
				filtered = append(filtered, b)
			}
		}
		battles = filtered
	}
	if len(battles) > limit {
		battles = battles[len(battles)-limit:]
	}
	slices.Reverse(battles) // newest first, as stored
	writeJSON(w, battles)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 50, 500)
	events := s.Sim.RecentEvents(0)

	// Optional category filter ("war", "battle", "diplomacy", ...).
	if category := r.URL.Query().Get("category"); category != "" {
		var filtered []engine.Event
		for _, e := range events {
			if e.Category == category {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	if len(events) > limit {
		events = events[len(events)-limit:]
	}
	writeJSON(w, events)
}

// simulateRequest is the body of POST /simulate. A zero seed draws a fresh one.
type simulateRequest struct {
	Attackers int              `json:"attackers"`
	Defenders int              `json:"defenders"`
	Intensity combat.Intensity `json:"intensity"`
	Fortified bool             `json:"fortified"`
	Options   combat.Options   `json:"options"`
	Seed      int64            `json:"seed"`
	Trials    int              `json:"trials"`
}

type simulateResponse struct {
	Seed   int64         `json:"seed"`
	Result combat.Result `json:"result"`
	Odds   *combat.Odds  `json:"odds,omitempty"`
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	req := simulateRequest{Intensity: combat.Battle}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Attackers < 0 || req.Defenders < 0 {
		http.Error(w, "soldier counts must not be negative", http.StatusBadRequest)
		return
	}
	if req.Trials < 0 || req.Trials > maxTrials {
		http.Error(w, fmt.Sprintf("trials must be 0-%d", maxTrials), http.StatusBadRequest)
		return
	}
	if req.Seed == 0 {
		req.Seed = entropy.CryptoSeed()
	}

	resp := simulateResponse{
		Seed:   req.Seed,
		Result: combat.SimulateWar(entropy.New(req.Seed), req.Attackers, req.Defenders, req.Intensity, req.Fortified, req.Options),
	}
	if req.Trials > 1 {
		odds := combat.EstimateOdds(entropy.Derive(req.Seed, 1), req.Trials, req.Attackers, req.Defenders, req.Intensity, req.Fortified, req.Options)
		resp.Odds = &odds
	}

	slog.Debug("war simulated",
		"attackers", req.Attackers, "defenders", req.Defenders,
		"intensity", req.Intensity, "winner", resp.Result.Winner, "seed", req.Seed)
	writeJSON(w, resp)
}

// handleWarGoal builds a war goal and its reaction. When type is omitted the
// goal is chosen from the attacker's view of the target.
func (s *Server) handleWarGoal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type      string            `json:"type"`
		Attacker  social.NationCode `json:"attacker"`
		Target    social.NationCode `json:"target"`
		Territory string            `json:"territory"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Target == "" {
		http.Error(w, "target is required", http.StatusBadRequest)
		return
	}

	var goalType diplomacy.GoalType
	if req.Type != "" {
		t, err := diplomacy.ParseGoalType(req.Type)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		goalType = t
	} else {
		attacker, st, ok := s.Sim.NationDetail(req.Attacker)
		if !ok {
			http.Error(w, "type or a known attacker is required", http.StatusBadRequest)
			return
		}
		target, _, ok := s.Sim.NationDetail(req.Target)
		if !ok {
			http.Error(w, "nation not found", http.StatusNotFound)
			return
		}
		goalType = diplomacy.ChooseGoalType(&attacker, &target, st.Personality == strategy.Ideological)
	}

	goal := diplomacy.NewWarGoal(goalType, req.Target, req.Territory)
	writeJSON(w, map[string]any{
		"goal":     goal,
		"reaction": goal.Reaction(),
	})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if s.Eng == nil {
		http.Error(w, "engine not available", http.StatusServiceUnavailable)
		return
	}
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	if err := s.DB.SaveWorldState(s.Sim); err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"tick":    s.Sim.CurrentTick(),
		"message": "snapshot saved",
	})
}

// handleStream upgrades to a websocket and pushes campaign events as JSON,
// starting with the most recent ones.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.streamConns.Add(1) > maxStreamConns {
		s.streamConns.Add(-1)
		http.Error(w, "too many stream connections", http.StatusServiceUnavailable)
		return
	}
	defer s.streamConns.Add(-1)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	subID, ch := s.Sim.Subscribe()
	defer s.Sim.Unsubscribe(subID)

	for _, e := range s.Sim.RecentEvents(streamCatchUp) {
		if err := writeEvent(conn, e); err != nil {
			return
		}
	}

	slog.Info("stream client connected", "sub_id", subID)

	// Clients never send anything meaningful; reading detects the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(streamPing)
	defer ping.Stop()

	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return
			}
			if err := writeEvent(conn, e); err != nil {
				slog.Info("stream client dropped", "sub_id", subID, "error", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		case <-closed:
			slog.Info("stream client disconnected", "sub_id", subID)
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, e engine.Event) error {
	conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	return conn.WriteJSON(e)
}

// queryLimit reads ?limit= within (0, ceiling], falling back to def.
func queryLimit(r *http.Request, def, ceiling int) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= ceiling {
			return n
		}
	}
	return def
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		slog.Warn("write response failed", "error", err)
	}
}
