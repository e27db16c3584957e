// Package persistence provides SQLite-based campaign storage.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/conquest/internal/combat"
	"github.com/talgya/conquest/internal/engine"
	"github.com/talgya/conquest/internal/social"
	"github.com/talgya/conquest/internal/strategy"
)

// DB wraps a SQLite connection for campaign persistence.
type DB struct {
	conn *sqlx.DB

	saveMu sync.Mutex // serializes SaveWorldState
	// Events up to this tick are already stored. Guarded by saveMu.
	savedThrough uint64
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer at a time: the engine archives battles while the API saves.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if v, err := db.GetMeta("last_tick"); err == nil {
		db.savedThrough, _ = strconv.ParseUint(v, 10, 64)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS nations (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		personality TEXT NOT NULL,
		soldiers INTEGER NOT NULL,
		population INTEGER NOT NULL,
		power REAL NOT NULL,
		at_war INTEGER NOT NULL,
		annexed INTEGER NOT NULL,
		data_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS wars (
		id TEXT PRIMARY KEY,
		attacker TEXT NOT NULL,
		defender TEXT NOT NULL,
		goal_type TEXT NOT NULL,
		legitimacy INTEGER NOT NULL,
		start_tick INTEGER NOT NULL,
		data_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS battles (
		id TEXT PRIMARY KEY,
		war_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		attacker TEXT NOT NULL,
		defender TEXT NOT NULL,
		front_q INTEGER NOT NULL,
		front_r INTEGER NOT NULL,
		terrain TEXT NOT NULL,
		intensity TEXT NOT NULL,
		winner TEXT NOT NULL,
		rounds INTEGER NOT NULL,
		attacker_losses INTEGER NOT NULL,
		defender_losses INTEGER NOT NULL,
		decisiveness REAL NOT NULL,
		supply_attrition REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);
	CREATE INDEX IF NOT EXISTS idx_battles_tick ON battles(tick);
	CREATE INDEX IF NOT EXISTS idx_battles_war ON battles(war_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveNations writes all nations and their personalities (full replace).
func (db *DB) SaveNations(nations []social.Nation, states map[social.NationCode]strategy.State) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM nations"); err != nil {
		return err
	}

	stmt, err := tx.Preparex(`INSERT INTO nations
		(code, name, personality, soldiers, population, power, at_war, annexed, data_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, n := range nations {
		data, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("encode nation %s: %w", n.Code, err)
		}
		_, err = stmt.Exec(
			n.Code, n.Name, states[n.Code].Personality.String(),
			n.Soldiers, n.Population, n.Power,
			boolInt(n.AtWar), boolInt(n.Annexed), string(data),
		)
		if err != nil {
			return fmt.Errorf("insert nation %s: %w", n.Code, err)
		}
	}

	return tx.Commit()
}

// LoadNations restores every nation and the personality each had settled on.
func (db *DB) LoadNations() ([]*social.Nation, map[social.NationCode]strategy.Personality, error) {
	var rows []struct {
		Personality string `db:"personality"`
		Data        string `db:"data_json"`
	}
	if err := db.conn.Select(&rows, "SELECT personality, data_json FROM nations ORDER BY code"); err != nil {
		return nil, nil, fmt.Errorf("select nations: %w", err)
	}

	nations := make([]*social.Nation, 0, len(rows))
	personalities := make(map[social.NationCode]strategy.Personality, len(rows))
	for _, row := range rows {
		n := &social.Nation{}
		if err := json.Unmarshal([]byte(row.Data), n); err != nil {
			return nil, nil, fmt.Errorf("decode nation: %w", err)
		}
		p, err := strategy.ParsePersonality(row.Personality)
		if err != nil {
			return nil, nil, fmt.Errorf("nation %s: %w", n.Code, err)
		}
		if n.Relations == nil {
			n.Relations = make(map[social.NationCode]float64)
		}
		nations = append(nations, n)
		personalities[n.Code] = p
	}
	return nations, personalities, nil
}

// SaveWars writes the active wars (full replace).
func (db *DB) SaveWars(wars []engine.War) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM wars"); err != nil {
		return err
	}
	for _, w := range wars {
		data, err := json.Marshal(w)
		if err != nil {
			return fmt.Errorf("encode war %s: %w", w.ID, err)
		}
		_, err = tx.Exec(`INSERT INTO wars
			(id, attacker, defender, goal_type, legitimacy, start_tick, data_json)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			w.ID.String(), w.Attacker, w.Defender, w.Goal.Type.String(),
			w.Goal.Legitimacy, w.StartTick, string(data),
		)
		if err != nil {
			return fmt.Errorf("insert war %s: %w", w.ID, err)
		}
	}

	return tx.Commit()
}

// LoadWars restores the active wars.
func (db *DB) LoadWars() ([]*engine.War, error) {
	var data []string
	if err := db.conn.Select(&data, "SELECT data_json FROM wars ORDER BY start_tick, id"); err != nil {
		return nil, fmt.Errorf("select wars: %w", err)
	}
	wars := make([]*engine.War, 0, len(data))
	for _, d := range data {
		w := &engine.War{}
		if err := json.Unmarshal([]byte(d), w); err != nil {
			return nil, fmt.Errorf("decode war: %w", err)
		}
		wars = append(wars, w)
	}
	return wars, nil
}

// SaveBattle archives one battle result.
func (db *DB) SaveBattle(b engine.Battle) error {
	_, err := db.conn.Exec(`INSERT OR REPLACE INTO battles
		(id, war_id, tick, attacker, defender, front_q, front_r, terrain, intensity,
		 winner, rounds, attacker_losses, defender_losses, decisiveness, supply_attrition)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID.String(), b.WarID.String(), b.Tick, b.Attacker, b.Defender,
		b.Front.Q, b.Front.R, b.Terrain.String(), b.Intensity.String(),
		b.Winner.String(), b.Rounds, b.AttackerLosses, b.DefenderLosses,
		b.Decisiveness, b.SupplyAttrition,
	)
	if err != nil {
		return fmt.Errorf("insert battle %s: %w", b.ID, err)
	}
	return nil
}

type battleRow struct {
	ID              string  `db:"id"`
	WarID           string  `db:"war_id"`
	Tick            uint64  `db:"tick"`
	Attacker        string  `db:"attacker"`
	Defender        string  `db:"defender"`
	FrontQ          int     `db:"front_q"`
	FrontR          int     `db:"front_r"`
	Terrain         string  `db:"terrain"`
	Intensity       string  `db:"intensity"`
	Winner          string  `db:"winner"`
	Rounds          int     `db:"rounds"`
	AttackerLosses  int     `db:"attacker_losses"`
	DefenderLosses  int     `db:"defender_losses"`
	Decisiveness    float64 `db:"decisiveness"`
	SupplyAttrition float64 `db:"supply_attrition"`
}

func (r battleRow) toBattle() (engine.Battle, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return engine.Battle{}, fmt.Errorf("battle id: %w", err)
	}
	warID, err := uuid.Parse(r.WarID)
	if err != nil {
		return engine.Battle{}, fmt.Errorf("battle %s war id: %w", r.ID, err)
	}
	terrain, err := combat.ParseTerrain(r.Terrain)
	if err != nil {
		return engine.Battle{}, fmt.Errorf("battle %s: %w", r.ID, err)
	}
	intensity, err := combat.ParseIntensity(r.Intensity)
	if err != nil {
		return engine.Battle{}, fmt.Errorf("battle %s: %w", r.ID, err)
	}
	winner := combat.Attacker
	if r.Winner == combat.Defender.String() {
		winner = combat.Defender
	}

	b := engine.Battle{
		ID:              id,
		WarID:           warID,
		Tick:            r.Tick,
		Attacker:        social.NationCode(r.Attacker),
		Defender:        social.NationCode(r.Defender),
		Terrain:         terrain,
		Intensity:       intensity,
		Winner:          winner,
		Rounds:          r.Rounds,
		AttackerLosses:  r.AttackerLosses,
		DefenderLosses:  r.DefenderLosses,
		Decisiveness:    r.Decisiveness,
		SupplyAttrition: r.SupplyAttrition,
	}
	b.Front.Q, b.Front.R = r.FrontQ, r.FrontR
	return b, nil
}

// RecentBattles returns the most recent battles, newest first. A non-empty
// nation restricts results to battles it fought in.
func (db *DB) RecentBattles(nation social.NationCode, limit int) ([]engine.Battle, error) {
	var rows []battleRow
	var err error
	if nation == "" {
		err = db.conn.Select(&rows, "SELECT * FROM battles ORDER BY tick DESC, id LIMIT ?", limit)
	} else {
		err = db.conn.Select(&rows,
			"SELECT * FROM battles WHERE attacker = ? OR defender = ? ORDER BY tick DESC, id LIMIT ?",
			nation, nation, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("select battles: %w", err)
	}

	battles := make([]engine.Battle, 0, len(rows))
	for _, r := range rows {
		b, err := r.toBattle()
		if err != nil {
			return nil, err
		}
		battles = append(battles, b)
	}
	return battles, nil
}

// SaveEvents appends events to the database.
func (db *DB) SaveEvents(events []engine.Event) error {
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
			"INSERT INTO events (tick, description, category) VALUES (?, ?, ?)",
			e.Tick, e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		"SELECT tick, description, category FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	return events, err
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}

// HasWorldState reports whether a campaign has been saved.
func (db *DB) HasWorldState() bool {
	var count int
	if err := db.conn.Get(&count, "SELECT COUNT(*) FROM nations"); err != nil {
		return false
	}
	return count > 0
}

// SaveWorldState performs a full save of the campaign from one consistent
// view. Events are appended incrementally: only those newer than the previous
// save are written. Safe for concurrent use.
func (db *DB) SaveWorldState(sim *engine.Simulation) error {
	db.saveMu.Lock()
	defer db.saveMu.Unlock()

	view := sim.SaveView(db.savedThrough)
	slog.Info("saving campaign state", "tick", view.Tick, "nations", len(view.Nations), "wars", len(view.Wars))

	if err := db.SaveNations(view.Nations, view.Strategies); err != nil {
		return fmt.Errorf("save nations: %w", err)
	}
	if err := db.SaveWars(view.Wars); err != nil {
		return fmt.Errorf("save wars: %w", err)
	}
	if err := db.SaveEvents(view.Events); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if err := db.SaveMeta("last_tick", strconv.FormatUint(view.Tick, 10)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	if err := db.SaveMeta("seed", strconv.FormatInt(view.Seed, 10)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	// The view holds every event of its tick, so nothing at or before it is left.
	for _, e := range view.Events {
		db.savedThrough = max(db.savedThrough, e.Tick)
	}
	db.savedThrough = max(db.savedThrough, view.Tick)

	slog.Info("campaign state saved")
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
