// Package record stores detection cycles in SQLite so runs can be compared
// after the fact.
package record

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/milk9111/sentinel/detector"
	"github.com/milk9111/sentinel/ecs"
)

// DB wraps a SQLite connection holding recorded runs.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a recorder database at path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		scenario TEXT NOT NULL,
		seed INTEGER NOT NULL,
		started_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS scans (
		run_id TEXT NOT NULL REFERENCES runs(id),
		tick INTEGER NOT NULL,
		entity INTEGER NOT NULL,
		allies TEXT NOT NULL,
		enemies TEXT NOT NULL,
		neutrals TEXT NOT NULL,
		closest_enemy INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_scans_run ON scans(run_id, tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Run is one recorded scenario execution.
type Run struct {
	ID        string `db:"id"`
	Scenario  string `db:"scenario"`
	Seed      int64  `db:"seed"`
	StartedAt string `db:"started_at"`
}

// Scan is one recorded detection cycle. Entity lists are space separated.
type Scan struct {
	RunID        string `db:"run_id"`
	Tick         uint64 `db:"tick"`
	Entity       uint64 `db:"entity"`
	Allies       string `db:"allies"`
	Enemies      string `db:"enemies"`
	Neutrals     string `db:"neutrals"`
	ClosestEnemy *int64 `db:"closest_enemy"`
}

// BeginRun registers a new run and returns a recorder bound to it.
func (db *DB) BeginRun(scenario string, seed int64) (*Recorder, error) {
	run := Run{
		ID:        uuid.NewString(),
		Scenario:  scenario,
		Seed:      seed,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := db.conn.NamedExec(`INSERT INTO runs (id, scenario, seed, started_at)
		VALUES (:id, :scenario, :seed, :started_at)`, run); err != nil {
		return nil, fmt.Errorf("begin run: %w", err)
	}
	slog.Info("recording run", "run", run.ID, "scenario", scenario)
	return &Recorder{db: db, run: run}, nil
}

// Runs lists recorded runs, oldest first.
func (db *DB) Runs() ([]Run, error) {
	var runs []Run
	if err := db.conn.Select(&runs, `SELECT id, scenario, seed, started_at FROM runs ORDER BY started_at, id`); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Scans returns the recorded cycles of a run ordered by tick then entity.
func (db *DB) Scans(runID string) ([]Scan, error) {
	var scans []Scan
	if err := db.conn.Select(&scans, `SELECT run_id, tick, entity, allies, enemies, neutrals, closest_enemy
		FROM scans WHERE run_id = ? ORDER BY tick, entity`, runID); err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	return scans, nil
}

// Recorder writes scans for one run. It implements system.ScanObserver.
type Recorder struct {
	db  *DB
	run Run
	err error
}

// RunID is the uuid of the run being recorded.
func (r *Recorder) RunID() string {
	return r.run.ID
}

// Err returns the first write error; later scans are dropped after one.
func (r *Recorder) Err() error {
	return r.err
}

// ObserveScan records one detection cycle.
func (r *Recorder) ObserveScan(tick uint64, c *detector.Classifier, res *detector.Result) {
	if r == nil || r.err != nil {
		return
	}
	row := Scan{
		RunID:    r.run.ID,
		Tick:     tick,
		Entity:   uint64(c.Self()),
		Allies:   joinEntities(detector.Entities(res.Allies)),
		Enemies:  joinEntities(detector.Entities(res.Enemies)),
		Neutrals: joinEntities(detector.Entities(res.Neutrals)),
	}
	if d, ok := c.ClosestEnemy(); ok {
		id := int64(d.Entity)
		row.ClosestEnemy = &id
	}
	if _, err := r.db.conn.NamedExec(`INSERT INTO scans (run_id, tick, entity, allies, enemies, neutrals, closest_enemy)
		VALUES (:run_id, :tick, :entity, :allies, :enemies, :neutrals, :closest_enemy)`, row); err != nil {
		r.err = fmt.Errorf("record scan: %w", err)
		slog.Error("recorder disabled", "run", r.run.ID, "error", r.err)
	}
}

func joinEntities(es []ecs.Entity) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.String()
	}
	return strings.Join(parts, " ")
}
