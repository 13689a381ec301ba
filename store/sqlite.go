package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/signalnine/dilemma/agent"
	"github.com/signalnine/dilemma/evolution"
	"github.com/signalnine/dilemma/game"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// Run kinds recorded in the runs table.
const (
	KindTrain      = "train"
	KindTournament = "tournament"
)

// RunInfo describes a stored run.
type RunInfo struct {
	ID        uuid.UUID
	Kind      string
	Seed      int64
	CreatedAt time.Time
}

// SQLiteStore keeps trained tables and tournament histories keyed by run.
type SQLiteStore struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*SQLiteStore, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite serializes writers; one connection avoids busy errors.
	conn.SetMaxOpenConns(1)

	s := &SQLiteStore{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		seed INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS value_tables (
		run_id TEXT NOT NULL REFERENCES runs(id),
		identity INTEGER NOT NULL,
		name TEXT NOT NULL,
		PRIMARY KEY (run_id, identity)
	);

	CREATE TABLE IF NOT EXISTS table_entries (
		run_id TEXT NOT NULL,
		identity INTEGER NOT NULL,
		state_key TEXT NOT NULL,
		cooperate REAL NOT NULL,
		defect REAL NOT NULL,
		PRIMARY KEY (run_id, identity, state_key)
	);

	CREATE TABLE IF NOT EXISTS generations (
		run_id TEXT NOT NULL REFERENCES runs(id),
		idx INTEGER NOT NULL,
		best_fitness REAL NOT NULL,
		avg_fitness REAL NOT NULL,
		members_json TEXT NOT NULL,
		counts_json TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (run_id, idx)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	_, err := s.conn.Exec(schema)
	return err
}

func (s *SQLiteStore) ensureRun(ctx context.Context, tx *sqlx.Tx, runID uuid.UUID, kind string, seed int64) error {
	_, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO runs (id, kind, seed, created_at) VALUES (?, ?, ?, ?)",
		runID.String(), kind, seed, time.Now().UnixNano())
	return err
}

// SaveRun stores every table of set under runID, replacing any tables
// previously saved for that run.
func (s *SQLiteStore) SaveRun(ctx context.Context, runID uuid.UUID, seed int64, set *Set) error {
	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.ensureRun(ctx, tx, runID, KindTrain, seed); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM table_entries WHERE run_id = ?", runID.String()); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM value_tables WHERE run_id = ?", runID.String()); err != nil {
		return err
	}

	tableStmt, err := tx.PreparexContext(ctx,
		`INSERT INTO value_tables (run_id, identity, name) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer tableStmt.Close()

	entryStmt, err := tx.PreparexContext(ctx,
		`INSERT INTO table_entries (run_id, identity, state_key, cooperate, defect)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer entryStmt.Close()

	for _, t := range set.Tables() {
		if _, err := tableStmt.ExecContext(ctx, runID.String(), t.Identity, t.Name); err != nil {
			return fmt.Errorf("insert table %d: %w", t.Identity, err)
		}
		snapshot := t.Values.Snapshot()
		for _, k := range t.Values.Keys() {
			v := snapshot[k]
			if _, err := entryStmt.ExecContext(ctx, runID.String(), t.Identity, string(k), v[game.Cooperate], v[game.Defect]); err != nil {
				return fmt.Errorf("insert entry %d/%q: %w", t.Identity, string(k), err)
			}
		}
	}

	return tx.Commit()
}

// LoadRun reads the tables stored under runID.
func (s *SQLiteStore) LoadRun(ctx context.Context, runID uuid.UUID) (*Set, error) {
	if _, err := s.Run(ctx, runID); err != nil {
		return nil, err
	}

	var tables []struct {
		Identity int    `db:"identity"`
		Name     string `db:"name"`
	}
	if err := s.conn.SelectContext(ctx, &tables,
		"SELECT identity, name FROM value_tables WHERE run_id = ? ORDER BY identity", runID.String()); err != nil {
		return nil, err
	}

	var entries []struct {
		Identity  int     `db:"identity"`
		StateKey  string  `db:"state_key"`
		Cooperate float64 `db:"cooperate"`
		Defect    float64 `db:"defect"`
	}
	if err := s.conn.SelectContext(ctx, &entries,
		"SELECT identity, state_key, cooperate, defect FROM table_entries WHERE run_id = ?", runID.String()); err != nil {
		return nil, err
	}

	values := make(map[int]map[game.StateKey]agent.Values, len(tables))
	for _, t := range tables {
		values[t.Identity] = make(map[game.StateKey]agent.Values)
	}
	for _, e := range entries {
		m, ok := values[e.Identity]
		if !ok {
			return nil, fmt.Errorf("entry for unknown table %d", e.Identity)
		}
		m[game.StateKey(e.StateKey)] = agent.Values{e.Cooperate, e.Defect}
	}

	set := NewSet()
	for _, t := range tables {
		vt := agent.NewValueTable()
		vt.Restore(values[t.Identity])
		if err := set.Add(t.Identity, t.Name, vt); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// Run returns the metadata of runID.
func (s *SQLiteStore) Run(ctx context.Context, runID uuid.UUID) (RunInfo, error) {
	var row runRow
	err := s.conn.GetContext(ctx, &row, "SELECT id, kind, seed, created_at FROM runs WHERE id = ?", runID.String())
	if errors.Is(err, sql.ErrNoRows) {
		return RunInfo{}, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return RunInfo{}, err
	}
	return row.info()
}

// LatestRun returns the most recently created run of the given kind.
func (s *SQLiteStore) LatestRun(ctx context.Context, kind string) (RunInfo, error) {
	var row runRow
	err := s.conn.GetContext(ctx, &row,
		"SELECT id, kind, seed, created_at FROM runs WHERE kind = ? ORDER BY created_at DESC, rowid DESC LIMIT 1", kind)
	if errors.Is(err, sql.ErrNoRows) {
		return RunInfo{}, fmt.Errorf("%w: no %s runs", ErrNotFound, kind)
	}
	if err != nil {
		return RunInfo{}, err
	}
	return row.info()
}

// Runs lists every stored run, newest first.
func (s *SQLiteStore) Runs(ctx context.Context) ([]RunInfo, error) {
	var rows []runRow
	if err := s.conn.SelectContext(ctx, &rows,
		"SELECT id, kind, seed, created_at FROM runs ORDER BY created_at DESC, rowid DESC"); err != nil {
		return nil, err
	}
	out := make([]RunInfo, 0, len(rows))
	for _, r := range rows {
		info, err := r.info()
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

// SaveGenerations appends tournament snapshots to runID. Snapshots already
// stored under the same index are overwritten.
func (s *SQLiteStore) SaveGenerations(ctx context.Context, runID uuid.UUID, seed int64, gens []evolution.Generation) error {
	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.ensureRun(ctx, tx, runID, KindTournament, seed); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx,
		`INSERT OR REPLACE INTO generations
		 (run_id, idx, best_fitness, avg_fitness, members_json, counts_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, g := range gens {
		membersJSON, err := json.Marshal(g.Members)
		if err != nil {
			return err
		}
		countsJSON, err := json.Marshal(g.Counts)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, runID.String(), g.Index, g.BestFitness, g.AvgFitness,
			string(membersJSON), string(countsJSON), g.Timestamp.UnixNano()); err != nil {
			return fmt.Errorf("insert generation %d: %w", g.Index, err)
		}
	}

	return tx.Commit()
}

// LoadGenerations returns the snapshots stored for runID in index order.
func (s *SQLiteStore) LoadGenerations(ctx context.Context, runID uuid.UUID) ([]evolution.Generation, error) {
	var rows []struct {
		Index       int     `db:"idx"`
		BestFitness float64 `db:"best_fitness"`
		AvgFitness  float64 `db:"avg_fitness"`
		MembersJSON string  `db:"members_json"`
		CountsJSON  string  `db:"counts_json"`
		CreatedAt   int64   `db:"created_at"`
	}
	if err := s.conn.SelectContext(ctx, &rows,
		`SELECT idx, best_fitness, avg_fitness, members_json, counts_json, created_at
		 FROM generations WHERE run_id = ? ORDER BY idx`, runID.String()); err != nil {
		return nil, err
	}

	out := make([]evolution.Generation, 0, len(rows))
	for _, r := range rows {
		g := evolution.Generation{
			Index:       r.Index,
			BestFitness: r.BestFitness,
			AvgFitness:  r.AvgFitness,
			Timestamp:   time.Unix(0, r.CreatedAt),
		}
		if err := json.Unmarshal([]byte(r.MembersJSON), &g.Members); err != nil {
			return nil, fmt.Errorf("generation %d members: %w", r.Index, err)
		}
		if err := json.Unmarshal([]byte(r.CountsJSON), &g.Counts); err != nil {
			return nil, fmt.Errorf("generation %d counts: %w", r.Index, err)
		}
		out = append(out, g)
	}
	return out, nil
}

type runRow struct {
	ID        string `db:"id"`
	Kind      string `db:"kind"`
	Seed      int64  `db:"seed"`
	CreatedAt int64  `db:"created_at"`
}

func (r runRow) info() (RunInfo, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return RunInfo{}, fmt.Errorf("run id %q: %w", r.ID, err)
	}
	return RunInfo{ID: id, Kind: r.Kind, Seed: r.Seed, CreatedAt: time.Unix(0, r.CreatedAt)}, nil
}
