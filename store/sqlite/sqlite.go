/*
Package sqlite keeps imported source tables and calculation profiles in SQLite.

PURPOSE:
  The engine works on in-memory snapshots; this store is where those snapshots
  come from between process restarts. Every upload of a table is an import
  run. Runs are never updated or deleted: loading a table means loading its
  latest run, so a bad upload is fixed by uploading again.

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on import_runs or raw_rows
  - No DELETE statements outside Reset
  - A run and all its rows are written in one transaction

KEY TABLES:
  import_runs: One row per upload (uuid id, table name, source, row count)
  raw_rows:    The uploaded rows as header -> cell JSON, in file order
  profiles:    Calculation profiles as JSON documents (versioned on save)

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. ":memory:" databases are pinned to a
  single connection so every query sees the same schema.

USAGE:
  store, err := sqlite.New("./data/utilization.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  run, err := store.ImportTable(ctx, table, "timesheet.csv")
  tables, err := store.LoadLatest(ctx)

SEE ALSO:
  - ingest/: Produces the tables stored here
  - api/: Upload and report endpoints on top of this store
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/utilization-engine/generic"
)

// Store persists import runs and profiles in SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ generic.TableStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Import runs (append-only)
	CREATE TABLE IF NOT EXISTS import_runs (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		table_name TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		row_count INTEGER NOT NULL,
		headers_json TEXT NOT NULL,
		imported_at TEXT NOT NULL
	);

	-- Latest run per table (hot path)
	CREATE INDEX IF NOT EXISTS idx_import_runs_table_seq
		ON import_runs(table_name, seq DESC);

	-- Raw rows, one per data row of the upload
	CREATE TABLE IF NOT EXISTS raw_rows (
		run_id TEXT NOT NULL REFERENCES import_runs(id),
		row_index INTEGER NOT NULL,
		payload_json TEXT NOT NULL,
		PRIMARY KEY (run_id, row_index)
	);

	-- Calculation profiles
	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		config_json TEXT NOT NULL,
		version INTEGER DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// IMPORT RUNS
// =============================================================================

// ImportTable stores the table as a new run. Earlier runs are kept.
func (s *Store) ImportTable(ctx context.Context, table generic.Table, source string) (generic.ImportRun, error) {
	name, err := generic.ParseTableName(string(table.Name))
	if err != nil {
		return generic.ImportRun{}, fmt.Errorf("import %q: %w", table.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	run := generic.ImportRun{
		ID:         uuid.NewString(),
		Table:      name,
		Source:     source,
		Rows:       len(table.Rows),
		Headers:    generic.HeadersOf(table.Rows),
		ImportedAt: time.Now().UTC(),
	}
	headersJSON, err := json.Marshal(run.Headers)
	if err != nil {
		return generic.ImportRun{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return generic.ImportRun{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO import_runs (id, table_name, source, row_count, headers_json, imported_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, string(run.Table), run.Source, run.Rows, string(headersJSON), run.ImportedAt.Format(time.RFC3339Nano))
	if err != nil {
		return generic.ImportRun{}, fmt.Errorf("failed to insert import run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO raw_rows (run_id, row_index, payload_json) VALUES (?, ?, ?)")
	if err != nil {
		return generic.ImportRun{}, fmt.Errorf("failed to prepare row insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range table.Rows {
		payload, err := json.Marshal(row)
		if err != nil {
			return generic.ImportRun{}, err
		}
		if _, err := stmt.ExecContext(ctx, run.ID, i, string(payload)); err != nil {
			return generic.ImportRun{}, fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return generic.ImportRun{}, fmt.Errorf("failed to commit import: %w", err)
	}
	return run, nil
}

// LoadTable returns the rows of the latest run of a table, or ErrNoDataset
// if it was never imported.
func (s *Store) LoadTable(ctx context.Context, name generic.TableName) ([]generic.RawRow, generic.ImportRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, err := s.latestRun(ctx, name)
	if err != nil {
		return nil, generic.ImportRun{}, err
	}
	rows, err := s.loadRows(ctx, run.ID)
	if err != nil {
		return nil, generic.ImportRun{}, err
	}
	return rows, run, nil
}

// LoadLatest returns the latest rows of every table. Tables never imported
// are absent from the map, which the engine treats as empty.
func (s *Store) LoadLatest(ctx context.Context) (map[generic.TableName][]generic.RawRow, error) {
	out := make(map[generic.TableName][]generic.RawRow, 3)
	for _, name := range generic.Tables {
		rows, _, err := s.LoadTable(ctx, name)
		if errors.Is(err, generic.ErrNoDataset) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		out[name] = rows
	}
	return out, nil
}

// ListRuns returns the most recent runs first. A limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]generic.ImportRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, table_name, source, row_count, headers_json, imported_at
		FROM import_runs
		ORDER BY seq DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query import runs: %w", err)
	}
	defer rows.Close()

	var runs []generic.ImportRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun retrieves a run by ID, or ErrNoDataset.
func (s *Store) GetRun(ctx context.Context, id string) (generic.ImportRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, table_name, source, row_count, headers_json, imported_at
		FROM import_runs WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return generic.ImportRun{}, fmt.Errorf("run %s: %w", id, generic.ErrNoDataset)
	}
	return run, err
}

func (s *Store) latestRun(ctx context.Context, name generic.TableName) (generic.ImportRun, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, table_name, source, row_count, headers_json, imported_at
		FROM import_runs
		WHERE table_name = ?
		ORDER BY seq DESC
		LIMIT 1
	`, string(name))
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return generic.ImportRun{}, fmt.Errorf("%s: %w", name, generic.ErrNoDataset)
	}
	return run, err
}

func (s *Store) loadRows(ctx context.Context, runID string) ([]generic.RawRow, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT payload_json FROM raw_rows WHERE run_id = ? ORDER BY row_index ASC", runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows: %w", err)
	}
	defer rows.Close()

	var out []generic.RawRow
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var row generic.RawRow
		if err := json.Unmarshal([]byte(payload), &row); err != nil {
			return nil, fmt.Errorf("corrupt row in run %s: %w", runID, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (generic.ImportRun, error) {
	var run generic.ImportRun
	var table, headersJSON, importedAt string
	if err := sc.Scan(&run.ID, &table, &run.Source, &run.Rows, &headersJSON, &importedAt); err != nil {
		return generic.ImportRun{}, err
	}
	run.Table = generic.TableName(table)
	_ = json.Unmarshal([]byte(headersJSON), &run.Headers)
	run.ImportedAt, _ = time.Parse(time.RFC3339Nano, importedAt)
	return run, nil
}

// =============================================================================
// PROFILE STORE
// =============================================================================

// ProfileRecord is a stored profile with its JSON config.
type ProfileRecord struct {
	ID         string
	Name       string
	ConfigJSON string
	Version    int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SaveProfile saves a profile record. Saving an existing ID bumps its version.
func (s *Store) SaveProfile(ctx context.Context, p ProfileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO profiles (id, name, config_json, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			config_json = excluded.config_json,
			version = profiles.version + 1,
			updated_at = excluded.updated_at
	`

	version := p.Version
	if version <= 0 {
		version = 1
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query, p.ID, p.Name, p.ConfigJSON, version, now, now)
	return err
}

// GetProfile retrieves a profile by ID. A missing profile is (nil, nil).
func (s *Store) GetProfile(ctx context.Context, id string) (*ProfileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p ProfileRecord
	var createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, config_json, version, created_at, updated_at FROM profiles WHERE id = ?",
		id,
	).Scan(&p.ID, &p.Name, &p.ConfigJSON, &p.Version, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}

// ListProfiles returns all profiles ordered by ID.
func (s *Store) ListProfiles(ctx context.Context) ([]ProfileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, config_json, version, created_at, updated_at FROM profiles ORDER BY id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []ProfileRecord
	for rows.Next() {
		var p ProfileRecord
		var createdAt, updatedAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.ConfigJSON, &p.Version, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"raw_rows", "import_runs", "profiles"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}
