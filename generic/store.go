/*
store.go - Persistence interface for imported source tables

PURPOSE:
  Defines the interface between table ingestion and storage. Every upload of
  a source table is an import run; readers always see the latest run of each
  table. Different implementations use SQLite or memory.

APPEND-ONLY CONTRACT:
  - ImportTable(): the only write; a run and all its rows land together
  - NO Update() or Delete() of a run
  - A bad upload is corrected by importing the table again

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Durable store (also holds profiles)
  - generic/store/memory.go: In-memory for tests and one-shot CLI runs

SEE ALSO:
  - rows.go: Table, RawRow
  - ingest/: Produces the tables stored here
*/
package generic

import (
	"context"
	"sort"
	"time"
)

// =============================================================================
// TABLE STORE - Interface for import run persistence (append-only)
// =============================================================================

// ImportRun describes one upload of a source table.
type ImportRun struct {
	ID         string
	Table      TableName
	Source     string
	Rows       int
	Headers    []string
	ImportedAt time.Time
}

// TableStore persists source tables as import runs.
type TableStore interface {
	// ImportTable stores the table as a new run. Earlier runs are kept.
	ImportTable(ctx context.Context, table Table, source string) (ImportRun, error)

	// LoadTable returns the latest run's rows, or ErrNoDataset.
	LoadTable(ctx context.Context, name TableName) ([]RawRow, ImportRun, error)

	// LoadLatest returns the latest rows of every imported table. Tables
	// never imported are absent from the map.
	LoadLatest(ctx context.Context) (map[TableName][]RawRow, error)

	// ListRuns returns the most recent runs first. A limit <= 0 returns all.
	ListRuns(ctx context.Context, limit int) ([]ImportRun, error)
}

// Tables lists every table name in load order.
var Tables = []TableName{TableContracts, TableTimesheet, TableAllowances}

// HeadersOf collects every header seen across the rows, sorted.
func HeadersOf(rows []RawRow) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for h := range row {
			seen[h] = struct{}{}
		}
	}
	headers := make([]string, 0, len(seen))
	for h := range seen {
		headers = append(headers, h)
	}
	sort.Strings(headers)
	return headers
}
