// Package store provides TableStore implementations.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/utilization-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/one-shot runs)
// =============================================================================

// Memory keeps import runs in process. Safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	runs []memoryRun // append order
}

type memoryRun struct {
	run  generic.ImportRun
	rows []generic.RawRow
}

var _ generic.TableStore = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{}
}

// ImportTable appends a run. Rows are copied so later edits by the caller
// do not leak into the store.
func (m *Memory) ImportTable(_ context.Context, table generic.Table, source string) (generic.ImportRun, error) {
	name, err := generic.ParseTableName(string(table.Name))
	if err != nil {
		return generic.ImportRun{}, fmt.Errorf("import %q: %w", table.Name, err)
	}

	rows := make([]generic.RawRow, len(table.Rows))
	for i, row := range table.Rows {
		cp := make(generic.RawRow, len(row))
		for k, v := range row {
			cp[k] = v
		}
		rows[i] = cp
	}

	run := generic.ImportRun{
		ID:         uuid.NewString(),
		Table:      name,
		Source:     source,
		Rows:       len(rows),
		Headers:    generic.HeadersOf(rows),
		ImportedAt: time.Now().UTC(),
	}

	m.mu.Lock()
	m.runs = append(m.runs, memoryRun{run: run, rows: rows})
	m.mu.Unlock()
	return run, nil
}

// LoadTable returns the latest run of a table.
func (m *Memory) LoadTable(_ context.Context, name generic.TableName) ([]generic.RawRow, generic.ImportRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.runs) - 1; i >= 0; i-- {
		if m.runs[i].run.Table == name {
			return m.runs[i].rows, m.runs[i].run, nil
		}
	}
	return nil, generic.ImportRun{}, fmt.Errorf("%s: %w", name, generic.ErrNoDataset)
}

// LoadLatest returns the latest rows of every imported table.
func (m *Memory) LoadLatest(ctx context.Context) (map[generic.TableName][]generic.RawRow, error) {
	out := make(map[generic.TableName][]generic.RawRow, len(generic.Tables))
	for _, name := range generic.Tables {
		rows, _, err := m.LoadTable(ctx, name)
		if err != nil {
			continue
		}
		out[name] = rows
	}
	return out, nil
}

// ListRuns returns the most recent runs first.
func (m *Memory) ListRuns(_ context.Context, limit int) ([]generic.ImportRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []generic.ImportRun
	for i := len(m.runs) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, m.runs[i].run)
	}
	return out, nil
}
