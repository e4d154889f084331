package api

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/utilization-engine/generic"
	"github.com/warp/utilization-engine/generic/store"
)

func newTestImporter(t *testing.T) (*DirectoryImporter, *store.Memory, string) {
	t.Helper()
	dir := t.TempDir()
	mem := store.NewMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDirectoryImporter(mem, dir, logger), mem, dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestTableForFile(t *testing.T) {
	tests := []struct {
		file  string
		table generic.TableName
		ok    bool
	}{
		{"timesheet.csv", generic.TableTimesheet, true},
		{"Contracts.xlsx", generic.TableContracts, true},
		{"allowances.xlsm", generic.TableAllowances, true},
		{"timesheet.pdf", "", false},
		{"payroll.csv", "", false},
		{"README", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			name, ok := tableForFile(tt.file)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.table, name)
		})
	}
}

func TestDirectoryImporter_ScanImportsChangedFiles(t *testing.T) {
	ctx := context.Background()
	di, mem, dir := newTestImporter(t)

	// GIVEN: two table exports and an unrelated file
	writeFile(t, dir, "contracts.csv", "Full Name,Legal Office,Working Hrs,Start\nJane Doe,Toronto,37.5,2026-01-05\n")
	writeFile(t, dir, "timesheet.csv", "Employee Full Name,Date,Utilization Category,Project No - Title,Sum of Hours\nJane Doe,2026-01-05,Project,1042 - Client Build,7.5\n")
	writeFile(t, dir, "notes.txt.bak", "ignore me")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive"), 0o700))

	// WHEN: scanning
	n, err := di.Scan(ctx)

	// THEN: both tables are imported with the file name as source
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows, run, err := mem.LoadTable(ctx, generic.TableContracts)
	require.NoError(t, err)
	assert.Equal(t, "contracts.csv", run.Source)
	require.Len(t, rows, 1)
	assert.Equal(t, "Jane Doe", rows[0]["Full Name"])

	// WHEN: scanning again without changes
	n, err = di.Scan(ctx)

	// THEN: nothing is re-imported
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// WHEN: one file changes
	path := writeFile(t, dir, "timesheet.csv", "Employee Full Name,Date,Utilization Category,Project No - Title,Sum of Hours\nJane Doe,2026-01-05,Project,1042 - Client Build,7.5\nJane Doe,2026-01-06,Project,1042 - Client Build,7.5\n")
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))
	n, err = di.Scan(ctx)

	// THEN: only that table gets a new run
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	rows, _, err = mem.LoadTable(ctx, generic.TableTimesheet)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	runs, err := mem.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestDirectoryImporter_BadFileIsRetried(t *testing.T) {
	ctx := context.Background()
	di, mem, dir := newTestImporter(t)

	// GIVEN: an empty export
	writeFile(t, dir, "allowances.csv", "")

	// WHEN: scanning
	n, err := di.Scan(ctx)

	// THEN: the scan succeeds but nothing is stored
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	_, _, err = mem.LoadTable(ctx, generic.TableAllowances)
	assert.ErrorIs(t, err, generic.ErrNoDataset)

	// WHEN: the file is fixed
	writeFile(t, dir, "allowances.csv", "Full Name,Vacation Allowance\nJane Doe,75\n")
	n, err = di.Scan(ctx)

	// THEN: it is imported on the next scan
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDirectoryImporter_MissingDir(t *testing.T) {
	di, _, dir := newTestImporter(t)
	di.Dir = filepath.Join(dir, "missing")

	_, err := di.Scan(context.Background())
	assert.Error(t, err)
}

func TestDirectoryImporter_StartStop(t *testing.T) {
	di, mem, dir := newTestImporter(t)
	writeFile(t, dir, "allowances.csv", "Full Name,Vacation Allowance\nJane Doe,75\n")
	di.CheckInterval = time.Hour

	// GIVEN: a started importer (first scan runs immediately)
	di.Start()
	di.Start()

	// THEN: the table shows up without waiting for a tick
	assert.Eventually(t, func() bool {
		_, _, err := mem.LoadTable(context.Background(), generic.TableAllowances)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	di.Stop()
	di.Stop()
}
