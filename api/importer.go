/*
importer.go - Periodic source table refresh

PURPOSE:
  Periodically scans a drop directory for table exports and imports any file
  that changed since the last scan. This keeps the store in step with the
  exports a shared drive or sync job leaves behind.

FILE NAMING:
  <table>.<ext> where table is contracts, timesheet or allowances and ext is
  csv, xlsx or xlsm. Other files are ignored.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Remembers each file's modification time and size; unchanged files are skipped
  - A file that fails to parse is logged and retried on the next tick

USAGE:
  importer := NewDirectoryImporter(store, "/srv/exports", logger)
  importer.Start()
  // ... later
  importer.Stop()

SEE ALSO:
  - handlers.go: UploadTable (manual import)
  - ingest/ingest.go: ReadFile
*/
package api

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/warp/utilization-engine/generic"
	"github.com/warp/utilization-engine/ingest"
)

// DirectoryImporter handles automated table imports from a directory.
type DirectoryImporter struct {
	Store         generic.TableStore
	Dir           string
	CheckInterval time.Duration
	Logger        *slog.Logger

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	scanMu sync.Mutex
	seen   map[string]fileStamp
}

type fileStamp struct {
	modTime time.Time
	size    int64
}

// NewDirectoryImporter creates an importer for dir with a one minute interval.
func NewDirectoryImporter(store generic.TableStore, dir string, logger *slog.Logger) *DirectoryImporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirectoryImporter{
		Store:         store,
		Dir:           dir,
		CheckInterval: time.Minute,
		Logger:        logger.With("component", "importer", "dir", dir),
		seen:          make(map[string]fileStamp),
	}
}

// Start begins scanning. The first scan runs immediately.
func (di *DirectoryImporter) Start() {
	di.mu.Lock()
	defer di.mu.Unlock()

	if di.ticker != nil {
		return
	}
	di.ticker = time.NewTicker(di.CheckInterval)
	di.stop = make(chan struct{})
	di.wg.Add(1)

	go di.run()

	di.Logger.Info("importer started", "interval", di.CheckInterval)
}

// Stop stops the importer and waits for an in-flight scan.
func (di *DirectoryImporter) Stop() {
	di.mu.Lock()
	defer di.mu.Unlock()

	if di.ticker == nil {
		return
	}
	di.ticker.Stop()
	close(di.stop)
	di.wg.Wait()
	di.ticker = nil
	di.Logger.Info("importer stopped")
}

func (di *DirectoryImporter) run() {
	defer di.wg.Done()

	di.scan()

	for {
		select {
		case <-di.ticker.C:
			di.scan()
		case <-di.stop:
			return
		}
	}
}

func (di *DirectoryImporter) scan() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-di.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	imported, err := di.Scan(ctx)
	if err != nil {
		di.Logger.Error("scan failed", "error", err)
		return
	}
	if imported > 0 {
		di.Logger.Info("scan completed", "imported", imported)
	}
}

// Scan imports every changed table file once and returns how many were
// imported. It is safe to call directly; Start calls it on each tick.
func (di *DirectoryImporter) Scan(ctx context.Context) (int, error) {
	di.scanMu.Lock()
	defer di.scanMu.Unlock()

	entries, err := os.ReadDir(di.Dir)
	if err != nil {
		return 0, fmt.Errorf("read dir: %w", err)
	}

	imported := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			return imported, ctx.Err()
		}
		if entry.IsDir() {
			continue
		}

		name, ok := tableForFile(entry.Name())
		if !ok {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		stamp := fileStamp{modTime: info.ModTime(), size: info.Size()}
		path := filepath.Join(di.Dir, entry.Name())
		if prev, ok := di.seen[path]; ok && prev.size == stamp.size && prev.modTime.Equal(stamp.modTime) {
			continue
		}

		if err := di.importFile(ctx, name, path); err != nil {
			di.Logger.Warn("import failed", "file", entry.Name(), "error", err)
			continue
		}
		di.seen[path] = stamp
		imported++
	}
	return imported, nil
}

func (di *DirectoryImporter) importFile(ctx context.Context, name generic.TableName, path string) error {
	table, err := ingest.ReadFile(name, path)
	if err != nil {
		return err
	}
	run, err := di.Store.ImportTable(ctx, table, filepath.Base(path))
	if err != nil {
		return err
	}

	TablesImported.WithLabelValues(string(name)).Inc()
	RowsImported.WithLabelValues(string(name)).Add(float64(run.Rows))
	di.Logger.Info("table imported", "table", name, "file", filepath.Base(path), "rows", run.Rows, "run_id", run.ID)
	return nil
}

// tableForFile maps "timesheet.csv" to the timesheet table.
func tableForFile(filename string) (generic.TableName, bool) {
	if _, err := ingest.DetectFormat(filename); err != nil {
		return "", false
	}
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	name, err := generic.ParseTableName(base)
	if err != nil {
		return "", false
	}
	return name, true
}
