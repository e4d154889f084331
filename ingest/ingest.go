/*
Package ingest reads source tables from CSV and XLSX exports.

PURPOSE:
  The engine consumes already-parsed tables. This package is the local stand-in
  for the document fetcher: it turns an uploaded or on-disk export into a
  generic.Table of header -> cell maps, leaving every cell as text for the
  normalizers to validate.

FORMATS:
  - .csv        first line is the header (gocsv)
  - .xlsx/.xlsm first worksheet, first row is the header (excelize)

  Blank rows are skipped. Short rows are padded with empty cells so every row
  carries every header.

SEE ALSO:
  - generic/rows.go: RawRow, Table
  - store/sqlite: Persists imported tables
*/
package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/warp/utilization-engine/generic"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrEmptyTable is returned when a file has no header row.
var ErrEmptyTable = errors.New("table has no header row")

// Format is a supported source file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat picks the format from a file name's extension.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
}

// ReadTable parses r as the named table, choosing the format from filename.
func ReadTable(name generic.TableName, r io.Reader, filename string) (generic.Table, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return generic.Table{}, err
	}

	var rows []generic.RawRow
	switch format {
	case FormatCSV:
		rows, err = readCSV(r)
	case FormatXLSX:
		rows, err = readXLSX(r)
	}
	if err != nil {
		return generic.Table{}, fmt.Errorf("read %s from %s: %w", name, filename, err)
	}
	return generic.Table{Name: name, Rows: rows}, nil
}

// ReadFile opens path and parses it as the named table.
func ReadFile(name generic.TableName, path string) (generic.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return generic.Table{}, err
	}
	defer f.Close()
	return ReadTable(name, f, path)
}

// =============================================================================
// CSV
// =============================================================================

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func readCSV(r io.Reader) ([]generic.RawRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyTable
	}

	maps, err := gocsv.CSVToMaps(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	rows := make([]generic.RawRow, 0, len(maps))
	for _, m := range maps {
		if blank(m) {
			continue
		}
		rows = append(rows, trimHeaders(m))
	}
	return rows, nil
}

// =============================================================================
// XLSX
// =============================================================================

func readXLSX(r io.Reader) ([]generic.RawRow, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no worksheet found")
	}

	grid, err := file.GetRows(sheetName)
	if err != nil {
		return nil, err
	}
	if len(grid) == 0 {
		return nil, ErrEmptyTable
	}

	header := grid[0]
	rows := make([]generic.RawRow, 0, len(grid)-1)
	for _, cells := range grid[1:] {
		row := make(generic.RawRow, len(header))
		for i, h := range header {
			if h = strings.TrimSpace(h); h == "" {
				continue
			}
			if i < len(cells) {
				row[h] = cells[i]
			} else {
				row[h] = ""
			}
		}
		if blank(row) {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func blank(m map[string]string) bool {
	for _, v := range m {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func trimHeaders(m map[string]string) generic.RawRow {
	row := make(generic.RawRow, len(m))
	for k, v := range m {
		if k = strings.TrimSpace(k); k != "" {
			row[k] = v
		}
	}
	return row
}
