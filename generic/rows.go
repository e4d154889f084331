/*
Package generic holds the table-agnostic pieces shared by every normalizer:
raw rows as they arrive from a spreadsheet export, column alias lookup, the
rejected-row record, employee-name keys and decimal hour helpers.

PURPOSE:
  The three source tables (contracts, timesheet, allowances) are exported by
  different tools with different column headers. Each normalizer declares the
  canonical columns it needs with their known aliases; this file resolves them
  against whatever header the export used.

KEY CONCEPTS:
  - RawRow:      One data row, header -> cell text
  - Table:       Named slice of RawRows (the Document Fetcher's output)
  - Column:      Canonical column name + accepted header aliases
  - RejectedRow: A row dropped during normalization, with its error

SEE ALSO:
  - errors.go: DataFormatError carried by RejectedRow
  - ingest/: Produces Tables from CSV and XLSX files
*/
package generic

import (
	"sort"
	"strings"

	"github.com/samber/lo"
)

// =============================================================================
// TABLES
// =============================================================================

// TableName identifies one of the three source tables.
type TableName string

const (
	TableContracts  TableName = "contracts"
	TableTimesheet  TableName = "timesheet"
	TableAllowances TableName = "allowances"
)

// ParseTableName validates a table name from a URL, flag or file name.
func ParseTableName(s string) (TableName, error) {
	switch TableName(strings.ToLower(strings.TrimSpace(s))) {
	case TableContracts:
		return TableContracts, nil
	case TableTimesheet:
		return TableTimesheet, nil
	case TableAllowances:
		return TableAllowances, nil
	}
	return "", ErrUnknownTable
}

// RawRow maps a source header to the cell text of one row.
type RawRow map[string]string

// Table is an already-parsed source table.
type Table struct {
	Name TableName
	Rows []RawRow
}

// =============================================================================
// COLUMN LOOKUP
// =============================================================================

// Column is a canonical column with the header spellings it accepts.
type Column struct {
	Name    string
	Aliases []string
}

// Lookup returns the trimmed cell for the first spelling present in the row,
// trying Name then Aliases in order. Exact headers win over case- and
// whitespace-insensitive matches.
func (c Column) Lookup(row RawRow) (string, bool) {
	spellings := append([]string{c.Name}, c.Aliases...)
	for _, alias := range spellings {
		if v, ok := row[alias]; ok {
			return strings.TrimSpace(v), true
		}
	}

	headers := lo.Keys(row)
	sort.Strings(headers)
	index := make(map[string]string, len(headers))
	for _, header := range headers {
		key := NormalizeHeader(header)
		if _, taken := index[key]; !taken {
			index[key] = header
		}
	}
	for _, alias := range spellings {
		if header, ok := index[NormalizeHeader(alias)]; ok {
			return strings.TrimSpace(row[header]), true
		}
	}
	return "", false
}

// NormalizeHeader lowercases a header and collapses inner whitespace.
func NormalizeHeader(header string) string {
	return strings.ToLower(strings.Join(strings.Fields(header), " "))
}

// NameKey is the join key for employee names: case folded, whitespace collapsed.
func NameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// CleanName collapses whitespace in a display name without changing case.
func CleanName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// =============================================================================
// REJECTED ROWS
// =============================================================================

// RejectedRow records a row dropped during normalization.
type RejectedRow struct {
	Table TableName `json:"table"`
	Row   int       `json:"row"`
	Err   error     `json:"-"`
}

// Reason renders the error for reports and API responses.
func (r RejectedRow) Reason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
