/*
errors.go - Centralized error types for the utilization engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Normalizers return these per row; nothing in the core is fatal to a run.

ERROR CATEGORIES:
  1. Data format errors - Unparsable date, unknown category/title, missing column.
     Recovered by dropping the row and recording it in a RejectedRow list.
  2. Reference data errors - Employee absent from a lookup table (allowances).
     Recovered by defaulting the numeric field to 0.
  3. Configuration/surface errors - Missing cutoff, unknown table, no dataset.

USAGE:
  if errors.Is(err, generic.ErrDataFormat) {
      // row was dropped, keep going
  }

SEE ALSO:
  - rows.go: RejectedRow and column lookup
  - contract/normalize.go, timesheet/normalize.go: Produce DataFormatError
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDataFormat is the class of every per-row parsing or validation failure.
	ErrDataFormat = errors.New("data format error")

	// ErrReferenceDataMissing is returned when an employee has no row in a lookup table.
	ErrReferenceDataMissing = errors.New("reference data missing")

	// ErrContractNotEffective marks a contract segment that starts after the cap date.
	ErrContractNotEffective = errors.New("contract not effective before cap date")

	// ErrCutoffRequired is returned when a computation is started without a cutoff date.
	ErrCutoffRequired = errors.New("cutoff date required")

	// ErrUnknownTable is returned for a table name other than contracts, timesheet, allowances.
	ErrUnknownTable = errors.New("unknown table")

	// ErrNoDataset is returned when a table has never been imported.
	ErrNoDataset = errors.New("no dataset imported")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DataFormatError describes why a single raw row could not be normalized.
type DataFormatError struct {
	Table  TableName
	Row    int // zero-based data row index (header excluded)
	Column string
	Value  string
	Reason string
}

func (e *DataFormatError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s row %d: column %q: %s (value %q)", e.Table, e.Row, e.Column, e.Reason, e.Value)
	}
	return fmt.Sprintf("%s row %d: column %q: %s", e.Table, e.Row, e.Column, e.Reason)
}

func (e *DataFormatError) Unwrap() error {
	return ErrDataFormat
}

// ReferenceDataMissingError names the employee that had no lookup row.
type ReferenceDataMissingError struct {
	Table    TableName
	Employee string
}

func (e *ReferenceDataMissingError) Error() string {
	return fmt.Sprintf("%s: no row for employee %q", e.Table, e.Employee)
}

func (e *ReferenceDataMissingError) Unwrap() error {
	return ErrReferenceDataMissing
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsDataFormat returns true if the error means a row was malformed.
func IsDataFormat(err error) bool {
	return errors.Is(err, ErrDataFormat)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrDataFormat) ||
		errors.Is(err, ErrUnknownTable) ||
		errors.Is(err, ErrCutoffRequired)
}

// IsNotFound returns true if the error indicates missing data.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNoDataset) ||
		errors.Is(err, ErrReferenceDataMissing)
}
