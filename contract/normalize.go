/*
Package contract turns per-employee contract rows into daily-rate records and
integrates them over reporting windows to produce target ("baseline") hours.

PURPOSE:
  An employee's expected hours come from their contract segments: weekly
  hours in force between a start and an (optional) end date. A mid-year raise
  or a switch to part time is simply a second segment.

NORMALIZATION RULES (Normalize):
  - Start is required; End is optional (open-ended contracts)
  - Missing End -> cap date; End is then clamped to the cap
  - DailyRate = WeeklyHours / 5 when WeeklyHours > 0, else 0
  - Unparsable cells, missing name/start, negative hours and End < Start are
    DataFormatErrors; the row is dropped and recorded, never fatal
  - A segment starting after the cap is rejected with ErrContractNotEffective,
    so every record satisfies Start <= End

SEE ALSO:
  - baseline.go: TargetHoursInPeriod / EmployeeBaseline
  - calendar/workday.go: BusinessDayCount
*/
package contract

import (
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/warp/utilization-engine/calendar"
	"github.com/warp/utilization-engine/generic"
)

// =============================================================================
// RECORD
// =============================================================================

// Record is one normalized contract segment. Never mutated after Normalize.
type Record struct {
	Employee    string
	Office      string
	WeeklyHours decimal.Decimal
	DailyRate   decimal.Decimal
	Start       calendar.Date
	End         calendar.Date
}

// Validity is the clamped [Start, End] window of the segment.
func (r Record) Validity() calendar.Period {
	return calendar.NewPeriod(r.Start, r.End)
}

// DailyRate derives hours per business day from weekly hours.
func DailyRate(weekly decimal.Decimal) decimal.Decimal {
	if !weekly.IsPositive() {
		return decimal.Zero
	}
	return weekly.Div(decimal.NewFromInt(5))
}

// =============================================================================
// COLUMNS
// =============================================================================

var (
	colEmployee = generic.Column{Name: "Full Name", Aliases: []string{"Employee", "Employee Full Name", "Name"}}
	colOffice   = generic.Column{Name: "Legal Office", Aliases: []string{"Office"}}
	colWeekly   = generic.Column{Name: "Working Hrs", Aliases: []string{"Weekly Hours", "Working Hours"}}
	colStart    = generic.Column{Name: "Start", Aliases: []string{"Start Date"}}
	colEnd      = generic.Column{Name: "End", Aliases: []string{"End Date"}}
)

// =============================================================================
// NORMALIZER
// =============================================================================

// Normalizer converts raw contract rows. Logger may be nil.
type Normalizer struct {
	Cap    calendar.Date
	Logger *slog.Logger
}

// Normalize converts every row, returning the kept records in input order and
// the rejected rows alongside.
func (n Normalizer) Normalize(rows []generic.RawRow) ([]Record, []generic.RejectedRow) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}

	records := make([]Record, 0, len(rows))
	var rejected []generic.RejectedRow
	for i, row := range rows {
		rec, err := n.normalizeRow(i, row)
		if err != nil {
			logger.Warn("dropping contract row", "table", generic.TableContracts, "row", i, "error", err)
			rejected = append(rejected, generic.RejectedRow{Table: generic.TableContracts, Row: i, Err: err})
			continue
		}
		records = append(records, rec)
	}
	return records, rejected
}

// Normalize is a shorthand for Normalizer{Cap: capDate}.Normalize(rows).
func Normalize(rows []generic.RawRow, capDate calendar.Date) ([]Record, []generic.RejectedRow) {
	return Normalizer{Cap: capDate}.Normalize(rows)
}

func (n Normalizer) normalizeRow(i int, row generic.RawRow) (Record, error) {
	formatErr := func(col generic.Column, value, reason string) error {
		return &generic.DataFormatError{Table: generic.TableContracts, Row: i, Column: col.Name, Value: value, Reason: reason}
	}

	name, ok := colEmployee.Lookup(row)
	if !ok || name == "" {
		return Record{}, formatErr(colEmployee, "", "missing employee name")
	}
	office, _ := colOffice.Lookup(row)

	weeklyRaw, _ := colWeekly.Lookup(row)
	weekly, err := generic.ParseHours(weeklyRaw)
	if err != nil {
		return Record{}, formatErr(colWeekly, weeklyRaw, "unparsable weekly hours")
	}
	if weekly.IsNegative() {
		return Record{}, formatErr(colWeekly, weeklyRaw, "negative weekly hours")
	}

	startRaw, ok := colStart.Lookup(row)
	if !ok || startRaw == "" {
		return Record{}, formatErr(colStart, "", "missing start date")
	}
	start, err := calendar.ParseDate(startRaw)
	if err != nil {
		return Record{}, formatErr(colStart, startRaw, "unparsable start date")
	}

	end := n.Cap
	if endRaw, _ := colEnd.Lookup(row); endRaw != "" {
		parsed, err := calendar.ParseDate(endRaw)
		if err != nil {
			return Record{}, formatErr(colEnd, endRaw, "unparsable end date")
		}
		if parsed.Before(start) {
			return Record{}, formatErr(colEnd, endRaw, "end date before start date")
		}
		end = calendar.MinDate(parsed, n.Cap)
	}

	if start.After(end) {
		return Record{}, fmt.Errorf("contracts row %d: start %s after cap %s: %w", i, start, n.Cap, generic.ErrContractNotEffective)
	}

	return Record{
		Employee:    generic.CleanName(name),
		Office:      office,
		WeeklyHours: weekly,
		DailyRate:   DailyRate(weekly),
		Start:       start,
		End:         end,
	}, nil
}
