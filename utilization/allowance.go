package utilization

import (
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/warp/utilization-engine/generic"
)

// =============================================================================
// ALLOWANCES - per-employee vacation budget
// =============================================================================

var (
	colAllowanceEmployee = generic.Column{Name: "Full Name", Aliases: []string{"Employee Full Name", "Employee", "Name"}}
	colAllowanceVacation = generic.Column{Name: "Vacation Allowance", Aliases: []string{"Vacation Max", "Vacation Hours", "PTO Vacation", "Vacation"}}
)

// AllowanceRecord is one employee's vacation budget in hours.
type AllowanceRecord struct {
	Employee string
	Vacation decimal.Decimal
}

// Allowances indexes allowance records by employee name key.
type Allowances map[string]AllowanceRecord

// NormalizeAllowances converts raw allowance rows. An empty allowance cell is
// zero; unparsable or negative cells are DataFormatErrors. When an employee
// appears twice the later row wins.
func NormalizeAllowances(rows []generic.RawRow, logger *slog.Logger) (Allowances, []generic.RejectedRow) {
	if logger == nil {
		logger = slog.Default()
	}

	out := make(Allowances, len(rows))
	var rejected []generic.RejectedRow
	for i, row := range rows {
		rec, err := normalizeAllowanceRow(i, row)
		if err != nil {
			logger.Warn("dropping allowance row", "table", generic.TableAllowances, "row", i, "error", err)
			rejected = append(rejected, generic.RejectedRow{Table: generic.TableAllowances, Row: i, Err: err})
			continue
		}
		out[generic.NameKey(rec.Employee)] = rec
	}
	return out, rejected
}

func normalizeAllowanceRow(i int, row generic.RawRow) (AllowanceRecord, error) {
	formatErr := func(col generic.Column, value, reason string) error {
		return &generic.DataFormatError{Table: generic.TableAllowances, Row: i, Column: col.Name, Value: value, Reason: reason}
	}

	name, ok := colAllowanceEmployee.Lookup(row)
	if !ok || name == "" {
		return AllowanceRecord{}, formatErr(colAllowanceEmployee, "", "missing employee name")
	}

	raw, _ := colAllowanceVacation.Lookup(row)
	vacation, err := generic.ParseHours(raw)
	if err != nil {
		return AllowanceRecord{}, formatErr(colAllowanceVacation, raw, "unparsable hours")
	}
	if vacation.IsNegative() {
		return AllowanceRecord{}, formatErr(colAllowanceVacation, raw, "negative allowance")
	}

	return AllowanceRecord{Employee: generic.CleanName(name), Vacation: vacation}, nil
}

// Vacation returns the employee's vacation allowance. A missing employee is a
// ReferenceDataMissingError alongside a zero allowance.
func (a Allowances) Vacation(employee string) (decimal.Decimal, error) {
	rec, ok := a[generic.NameKey(employee)]
	if !ok {
		return decimal.Zero, &generic.ReferenceDataMissingError{Table: generic.TableAllowances, Employee: employee}
	}
	return rec.Vacation, nil
}
