package contract

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/warp/utilization-engine/calendar"
	"github.com/warp/utilization-engine/generic"
)

// =============================================================================
// BASELINE CALCULATOR
// =============================================================================

// TargetHoursInPeriod integrates a segment's daily rate over its overlap with
// the reporting period: business days in the overlap times the daily rate.
// No overlap yields zero.
func TargetHoursInPeriod(r Record, period calendar.Period) decimal.Decimal {
	overlap := r.Validity().Intersect(period)
	if overlap.IsEmpty() {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(overlap.BusinessDays())).Mul(r.DailyRate)
}

// ForEmployee returns the employee's segments, matched on the name key.
func ForEmployee(records []Record, employee string) []Record {
	key := generic.NameKey(employee)
	return lo.Filter(records, func(r Record, _ int) bool {
		return generic.NameKey(r.Employee) == key
	})
}

// EmployeeBaseline sums TargetHoursInPeriod over every segment belonging to the
// employee. Segments are assumed non-overlapping in the source; they are summed
// as given. An employee with no segments has a baseline of zero.
func EmployeeBaseline(records []Record, employee string, period calendar.Period) decimal.Decimal {
	hours := lo.Map(ForEmployee(records, employee), func(r Record, _ int) decimal.Decimal {
		return TargetHoursInPeriod(r, period)
	})
	return generic.Sum(hours)
}

// EarliestStart returns the first start date among the records, and false if
// there are none.
func EarliestStart(records []Record) (calendar.Date, bool) {
	if len(records) == 0 {
		return calendar.Date{}, false
	}
	first := lo.MinBy(records, func(a, b Record) bool { return a.Start.Before(b.Start) })
	return first.Start, true
}

// Offices lists the distinct offices of the employee's segments in input order.
func Offices(records []Record, employee string) []string {
	offices := lo.FilterMap(ForEmployee(records, employee), func(r Record, _ int) (string, bool) {
		return r.Office, r.Office != ""
	})
	return lo.Uniq(offices)
}

// Employees lists the distinct employee names in input order.
func Employees(records []Record) []string {
	return lo.UniqBy(lo.Map(records, func(r Record, _ int) string { return r.Employee }), generic.NameKey)
}
