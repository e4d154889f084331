package timesheet

import (
	"sort"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/warp/utilization-engine/calendar"
	"github.com/warp/utilization-engine/generic"
)

// =============================================================================
// PARTITION - settled vs booked
// =============================================================================

// Partition splits entries at the cutoff: settled entries are dated strictly
// before it, future entries on or after it. Input order is kept in both and
// every entry lands in exactly one side.
func Partition(entries []Entry, cutoff calendar.Date) (settled, future []Entry) {
	return lo.FilterReject(entries, func(e Entry, _ int) bool {
		return e.Date.Before(cutoff)
	})
}

// ForEmployee keeps the employee's entries, matched on the name key.
func ForEmployee(entries []Entry, employee string) []Entry {
	key := generic.NameKey(employee)
	return lo.Filter(entries, func(e Entry, _ int) bool {
		return generic.NameKey(e.Employee) == key
	})
}

// InPeriod keeps entries dated within the period.
func InPeriod(entries []Entry, period calendar.Period) []Entry {
	return lo.Filter(entries, func(e Entry, _ int) bool {
		return period.Contains(e.Date)
	})
}

// Employees lists distinct employee names in input order.
func Employees(entries []Entry) []string {
	return lo.UniqBy(lo.Map(entries, func(e Entry, _ int) string { return e.Employee }), generic.NameKey)
}

// =============================================================================
// GROUPED SUMS
// =============================================================================

// Total sums the hours of all entries.
func Total(entries []Entry) decimal.Decimal {
	return generic.Sum(lo.Map(entries, func(e Entry, _ int) decimal.Decimal { return e.Hours }))
}

// SumByCategory sums the employee's hours per category. Every category is
// present in the result, zero when the employee logged nothing under it.
func SumByCategory(entries []Entry, employee string) map[Category]decimal.Decimal {
	out := make(map[Category]decimal.Decimal, len(Categories))
	for _, c := range Categories {
		out[c] = decimal.Zero
	}
	for _, e := range ForEmployee(entries, employee) {
		out[e.Category] = out[e.Category].Add(e.Hours)
	}
	return out
}

// SumByTitle sums the employee's hours in one category per report title,
// restricted to the caller's title list. Every listed title is present in the
// result, zero when absent from the data.
func SumByTitle(entries []Entry, employee string, category Category, titles []string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(titles))
	for _, t := range titles {
		out[t] = decimal.Zero
	}
	for _, e := range ForEmployee(entries, employee) {
		if e.Category != category {
			continue
		}
		title := e.ReportTitle()
		if sum, ok := out[title]; ok {
			out[title] = sum.Add(e.Hours)
		}
	}
	return out
}

// SumTitles sums the employee's PTO hours reported under any of the titles,
// across both PTO categories. Work entries never match, whatever their title.
func SumTitles(entries []Entry, employee string, titles []string) decimal.Decimal {
	set := lo.SliceToMap(titles, func(t string) (string, struct{}) { return t, struct{}{} })
	matching := lo.Filter(ForEmployee(entries, employee), func(e Entry, _ int) bool {
		if e.PTO == PTONone {
			return false
		}
		_, ok := set[e.ReportTitle()]
		return ok
	})
	return Total(matching)
}

// PTOBreakdown is the per-title PTO card set: Budget PTO titles plus the
// Add'l & Flex PTO category total relabeled as "PTO Flex Vacation".
func PTOBreakdown(entries []Entry, employee string) map[string]decimal.Decimal {
	out := SumByTitle(entries, employee, CategoryBudgetPTO, BudgetPTOTitles)
	out[TitleFlex] = SumByCategory(entries, employee)[CategoryFlexPTO]
	return out
}

// =============================================================================
// MONTHLY TREND
// =============================================================================

// MonthTotal is the hours an employee logged in one category in one month.
type MonthTotal struct {
	Month    string // YYYY-MM
	Category Category
	Hours    decimal.Decimal
}

// SumByMonth buckets the employee's hours by calendar year-month and category.
// Months are ascending; within a month every category appears, in category
// order, zero when absent.
func SumByMonth(entries []Entry, employee string) []MonthTotal {
	byMonth := lo.GroupBy(ForEmployee(entries, employee), func(e Entry) string {
		return e.Date.YearMonth()
	})

	months := lo.Keys(byMonth)
	sort.Strings(months)

	out := make([]MonthTotal, 0, len(months)*len(Categories))
	for _, m := range months {
		sums := SumByCategory(byMonth[m], employee)
		for _, c := range Categories {
			out = append(out, MonthTotal{Month: m, Category: c, Hours: sums[c]})
		}
	}
	return out
}

// MonthSum is an employee's total hours across categories in one month.
type MonthSum struct {
	Month string
	Hours decimal.Decimal
}

// MonthlyTotals collapses SumByMonth buckets into one total per month, keeping
// month order.
func MonthlyTotals(buckets []MonthTotal) []MonthSum {
	var out []MonthSum
	for _, b := range buckets {
		if n := len(out); n > 0 && out[n-1].Month == b.Month {
			out[n-1].Hours = out[n-1].Hours.Add(b.Hours)
			continue
		}
		out = append(out, MonthSum{Month: b.Month, Hours: b.Hours})
	}
	return out
}
