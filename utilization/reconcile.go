package utilization

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/warp/utilization-engine/calendar"
	"github.com/warp/utilization-engine/contract"
	"github.com/warp/utilization-engine/generic"
	"github.com/warp/utilization-engine/timesheet"
)

// =============================================================================
// RESULT TYPES
// =============================================================================

// PeriodMetrics is the utilization picture for one reporting window.
type PeriodMetrics struct {
	Period         calendar.Period
	TargetHours    decimal.Decimal
	PTOHours       decimal.Decimal
	AdjustedTarget decimal.Decimal
	ProjectHours   decimal.Decimal
	Utilization    decimal.Decimal // ratio, not a percentage
}

// ReportBundle carries every metric for one employee. All quantities are
// exact decimals; rounding is left to the presentation layer.
type ReportBundle struct {
	Employee string
	Office   string
	Cutoff   calendar.Date

	// Whole-history baseline, earliest contract start to Cutoff - 1.
	Baseline    calendar.Period
	TargetHours decimal.Decimal
	ActualHours decimal.Decimal

	// Settled PTO split
	PTOVacation    decimal.Decimal
	PTOSick        decimal.Decimal // includes bereavement
	StatHolidays   decimal.Decimal
	OfficeClosed   decimal.Decimal
	CombinedClosed decimal.Decimal
	UnpaidHours    decimal.Decimal
	FlexHours      decimal.Decimal

	AdjustedTarget decimal.Decimal

	ProjectHours      decimal.Decimal
	InternalHours     decimal.Decimal
	TotalWorkingHours decimal.Decimal

	// Booked on or after the cutoff
	FutureVacationHours decimal.Decimal
	FutureFlexHours     decimal.Decimal

	VacationAllowance decimal.Decimal
	VacationUsed      decimal.Decimal
	VacationRemaining decimal.Decimal

	SickCap       decimal.Decimal
	SickUsed      decimal.Decimal
	SickRemaining decimal.Decimal

	PDCap       decimal.Decimal
	PDUsed      decimal.Decimal
	PDRemaining decimal.Decimal

	// PTOBreakdown has one entry per timesheet.PTOCardTitles title.
	PTOBreakdown map[string]decimal.Decimal

	LastMonth  PeriodMetrics
	YearToDate PeriodMetrics

	Notes []string
}

// =============================================================================
// RECONCILE
// =============================================================================

// Reconcile computes the bundle for one employee. Settled entries must be
// dated before cutoff and future entries on or after it (see
// timesheet.Partition). cfg supplies the caps and the period exclusion set;
// its Cutoff is not consulted.
//
// Reconcile is total: an employee absent from every input gets a bundle with
// zero hours. SickRemaining and PDRemaining still equal the caps, since
// nothing was used against them.
func Reconcile(
	employee string,
	contracts []contract.Record,
	settled, future []timesheet.Entry,
	allowance decimal.Decimal,
	cutoff calendar.Date,
	cfg Config,
) ReportBundle {
	b := ReportBundle{
		Employee: generic.CleanName(employee),
		Cutoff:   cutoff,
	}

	own := contract.ForEmployee(contracts, employee)
	if offices := contract.Offices(own, employee); len(offices) > 0 {
		b.Office = offices[0]
	}

	// 1. whole-history baseline
	if start, ok := contract.EarliestStart(own); ok {
		b.Baseline = calendar.NewPeriod(start, cutoff.AddDays(-1))
		b.TargetHours = contract.EmployeeBaseline(own, employee, b.Baseline)
	} else {
		b.Notes = append(b.Notes, "no contract records")
	}

	// 2-3. settled PTO split
	byTitle := timesheet.SumByTitle(settled, employee, timesheet.CategoryBudgetPTO, timesheet.BudgetPTOTitles)
	byCategory := timesheet.SumByCategory(settled, employee)

	b.PTOVacation = byTitle[timesheet.TitleVacation]
	b.PTOSick = byTitle[timesheet.TitleSick]
	b.StatHolidays = byTitle[timesheet.TitleStatHolidays]
	b.OfficeClosed = byTitle[timesheet.TitleOfficeClosed]
	b.CombinedClosed = b.StatHolidays.Add(b.OfficeClosed)
	b.UnpaidHours = byTitle[timesheet.TitleUnpaid]
	b.FlexHours = byCategory[timesheet.CategoryFlexPTO]

	// 4. headline adjusted target
	b.AdjustedTarget = AdjustedTarget(b.TargetHours, b.PTOVacation, b.PTOSick, b.CombinedClosed, b.UnpaidHours)

	// 5. worked hours
	b.ProjectHours = byCategory[timesheet.CategoryProject]
	b.InternalHours = byCategory[timesheet.CategoryInternal]
	b.TotalWorkingHours = b.ProjectHours.Add(b.InternalHours)
	b.ActualHours = timesheet.Total(timesheet.ForEmployee(settled, employee))

	// 6. bookings
	b.FutureVacationHours = timesheet.SumByTitle(future, employee, timesheet.CategoryBudgetPTO,
		[]string{timesheet.TitleVacation})[timesheet.TitleVacation]
	b.FutureFlexHours = timesheet.SumByCategory(future, employee)[timesheet.CategoryFlexPTO]

	// 7. allowances
	b.VacationAllowance = allowance
	b.VacationUsed, b.VacationRemaining = usedAndRemaining(b.PTOVacation, allowance, b.FutureVacationHours)
	b.SickCap = cfg.SickCapHours
	b.SickUsed, b.SickRemaining = usedAndRemaining(b.PTOSick, cfg.SickCapHours, decimal.Zero)
	b.PDCap = cfg.PDCapHours
	b.PDUsed, b.PDRemaining = usedAndRemaining(byTitle[timesheet.TitleProfessionalDevelopment], cfg.PDCapHours, decimal.Zero)

	b.PTOBreakdown = lo.PickByKeys(timesheet.PTOBreakdown(settled, employee), timesheet.PTOCardTitles)

	// 8. period metrics
	b.LastMonth = PeriodMetricsFor(employee, own, settled, calendar.LastCompletedMonth(cutoff), cfg.PTOPeriodExclusionSet)
	b.YearToDate = PeriodMetricsFor(employee, own, settled, calendar.YearToDate(cutoff), cfg.PTOPeriodExclusionSet)

	return b
}

// AdjustedTarget is the headline adjusted baseline:
// max(target - vacation - sick - combinedClosed - unpaid, 0).
func AdjustedTarget(target, vacation, sick, combinedClosed, unpaid decimal.Decimal) decimal.Decimal {
	return generic.FloorZero(target.Sub(vacation).Sub(sick).Sub(combinedClosed).Sub(unpaid))
}

// PeriodMetricsFor scopes both the baseline and the PTO to one window. Only
// PTO under the exclusion titles is subtracted from the window's baseline.
// Utilization is zero when the adjusted target is not positive.
func PeriodMetricsFor(
	employee string,
	contracts []contract.Record,
	settled []timesheet.Entry,
	period calendar.Period,
	exclusion []string,
) PeriodMetrics {
	inWindow := timesheet.InPeriod(settled, period)

	m := PeriodMetrics{Period: period}
	m.TargetHours = contract.EmployeeBaseline(contracts, employee, period)
	m.PTOHours = timesheet.SumTitles(inWindow, employee, exclusion)
	m.AdjustedTarget = generic.FloorZero(m.TargetHours.Sub(m.PTOHours))
	m.ProjectHours = timesheet.SumByCategory(inWindow, employee)[timesheet.CategoryProject]
	m.Utilization = generic.Ratio(m.ProjectHours, m.AdjustedTarget)
	return m
}

// usedAndRemaining caps consumption at the budget and subtracts bookings from
// what is left, floored at zero.
func usedAndRemaining(taken, budget, booked decimal.Decimal) (used, remaining decimal.Decimal) {
	used = decimal.Min(taken, budget)
	remaining = generic.FloorZero(budget.Sub(used).Sub(booked))
	return used, remaining
}
