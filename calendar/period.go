package calendar

// =============================================================================
// PERIOD - An inclusive window of days
// =============================================================================

// Period is an inclusive [Start, End] window. A period whose End is before its
// Start is empty; every operation treats it as containing no days.
//
// Examples:
//   - Contract validity: start date .. min(end date, cap)
//   - Last completed month: Dec 1 - Dec 31 for a cutoff in January
//   - Year to date: Jan 1 .. cutoff - 1 day
type Period struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// NewPeriod builds a period from two dates.
func NewPeriod(start, end Date) Period {
	return Period{Start: start, End: end}
}

// IsEmpty reports whether the window contains no days.
func (p Period) IsEmpty() bool {
	return p.End.Before(p.Start)
}

// Contains returns true if d is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Intersect returns the overlap of two periods. The result may be empty.
func (p Period) Intersect(o Period) Period {
	return Period{
		Start: MaxDate(p.Start, o.Start),
		End:   MinDate(p.End, o.End),
	}
}

// BusinessDays counts the weekdays in the period.
func (p Period) BusinessDays() int {
	return BusinessDayCount(p.Start, p.End)
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// REPORTING WINDOWS - Anchored to the cutoff
// =============================================================================

// LastCompletedMonth is the calendar month immediately preceding the cutoff's month.
func LastCompletedMonth(cutoff Date) Period {
	first := StartOfMonth(cutoff.Year(), cutoff.Month()).AddMonths(-1)
	return Period{
		Start: first,
		End:   EndOfMonth(first.Year(), first.Month()),
	}
}

// YearToDate runs from Jan 1 of the cutoff's year through the day before the cutoff.
// When the cutoff is Jan 1 the window is empty.
func YearToDate(cutoff Date) Period {
	return Period{
		Start: StartOfYear(cutoff.Year()),
		End:   cutoff.AddDays(-1),
	}
}
