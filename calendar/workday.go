package calendar

import "time"

// BusinessDayCount returns the number of weekdays (Monday to Friday) in the
// inclusive interval [start, end], or 0 when start is after end.
//
// Holidays are not excluded here. Stat holidays and office closures arrive as
// PTO timesheet entries and are subtracted from the baseline instead.
func BusinessDayCount(start, end Date) int {
	if start.IsZero() || end.IsZero() || start.After(end) {
		return 0
	}

	days := DaysBetween(start, end) + 1
	weeks, rest := days/7, days%7
	count := weeks * 5

	wd := start.Weekday()
	for i := 0; i < rest; i++ {
		if wd != time.Saturday && wd != time.Sunday {
			count++
		}
		wd = (wd + 1) % 7
	}
	return count
}
