/*
Package calendar provides the date and workday primitives every baseline is built from.

PURPOSE:
  Timesheet rows, contract segments and reporting windows are all expressed in
  whole calendar days. This package gives them one concrete type (Date) with no
  time-of-day component, so comparisons never trip over hours or time zones.

KEY CONCEPTS:
  - Date:   A calendar day (UTC midnight, time component always zero)
  - Period: An inclusive [Start, End] window of days (period.go)
  - BusinessDayCount: Weekdays in a window (workday.go)

NO WALL CLOCK:
  Nothing in this package reads time.Now(). The reporting cutoff is computed
  once at the process boundary (StartOfWeek(now)) and passed down explicitly.

SEE ALSO:
  - period.go: Windows, intersection, last-month and year-to-date windows
  - workday.go: Business day counting
*/
package calendar

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// DATE - A calendar day without a time component
// =============================================================================

// Date is a calendar day. The zero value is "no date".
type Date struct {
	t time.Time
}

// NewDate builds a Date from its parts. Out-of-range parts normalize like time.Date.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time.Time to its calendar day, in its own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// dateLayouts lists the formats found in exported timesheet and HR spreadsheets.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"1/2/2006",
	"01/02/2006",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/06",
	"2006/01/02",
	"2-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseDate parses a date in any of the supported layouts. Time components are dropped.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("unrecognized date %q", s)
}

// MustParseDate is ParseDate for literals in tests and presets.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Comparison
func (d Date) Before(o Date) bool        { return d.t.Before(o.t) }
func (d Date) After(o Date) bool         { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool         { return d.t.Equal(o.t) }
func (d Date) BeforeOrEqual(o Date) bool { return !d.t.After(o.t) }
func (d Date) AfterOrEqual(o Date) bool  { return !d.t.Before(o.t) }
func (d Date) IsZero() bool              { return d.t.IsZero() }

// Arithmetic
func (d Date) AddDays(n int) Date   { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date { return Date{t: d.t.AddDate(0, n, 0)} }

// Properties
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) Time() time.Time       { return d.t }
func (d Date) IsWorkday() bool       { return !d.IsWeekend() }
func (d Date) YearMonth() string     { return d.t.Format("2006-01") }

func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format("2006-01-02")
}

// MarshalText renders the date as YYYY-MM-DD (empty for the zero date).
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText accepts any layout ParseDate understands; empty input leaves the zero date.
func (d *Date) UnmarshalText(b []byte) error {
	if strings.TrimSpace(string(b)) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

const secondsPerDay = 24 * 60 * 60

// DaysBetween returns to - from in whole days (negative when to is earlier).
func DaysBetween(from, to Date) int {
	return int((to.t.Unix() - from.t.Unix()) / secondsPerDay)
}

// MinDate returns the earlier of two dates.
func MinDate(a, b Date) Date {
	if a.Before(b) {
		return a
	}
	return b
}

// MaxDate returns the later of two dates.
func MaxDate(a, b Date) Date {
	if a.After(b) {
		return a
	}
	return b
}

// =============================================================================
// ANCHORS
// =============================================================================

// StartOfWeek returns the Monday on or before d.
func StartOfWeek(d Date) Date {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDays(-offset)
}

func StartOfYear(year int) Date                    { return NewDate(year, time.January, 1) }
func StartOfMonth(year int, month time.Month) Date { return NewDate(year, month, 1) }

func EndOfMonth(year int, month time.Month) Date {
	return NewDate(year, month+1, 1).AddDays(-1)
}
