package calendar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/utilization-engine/calendar"
)

// =============================================================================
// BUSINESS DAY TESTS
// =============================================================================

func TestBusinessDayCount_SingleDay(t *testing.T) {
	monday := calendar.NewDate(2026, time.January, 5)
	for i := 0; i < 7; i++ {
		d := monday.AddDays(i)
		want := 1
		if d.IsWeekend() {
			want = 0
		}
		assert.Equal(t, want, calendar.BusinessDayCount(d, d), "day %s", d)
	}
}

func TestBusinessDayCount_ReversedInterval_IsZero(t *testing.T) {
	start := calendar.NewDate(2026, time.January, 9)
	end := calendar.NewDate(2026, time.January, 5)
	assert.Equal(t, 0, calendar.BusinessDayCount(start, end))
}

func TestBusinessDayCount_Table(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		want       int
	}{
		{"mon-fri", "2026-01-05", "2026-01-09", 5},
		{"full week mon-sun", "2026-01-05", "2026-01-11", 5},
		{"weekend only", "2026-01-10", "2026-01-11", 0},
		{"thu to next sun", "2026-01-01", "2026-01-11", 7},
		{"fri to mon", "2026-01-09", "2026-01-12", 2},
		{"january 2026", "2026-01-01", "2026-01-31", 22},
		{"december 2025", "2025-12-01", "2025-12-31", 23},
		{"leap february 2024", "2024-02-01", "2024-02-29", 21},
		{"year 2025", "2025-01-01", "2025-12-31", 261},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calendar.BusinessDayCount(calendar.MustParseDate(tt.start), calendar.MustParseDate(tt.end))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBusinessDayCount_MatchesDayByDayWalk(t *testing.T) {
	start := calendar.NewDate(2025, time.March, 3)
	for span := 0; span < 40; span++ {
		end := start.AddDays(span)
		walked := 0
		for d := start; d.BeforeOrEqual(end); d = d.AddDays(1) {
			if d.IsWorkday() {
				walked++
			}
		}
		assert.Equal(t, walked, calendar.BusinessDayCount(start, end), "span %d", span)
	}
}

// =============================================================================
// DATE TESTS
// =============================================================================

func TestParseDate_Layouts(t *testing.T) {
	want := calendar.NewDate(2026, time.January, 5)
	for _, s := range []string{"2026-01-05", "2026-01-05 00:00:00", "1/5/2026", "01/05/2026", "2026-01-05T08:30:00Z", "Jan 5, 2026"} {
		got, err := calendar.ParseDate(s)
		require.NoError(t, err, s)
		assert.True(t, want.Equal(got), "%s parsed as %s", s, got)
	}
}

func TestParseDate_Invalid(t *testing.T) {
	_, err := calendar.ParseDate("not a date")
	assert.Error(t, err)
	_, err = calendar.ParseDate("   ")
	assert.Error(t, err)
}

func TestStartOfWeek(t *testing.T) {
	monday := calendar.NewDate(2026, time.January, 12)
	for i := 0; i < 7; i++ {
		assert.True(t, monday.Equal(calendar.StartOfWeek(monday.AddDays(i))))
	}
	assert.True(t, calendar.NewDate(2026, time.January, 5).Equal(calendar.StartOfWeek(calendar.NewDate(2026, time.January, 11))))
}

// =============================================================================
// PERIOD TESTS
// =============================================================================

func TestPeriod_Intersect(t *testing.T) {
	a := calendar.NewPeriod(calendar.MustParseDate("2026-01-01"), calendar.MustParseDate("2026-01-31"))
	b := calendar.NewPeriod(calendar.MustParseDate("2026-01-15"), calendar.MustParseDate("2026-02-15"))

	got := a.Intersect(b)
	assert.Equal(t, "[2026-01-15, 2026-01-31]", got.String())

	c := calendar.NewPeriod(calendar.MustParseDate("2026-03-01"), calendar.MustParseDate("2026-03-31"))
	assert.True(t, a.Intersect(c).IsEmpty())
	assert.Equal(t, 0, a.Intersect(c).BusinessDays())
}

func TestLastCompletedMonth(t *testing.T) {
	// GIVEN: a cutoff in January
	// THEN: last completed month is December of the previous year
	got := calendar.LastCompletedMonth(calendar.MustParseDate("2026-01-12"))
	assert.Equal(t, "[2025-12-01, 2025-12-31]", got.String())

	got = calendar.LastCompletedMonth(calendar.MustParseDate("2024-03-04"))
	assert.Equal(t, "[2024-02-01, 2024-02-29]", got.String())
}

func TestYearToDate(t *testing.T) {
	got := calendar.YearToDate(calendar.MustParseDate("2026-01-12"))
	assert.Equal(t, "[2026-01-01, 2026-01-11]", got.String())

	// Cutoff on Jan 1 leaves an empty window
	assert.True(t, calendar.YearToDate(calendar.MustParseDate("2029-01-01")).IsEmpty())
}

func TestDate_TextRoundTrip(t *testing.T) {
	var d calendar.Date
	require.NoError(t, d.UnmarshalText([]byte("2026-02-03")))
	b, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2026-02-03", string(b))
}

func TestBusinessDayCount_CenturiesSpan(t *testing.T) {
	// GIVEN: a span longer than time.Duration can represent
	start := calendar.NewDate(1700, time.January, 1)
	end := calendar.NewDate(2026, time.January, 2)

	walked := 0
	for d := start; d.BeforeOrEqual(end); d = d.AddDays(1) {
		if d.IsWorkday() {
			walked++
		}
	}

	// THEN: the arithmetic count matches the walk
	assert.Equal(t, 85051, walked)
	assert.Equal(t, walked, calendar.BusinessDayCount(start, end))
	assert.Equal(t, 119070, calendar.DaysBetween(start, end))
	assert.Equal(t, -119070, calendar.DaysBetween(end, start))
}
