package contract_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/utilization-engine/calendar"
	"github.com/warp/utilization-engine/contract"
	"github.com/warp/utilization-engine/generic"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(s string) calendar.Date { return calendar.MustParseDate(s) }

func hours(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func row(name, weekly, start, end string) generic.RawRow {
	return generic.RawRow{
		"Full Name":    name,
		"Legal Office": "Toronto",
		"Working Hrs":  weekly,
		"Start":        start,
		"End":          end,
	}
}

// =============================================================================
// NORMALIZER TESTS
// =============================================================================

func TestNormalize_OpenEndedContract_EndsAtCap(t *testing.T) {
	// GIVEN: an open-ended contract
	// WHEN: normalizing with a cap date
	// THEN: End is the cap and the daily rate is weekly / 5

	capDate := date("2026-01-11")
	records, rejected := contract.Normalize([]generic.RawRow{row("Jane Doe", "37.5", "2026-01-01", "")}, capDate)

	require.Empty(t, rejected)
	require.Len(t, records, 1)
	assert.True(t, records[0].End.Equal(capDate))
	assert.True(t, records[0].DailyRate.Equal(hours("7.5")))
	assert.Equal(t, "Toronto", records[0].Office)
}

func TestNormalize_EndClampedToCap(t *testing.T) {
	capDate := date("2026-01-11")
	records, rejected := contract.Normalize([]generic.RawRow{row("Jane Doe", "40", "2025-01-01", "2026-12-31")}, capDate)

	require.Empty(t, rejected)
	require.Len(t, records, 1)
	assert.True(t, records[0].End.Equal(capDate))
}

func TestNormalize_EndBeforeCapKept(t *testing.T) {
	capDate := date("2026-01-11")
	records, _ := contract.Normalize([]generic.RawRow{row("Jane Doe", "40", "2025-01-01", "2025-06-30")}, capDate)

	require.Len(t, records, 1)
	assert.Equal(t, "2025-06-30", records[0].End.String())
}

func TestNormalize_ZeroOrEmptyWeeklyHours_ZeroRate(t *testing.T) {
	capDate := date("2026-01-11")
	records, rejected := contract.Normalize([]generic.RawRow{
		row("A", "0", "2026-01-01", ""),
		row("B", "", "2026-01-01", ""),
	}, capDate)

	require.Empty(t, rejected)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.True(t, r.DailyRate.IsZero())
	}
}

func TestNormalize_BadRows_DroppedAndRecorded(t *testing.T) {
	// GIVEN: a mix of valid and malformed rows
	// WHEN: normalizing
	// THEN: malformed rows are rejected with DataFormatError, valid rows survive

	capDate := date("2026-01-11")
	rows := []generic.RawRow{
		row("Good", "37.5", "2026-01-01", ""),
		row("Bad Start", "37.5", "someday", ""),
		row("Bad End", "37.5", "2026-01-01", "never"),
		row("", "37.5", "2026-01-01", ""),
		row("Bad Hours", "lots", "2026-01-01", ""),
		row("Negative", "-5", "2026-01-01", ""),
		row("Backwards", "37.5", "2026-01-05", "2026-01-01"),
		{"Full Name": "No Start", "Working Hrs": "37.5"},
	}

	records, rejected := contract.Normalize(rows, capDate)

	require.Len(t, records, 1)
	assert.Equal(t, "Good", records[0].Employee)
	require.Len(t, rejected, 7)
	for _, r := range rejected {
		assert.True(t, generic.IsDataFormat(r.Err), "row %d: %v", r.Row, r.Err)
		assert.Equal(t, generic.TableContracts, r.Table)
	}
	assert.Equal(t, 1, rejected[0].Row)

	var dfe *generic.DataFormatError
	require.ErrorAs(t, rejected[0].Err, &dfe)
	assert.Equal(t, "Start", dfe.Column)
	assert.Equal(t, "someday", dfe.Value)
}

func TestNormalize_StartAfterCap_NotEffective(t *testing.T) {
	capDate := date("2026-01-11")
	records, rejected := contract.Normalize([]generic.RawRow{row("Future", "37.5", "2026-02-01", "")}, capDate)

	assert.Empty(t, records)
	require.Len(t, rejected, 1)
	assert.ErrorIs(t, rejected[0].Err, generic.ErrContractNotEffective)
	assert.False(t, generic.IsDataFormat(rejected[0].Err))
}

func TestNormalize_HeaderAliases(t *testing.T) {
	capDate := date("2026-01-11")
	records, rejected := contract.Normalize([]generic.RawRow{{
		"employee full name": "  Jane   Doe ",
		"WEEKLY HOURS":       "30",
		"start date":         "1/5/2026",
	}}, capDate)

	require.Empty(t, rejected)
	require.Len(t, records, 1)
	assert.Equal(t, "Jane Doe", records[0].Employee)
	assert.True(t, records[0].DailyRate.Equal(hours("6")))
}

// =============================================================================
// BASELINE TESTS
// =============================================================================

func TestTargetHoursInPeriod_ExactWeek(t *testing.T) {
	// GIVEN: dailyRate 7.5, contract Mon 2026-01-05 .. Fri 2026-01-09
	// THEN: baseline over that week is 37.5
	r := contract.Record{Employee: "Jane Doe", DailyRate: hours("7.5"), Start: date("2026-01-05"), End: date("2026-01-09")}
	period := calendar.NewPeriod(date("2026-01-05"), date("2026-01-09"))

	assert.True(t, contract.EmployeeBaseline([]contract.Record{r}, "Jane Doe", period).Equal(hours("37.5")))
}

func TestTargetHoursInPeriod_NoOverlap_Zero(t *testing.T) {
	r := contract.Record{DailyRate: hours("8"), Start: date("2025-01-01"), End: date("2025-06-30")}
	period := calendar.NewPeriod(date("2025-07-01"), date("2025-12-31"))

	assert.True(t, contract.TargetHoursInPeriod(r, period).IsZero())
}

func TestTargetHoursInPeriod_PartialOverlap(t *testing.T) {
	// Contract from Wed 2026-01-07, period is the week of Jan 5
	r := contract.Record{DailyRate: hours("8"), Start: date("2026-01-07"), End: date("2026-03-31")}
	period := calendar.NewPeriod(date("2026-01-05"), date("2026-01-11"))

	assert.True(t, contract.TargetHoursInPeriod(r, period).Equal(hours("24")))
}

func TestEmployeeBaseline_SumsSegments(t *testing.T) {
	// GIVEN: a raise mid-month (two sequential segments)
	records := []contract.Record{
		{Employee: "Jane Doe", DailyRate: hours("7"), Start: date("2026-01-05"), End: date("2026-01-09")},
		{Employee: "Jane Doe", DailyRate: hours("8"), Start: date("2026-01-12"), End: date("2026-01-16")},
		{Employee: "John Roe", DailyRate: hours("8"), Start: date("2026-01-05"), End: date("2026-01-16")},
	}
	period := calendar.NewPeriod(date("2026-01-01"), date("2026-01-31"))

	got := contract.EmployeeBaseline(records, "  jane doe", period)
	assert.True(t, got.Equal(hours("75")), "got %s", got)
}

func TestEmployeeBaseline_UnknownEmployee_Zero(t *testing.T) {
	records := []contract.Record{{Employee: "Jane Doe", DailyRate: hours("7.5"), Start: date("2026-01-05"), End: date("2026-01-09")}}
	period := calendar.NewPeriod(date("2026-01-01"), date("2026-01-31"))

	assert.True(t, contract.EmployeeBaseline(records, "Nobody", period).IsZero())
	assert.True(t, contract.EmployeeBaseline(nil, "Nobody", period).IsZero())
}

func TestEarliestStart(t *testing.T) {
	_, ok := contract.EarliestStart(nil)
	assert.False(t, ok)

	records := []contract.Record{
		{Start: date("2025-03-01")},
		{Start: date("2024-11-15")},
		{Start: date("2025-01-01")},
	}
	got, ok := contract.EarliestStart(records)
	require.True(t, ok)
	assert.Equal(t, "2024-11-15", got.String())
}

func TestEmployeesAndOffices(t *testing.T) {
	records := []contract.Record{
		{Employee: "Jane Doe", Office: "Toronto"},
		{Employee: "jane  doe", Office: "Vancouver"},
		{Employee: "John Roe", Office: "Toronto"},
	}
	assert.Equal(t, []string{"Jane Doe", "John Roe"}, contract.Employees(records))
	assert.Equal(t, []string{"Toronto", "Vancouver"}, contract.Offices(records, "Jane Doe"))
}

func TestNormalize_DecimalCommaWeeklyHours_Rejected(t *testing.T) {
	// GIVEN: a locale-formatted weekly hours cell and a thousands-grouped one
	// WHEN: normalizing
	// THEN: "7,5" is rejected rather than read as 75; "1,000" parses

	records, rejected := contract.Normalize([]generic.RawRow{
		row("Jane Doe", "7,5", "2026-01-05", ""),
		row("John Roe", "1,000", "2026-01-05", ""),
	}, date("2026-01-11"))

	require.Len(t, records, 1)
	assert.Equal(t, "John Roe", records[0].Employee)
	assert.True(t, records[0].WeeklyHours.Equal(hours("1000")))

	require.Len(t, rejected, 1)
	var dfe *generic.DataFormatError
	require.ErrorAs(t, rejected[0].Err, &dfe)
	assert.Equal(t, "7,5", dfe.Value)
}

func TestNormalize_FuzzyHeaders_FirstDeclaredAliasWins(t *testing.T) {
	// GIVEN: two headers that only match employee aliases case-insensitively
	r := generic.RawRow{
		"EMPLOYEE":    "Jane Doe",
		"NAME":        "Jane Q",
		"Working Hrs": "37.5",
		"Start":       "2026-01-05",
	}

	// WHEN: normalizing the same row many times
	// THEN: the earlier alias ("Employee") is chosen every time
	for i := 0; i < 200; i++ {
		records, rejected := contract.Normalize([]generic.RawRow{r}, date("2026-01-11"))
		require.Empty(t, rejected)
		require.Len(t, records, 1)
		require.Equal(t, "Jane Doe", records[0].Employee, "run %d", i)
	}
}
