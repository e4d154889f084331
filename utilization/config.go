/*
Package utilization reconciles contracts, timesheet entries and allowances into
per-employee report bundles.

PURPOSE:
  This is the only package that knows how the three tables relate. It takes
  normalized contracts and a settled/future split of the timesheet, and
  produces the headline baseline, PTO, allowance and utilization figures plus
  period-scoped metrics for the last completed month and year-to-date.

KEY CONCEPTS:
  - Config:        Versioned calculation profile (cutoff, caps, exclusion set)
  - Cutoff:        Start of the reporting week. Entries before it are settled.
  - Cap date:      Last day any contract can count towards a baseline
  - ReportBundle:  Every metric for one employee, as exact decimals
  - Report:        ReportBundle plus monthly trend and rejected rows

TWO ADJUSTED TARGETS:
  The headline adjusted target covers the whole contract history and always
  subtracts vacation, sick, stat holidays, office closed and unpaid hours.
  The period adjusted target covers one window and subtracts only the titles
  in Config.PTOPeriodExclusionSet. They are computed separately and are not
  expected to agree.

SEE ALSO:
  - reconcile.go: Reconcile, AdjustedTarget, PeriodMetricsFor
  - report.go:    ComputeReport, ComputeAll
  - factory/:     Profile documents -> Config
*/
package utilization

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/utilization-engine/calendar"
	"github.com/warp/utilization-engine/generic"
	"github.com/warp/utilization-engine/timesheet"
)

// =============================================================================
// CONFIG
// =============================================================================

// Config is one calculation profile. The zero Cutoff means "not resolved yet";
// call Resolve at the process boundary before computing.
type Config struct {
	Profile string
	Version int

	// Cutoff separates settled (< Cutoff) from future (>= Cutoff) entries.
	Cutoff calendar.Date

	// CapDate bounds contract validity. Zero means Cutoff - 1 day.
	CapDate calendar.Date

	SickCapHours decimal.Decimal
	PDCapHours   decimal.Decimal

	// PTOPeriodExclusionSet lists the canonical titles subtracted from a
	// window's baseline when computing period utilization.
	PTOPeriodExclusionSet []string

	// TitleAliases maps extra raw timesheet titles to canonical titles.
	TitleAliases map[string]string

	// Workers bounds ComputeAll's fan-out. Zero or less means one per CPU.
	Workers int
}

// DefaultPTOPeriodExclusionSet is Vacation, Office Closed, Stat Holidays,
// Unpaid and Sick. Flex is not subtracted from a window's baseline.
var DefaultPTOPeriodExclusionSet = []string{
	timesheet.TitleVacation,
	timesheet.TitleOfficeClosed,
	timesheet.TitleStatHolidays,
	timesheet.TitleUnpaid,
	timesheet.TitleSick,
}

// DefaultConfig returns the standard profile without a cutoff.
func DefaultConfig() Config {
	return Config{
		Profile:               "standard",
		Version:               1,
		SickCapHours:          decimal.RequireFromString("37.5"),
		PDCapHours:            decimal.NewFromInt(30),
		PTOPeriodExclusionSet: append([]string(nil), DefaultPTOPeriodExclusionSet...),
	}
}

// Resolve fills the cutoff from the wall clock when it is unset: the Monday
// of now's week. This is the only place a wall-clock time enters the engine.
func (c Config) Resolve(now time.Time) Config {
	if c.Cutoff.IsZero() {
		c.Cutoff = calendar.StartOfWeek(calendar.DateOf(now))
	}
	return c
}

// WithCutoff returns a copy with the cutoff set.
func (c Config) WithCutoff(cutoff calendar.Date) Config {
	c.Cutoff = cutoff
	return c
}

// EffectiveCap is the contract cap date: CapDate, or Cutoff - 1 day.
func (c Config) EffectiveCap() calendar.Date {
	if !c.CapDate.IsZero() {
		return c.CapDate
	}
	return c.Cutoff.AddDays(-1)
}

// Validate checks the config is usable for a computation.
func (c Config) Validate() error {
	if c.Cutoff.IsZero() {
		return generic.ErrCutoffRequired
	}
	return c.ValidateProfile()
}

// ValidateProfile checks everything but the cutoff, so a profile can be
// validated before the process boundary resolves it.
func (c Config) ValidateProfile() error {
	if c.SickCapHours.IsNegative() {
		return fmt.Errorf("sick cap %s: must not be negative", c.SickCapHours)
	}
	if c.PDCapHours.IsNegative() {
		return fmt.Errorf("professional development cap %s: must not be negative", c.PDCapHours)
	}
	for _, title := range c.PTOPeriodExclusionSet {
		if !timesheet.IsCanonicalTitle(title) {
			return fmt.Errorf("period exclusion set: %q is not a canonical PTO title", title)
		}
	}
	if _, err := timesheet.NewTitleLookup(c.TitleAliases); err != nil {
		return fmt.Errorf("title aliases: %w", err)
	}
	return nil
}

// Titles builds the timesheet title lookup for this profile.
func (c Config) Titles() (timesheet.TitleLookup, error) {
	return timesheet.NewTitleLookup(c.TitleAliases)
}
