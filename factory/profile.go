/*
Package factory provides JSON to Go profile conversion.

PURPOSE:
  Converts JSON calculation profiles into utilization.Config values. A
  reporting year or dashboard version is a profile document, not a fork of the
  pipeline: caps, the period exclusion set and extra title spellings change,
  the reconciler does not.

JSON SCHEMA:
  {
    "id": "standard",
    "name": "Standard utilization",
    "version": 1,
    "cutoff": "2026-01-12",
    "cap_date": "2026-01-11",
    "sick_cap_hours": 37.5,
    "pd_cap_hours": 30,
    "period_exclusion_titles": ["Vacation", "PTO Office Closed", "Stat Holidays",
                                "Unpaid Time Off", "PTO Sick/Medical"],
    "title_aliases": {"Holiday - Company": "PTO Office Closed"},
    "workers": 4
  }

  Every field is optional. Missing caps and exclusion titles take the
  standard profile's values; a missing cutoff is resolved from the clock at
  the process boundary.

USAGE:
  f := factory.NewProfileFactory()
  cfg, err := f.ParseProfile(jsonStr)
  cfg = cfg.Resolve(time.Now())

  // Or a built-in preset
  cfg, err := f.Preset("flex-adjusted")

SEE ALSO:
  - utilization/config.go: Config type definition
  - cmd/utilization: Loads profiles through viper
*/
package factory

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/utilization-engine/calendar"
	"github.com/warp/utilization-engine/timesheet"
	"github.com/warp/utilization-engine/utilization"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ProfileJSON is the JSON representation of a profile. The mapstructure tags
// let viper decode the same shape from YAML, TOML or the environment.
type ProfileJSON struct {
	ID                    string            `json:"id" mapstructure:"id"`
	Name                  string            `json:"name,omitempty" mapstructure:"name"`
	Version               int               `json:"version,omitempty" mapstructure:"version"`
	Cutoff                string            `json:"cutoff,omitempty" mapstructure:"cutoff"`
	CapDate               string            `json:"cap_date,omitempty" mapstructure:"cap_date"`
	SickCapHours          *float64          `json:"sick_cap_hours,omitempty" mapstructure:"sick_cap_hours"`
	PDCapHours            *float64          `json:"pd_cap_hours,omitempty" mapstructure:"pd_cap_hours"`
	PeriodExclusionTitles []string          `json:"period_exclusion_titles,omitempty" mapstructure:"period_exclusion_titles"`
	TitleAliases          map[string]string `json:"title_aliases,omitempty" mapstructure:"title_aliases"`
	Workers               int               `json:"workers,omitempty" mapstructure:"workers"`
}

// =============================================================================
// PROFILE FACTORY
// =============================================================================

// ProfileFactory converts JSON profiles to utilization.Config.
type ProfileFactory struct{}

// NewProfileFactory creates a new profile factory.
func NewProfileFactory() *ProfileFactory {
	return &ProfileFactory{}
}

// ParseProfile parses a JSON string into a Config.
func (f *ProfileFactory) ParseProfile(jsonStr string) (utilization.Config, error) {
	var pj ProfileJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return utilization.Config{}, fmt.Errorf("failed to parse profile JSON: %w", err)
	}
	return f.FromJSON(pj)
}

// FromJSON converts ProfileJSON to a Config, filling defaults. The result is
// validated except for the cutoff, which may still be unresolved.
func (f *ProfileFactory) FromJSON(pj ProfileJSON) (utilization.Config, error) {
	cfg := utilization.DefaultConfig()

	if pj.ID != "" {
		cfg.Profile = pj.ID
	}
	if pj.Version > 0 {
		cfg.Version = pj.Version
	}

	var err error
	if cfg.Cutoff, err = parseOptionalDate("cutoff", pj.Cutoff); err != nil {
		return utilization.Config{}, err
	}
	if cfg.CapDate, err = parseOptionalDate("cap_date", pj.CapDate); err != nil {
		return utilization.Config{}, err
	}

	if pj.SickCapHours != nil {
		cfg.SickCapHours = decimal.NewFromFloat(*pj.SickCapHours)
	}
	if pj.PDCapHours != nil {
		cfg.PDCapHours = decimal.NewFromFloat(*pj.PDCapHours)
	}

	if len(pj.PeriodExclusionTitles) > 0 {
		cfg.PTOPeriodExclusionSet = make([]string, 0, len(pj.PeriodExclusionTitles))
		for _, title := range pj.PeriodExclusionTitles {
			cfg.PTOPeriodExclusionSet = append(cfg.PTOPeriodExclusionSet, timesheet.CanonicalTitle(title))
		}
	}

	if len(pj.TitleAliases) > 0 {
		cfg.TitleAliases = make(map[string]string, len(pj.TitleAliases))
		for raw, canonical := range pj.TitleAliases {
			cfg.TitleAliases[raw] = canonical
		}
	}
	cfg.Workers = pj.Workers

	if err := cfg.ValidateProfile(); err != nil {
		return utilization.Config{}, fmt.Errorf("profile %q: %w", cfg.Profile, err)
	}

	return cfg, nil
}

// ToJSON converts a Config to ProfileJSON.
func (f *ProfileFactory) ToJSON(cfg utilization.Config) ProfileJSON {
	sick, _ := cfg.SickCapHours.Float64()
	pd, _ := cfg.PDCapHours.Float64()

	pj := ProfileJSON{
		ID:                    cfg.Profile,
		Version:               cfg.Version,
		SickCapHours:          &sick,
		PDCapHours:            &pd,
		PeriodExclusionTitles: append([]string(nil), cfg.PTOPeriodExclusionSet...),
		Workers:               cfg.Workers,
	}
	if !cfg.Cutoff.IsZero() {
		pj.Cutoff = cfg.Cutoff.String()
	}
	if !cfg.CapDate.IsZero() {
		pj.CapDate = cfg.CapDate.String()
	}
	if len(cfg.TitleAliases) > 0 {
		pj.TitleAliases = cfg.TitleAliases
	}
	return pj
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseOptionalDate(field, s string) (calendar.Date, error) {
	if s == "" {
		return calendar.Date{}, nil
	}
	d, err := calendar.ParseDate(s)
	if err != nil {
		return calendar.Date{}, fmt.Errorf("invalid %s: %w", field, err)
	}
	return d, nil
}

// =============================================================================
// PRESET PROFILES
// =============================================================================

// presets are the built-in profiles, one per dashboard generation.
var presets = map[string]ProfileJSON{
	"standard": {
		ID:      "standard",
		Name:    "Standard utilization",
		Version: 1,
	},
	"flex-adjusted": {
		ID:      "flex-adjusted",
		Name:    "Utilization with flex PTO removed from period targets",
		Version: 2,
		PeriodExclusionTitles: []string{
			timesheet.TitleVacation,
			timesheet.TitleOfficeClosed,
			timesheet.TitleStatHolidays,
			timesheet.TitleUnpaid,
			timesheet.TitleSick,
			timesheet.TitleFlex,
		},
	},
	"part-time": {
		ID:           "part-time",
		Name:         "Part-time caps",
		Version:      1,
		SickCapHours: ptr(22.5),
		PDCapHours:   ptr(15),
	},
}

// PresetNames lists the built-in profile IDs in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preset builds a built-in profile by ID.
func (f *ProfileFactory) Preset(id string) (utilization.Config, error) {
	pj, ok := presets[id]
	if !ok {
		return utilization.Config{}, fmt.Errorf("unknown profile preset: %s", id)
	}
	return f.FromJSON(pj)
}

func ptr(v float64) *float64 { return &v }
