/*
Package timesheet normalizes raw time entries and produces grouped hour sums.

PURPOSE:
  Timesheet exports arrive as one row per (employee, date, category, title)
  with a summed hours column. This package maps them onto a canonical Entry,
  validates the two taxonomies that drive every downstream number, and offers
  the grouped sums the reconciler and trend reports consume.

TAXONOMIES:
  Category (closed, ordered):
    Project < Internal < Budget PTO < Add'l & Flex PTO

  PTO type (validated lookup on the title column, Budget PTO rows only):
    Vacation, PTO Sick/Medical, Bereavement, Stat Holidays, PTO Office Closed,
    Unpaid Time Off, Professional Development.
    Add'l & Flex PTO rows are always PTO Flex, whatever their title says.

CANONICAL TITLES:
  Reports key PTO by canonical title. Bereavement reports under
  "PTO Sick/Medical"; flex hours report under "PTO Flex Vacation".

SEE ALSO:
  - normalize.go: Raw row -> Entry
  - aggregate.go: Partition and grouped sums
*/
package timesheet

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/utilization-engine/calendar"
	"github.com/warp/utilization-engine/generic"
)

// =============================================================================
// UTILIZATION CATEGORY
// =============================================================================

// Category is the utilization category of a timesheet entry. The numeric
// order is the display order.
type Category int

const (
	CategoryProject Category = iota
	CategoryInternal
	CategoryBudgetPTO
	CategoryFlexPTO
)

// Categories lists every category in order.
var Categories = []Category{CategoryProject, CategoryInternal, CategoryBudgetPTO, CategoryFlexPTO}

var categoryLabels = map[Category]string{
	CategoryProject:   "Project",
	CategoryInternal:  "Internal",
	CategoryBudgetPTO: "Budget PTO",
	CategoryFlexPTO:   "Add'l & Flex PTO",
}

func (c Category) String() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// MarshalText renders the category label.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses a category label.
func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCategory matches a label case- and whitespace-insensitively. Curly
// apostrophes from spreadsheet exports are accepted.
func ParseCategory(s string) (Category, error) {
	key := generic.NormalizeHeader(strings.ReplaceAll(s, "’", "'"))
	for _, c := range Categories {
		if generic.NormalizeHeader(categoryLabels[c]) == key {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unrecognized utilization category %q", s)
}

// =============================================================================
// PTO TYPE
// =============================================================================

// PTOType classifies a PTO entry. Non-PTO entries carry PTONone.
type PTOType string

const (
	PTONone                    PTOType = ""
	PTOVacation                PTOType = "vacation"
	PTOSick                    PTOType = "sick"
	PTOBereavement             PTOType = "bereavement"
	PTOStatHoliday             PTOType = "stat_holiday"
	PTOOfficeClosed            PTOType = "office_closed"
	PTOUnpaid                  PTOType = "unpaid"
	PTOProfessionalDevelopment PTOType = "professional_development"
	PTOFlex                    PTOType = "flex"
)

// Canonical report titles.
const (
	TitleVacation                = "Vacation"
	TitleSick                    = "PTO Sick/Medical"
	TitleFlex                    = "PTO Flex Vacation"
	TitleStatHolidays            = "Stat Holidays"
	TitleOfficeClosed            = "PTO Office Closed"
	TitleUnpaid                  = "Unpaid Time Off"
	TitleProfessionalDevelopment = "Professional Development"
)

// PTOCardTitles is the PTO breakdown shown per employee, in display order.
var PTOCardTitles = []string{TitleVacation, TitleSick, TitleFlex, TitleStatHolidays, TitleOfficeClosed}

// BudgetPTOTitles are the canonical titles a Budget PTO entry can report under.
var BudgetPTOTitles = []string{TitleVacation, TitleSick, TitleStatHolidays, TitleOfficeClosed, TitleUnpaid, TitleProfessionalDevelopment}

// Title is the canonical report title. Bereavement merges into sick.
func (p PTOType) Title() string {
	switch p {
	case PTOVacation:
		return TitleVacation
	case PTOSick, PTOBereavement:
		return TitleSick
	case PTOStatHoliday:
		return TitleStatHolidays
	case PTOOfficeClosed:
		return TitleOfficeClosed
	case PTOUnpaid:
		return TitleUnpaid
	case PTOProfessionalDevelopment:
		return TitleProfessionalDevelopment
	case PTOFlex:
		return TitleFlex
	}
	return ""
}

// =============================================================================
// TITLE LOOKUP
// =============================================================================

// defaultTitleAliases maps normalized raw titles to PTO types.
var defaultTitleAliases = map[string]PTOType{
	"vacation":                     PTOVacation,
	"pto vacation":                 PTOVacation,
	"pto sick/medical":             PTOSick,
	"sick/medical":                 PTOSick,
	"pto sick":                     PTOSick,
	"sick":                         PTOSick,
	"bereavement":                  PTOBereavement,
	"pto bereavement":              PTOBereavement,
	"stat holidays":                PTOStatHoliday,
	"stat holiday":                 PTOStatHoliday,
	"statutory holiday":            PTOStatHoliday,
	"pto office closed":            PTOOfficeClosed,
	"office closed":                PTOOfficeClosed,
	"unpaid time off":              PTOUnpaid,
	"unpaid":                       PTOUnpaid,
	"professional development":     PTOProfessionalDevelopment,
	"pto professional development": PTOProfessionalDevelopment,
	"pto flex":                     PTOFlex,
	"pto flex vacation":            PTOFlex,
}

// TitleLookup resolves raw title cells to PTO types.
type TitleLookup struct {
	aliases map[string]PTOType
}

// NewTitleLookup returns the default lookup extended with extra aliases, each
// mapping a raw title to one of the canonical titles.
func NewTitleLookup(extra map[string]string) (TitleLookup, error) {
	aliases := make(map[string]PTOType, len(defaultTitleAliases)+len(extra))
	for k, v := range defaultTitleAliases {
		aliases[k] = v
	}
	for raw, canonical := range extra {
		pto, ok := ptoForTitle(canonical)
		if !ok {
			return TitleLookup{}, fmt.Errorf("alias %q: unknown canonical title %q", raw, canonical)
		}
		aliases[generic.NormalizeHeader(raw)] = pto
	}
	return TitleLookup{aliases: aliases}, nil
}

// DefaultTitleLookup is the lookup with only the built-in aliases.
func DefaultTitleLookup() TitleLookup {
	return TitleLookup{aliases: defaultTitleAliases}
}

// Resolve maps a raw title to a PTO type. Titles exported as
// "<project no> - <title>" are matched on the part after the last " - ".
func (l TitleLookup) Resolve(raw string) (PTOType, bool) {
	aliases := l.aliases
	if aliases == nil {
		aliases = defaultTitleAliases
	}
	key := generic.NormalizeHeader(raw)
	if pto, ok := aliases[key]; ok {
		return pto, true
	}
	if i := strings.LastIndex(key, " - "); i >= 0 {
		if pto, ok := aliases[strings.TrimSpace(key[i+3:])]; ok {
			return pto, true
		}
	}
	return PTONone, false
}

// ptoForTitle maps a canonical title back to its PTO type.
func ptoForTitle(title string) (PTOType, bool) {
	key := generic.NormalizeHeader(title)
	for _, p := range []PTOType{PTOVacation, PTOSick, PTOStatHoliday, PTOOfficeClosed, PTOUnpaid, PTOProfessionalDevelopment, PTOFlex} {
		if generic.NormalizeHeader(p.Title()) == key {
			return p, true
		}
	}
	if key == "bereavement" {
		return PTOBereavement, true
	}
	return PTONone, false
}

// IsCanonicalTitle reports whether title is one of the canonical report titles.
func IsCanonicalTitle(title string) bool {
	_, ok := ptoForTitle(title)
	return ok && title == CanonicalTitle(title)
}

// CanonicalTitle normalizes the spelling of a canonical title, or returns the
// input unchanged when it is not one.
func CanonicalTitle(title string) string {
	if p, ok := ptoForTitle(title); ok {
		return p.Title()
	}
	return title
}

// =============================================================================
// ENTRY
// =============================================================================

// Entry is one normalized timesheet row.
type Entry struct {
	Employee string
	Date     calendar.Date
	Category Category
	Title    string
	PTO      PTOType
	Hours    decimal.Decimal
}

// ReportTitle is the title the entry is reported under: the canonical PTO
// title for PTO entries, the raw title otherwise.
func (e Entry) ReportTitle() string {
	if e.PTO != PTONone {
		return e.PTO.Title()
	}
	return e.Title
}
