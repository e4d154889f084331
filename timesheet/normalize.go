package timesheet

import (
	"log/slog"

	"github.com/warp/utilization-engine/calendar"
	"github.com/warp/utilization-engine/generic"
)

// =============================================================================
// COLUMNS - source header -> canonical field
// =============================================================================

var (
	colEmployee = generic.Column{Name: "Full Name", Aliases: []string{"Employee Full Name", "Employee", "Employee Name"}}
	colDate     = generic.Column{Name: "Date", Aliases: []string{"Work Date", "Entry Date"}}
	colCategory = generic.Column{Name: "Utilization Category", Aliases: []string{"Category"}}
	colTitle    = generic.Column{Name: "Project No - Title", Aliases: []string{"Title", "Sub-Category", "Subcategory", "Project"}}
	colHours    = generic.Column{Name: "Hours", Aliases: []string{"Sum of Hours", "Total Hours"}}
)

// =============================================================================
// NORMALIZER
// =============================================================================

// Normalizer converts raw timesheet rows into Entries. The zero value uses the
// default title lookup and slog.Default().
type Normalizer struct {
	Titles TitleLookup
	Logger *slog.Logger
}

// Normalize converts every row, returning kept entries in input order and the
// rejected rows alongside. A bad row never stops the rest of the table.
func (n Normalizer) Normalize(rows []generic.RawRow) ([]Entry, []generic.RejectedRow) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}

	entries := make([]Entry, 0, len(rows))
	var rejected []generic.RejectedRow
	for i, row := range rows {
		e, err := n.normalizeRow(i, row)
		if err != nil {
			logger.Warn("dropping timesheet row", "table", generic.TableTimesheet, "row", i, "error", err)
			rejected = append(rejected, generic.RejectedRow{Table: generic.TableTimesheet, Row: i, Err: err})
			continue
		}
		entries = append(entries, e)
	}
	return entries, rejected
}

// Normalize converts rows with the default title lookup.
func Normalize(rows []generic.RawRow) ([]Entry, []generic.RejectedRow) {
	return Normalizer{}.Normalize(rows)
}

func (n Normalizer) normalizeRow(i int, row generic.RawRow) (Entry, error) {
	formatErr := func(col generic.Column, value, reason string) error {
		return &generic.DataFormatError{Table: generic.TableTimesheet, Row: i, Column: col.Name, Value: value, Reason: reason}
	}

	name, ok := colEmployee.Lookup(row)
	if !ok || name == "" {
		return Entry{}, formatErr(colEmployee, "", "missing employee name")
	}

	dateRaw, ok := colDate.Lookup(row)
	if !ok || dateRaw == "" {
		return Entry{}, formatErr(colDate, "", "missing date")
	}
	date, err := calendar.ParseDate(dateRaw)
	if err != nil {
		return Entry{}, formatErr(colDate, dateRaw, "unparsable date")
	}

	categoryRaw, ok := colCategory.Lookup(row)
	if !ok {
		return Entry{}, formatErr(colCategory, "", "missing required column")
	}
	category, err := ParseCategory(categoryRaw)
	if err != nil {
		return Entry{}, formatErr(colCategory, categoryRaw, "unrecognized utilization category")
	}

	hoursRaw, ok := colHours.Lookup(row)
	if !ok {
		return Entry{}, formatErr(colHours, "", "missing required column")
	}
	hours, err := generic.ParseHours(hoursRaw)
	if err != nil {
		return Entry{}, formatErr(colHours, hoursRaw, "unparsable hours")
	}

	title, _ := colTitle.Lookup(row)
	pto := PTONone
	switch category {
	case CategoryFlexPTO:
		pto = PTOFlex
	case CategoryBudgetPTO:
		resolved, ok := n.Titles.Resolve(title)
		if !ok || resolved == PTOFlex {
			return Entry{}, formatErr(colTitle, title, "unrecognized PTO title")
		}
		pto = resolved
	}

	return Entry{
		Employee: generic.CleanName(name),
		Date:     date,
		Category: category,
		Title:    title,
		PTO:      pto,
		Hours:    hours,
	}, nil
}
