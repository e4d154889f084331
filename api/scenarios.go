/*
scenarios.go - Demo datasets for testing and demonstrations

PURPOSE:

	Provides pre-built source tables that populate the store with realistic
	exports. Each scenario imports a contracts, timesheet and allowances table
	and pins the active profile's cutoff so the numbers are reproducible.

AVAILABLE SCENARIOS:

	jane-doe:          One new hire, first week settled, one vacation booking
	team-quarter:      Three employees across Q4 2025 with sick, closures,
	                   flex, a contract change and future bookings
	missing-allowance: An employee with no allowance row (defaults to 0)

HOW SCENARIOS WORK:
 1. Reset the store (clear import runs and profiles)
 2. Import each table as a new run, source "scenario:<id>"
 3. Set the active profile's cutoff

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "team-quarter"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: ResetDatabase
  - utilization/report.go: Prepare
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/samber/lo"
	"github.com/warp/utilization-engine/calendar"
	"github.com/warp/utilization-engine/generic"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenario struct {
	ScenarioDTO
	tables func() []generic.Table
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "jane-doe",
			Name:        "Jane Doe",
			Description: "New hire on a 37.5h week: 20h project work and 5h vacation in the first week",
			Cutoff:      "2026-01-12",
		},
		tables: janeDoeTables,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "team-quarter",
			Name:        "Team Quarter",
			Description: "Three employees across Q4 2025 with sick leave, closures, flex, a contract change and future bookings",
			Cutoff:      "2026-01-05",
		},
		tables: teamQuarterTables,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "missing-allowance",
			Name:        "Missing Allowance",
			Description: "An employee with no vacation allowance row; the report notes it and uses 0",
			Cutoff:      "2026-01-12",
		},
		tables: missingAllowanceTables,
	},
}

func findScenario(id string) (scenario, bool) {
	return lo.Find(scenarios, func(s scenario) bool { return s.ID == id })
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, lo.Map(scenarios, func(s scenario, _ int) ScenarioDTO { return s.ScenarioDTO }))
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.currentScenario
	h.mu.RUnlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	if s, ok := findScenario(current); ok {
		writeJSON(w, http.StatusOK, s.ScenarioDTO)
		return
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario resets the store and imports a predefined dataset.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	s, ok := findScenario(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err := h.loadScenario(r.Context(), s); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": s.ID, "cutoff": s.Cutoff})
}

func (h *Handler) loadScenario(ctx context.Context, s scenario) error {
	if err := h.Store.Reset(ctx); err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	for _, table := range s.tables() {
		run, err := h.Store.ImportTable(ctx, table, "scenario:"+s.ID)
		if err != nil {
			return fmt.Errorf("import %s: %w", table.Name, err)
		}
		TablesImported.WithLabelValues(string(table.Name)).Inc()
		RowsImported.WithLabelValues(string(table.Name)).Add(float64(run.Rows))
	}

	cutoff, err := calendar.ParseDate(s.Cutoff)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.profile = h.profile.WithCutoff(cutoff)
	h.currentScenario = s.ID
	h.mu.Unlock()

	h.Logger.Info("scenario loaded", "scenario", s.ID, "cutoff", s.Cutoff)
	return nil
}

// =============================================================================
// SCENARIO DATA
// =============================================================================

func contractRow(name, office, weekly, start, end string) generic.RawRow {
	return generic.RawRow{"Full Name": name, "Legal Office": office, "Working Hrs": weekly, "Start": start, "End": end}
}

func timeRow(name, day, category, title, hours string) generic.RawRow {
	return generic.RawRow{
		"Employee Full Name":   name,
		"Date":                 day,
		"Utilization Category": category,
		"Project No - Title":   title,
		"Sum of Hours":         hours,
	}
}

func allowanceRow(name, vacation string) generic.RawRow {
	return generic.RawRow{"Full Name": name, "Vacation Allowance": vacation}
}

// weekdays repeats one row for every business day in [from, to].
func weekdays(from, to, name, category, title, hours string) []generic.RawRow {
	var rows []generic.RawRow
	end := calendar.MustParseDate(to)
	for d := calendar.MustParseDate(from); d.BeforeOrEqual(end); d = d.AddDays(1) {
		if d.IsWorkday() {
			rows = append(rows, timeRow(name, d.String(), category, title, hours))
		}
	}
	return rows
}

func janeDoeTables() []generic.Table {
	return []generic.Table{
		{Name: generic.TableContracts, Rows: []generic.RawRow{
			contractRow("Jane Doe", "Toronto", "37.5", "2026-01-05", ""),
		}},
		{Name: generic.TableTimesheet, Rows: []generic.RawRow{
			timeRow("Jane Doe", "2026-01-05", "Project", "1042 - Client Build", "7.5"),
			timeRow("Jane Doe", "2026-01-06", "Project", "1042 - Client Build", "7.5"),
			timeRow("Jane Doe", "2026-01-07", "Project", "1042 - Client Build", "5"),
			timeRow("Jane Doe", "2026-01-09", "Budget PTO", "PTO Vacation", "5"),
		}},
		{Name: generic.TableAllowances, Rows: []generic.RawRow{
			allowanceRow("Jane Doe", "75"),
		}},
	}
}

func teamQuarterTables() []generic.Table {
	contracts := []generic.RawRow{
		contractRow("Ana Silva", "Toronto", "37.5", "2025-01-06", ""),
		// Moved from four to five days a week in November
		contractRow("Ben Okafor", "Vancouver", "30", "2025-06-02", "2025-10-31"),
		contractRow("Ben Okafor", "Vancouver", "37.5", "2025-11-03", ""),
		contractRow("Chloe Martin", "Montreal", "40", "2025-09-01", ""),
	}

	var timesheet []generic.RawRow
	timesheet = append(timesheet, weekdays("2025-10-01", "2025-12-19", "Ana Silva", "Project", "2210 - Data Platform", "6")...)
	timesheet = append(timesheet, weekdays("2025-10-01", "2025-12-19", "Ana Silva", "Internal", "Team Meetings", "1.5")...)
	timesheet = append(timesheet,
		timeRow("Ana Silva", "2025-11-11", "Budget PTO", "PTO Sick/Medical", "7.5"),
		timeRow("Ana Silva", "2025-11-12", "Budget PTO", "PTO Bereavement", "7.5"),
		timeRow("Ana Silva", "2025-12-24", "Budget PTO", "PTO Office Closed", "7.5"),
		timeRow("Ana Silva", "2025-12-25", "Budget PTO", "Stat Holidays", "7.5"),
		timeRow("Ana Silva", "2025-12-26", "Budget PTO", "Stat Holidays", "7.5"),
		timeRow("Ana Silva", "2026-02-16", "Budget PTO", "PTO Vacation", "37.5"),
	)

	timesheet = append(timesheet, weekdays("2025-10-01", "2025-10-31", "Ben Okafor", "Project", "1877 - Mobile App", "7.5")...)
	timesheet = append(timesheet, weekdays("2025-11-03", "2025-12-23", "Ben Okafor", "Project", "1877 - Mobile App", "6")...)
	timesheet = append(timesheet,
		timeRow("Ben Okafor", "2025-11-20", "Budget PTO", "PTO Professional Development", "7.5"),
		timeRow("Ben Okafor", "2025-12-12", "Add'l & Flex PTO", "Flex Day", "7.5"),
		timeRow("Ben Okafor", "2025-12-24", "Budget PTO", "PTO Vacation", "7.5"),
		timeRow("Ben Okafor", "2025-12-29", "Budget PTO", "PTO Vacation", "7.5"),
		timeRow("Ben Okafor", "2026-01-09", "Add'l & Flex PTO", "Flex Day", "7.5"),
	)

	timesheet = append(timesheet, weekdays("2025-10-01", "2025-12-31", "Chloe Martin", "Project", "2210 - Data Platform", "8")...)
	timesheet = append(timesheet,
		timeRow("Chloe Martin", "2025-10-13", "Budget PTO", "Unpaid Time Off", "8"),
		// Category outside the closed set: rejected
		timeRow("Chloe Martin", "2025-10-14", "Overtime", "2210 - Data Platform", "3"),
	)

	return []generic.Table{
		{Name: generic.TableContracts, Rows: contracts},
		{Name: generic.TableTimesheet, Rows: timesheet},
		{Name: generic.TableAllowances, Rows: []generic.RawRow{
			allowanceRow("Ana Silva", "112.5"),
			allowanceRow("Ben Okafor", "75"),
			allowanceRow("Chloe Martin", "120"),
		}},
	}
}

func missingAllowanceTables() []generic.Table {
	tables := janeDoeTables()
	tables[2].Rows = []generic.RawRow{allowanceRow("John Roe", "80")}
	return tables
}
