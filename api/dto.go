/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. The engine works in
  exact decimals; DTOs are where hours are rounded to two places and
  utilization ratios to four, and where dates become ISO strings.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Employees:  EmployeeDTO
  Reports:    ReportDTO, PeriodMetricsDTO, MonthlyDTO, MonthDTO
  Imports:    ImportRunDTO, RejectedRowDTO
  Profiles:   ProfileDTO (wraps factory.ProfileJSON)
  Scenarios:  ScenarioDTO, LoadScenarioRequest

SEE ALSO:
  - handlers.go: Uses these types
  - utilization/reconcile.go: ReportBundle
*/
package api

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/warp/utilization-engine/factory"
	"github.com/warp/utilization-engine/generic"
	"github.com/warp/utilization-engine/timesheet"
	"github.com/warp/utilization-engine/utilization"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO is one entry of the employee list.
type EmployeeDTO struct {
	Name   string `json:"name"`
	Office string `json:"office,omitempty"`
}

// =============================================================================
// REPORTS
// =============================================================================

// PeriodMetricsDTO is one reporting window.
type PeriodMetricsDTO struct {
	Start          string  `json:"start"`
	End            string  `json:"end"`
	TargetHours    float64 `json:"target_hours"`
	PTOHours       float64 `json:"pto_hours"`
	AdjustedTarget float64 `json:"adjusted_target"`
	ProjectHours   float64 `json:"project_hours"`
	Utilization    float64 `json:"utilization"`
}

// ReportDTO is the full report for one employee.
type ReportDTO struct {
	Employee      string `json:"employee"`
	Office        string `json:"office,omitempty"`
	Profile       string `json:"profile"`
	Cutoff        string `json:"cutoff"`
	BaselineStart string `json:"baseline_start,omitempty"`
	BaselineEnd   string `json:"baseline_end,omitempty"`

	TargetHours    float64 `json:"target_hours"`
	ActualHours    float64 `json:"actual_hours"`
	AdjustedTarget float64 `json:"adjusted_target"`

	PTOVacation    float64 `json:"pto_vacation"`
	PTOSick        float64 `json:"pto_sick"`
	StatHolidays   float64 `json:"stat_holidays"`
	OfficeClosed   float64 `json:"office_closed"`
	CombinedClosed float64 `json:"combined_closed"`
	UnpaidHours    float64 `json:"unpaid_hours"`
	FlexHours      float64 `json:"flex_hours"`

	ProjectHours      float64 `json:"project_hours"`
	InternalHours     float64 `json:"internal_hours"`
	TotalWorkingHours float64 `json:"total_working_hours"`

	FutureVacationHours float64 `json:"future_vacation_hours"`
	FutureFlexHours     float64 `json:"future_flex_hours"`

	VacationAllowance float64 `json:"vacation_allowance"`
	VacationUsed      float64 `json:"vacation_used"`
	VacationRemaining float64 `json:"vacation_remaining"`

	SickCap       float64 `json:"sick_cap"`
	SickUsed      float64 `json:"sick_used"`
	SickRemaining float64 `json:"sick_remaining"`

	PDCap       float64 `json:"pd_cap"`
	PDUsed      float64 `json:"pd_used"`
	PDRemaining float64 `json:"pd_remaining"`

	PTOBreakdown map[string]float64 `json:"pto_breakdown"`

	LastMonth  PeriodMetricsDTO `json:"last_month"`
	YearToDate PeriodMetricsDTO `json:"year_to_date"`

	Monthly []MonthDTO `json:"monthly"`
	Notes   []string   `json:"notes,omitempty"`
}

// MonthDTO is one month of the hours trend.
type MonthDTO struct {
	Month      string             `json:"month"`
	Categories map[string]float64 `json:"categories"`
	Total      float64            `json:"total"`
}

// MonthlyDTO is the trend endpoint's response.
type MonthlyDTO struct {
	Employee string     `json:"employee"`
	Months   []MonthDTO `json:"months"`
}

// =============================================================================
// IMPORTS
// =============================================================================

// ImportRunDTO describes one stored table upload.
type ImportRunDTO struct {
	ID         string   `json:"id"`
	Table      string   `json:"table"`
	Source     string   `json:"source"`
	Rows       int      `json:"rows"`
	Headers    []string `json:"headers"`
	ImportedAt string   `json:"imported_at"`
}

// RejectedRowDTO is a source row the normalizers dropped.
type RejectedRowDTO struct {
	Table  string `json:"table"`
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// =============================================================================
// PROFILES
// =============================================================================

// ProfileDTO is a stored or built-in calculation profile.
type ProfileDTO struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Config    factory.ProfileJSON `json:"config"`
	Version   int                 `json:"version"`
	Builtin   bool                `json:"builtin"`
	Active    bool                `json:"active"`
	CreatedAt string              `json:"created_at,omitempty"`
}

// CreateProfileRequest is the body of POST /api/profiles.
type CreateProfileRequest struct {
	Config   factory.ProfileJSON `json:"config"`
	Activate bool                `json:"activate"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO represents a demo dataset.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Cutoff      string `json:"cutoff,omitempty"`
}

// LoadScenarioRequest is the body of POST /api/scenarios/load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func hours(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func ratio(d decimal.Decimal) float64 {
	return d.Round(4).InexactFloat64()
}

func toPeriodMetricsDTO(m utilization.PeriodMetrics) PeriodMetricsDTO {
	dto := PeriodMetricsDTO{
		TargetHours:    hours(m.TargetHours),
		PTOHours:       hours(m.PTOHours),
		AdjustedTarget: hours(m.AdjustedTarget),
		ProjectHours:   hours(m.ProjectHours),
		Utilization:    ratio(m.Utilization),
	}
	if !m.Period.Start.IsZero() && !m.Period.IsEmpty() {
		dto.Start = m.Period.Start.String()
		dto.End = m.Period.End.String()
	}
	return dto
}

func toMonthDTOs(buckets []timesheet.MonthTotal) []MonthDTO {
	months := make([]MonthDTO, 0)
	byMonth := make(map[string]int)
	for _, b := range buckets {
		i, ok := byMonth[b.Month]
		if !ok {
			i = len(months)
			byMonth[b.Month] = i
			months = append(months, MonthDTO{Month: b.Month, Categories: make(map[string]float64)})
		}
		months[i].Categories[b.Category.String()] = hours(b.Hours)
	}
	totals := timesheet.MonthlyTotals(buckets)
	for _, t := range totals {
		if i, ok := byMonth[t.Month]; ok {
			months[i].Total = hours(t.Hours)
		}
	}
	return months
}

// ToReportDTO converts a report for JSON output, rounding hours to two places.
func ToReportDTO(r utilization.Report, profile string) ReportDTO {
	b := r.Bundle
	dto := ReportDTO{
		Employee: b.Employee,
		Office:   b.Office,
		Profile:  profile,
		Cutoff:   b.Cutoff.String(),

		TargetHours:    hours(b.TargetHours),
		ActualHours:    hours(b.ActualHours),
		AdjustedTarget: hours(b.AdjustedTarget),

		PTOVacation:    hours(b.PTOVacation),
		PTOSick:        hours(b.PTOSick),
		StatHolidays:   hours(b.StatHolidays),
		OfficeClosed:   hours(b.OfficeClosed),
		CombinedClosed: hours(b.CombinedClosed),
		UnpaidHours:    hours(b.UnpaidHours),
		FlexHours:      hours(b.FlexHours),

		ProjectHours:      hours(b.ProjectHours),
		InternalHours:     hours(b.InternalHours),
		TotalWorkingHours: hours(b.TotalWorkingHours),

		FutureVacationHours: hours(b.FutureVacationHours),
		FutureFlexHours:     hours(b.FutureFlexHours),

		VacationAllowance: hours(b.VacationAllowance),
		VacationUsed:      hours(b.VacationUsed),
		VacationRemaining: hours(b.VacationRemaining),

		SickCap:       hours(b.SickCap),
		SickUsed:      hours(b.SickUsed),
		SickRemaining: hours(b.SickRemaining),

		PDCap:       hours(b.PDCap),
		PDUsed:      hours(b.PDUsed),
		PDRemaining: hours(b.PDRemaining),

		PTOBreakdown: lo.MapValues(b.PTOBreakdown, func(v decimal.Decimal, _ string) float64 { return hours(v) }),

		LastMonth:  toPeriodMetricsDTO(b.LastMonth),
		YearToDate: toPeriodMetricsDTO(b.YearToDate),

		Monthly: toMonthDTOs(r.Monthly),
		Notes:   b.Notes,
	}
	if !b.Baseline.Start.IsZero() && !b.Baseline.IsEmpty() {
		dto.BaselineStart = b.Baseline.Start.String()
		dto.BaselineEnd = b.Baseline.End.String()
	}
	return dto
}

func toImportRunDTO(run generic.ImportRun) ImportRunDTO {
	headers := run.Headers
	if headers == nil {
		headers = []string{}
	}
	return ImportRunDTO{
		ID:         run.ID,
		Table:      string(run.Table),
		Source:     run.Source,
		Rows:       run.Rows,
		Headers:    headers,
		ImportedAt: run.ImportedAt.Format(time.RFC3339),
	}
}

func toRejectedRowDTOs(rows []generic.RejectedRow) []RejectedRowDTO {
	return lo.Map(rows, func(r generic.RejectedRow, _ int) RejectedRowDTO {
		return RejectedRowDTO{Table: string(r.Table), Row: r.Row, Reason: r.Reason()}
	})
}
