package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/warp/utilization-engine/api"
	"github.com/warp/utilization-engine/generic"
	"github.com/warp/utilization-engine/generic/store"
	"github.com/warp/utilization-engine/ingest"
	"github.com/warp/utilization-engine/utilization"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Compute utilization reports",
		Long: `Compute utilization reports for one employee or everyone.

Tables come from the latest import runs in the store, or from files when
--contracts, --timesheet or --allowances are given (a table without a file
is treated as empty).`,
		Example: `  utilization report --employee "Jane Doe" --cutoff 2026-01-12
  utilization report --contracts userfig.xlsx --timesheet timesheet.csv --allowances allowances.csv --format json`,
		RunE: runReport,
	}

	cmd.Flags().StringP("employee", "e", "", "employee full name (default: everyone)")
	cmd.Flags().StringP("format", "f", "text", "output format (text, json)")
	cmd.Flags().String("contracts", "", "contracts export (CSV/XLSX)")
	cmd.Flags().String("timesheet", "", "timesheet export (CSV/XLSX)")
	cmd.Flags().String("allowances", "", "allowances export (CSV/XLSX)")
	cmd.Flags().Bool("show-rejected", false, "list rows dropped during normalization")

	return cmd
}

func runReport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	flags := cmd.Flags()
	employee, _ := flags.GetString("employee")
	format, _ := flags.GetString("format")
	showRejected, _ := flags.GetBool("show-rejected")

	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format: %s", format)
	}

	profile, err := loadProfile()
	if err != nil {
		return err
	}
	cfg := profile.Resolve(time.Now())

	tables, err := loadReportTables(ctx, cmd)
	if err != nil {
		return err
	}

	ds, err := utilization.Prepare(tables, cfg, slog.Default())
	if err != nil {
		return err
	}

	var reports []utilization.Report
	if employee != "" {
		reports = []utilization.Report{ds.Report(employee)}
	} else if reports, err = ds.ComputeAll(ctx); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		return writeReportsJSON(out, reports, cfg.Profile)
	}
	writeReportsText(out, reports, cfg)
	if showRejected {
		writeRejectedText(out, ds.Rejected)
	}
	return nil
}

// loadReportTables stages the file flags in a memory store when any is set,
// otherwise reads the latest import runs from the database.
func loadReportTables(ctx context.Context, cmd *cobra.Command) (utilization.Tables, error) {
	var src generic.TableStore
	staged := store.NewMemory()
	for _, name := range generic.Tables {
		path, _ := cmd.Flags().GetString(string(name))
		if path == "" {
			continue
		}
		table, err := ingest.ReadFile(name, path)
		if err != nil {
			return utilization.Tables{}, err
		}
		if _, err := staged.ImportTable(ctx, table, path); err != nil {
			return utilization.Tables{}, err
		}
		src = staged
	}

	if src == nil {
		db, err := openStore()
		if err != nil {
			return utilization.Tables{}, err
		}
		defer db.Close()
		src = db
	}

	latest, err := src.LoadLatest(ctx)
	if err != nil {
		return utilization.Tables{}, err
	}
	if len(latest) == 0 {
		return utilization.Tables{}, fmt.Errorf("%w: run `utilization import` or pass table files", generic.ErrNoDataset)
	}
	return utilization.TablesFrom(latest), nil
}

// =============================================================================
// OUTPUT
// =============================================================================

func writeReportsJSON(w io.Writer, reports []utilization.Report, profile string) error {
	dtos := lo.Map(reports, func(r utilization.Report, _ int) api.ReportDTO {
		return api.ToReportDTO(r, profile)
	})
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(dtos)
}

func writeReportsText(w io.Writer, reports []utilization.Report, cfg utilization.Config) {
	fmt.Fprintf(w, "Profile %s (v%d), cutoff %s\n", cfg.Profile, cfg.Version, cfg.Cutoff)

	for _, r := range reports {
		b := r.Bundle
		fmt.Fprintln(w)
		if b.Office != "" {
			fmt.Fprintf(w, "%s (%s)\n", b.Employee, b.Office)
		} else {
			fmt.Fprintln(w, b.Employee)
		}

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		row := func(label string, values ...string) {
			fmt.Fprintf(tw, "  %s\t", label)
			for _, v := range values {
				fmt.Fprintf(tw, "%s\t", v)
			}
			fmt.Fprintln(tw)
		}

		row("Target hours", h(b.TargetHours))
		row("Adjusted target", h(b.AdjustedTarget))
		row("Actual hours", h(b.ActualHours))
		row("Project / internal", h(b.ProjectHours), h(b.InternalHours))
		row("Vacation used / remaining", h(b.VacationUsed), h(b.VacationRemaining), "of "+h(b.VacationAllowance))
		row("Sick used / remaining", h(b.SickUsed), h(b.SickRemaining), "of "+h(b.SickCap))
		row("PD used / remaining", h(b.PDUsed), h(b.PDRemaining), "of "+h(b.PDCap))
		row("Closed (stat + office)", h(b.CombinedClosed))
		row("Flex / unpaid", h(b.FlexHours), h(b.UnpaidHours))
		row("Booked vacation / flex", h(b.FutureVacationHours), h(b.FutureFlexHours))
		row("Last month utilization", pct(b.LastMonth.Utilization), h(b.LastMonth.ProjectHours)+" / "+h(b.LastMonth.AdjustedTarget))
		row("YTD utilization", pct(b.YearToDate.Utilization), h(b.YearToDate.ProjectHours)+" / "+h(b.YearToDate.AdjustedTarget))
		_ = tw.Flush()

		for _, note := range b.Notes {
			fmt.Fprintf(w, "  note: %s\n", note)
		}
	}
}

func writeRejectedText(w io.Writer, rejected []generic.RejectedRow) {
	fmt.Fprintf(w, "\n%d rejected rows\n", len(rejected))
	for _, r := range rejected {
		fmt.Fprintf(w, "  %s row %d: %s\n", r.Table, r.Row, r.Reason())
	}
}

func h(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func pct(ratio decimal.Decimal) string {
	return ratio.Shift(2).StringFixed(1) + "%"
}
