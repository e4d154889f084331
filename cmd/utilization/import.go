package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/warp/utilization-engine/generic"
	"github.com/warp/utilization-engine/ingest"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <table> <file>",
		Short: "Import a table export into the local store",
		Long: `Store a CSV or XLSX export as a new import run.

<table> is one of contracts, timesheet or allowances. Earlier runs are kept;
reports always use the latest run of each table.`,
		Example: `  utilization import contracts ./exports/userfig.xlsx
  utilization import timesheet ./exports/timesheet.csv`,
		Args: cobra.ExactArgs(2),
		RunE: runImport,
	}
	cmd.Flags().Bool("dry-run", false, "parse the file and report the row count without storing it")
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	name, err := generic.ParseTableName(args[0])
	if err != nil {
		return fmt.Errorf("%w: %q (want contracts, timesheet or allowances)", err, args[0])
	}

	table, err := ingest.ReadFile(name, args[1])
	if err != nil {
		return err
	}

	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows parsed from %s (not stored)\n", name, len(table.Rows), args[1])
		return nil
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.ImportTable(cmd.Context(), table, args[1])
	if err != nil {
		return err
	}

	slog.Info("table imported", "table", name, "rows", run.Rows, "run_id", run.ID)
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows stored as run %s\n", name, run.Rows, run.ID)
	return nil
}
