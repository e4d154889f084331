package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/warp/utilization-engine/factory"
)

func profilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List calculation profiles",
		Long: `List the built-in profile presets, or print the effective profile
(preset plus config file overrides) with --effective.`,
		RunE: runProfiles,
	}
	cmd.Flags().Bool("effective", false, "print the effective profile as JSON")
	return cmd
}

func runProfiles(cmd *cobra.Command, _ []string) error {
	f := factory.NewProfileFactory()
	out := cmd.OutOrStdout()

	if effective, _ := cmd.Flags().GetBool("effective"); effective {
		cfg, err := loadProfile()
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(f.ToJSON(cfg))
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tVERSION\tSICK CAP\tPD CAP\tPERIOD EXCLUSIONS")
	for _, id := range factory.PresetNames() {
		cfg, err := f.Preset(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
			id, cfg.Version, cfg.SickCapHours, cfg.PDCapHours, strings.Join(cfg.PTOPeriodExclusionSet, ", "))
	}
	return w.Flush()
}
