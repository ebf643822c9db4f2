package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/sells-group/cci-engine/internal/tables"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Inspect and validate reference table sets",
}

var tablesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a summary of the active table set",
	RunE: func(cmd *cobra.Command, args []string) error {
		ts, err := loadTables(cmd)
		if err != nil {
			return err
		}

		fmt.Printf("Version:     %s\n", ts.Version)
		fmt.Printf("Methodology: %s\n", ts.Methodology)
		fmt.Printf("Weights:     professional=%.2f industry=%.2f\n",
			ts.Weights.Professional, ts.Weights.Industry)

		fmt.Printf("\nCategorical tables:\n")
		for _, name := range sortedKeys(ts.Categorical) {
			t := ts.Categorical[name]
			fmt.Printf("  %-15s %3d entries, default %.2f\n", name, len(t.Scores), t.Default)
		}

		fmt.Printf("\nBand tables:\n")
		for _, name := range sortedKeys(ts.Bands) {
			fmt.Printf("  %-16s %3d bands\n", name, len(ts.Bands[name]))
		}

		fmt.Printf("\nRisk tiers:\n")
		for _, tr := range ts.Tiers {
			fmt.Printf("  %-15s [%5.1f, %5.1f)\n", tr.Name, tr.Min, tr.Max)
		}

		return nil
	},
}

var tablesValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a table set file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Engine.TablesPath
		if len(args) > 0 {
			path = args[0]
		}

		ts, err := tables.LoadFile(path)
		if err != nil {
			return err
		}

		fmt.Printf("OK: version %s, %d categorical tables, %d band tables, %d tiers\n",
			ts.Version, len(ts.Categorical), len(ts.Bands), len(ts.Tiers))
		return nil
	},
}

func init() {
	tablesCmd.AddCommand(tablesShowCmd, tablesValidateCmd)
	rootCmd.AddCommand(tablesCmd)
}

func loadTables(_ *cobra.Command) (*tables.Set, error) {
	return tables.LoadFile(cfg.Engine.TablesPath)
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
