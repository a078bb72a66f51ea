package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var perfJSON bool

var perfCmd = &cobra.Command{
	Use:   "perf",
	Short: "Show recorded operation timings",
	Long: `Show timing statistics for every recorded operation: counts, averages,
extremes and the recent-window average.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, st, err := newService()
		if err != nil {
			return err
		}
		defer st.Close()

		report := svc.Performance()
		if perfJSON {
			output, _ := json.MarshalIndent(report, "", "  ")
			fmt.Println(string(output))
			return nil
		}

		fmt.Printf("Uptime: %.1fs, %d operations recorded\n\n", report.UptimeSeconds, report.TotalOperations)
		for _, op := range report.Operations {
			fmt.Printf("%-24s count=%d avg=%.2fms min=%.2fms max=%.2fms recent=%.2fms\n",
				op.Operation, op.Count, op.AvgMillis, op.MinMillis, op.MaxMillis, op.RecentAvg)
		}
		return nil
	},
}

var perfResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard all recorded timings",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, st, err := newService()
		if err != nil {
			return err
		}
		defer st.Close()

		svc.ResetPerformance()
		fmt.Println("Performance metrics reset.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(perfCmd)
	perfCmd.AddCommand(perfResetCmd)
	perfCmd.Flags().BoolVar(&perfJSON, "json", false, "output as JSON")
}
