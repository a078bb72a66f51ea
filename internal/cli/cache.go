package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var cacheJSON bool

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the cache tiers",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show hit rates and sizes per cache tier",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, st, err := newService()
		if err != nil {
			return err
		}
		defer st.Close()

		stats := svc.CacheStats()
		if len(stats) == 0 {
			fmt.Println("Caching is disabled.")
			return nil
		}

		if cacheJSON {
			output, _ := json.MarshalIndent(stats, "", "  ")
			fmt.Println(string(output))
			return nil
		}

		for tier, s := range stats {
			fmt.Printf("%s: %d/%d entries, %d hits, %d misses, %d evictions, %.1f%% hit rate\n",
				tier, s.CurrentSize, s.MaxSize, s.Hits, s.Misses, s.Evictions, s.HitRate)
		}
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty every cache tier",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, st, err := newService()
		if err != nil {
			return err
		}
		defer st.Close()

		svc.ClearCaches()
		fmt.Println("Caches cleared.")
		return nil
	},
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate",
	Short: "Drop the cached store name list without re-reading it",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, st, err := newService()
		if err != nil {
			return err
		}
		defer st.Close()

		svc.InvalidateStoreNames()
		fmt.Println("Store name list invalidated.")
		return nil
	},
}

var cacheRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-read the store name list and refresh its cache entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, st, err := newService()
		if err != nil {
			return err
		}
		defer st.Close()

		count, err := svc.RefreshStoreNames()
		if err != nil {
			return fmt.Errorf("refresh failed: %w", err)
		}
		fmt.Printf("Store name list refreshed: %d names\n", count)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd, cacheInvalidateCmd, cacheRefreshCmd)
	cacheStatsCmd.Flags().BoolVar(&cacheJSON, "json", false, "output as JSON")
}
