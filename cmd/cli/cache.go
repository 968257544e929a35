package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sevigo/diff-warden/internal/cache"
)

var cacheJSON bool

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the findings cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the number and size of cached analyses",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		c, err := cache.NewFileCache(cfg.Scan.CacheDir, appLogger)
		if err != nil {
			return err
		}
		stats, err := c.Stats()
		if err != nil {
			return err
		}

		if cacheJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(stats)
		}
		fmt.Printf("Directory: %s\nEntries:   %d\nSize:      %d bytes\n", stats.Dir, stats.Entries, stats.TotalBytes)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached analysis",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		c, err := cache.NewFileCache(cfg.Scan.CacheDir, appLogger)
		if err != nil {
			return err
		}
		removed, err := c.Clear()
		if err != nil {
			return err
		}
		successColor.Printf("Removed %d cache entries from %s\n", removed, c.Dir())
		return nil
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	cacheStatsCmd.Flags().BoolVar(&cacheJSON, "json", false, "Output as JSON")
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
