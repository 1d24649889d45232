package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/docquery-cli/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the extracted-text cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache entry count and size on disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireConfig(); err != nil {
			return err
		}
		store, err := cache.Open(cfg.CacheDir, logger)
		if err != nil {
			return err
		}
		st := store.Stats()
		fmt.Printf("Cache directory: %s\n", store.Dir())
		fmt.Printf("Entries: %d\n", st.EntryCount)
		fmt.Printf("Size: %s\n", humanBytes(st.TotalBytes))
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached extracted text",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireConfig(); err != nil {
			return err
		}
		store, err := cache.Open(cfg.CacheDir, logger)
		if err != nil {
			return err
		}
		before := store.Stats()
		if err := store.Clear(); err != nil {
			return err
		}
		fmt.Printf("Cleared %d cache entr%s\n", before.EntryCount, plural(before.EntryCount, "y", "ies"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
