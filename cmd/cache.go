package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cacheMaxAge time.Duration

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the location premium cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache entries, fresh entries and total hits",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		stats, err := env.Store.CacheStats(cmd.Context(), cacheAge())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), stats)
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete cache entries older than the TTL",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		maxAge := cacheAge()
		n, err := env.Store.PruneLocationCache(cmd.Context(), maxAge)
		if err != nil {
			return err
		}
		zap.L().Info("cache pruned", zap.Int("removed", n), zap.Duration("max_age", maxAge))
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries older than %s\n", n, maxAge)
		return nil
	},
}

// cacheAge is the --max-age flag, falling back to the configured TTL.
func cacheAge() time.Duration {
	if cacheMaxAge > 0 {
		return cacheMaxAge
	}
	return cfg.Cache.TTL()
}

func init() {
	cacheCmd.PersistentFlags().DurationVar(&cacheMaxAge, "max-age", 0, "freshness window (default: cache.ttl_hours)")
	cacheCmd.AddCommand(cacheStatsCmd, cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}
