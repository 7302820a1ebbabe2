package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/confiauto/agency-finder/internal/cache"
)

var cachePurgeDays int

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the cached analysis results",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove cached results older than a cutoff",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := cache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return eris.Wrap(err, "connect redis")
		}

		removed, err := r.ClearOlderThan(cmd.Context(), cachePurgeDays)
		if err != nil {
			return eris.Wrap(err, "purge cache")
		}

		zap.L().Info("cache purged",
			zap.Int("older_than_days", cachePurgeDays),
			zap.Int("removed", removed),
		)
		return nil
	},
}

func init() {
	cachePurgeCmd.Flags().IntVar(&cachePurgeDays, "older-than", 7, "purge entries older than this many days")
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
