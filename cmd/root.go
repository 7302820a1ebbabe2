package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/confiauto/agency-finder/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "agency-finder",
	Short: "Discovery and trust analysis for local used-car agencies",
	Long:  "Discovers automotive agencies near a location via Google Places, validates them against review-based criteria, scores trust, and optionally runs deep analysis on the top candidates.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
