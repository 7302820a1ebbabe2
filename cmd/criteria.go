package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/confiauto/agency-finder/internal/criteria"
)

var criteriaCmd = &cobra.Command{
	Use:   "criteria",
	Short: "Inspect the validation criteria",
}

var criteriaShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective validation criteria",
	RunE: func(cmd *cobra.Command, args []string) error {
		loader := criteria.NewLoader(cfg.Criteria.Path)
		crit := loader.Load(true)

		zap.L().Info("criteria loaded", zap.String("path", cfg.Criteria.Path))

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(crit)
	},
}

func init() {
	criteriaCmd.AddCommand(criteriaShowCmd)
	rootCmd.AddCommand(criteriaCmd)
}
