package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/confiauto/agency-finder/internal/model"
)

var (
	analyzeQuery string
	analyzeLat   float64
	analyzeLng   float64
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Discover and analyze agencies around a location",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		p, err := initPipeline("analyze")
		if err != nil {
			return err
		}

		loc := model.Location{Lat: analyzeLat, Lng: analyzeLng}

		result, err := p.Run(ctx, analyzeQuery, loc)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("analysis complete",
			zap.String("run_id", result.Metadata.RunID),
			zap.Int("total_found", result.Metadata.TotalFound),
			zap.Int("agencies", len(result.Agencies)),
			zap.Float64("deep_analysis_cost_usd", result.Metadata.DeepAnalysisCostUSD),
		)

		// Print result JSON to stdout
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeQuery, "query", "", "search query (default from config)")
	analyzeCmd.Flags().Float64Var(&analyzeLat, "lat", 0, "latitude of the search center (required)")
	analyzeCmd.Flags().Float64Var(&analyzeLng, "lng", 0, "longitude of the search center (required)")
	_ = analyzeCmd.MarkFlagRequired("lat")
	_ = analyzeCmd.MarkFlagRequired("lng")
	rootCmd.AddCommand(analyzeCmd)
}
