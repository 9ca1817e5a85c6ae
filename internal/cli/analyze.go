package cli

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/spf13/cobra"

	"twstock-analyst/internal/models"
)

// stageTitles maps stage identifiers to display headings.
var stageTitles = map[models.Stage]string{
	models.StageMarketAnalysis:           "Market Analysis",
	models.StageTechnicalAnalysis:        "Technical Analysis",
	models.StageRiskAssessment:           "Risk Assessment",
	models.StageInvestmentRecommendation: "Investment Recommendation",
}

func newAnalyzeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <company>",
		Short: "Run a full analysis for a company",
		Long: `Analyze resolves the company query (symbol, name, or alias; a fuzzy
model-assisted lookup covers the rest), fetches the last month of daily
market data, and generates a four-part analysis report.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			ctx, cancel := context.WithTimeout(cmd.Context(), app.Config.Model.Timeout*5)
			defer cancel()

			analyzer, err := app.buildAnalyzer()
			if err != nil {
				return err
			}

			output.Info("Analyzing %s ...", args[0])
			report, err := analyzer.Run(ctx, args[0])
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(report)
			}
			renderReport(output, report)
			return nil
		},
	}
	return cmd
}

// renderReport prints the report stage by stage. Unparsed stages show
// their reason and raw model text instead of silently disappearing.
func renderReport(output *Output, report *models.AnalysisReport) {
	output.Println()
	output.Bold("%s (%s)", report.Company, report.Symbol)
	output.Dim("model: %s  generated: %s", report.Model, report.Timestamp.Format("2006-01-02 15:04:05"))

	for _, result := range report.StageResults() {
		output.Println()
		output.Bold("## %s", stageTitles[result.Stage])

		if !result.IsParsed() {
			output.Warning("stage did not produce structured output (%s)", result.Reason)
			if result.Raw != "" {
				output.Dim("%s", result.Raw)
			}
			continue
		}

		var pretty map[string]any
		if err := json.Unmarshal(result.Parsed, &pretty); err != nil {
			output.Printf("%s\n", string(result.Parsed))
			continue
		}
		keys := make([]string, 0, len(pretty))
		for key := range pretty {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			output.Printf("  %s: %v\n", key, pretty[key])
		}
	}
}
