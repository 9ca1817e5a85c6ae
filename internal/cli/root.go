package cli

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"twstock-analyst/internal/agents"
	"twstock-analyst/internal/catalog"
	"twstock-analyst/internal/config"
	"twstock-analyst/internal/factors"
	"twstock-analyst/internal/logging"
	"twstock-analyst/internal/marketdata"
	"twstock-analyst/internal/pipeline"
	"twstock-analyst/internal/resolver"
	"twstock-analyst/internal/store"
	"twstock-analyst/pkg/utils"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	LLMClient agents.LLMClient
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config:    cfg,
		Logger:    logger,
		LLMClient: agents.NewOpenAIClient(cfg.Model.BaseURL, cfg.Model.APIKey, cfg.Model.Name, cfg.Model.Timeout),
	}

	rootCmd := &cobra.Command{
		Use:   "twstock-analyst",
		Short: "AI-powered Taiwan stock analysis CLI",
		Long: `twstock-analyst analyzes Taiwan listed and OTC companies.

It resolves free-form company queries against a local catalog, fetches a
month of daily market data, computes quantitative factors, and asks a
local language model for a structured four-part analysis report.

Use 'twstock-analyst analyze <company>' to run an analysis.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/twstock-analyst)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newAnalyzeCmd(app))
	rootCmd.AddCommand(newCompaniesCmd(app))
	rootCmd.AddCommand(newReportsCmd(app))
	rootCmd.AddCommand(newServeCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
				return
			}
			output.Printf("twstock-analyst %s\n", Version)
		},
	}
}

// buildAnalyzer assembles the full pipeline from the loaded catalog.
// Persistence is best effort: an unopenable history database or reports
// directory downgrades to an in-memory-only run with a warning.
func (app *App) buildAnalyzer() (*pipeline.Analyzer, error) {
	dir, err := catalog.Load(app.Config.Catalog.Path)
	if err != nil {
		return nil, err
	}

	res := resolver.New(dir, app.LLMClient, app.Logger,
		resolver.WithPromptLimit(app.Config.Catalog.PromptLimit))

	retry := utils.DefaultRetryConfig()
	if app.Config.MarketData.MaxRetries > 0 {
		retry.MaxAttempts = app.Config.MarketData.MaxRetries
	}
	gateway := marketdata.NewYahooClient(app.Logger,
		marketdata.WithBaseURL(app.Config.MarketData.BaseURL),
		marketdata.WithHTTPClient(&http.Client{Timeout: app.Config.MarketData.Timeout}),
		marketdata.WithRetry(retry))

	calculator := factors.NewCalculator(app.Logger)
	reporter := agents.NewReporter(app.LLMClient, app.Logger)

	opts := []pipeline.AnalyzerOption{
		pipeline.WithWindowDays(app.Config.MarketData.WindowDays),
	}

	if app.Config.Reports.DBPath != "" {
		history, err := store.NewSQLiteStore(app.Config.Reports.DBPath)
		if err != nil {
			app.Logger.Warn().Err(err).Msg("Report history unavailable")
		} else {
			opts = append(opts, pipeline.WithPersister(pipeline.HistoryPersister{Store: history}))
		}
	}
	if app.Config.Reports.SaveArtifacts {
		writer, err := store.NewArtifactWriter(app.Config.Reports.Dir)
		if err != nil {
			app.Logger.Warn().Err(err).Msg("Report artifacts unavailable")
		} else {
			opts = append(opts, pipeline.WithPersister(pipeline.ArtifactPersister{Writer: writer}))
		}
	}

	return pipeline.NewAnalyzer(res, gateway, calculator, reporter, app.Logger, opts...), nil
}

// loadCatalog opens the catalog for commands that only read it.
func (app *App) loadCatalog() (*catalog.Directory, error) {
	dir, err := catalog.Load(app.Config.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("loading catalog %s: %w", app.Config.Catalog.Path, err)
	}
	return dir, nil
}
