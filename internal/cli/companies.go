package cli

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"twstock-analyst/internal/catalog"
	"twstock-analyst/internal/resolver"
)

func newCompaniesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "companies",
		Short: "Manage the company catalog",
	}
	cmd.AddCommand(newCompaniesListCmd(app))
	cmd.AddCommand(newCompaniesRefreshCmd(app))
	cmd.AddCommand(newCompaniesLookupCmd(app))
	return cmd
}

func newCompaniesListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			dir, err := app.loadCatalog()
			if err != nil {
				return err
			}

			records := dir.Records()
			if output.IsJSON() {
				return output.JSON(records)
			}
			for _, rec := range records {
				output.Printf("%-10s %s", rec.Symbol, rec.Name)
				if len(rec.Aliases) > 1 {
					output.Printf("  (%s)", strings.Join(rec.Aliases, ", "))
				}
				output.Println()
			}
			output.Dim("%d companies", len(records))
			return nil
		},
	}
}

func newCompaniesRefreshCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Rebuild the catalog from the TWSE and TPEX rosters",
		Long: `Refresh downloads the listed-company rosters from both exchanges and
rewrites the catalog. Aliases from the existing catalog survive the
rebuild; names and symbols always follow the fresh rosters.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			refresher := catalog.NewRefresher(app.Logger)
			count, err := refresher.Refresh(ctx, app.Config.Catalog.Path)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]any{"companies": count, "path": app.Config.Catalog.Path})
			}
			output.Success("Catalog refreshed: %d companies (%s)", count, app.Config.Catalog.Path)
			return nil
		},
	}
}

func newCompaniesLookupCmd(app *App) *cobra.Command {
	exactOnly := false
	cmd := &cobra.Command{
		Use:   "lookup <query>",
		Short: "Resolve a query to a catalog entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			dir, err := app.loadCatalog()
			if err != nil {
				return err
			}

			llm := app.LLMClient
			if exactOnly {
				llm = nil
			}
			r := resolver.New(dir, llm, app.Logger,
				resolver.WithPromptLimit(app.Config.Catalog.PromptLimit))
			res, err := r.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(res)
			}
			output.Success("%s  %s", res.Symbol, res.Name)
			return nil
		},
	}
	cmd.Flags().BoolVar(&exactOnly, "exact", false, "disable the model-assisted fallback tier")
	return cmd
}
