package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"twstock-analyst/internal/store"
)

func newReportsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Browse the report history",
	}
	cmd.AddCommand(newReportsListCmd(app))
	cmd.AddCommand(newReportsShowCmd(app))
	return cmd
}

func (app *App) openHistory() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(app.Config.Reports.DBPath)
}

func newReportsListCmd(app *App) *cobra.Command {
	var symbol string
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List past analysis reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			history, err := app.openHistory()
			if err != nil {
				return err
			}
			defer history.Close()

			reports, err := history.ListReports(cmd.Context(), symbol, limit)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(reports)
			}
			if len(reports) == 0 {
				output.Dim("No reports yet")
				return nil
			}
			for _, r := range reports {
				output.Printf("%4d  %s  %-10s %s  (%s)\n",
					r.ID, r.Timestamp.Format("2006-01-02 15:04"), r.Symbol, r.Company, r.Model)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&symbol, "symbol", "", "filter by symbol")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of reports")
	return cmd
}

func newReportsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one report from the history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return err
			}

			history, err := app.openHistory()
			if err != nil {
				return err
			}
			defer history.Close()

			report, err := history.GetReport(cmd.Context(), id)
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
}
