package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"twstock-analyst/internal/catalog"
	"twstock-analyst/internal/server"
)

// boundRefresher binds the catalog refresher to the configured catalog
// path for the HTTP refresh endpoint.
type boundRefresher struct {
	refresher *catalog.Refresher
	path      string
}

func (b boundRefresher) Refresh(ctx context.Context) (int, error) {
	return b.refresher.Refresh(ctx, b.path)
}

func newServeCmd(app *App) *cobra.Command {
	port := 0
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP analysis API",
		Long: `Serve exposes the analysis pipeline over HTTP:

  POST /analyze            {"company": "..."} -> full analysis report
  POST /companies/refresh  rebuild the catalog from the exchange rosters
  GET  /healthz            liveness probe`,
		RunE: func(cmd *cobra.Command, args []string) error {
			analyzer, err := app.buildAnalyzer()
			if err != nil {
				return err
			}

			if port == 0 {
				port = app.Config.Server.Port
			}

			refresher := boundRefresher{
				refresher: catalog.NewRefresher(app.Logger),
				path:      app.Config.Catalog.Path,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := server.New(analyzer, refresher, port, app.Logger)
			return srv.Start(ctx)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (default: config server.port)")
	return cmd
}
