package cli

import (
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/kibunbook/kibun-server/internal/config"
	"github.com/kibunbook/kibun-server/internal/di"
	"github.com/kibunbook/kibun-server/internal/di/providers"
	"github.com/kibunbook/kibun-server/internal/logger"
)

func newServeCmd(flags *config.Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Example: `  kibun serve --port 8080
  kibun serve --catalog-source sqlite --catalog-path catalog.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			injector, err := newContainer(flags)
			if err != nil {
				return err
			}

			if err := di.Bootstrap(injector); err != nil {
				return err
			}
			log := do.MustInvoke[*logger.Logger](injector)

			srv, err := do.Invoke[*providers.HTTPServerHandle](injector)
			if err != nil {
				return err
			}
			srv.Start()

			// Wait for Ctrl+C
			<-cmd.Context().Done()
			log.Info("Shutting down server...")

			if err := injector.Shutdown(); err != nil {
				log.Error("Shutdown error", "error", err)
				return err
			}
			log.Info("Server stopped")
			return nil
		},
	}
}
