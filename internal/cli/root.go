// Package cli implements the kibun command-line interface.
package cli

import (
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/kibunbook/kibun-server/internal/config"
	"github.com/kibunbook/kibun-server/internal/di"
)

// NewRootCmd builds the kibun command tree. Configuration flags are shared by
// every subcommand and follow the same precedence as the server binary.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kibun",
		Short: "Find books by how you want to feel",
		Long: `kibun classifies a library catalog into moods and ranks books that match
the moods you pick, optionally narrowed by free text, era, length and type.`,
		SilenceUsage: true,
	}

	flags := config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newMoodsCmd(),
		newSearchCmd(flags),
		newImportCmd(flags),
		newServeCmd(flags),
	)

	return cmd
}

// newContainer loads configuration from the parsed flags and builds the
// dependency container.
func newContainer(flags *config.Flags) (*do.RootScope, error) {
	cfg, err := flags.Load()
	if err != nil {
		return nil, err
	}
	return di.NewContainer(cfg), nil
}
