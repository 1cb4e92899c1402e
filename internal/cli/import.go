package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kibunbook/kibun-server/internal/catalog"
	"github.com/kibunbook/kibun-server/internal/config"
	"github.com/kibunbook/kibun-server/internal/logger"
	"github.com/kibunbook/kibun-server/internal/store/sqlite"
)

func newImportCmd(flags *config.Flags) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy a JSON catalog into a SQLite database",
		Long: `Import validates a JSON catalog the same way the server does and replaces
the contents of the SQLite database with it. The database can then be served
with --catalog-source sqlite --catalog-path <file>.`,
		Example: `  kibun import --from books.json --to catalog.db`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.Load()
			if err != nil {
				return err
			}
			log := logger.New(logger.Config{
				Writer:      cmd.ErrOrStderr(),
				Level:       logger.ParseLevel(cfg.Logger.Level),
				Environment: cfg.App.Environment,
			})

			src := catalog.NewJSONSource(from)
			if from == "" {
				src = catalog.EmbeddedSource()
			}

			// Loading through the loader applies record validation and normalization.
			books, err := catalog.NewLoader(src, log.Logger).Load(cmd.Context())
			if err != nil {
				return err
			}
			records := make([]catalog.Record, len(books))
			for i, b := range books {
				records[i] = catalog.RecordFromBook(b)
			}

			st, err := sqlite.Open(to, log.Logger)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck // ReplaceCatalog already committed

			n, err := st.ReplaceCatalog(cmd.Context(), records)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d books from %s into %s\n", n, src.Name(), to)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "JSON catalog to import (default: the built-in catalog)")
	cmd.Flags().StringVar(&to, "to", "", "SQLite database to write")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}
