package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/kibunbook/kibun-server/internal/domain"
)

func newMoodsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "moods",
		Short: "List the selectable moods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			moods := domain.Moods()
			if asJSON {
				return writeJSON(cmd, moods)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, m := range moods {
				fmt.Fprintf(tw, "%s\t%s\n", m.Key, m.Label)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
