package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/kibunbook/kibun-server/internal/config"
	"github.com/kibunbook/kibun-server/internal/domain"
	"github.com/kibunbook/kibun-server/internal/service"
)

type searchOptions struct {
	moods  []string
	text   string
	era    string
	length string
	kind   string
	sortBy string
	limit  int
	asJSON bool
}

func newSearchCmd(flags *config.Flags) *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search [free text]",
		Short: "Search the catalog by mood",
		Long: `Search filters the catalog by free text and facets, then ranks the books
that match every selected mood. Moods may be given as keys or labels.`,
		Example: `  kibun search --mood zokuzoku
  kibun search --mood 泣きたい --mood しんみりしたい --era classic
  kibun search ミステリー --sort publication_date`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.text = strings.TrimSpace(opts.text + " " + strings.Join(args, " "))
			}
			return runSearch(cmd, flags, opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.moods, "mood", "m", nil, "Mood key or label (repeatable)")
	cmd.Flags().StringVarP(&opts.text, "text", "t", "", "Free-text filter")
	cmd.Flags().StringVar(&opts.era, "era", "all", "all, recent or classic")
	cmd.Flags().StringVar(&opts.length, "length", "all", "all, short, medium or long")
	cmd.Flags().StringVar(&opts.kind, "type", "all", "all, fiction or non-fiction")
	cmd.Flags().StringVar(&opts.sortBy, "sort", string(domain.SortMoodMatch), "mood_match, publication_date or popularity")
	cmd.Flags().IntVarP(&opts.limit, "limit", "l", 20, "Maximum books to print (0 for all)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the full result as JSON")

	return cmd
}

func runSearch(cmd *cobra.Command, flags *config.Flags, opts *searchOptions) error {
	injector, err := newContainer(flags)
	if err != nil {
		return err
	}
	defer injector.Shutdown() //nolint:errcheck // nothing to report at exit

	svc, err := do.Invoke[*service.SearchService](injector)
	if err != nil {
		return err
	}

	params := domain.SearchParams{
		Moods:    domain.ParseMoods(opts.moods),
		FreeText: opts.text,
		Filters: domain.Filters{
			Era:    domain.Era(opts.era),
			Length: domain.Length(opts.length),
			Type:   domain.BookType(opts.kind),
		},
		SortBy: domain.SortBy(opts.sortBy),
	}

	result, err := svc.Search(cmd.Context(), params)
	if err != nil {
		return err
	}

	if opts.asJSON {
		return writeJSON(cmd, result)
	}
	return printResult(cmd, params, result, opts.limit)
}

func printResult(cmd *cobra.Command, params domain.SearchParams, result *domain.SearchResult, limit int) error {
	out := cmd.OutOrStdout()

	if len(params.Moods) > 0 {
		labels := make([]string, len(params.Moods))
		for i, m := range params.Moods {
			labels[i] = m.Label()
		}
		fmt.Fprintf(out, "moods: %s  threshold: %.2f\n", strings.Join(labels, ", "), result.AppliedThreshold)
	}
	fmt.Fprintf(out, "%d books (search %s)\n", result.TotalCount, result.SearchID)
	if result.TotalCount == 0 {
		return nil
	}
	fmt.Fprintln(out)

	books := result.Books
	if limit > 0 && len(books) > limit {
		books = books[:limit]
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tTITLE\tAUTHORS\tYEAR\tMOODS")
	for i, sb := range books {
		year := "-"
		if sb.Book.HasPublishYear() {
			year = fmt.Sprint(sb.Book.PublishYear)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			i+1, sb.Book.ID, sb.Book.Title, strings.Join(sb.Book.Authors, ", "), year, formatScores(sb.MoodScores))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(books) < len(result.Books) {
		fmt.Fprintf(out, "... %d more\n", len(result.Books)-len(books))
	}
	return nil
}

func formatScores(scores []domain.MoodScore) string {
	parts := make([]string, len(scores))
	for i, s := range scores {
		parts[i] = fmt.Sprintf("%s %.2f", s.Mood.Label(), s.Score)
	}
	return strings.Join(parts, " / ")
}
