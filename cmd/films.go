package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/s0up4200/marquee/api"
	"github.com/s0up4200/marquee/filter"
	"github.com/s0up4200/marquee/query"
)

func newFilmsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "films",
		Aliases: []string{"film", "movies"},
		Short:   "Search and manage films",
	}
	cmd.AddCommand(
		newFilmsListCmd(a),
		newFilmsShowCmd(a),
		newFilmsCreateCmd(a),
		newFilmsEditCmd(a),
		newFilmsDeleteCmd(a),
	)
	return cmd
}

// filmFilterFlags map onto the backend's film search parameters.
type filmFilterFlags struct {
	genres    []string
	titles    []string
	producers []string
	crew      []string
	cast      []string
	status    string
	day       int
	month     int
	year      int
}

func (f *filmFilterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.genres, "genre", nil, "genre to match, repeatable")
	cmd.Flags().StringSliceVar(&f.titles, "title", nil, "title keyword to match, repeatable")
	cmd.Flags().StringSliceVar(&f.producers, "producer", nil, "producer to match, repeatable")
	cmd.Flags().StringSliceVar(&f.crew, "crew", nil, "crew member to match, repeatable")
	cmd.Flags().StringSliceVar(&f.cast, "cast", nil, "cast member to match, repeatable")
	cmd.Flags().StringVar(&f.status, "status", "", "release status, e.g. Released")
	cmd.Flags().IntVar(&f.day, "day", 0, "release day")
	cmd.Flags().IntVar(&f.month, "month", 0, "release month")
	cmd.Flags().IntVar(&f.year, "year", 0, "release year")
}

func (f *filmFilterFlags) filter() api.MovieFilter {
	return api.MovieFilter{
		Genres:    f.genres,
		Keywords:  f.titles,
		Producers: f.producers,
		Crew:      f.crew,
		Cast:      f.cast,
		Status:    f.status,
		Release:   api.Date{Day: f.day, Month: f.month, Year: f.year},
	}
}

// whereFlags select a client-side filter.
type whereFlags struct {
	where  string
	preset string
}

func (w *whereFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&w.where, "where", "w", "", "filter expression evaluated on each result")
	cmd.Flags().StringVarP(&w.preset, "preset", "p", "", "use a filter preset from config")
	cmd.MarkFlagsMutuallyExclusive("where", "preset")
}

func (a *app) resolveFilter(w whereFlags) (filter.CompiledFilter, error) {
	f, err := a.filters.Resolve(w.where, w.preset)
	if err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}
	if f != nil {
		a.logger.Debug().Str("filter", f.Expression()).Msg("Filtering results")
	}
	return f, nil
}

func newFilmsListCmd(a *app) *cobra.Command {
	var (
		filters filmFilterFlags
		paging  pageFlags
		where   whereFlags
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List films matching the search criteria",
		Long: `List films from the catalogue. Search flags are sent to the backend; --where
and --preset filter the returned films on this side.

Examples:
  marquee films list --genre Horror --sort -runtime
  marquee films list --title alien --all
  marquee films list --where 'Runtime > 150 && hasGenre("Drama")'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pagination, err := paging.pagination()
			if err != nil {
				return err
			}
			sort, err := paging.sortKeys()
			if err != nil {
				return err
			}
			match, err := a.resolveFilter(where)
			if err != nil {
				return err
			}

			q := api.MovieQuery{Filter: filters.filter(), Sort: sort, Pagination: pagination}
			return a.listFilms(cmd.Context(), cmd.OutOrStdout(), q, paging.all, match)
		},
	}

	filters.register(cmd)
	paging.register(cmd)
	where.register(cmd)

	return cmd
}

func (a *app) listFilms(ctx context.Context, out io.Writer, q api.MovieQuery, all bool, match filter.CompiledFilter) error {
	if all {
		movies, err := query.All[api.MovieQuery, api.Movie](ctx, a.client.ListMovies, q, a.cfg.Pagination.MaxPages)
		if err := a.pageLimit(err); err != nil {
			return err
		}
		printBlock(out, a.format.FormatMovies(filter.Movies(match, movies)))
		return nil
	}

	state, err := query.Movies(a.client, a.logger).Set(ctx, q)
	if err != nil {
		return err
	}
	page := *state.Page
	page.Content = filter.Movies(match, page.Content)
	printBlock(out, a.format.FormatMoviePage(&page))
	return nil
}

// pageLimit turns hitting the configured page limit into a warning; the items
// read so far are still shown.
func (a *app) pageLimit(err error) error {
	if errors.Is(err, query.ErrPageLimit) {
		a.logger.Warn().Int("max_pages", a.cfg.Pagination.MaxPages).Msg("Stopped at pagination.max_pages, results are incomplete")
		return nil
	}
	return err
}

func newFilmsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a film",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			movie, err := query.Movie(a.client, a.logger).Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printBlock(cmd.OutOrStdout(), a.format.FormatMovie(*movie))
			return nil
		},
	}
}

func newFilmsCreateCmd(a *app) *cobra.Command {
	var (
		movie    api.Movie
		released string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a film to the catalogue (admin only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if released != "" {
				date, err := api.ParseDate(released)
				if err != nil {
					return err
				}
				movie.ReleaseDate = &date
			}

			created, err := a.client.CreateMovie(cmd.Context(), movie)
			if err != nil {
				return fmt.Errorf("failed to create film: %w", err)
			}

			a.logger.Info().Str("id", created.ID).Str("title", created.Title).Msg("Film created")
			printBlock(cmd.OutOrStdout(), a.format.FormatMovie(*created))
			return nil
		},
	}

	cmd.Flags().StringVar(&movie.Title, "title", "", "title")
	cmd.Flags().StringVar(&movie.Overview, "overview", "", "plot overview")
	cmd.Flags().StringVar(&movie.Tagline, "tagline", "", "tagline")
	cmd.Flags().StringSliceVar(&movie.Genres, "genre", nil, "genre, repeatable")
	cmd.Flags().StringSliceVar(&movie.Keywords, "keyword", nil, "keyword, repeatable")
	cmd.Flags().StringVar(&movie.Status, "status", "", "release status")
	cmd.Flags().IntVar(&movie.Runtime, "runtime", 0, "runtime in minutes")
	cmd.Flags().Int64Var(&movie.Budget, "budget", 0, "budget in dollars")
	cmd.Flags().Int64Var(&movie.Revenue, "revenue", 0, "revenue in dollars")
	cmd.Flags().StringVar(&released, "released", "", "release date, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newFilmsEditCmd(a *app) *cobra.Command {
	var patch patchFlags

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change fields of a film (admin only)",
		Long: `Change fields of a film. Only the fields that differ from the stored
film are sent, as JSON-Patch operations.

Examples:
  marquee films edit film-1 --set runtime=117 --set 'genres=["Horror"]'
  marquee films edit film-1 --unset tagline
  marquee films edit film-1 --from-file alien.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := patch.operations(); err != nil {
				return err
			}

			film := query.Movie(a.client, a.logger)
			current, err := film.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			ops, err := patch.plan(a, *current)
			if err != nil {
				return err
			}
			if len(ops) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to change")
				return nil
			}
			updated, err := film.Update(cmd.Context(), ops)
			if err != nil {
				return fmt.Errorf("failed to update film: %w", err)
			}

			printBlock(cmd.OutOrStdout(), a.format.FormatMovie(*updated))
			return nil
		},
	}

	patch.register(cmd, true)
	return cmd
}

func newFilmsDeleteCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Remove a film (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !yes && !a.confirm(out, fmt.Sprintf("Delete film %s?", args[0])) {
				fmt.Fprintln(out, "Cancelled")
				return nil
			}
			if err := a.client.DeleteMovie(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to delete film: %w", err)
			}
			fmt.Fprintf(out, "✓ Deleted film %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
