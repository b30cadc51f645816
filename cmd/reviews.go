package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/marquee/api"
	"github.com/s0up4200/marquee/filter"
	"github.com/s0up4200/marquee/query"
)

func newReviewsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reviews",
		Aliases: []string{"review", "comments"},
		Short:   "Read and write film reviews",
	}
	cmd.AddCommand(
		newReviewsListCmd(a),
		newReviewsAddCmd(a),
		newReviewsEditCmd(a),
		newReviewsDeleteCmd(a),
	)
	return cmd
}

func newReviewsListCmd(a *app) *cobra.Command {
	var (
		q      api.CommentQuery
		paging pageFlags
		where  whereFlags
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the reviews of a film or of a user",
		Long: `List the reviews of a film (--film) or written by a user (--user).

Examples:
  marquee reviews list --film film-1 --sort -rating
  marquee reviews list --user ana@example.com --where 'Rating >= 8'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if q.Movie == "" && q.User == "" {
				return errors.New("one of --film or --user is required")
			}

			var err error
			if q.Pagination, err = paging.pagination(); err != nil {
				return err
			}
			if q.Sort, err = paging.sortKeys(); err != nil {
				return err
			}
			match, err := a.resolveFilter(where)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if paging.all {
				comments, err := query.All[api.CommentQuery, api.Comment](cmd.Context(), a.client.ListComments, q, a.cfg.Pagination.MaxPages)
				if err := a.pageLimit(err); err != nil {
					return err
				}
				printBlock(out, a.format.FormatComments(filter.Comments(match, comments)))
				return nil
			}

			state, err := query.NewComments(a.client, a.logger).Set(cmd.Context(), q)
			if err != nil {
				return err
			}
			page := *state.Page
			page.Content = filter.Comments(match, page.Content)
			printBlock(out, a.format.FormatCommentPage(&page))
			return nil
		},
	}

	cmd.Flags().StringVar(&q.Movie, "film", "", "film id")
	cmd.Flags().StringVar(&q.User, "user", "", "author email")
	cmd.MarkFlagsMutuallyExclusive("film", "user")
	paging.register(cmd)
	where.register(cmd)

	return cmd
}

func newReviewsAddCmd(a *app) *cobra.Command {
	var nc api.NewComment

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Review a film",
		Long: `Post a review of a film as the logged-in user. The film's first page of
reviews is shown afterwards, fetched again so it includes the new one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.sessionUser()
			if err != nil {
				return err
			}
			nc.User = user

			// a failed load is retried by the refetch after the post
			comments := query.NewComments(a.client, a.logger)
			if _, err := comments.Set(cmd.Context(), api.CommentQuery{Movie: nc.Film}); err != nil {
				a.logger.Debug().Err(err).Str("film", nc.Film).Msg("Could not load reviews before posting")
			}

			created, err := comments.Create(cmd.Context(), nc)
			if created == nil {
				return fmt.Errorf("failed to post review: %w", err)
			}
			if err != nil {
				a.logger.Warn().Err(err).Msg("Review posted but the list could not be refreshed")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Posted review %s\n", created.ID)
			if page := comments.Snapshot().Page; page != nil {
				fmt.Fprintln(out)
				printBlock(out, a.format.FormatCommentPage(page))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&nc.Film, "film", "", "film id")
	cmd.Flags().IntVar(&nc.Rating, "rating", 0, "rating from 1 to 10")
	cmd.Flags().StringVar(&nc.Comment, "comment", "", "review text")
	_ = cmd.MarkFlagRequired("film")
	_ = cmd.MarkFlagRequired("rating")

	return cmd
}

func newReviewsEditCmd(a *app) *cobra.Command {
	var patch patchFlags

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change one of your reviews",
		Long: `Change one of your reviews. Only the fields that differ from the stored
review are sent, as JSON-Patch operations.

Example:
  marquee reviews edit assessment-3 --set rating=9 --set 'comment=Better the second time.'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := patch.operations(); err != nil {
				return err
			}

			review := query.NewEntity(a.client.GetComment, a.client.UpdateComment, a.logger)
			current, err := review.Load(cmd.Context(), args[0])
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
			updated, err := review.Update(cmd.Context(), ops)
			if err != nil {
				return fmt.Errorf("failed to update review: %w", err)
			}

			printBlock(cmd.OutOrStdout(), a.format.FormatComments([]api.Comment{*updated}))
			return nil
		},
	}

	patch.register(cmd, true)
	return cmd
}

func newReviewsDeleteCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete one of your reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !yes && !a.confirm(out, fmt.Sprintf("Delete review %s?", args[0])) {
				fmt.Fprintln(out, "Cancelled")
				return nil
			}
			if err := a.client.DeleteComment(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to delete review: %w", err)
			}
			fmt.Fprintf(out, "✓ Deleted review %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
