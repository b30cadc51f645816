package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/marquee/api"
	"github.com/s0up4200/marquee/render"
	"github.com/s0up4200/marquee/tui"
)

func newBrowseCmd(a *app) *cobra.Command {
	var (
		filters filmFilterFlags
		sort    []string
		logFile string
	)

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse films interactively",
		Long: `Open a full-screen film browser. Search flags set the first page; inside the
browser use n/p to page, / to search, g to filter genres, s to change the
sort, enter to read a film's reviews and q to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.sessionUser(); err != nil {
				return err
			}
			order, err := api.ParseSort(sort...)
			if err != nil {
				return err
			}

			// The browser owns the terminal, so logs only go to a file.
			logger := zerolog.Nop()
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
				if err != nil {
					return fmt.Errorf("failed to open log file: %w", err)
				}
				defer f.Close()
				logger = zerolog.New(f).Level(a.logger.GetLevel()).With().Timestamp().Logger()
			}

			return tui.Run(tui.Options{
				Context:  cmd.Context(),
				Movies:   a.client,
				Comments: a.client,
				Logger:   logger,
				Query: api.MovieQuery{
					Filter: filters.filter(),
					Sort:   order,
				},
				Color: render.ColorEnabled(a.cfg.Output.Color, os.Stdout),
			})
		},
	}

	filters.register(cmd)
	cmd.Flags().StringSliceVar(&sort, "sort", nil, "initial sort, e.g. +title")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file while browsing")

	return cmd
}
