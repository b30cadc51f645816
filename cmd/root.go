package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/marquee/api"
	"github.com/s0up4200/marquee/config"
	"github.com/s0up4200/marquee/filter"
	"github.com/s0up4200/marquee/render"
	"github.com/s0up4200/marquee/session"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// SetVersion records the build metadata injected by the linker.
func SetVersion(v, built string) {
	version = v
	buildTime = built
}

// app carries everything a command needs once the configuration is loaded.
type app struct {
	cfgFile string
	apiURL  string
	details bool

	cfg     *config.Config
	logger  zerolog.Logger
	client  *api.Client
	filters *filter.Manager
	format  *render.ConsoleFormatter

	stdin io.Reader
	lines *bufio.Reader
	// logOut receives log lines; nil means stderr
	logOut io.Writer
}

// Execute builds the command tree and runs it until done or interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	a := &app{stdin: os.Stdin}
	err := newRootCmd(a).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describeError(err))
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "marquee",
		Short: "Browse films, reviews and friends from the command line",
		Long: `marquee is a client for a films backend. It lets you search the catalogue,
read and write reviews, and manage friendships, either one command at a time
or through an interactive browser.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.initialize,
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./config.yaml)")
	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "backend URL, overrides api.url")
	root.PersistentFlags().BoolVar(&a.details, "details", false, "show ids and other details")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newFilmsCmd(a),
		newUsersCmd(a),
		newReviewsCmd(a),
		newFriendsCmd(a),
		newBrowseCmd(a),
		newVersionCmd(a),
		newUpdateCmd(a),
	)

	return root
}

// initialize loads the configuration and builds the client shared by every
// command of this invocation.
func (a *app) initialize(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.apiURL != "" {
		cfg.API.URL = a.apiURL
	}
	if cmd.Flags().Changed("details") {
		cfg.Output.ShowDetails = a.details
	}
	a.cfg = cfg

	logOut := a.logOut
	if logOut == nil {
		logOut = os.Stderr
	}
	a.logger = setupLogger(cfg.Logging, logOut)
	if cfg.File != "" {
		a.logger.Debug().Str("file", cfg.File).Msg("Loaded configuration")
	}

	store, err := session.NewFileStore(cfg.Session.Path)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}

	a.client, err = api.NewClient(cfg.API.URL, store, a.logger,
		api.WithTimeout(cfg.API.Timeout),
		api.WithUserAgent(cfg.API.UserAgent),
		api.WithPageSizes(api.PageSizes{
			Movies:      cfg.Pagination.MoviesSize,
			Comments:    cfg.Pagination.CommentsSize,
			Friendships: cfg.Pagination.FriendsSize,
			Users:       cfg.Pagination.UsersSize,
		}),
		api.WithUserDefaults(api.UserDefaults{
			Country: cfg.Users.DefaultCountry,
			Picture: cfg.Users.DefaultPicture,
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	a.filters = filter.NewManager()
	if err := a.filters.RegisterFilters(cfg.Filters); err != nil {
		return fmt.Errorf("failed to load filter presets: %w", err)
	}

	stdout, _ := cmd.OutOrStdout().(*os.File)
	a.format = render.NewConsoleFormatter(render.FormatOptions{
		ShowDetails: cfg.Output.ShowDetails,
		Color:       render.ColorEnabled(cfg.Output.Color, stdout),
	})

	return nil
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig, w io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	if cfg.Format == "json" {
		return zerolog.New(w).Level(level).With().Timestamp().Logger()
	}

	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !isTerminal(w),
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// describeError adds a hint to failures the user can fix by logging in.
func describeError(err error) string {
	if errors.Is(err, api.ErrUnauthorized) {
		return err.Error() + " (run `marquee login` first)"
	}
	return err.Error()
}

// sessionUser returns the logged-in user's email.
func (a *app) sessionUser() (string, error) {
	sess := a.client.Session()
	if sess.IsZero() {
		return "", &api.APIError{Kind: api.KindUnauthorized, Message: "not logged in"}
	}
	return sess.User, nil
}

// userOrSelf returns the email in args, or the session user when none is given.
func (a *app) userOrSelf(args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return args[0], nil
	}
	return a.sessionUser()
}

// printBlock writes formatter output, ending it with exactly one newline.
func printBlock(out io.Writer, s string) {
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	fmt.Fprint(out, s)
}
