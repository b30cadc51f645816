package cmd

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/blang/semver"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Print the version",
		Args:              cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "marquee %s (built %s, %s/%s)\n", version, buildTime, runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}

func newUpdateCmd(a *app) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update marquee to the latest release",
		Long: `Look up the latest release on GitHub (update.repository) and replace the
running binary with it. Use --check to only report whether one is available.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Update.Repository == "" {
				return errors.New("update.repository is not configured")
			}
			if _, err := isNewer(version, version); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			ctx := cmd.Context()

			a.logger.Debug().Str("repository", a.cfg.Update.Repository).Msg("Checking for updates")
			latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(a.cfg.Update.Repository))
			if err != nil {
				return fmt.Errorf("failed to check for updates: %w", err)
			}
			if !found {
				return fmt.Errorf("no release found for %s/%s", runtime.GOOS, runtime.GOARCH)
			}

			newer, err := isNewer(version, latest.Version())
			if err != nil {
				return err
			}
			if !newer {
				fmt.Fprintf(out, "✓ marquee %s is up to date\n", version)
				return nil
			}

			fmt.Fprintf(out, "New version %s available (current %s)\n", latest.Version(), version)
			if check {
				return nil
			}

			exe, err := selfupdate.ExecutablePath()
			if err != nil {
				return fmt.Errorf("failed to locate executable: %w", err)
			}
			if err := selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe); err != nil {
				return fmt.Errorf("failed to update: %w", err)
			}

			fmt.Fprintf(out, "✓ Updated to %s\n", latest.Version())
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "only check for a newer release")
	return cmd
}

// isNewer reports whether latest is a later release than current. Development
// builds carry no version and cannot be compared.
func isNewer(current, latest string) (bool, error) {
	if current == "" || current == "dev" {
		return false, errors.New("development builds cannot be updated, install a release instead")
	}
	cur, err := semver.ParseTolerant(current)
	if err != nil {
		return false, fmt.Errorf("invalid current version %q: %w", current, err)
	}
	next, err := semver.ParseTolerant(latest)
	if err != nil {
		return false, fmt.Errorf("invalid release version %q: %w", latest, err)
	}
	return next.GT(cur), nil
}
