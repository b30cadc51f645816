package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Long: `Log in with your email and password. The issued token is stored in the
session file (session.path) and used by every later command until it expires
or you log out. Without --password the password is prompted for.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if password == "" {
				var err error
				if password, err = a.readPassword(cmd.Context(), cmd.ErrOrStderr()); err != nil {
					return err
				}
			}

			sess, err := a.client.Login(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			fmt.Fprintf(out, "✓ Logged in as %s", sess.User)
			if !sess.ExpiresAt.IsZero() {
				fmt.Fprintf(out, " (session expires %s)", sess.ExpiresAt.Local().Format(time.RFC1123))
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted for when empty)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user := a.client.Session().User
			if err := a.client.Logout(cmd.Context()); err != nil {
				return err
			}
			if user == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Logged out %s\n", user)
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.sessionUser(); err != nil {
				return err
			}
			sess := a.client.Session()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, sess.User)
			if len(sess.Roles) > 0 {
				fmt.Fprintf(out, "Roles: %s\n", strings.Join(sess.Roles, ", "))
			}
			if !sess.ExpiresAt.IsZero() {
				state := "expires"
				if sess.Expired(time.Now()) {
					state = "expired"
				}
				fmt.Fprintf(out, "Session %s %s\n", state, sess.ExpiresAt.Local().Format(time.RFC1123))
			}
			fmt.Fprintf(out, "Backend: %s\n", a.client.BaseURL())
			return nil
		},
	}
}
