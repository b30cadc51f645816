package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/marquee/api"
	"github.com/s0up4200/marquee/query"
)

func newUsersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "Look up and manage accounts",
	}
	cmd.AddCommand(
		newUsersShowCmd(a),
		newUsersListCmd(a),
		newUsersRegisterCmd(a),
		newUsersEditCmd(a),
		newUsersDeleteCmd(a),
	)
	return cmd
}

func newUsersShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [EMAIL]",
		Short: "Show a profile, yours by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := a.userOrSelf(args)
			if err != nil {
				return err
			}
			user, err := query.User(a.client, a.logger).Load(cmd.Context(), email)
			if err != nil {
				return err
			}
			printBlock(cmd.OutOrStdout(), a.format.FormatUser(*user))
			return nil
		},
	}
}

func newUsersListCmd(a *app) *cobra.Command {
	var (
		q      api.UserQuery
		paging pageFlags
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if q.Pagination, err = paging.pagination(); err != nil {
				return err
			}
			if q.Sort, err = paging.sortKeys(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if paging.all {
				users, err := query.All[api.UserQuery, api.User](cmd.Context(), a.client.ListUsers, q, a.cfg.Pagination.MaxPages)
				if err := a.pageLimit(err); err != nil {
					return err
				}
				printBlock(out, a.format.FormatUsers(users))
				return nil
			}

			state, err := query.Users(a.client, a.logger).Set(cmd.Context(), q)
			if err != nil {
				return err
			}
			printBlock(out, a.format.FormatUserPage(state.Page))
			return nil
		},
	}

	cmd.Flags().StringVar(&q.Email, "email", "", "match email")
	cmd.Flags().StringVar(&q.Name, "name", "", "match name")
	paging.register(cmd)

	return cmd
}

func newUsersRegisterCmd(a *app) *cobra.Command {
	var (
		nu       api.NewUser
		birthday string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Long: `Create an account. No session is needed. Country and picture fall back to
users.default_country and users.default_picture. Without --password the
password is prompted for.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := api.ParseDate(birthday)
			if err != nil {
				return err
			}
			nu.Birthday = date

			if nu.Password == "" {
				if nu.Password, err = a.readPassword(cmd.Context(), cmd.ErrOrStderr()); err != nil {
					return err
				}
			}

			user, err := a.client.CreateUser(cmd.Context(), nu)
			if err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Registered %s, log in with `marquee login --email %s`\n", user.Email, user.Email)
			printBlock(out, a.format.FormatUser(*user))
			return nil
		},
	}

	cmd.Flags().StringVar(&nu.Email, "email", "", "account email")
	cmd.Flags().StringVar(&nu.Name, "name", "", "display name")
	cmd.Flags().StringVar(&nu.Password, "password", "", "password (prompted for when empty)")
	cmd.Flags().StringVar(&birthday, "birthday", "", "birthday, YYYY-MM-DD")
	cmd.Flags().StringVar(&nu.Country, "country", "", "country (default from config)")
	cmd.Flags().StringVar(&nu.Picture, "picture", "", "picture URL (default from config)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("birthday")

	return cmd
}

func newUsersEditCmd(a *app) *cobra.Command {
	var patch patchFlags

	cmd := &cobra.Command{
		Use:   "edit [EMAIL]",
		Short: "Change fields of a profile, yours by default",
		Long: `Change fields of a profile. Only the fields that differ from the stored
profile are sent, as JSON-Patch operations.

Examples:
  marquee users edit --set country=Spain
  marquee users edit --set birthday.year=1991
  echo '{"birthday":{"year":1991}}' | marquee users edit --from-file -
  marquee users edit --set 'birthday={"day":1,"month":2,"year":1990}'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := patch.operations(); err != nil {
				return err
			}
			email, err := a.userOrSelf(args)
			if err != nil {
				return err
			}

			profile := query.User(a.client, a.logger)
			current, err := profile.Load(cmd.Context(), email)
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
			updated, err := profile.Update(cmd.Context(), ops)
			if err != nil {
				return fmt.Errorf("failed to update profile: %w", err)
			}

			printBlock(cmd.OutOrStdout(), a.format.FormatUser(*updated))
			return nil
		},
	}

	patch.register(cmd, true)
	return cmd
}

func newUsersDeleteCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete [EMAIL]",
		Short: "Delete an account, yours by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := a.userOrSelf(args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !yes && !a.confirm(out, fmt.Sprintf("Delete account %s? This cannot be undone.", email)) {
				fmt.Fprintln(out, "Cancelled")
				return nil
			}
			if err := a.client.DeleteUser(cmd.Context(), email); err != nil {
				return fmt.Errorf("failed to delete account: %w", err)
			}
			fmt.Fprintf(out, "✓ Deleted account %s\n", email)

			// The token of a deleted account is useless.
			if a.client.Session().User == email {
				return a.client.Logout(cmd.Context())
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
