package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/marquee/query"
)

func newFriendsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "friends",
		Aliases: []string{"friend"},
		Short:   "Manage friendships",
	}
	cmd.AddCommand(
		newFriendsListCmd(a),
		newFriendsAddCmd(a),
		newFriendsAcceptCmd(a),
		newFriendsRemoveCmd(a),
	)
	return cmd
}

func newFriendsListCmd(a *app) *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "list [EMAIL]",
		Short: "List friends and pending requests",
		Long: `List friends and pending requests. Each friend's profile is looked up in
parallel; friends whose profile cannot be read are shown by email.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := a.userOrSelf(args)
			if err != nil {
				return err
			}

			friends, err := query.LoadFriends(cmd.Context(), a.client, a.logger, user, query.FriendOptions{
				Concurrency: concurrency,
				MaxPages:    a.cfg.Pagination.MaxPages,
			})
			if err := a.pageLimit(err); err != nil {
				return err
			}

			printBlock(cmd.OutOrStdout(), a.format.FormatFriends(friends))
			return nil
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", query.DefaultConcurrency, "profile lookups run at once")
	return cmd
}

func newFriendsAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add EMAIL",
		Short: "Send a friend request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			me, err := a.sessionUser()
			if err != nil {
				return err
			}
			friendship, err := a.client.AddFriend(cmd.Context(), me, args[0])
			if err != nil {
				return fmt.Errorf("failed to send friend request: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Friend request sent to %s (ID: %s)\n", args[0], friendship.ID)
			return nil
		},
	}
}

func newFriendsAcceptCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "accept FRIENDSHIP_ID",
		Short: "Accept a friend request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			me, err := a.sessionUser()
			if err != nil {
				return err
			}
			friendship, err := a.client.AcceptFriendship(cmd.Context(), me, args[0])
			if err != nil {
				return fmt.Errorf("failed to accept friend request: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ You are now friends with %s\n", friendship.Other(me))
			return nil
		},
	}
}

func newFriendsRemoveCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "remove FRIENDSHIP_ID",
		Aliases: []string{"reject"},
		Short:   "Remove a friend or reject a request",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			me, err := a.sessionUser()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !yes && !a.confirm(out, fmt.Sprintf("Remove friendship %s?", args[0])) {
				fmt.Fprintln(out, "Cancelled")
				return nil
			}
			if err := a.client.DeleteFriendship(cmd.Context(), me, args[0]); err != nil {
				return fmt.Errorf("failed to remove friendship: %w", err)
			}
			fmt.Fprintf(out, "✓ Removed friendship %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
