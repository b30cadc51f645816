package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/marquee/api"
)

// DefaultConcurrency is the number of profile lookups run at once.
const DefaultConcurrency = 5

// FriendSource is what LoadFriends needs from the backend.
type FriendSource interface {
	ListFriendships(ctx context.Context, q api.FriendshipQuery) (*api.Page[api.Friendship], error)
	GetUser(ctx context.Context, email string) (*api.User, error)
}

// Friend is a friendship seen from one user, with the other party's profile
// when it could be fetched.
type Friend struct {
	api.Friendship
	Email   string
	Profile *api.User
}

// Name returns the other party's display name, falling back to the email.
func (f Friend) Name() string {
	if f.Profile != nil {
		return f.Profile.DisplayName()
	}
	return f.Email
}

// FriendOptions tune LoadFriends.
type FriendOptions struct {
	Concurrency int
	MaxPages    int
}

// LoadFriends collects all of user's friendships and resolves each other
// party's profile concurrently. Failed lookups are logged and leave Profile
// nil; only a failure to list the friendships is returned. When the listing
// stops at MaxPages the friends read so far come back with ErrPageLimit.
func LoadFriends(ctx context.Context, src FriendSource, logger zerolog.Logger, user string, opts FriendOptions) ([]Friend, error) {
	friendships, listErr := All[api.FriendshipQuery, api.Friendship](ctx, src.ListFriendships, api.FriendshipQuery{User: user}, opts.MaxPages)
	if listErr != nil && !errors.Is(listErr, ErrPageLimit) {
		return nil, fmt.Errorf("failed to list friendships: %w", listErr)
	}

	friends := make([]Friend, len(friendships))
	for i, f := range friendships {
		friends[i] = Friend{Friendship: f, Email: f.Other(user)}
	}
	if len(friends) == 0 {
		return friends, listErr
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i := range friends {
		g.Go(func() error {
			profile, err := src.GetUser(ctx, friends[i].Email)
			if err != nil {
				logger.Warn().
					Err(err).
					Str("friend", friends[i].Email).
					Msg("Failed to load friend profile")
				return nil
			}
			friends[i].Profile = profile
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return friends, listErr
}

// SplitFriends separates pending requests from confirmed friendships,
// keeping their order.
func SplitFriends(friends []Friend) (pending, accepted []Friend) {
	for _, f := range friends {
		if f.IsConfirmed() {
			accepted = append(accepted, f)
		} else {
			pending = append(pending, f)
		}
	}
	return pending, accepted
}
