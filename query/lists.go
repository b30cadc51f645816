package query

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/s0up4200/marquee/api"
)

// DefaultMaxPages bounds All when the caller passes no limit.
const DefaultMaxPages = 50

// ErrPageLimit is returned by All, together with the items collected so
// far, when the limit is reached before the last page.
var ErrPageLimit = errors.New("page limit reached")

// Movies binds a film listing.
func Movies(svc api.MovieService, logger zerolog.Logger) *Binding[api.MovieQuery, api.Movie] {
	return New[api.MovieQuery, api.Movie](svc.ListMovies, logger)
}

// Users binds a user listing.
func Users(svc api.UserService, logger zerolog.Logger) *Binding[api.UserQuery, api.User] {
	return New[api.UserQuery, api.User](svc.ListUsers, logger)
}

// Friendships binds one user's friendships.
func Friendships(svc api.FriendshipService, logger zerolog.Logger) *Binding[api.FriendshipQuery, api.Friendship] {
	return New[api.FriendshipQuery, api.Friendship](svc.ListFriendships, logger)
}

// Comments binds a film's or a user's comments and refetches them after a
// review is posted.
type Comments struct {
	*Binding[api.CommentQuery, api.Comment]
	svc api.CommentService
}

// NewComments creates a comments binding.
func NewComments(svc api.CommentService, logger zerolog.Logger) *Comments {
	return &Comments{Binding: New[api.CommentQuery, api.Comment](svc.ListComments, logger), svc: svc}
}

// Create posts a review and, on success, refetches the held page. The
// created comment is returned even when the refetch fails.
func (c *Comments) Create(ctx context.Context, nc api.NewComment) (*api.Comment, error) {
	var created *api.Comment
	err := c.Mutate(ctx, func(ctx context.Context) error {
		var err error
		created, err = c.svc.CreateComment(ctx, nc)
		return err
	})
	return created, err
}

// All walks pages starting at q's page until the backend reports no next
// page or maxPages pages have been read. A non-positive maxPages means
// DefaultMaxPages.
func All[Q Descriptor[Q], T any](ctx context.Context, fetch Fetcher[Q, T], q Q, maxPages int) ([]T, error) {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	var items []T
	for read := 0; ; read++ {
		if read == maxPages {
			return items, ErrPageLimit
		}
		if err := ctx.Err(); err != nil {
			return items, err
		}

		page, err := fetch(ctx, q)
		if err != nil {
			return items, err
		}
		items = append(items, page.Content...)
		if !page.Pagination.HasNext {
			return items, nil
		}
		q = q.WithPage(page.Pagination.Number + 1)
	}
}
