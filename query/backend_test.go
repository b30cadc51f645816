package query

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/marquee/api"
	"github.com/s0up4200/marquee/api/apitest"
)

func TestCommentsCreateRefetches(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser(api.User{Email: "ana@example.com", Name: "Ana", Password: "pw"})
	movie := srv.AddMovie(api.Movie{Title: "Heat"})
	for i := range 25 {
		srv.AddComment(api.Comment{
			Rating: 1 + i%10,
			User:   &api.UserRef{Email: fmt.Sprintf("user%d@example.com", i)},
			Film:   &api.FilmRef{ID: movie.ID},
		})
	}

	client, err := api.NewClient(srv.URL, nil, zerolog.Nop())
	require.NoError(t, err)
	ctx := context.Background()
	_, err = client.Login(ctx, "ana@example.com", "pw")
	require.NoError(t, err)

	comments := NewComments(client, zerolog.Nop())
	q := api.CommentQuery{Movie: movie.ID}
	before, err := comments.Set(ctx, q)
	require.NoError(t, err)
	assert.EqualValues(t, 25, before.Page.Pagination.TotalElements)

	created, err := comments.Create(ctx, api.NewComment{Film: movie.ID, User: "ana@example.com", Rating: 8, Comment: "Tense"})
	require.NoError(t, err)

	after := comments.Snapshot()
	assert.EqualValues(t, 26, after.Page.Pagination.TotalElements)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt) || after.UpdatedAt.Equal(before.UpdatedAt))

	all, err := All[api.CommentQuery, api.Comment](ctx, client.ListComments, q, 0)
	require.NoError(t, err)
	var seen int
	for _, c := range all {
		if c.ID == created.ID {
			seen++
		}
	}
	assert.GreaterOrEqual(t, seen, 1)

	// a rejected review leaves the page as it was
	requests := len(srv.Queries())
	_, err = comments.Create(ctx, api.NewComment{Film: movie.ID, User: "ana@example.com", Rating: 5})
	assert.ErrorIs(t, err, api.ErrConflict)
	assert.Len(t, srv.Queries(), requests)
}
