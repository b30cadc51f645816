package api_test

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/marquee/api"
	"github.com/s0up4200/marquee/api/apitest"
	"github.com/s0up4200/marquee/session"
)

const (
	ana   = "ana@example.com"
	bruno = "bruno@example.com"
	pw    = "hunter2"
)

func newBackend(t *testing.T) *apitest.Server {
	t.Helper()
	srv := apitest.New(t)
	srv.AddUser(api.User{Email: ana, Name: "Ana", Password: pw, Roles: []string{"ROLE_USER", "ROLE_ADMIN"}})
	srv.AddUser(api.User{Email: bruno, Name: "Bruno", Password: pw})
	return srv
}

func loggedIn(t *testing.T, srv *apitest.Server, email string) *api.Client {
	t.Helper()
	client, err := api.NewClient(srv.URL, nil, zerolog.Nop())
	require.NoError(t, err)
	_, err = client.Login(context.Background(), email, pw)
	require.NoError(t, err)
	return client
}

func TestLoginPersistsSession(t *testing.T) {
	srv := newBackend(t)
	store, err := session.NewFileStore(filepath.Join(t.TempDir(), "session.toml"))
	require.NoError(t, err)

	client, err := api.NewClient(srv.URL, store, zerolog.Nop())
	require.NoError(t, err)

	sess, err := client.Login(context.Background(), ana, pw)
	require.NoError(t, err)
	assert.Equal(t, ana, sess.User)
	assert.True(t, sess.HasRole("admin"))
	assert.WithinDuration(t, time.Now().Add(time.Hour), sess.ExpiresAt, time.Minute)

	stored, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, sess.Token, stored.Token)

	// a second client picks the session up from disk
	again, err := api.NewClient(srv.URL, store, zerolog.Nop())
	require.NoError(t, err)
	me, err := again.GetUser(context.Background(), ana)
	require.NoError(t, err)
	assert.Equal(t, "Ana", me.Name)
	assert.Empty(t, me.Password)
}

func TestFailedLoginKeepsPreviousSession(t *testing.T) {
	srv := newBackend(t)
	previous := session.Session{User: bruno, Token: srv.Token(bruno)}
	store := session.NewMemoryStore(previous)

	client, err := api.NewClient(srv.URL, store, zerolog.Nop())
	require.NoError(t, err)

	_, err = client.Login(context.Background(), ana, "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrUnauthorized)

	stored, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, previous, stored)
	assert.Equal(t, previous, client.Session())
}

func TestLogoutClearsSession(t *testing.T) {
	srv := newBackend(t)
	store := session.NewMemoryStore(session.Session{})
	client, err := api.NewClient(srv.URL, store, zerolog.Nop())
	require.NoError(t, err)

	_, err = client.Login(context.Background(), ana, pw)
	require.NoError(t, err)
	require.NoError(t, client.Logout(context.Background()))

	assert.True(t, client.Session().IsZero())
	stored, err := store.Load()
	require.NoError(t, err)
	assert.True(t, stored.IsZero())

	_, err = client.ListMovies(context.Background(), api.MovieQuery{})
	assert.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestRegisterThenLogin(t *testing.T) {
	srv := newBackend(t)
	client, err := api.NewClient(srv.URL, nil, zerolog.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	created, err := client.CreateUser(ctx, api.NewUser{
		Email:    "carla@example.com",
		Name:     "Carla",
		Password: "pw",
		Birthday: api.Date{Day: 1, Month: 2, Year: 1995},
	})
	require.NoError(t, err)
	assert.Equal(t, "Undefined", created.Country)
	assert.Equal(t, []string{"ROLE_USER"}, created.Roles)

	_, err = client.CreateUser(ctx, api.NewUser{
		Email:    "carla@example.com",
		Name:     "Carla",
		Password: "pw",
		Birthday: api.Date{Day: 1, Month: 2, Year: 1995},
	})
	assert.ErrorIs(t, err, api.ErrConflict)

	_, err = client.Login(ctx, "carla@example.com", "pw")
	require.NoError(t, err)
}

func TestMovieLifecycle(t *testing.T) {
	srv := newBackend(t)
	admin := loggedIn(t, srv, ana)
	ctx := context.Background()

	created, err := admin.CreateMovie(ctx, api.Movie{Title: "Alien", Runtime: 117, Genres: []string{"Horror"}})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	updated, err := admin.UpdateMovie(ctx, created.ID, []api.Operation{
		api.Replace("runtime", 116),
		api.Add("tagline", "In space no one can hear you scream."),
	})
	require.NoError(t, err)
	assert.Equal(t, 116, updated.Runtime)
	assert.Equal(t, "In space no one can hear you scream.", updated.Tagline)
	assert.Equal(t, created.ID, updated.ID)

	// regular users can read but not write
	viewer := loggedIn(t, srv, bruno)
	got, err := viewer.GetMovie(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alien", got.Title)
	err = viewer.DeleteMovie(ctx, created.ID)
	assert.ErrorIs(t, err, api.ErrForbidden)

	require.NoError(t, admin.DeleteMovie(ctx, created.ID))
	_, err = admin.GetMovie(ctx, created.ID)
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestListMoviesFiltersAndPages(t *testing.T) {
	srv := newBackend(t)
	for _, title := range []string{"Brazil", "Alien", "Aliens", "Heat", "Ran"} {
		genre := "Drama"
		if title == "Alien" || title == "Aliens" {
			genre = "Horror"
		}
		srv.AddMovie(api.Movie{Title: title, Genres: []string{genre}})
	}
	client := loggedIn(t, srv, bruno)
	ctx := context.Background()

	sort, err := api.ParseSort("title")
	require.NoError(t, err)
	q := api.MovieQuery{Sort: sort, Pagination: api.Pagination{Size: 2}}

	first, err := client.ListMovies(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alien", "Aliens"}, titles(first.Content))
	assert.True(t, first.Pagination.HasNext)
	assert.False(t, first.Pagination.HasPrevious)

	last, err := client.ListMovies(ctx, q.WithPage(2))
	require.NoError(t, err)
	assert.Equal(t, []string{"Ran"}, titles(last.Content))
	assert.False(t, last.Pagination.HasNext)
	assert.True(t, last.Pagination.HasPrevious)

	horror, err := client.ListMovies(ctx, api.MovieQuery{Filter: api.MovieFilter{Genres: []string{"Horror"}}})
	require.NoError(t, err)
	assert.Len(t, horror.Content, 2)
	assert.EqualValues(t, 2, horror.Pagination.TotalElements)

	// the backend answers 404 for a page without content
	westerns, err := client.ListMovies(ctx, api.MovieQuery{Filter: api.MovieFilter{Genres: []string{"Western"}}})
	require.NoError(t, err)
	assert.Empty(t, westerns.Content)
	assert.False(t, westerns.Pagination.HasNext)

	beyond, err := client.ListMovies(ctx, q.WithPage(5))
	require.NoError(t, err)
	assert.Empty(t, beyond.Content)
	assert.True(t, beyond.Pagination.HasPrevious)
}

func TestEmptyListsAreNotFound(t *testing.T) {
	srv := newBackend(t)
	movie := srv.AddMovie(api.Movie{Title: "Heat"})
	token := srv.Token(ana)

	for _, path := range []string{"/films/" + movie.ID + "/assessments", "/users/" + ana + "/assessments", "/users?name=nobody"} {
		req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", token)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}

	client := loggedIn(t, srv, ana)
	ctx := context.Background()

	reviews, err := client.ListComments(ctx, api.CommentQuery{Movie: movie.ID})
	require.NoError(t, err)
	assert.Empty(t, reviews.Content)

	users, err := client.ListUsers(ctx, api.UserQuery{Name: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, users.Content)
}

func TestPatchIsStrict(t *testing.T) {
	srv := newBackend(t)
	admin := loggedIn(t, srv, ana)
	movie := srv.AddMovie(api.Movie{Title: "Heat"})

	_, err := admin.UpdateMovie(context.Background(), movie.ID, []api.Operation{api.Replace("overview", "A heist.")})
	assert.ErrorIs(t, err, api.ErrInvalid, "replacing an absent field is not allowed")

	updated, err := admin.UpdateMovie(context.Background(), movie.ID, []api.Operation{api.Add("overview", "A heist.")})
	require.NoError(t, err)
	assert.Equal(t, "A heist.", updated.Overview)
}

func TestCommentsReadYourWrites(t *testing.T) {
	srv := newBackend(t)
	movie := srv.AddMovie(api.Movie{Title: "Heat"})
	for i := 0; i < 12; i++ {
		srv.AddComment(api.Comment{
			Rating: 5,
			User:   &api.UserRef{Email: "someone" + string(rune('a'+i)) + "@example.com"},
			Film:   &api.FilmRef{ID: movie.ID},
		})
	}
	client := loggedIn(t, srv, ana)
	ctx := context.Background()

	created, err := client.CreateComment(ctx, api.NewComment{Film: movie.ID, User: ana, Rating: 9, Comment: "Great"})
	require.NoError(t, err)
	assert.Equal(t, "Heat", created.Film.Title)

	var found bool
	q := api.CommentQuery{Movie: movie.ID}
	for page := 0; ; page++ {
		p, err := client.ListComments(ctx, q.WithPage(page))
		require.NoError(t, err)
		for _, c := range p.Content {
			found = found || c.ID == created.ID
		}
		if !p.Pagination.HasNext {
			break
		}
	}
	assert.True(t, found)

	_, err = client.CreateComment(ctx, api.NewComment{Film: movie.ID, User: ana, Rating: 3})
	assert.ErrorIs(t, err, api.ErrConflict)

	_, err = client.CreateComment(ctx, api.NewComment{Film: movie.ID, User: bruno, Rating: 3})
	assert.ErrorIs(t, err, api.ErrForbidden)

	edited, err := client.UpdateComment(ctx, created.ID, []api.Operation{api.Replace("rating", 10)})
	require.NoError(t, err)
	assert.Equal(t, 10, edited.Rating)

	mine, err := client.ListComments(ctx, api.CommentQuery{User: ana})
	require.NoError(t, err)
	require.Len(t, mine.Content, 1)
	assert.Equal(t, 10, mine.Content[0].Rating)

	require.NoError(t, client.DeleteComment(ctx, created.ID))
	_, err = client.GetComment(ctx, created.ID)
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestFriendshipFlow(t *testing.T) {
	srv := newBackend(t)
	asAna := loggedIn(t, srv, ana)
	asBruno := loggedIn(t, srv, bruno)
	ctx := context.Background()

	empty, err := asAna.ListFriendships(ctx, api.FriendshipQuery{User: ana})
	require.NoError(t, err)
	assert.Empty(t, empty.Content)

	request, err := asAna.AddFriend(ctx, ana, bruno)
	require.NoError(t, err)
	assert.False(t, request.IsConfirmed())

	_, err = asAna.AddFriend(ctx, ana, bruno)
	assert.ErrorIs(t, err, api.ErrConflict)

	_, err = asAna.AcceptFriendship(ctx, ana, request.ID)
	assert.ErrorIs(t, err, api.ErrForbidden, "only the addressee may accept")

	accepted, err := asBruno.AcceptFriendship(ctx, bruno, request.ID)
	require.NoError(t, err)
	assert.True(t, accepted.IsConfirmed())
	assert.Equal(t, ana, accepted.Other(bruno))

	list, err := asAna.ListFriendships(ctx, api.FriendshipQuery{User: ana})
	require.NoError(t, err)
	require.Len(t, list.Content, 1)
	assert.True(t, list.Content[0].IsConfirmed())

	_, err = asBruno.ListFriendships(ctx, api.FriendshipQuery{User: ana})
	assert.ErrorIs(t, err, api.ErrForbidden)

	require.NoError(t, asBruno.DeleteFriendship(ctx, bruno, request.ID))
	_, err = asAna.GetFriendship(ctx, ana, request.ID)
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestUpdateAndDeleteOwnProfile(t *testing.T) {
	srv := newBackend(t)
	client := loggedIn(t, srv, bruno)
	ctx := context.Background()

	updated, err := client.UpdateUser(ctx, bruno, []api.Operation{api.Replace("country", "Portugal")})
	require.NoError(t, err)
	assert.Equal(t, "Portugal", updated.Country)

	_, err = client.UpdateUser(ctx, ana, []api.Operation{api.Replace("country", "Spain")})
	assert.ErrorIs(t, err, api.ErrForbidden)

	require.NoError(t, client.DeleteUser(ctx, bruno))
	_, err = client.Login(ctx, bruno, pw)
	assert.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestServerFailureKind(t *testing.T) {
	srv := newBackend(t)
	client := loggedIn(t, srv, ana)

	srv.FailNext(http.StatusServiceUnavailable)
	_, err := client.ListUsers(context.Background(), api.UserQuery{})
	assert.ErrorIs(t, err, api.ErrServer)

	page, err := client.ListUsers(context.Background(), api.UserQuery{Name: "bru"})
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, bruno, page.Content[0].Email)
}

func titles(movies []api.Movie) []string {
	out := make([]string, len(movies))
	for i, m := range movies {
		out[i] = m.Title
	}
	return out
}
