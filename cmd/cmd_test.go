package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/marquee/api"
	"github.com/s0up4200/marquee/api/apitest"
	"github.com/s0up4200/marquee/session"
)

type harness struct {
	t           *testing.T
	srv         *apitest.Server
	sessionPath string
}

// newHarness points the commands at a fake backend, with the session file and
// home directory inside a temporary directory.
func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	srv := apitest.New(t)
	h := &harness{t: t, srv: srv, sessionPath: filepath.Join(dir, "session.toml")}

	t.Setenv("MARQUEE_API_URL", srv.URL)
	t.Setenv("MARQUEE_SESSION_PATH", h.sessionPath)
	t.Setenv("MARQUEE_OUTPUT_COLOR", "false")
	return h
}

func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	var out, logs bytes.Buffer
	a := &app{stdin: strings.NewReader(stdin), logOut: &logs}

	root := newRootCmd(a)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// loginAs seeds an account and stores a session for it, skipping /login.
func (h *harness) loginAs(email, name string, roles ...string) {
	h.t.Helper()
	if len(roles) == 0 {
		roles = []string{"ROLE_USER"}
	}
	h.srv.AddUser(api.User{Email: email, Name: name, Password: "secret", Roles: roles})

	store, err := session.NewFileStore(h.sessionPath)
	require.NoError(h.t, err)
	require.NoError(h.t, store.Save(session.New(email, h.srv.Token(email, roles...))))
}

func (h *harness) seedFilms(n int) []api.Movie {
	movies := make([]api.Movie, n)
	for i := range n {
		movies[i] = h.srv.AddMovie(api.Movie{
			Title:   fmt.Sprintf("Film %d", i+1),
			Runtime: 91 + i,
			Genres:  []string{"Drama"},
		})
	}
	return movies
}

func TestLoginWhoamiLogout(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser(api.User{Email: "ana@example.com", Name: "Ana", Password: "secret"})

	out, err := h.run("secret\n", "login", "--email", "ana@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Logged in as ana@example.com")

	info, err := os.Stat(h.sessionPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	out, err = h.run("", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "ana@example.com")
	assert.Contains(t, out, "Roles: ROLE_USER")
	assert.Contains(t, out, "Session expires")

	out, err = h.run("", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Logged out ana@example.com")

	_, err = h.run("", "whoami")
	assert.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestCorruptSessionFileCanBeReplaced(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser(api.User{Email: "ana@example.com", Name: "Ana", Password: "secret"})
	require.NoError(t, os.WriteFile(h.sessionPath, []byte("user = [unterminated"), 0o600))

	_, err := h.run("", "whoami")
	assert.ErrorIs(t, err, api.ErrUnauthorized)

	_, err = h.run("", "logout")
	require.NoError(t, err)
	_, statErr := os.Stat(h.sessionPath)
	assert.True(t, os.IsNotExist(statErr), "logout removes the unreadable file")

	require.NoError(t, os.WriteFile(h.sessionPath, []byte("user = [unterminated"), 0o600))
	out, err := h.run("", "login", "--email", "ana@example.com", "--password", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Logged in as ana@example.com")

	out, err = h.run("", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "ana@example.com")
}

func TestLoginFailureStoresNothing(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser(api.User{Email: "ana@example.com", Password: "secret"})

	_, err := h.run("", "login", "--email", "ana@example.com", "--password", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrUnauthorized)

	_, statErr := os.Stat(h.sessionPath)
	assert.True(t, os.IsNotExist(statErr), "no session file after a failed login")
}

func TestCommandsNeedALogin(t *testing.T) {
	h := newHarness(t)
	h.seedFilms(1)

	_, err := h.run("", "films", "list")
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.Contains(t, describeError(err), "marquee login")
}

func TestFilmsListPages(t *testing.T) {
	h := newHarness(t)
	h.loginAs("ana@example.com", "Ana")
	h.seedFilms(9)

	out, err := h.run("", "films", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Films (7):")
	assert.Contains(t, out, "Page 1 of 2 (9 total)")
	assert.Contains(t, out, "--page 2 for next")

	out, err = h.run("", "films", "list", "--page", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Films (2):")
	assert.Contains(t, out, "Film 9")
	assert.Contains(t, out, "--page 1 for previous")
	assert.NotContains(t, out, "for next")

	out, err = h.run("", "films", "list", "--all", "--sort", "-title")
	require.NoError(t, err)
	assert.Contains(t, out, "Films (9):")
	assert.NotContains(t, out, "Page ")
	assert.Less(t, strings.Index(out, "Film 9"), strings.Index(out, "Film 1"))

	_, err = h.run("", "films", "list", "--page", "0")
	assert.Error(t, err)
}

func TestFilmsListWhere(t *testing.T) {
	h := newHarness(t)
	h.loginAs("ana@example.com", "Ana")
	h.seedFilms(9)

	out, err := h.run("", "films", "list", "--all", "--where", "Runtime >= 96")
	require.NoError(t, err)
	assert.Contains(t, out, "Films (4):")
	assert.NotContains(t, out, "Film 5\n")

	out, err = h.run("", "films", "list", "--where", "Runtime > 500")
	require.NoError(t, err)
	assert.Contains(t, out, "No films found")
	assert.Contains(t, out, "--page 2 for next", "an emptied page still points at the next one")

	_, err = h.run("", "films", "list", "--preset", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "filter preset 'nope' not found")
}

func TestFilmsListPreset(t *testing.T) {
	h := newHarness(t)
	h.loginAs("ana@example.com", "Ana")
	h.seedFilms(3)

	config := "filters:\n  long: Runtime > 92\n"
	require.NoError(t, os.WriteFile("config.yaml", []byte(config), 0o600))

	out, err := h.run("", "films", "list", "--preset", "long")
	require.NoError(t, err)
	assert.Contains(t, out, "Film (1):")
	assert.Contains(t, out, "Film 3")
}

func TestFilmsCreateEditDelete(t *testing.T) {
	h := newHarness(t)
	h.loginAs("admin@example.com", "Admin", "ROLE_USER", "ROLE_ADMIN")

	out, err := h.run("", "films", "create", "--title", "Alien", "--runtime", "117", "--genre", "Horror", "--released", "1979-05-25")
	require.NoError(t, err)
	assert.Contains(t, out, "Alien (1979)")
	assert.Contains(t, out, "ID: film-1")

	out, err = h.run("", "films", "edit", "film-1", "--set", "runtime=118", "--set", `tagline=In space no one can hear you scream.`)
	require.NoError(t, err)
	assert.Contains(t, out, "Runtime: 118 min")
	assert.Contains(t, out, "In space no one can hear you scream.")

	_, err = h.run("", "films", "edit", "film-1")
	assert.Error(t, err, "an edit needs at least one change")

	out, err = h.run("", "films", "edit", "film-1", "--set", "runtime=118")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to change")

	out, err = h.run("n\n", "films", "delete", "film-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled")

	out, err = h.run("", "films", "delete", "film-1", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Deleted film film-1")

	_, err = h.run("", "films", "show", "film-1")
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestFilmsCreateNeedsAdmin(t *testing.T) {
	h := newHarness(t)
	h.loginAs("ana@example.com", "Ana")

	_, err := h.run("", "films", "create", "--title", "Alien")
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrForbidden)
}

func TestReviewsAddAndList(t *testing.T) {
	h := newHarness(t)
	h.loginAs("ana@example.com", "Ana")
	film := h.seedFilms(1)[0]

	out, err := h.run("", "reviews", "add", "--film", film.ID, "--rating", "9", "--comment", "Tense.")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Posted review")
	assert.Contains(t, out, "Review (1):", "the refetched page includes the new review")
	assert.Contains(t, out, "Tense.")

	out, err = h.run("", "reviews", "list", "--user", "ana@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "9/10 Ana on Film 1")

	out, err = h.run("", "reviews", "list", "--film", film.ID, "--where", "Rating < 5")
	require.NoError(t, err)
	assert.Contains(t, out, "No reviews found")

	_, err = h.run("", "reviews", "add", "--film", film.ID, "--rating", "7")
	assert.ErrorIs(t, err, api.ErrConflict)

	_, err = h.run("", "reviews", "add", "--film", film.ID, "--rating", "11")
	assert.ErrorIs(t, err, api.ErrInvalid)

	_, err = h.run("", "reviews", "list")
	assert.Error(t, err)
}

func TestReviewsAddFirstReview(t *testing.T) {
	h := newHarness(t)
	h.loginAs("ana@example.com", "Ana")
	films := h.seedFilms(2)

	out, err := h.run("", "reviews", "add", "--film", films[0].ID, "--rating", "8")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Posted review")
	assert.Contains(t, out, "Review (1):")

	h.srv.FailNext(http.StatusServiceUnavailable)
	out, err = h.run("", "reviews", "add", "--film", films[1].ID, "--rating", "6")
	require.NoError(t, err, "a failed first load does not stop the post")
	assert.Contains(t, out, "✓ Posted review")
	assert.Contains(t, out, "Review (1):")
}

func TestReviewsEditDelete(t *testing.T) {
	h := newHarness(t)
	h.loginAs("ana@example.com", "Ana")
	film := h.seedFilms(1)[0]
	review := h.srv.AddComment(api.Comment{
		Rating:  6,
		Comment: "Fine.",
		User:    &api.UserRef{Email: "ana@example.com", Name: "Ana"},
		Film:    &api.FilmRef{ID: film.ID, Title: film.Title},
	})

	out, err := h.run("", "reviews", "edit", review.ID, "--set", "rating=8")
	require.NoError(t, err)
	assert.Contains(t, out, "8/10")

	out, err = h.run("y\n", "reviews", "delete", review.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Deleted review "+review.ID)
}

func TestUsersRegisterShowEdit(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("hunter2\n", "users", "register", "--email", "carla@example.com", "--name", "Carla", "--birthday", "1990-02-01")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Registered carla@example.com")
	assert.Contains(t, out, "Country: Undefined")

	_, err = h.run("", "login", "--email", "carla@example.com", "--password", "hunter2")
	require.NoError(t, err)

	out, err = h.run("", "users", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Carla")
	assert.Contains(t, out, "Birthday: 1/2/1990")

	out, err = h.run("", "users", "edit", "--set", "country=Spain")
	require.NoError(t, err)
	assert.Contains(t, out, "Country: Spain")

	_, err = h.run("", "users", "register", "--email", "x@example.com", "--name", "X", "--birthday", "yesterday", "--password", "pw")
	assert.Error(t, err)
}

func TestEditSendsOnlyChanges(t *testing.T) {
	h := newHarness(t)
	h.loginAs("ana@example.com", "Ana")

	_, err := h.run("", "users", "edit", "--set", `birthday={"day":1,"month":2,"year":1990}`)
	require.NoError(t, err)

	doc := filepath.Join(t.TempDir(), "ana.json")
	require.NoError(t, os.WriteFile(doc, []byte(`{"birthday":{"year":1991},"country":"Chile"}`), 0o600))

	out, err := h.run("", "users", "edit", "--from-file", doc)
	require.NoError(t, err)
	assert.Contains(t, out, "Birthday: 1/2/1991")
	assert.Contains(t, out, "Country: Chile")

	out, err = h.run(`{"country":"Chile"}`, "users", "edit", "--from-file", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to change")

	out, err = h.run("", "users", "edit", "--set", "birthday.year=1992")
	require.NoError(t, err)
	assert.Contains(t, out, "Birthday: 1/2/1992")

	_, err = h.run("", "users", "edit", "--from-file", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = h.run("{", "users", "edit", "--from-file", "-")
	assert.ErrorIs(t, err, api.ErrInvalid)
}

func TestUsersDeleteSelfLogsOut(t *testing.T) {
	h := newHarness(t)
	h.loginAs("ana@example.com", "Ana")

	out, err := h.run("", "users", "delete", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Deleted account ana@example.com")

	_, err = h.run("", "whoami")
	assert.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestFriends(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser(api.User{Email: "ana@example.com", Name: "Ana", Password: "secret"})
	h.loginAs("bruno@example.com", "Bruno")

	pending := false
	request := h.srv.AddFriendship(api.Friendship{User: "ana@example.com", Friend: "bruno@example.com", Confirmed: &pending})

	out, err := h.run("", "friends", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Pending (1):")
	assert.Contains(t, out, "Ana <ana@example.com>")
	assert.Contains(t, out, "wants to be your friend")

	out, err = h.run("", "friends", "accept", request.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ You are now friends with ana@example.com")

	out, err = h.run("", "friends", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Friends (1):")
	assert.NotContains(t, out, "Pending")

	_, err = h.run("", "friends", "add", "ana@example.com")
	assert.ErrorIs(t, err, api.ErrConflict)

	out, err = h.run("", "friends", "remove", request.ID, "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Removed friendship "+request.ID)

	out, err = h.run("", "friends", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No friends yet")
}

func TestVersionSkipsConfig(t *testing.T) {
	h := newHarness(t)
	t.Setenv("MARQUEE_LOGGING_LEVEL", "loud")

	out, err := h.run("", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "marquee dev")

	_, err = h.run("", "whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestUpdateRefusesDevelopmentBuild(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "update", "--check")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "development builds cannot be updated")
}
