// Package apitest runs an in-memory stand-in for the films backend so the
// client, bindings and commands can be exercised end to end in tests.
//
// It implements just enough of the backend's behaviour to be useful: JWT
// login, Spring-style pages (404 when a page has no content, 204 for
// friendships), RFC 6902 JSON-Patch updates and the ownership checks the
// client depends on.
package apitest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/s0up4200/marquee/api"
)

const principalKey = "principal"

// Server is a fake backend listening on a local port.
type Server struct {
	*httptest.Server

	secret   []byte
	tokenTTL time.Duration

	mu          sync.Mutex
	users       []api.User
	films       []api.Movie
	comments    []api.Comment
	friendships []api.Friendship
	nextID      int
	queries     []string
	failures    []int
}

// New starts a server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &Server{secret: []byte("apitest-secret"), tokenTTL: time.Hour}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// SetTokenTTL changes the lifetime of tokens issued from now on.
func (s *Server) SetTokenTTL(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenTTL = ttl
}

// FailNext makes the next request answer with status, before any routing.
func (s *Server) FailNext(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, status)
}

// Queries returns the raw query strings received on list endpoints, oldest
// first.
func (s *Server) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

// AddUser seeds an account. Password is stored as given.
func (s *Server) AddUser(u api.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(u.Roles) == 0 {
		u.Roles = []string{"ROLE_USER"}
	}
	s.users = append(s.users, u)
}

// AddMovie seeds a film and returns it with its assigned id.
func (s *Server) AddMovie(m api.Movie) api.Movie {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.newID("film")
	s.films = append(s.films, m)
	return m
}

// AddComment seeds a comment and returns it with its assigned id.
func (s *Server) AddComment(c api.Comment) api.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.newID("assessment")
	s.comments = append(s.comments, c)
	return c
}

// AddFriendship seeds a friendship and returns it with its assigned id.
func (s *Server) AddFriendship(f api.Friendship) api.Friendship {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.ID = s.newID("friendship")
	s.friendships = append(s.friendships, f)
	return f
}

// Token issues a token for email as the login endpoint would.
func (s *Server) Token(email string, roles ...string) string {
	s.mu.Lock()
	ttl := s.tokenTTL
	s.mu.Unlock()

	claims := jwt.MapClaims{
		"sub":   email,
		"exp":   time.Now().Add(ttl).Unix(),
		"roles": roles,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	return "Bearer " + signed
}

func (s *Server) newID(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

func (s *Server) routes() http.Handler {
	r := gin.New()
	r.Use(s.injectFailures)

	r.POST("/login", s.login)
	r.POST("/users", s.createUser)

	authed := r.Group("/", s.authenticate)
	authed.GET("/films", s.listFilms)
	authed.POST("/films", s.requireAdmin, s.createFilm)
	authed.GET("/films/:id", s.getFilm)
	authed.PATCH("/films/:id", s.requireAdmin, s.patchFilm)
	authed.DELETE("/films/:id", s.requireAdmin, s.deleteFilm)
	authed.GET("/films/:id/assessments", s.listFilmComments)

	authed.POST("/films/assessments", s.createComment)
	authed.GET("/films/assessments/:id", s.getComment)
	authed.PATCH("/films/assessments/:id", s.patchComment)
	authed.DELETE("/films/assessments/:id", s.deleteComment)

	authed.GET("/users", s.listUsers)
	authed.GET("/users/:id", s.getUser)
	authed.PATCH("/users/:id", s.requireSelf, s.patchUser)
	authed.DELETE("/users/:id", s.requireSelf, s.deleteUser)
	authed.GET("/users/:id/assessments", s.listUserComments)
	authed.GET("/users/:id/friendships", s.requireSelf, s.listFriendships)
	authed.POST("/users/:id/friendships", s.requireSelf, s.addFriend)
	authed.GET("/users/:id/friendships/:friendship", s.requireSelf, s.getFriendship)
	authed.PUT("/users/:id/friendships/:friendship", s.requireSelf, s.acceptFriendship)
	authed.DELETE("/users/:id/friendships/:friendship", s.requireSelf, s.deleteFriendship)

	return r
}

func (s *Server) injectFailures(c *gin.Context) {
	s.mu.Lock()
	var status int
	if len(s.failures) > 0 {
		status, s.failures = s.failures[0], s.failures[1:]
	}
	s.mu.Unlock()

	if status != 0 {
		abort(c, status, "injected failure")
		return
	}
	c.Next()
}

func (s *Server) authenticate(c *gin.Context) {
	header := c.GetHeader("Authorization")
	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if raw == "" {
		abort(c, http.StatusUnauthorized, "missing token")
		return
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		abort(c, http.StatusUnauthorized, "invalid token")
		return
	}

	sub, _ := claims.GetSubject()
	c.Set(principalKey, sub)
	c.Next()
}

func (s *Server) requireSelf(c *gin.Context) {
	if c.Param("id") != c.GetString(principalKey) {
		abort(c, http.StatusForbidden, "not your resource")
		return
	}
	c.Next()
}

func (s *Server) requireAdmin(c *gin.Context) {
	s.mu.Lock()
	u, ok := s.findUser(c.GetString(principalKey))
	s.mu.Unlock()

	if !ok || !hasRole(u.Roles, "ROLE_ADMIN") {
		abort(c, http.StatusForbidden, "admin only")
		return
	}
	c.Next()
}

func (s *Server) login(c *gin.Context) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&creds); err != nil {
		abort(c, http.StatusBadRequest, "malformed credentials")
		return
	}

	s.mu.Lock()
	u, ok := s.findUser(creds.Email)
	s.mu.Unlock()
	if !ok || u.Password != creds.Password {
		abort(c, http.StatusUnauthorized, "wrong user or password")
		return
	}

	c.Header("Authentication", s.Token(u.Email, u.Roles...))
	c.Status(http.StatusOK)
}

// findUser must be called with s.mu held.
func (s *Server) findUser(email string) (api.User, bool) {
	for _, u := range s.users {
		if u.Email == email {
			return u, true
		}
	}
	return api.User{}, false
}

func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"status":  status,
		"error":   http.StatusText(status),
		"message": msg,
	})
}
