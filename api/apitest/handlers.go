package apitest

import (
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/gin-gonic/gin"

	"github.com/s0up4200/marquee/api"
)

const defaultPageSize = 20

// films

func (s *Server) listFilms(c *gin.Context) {
	s.recordQuery(c)

	genres := c.QueryArray("genres")
	keywords := c.QueryArray("keywords")
	status := c.Query("status")

	s.mu.Lock()
	var out []api.Movie
	for _, m := range s.films {
		if len(genres) > 0 && !anyIn(m.Genres, genres) {
			continue
		}
		if len(keywords) > 0 && !matchesKeywords(m, keywords) {
			continue
		}
		if status != "" && !strings.EqualFold(m.Status, status) {
			continue
		}
		out = append(out, m)
	}
	s.mu.Unlock()

	sortBy(out, c.QueryArray("sort"), map[string]func(a, b api.Movie) int{
		"title":   func(a, b api.Movie) int { return strings.Compare(a.Title, b.Title) },
		"runtime": func(a, b api.Movie) int { return a.Runtime - b.Runtime },
	})
	writePage(c, out, "films not found")
}

func (s *Server) getFilm(c *gin.Context) {
	s.mu.Lock()
	i := s.filmIndex(c.Param("id"))
	var m api.Movie
	if i >= 0 {
		m = s.films[i]
	}
	s.mu.Unlock()

	if i < 0 {
		abort(c, http.StatusNotFound, "film not found")
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) createFilm(c *gin.Context) {
	var m api.Movie
	if err := c.ShouldBindJSON(&m); err != nil || strings.TrimSpace(m.Title) == "" {
		abort(c, http.StatusBadRequest, "a film needs a title")
		return
	}
	c.JSON(http.StatusCreated, s.AddMovie(m))
}

func (s *Server) patchFilm(c *gin.Context) {
	ops, ok := bindPatch(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.filmIndex(c.Param("id"))
	if i < 0 {
		abort(c, http.StatusNotFound, "film not found")
		return
	}
	updated, err := applyPatch(s.films[i], ops)
	if err != nil {
		abort(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	updated.ID = s.films[i].ID
	s.films[i] = updated
	c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteFilm(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := c.Param("id")
	i := s.filmIndex(id)
	if i < 0 {
		abort(c, http.StatusNotFound, "film not found")
		return
	}
	s.films = slices.Delete(s.films, i, i+1)
	s.comments = slices.DeleteFunc(s.comments, func(cm api.Comment) bool {
		return cm.Film != nil && cm.Film.ID == id
	})
	c.Status(http.StatusNoContent)
}

// filmIndex must be called with s.mu held.
func (s *Server) filmIndex(id string) int {
	return slices.IndexFunc(s.films, func(m api.Movie) bool { return m.ID == id })
}

// assessments

var commentOrder = map[string]func(a, b api.Comment) int{
	"rating": func(a, b api.Comment) int { return a.Rating - b.Rating },
}

func (s *Server) listFilmComments(c *gin.Context) {
	s.listComments(c, func(cm api.Comment) bool { return cm.Film != nil && cm.Film.ID == c.Param("id") })
}

func (s *Server) listUserComments(c *gin.Context) {
	s.listComments(c, func(cm api.Comment) bool { return cm.User != nil && cm.User.Email == c.Param("id") })
}

func (s *Server) listComments(c *gin.Context, keep func(api.Comment) bool) {
	s.recordQuery(c)

	s.mu.Lock()
	var out []api.Comment
	for _, cm := range s.comments {
		if keep(cm) {
			out = append(out, cm)
		}
	}
	s.mu.Unlock()

	sortBy(out, c.QueryArray("sort"), commentOrder)
	writePage(c, out, "assessments not found")
}

func (s *Server) getComment(c *gin.Context) {
	s.mu.Lock()
	i := s.commentIndex(c.Param("id"))
	var cm api.Comment
	if i >= 0 {
		cm = s.comments[i]
	}
	s.mu.Unlock()

	if i < 0 {
		abort(c, http.StatusNotFound, "assessment not found")
		return
	}
	c.JSON(http.StatusOK, cm)
}

func (s *Server) createComment(c *gin.Context) {
	var cm api.Comment
	if err := c.ShouldBindJSON(&cm); err != nil || cm.User == nil || cm.Film == nil {
		abort(c, http.StatusBadRequest, "an assessment needs a user and a film")
		return
	}
	if cm.User.Email != c.GetString(principalKey) {
		abort(c, http.StatusForbidden, "you can only review as yourself")
		return
	}
	if cm.Rating < 1 || cm.Rating > 10 {
		abort(c, http.StatusUnprocessableEntity, "rating out of range")
		return
	}

	s.mu.Lock()
	i := s.filmIndex(cm.Film.ID)
	if i < 0 {
		s.mu.Unlock()
		abort(c, http.StatusNotFound, "film not found")
		return
	}
	duplicate := slices.ContainsFunc(s.comments, func(o api.Comment) bool {
		return o.User != nil && o.Film != nil && o.User.Email == cm.User.Email && o.Film.ID == cm.Film.ID
	})
	if duplicate {
		s.mu.Unlock()
		abort(c, http.StatusConflict, "film already reviewed")
		return
	}
	cm.Film.Title = s.films[i].Title
	if u, ok := s.findUser(cm.User.Email); ok {
		cm.User.Name = u.Name
	}
	s.mu.Unlock()

	c.JSON(http.StatusCreated, s.AddComment(cm))
}

func (s *Server) patchComment(c *gin.Context) {
	ops, ok := bindPatch(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.commentIndex(c.Param("id"))
	if i < 0 {
		abort(c, http.StatusNotFound, "assessment not found")
		return
	}
	current := s.comments[i]
	if current.User == nil || current.User.Email != c.GetString(principalKey) {
		abort(c, http.StatusForbidden, "not your assessment")
		return
	}
	updated, err := applyPatch(current, ops)
	if err != nil {
		abort(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	updated.ID, updated.User, updated.Film = current.ID, current.User, current.Film
	s.comments[i] = updated
	c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteComment(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.commentIndex(c.Param("id"))
	if i < 0 {
		abort(c, http.StatusNotFound, "assessment not found")
		return
	}
	if author := s.comments[i].User; author == nil || author.Email != c.GetString(principalKey) {
		abort(c, http.StatusForbidden, "not your assessment")
		return
	}
	s.comments = slices.Delete(s.comments, i, i+1)
	c.Status(http.StatusNoContent)
}

// commentIndex must be called with s.mu held.
func (s *Server) commentIndex(id string) int {
	return slices.IndexFunc(s.comments, func(cm api.Comment) bool { return cm.ID == id })
}

// users

func (s *Server) listUsers(c *gin.Context) {
	s.recordQuery(c)

	email, name := c.Query("email"), strings.ToLower(c.Query("name"))

	s.mu.Lock()
	var out []api.User
	for _, u := range s.users {
		if email != "" && !strings.Contains(u.Email, email) {
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(u.Name), name) {
			continue
		}
		out = append(out, public(u))
	}
	s.mu.Unlock()

	sortBy(out, c.QueryArray("sort"), map[string]func(a, b api.User) int{
		"email": func(a, b api.User) int { return strings.Compare(a.Email, b.Email) },
		"name":  func(a, b api.User) int { return strings.Compare(a.Name, b.Name) },
	})
	writePage(c, out, "users not found")
}

func (s *Server) getUser(c *gin.Context) {
	s.mu.Lock()
	u, ok := s.findUser(c.Param("id"))
	s.mu.Unlock()

	if !ok {
		abort(c, http.StatusNotFound, "user not found")
		return
	}
	c.JSON(http.StatusOK, public(u))
}

func (s *Server) createUser(c *gin.Context) {
	var u api.User
	if err := c.ShouldBindJSON(&u); err != nil || u.Email == "" || u.Password == "" {
		abort(c, http.StatusBadRequest, "a user needs an email and a password")
		return
	}

	s.mu.Lock()
	_, exists := s.findUser(u.Email)
	s.mu.Unlock()
	if exists {
		abort(c, http.StatusConflict, "email already registered")
		return
	}

	s.AddUser(u)
	c.JSON(http.StatusCreated, public(u))
}

func (s *Server) patchUser(c *gin.Context) {
	ops, ok := bindPatch(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.users, func(u api.User) bool { return u.Email == c.Param("id") })
	if i < 0 {
		abort(c, http.StatusNotFound, "user not found")
		return
	}
	updated, err := applyPatch(s.users[i], ops)
	if err != nil {
		abort(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if updated.Email != s.users[i].Email {
		abort(c, http.StatusUnprocessableEntity, "email can not be changed")
		return
	}
	s.users[i] = updated
	c.JSON(http.StatusOK, public(updated))
}

func (s *Server) deleteUser(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := c.Param("id")
	i := slices.IndexFunc(s.users, func(u api.User) bool { return u.Email == email })
	if i < 0 {
		abort(c, http.StatusNotFound, "user not found")
		return
	}
	s.users = slices.Delete(s.users, i, i+1)
	s.friendships = slices.DeleteFunc(s.friendships, func(f api.Friendship) bool {
		return f.User == email || f.Friend == email
	})
	c.Status(http.StatusNoContent)
}

func public(u api.User) api.User {
	u.Password = ""
	return u
}

// friendships

func (s *Server) listFriendships(c *gin.Context) {
	s.recordQuery(c)
	me := c.Param("id")

	s.mu.Lock()
	var out []api.Friendship
	for _, f := range s.friendships {
		if f.User == me || f.Friend == me {
			out = append(out, f)
		}
	}
	s.mu.Unlock()

	writePage(c, out, "")
}

func (s *Server) getFriendship(c *gin.Context) {
	s.mu.Lock()
	i := s.friendshipIndex(c.Param("id"), c.Param("friendship"))
	var f api.Friendship
	if i >= 0 {
		f = s.friendships[i]
	}
	s.mu.Unlock()

	if i < 0 {
		abort(c, http.StatusNotFound, "friendship not found")
		return
	}
	c.JSON(http.StatusOK, f)
}

func (s *Server) addFriend(c *gin.Context) {
	var body api.UserRef
	if err := c.ShouldBindJSON(&body); err != nil || body.Email == "" {
		abort(c, http.StatusBadRequest, "a friend email is required")
		return
	}
	me := c.Param("id")

	s.mu.Lock()
	_, known := s.findUser(body.Email)
	exists := slices.ContainsFunc(s.friendships, func(f api.Friendship) bool {
		return (f.User == me && f.Friend == body.Email) || (f.User == body.Email && f.Friend == me)
	})
	s.mu.Unlock()

	switch {
	case !known:
		abort(c, http.StatusNotFound, "user not found")
		return
	case exists:
		abort(c, http.StatusConflict, "friendship already exists")
		return
	}

	pending := false
	since := api.DateOf(time.Now())
	f := s.AddFriendship(api.Friendship{User: me, Friend: body.Email, Confirmed: &pending, Since: &since})
	c.JSON(http.StatusCreated, f)
}

func (s *Server) acceptFriendship(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	me := c.Param("id")
	i := s.friendshipIndex(me, c.Param("friendship"))
	if i < 0 {
		abort(c, http.StatusNotFound, "friendship not found")
		return
	}
	if s.friendships[i].Friend != me {
		abort(c, http.StatusForbidden, "only the addressee can accept")
		return
	}
	confirmed := true
	s.friendships[i].Confirmed = &confirmed
	c.JSON(http.StatusOK, s.friendships[i])
}

func (s *Server) deleteFriendship(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.friendshipIndex(c.Param("id"), c.Param("friendship"))
	if i < 0 {
		abort(c, http.StatusNotFound, "friendship not found")
		return
	}
	s.friendships = slices.Delete(s.friendships, i, i+1)
	c.Status(http.StatusNoContent)
}

// friendshipIndex finds id among the friendships me is part of. It must be
// called with s.mu held.
func (s *Server) friendshipIndex(me, id string) int {
	return slices.IndexFunc(s.friendships, func(f api.Friendship) bool {
		return f.ID == id && (f.User == me || f.Friend == me)
	})
}

// helpers

func (s *Server) recordQuery(c *gin.Context) {
	s.mu.Lock()
	s.queries = append(s.queries, c.Request.URL.RawQuery)
	s.mu.Unlock()
}

// writePage answers with the requested slice of items in the Spring Data
// page shape. A page without content is a 404 carrying notFound, or a 204
// when notFound is empty.
func writePage[T any](c *gin.Context, items []T, notFound string) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(defaultPageSize)))
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = defaultPageSize
	}

	total := len(items)
	pages := (total + size - 1) / size
	start := min(page*size, total)
	end := min(start+size, total)

	content := items[start:end]
	if len(content) == 0 {
		if notFound == "" {
			c.Status(http.StatusNoContent)
		} else {
			abort(c, http.StatusNotFound, notFound)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"content":       content,
		"first":         page == 0,
		"last":          page >= pages-1,
		"number":        page,
		"size":          size,
		"totalPages":    pages,
		"totalElements": total,
	})
}

// sortBy orders items by the "+field" / "-field" keys it knows, earlier keys
// first. Unknown fields are ignored.
func sortBy[T any](items []T, keys []string, fields map[string]func(a, b T) int) {
	slices.SortStableFunc(items, func(a, b T) int {
		for _, key := range keys {
			desc := strings.HasPrefix(key, "-")
			cmp, ok := fields[strings.TrimLeft(key, "+-")]
			if !ok {
				continue
			}
			if n := cmp(a, b); n != 0 {
				if desc {
					return -n
				}
				return n
			}
		}
		return 0
	})
}

func anyIn(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}

func matchesKeywords(m api.Movie, keywords []string) bool {
	title := strings.ToLower(m.Title)
	for _, k := range keywords {
		if strings.Contains(title, strings.ToLower(k)) || anyIn(m.Keywords, []string{k}) {
			return true
		}
	}
	return false
}

func bindPatch(c *gin.Context) ([]api.Operation, bool) {
	var ops []api.Operation
	if err := c.ShouldBindJSON(&ops); err != nil || len(ops) == 0 {
		abort(c, http.StatusBadRequest, "expected a JSON-Patch list")
		return nil, false
	}
	return ops, true
}

// applyPatch runs ops against the JSON form of doc and decodes the result
// into a fresh value. Operations follow RFC 6902 strictly, so replacing an
// absent field fails.
func applyPatch[T any](doc T, ops []api.Operation) (T, error) {
	var out T
	data, err := json.Marshal(doc)
	if err != nil {
		return out, err
	}
	raw, err := json.Marshal(ops)
	if err != nil {
		return out, err
	}
	patch, err := jsonpatch.DecodePatch(raw)
	if err != nil {
		return out, err
	}
	if data, err = patch.Apply(data); err != nil {
		return out, err
	}
	err = json.Unmarshal(data, &out)
	return out, err
}
