package api

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// SortKey orders a collection by one field.
type SortKey struct {
	Field     string
	Direction Direction
}

// Sort is an ordered list of sort keys; earlier keys take priority.
type Sort []SortKey

// ParseSort reads "+field", "-field" or a bare "field" (ascending).
func ParseSort(raw ...string) (Sort, error) {
	var sort Sort
	for _, item := range raw {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key := SortKey{Field: item, Direction: Asc}
		switch item[0] {
		case '+':
			key.Field = item[1:]
		case '-':
			key.Field = item[1:]
			key.Direction = Desc
		}
		if key.Field == "" {
			return nil, invalidf("empty sort field in %q", item)
		}
		sort = append(sort, key)
	}
	return sort, nil
}

// params encodes the keys as the backend expects: "+field" / "-field".
// A field repeated later in the list is dropped; the first one wins.
func (s Sort) params() []string {
	seen := make(map[string]bool, len(s))
	out := make([]string, 0, len(s))
	for _, k := range s {
		if k.Field == "" || seen[k.Field] {
			continue
		}
		seen[k.Field] = true
		if strings.EqualFold(string(k.Direction), string(Desc)) {
			out = append(out, "-"+k.Field)
		} else {
			out = append(out, "+"+k.Field)
		}
	}
	return out
}

// Pagination selects one page of a collection. Pages are zero-based.
type Pagination struct {
	Page int
	Size int
}

func (p Pagination) orDefault(size int) Pagination {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = size
	}
	return p
}

func (p Pagination) set(v url.Values) {
	v.Set("page", strconv.Itoa(p.Page))
	if p.Size > 0 {
		v.Set("size", strconv.Itoa(p.Size))
	}
}

// MovieFilter narrows a film listing. Zero fields are not sent.
type MovieFilter struct {
	Genres    []string
	Keywords  []string
	Producers []string
	Crew      []string
	Cast      []string
	Status    string
	Release   Date
}

// MovieQuery describes one page of /films.
type MovieQuery struct {
	Filter     MovieFilter
	Sort       Sort
	Pagination Pagination
}

// Values returns the query parameters.
func (q MovieQuery) Values() url.Values {
	v := url.Values{}
	q.Pagination.set(v)
	setList(v, "genres", q.Filter.Genres)
	setList(v, "keywords", q.Filter.Keywords)
	setList(v, "producers", q.Filter.Producers)
	setList(v, "crew", q.Filter.Crew)
	setList(v, "cast", q.Filter.Cast)
	if status := strings.TrimSpace(q.Filter.Status); status != "" {
		v.Set("status", status)
	}
	setInt(v, "day", q.Filter.Release.Day)
	setInt(v, "month", q.Filter.Release.Month)
	setInt(v, "year", q.Filter.Release.Year)
	setSort(v, q.Sort)
	return v
}

// Encode returns the canonical query string. Semantically equal queries
// encode identically.
func (q MovieQuery) Encode() string {
	return q.Values().Encode()
}

// WithPage returns a copy of q pointing at page.
func (q MovieQuery) WithPage(page int) MovieQuery {
	q.Pagination.Page = page
	return q
}

// CommentQuery describes one page of a film's or a user's comments.
// Movie takes precedence when both are set.
type CommentQuery struct {
	Movie      string
	User       string
	Sort       Sort
	Pagination Pagination
}

func (q CommentQuery) path() (string, error) {
	switch {
	case strings.TrimSpace(q.Movie) != "":
		return "/films/" + url.PathEscape(q.Movie) + "/assessments", nil
	case strings.TrimSpace(q.User) != "":
		return "/users/" + url.PathEscape(q.User) + "/assessments", nil
	default:
		return "", invalidf("comment query needs a movie or a user")
	}
}

// Values returns the query parameters.
func (q CommentQuery) Values() url.Values {
	v := url.Values{}
	q.Pagination.set(v)
	setSort(v, q.Sort)
	return v
}

// Encode returns the canonical form, including the target collection.
func (q CommentQuery) Encode() string {
	path, _ := q.path()
	return path + "?" + q.Values().Encode()
}

// WithPage returns a copy of q pointing at page.
func (q CommentQuery) WithPage(page int) CommentQuery {
	q.Pagination.Page = page
	return q
}

// UserQuery describes one page of /users.
type UserQuery struct {
	Email      string
	Name       string
	Sort       Sort
	Pagination Pagination
}

// Values returns the query parameters.
func (q UserQuery) Values() url.Values {
	v := url.Values{}
	q.Pagination.set(v)
	if email := strings.TrimSpace(q.Email); email != "" {
		v.Set("email", email)
	}
	if name := strings.TrimSpace(q.Name); name != "" {
		v.Set("name", name)
	}
	setSort(v, q.Sort)
	return v
}

// Encode returns the canonical query string.
func (q UserQuery) Encode() string {
	return q.Values().Encode()
}

// WithPage returns a copy of q pointing at page.
func (q UserQuery) WithPage(page int) UserQuery {
	q.Pagination.Page = page
	return q
}

// FriendshipQuery describes one page of a user's friendships.
type FriendshipQuery struct {
	User       string
	Pagination Pagination
}

// Values returns the query parameters.
func (q FriendshipQuery) Values() url.Values {
	v := url.Values{}
	q.Pagination.set(v)
	return v
}

// Encode returns the canonical form, including the user.
func (q FriendshipQuery) Encode() string {
	return fmt.Sprintf("/users/%s/friendships?%s", url.PathEscape(q.User), q.Values().Encode())
}

// WithPage returns a copy of q pointing at page.
func (q FriendshipQuery) WithPage(page int) FriendshipQuery {
	q.Pagination.Page = page
	return q
}

// setList adds values under key in a stable order, dropping blanks and
// duplicates, so that filter order never changes the request.
func setList(v url.Values, key string, values []string) {
	var clean []string
	for _, s := range values {
		if s = strings.TrimSpace(s); s != "" {
			clean = append(clean, s)
		}
	}
	if len(clean) == 0 {
		return
	}
	slices.Sort(clean)
	v[key] = slices.Compact(clean)
}

func setInt(v url.Values, key string, n int) {
	if n > 0 {
		v.Set(key, strconv.Itoa(n))
	}
}

func setSort(v url.Values, s Sort) {
	if params := s.params(); len(params) > 0 {
		v["sort"] = params
	}
}
