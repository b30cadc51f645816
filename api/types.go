package api

import (
	"fmt"
	"time"
)

// Date is the backend's calendar date, sent as separate day/month/year fields.
type Date struct {
	Day   int `json:"day,omitempty"`
	Month int `json:"month,omitempty"`
	Year  int `json:"year,omitempty"`
}

// DateOf converts t to a Date.
func DateOf(t time.Time) Date {
	return Date{Day: t.Day(), Month: int(t.Month()), Year: t.Year()}
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return DateOf(t), nil
}

// IsZero reports whether no field is set.
func (d Date) IsZero() bool {
	return d.Day == 0 && d.Month == 0 && d.Year == 0
}

// String renders the date the way the web client did: day/month/year.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d/%d/%d", d.Day, d.Month, d.Year)
}

// Resource is a link attached to a film (poster, backdrop, trailer, ...).
type Resource struct {
	URL  string `json:"url"`
	Type string `json:"type,omitempty"`
}

// Collection groups films of the same saga.
type Collection struct {
	Name      string     `json:"name,omitempty"`
	Resources []Resource `json:"resources,omitempty"`
}

// Person is a cast or crew member.
type Person struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Country   string `json:"country,omitempty"`
	Picture   string `json:"picture,omitempty"`
	Biography string `json:"biography,omitempty"`
	Birthday  *Date  `json:"birthday,omitempty"`
	Deathday  *Date  `json:"deathday,omitempty"`
}

// Cast is a person credited as an actor.
type Cast struct {
	Person
	Character string `json:"character,omitempty"`
}

// Crew is a person credited behind the camera.
type Crew struct {
	Person
	Job string `json:"job,omitempty"`
}

// Producer is a production company.
type Producer struct {
	Name    string `json:"name,omitempty"`
	Logo    string `json:"logo,omitempty"`
	Country string `json:"country,omitempty"`
}

// Movie mirrors the backend's film document.
type Movie struct {
	ID          string      `json:"id,omitempty"`
	Title       string      `json:"title,omitempty"`
	Overview    string      `json:"overview,omitempty"`
	Tagline     string      `json:"tagline,omitempty"`
	Collection  *Collection `json:"collection,omitempty"`
	Genres      []string    `json:"genres,omitempty"`
	ReleaseDate *Date       `json:"releaseDate,omitempty"`
	Keywords    []string    `json:"keywords,omitempty"`
	Producers   []Producer  `json:"producers,omitempty"`
	Crew        []Crew      `json:"crew,omitempty"`
	Cast        []Cast      `json:"cast,omitempty"`
	Resources   []Resource  `json:"resources,omitempty"`
	Budget      int64       `json:"budget,omitempty"`
	Status      string      `json:"status,omitempty"`
	Runtime     int         `json:"runtime,omitempty"`
	Revenue     int64       `json:"revenue,omitempty"`
}

// Year returns the release year, or 0 when unknown.
func (m Movie) Year() int {
	if m.ReleaseDate == nil {
		return 0
	}
	return m.ReleaseDate.Year
}

// Poster returns the first resource of type POSTER, if any.
func (m Movie) Poster() string {
	for _, r := range m.Resources {
		if r.Type == "POSTER" {
			return r.URL
		}
	}
	return ""
}

// User mirrors the backend's user document. Email is the identifier.
type User struct {
	Email    string   `json:"email"`
	Name     string   `json:"name,omitempty"`
	Country  string   `json:"country,omitempty"`
	Picture  string   `json:"picture,omitempty"`
	Birthday *Date    `json:"birthday,omitempty"`
	Password string   `json:"password,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// DisplayName returns the name, falling back to the email.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// NewUser is the registration payload.
type NewUser struct {
	Email    string
	Name     string
	Password string
	Country  string
	Picture  string
	Birthday Date
}

// UserRef is the embedded user in a comment.
type UserRef struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// FilmRef is the embedded film in a comment.
type FilmRef struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// Comment is a user's rating and review of a film (an "assessment").
type Comment struct {
	ID      string   `json:"id,omitempty"`
	Rating  int      `json:"rating"`
	User    *UserRef `json:"user,omitempty"`
	Film    *FilmRef `json:"film,omitempty"`
	Comment string   `json:"comment,omitempty"`
}

// NewComment is the payload for posting a review.
type NewComment struct {
	Film    string
	User    string
	Rating  int
	Comment string
}

// Friendship links two users. It is pending until the friend confirms it.
type Friendship struct {
	ID        string `json:"id,omitempty"`
	User      string `json:"user"`
	Friend    string `json:"friend"`
	Confirmed *bool  `json:"confirmed,omitempty"`
	Since     *Date  `json:"since,omitempty"`
}

// IsConfirmed reports whether the friend accepted the request.
func (f Friendship) IsConfirmed() bool {
	return f.Confirmed != nil && *f.Confirmed
}

// Other returns the party of the friendship that is not me.
func (f Friendship) Other(me string) string {
	if f.User == me {
		return f.Friend
	}
	return f.User
}

// PageInfo carries the navigation flags of a page.
type PageInfo struct {
	HasNext       bool  `json:"hasNext"`
	HasPrevious   bool  `json:"hasPrevious"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
	TotalPages    int   `json:"totalPages"`
	TotalElements int64 `json:"totalElements"`
}

// Page is one offset-paginated slice of a remote collection.
type Page[T any] struct {
	Content    []T      `json:"content"`
	Pagination PageInfo `json:"pagination"`
}

// springPage is the wire shape of a Spring Data page.
type springPage[T any] struct {
	Content       []T   `json:"content"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
	TotalPages    int   `json:"totalPages"`
	TotalElements int64 `json:"totalElements"`
}

func (p springPage[T]) toPage() *Page[T] {
	content := p.Content
	if content == nil {
		content = []T{}
	}
	return &Page[T]{
		Content: content,
		Pagination: PageInfo{
			HasNext:       !p.Last,
			HasPrevious:   !p.First,
			Number:        p.Number,
			Size:          p.Size,
			TotalPages:    p.TotalPages,
			TotalElements: p.TotalElements,
		},
	}
}

func emptyPage[T any](pagination Pagination) *Page[T] {
	return &Page[T]{
		Content:    []T{},
		Pagination: PageInfo{
			HasPrevious: pagination.Page > 0,
			Number:      pagination.Page,
			Size:        pagination.Size,
		},
	}
}
