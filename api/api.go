package api

import (
	"context"

	"github.com/s0up4200/marquee/session"
)

// API is the full set of backend operations. *Client implements it; the
// query and tui packages depend on the narrower interfaces below so tests
// can substitute fakes.
type API interface {
	Auth
	MovieService
	UserService
	CommentService
	FriendshipService
}

// Auth manages the session.
type Auth interface {
	Login(ctx context.Context, email, password string) (session.Session, error)
	Logout(ctx context.Context) error
	Session() session.Session
}

// MovieService covers /films.
type MovieService interface {
	ListMovies(ctx context.Context, q MovieQuery) (*Page[Movie], error)
	GetMovie(ctx context.Context, id string) (*Movie, error)
	CreateMovie(ctx context.Context, movie Movie) (*Movie, error)
	UpdateMovie(ctx context.Context, id string, ops []Operation) (*Movie, error)
	DeleteMovie(ctx context.Context, id string) error
}

// UserService covers /users.
type UserService interface {
	ListUsers(ctx context.Context, q UserQuery) (*Page[User], error)
	GetUser(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, nu NewUser) (*User, error)
	UpdateUser(ctx context.Context, email string, ops []Operation) (*User, error)
	DeleteUser(ctx context.Context, email string) error
}

// CommentService covers film and user assessments.
type CommentService interface {
	ListComments(ctx context.Context, q CommentQuery) (*Page[Comment], error)
	GetComment(ctx context.Context, id string) (*Comment, error)
	CreateComment(ctx context.Context, nc NewComment) (*Comment, error)
	UpdateComment(ctx context.Context, id string, ops []Operation) (*Comment, error)
	DeleteComment(ctx context.Context, id string) error
}

// FriendshipService covers /users/{id}/friendships.
type FriendshipService interface {
	ListFriendships(ctx context.Context, q FriendshipQuery) (*Page[Friendship], error)
	GetFriendship(ctx context.Context, user, id string) (*Friendship, error)
	AddFriend(ctx context.Context, user, friend string) (*Friendship, error)
	AcceptFriendship(ctx context.Context, user, id string) (*Friendship, error)
	DeleteFriendship(ctx context.Context, user, id string) error
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)
