package query

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/marquee/api"
)

type fakeFriends struct {
	mu          sync.Mutex
	friendships []api.Friendship
	users       map[string]api.User
	listErr     error
	endless     bool
	lookups     int
}

func (f *fakeFriends) ListFriendships(_ context.Context, q api.FriendshipQuery) (*api.Page[api.Friendship], error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &api.Page[api.Friendship]{Content: f.friendships, Pagination: api.PageInfo{HasNext: f.endless}}, nil
}

func (f *fakeFriends) GetUser(_ context.Context, email string) (*api.User, error) {
	f.mu.Lock()
	f.lookups++
	f.mu.Unlock()

	u, ok := f.users[email]
	if !ok {
		return nil, &api.APIError{Kind: api.KindNotFound}
	}
	return &u, nil
}

func TestLoadFriends(t *testing.T) {
	yes, no := true, false
	src := &fakeFriends{
		friendships: []api.Friendship{
			{ID: "f1", User: "ana@example.com", Friend: "bruno@example.com", Confirmed: &yes},
			{ID: "f2", User: "carla@example.com", Friend: "ana@example.com", Confirmed: &no},
			{ID: "f3", User: "ana@example.com", Friend: "ghost@example.com", Confirmed: &yes},
		},
		users: map[string]api.User{
			"bruno@example.com": {Email: "bruno@example.com", Name: "Bruno"},
			"carla@example.com": {Email: "carla@example.com", Name: "Carla"},
		},
	}

	friends, err := LoadFriends(context.Background(), src, zerolog.Nop(), "ana@example.com", FriendOptions{Concurrency: 2})
	require.NoError(t, err)
	require.Len(t, friends, 3)
	assert.Equal(t, 3, src.lookups)

	assert.Equal(t, "Bruno", friends[0].Name())
	assert.Equal(t, "carla@example.com", friends[1].Email)
	assert.Equal(t, "Carla", friends[1].Name())
	assert.Nil(t, friends[2].Profile, "failed lookups are skipped")
	assert.Equal(t, "ghost@example.com", friends[2].Name())

	pending, accepted := SplitFriends(friends)
	require.Len(t, pending, 1)
	assert.Equal(t, "f2", pending[0].ID)
	require.Len(t, accepted, 2)
	assert.Equal(t, "f1", accepted[0].ID)
}

func TestLoadFriendsListFailure(t *testing.T) {
	src := &fakeFriends{listErr: &api.APIError{Kind: api.KindForbidden}}

	_, err := LoadFriends(context.Background(), src, zerolog.Nop(), "ana@example.com", FriendOptions{})
	assert.ErrorIs(t, err, api.ErrForbidden)
}

func TestLoadFriendsPageLimit(t *testing.T) {
	yes := true
	src := &fakeFriends{
		friendships: []api.Friendship{{ID: "f1", User: "ana@example.com", Friend: "bruno@example.com", Confirmed: &yes}},
		users:       map[string]api.User{"bruno@example.com": {Email: "bruno@example.com", Name: "Bruno"}},
		endless:     true,
	}

	friends, err := LoadFriends(context.Background(), src, zerolog.Nop(), "ana@example.com", FriendOptions{MaxPages: 2})
	assert.ErrorIs(t, err, ErrPageLimit)
	require.Len(t, friends, 2, "the pages read before the limit are kept")
	assert.Equal(t, "Bruno", friends[1].Name())
}

func TestLoadFriendsEmpty(t *testing.T) {
	src := &fakeFriends{}

	friends, err := LoadFriends(context.Background(), src, zerolog.Nop(), "ana@example.com", FriendOptions{})
	require.NoError(t, err)
	assert.Empty(t, friends)
	assert.Zero(t, src.lookups)
}
