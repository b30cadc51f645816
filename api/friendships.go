package api

import (
	"context"
	"net/http"
	"strings"
)

// ListFriendships fetches one page of a user's friendships, pending and
// confirmed. A user without friends yields an empty page.
func (c *Client) ListFriendships(ctx context.Context, q FriendshipQuery) (*Page[Friendship], error) {
	if strings.TrimSpace(q.User) == "" {
		return nil, invalidf("user email is required")
	}
	q.Pagination = q.Pagination.orDefault(c.sizes.Friendships)
	r := request{method: http.MethodGet, path: friendshipsPath(q.User), query: q.Values()}
	return listPage[Friendship](ctx, c, r, q.Pagination)
}

// GetFriendship fetches one friendship of user.
func (c *Client) GetFriendship(ctx context.Context, user, id string) (*Friendship, error) {
	if err := requireFriendshipArgs(user, id); err != nil {
		return nil, err
	}
	var f Friendship
	if err := c.call(ctx, request{method: http.MethodGet, path: friendshipsPath(user) + "/" + escape(id)}, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// AddFriend sends a friend request from user to friend.
func (c *Client) AddFriend(ctx context.Context, user, friend string) (*Friendship, error) {
	user, friend = strings.TrimSpace(user), strings.TrimSpace(friend)
	switch {
	case user == "" || friend == "":
		return nil, invalidf("user and friend are required")
	case strings.EqualFold(user, friend):
		return nil, invalidf("a user can not befriend themselves")
	}

	var f Friendship
	r := request{method: http.MethodPost, path: friendshipsPath(user), body: UserRef{Email: friend}}
	if err := c.call(ctx, r, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// AcceptFriendship confirms a pending request addressed to user.
func (c *Client) AcceptFriendship(ctx context.Context, user, id string) (*Friendship, error) {
	if err := requireFriendshipArgs(user, id); err != nil {
		return nil, err
	}
	var f Friendship
	if err := c.call(ctx, request{method: http.MethodPut, path: friendshipsPath(user) + "/" + escape(id)}, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// DeleteFriendship removes a friendship or declines a pending request.
func (c *Client) DeleteFriendship(ctx context.Context, user, id string) error {
	if err := requireFriendshipArgs(user, id); err != nil {
		return err
	}
	return c.call(ctx, request{method: http.MethodDelete, path: friendshipsPath(user) + "/" + escape(id)}, nil)
}

func friendshipsPath(user string) string {
	return "/users/" + escape(user) + "/friendships"
}

func requireFriendshipArgs(user, id string) error {
	if strings.TrimSpace(user) == "" || strings.TrimSpace(id) == "" {
		return invalidf("user and friendship id are required")
	}
	return nil
}
