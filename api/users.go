package api

import (
	"context"
	"net/http"
	"strings"
)

// ListUsers fetches one page of users.
func (c *Client) ListUsers(ctx context.Context, q UserQuery) (*Page[User], error) {
	q.Pagination = q.Pagination.orDefault(c.sizes.Users)
	r := request{method: http.MethodGet, path: "/users", query: q.Values()}
	return listPage[User](ctx, c, r, q.Pagination)
}

// GetUser fetches a profile by email.
func (c *Client) GetUser(ctx context.Context, email string) (*User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, invalidf("user email is required")
	}
	var user User
	if err := c.call(ctx, request{method: http.MethodGet, path: "/users/" + escape(email)}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser registers a new account. No session is needed.
func (c *Client) CreateUser(ctx context.Context, nu NewUser) (*User, error) {
	switch {
	case strings.TrimSpace(nu.Email) == "":
		return nil, invalidf("email is required")
	case strings.TrimSpace(nu.Name) == "":
		return nil, invalidf("name is required")
	case nu.Password == "":
		return nil, invalidf("password is required")
	case nu.Birthday.IsZero():
		return nil, invalidf("birthday is required")
	}

	country := nu.Country
	if country == "" {
		country = c.userDefaults.Country
	}
	picture := nu.Picture
	if picture == "" {
		picture = c.userDefaults.Picture
	}
	birthday := nu.Birthday

	payload := User{
		Email:    strings.TrimSpace(nu.Email),
		Name:     strings.TrimSpace(nu.Name),
		Password: nu.Password,
		Country:  country,
		Picture:  picture,
		Birthday: &birthday,
		Roles:    []string{"ROLE_USER"},
	}

	var created User
	r := request{method: http.MethodPost, path: "/users", body: payload, anonymous: true}
	if err := c.call(ctx, r, &created); err != nil {
		return nil, err
	}
	created.Password = ""
	return &created, nil
}

// UpdateUser applies a partial update to a profile and returns the result.
func (c *Client) UpdateUser(ctx context.Context, email string, ops []Operation) (*User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, invalidf("user email is required")
	}
	if len(ops) == 0 {
		return nil, invalidf("no changes to apply")
	}
	var updated User
	if err := c.call(ctx, request{method: http.MethodPatch, path: "/users/" + escape(email), body: ops}, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteUser removes an account. Only the account owner may do this.
func (c *Client) DeleteUser(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return invalidf("user email is required")
	}
	return c.call(ctx, request{method: http.MethodDelete, path: "/users/" + escape(email)}, nil)
}
