package api

import (
	"context"
	"net/http"
	"strings"
)

// ListMovies fetches one page of films.
func (c *Client) ListMovies(ctx context.Context, q MovieQuery) (*Page[Movie], error) {
	q.Pagination = q.Pagination.orDefault(c.sizes.Movies)
	r := request{method: http.MethodGet, path: "/films", query: q.Values()}
	return listPage[Movie](ctx, c, r, q.Pagination)
}

// GetMovie fetches a single film.
func (c *Client) GetMovie(ctx context.Context, id string) (*Movie, error) {
	if strings.TrimSpace(id) == "" {
		return nil, invalidf("movie id is required")
	}
	var movie Movie
	if err := c.call(ctx, request{method: http.MethodGet, path: "/films/" + escape(id)}, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

// CreateMovie inserts a film. Requires an admin session.
func (c *Client) CreateMovie(ctx context.Context, movie Movie) (*Movie, error) {
	if strings.TrimSpace(movie.Title) == "" {
		return nil, invalidf("movie title is required")
	}
	movie.ID = ""
	var created Movie
	if err := c.call(ctx, request{method: http.MethodPost, path: "/films", body: movie}, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateMovie applies a partial update to a film and returns the result.
func (c *Client) UpdateMovie(ctx context.Context, id string, ops []Operation) (*Movie, error) {
	if strings.TrimSpace(id) == "" {
		return nil, invalidf("movie id is required")
	}
	if len(ops) == 0 {
		return nil, invalidf("no changes to apply")
	}
	var updated Movie
	if err := c.call(ctx, request{method: http.MethodPatch, path: "/films/" + escape(id), body: ops}, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteMovie removes a film. Requires an admin session.
func (c *Client) DeleteMovie(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return invalidf("movie id is required")
	}
	return c.call(ctx, request{method: http.MethodDelete, path: "/films/" + escape(id)}, nil)
}
