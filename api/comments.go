package api

import (
	"context"
	"net/http"
	"strings"
)

const (
	minRating = 1
	maxRating = 10
)

// ListComments fetches one page of a film's or a user's comments.
func (c *Client) ListComments(ctx context.Context, q CommentQuery) (*Page[Comment], error) {
	path, err := q.path()
	if err != nil {
		return nil, err
	}
	q.Pagination = q.Pagination.orDefault(c.sizes.Comments)
	r := request{method: http.MethodGet, path: path, query: q.Values()}
	return listPage[Comment](ctx, c, r, q.Pagination)
}

// GetComment fetches a single comment.
func (c *Client) GetComment(ctx context.Context, id string) (*Comment, error) {
	if strings.TrimSpace(id) == "" {
		return nil, invalidf("comment id is required")
	}
	var comment Comment
	if err := c.call(ctx, request{method: http.MethodGet, path: "/films/assessments/" + escape(id)}, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// CreateComment posts a review. The author must be the session user.
func (c *Client) CreateComment(ctx context.Context, nc NewComment) (*Comment, error) {
	if err := nc.validate(); err != nil {
		return nil, err
	}

	payload := Comment{
		Rating:  nc.Rating,
		User:    &UserRef{Email: strings.TrimSpace(nc.User)},
		Film:    &FilmRef{ID: strings.TrimSpace(nc.Film)},
		Comment: nc.Comment,
	}

	var created Comment
	if err := c.call(ctx, request{method: http.MethodPost, path: "/films/assessments", body: payload}, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateComment applies a partial update to a comment.
func (c *Client) UpdateComment(ctx context.Context, id string, ops []Operation) (*Comment, error) {
	if strings.TrimSpace(id) == "" {
		return nil, invalidf("comment id is required")
	}
	if len(ops) == 0 {
		return nil, invalidf("no changes to apply")
	}
	var updated Comment
	if err := c.call(ctx, request{method: http.MethodPatch, path: "/films/assessments/" + escape(id), body: ops}, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteComment removes a comment.
func (c *Client) DeleteComment(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return invalidf("comment id is required")
	}
	return c.call(ctx, request{method: http.MethodDelete, path: "/films/assessments/" + escape(id)}, nil)
}

func (nc NewComment) validate() error {
	switch {
	case strings.TrimSpace(nc.Film) == "":
		return invalidf("film is required")
	case strings.TrimSpace(nc.User) == "":
		return invalidf("user is required")
	case nc.Rating < minRating || nc.Rating > maxRating:
		return invalidf("rating must be between %d and %d, got %d", minRating, maxRating, nc.Rating)
	}
	return nil
}
