package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/s0up4200/marquee/api"
	"github.com/s0up4200/marquee/query"
)

// Messages

type moviesMsg struct {
	state query.State[api.MovieQuery, api.Movie]
	err   error
}

type movieMsg struct {
	movie *api.Movie
	err   error
}

type commentsMsg struct {
	state query.State[api.CommentQuery, api.Comment]
	err   error
}

// Commands

func setMovies(ctx context.Context, b *query.Binding[api.MovieQuery, api.Movie], q api.MovieQuery) tea.Cmd {
	return func() tea.Msg {
		state, err := b.Set(ctx, q)
		return moviesMsg{state: state, err: err}
	}
}

func stepMovies(ctx context.Context, b *query.Binding[api.MovieQuery, api.Movie], delta int) tea.Cmd {
	return func() tea.Msg {
		var (
			state query.State[api.MovieQuery, api.Movie]
			err   error
		)
		if delta > 0 {
			state, err = b.Next(ctx)
		} else {
			state, err = b.Previous(ctx)
		}
		return moviesMsg{state: state, err: err}
	}
}

func refreshMovies(ctx context.Context, b *query.Binding[api.MovieQuery, api.Movie]) tea.Cmd {
	return func() tea.Msg {
		state, err := b.Refresh(ctx)
		return moviesMsg{state: state, err: err}
	}
}

func loadMovie(ctx context.Context, e *query.Entity[api.Movie], id string) tea.Cmd {
	return func() tea.Msg {
		movie, err := e.Load(ctx, id)
		return movieMsg{movie: movie, err: err}
	}
}

func setComments(ctx context.Context, c *query.Comments, q api.CommentQuery) tea.Cmd {
	return func() tea.Msg {
		state, err := c.Set(ctx, q)
		return commentsMsg{state: state, err: err}
	}
}

func stepComments(ctx context.Context, c *query.Comments, delta int) tea.Cmd {
	return func() tea.Msg {
		var (
			state query.State[api.CommentQuery, api.Comment]
			err   error
		)
		if delta > 0 {
			state, err = c.Next(ctx)
		} else {
			state, err = c.Previous(ctx)
		}
		return commentsMsg{state: state, err: err}
	}
}

func refreshComments(ctx context.Context, c *query.Comments) tea.Cmd {
	return func() tea.Msg {
		state, err := c.Refresh(ctx)
		return commentsMsg{state: state, err: err}
	}
}
