package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/marquee/api"
)

// pagedMovies serves titles in pages of size, counting calls.
type pagedMovies struct {
	titles []string
	size   int
	calls  atomic.Int32
}

func (p *pagedMovies) fetch(_ context.Context, q api.MovieQuery) (*api.Page[api.Movie], error) {
	p.calls.Add(1)
	start := min(q.Pagination.Page*p.size, len(p.titles))
	end := min(start+p.size, len(p.titles))

	page := &api.Page[api.Movie]{Pagination: api.PageInfo{
		Number:      q.Pagination.Page,
		Size:        p.size,
		HasNext:     end < len(p.titles),
		HasPrevious: q.Pagination.Page > 0,
	}}
	for _, title := range p.titles[start:end] {
		page.Content = append(page.Content, api.Movie{Title: title})
	}
	return page, nil
}

func TestSetSkipsUnchangedDescriptor(t *testing.T) {
	src := &pagedMovies{titles: []string{"Alien", "Heat"}, size: 10}
	b := New(Fetcher[api.MovieQuery, api.Movie](src.fetch), zerolog.Nop())
	ctx := context.Background()

	_, err := b.Set(ctx, api.MovieQuery{Filter: api.MovieFilter{Genres: []string{"Drama", "Horror"}}})
	require.NoError(t, err)

	// same filter, different order: same descriptor
	state, err := b.Set(ctx, api.MovieQuery{Filter: api.MovieFilter{Genres: []string{"Horror", "Drama"}}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, src.calls.Load())
	assert.Len(t, state.Page.Content, 2)

	_, err = b.Set(ctx, api.MovieQuery{Filter: api.MovieFilter{Genres: []string{"Horror"}}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, src.calls.Load())

	_, err = b.Refresh(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, src.calls.Load())
}

func TestRefreshBeforeSet(t *testing.T) {
	src := &pagedMovies{size: 10}
	b := New(Fetcher[api.MovieQuery, api.Movie](src.fetch), zerolog.Nop())

	_, err := b.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNoQuery)
	assert.Zero(t, src.calls.Load())
}

func TestNextAndPrevious(t *testing.T) {
	src := &pagedMovies{titles: []string{"a", "b", "c", "d", "e"}, size: 2}
	b := New(Fetcher[api.MovieQuery, api.Movie](src.fetch), zerolog.Nop())
	ctx := context.Background()

	_, err := b.Previous(ctx)
	assert.ErrorIs(t, err, ErrNoPage, "nothing loaded yet")

	state, err := b.Set(ctx, api.MovieQuery{})
	require.NoError(t, err)
	assert.False(t, state.Page.Pagination.HasPrevious)

	_, err = b.Previous(ctx)
	assert.ErrorIs(t, err, ErrNoPage)

	state, err = b.Next(ctx)
	require.NoError(t, err)
	state, err = b.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, state.Query.Pagination.Page)
	assert.Equal(t, "e", state.Page.Content[0].Title)

	_, err = b.Next(ctx)
	assert.ErrorIs(t, err, ErrNoPage)

	state, err = b.Previous(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, state.Page.Pagination.Number)
}

func TestSupersededFetchIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	fetch := func(ctx context.Context, q api.MovieQuery) (*api.Page[api.Movie], error) {
		genre := q.Filter.Genres[0]
		if genre == "slow" {
			close(started)
			<-release
		}
		return &api.Page[api.Movie]{Content: []api.Movie{{Title: genre}}}, nil
	}
	b := New(Fetcher[api.MovieQuery, api.Movie](fetch), zerolog.Nop())
	ctx := context.Background()

	var wg sync.WaitGroup
	var slowErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, slowErr = b.Set(ctx, api.MovieQuery{Filter: api.MovieFilter{Genres: []string{"slow"}}})
	}()
	<-started

	state, err := b.Set(ctx, api.MovieQuery{Filter: api.MovieFilter{Genres: []string{"fast"}}})
	require.NoError(t, err)
	assert.Equal(t, "fast", state.Page.Content[0].Title)

	close(release)
	wg.Wait()

	assert.ErrorIs(t, slowErr, ErrSuperseded)
	final := b.Snapshot()
	assert.Equal(t, "fast", final.Page.Content[0].Title)
	assert.Equal(t, []string{"fast"}, final.Query.Filter.Genres)
}

func TestFailedRefreshKeepsPage(t *testing.T) {
	fail := errors.New("boom")
	var broken atomic.Bool
	fetch := func(ctx context.Context, q api.MovieQuery) (*api.Page[api.Movie], error) {
		if broken.Load() {
			return nil, fail
		}
		return &api.Page[api.Movie]{Content: []api.Movie{{Title: "Alien"}}}, nil
	}
	b := New(Fetcher[api.MovieQuery, api.Movie](fetch), zerolog.Nop())
	ctx := context.Background()

	_, err := b.Set(ctx, api.MovieQuery{})
	require.NoError(t, err)

	broken.Store(true)
	state, err := b.Refresh(ctx)
	assert.ErrorIs(t, err, fail)
	assert.ErrorIs(t, state.Err, fail)
	require.NotNil(t, state.Page)
	assert.Equal(t, "Alien", state.Page.Content[0].Title)
}

func TestFailedSetLeavesNoPage(t *testing.T) {
	fail := errors.New("boom")
	fetch := func(ctx context.Context, q api.MovieQuery) (*api.Page[api.Movie], error) {
		if len(q.Filter.Genres) > 0 {
			return nil, fail
		}
		return &api.Page[api.Movie]{
			Content:    []api.Movie{{Title: "Alien"}},
			Pagination: api.PageInfo{Number: 0, HasNext: true},
		}, nil
	}
	b := New(Fetcher[api.MovieQuery, api.Movie](fetch), zerolog.Nop())
	ctx := context.Background()

	_, err := b.Set(ctx, api.MovieQuery{})
	require.NoError(t, err)

	horror := api.MovieQuery{Filter: api.MovieFilter{Genres: []string{"Horror"}}}
	state, err := b.Set(ctx, horror)
	assert.ErrorIs(t, err, fail)
	assert.Equal(t, horror, state.Query)
	assert.Nil(t, state.Page, "the page of the previous query must not show up under the new one")
	assert.Nil(t, b.Snapshot().Page)

	_, err = b.Next(ctx)
	assert.ErrorIs(t, err, ErrNoPage)

	// the failed query is retried by Refresh, not by setting it again
	state, err = b.Set(ctx, horror)
	assert.ErrorIs(t, err, fail)
	assert.Nil(t, state.Page)

	state, err = b.Set(ctx, api.MovieQuery{})
	require.NoError(t, err)
	require.NotNil(t, state.Page)
	assert.NoError(t, state.Err)
}

func TestSnapshotIsACopy(t *testing.T) {
	src := &pagedMovies{titles: []string{"Alien"}, size: 10}
	b := New(Fetcher[api.MovieQuery, api.Movie](src.fetch), zerolog.Nop())

	state, err := b.Set(context.Background(), api.MovieQuery{})
	require.NoError(t, err)
	state.Page.Content[0].Title = "changed"

	assert.Equal(t, "Alien", b.Snapshot().Page.Content[0].Title)
}

func TestMutateRefetchesOnlyOnSuccess(t *testing.T) {
	src := &pagedMovies{titles: []string{"Alien"}, size: 10}
	b := New(Fetcher[api.MovieQuery, api.Movie](src.fetch), zerolog.Nop())
	ctx := context.Background()

	_, err := b.Set(ctx, api.MovieQuery{})
	require.NoError(t, err)

	fail := errors.New("write rejected")
	err = b.Mutate(ctx, func(context.Context) error { return fail })
	assert.ErrorIs(t, err, fail)
	assert.EqualValues(t, 1, src.calls.Load())

	src.titles = append(src.titles, "Heat")
	require.NoError(t, b.Mutate(ctx, func(context.Context) error { return nil }))
	assert.EqualValues(t, 2, src.calls.Load())
	assert.Len(t, b.Snapshot().Page.Content, 2)
}

func TestAll(t *testing.T) {
	src := &pagedMovies{titles: []string{"a", "b", "c", "d", "e"}, size: 2}
	fetch := Fetcher[api.MovieQuery, api.Movie](src.fetch)
	ctx := context.Background()

	movies, err := All(ctx, fetch, api.MovieQuery{}, 0)
	require.NoError(t, err)
	assert.Len(t, movies, 5)
	assert.EqualValues(t, 3, src.calls.Load())

	fromSecond, err := All(ctx, fetch, api.MovieQuery{Pagination: api.Pagination{Page: 1}}, 0)
	require.NoError(t, err)
	assert.Len(t, fromSecond, 3)

	limited, err := All(ctx, fetch, api.MovieQuery{}, 2)
	assert.ErrorIs(t, err, ErrPageLimit)
	assert.Len(t, limited, 4)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = All(cancelled, fetch, api.MovieQuery{}, 0)
	assert.ErrorIs(t, err, context.Canceled)
}
