package query

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/s0up4200/marquee/api"
)

var (
	// ErrSuperseded is returned to a caller whose fetch finished after a
	// newer one was started. Its result was dropped.
	ErrSuperseded = errors.New("superseded by a newer fetch")
	// ErrNoQuery is returned by Refresh before the first Set.
	ErrNoQuery = errors.New("no query set")
	// ErrNoPage is returned by Next and Previous when the current page
	// says there is nothing in that direction.
	ErrNoPage = errors.New("no page in that direction")
)

// Descriptor is a list query that has a canonical string form and can be
// pointed at another page.
type Descriptor[Q any] interface {
	Encode() string
	WithPage(page int) Q
}

// Fetcher loads the page a descriptor names.
type Fetcher[Q any, T any] func(ctx context.Context, q Q) (*api.Page[T], error)

// State is a snapshot of a binding. Page, when set, is always the page of
// Query.
type State[Q any, T any] struct {
	Query Q
	Page  *api.Page[T]
	Err   error
	// Loaded is set once any fetch has finished.
	Loaded    bool
	UpdatedAt time.Time
}

// Binding keeps the latest page of a list query. Setting an equal query is
// a no-op; a fetch that is overtaken by a newer one never overwrites it. A
// failed refresh keeps the page it was refreshing; a failed fetch of a new
// query leaves no page.
type Binding[Q Descriptor[Q], T any] struct {
	fetch  Fetcher[Q, T]
	logger zerolog.Logger
	now    func() time.Time

	mu    sync.Mutex
	state State[Q, T]
	key   string
	set   bool
	seq   uint64
}

// New creates a binding around fetch. Nothing is loaded until Set.
func New[Q Descriptor[Q], T any](fetch Fetcher[Q, T], logger zerolog.Logger) *Binding[Q, T] {
	return &Binding[Q, T]{fetch: fetch, logger: logger, now: time.Now}
}

// Set points the binding at q. It fetches only when q encodes differently
// from the held query or nothing has been loaded yet. The page of the
// previous query is dropped as soon as q differs from it.
func (b *Binding[Q, T]) Set(ctx context.Context, q Q) (State[Q, T], error) {
	key := q.Encode()

	b.mu.Lock()
	if b.set && b.state.Loaded && key == b.key {
		s := b.snapshotLocked()
		b.mu.Unlock()
		return s, s.Err
	}
	if key != b.key {
		b.state = State[Q, T]{Loaded: b.state.Loaded, UpdatedAt: b.state.UpdatedAt}
	}
	b.key, b.set = key, true
	b.state.Query = q
	b.mu.Unlock()

	return b.load(ctx, q)
}

// Refresh refetches the held query.
func (b *Binding[Q, T]) Refresh(ctx context.Context) (State[Q, T], error) {
	b.mu.Lock()
	if !b.set {
		b.mu.Unlock()
		return State[Q, T]{}, ErrNoQuery
	}
	q := b.state.Query
	b.mu.Unlock()

	return b.load(ctx, q)
}

// Next moves to the following page when the current one has a successor.
func (b *Binding[Q, T]) Next(ctx context.Context) (State[Q, T], error) {
	return b.step(ctx, 1)
}

// Previous moves to the preceding page when the current one has one.
func (b *Binding[Q, T]) Previous(ctx context.Context) (State[Q, T], error) {
	return b.step(ctx, -1)
}

func (b *Binding[Q, T]) step(ctx context.Context, delta int) (State[Q, T], error) {
	b.mu.Lock()
	page, q := b.state.Page, b.state.Query
	b.mu.Unlock()

	if page == nil {
		return b.Snapshot(), ErrNoPage
	}
	if (delta > 0 && !page.Pagination.HasNext) || (delta < 0 && !page.Pagination.HasPrevious) {
		return b.Snapshot(), ErrNoPage
	}
	return b.Set(ctx, q.WithPage(page.Pagination.Number+delta))
}

// Mutate runs fn and refetches the held query when fn succeeds, so the page
// reflects the write. fn's error is returned as is; a failed refetch is
// returned wrapped.
func (b *Binding[Q, T]) Mutate(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}
	if _, err := b.Refresh(ctx); err != nil && !errors.Is(err, ErrNoQuery) {
		return fmt.Errorf("refresh after write: %w", err)
	}
	return nil
}

// Snapshot returns a copy of the current state.
func (b *Binding[Q, T]) Snapshot() State[Q, T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

func (b *Binding[Q, T]) snapshotLocked() State[Q, T] {
	s := b.state
	if s.Page != nil {
		page := *s.Page
		page.Content = slices.Clone(page.Content)
		s.Page = &page
	}
	return s
}

func (b *Binding[Q, T]) load(ctx context.Context, q Q) (State[Q, T], error) {
	b.mu.Lock()
	b.seq++
	seq := b.seq
	b.mu.Unlock()

	page, err := b.fetch(ctx, q)

	b.mu.Lock()
	defer b.mu.Unlock()

	if seq != b.seq {
		b.logger.Debug().
			Uint64("seq", seq).
			Uint64("latest", b.seq).
			Str("query", q.Encode()).
			Msg("Discarding superseded fetch")
		return b.snapshotLocked(), ErrSuperseded
	}

	b.state.Query = q
	b.state.Loaded = true
	b.state.UpdatedAt = b.now()
	b.state.Err = err
	if err == nil {
		b.state.Page = page
	} else {
		b.logger.Debug().Err(err).Str("query", q.Encode()).Msg("Fetch failed")
	}
	return b.snapshotLocked(), err
}
