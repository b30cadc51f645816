package query

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/s0up4200/marquee/api"
)

// ErrNotLoaded is returned by Update before a successful Load.
var ErrNotLoaded = errors.New("nothing loaded")

// EntityState is a snapshot of an Entity.
type EntityState[T any] struct {
	ID        string
	Value     *T
	Err       error
	UpdatedAt time.Time
}

// Entity keeps one backend resource, such as a film or a profile.
type Entity[T any] struct {
	get    func(ctx context.Context, id string) (*T, error)
	update func(ctx context.Context, id string, ops []api.Operation) (*T, error)
	logger zerolog.Logger
	now    func() time.Time

	mu    sync.Mutex
	state EntityState[T]
	seq   uint64
}

// NewEntity creates an entity binding from a getter and a patcher.
func NewEntity[T any](
	get func(ctx context.Context, id string) (*T, error),
	update func(ctx context.Context, id string, ops []api.Operation) (*T, error),
	logger zerolog.Logger,
) *Entity[T] {
	return &Entity[T]{get: get, update: update, logger: logger, now: time.Now}
}

// Movie binds a single film.
func Movie(svc api.MovieService, logger zerolog.Logger) *Entity[api.Movie] {
	return NewEntity(svc.GetMovie, svc.UpdateMovie, logger)
}

// User binds a single profile.
func User(svc api.UserService, logger zerolog.Logger) *Entity[api.User] {
	return NewEntity(svc.GetUser, svc.UpdateUser, logger)
}

// Load fetches id, replacing whatever was held.
func (e *Entity[T]) Load(ctx context.Context, id string) (*T, error) {
	id = strings.TrimSpace(id)

	e.mu.Lock()
	e.seq++
	seq := e.seq
	e.mu.Unlock()

	value, err := e.get(ctx, id)
	return e.store(seq, id, value, err)
}

// Update applies ops to the loaded entity and holds the backend's result.
// A failed update leaves the held value unchanged.
func (e *Entity[T]) Update(ctx context.Context, ops []api.Operation) (*T, error) {
	e.mu.Lock()
	if e.state.Value == nil {
		e.mu.Unlock()
		return nil, ErrNotLoaded
	}
	id := e.state.ID
	e.seq++
	seq := e.seq
	e.mu.Unlock()

	value, err := e.update(ctx, id, ops)
	if err != nil {
		e.logger.Debug().Err(err).Str("id", id).Msg("Update failed")
		return nil, err
	}
	return e.store(seq, id, value, nil)
}

// Snapshot returns a copy of the current state.
func (e *Entity[T]) Snapshot() EntityState[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Entity[T]) store(seq uint64, id string, value *T, err error) (*T, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if seq != e.seq {
		e.logger.Debug().Str("id", id).Msg("Discarding superseded entity result")
		return nil, ErrSuperseded
	}

	e.state.ID = id
	e.state.Err = err
	e.state.UpdatedAt = e.now()
	if err != nil {
		e.state.Value = nil
		return nil, err
	}
	e.state.Value = value
	return value, nil
}
