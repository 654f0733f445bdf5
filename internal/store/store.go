// Package store holds the in-memory copy of one backend collection.
//
// The collection is always the last successfully fetched snapshot. Writes go
// to the backend and are only visible after the next fetch; nothing is merged
// locally because some endpoints answer with partial projections.
package store

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/doroshop/dsadmin/internal/api"
)

// Backend is the request/response boundary of one resource type.
type Backend[T any] interface {
	List(ctx context.Context, filters url.Values) ([]T, error)
	Create(ctx context.Context, body any, up *api.Upload) (T, error)
	Update(ctx context.Context, id string, patch any) (T, error)
	Delete(ctx context.Context, id string) error
}

// Store owns the collection of one resource type. It is constructed once and
// handed to the screens that read it; bubbletea commands may call it from
// their own goroutines.
type Store[T any] struct {
	name    string
	backend Backend[T]
	log     zerolog.Logger

	mu        sync.RWMutex
	items     []T
	filters   url.Values
	loading   bool
	lastErr   error
	fetchedAt time.Time
	// seq numbers fetches; applied is the newest one whose outcome landed.
	seq     uint64
	applied uint64
}

func New[T any](name string, backend Backend[T], log zerolog.Logger) *Store[T] {
	return &Store[T]{
		name:    name,
		backend: backend,
		log:     log.With().Str("store", name).Logger(),
		loading: true,
	}
}

// Name identifies the resource type in logs and messages.
func (s *Store[T]) Name() string { return s.name }

// Fetch replaces the collection with the server snapshot. On failure the prior
// collection is kept and the error returned.
func (s *Store[T]) Fetch(ctx context.Context, filters url.Values) ([]T, error) {
	filters = cloneValues(filters)
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	items, err := s.backend.List(ctx, filters)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if seq < s.applied {
		// a newer fetch already landed
		return s.copyItems(), err
	}
	s.applied = seq
	s.filters = filters
	if err != nil {
		s.lastErr = err
		s.log.Warn().Err(err).Int("kept", len(s.items)).Msg("fetch failed")
		return s.copyItems(), fmt.Errorf("fetch %s: %w", s.name, err)
	}
	if items == nil {
		items = []T{}
	}
	s.items = items
	s.lastErr = nil
	s.fetchedAt = time.Now()
	s.log.Debug().Int("count", len(items)).Msg("fetched")
	return s.copyItems(), nil
}

// Refresh re-fetches with the filters of the previous fetch.
func (s *Store[T]) Refresh(ctx context.Context) ([]T, error) {
	s.mu.RLock()
	filters := cloneValues(s.filters)
	s.mu.RUnlock()
	return s.Fetch(ctx, filters)
}

// Create submits a new record. Callers re-fetch afterwards.
func (s *Store[T]) Create(ctx context.Context, body any, up *api.Upload) (T, error) {
	out, err := s.backend.Create(ctx, body, up)
	if err != nil {
		return out, fmt.Errorf("create %s: %w", s.name, err)
	}
	s.log.Info().Msg("created")
	return out, nil
}

// Update submits a partial patch. Callers re-fetch afterwards.
func (s *Store[T]) Update(ctx context.Context, id string, patch any) (T, error) {
	out, err := s.backend.Update(ctx, id, patch)
	if err != nil {
		return out, fmt.Errorf("update %s %s: %w", s.name, id, err)
	}
	s.log.Info().Str("id", id).Msg("updated")
	return out, nil
}

// Delete removes by identifier. Callers re-fetch afterwards.
func (s *Store[T]) Delete(ctx context.Context, id string) error {
	if err := s.backend.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete %s %s: %w", s.name, id, err)
	}
	s.log.Info().Str("id", id).Msg("deleted")
	return nil
}

// Items returns a copy of the collection.
func (s *Store[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyItems()
}

// Loading is true from construction until the first fetch settles, whatever
// its outcome. Later fetches never set it again.
func (s *Store[T]) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Blocking reports whether the screen should show its blocking spinner: only
// before the first settled fetch and only while there is nothing to show.
func (s *Store[T]) Blocking() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading && len(s.items) == 0
}

// LastError is the error of the most recent fetch, nil after a success.
func (s *Store[T]) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Filters returns the server filters of the last fetch.
func (s *Store[T]) Filters() url.Values {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneValues(s.filters)
}

// FetchedAt is the time of the last successful fetch.
func (s *Store[T]) FetchedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchedAt
}

func (s *Store[T]) copyItems() []T {
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

func cloneValues(v url.Values) url.Values {
	if len(v) == 0 {
		return nil
	}
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
