package console

import (
	"context"
	"net/url"
	"strings"

	"github.com/doroshop/dsadmin/internal/domain"
	"github.com/doroshop/dsadmin/internal/modal"
	"github.com/doroshop/dsadmin/internal/store"
	"github.com/doroshop/dsadmin/internal/views"
)

// Screen is the part of every screen the presentation layer drives
// uniformly.
type Screen interface {
	Name() string
	Query() url.Values
	Load(ctx context.Context, q url.Values) error
	Blocking() bool
	Filter() views.Filter
	SetQuery(q string)
	SetStatus(status string) bool
	CycleStatus() (string, bool)
	Statuses() []string
}

type screen[T domain.Resource, D any] struct {
	name         string
	store        *store.Store[T]
	modal        *modal.Controller[T, D]
	filter       views.Filter
	statuses     []string
	serverStatus bool
}

func (s *screen[T, D]) Name() string { return s.name }

func (s *screen[T, D]) Store() *store.Store[T] { return s.store }

func (s *screen[T, D]) Modal() *modal.Controller[T, D] { return s.modal }

func (s *screen[T, D]) Filter() views.Filter { return s.filter }

func (s *screen[T, D]) Blocking() bool { return s.store.Blocking() }

// Statuses lists the status filter values, starting with views.StatusAll.
// Screens without a status have none.
func (s *screen[T, D]) Statuses() []string {
	if len(s.statuses) == 0 {
		return nil
	}
	return append([]string{views.StatusAll}, s.statuses...)
}

// SetQuery changes the text search. Search is always local.
func (s *screen[T, D]) SetQuery(q string) { s.filter.Query = q }

// SetStatus changes the status filter and reports whether the collection
// has to be fetched again because the backend does the filtering.
func (s *screen[T, D]) SetStatus(status string) bool {
	status = strings.TrimSpace(status)
	if status == "" {
		status = views.StatusAll
	}
	if status == s.status() {
		return false
	}
	s.filter.Status = status
	return s.serverStatus
}

func (s *screen[T, D]) status() string {
	if s.filter.Status == "" {
		return views.StatusAll
	}
	return s.filter.Status
}

// CycleStatus moves to the next status filter value.
func (s *screen[T, D]) CycleStatus() (string, bool) {
	opts := s.Statuses()
	if len(opts) == 0 {
		return "", false
	}
	next := opts[0]
	for i, o := range opts {
		if o == s.status() {
			next = opts[(i+1)%len(opts)]
			break
		}
	}
	return next, s.SetStatus(next)
}

// Load fetches the collection with server-side filters taken from Query.
// Query reads the filter, so callers loading off the event loop capture it
// first.
func (s *screen[T, D]) Load(ctx context.Context, q url.Values) error {
	_, err := s.store.Fetch(ctx, q)
	return err
}

// Query is the server-side part of the current filter.
func (s *screen[T, D]) Query() url.Values {
	if !s.serverStatus || s.status() == views.StatusAll {
		return nil
	}
	return url.Values{"status": {s.status()}}
}

func (s *screen[T, D]) refresh(ctx context.Context) error {
	_, err := s.store.Refresh(ctx)
	return err
}

// Visible is the collection after search and status filtering.
func (s *screen[T, D]) Visible() []T {
	return views.Apply(s.store.Items(), s.filter)
}

// Find looks an item up in the current snapshot.
func (s *screen[T, D]) Find(id string) (T, bool) {
	return views.Find(s.store.Items(), id)
}
