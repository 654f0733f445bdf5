package store

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/doroshop/dsadmin/internal/api"
	"github.com/doroshop/dsadmin/internal/domain"
	"github.com/doroshop/dsadmin/internal/logging"
)

// memBackend is a minimal in-process backend for municipalities.
type memBackend struct {
	mu      sync.Mutex
	items   []domain.Municipality
	next    int
	listErr error
	lists   int
	gotQ    []url.Values
}

func (b *memBackend) List(_ context.Context, q url.Values) ([]domain.Municipality, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lists++
	b.gotQ = append(b.gotQ, q)
	if b.listErr != nil {
		return nil, b.listErr
	}
	var out []domain.Municipality
	for _, m := range b.items {
		if st := q.Get("status"); st != "" && m.StatusKey() != st {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (b *memBackend) Create(_ context.Context, body any, _ *api.Upload) (domain.Municipality, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fields := body.(map[string]any)
	b.next++
	m := domain.Municipality{ID: "m" + strconv.Itoa(b.next), Name: fields["name"].(string), Province: fields["province"].(string), IsActive: fields["isActive"].(bool)}
	b.items = append(b.items, m)
	// partial projection, like some create handlers return
	return domain.Municipality{ID: m.ID}, nil
}

func (b *memBackend) Update(_ context.Context, id string, patch any) (domain.Municipality, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.items {
		if b.items[i].ID == id {
			if v, ok := patch.(map[string]any)["isActive"]; ok {
				b.items[i].IsActive = v.(bool)
			}
			return b.items[i], nil
		}
	}
	return domain.Municipality{}, &api.Error{Status: 404, Message: "not found"}
}

func (b *memBackend) Delete(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.items {
		if b.items[i].ID == id {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return nil
		}
	}
	return &api.Error{Status: 404, Message: "not found"}
}

func newStore(b *memBackend) *Store[domain.Municipality] {
	return New[domain.Municipality]("municipalities", b, logging.Nop())
}

func TestLoadingClearsOnFirstSettledFetch(t *testing.T) {
	b := &memBackend{}
	s := newStore(b)
	require.True(t, s.Loading())
	require.True(t, s.Blocking())

	items, err := s.Fetch(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, items)
	require.NotNil(t, items, "an empty snapshot is still a settled fetch")
	require.False(t, s.Loading())
	require.False(t, s.Blocking())
}

func TestLoadingClearsOnFailedFirstFetch(t *testing.T) {
	b := &memBackend{listErr: errors.New("boom")}
	s := newStore(b)
	_, err := s.Fetch(context.Background(), nil)
	require.Error(t, err)
	require.False(t, s.Loading())
	require.ErrorContains(t, s.LastError(), "boom")
}

func TestFailedFetchKeepsPriorCollection(t *testing.T) {
	b := &memBackend{items: []domain.Municipality{{ID: "m1", Name: "Lucena", IsActive: true}}}
	s := newStore(b)
	_, err := s.Fetch(context.Background(), nil)
	require.NoError(t, err)

	b.listErr = errors.New("gateway timeout")
	items, err := s.Fetch(context.Background(), url.Values{"status": {"active"}})
	require.Error(t, err)
	require.Len(t, items, 1)
	require.Len(t, s.Items(), 1)
	require.False(t, s.Blocking())

	b.listErr = nil
	_, err = s.Refresh(context.Background())
	require.NoError(t, err)
	require.Nil(t, s.LastError())
}

type transportFunc func(req *http.Request) *http.Response

func (f transportFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req), nil }

func TestRefusedEnvelopeKeepsPriorCollection(t *testing.T) {
	bodies := []string{
		`{"success":true,"data":[{"_id":"m1","name":"Lucena","isActive":true}]}`,
		`{"success":false,"message":"Database unavailable","data":null}`,
	}
	calls := 0
	client := api.NewClient(api.Options{
		BaseURL: "http://admin.test/api",
		HTTP: &http.Client{Transport: transportFunc(func(req *http.Request) *http.Response {
			body := bodies[min(calls, len(bodies)-1)]
			calls++
			return &http.Response{StatusCode: 200, Header: make(http.Header), Body: io.NopCloser(strings.NewReader(body))}
		})},
		Logger: logging.Nop(),
	})
	s := New[domain.Municipality]("municipalities", api.NewResources(client).Municipalities, logging.Nop())

	_, err := s.Fetch(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, s.Items(), 1)

	items, err := s.Fetch(context.Background(), nil)
	require.ErrorContains(t, err, "Database unavailable")
	require.Len(t, items, 1)
	require.Equal(t, "Lucena", s.Items()[0].Name)
	require.ErrorIs(t, err, s.LastError())
}

func TestCreateThenFetchGrowsByOne(t *testing.T) {
	b := &memBackend{items: []domain.Municipality{{ID: "m0", Name: "Sariaya", IsActive: true}}}
	s := newStore(b)
	ctx := context.Background()
	before, err := s.Fetch(ctx, nil)
	require.NoError(t, err)

	draft := domain.MunicipalityDraft{Name: "Tiaong", Province: "Quezon", IsActive: true}
	_, err = s.Create(ctx, draft.Payload(), nil)
	require.NoError(t, err)
	require.Len(t, s.Items(), len(before), "create never merges locally")

	after, err := s.Refresh(ctx)
	require.NoError(t, err)
	require.Len(t, after, len(before)+1)
	var found bool
	for _, m := range after {
		if domain.DraftFromMunicipality(m) == draft {
			found = true
		}
	}
	require.True(t, found)
}

func TestDeleteThenFetchDropsID(t *testing.T) {
	b := &memBackend{items: []domain.Municipality{{ID: "m1"}, {ID: "m2"}}}
	s := newStore(b)
	ctx := context.Background()
	_, err := s.Fetch(ctx, nil)
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "m1"))
	items, err := s.Refresh(ctx)
	require.NoError(t, err)
	for _, m := range items {
		require.NotEqual(t, "m1", m.ID)
	}
}

func TestRefreshReusesFilters(t *testing.T) {
	b := &memBackend{items: []domain.Municipality{{ID: "m1", IsActive: true}, {ID: "m2"}}}
	s := newStore(b)
	ctx := context.Background()
	items, err := s.Fetch(ctx, url.Values{"status": {"inactive"}})
	require.NoError(t, err)
	require.Len(t, items, 1)

	items, err = s.Refresh(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "inactive", s.Filters().Get("status"))
}

func TestWriteErrorsAreWrapped(t *testing.T) {
	s := newStore(&memBackend{})
	_, err := s.Update(context.Background(), "missing", map[string]any{"isActive": true})
	require.Error(t, err)
	require.Equal(t, 404, api.StatusOf(err))
	require.Equal(t, 404, api.StatusOf(s.Delete(context.Background(), "missing")))
}

func TestItemsIsACopy(t *testing.T) {
	b := &memBackend{items: []domain.Municipality{{ID: "m1", Name: "Lucena"}}}
	s := newStore(b)
	_, err := s.Fetch(context.Background(), nil)
	require.NoError(t, err)
	items := s.Items()
	items[0].Name = "changed"
	require.Equal(t, "Lucena", s.Items()[0].Name)
}
