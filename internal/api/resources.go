package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"

	"github.com/doroshop/dsadmin/internal/domain"
)

// Resource paths under the API root.
const (
	PathCategories     = "categories"
	PathMunicipalities = "municipalities"
	PathRefunds        = "refunds"
	PathPlans          = "plans"
	PathSubscriptions  = "subscriptions"
)

// Upload is an opaque file attached to a create request.
type Upload struct {
	Field    string
	Filename string
	Content  io.Reader
}

// Collection is the REST surface of one resource type.
type Collection[T any] struct {
	c    *Client
	path string
}

func NewCollection[T any](c *Client, path string) *Collection[T] {
	return &Collection[T]{c: c, path: path}
}

// List fetches the whole collection, optionally filtered server side.
func (r *Collection[T]) List(ctx context.Context, filters url.Values) ([]T, error) {
	var out []T
	if err := r.c.do(ctx, request{method: http.MethodGet, path: r.path, query: filters}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create posts body as JSON, or as multipart form data when up is set.
func (r *Collection[T]) Create(ctx context.Context, body any, up *Upload) (T, error) {
	var out T
	if up == nil {
		err := r.c.doJSON(ctx, http.MethodPost, r.path, body, &out)
		return out, err
	}
	payload, contentType, err := multipartBody(body, up)
	if err != nil {
		return out, err
	}
	err = r.c.do(ctx, request{method: http.MethodPost, path: r.path, body: payload, contentType: contentType}, &out)
	return out, err
}

// Update sends a partial patch.
func (r *Collection[T]) Update(ctx context.Context, id string, patch any) (T, error) {
	var out T
	err := r.c.doJSON(ctx, http.MethodPut, r.itemPath(id), patch, &out)
	return out, err
}

func (r *Collection[T]) Delete(ctx context.Context, id string) error {
	return r.c.do(ctx, request{method: http.MethodDelete, path: r.itemPath(id)}, nil)
}

func (r *Collection[T]) itemPath(id string) string {
	return r.path + "/" + url.PathEscape(id)
}

// Refunds adds the refund decision endpoints.
type Refunds struct {
	*Collection[domain.Refund]
}

type notePayload struct {
	Note string `json:"note"`
}

func (r *Refunds) Approve(ctx context.Context, id, note string) (domain.Refund, error) {
	return r.action(ctx, id, "approve", notePayload{Note: note})
}

func (r *Refunds) Process(ctx context.Context, id string) (domain.Refund, error) {
	return r.action(ctx, id, "process", nil)
}

func (r *Refunds) Reject(ctx context.Context, id, note string) (domain.Refund, error) {
	return r.action(ctx, id, "reject", notePayload{Note: note})
}

func (r *Refunds) action(ctx context.Context, id, verb string, body any) (domain.Refund, error) {
	var out domain.Refund
	err := r.c.doJSON(ctx, http.MethodPost, r.itemPath(id)+"/"+verb, body, &out)
	return out, err
}

// Resources bundles every endpoint the console uses.
type Resources struct {
	Categories     *Collection[domain.Category]
	Municipalities *Collection[domain.Municipality]
	Refunds        *Refunds
	Plans          *Collection[domain.Plan]
	Subscriptions  *Collection[domain.Subscription]
}

func NewResources(c *Client) Resources {
	return Resources{
		Categories:     NewCollection[domain.Category](c, PathCategories),
		Municipalities: NewCollection[domain.Municipality](c, PathMunicipalities),
		Refunds:        &Refunds{Collection: NewCollection[domain.Refund](c, PathRefunds)},
		Plans:          NewCollection[domain.Plan](c, PathPlans),
		Subscriptions:  NewCollection[domain.Subscription](c, PathSubscriptions),
	}
}

// multipartBody flattens body's JSON fields into form fields. Nested values
// are sent as JSON text, nulls are omitted.
func multipartBody(body any, up *Upload) (io.Reader, string, error) {
	fields := map[string]any{}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, "", fmt.Errorf("api: encode form: %w", err)
		}
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, "", fmt.Errorf("api: form body must be an object: %w", err)
		}
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, k := range keys {
		var value string
		switch v := fields[k].(type) {
		case nil:
			continue
		case string:
			value = v
		case bool, float64:
			value = fmt.Sprint(v)
		default:
			data, err := json.Marshal(v)
			if err != nil {
				return nil, "", err
			}
			value = string(data)
		}
		if err := w.WriteField(k, value); err != nil {
			return nil, "", err
		}
	}
	field := up.Field
	if field == "" {
		field = "image"
	}
	part, err := w.CreateFormFile(field, up.Filename)
	if err != nil {
		return nil, "", err
	}
	if up.Content != nil {
		if _, err := io.Copy(part, up.Content); err != nil {
			return nil, "", fmt.Errorf("api: attach %s: %w", up.Filename, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
