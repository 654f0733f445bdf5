package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// TokenSource returns the bearer token for the next request. The client never
// refreshes or stores tokens itself.
type TokenSource func(ctx context.Context) (string, error)

// StaticToken always returns tok.
func StaticToken(tok string) TokenSource {
	return func(context.Context) (string, error) { return tok, nil }
}

// ErrNoToken is returned when no admin token is configured.
var ErrNoToken = errors.New("api: admin token not configured")

// Error is a non-2xx backend response.
type Error struct {
	Status    int
	Message   string
	RequestID string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: http %d", e.Status)
	}
	return fmt.Sprintf("api: http %d: %s", e.Status, e.Message)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Options configures a Client.
type Options struct {
	BaseURL string
	HTTP    *http.Client
	Tokens  TokenSource
	// Limiter throttles outbound requests; nil disables throttling.
	Limiter *rate.Limiter
	Logger  zerolog.Logger
}

// Client talks to the marketplace admin API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	limiter *rate.Limiter
	log     zerolog.Logger
}

func NewClient(opts Options) *Client {
	hc := opts.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		http:    hc,
		tokens:  opts.Tokens,
		limiter: opts.Limiter,
		log:     opts.Logger,
	}
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string { return c.baseURL }

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	req := request{method: method, path: path}
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("api: encode %s %s: %w", method, path, err)
		}
		req.body = bytes.NewReader(data)
		req.contentType = "application/json"
	}
	return c.do(ctx, req, out)
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	if c.baseURL == "" {
		return fmt.Errorf("api: base url not set")
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("api: rate limit: %w", err)
		}
	}
	target := c.baseURL + "/" + strings.TrimLeft(r.path, "/")
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}
	body := r.body
	if body == nil {
		body = http.NoBody
	}
	httpReq, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return err
	}
	reqID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", reqID)
	if r.contentType != "" {
		httpReq.Header.Set("Content-Type", r.contentType)
	}
	if c.tokens != nil {
		tok, err := c.tokens(ctx)
		if err != nil {
			return fmt.Errorf("api: token: %w", err)
		}
		if tok = strings.TrimSpace(tok); tok != "" {
			httpReq.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.log.Warn().Err(err).Str("method", r.method).Str("path", r.path).Str("request_id", reqID).Msg("request failed")
		return fmt.Errorf("api: %s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("api: read %s %s: %w", r.method, r.path, err)
	}
	c.log.Debug().
		Str("method", r.method).
		Str("path", r.path).
		Str("request_id", reqID).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("request")

	if resp.StatusCode >= 400 || refused(data) {
		apiErr := &Error{Status: resp.StatusCode, Message: errorMessage(data), RequestID: reqID}
		switch {
		case apiErr.Message != "":
		case resp.StatusCode < 400:
			apiErr.Message = "Request refused by the server"
		default:
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		c.log.Warn().Int("status", resp.StatusCode).Str("path", r.path).Str("request_id", reqID).Msg(apiErr.Message)
		return apiErr
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(unwrap(data), out); err != nil {
		return fmt.Errorf("api: decode %s %s: %w", r.method, r.path, err)
	}
	return nil
}

// unwrap strips the {success, data, message} envelope some handlers use.
func unwrap(data []byte) []byte {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return data
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return data
	}
	inner, ok := env["data"]
	if !ok {
		return data
	}
	_, hasSuccess := env["success"]
	_, hasMessage := env["message"]
	if !hasSuccess && !hasMessage {
		return data
	}
	return inner
}

// refused reports an envelope that carries "success": false under a 2xx
// status.
func refused(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	var env struct {
		Success *bool `json:"success"`
	}
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return false
	}
	return env.Success != nil && !*env.Success
}

func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return strings.TrimSpace(string(data))
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
