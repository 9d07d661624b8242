// Package toyapi is the HTTP client for the toy backend's REST contract:
//
//	GET    /toys       list
//	POST   /toys       create  {name, image, likes}
//	DELETE /toys/{id}  delete  (response body ignored)
//	PATCH  /toys/{id}  like    {likes}
//
// Every call is a single round trip. Failures are returned, never retried.
package toyapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pthm/toybox/internal/toy"
)

// DefaultBaseURL is the local origin the toy backend listens on.
const DefaultBaseURL = "http://localhost:3001"

// API is the backend contract consumed by the controller.
type API interface {
	List(ctx context.Context) ([]toy.Toy, error)
	Create(ctx context.Context, draft toy.Draft) (toy.Toy, error)
	Delete(ctx context.Context, id toy.ID) error
	UpdateLikes(ctx context.Context, id toy.ID, likes int) (toy.Toy, error)
}

// Client implements API over HTTP with JSON bodies.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets a whole-request timeout on the underlying client.
// Zero leaves requests unbounded.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a client for the backend at baseURL (e.g. "http://localhost:3001").
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend origin the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// List fetches the full collection.
func (c *Client) List(ctx context.Context) ([]toy.Toy, error) {
	var toys []toy.Toy
	if err := c.do(ctx, http.MethodGet, "/toys", nil, &toys); err != nil {
		return nil, err
	}
	if toys == nil {
		toys = []toy.Toy{}
	}
	return toys, nil
}

// Create persists a draft and returns the stored toy carrying its new ID.
func (c *Client) Create(ctx context.Context, draft toy.Draft) (toy.Toy, error) {
	var created toy.Toy
	if err := c.do(ctx, http.MethodPost, "/toys", draft, &created); err != nil {
		return toy.Toy{}, err
	}
	return created, nil
}

// Delete removes a toy. Any 2xx counts as success whatever the body holds.
func (c *Client) Delete(ctx context.Context, id toy.ID) error {
	return c.do(ctx, http.MethodDelete, toyPath(id), nil, nil)
}

// UpdateLikes sends a partial update carrying only the like count and returns
// the backend's full representation of the toy.
func (c *Client) UpdateLikes(ctx context.Context, id toy.ID, likes int) (toy.Toy, error) {
	body := struct {
		Likes int `json:"likes"`
	}{Likes: likes}

	var updated toy.Toy
	if err := c.do(ctx, http.MethodPatch, toyPath(id), body, &updated); err != nil {
		return toy.Toy{}, err
	}
	return updated, nil
}

func toyPath(id toy.ID) string {
	return "/toys/" + url.PathEscape(id.String())
}

// do performs one request. A nil out discards the response body.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Method: method, Path: path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrDecode, method, path, err)
	}
	return nil
}

var _ API = (*Client)(nil)
