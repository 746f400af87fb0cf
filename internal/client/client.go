// Package client is a typed HTTP client for the canvas API.
package client

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

	"github.com/cenkalti/backoff/v4"

	"github.com/mcp-x-studio/canvas/pkg/types"
)

const (
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxRetries is the number of retries for idempotent reads.
	DefaultMaxRetries = 3
	// DefaultRetryInterval is the initial interval for exponential backoff.
	DefaultRetryInterval = 200 * time.Millisecond
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("canvas api: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("canvas api: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// IsCode reports whether err is an APIError with the given code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// Client talks to one canvas server.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	maxRetries    uint64
	retryInterval time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetry sets the retry budget for reads. Zero retries disables retrying.
func WithRetry(maxRetries uint64, initial time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.retryInterval = initial
	}
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    &http.Client{Timeout: DefaultTimeout},
		maxRetries:    DefaultMaxRetries,
		retryInterval: DefaultRetryInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server URL the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetCanvas fetches the whole document.
func (c *Client) GetCanvas(ctx context.Context) (*types.Document, error) {
	var doc types.Document
	if err := c.get(ctx, "/canvas", &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// SaveCanvas replaces the whole document.
func (c *Client) SaveCanvas(ctx context.Context, doc *types.Document) (*types.Document, error) {
	return c.postDocument(ctx, "/canvas", doc)
}

// SetCSS replaces the global stylesheet.
func (c *Client) SetCSS(ctx context.Context, css string) (*types.Document, error) {
	return c.postDocument(ctx, "/canvas/css", types.SetCSSRequest{CSS: &css})
}

// SetJavaScript replaces the global script.
func (c *Client) SetJavaScript(ctx context.Context, js string) (*types.Document, error) {
	return c.postDocument(ctx, "/canvas/javascript", types.SetJavaScriptRequest{JavaScript: &js})
}

// UpdateArtboardStyles merges style into the artboard.
func (c *Client) UpdateArtboardStyles(ctx context.Context, style types.Style) (*types.Document, error) {
	return c.postDocument(ctx, "/canvas/artboard/styles", types.StyleRequest{Style: style})
}

// AddElement appends a new element to the artboard.
func (c *Client) AddElement(ctx context.Context, req types.AddElementRequest) (*types.Document, error) {
	return c.postDocument(ctx, "/canvas/add-element", req)
}

// UpdateElementStyles merges style into the element with the given id.
func (c *Client) UpdateElementStyles(ctx context.Context, id string, style types.Style) (*types.Document, error) {
	return c.postDocument(ctx, "/canvas/element/"+url.PathEscape(id)+"/styles", types.StyleRequest{Style: style})
}

// GetElement fetches one node.
func (c *Client) GetElement(ctx context.Context, id string) (*types.Node, error) {
	var node types.Node
	if err := c.get(ctx, "/canvas/element/"+url.PathEscape(id), &node); err != nil {
		return nil, err
	}
	return &node, nil
}

// DeleteElement removes the element with the given id.
func (c *Client) DeleteElement(ctx context.Context, id string) (*types.Document, error) {
	var doc types.Document
	if err := c.do(ctx, http.MethodDelete, "/canvas/element/"+url.PathEscape(id), nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) postDocument(ctx context.Context, path string, body any) (*types.Document, error) {
	var doc types.Document
	if err := c.do(ctx, http.MethodPost, path, body, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// get performs a GET, retrying transport errors and 5xx responses with
// exponential backoff.
func (c *Client) get(ctx context.Context, path string, out any) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval
	b.RandomizationFactor = 0.5
	b.Multiplier = 2.0
	b.Reset()

	op := func() error {
		err := c.do(ctx, http.MethodGet, path, nil, out)
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx))
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		var envelope struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(data, &envelope) == nil && envelope.Error.Code != "" {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
