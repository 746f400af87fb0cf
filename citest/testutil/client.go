package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mcp-x-studio/canvas/internal/canvas"
	"github.com/mcp-x-studio/canvas/pkg/types"
)

// TestClient provides HTTP client utilities for testing
type TestClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewTestClient creates a new test HTTP client
func NewTestClient(baseURL string) *TestClient {
	return &TestClient{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Response wraps HTTP response with helpers
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// JSON unmarshals response body into v
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// String returns response body as string
func (r *Response) String() string {
	return string(r.Body)
}

// IsSuccess returns true if status code is 2xx
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Document decodes the body as a canvas document
func (r *Response) Document() (*types.Document, error) {
	var doc types.Document
	if err := r.JSON(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ErrorCode returns the error code of an error response
func (r *Response) ErrorCode() string {
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	_ = r.JSON(&body)
	return body.Error.Code
}

// Get performs HTTP GET request
func (c *TestClient) Get(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post performs HTTP POST request with JSON body
func (c *TestClient) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

// PostRaw performs HTTP POST request with a raw body
func (c *TestClient) PostRaw(ctx context.Context, path, body string) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, json.RawMessage(body))
}

// Delete performs HTTP DELETE request
func (c *TestClient) Delete(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

// do performs the actual HTTP request
func (c *TestClient) do(ctx context.Context, method, path string, body any) (*Response, error) {
	var bodyReader io.Reader
	switch b := body.(type) {
	case nil:
	case json.RawMessage:
		bodyReader = bytes.NewReader(b)
	default:
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
	}, nil
}

// ---- Canvas helpers ----

// GetCanvas fetches the current document
func (c *TestClient) GetCanvas(ctx context.Context) (*types.Document, error) {
	resp, err := c.Get(ctx, "/canvas")
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("get canvas: %d %s", resp.StatusCode, resp.String())
	}
	return resp.Document()
}

// Reset replaces the document with the default one
func (c *TestClient) Reset(ctx context.Context) error {
	resp, err := c.Post(ctx, "/canvas", canvas.DefaultDocument())
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("reset canvas: %d %s", resp.StatusCode, resp.String())
	}
	return nil
}

// AddElement posts an add-element request
func (c *TestClient) AddElement(ctx context.Context, id string, style types.Style) (*Response, error) {
	return c.Post(ctx, "/canvas/add-element", types.AddElementRequest{ID: id, Style: style})
}

// UpdateElementStyles posts an element style merge
func (c *TestClient) UpdateElementStyles(ctx context.Context, id string, style types.Style) (*Response, error) {
	return c.Post(ctx, "/canvas/element/"+url.PathEscape(id)+"/styles", types.StyleRequest{Style: style})
}

// DeleteElement deletes an element
func (c *TestClient) DeleteElement(ctx context.Context, id string) (*Response, error) {
	return c.Delete(ctx, "/canvas/element/"+url.PathEscape(id))
}

// Geometry returns a style with the required geometry properties
func Geometry(width, height, left, top string) types.Style {
	return types.Style{"width": width, "height": height, "left": left, "top": top}
}

// FindChild returns the artboard child with the given id
func FindChild(doc *types.Document, id string) *types.Node {
	if doc == nil || doc.Artboard == nil {
		return nil
	}
	for _, child := range doc.Artboard.Children {
		if child.ID == id {
			return child
		}
	}
	return nil
}

// ChildIDs returns the ids of the artboard children in order
func ChildIDs(doc *types.Document) []string {
	var ids []string
	for _, child := range doc.Artboard.Children {
		ids = append(ids, child.ID)
	}
	return ids
}
