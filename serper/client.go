// Package serper exposes the Serper search API as payment-gated MCP tools.
// Each tool is a parameterized passthrough: the upstream JSON response is
// returned to the caller verbatim.
package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the Serper API endpoint.
const DefaultBaseURL = "https://google.serper.dev"

// requestTimeout bounds a single upstream call.
const requestTimeout = 30 * time.Second

// Client calls the Serper API. When an API key is configured it is sent as
// both X-API-KEY and a Bearer token; requests without a key are attempted
// anyway and fail upstream.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the upstream endpoint, mainly for tests.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// NewClient creates a Serper client using the server's internal API key.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query holds the shared parameters of the Serper search endpoints. Unset
// optional fields are omitted from the upstream request body.
type Query struct {
	Q           string `json:"q"`
	GL          string `json:"gl,omitempty"`
	HL          string `json:"hl,omitempty"`
	Location    string `json:"location,omitempty"`
	Autocorrect bool   `json:"autocorrect"`
	Num         int    `json:"num,omitempty"`
	Page        int    `json:"page,omitempty"`
}

// Search performs a Google web search (POST /search).
func (c *Client) Search(ctx context.Context, q Query) (json.RawMessage, error) {
	return c.post(ctx, "/search", q)
}

// News performs a Google News search (POST /news).
func (c *Client) News(ctx context.Context, q Query) (json.RawMessage, error) {
	return c.post(ctx, "/news", q)
}

// Scholar performs a Google Scholar search (POST /scholar).
func (c *Client) Scholar(ctx context.Context, q Query) (json.RawMessage, error) {
	return c.post(ctx, "/scholar", q)
}

func (c *Client) post(ctx context.Context, path string, q Query) (json.RawMessage, error) {
	body, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-KEY", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serper %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("serper %s: reading response: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serper %s: status %d", path, resp.StatusCode)
	}

	return data, nil
}
