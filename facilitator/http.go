package facilitator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	d402 "github.com/Traia-IO/test-serper-api-mcp-server"
)

// DefaultVerifyTimeout bounds a single verification round-trip. The
// admission engine sits in the hot path of every paid request, so an
// unresponsive authority must fail fast rather than hold the connection.
const DefaultVerifyTimeout = 5 * time.Second

// HTTPClient talks to a settlement authority (facilitator) over HTTP. The
// zero value is not usable; construct with NewHTTPClient.
type HTTPClient struct {
	baseURL       string
	client        *http.Client
	authorization string
	verifyTimeout time.Duration
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithAuthorization sets a static Authorization header value sent to the
// facilitator, e.g. "Bearer <api-key>".
func WithAuthorization(authorization string) Option {
	return func(c *HTTPClient) {
		c.authorization = authorization
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// WithVerifyTimeout overrides the per-verification timeout.
func WithVerifyTimeout(timeout time.Duration) Option {
	return func(c *HTTPClient) {
		c.verifyTimeout = timeout
	}
}

// NewHTTPClient creates a facilitator client for the given base URL.
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:       baseURL,
		client:        &http.Client{Timeout: DefaultVerifyTimeout},
		verifyTimeout: DefaultVerifyTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// verifyRequest is the payload sent to the facilitator /verify endpoint.
type verifyRequest struct {
	D402Version     int                  `json:"d402Version"`
	PaymentProof    d402.PaymentProof    `json:"paymentProof"`
	PriceDescriptor d402.PriceDescriptor `json:"priceDescriptor"`
	PayTo           string               `json:"payTo"`
}

// Verify posts the proof and priced terms to the facilitator. Transport
// errors, timeouts, and non-200 statuses all map to
// d402.ErrSettlementUnavailable; the policy is fail-closed and no retry is
// attempted within the request.
func (c *HTTPClient) Verify(ctx context.Context, proof d402.PaymentProof, price d402.PriceDescriptor, payTo string) (*VerifyResult, error) {
	req := verifyRequest{
		D402Version:     d402.D402Version,
		PaymentProof:    proof,
		PriceDescriptor: price,
		PayTo:           payTo,
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal verify request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.verifyTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/verify", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.authorization != "" {
		httpReq.Header.Set("Authorization", c.authorization)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", d402.ErrSettlementUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", d402.ErrSettlementUnavailable, resp.StatusCode)
	}

	var result VerifyResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decoding verify response: %v", d402.ErrSettlementUnavailable, err)
	}

	return &result, nil
}
