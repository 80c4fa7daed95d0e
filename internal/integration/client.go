// Package integration is a thin HTTP client for the service endpoints.
package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-sod/vtml/internal/buildinfo"
)

type prefixRoundTripper struct {
	addr string
	rt   http.RoundTripper
}

func (p *prefixRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	u := r.URL
	if u.Scheme == "" {
		u.Scheme = "http"
	}
	if u.Host == "" {
		u.Host = p.addr
	}
	r.Header.Set("User-Agent", buildinfo.Info.UserAgent())

	return p.rt.RoundTrip(r)
}

func NewClient(addr string) *Client {
	return &Client{client: &http.Client{Transport: &prefixRoundTripper{addr: addr, rt: http.DefaultTransport}}}
}

type Client struct {
	client *http.Client
}

// Response is a fully read reply. Non-2xx statuses are not errors.
type Response struct {
	StatusCode int
	Body       []byte
}

func (r *Response) Decode(v interface{}) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Detect posts a JSON array of GPS points to /anomaly-detection.
func (c *Client) Detect(ctx context.Context, body io.Reader) (*Response, error) {
	return c.post(ctx, "/anomaly-detection", body)
}

// Optimize posts a {vehicle_id, points} document to /route-optimization.
func (c *Client) Optimize(ctx context.Context, body io.Reader) (*Response, error) {
	return c.post(ctx, "/route-optimization", body)
}

// Maintenance posts a vehicle usage document to /predictive-maintenance.
func (c *Client) Maintenance(ctx context.Context, body io.Reader) (*Response, error) {
	return c.post(ctx, "/predictive-maintenance", body)
}

func (c *Client) Health(ctx context.Context) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, fmt.Errorf("create new request: %w", err)
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, path string, body io.Reader) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, fmt.Errorf("create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error with sending request: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: b}, nil
}
