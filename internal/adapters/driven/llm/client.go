package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client sends JSON requests to one provider's HTTP API.
type Client struct {
	// Provider prefixes errors and StatusError values.
	Provider string

	// BaseURL is the API root without a trailing slash.
	BaseURL string

	// Header is added to every request (auth, API version).
	Header http.Header

	http *http.Client
}

// NewClient creates a client for provider rooted at baseURL.
func NewClient(provider, baseURL string, timeout time.Duration, header http.Header) *Client {
	if header == nil {
		header = http.Header{}
	}
	return &Client{
		Provider: provider,
		BaseURL:  strings.TrimSuffix(baseURL, "/"),
		Header:   header,
		http:     &http.Client{Timeout: timeout},
	}
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.http.Timeout
}

// PostJSON posts in as JSON to path and decodes a 200 answer into out.
// Other statuses become a *StatusError.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", c.Provider, err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

// Get sends a GET to path and discards a 200 answer. Providers use it
// for cheap reachability and credential checks.
func (c *Client) Get(ctx context.Context, path string) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, http.NoBody)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", c.Provider, err)
	}
	for k, vs := range c.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: send request: %w", c.Provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return NewStatusError(c.Provider, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.Provider, err)
	}
	return nil
}
