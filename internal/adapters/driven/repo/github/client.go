package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// Client wraps the go-github client with throttling and error mapping.
type Client struct {
	gh       *gh.Client
	throttle *Throttle
}

// NewClient creates a client. An empty token gives unauthenticated access,
// which GitHub limits to 60 requests an hour.
func NewClient(ctx context.Context, token string) *Client {
	httpClient := &http.Client{Timeout: DefaultTimeout}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(ctx, ts)
		httpClient.Timeout = DefaultTimeout
	}
	return NewClientWithHTTPClient(httpClient)
}

// NewClientWithHTTPClient creates a client around a custom http.Client.
func NewClientWithHTTPClient(httpClient *http.Client) *Client {
	return &Client{
		gh:       gh.NewClient(httpClient),
		throttle: NewThrottle(),
	}
}

// DefaultBranch returns the default branch of a repository.
func (c *Client) DefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	if err := c.throttle.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	repository, resp, err := c.gh.Repositories.Get(ctx, owner, repo)
	c.observe(resp)
	if err != nil {
		return "", c.wrapError(err, "get repo")
	}
	return repository.GetDefaultBranch(), nil
}

// GetTree fetches the entire tree at ref recursively in one call.
func (c *Client) GetTree(ctx context.Context, owner, repo, ref string) (*gh.Tree, error) {
	if err := c.throttle.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	tree, resp, err := c.gh.Git.GetTree(ctx, owner, repo, ref, true)
	c.observe(resp)
	if err != nil {
		return nil, c.wrapError(err, "get tree")
	}
	return tree, nil
}

// GetBlob fetches a blob by its SHA.
func (c *Client) GetBlob(ctx context.Context, owner, repo, sha string) (*gh.Blob, error) {
	if err := c.throttle.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	blob, resp, err := c.gh.Git.GetBlob(ctx, owner, repo, sha)
	c.observe(resp)
	if err != nil {
		return nil, c.wrapError(err, "get blob")
	}
	return blob, nil
}

func (c *Client) observe(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	c.throttle.UpdateFromResponse(resp.Response)
}

// wrapError converts go-github errors to our error types.
func (c *Client) wrapError(err error, operation string) error {
	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return &RateLimitError{
			ResetAt:   rateLimitErr.Rate.Reset.Time,
			Remaining: rateLimitErr.Rate.Remaining,
			Limit:     rateLimitErr.Rate.Limit,
		}
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return &RateLimitError{ResetAt: time.Now().Add(abuseErr.GetRetryAfter())}
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		apiErr := &APIError{
			Operation:  operation,
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
		}
		if ghErr.Response.Request != nil {
			apiErr.URL = ghErr.Response.Request.URL.String()
		}
		return apiErr
	}

	return fmt.Errorf("%s: %w", operation, err)
}
