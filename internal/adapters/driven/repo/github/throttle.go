package github

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// ProactiveRate keeps bursts of blob fetches under the secondary limits.
	ProactiveRate = 5

	// MinBuffer is the number of remaining requests kept in reserve.
	MinBuffer = 10

	headerRateLimit     = "X-RateLimit-Limit"
	headerRateRemaining = "X-RateLimit-Remaining"
	headerRateReset     = "X-RateLimit-Reset"
)

// Throttle combines a token bucket with the quota GitHub reports in headers.
type Throttle struct {
	mu        sync.Mutex
	remaining int
	limit     int
	resetTime time.Time
	bucket    *rate.Limiter
	minBuffer int
}

// NewThrottle creates a throttle assuming a full quota until told otherwise.
func NewThrottle() *Throttle {
	return &Throttle{
		remaining: -1,
		limit:     -1,
		bucket:    rate.NewLimiter(rate.Limit(ProactiveRate), ProactiveRate),
		minBuffer: MinBuffer,
	}
}

// Wait blocks until a request may be sent.
func (t *Throttle) Wait(ctx context.Context) error {
	if err := t.bucket.Wait(ctx); err != nil {
		return err
	}

	t.mu.Lock()
	remaining := t.remaining
	resetTime := t.resetTime
	t.mu.Unlock()

	if remaining < 0 || remaining >= t.minBuffer || !time.Now().Before(resetTime) {
		return nil
	}

	timer := time.NewTimer(time.Until(resetTime))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// UpdateFromResponse records the quota headers of a response.
func (t *Throttle) UpdateFromResponse(resp *http.Response) {
	if resp == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if v, err := strconv.Atoi(resp.Header.Get(headerRateRemaining)); err == nil {
		t.remaining = v
	}
	if v, err := strconv.Atoi(resp.Header.Get(headerRateLimit)); err == nil {
		t.limit = v
	}
	if v, err := strconv.ParseInt(resp.Header.Get(headerRateReset), 10, 64); err == nil {
		t.resetTime = time.Unix(v, 0)
	}
}

// Remaining returns the last reported remaining requests, or -1 if unknown.
func (t *Throttle) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Limit returns the last reported quota, or -1 if unknown.
func (t *Throttle) Limit() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.limit
}
