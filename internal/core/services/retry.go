package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/custodia-labs/archer/internal/core/domain"
	"github.com/custodia-labs/archer/internal/logger"
)

// Default retry configuration values.
const (
	DefaultMaxAttempts  = 6
	DefaultInitialDelay = 2 * time.Second
	DefaultMaxDelay     = 60 * time.Second
)

// Retrier re-runs a failing call with exponential backoff and jitter.
type Retrier struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int

	// InitialDelay is the wait before the second attempt. It doubles each time.
	InitialDelay time.Duration

	// MaxDelay caps a single wait.
	MaxDelay time.Duration

	// sleep is replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetrier creates a retrier with the given attempt budget and default delays.
func NewRetrier(maxAttempts int) *Retrier {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Retrier{
		MaxAttempts:  maxAttempts,
		InitialDelay: DefaultInitialDelay,
		MaxDelay:     DefaultMaxDelay,
	}
}

// retryable is implemented by errors that know whether a retry can help.
type retryable interface {
	Retryable() bool
}

// retryAfter is implemented by errors that carry a server-suggested wait.
type retryAfter interface {
	RetryAfter() time.Duration
}

// IsRetryable reports whether err is worth another attempt.
// Context errors never are; errors implementing Retryable decide for
// themselves; anything else is assumed transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var r retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}

// Do calls fn until it succeeds, returns a non-retryable error, the context
// ends or the attempt budget is spent. In the last case the returned error
// wraps both domain.ErrMaxRetriesExceeded and the final failure.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		wait := r.backoff(attempt, lastErr)
		logger.Debug("attempt %d/%d failed (%v), retrying in %s", attempt, attempts, lastErr, wait)
		if err := r.wait(ctx, wait); err != nil {
			return err
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", domain.ErrMaxRetriesExceeded, attempts, lastErr)
}

// backoff returns the wait before the next attempt.
func (r *Retrier) backoff(attempt int, err error) time.Duration {
	var ra retryAfter
	if errors.As(err, &ra) && ra.RetryAfter() > 0 {
		return ra.RetryAfter()
	}

	base := r.InitialDelay
	if base <= 0 {
		base = DefaultInitialDelay
	}
	maxDelay := r.MaxDelay
	if maxDelay <= 0 {
		maxDelay = DefaultMaxDelay
	}

	shift := attempt - 1
	if shift > 30 {
		shift = 30
	}
	d := base << shift
	if d <= 0 || d > maxDelay {
		d = maxDelay
	}
	// Up to 25% jitter.
	jitter := time.Duration(rand.Int64N(int64(d)/4 + 1))
	return d + jitter
}

func (r *Retrier) wait(ctx context.Context, d time.Duration) error {
	if r.sleep != nil {
		return r.sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
