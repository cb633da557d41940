package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_AllowBurst(t *testing.T) {
	l := NewRateLimiter(1, 2)

	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
}

func TestRateLimiter_Unlimited(t *testing.T) {
	l := NewRateLimiter(0, 0)

	for i := 0; i < 100; i++ {
		require.True(t, l.Allow())
	}
	require.NoError(t, l.Wait(context.Background()))
}

func TestRateLimiter_RecordRateLimitBlocks(t *testing.T) {
	l := NewRateLimiter(100, 10)

	l.RecordRateLimit(time.Hour)

	assert.False(t, l.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimiter_RecordRateLimitKeepsLongestPause(t *testing.T) {
	l := NewRateLimiter(100, 10)

	l.RecordRateLimit(time.Hour)
	l.RecordRateLimit(time.Millisecond)

	assert.False(t, l.Allow())
}

func TestRateLimiter_ShortPauseExpires(t *testing.T) {
	l := NewRateLimiter(100, 10)

	l.RecordRateLimit(10 * time.Millisecond)

	start := time.Now()
	require.NoError(t, l.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}

func TestRateLimiter_DefaultBackoff(t *testing.T) {
	l := NewRateLimiter(100, 10)

	l.RecordRateLimit(0)

	l.mu.Lock()
	retryAt := l.retryAt
	l.mu.Unlock()
	assert.WithinDuration(t, time.Now().Add(defaultRateLimitBackoff), retryAt, time.Second)
}
