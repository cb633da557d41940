package llm

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/archer/internal/core/domain"
)

func response(code int, body, retryAfter string) *http.Response {
	resp := &http.Response{
		StatusCode: code,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
	if retryAfter != "" {
		resp.Header.Set("Retry-After", retryAfter)
	}
	return resp
}

func TestStatusError(t *testing.T) {
	tests := []struct {
		name      string
		code      int
		retryable bool
		unwrap    error
	}{
		{name: "rate limited", code: http.StatusTooManyRequests, retryable: true, unwrap: domain.ErrRateLimited},
		{name: "server error", code: http.StatusInternalServerError, retryable: true, unwrap: domain.ErrLLMUnavailable},
		{name: "overloaded", code: 529, retryable: true, unwrap: domain.ErrLLMUnavailable},
		{name: "bad request", code: http.StatusBadRequest, retryable: false, unwrap: domain.ErrLLMUnavailable},
		{name: "unauthorised", code: http.StatusUnauthorized, retryable: false, unwrap: domain.ErrLLMUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewStatusError("openai", response(tt.code, " boom \n", ""))

			assert.Equal(t, tt.retryable, err.Retryable())
			assert.ErrorIs(t, err, tt.unwrap)
			assert.Equal(t, "boom", err.Body)
			assert.Contains(t, err.Error(), fmt.Sprintf("status %d", tt.code))
		})
	}
}

func TestNewStatusError_TruncatesBody(t *testing.T) {
	err := NewStatusError("ollama", response(http.StatusBadGateway, strings.Repeat("x", maxErrorBody*2), ""))

	assert.Len(t, err.Body, maxErrorBody)
}

func TestNewStatusError_RetryAfterHeader(t *testing.T) {
	err := NewStatusError("anthropic", response(http.StatusTooManyRequests, "", "7"))

	assert.Equal(t, 7*time.Second, err.RetryAfter())
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)

	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "empty", value: "", want: 0},
		{name: "seconds", value: "30", want: 30 * time.Second},
		{name: "zero", value: "0", want: 0},
		{name: "negative", value: "-5", want: 0},
		{name: "http date", value: now.Add(90 * time.Second).Format(http.TimeFormat), want: 90 * time.Second},
		{name: "past date", value: now.Add(-time.Minute).Format(http.TimeFormat), want: 0},
		{name: "garbage", value: "soon", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRetryAfter(tt.value, now))
		})
	}
}

func TestIsStatus(t *testing.T) {
	err := fmt.Errorf("chat: %w", &StatusError{StatusCode: http.StatusTooManyRequests})

	assert.True(t, IsStatus(err, http.StatusTooManyRequests))
	assert.False(t, IsStatus(err, http.StatusBadRequest))
	assert.False(t, IsStatus(errors.New("plain"), http.StatusTooManyRequests))
}
