// Package llm holds helpers shared by the chat-completion adapters.
package llm

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/archer/internal/core/domain"
)

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 4096

// StatusError is a non-2xx answer from a provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
	retryAfter time.Duration
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed if sent again.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// RetryAfter returns the delay the provider asked for, or zero.
func (e *StatusError) RetryAfter() time.Duration {
	return e.retryAfter
}

// Unwrap maps the status onto a domain error.
func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusTooManyRequests {
		return domain.ErrRateLimited
	}
	return domain.ErrLLMUnavailable
}

// NewStatusError builds a StatusError from a response, reading at most maxErrorBody bytes.
func NewStatusError(provider string, resp *http.Response) *StatusError {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	text := strings.TrimSpace(string(body))
	if err != nil {
		text = "failed to read response"
	}
	return &StatusError{
		Provider:   provider,
		StatusCode: resp.StatusCode,
		Body:       text,
		retryAfter: ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
	}
}

// ParseRetryAfter reads a Retry-After header given as seconds or an HTTP date.
// Unparseable or past values yield zero.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
