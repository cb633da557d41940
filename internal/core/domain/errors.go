package domain

import "errors"

// Domain errors represent analysis failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider, source or output format.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the LLM service is not configured or unreachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// LLM call errors.

	// ErrMaxRetriesExceeded indicates every retry attempt of an LLM call failed.
	// Call sites treat it as a soft failure and continue with empty results.
	ErrMaxRetriesExceeded = errors.New("max retry attempts reached")

	// ErrRateLimited indicates the provider rejected the request with HTTP 429.
	ErrRateLimited = errors.New("rate limited")

	// ErrEmptyResponse indicates the model returned no content.
	ErrEmptyResponse = errors.New("empty model response")

	// ErrNoJSON indicates no decodable JSON payload was found in a model response.
	ErrNoJSON = errors.New("no JSON in model response")
)
