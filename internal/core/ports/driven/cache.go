package driven

import "context"

// LLMCache stores model responses keyed by a digest of the request.
// Re-running an analysis over an unchanged repository is then free.
type LLMCache interface {
	// Get returns the cached response and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Put stores a response.
	Put(ctx context.Context, key, response string) error
}
