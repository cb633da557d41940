package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/archer/internal/core/ports/driven"
)

// Ensure LLMCache implements the interface.
var _ driven.LLMCache = (*LLMCache)(nil)

// LLMCache is an in-memory implementation of driven.LLMCache.
// It lives for one process, which is enough for watch mode.
type LLMCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewLLMCache creates a new in-memory LLM response cache.
func NewLLMCache() *LLMCache {
	return &LLMCache{
		entries: make(map[string]string),
	}
}

// Get returns the cached response for key.
func (c *LLMCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	response, ok := c.entries[key]
	return response, ok, nil
}

// Put stores a response.
func (c *LLMCache) Put(_ context.Context, key, response string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = response
	return nil
}

// Len returns the number of cached responses.
func (c *LLMCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
