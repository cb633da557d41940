package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/archer/internal/core/ports/driven"
)

// llmCache implements driven.LLMCache.
type llmCache struct {
	store *Store
}

var _ driven.LLMCache = (*llmCache)(nil)

// Get returns the cached response for key.
func (c *llmCache) Get(ctx context.Context, key string) (string, bool, error) {
	var response string
	err := c.store.db.QueryRowContext(ctx,
		`SELECT response FROM llm_cache WHERE key = ?`, key).Scan(&response)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read llm cache: %w", err)
	}
	return response, true, nil
}

// Put stores or replaces a response.
func (c *llmCache) Put(ctx context.Context, key, response string) error {
	_, err := c.store.db.ExecContext(ctx, `
		INSERT INTO llm_cache (key, response, created_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			response = excluded.response,
			created_at = excluded.created_at
	`, key, response, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("write llm cache: %w", err)
	}
	return nil
}
