package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/custodia-labs/archer/internal/core/domain"
	"github.com/custodia-labs/archer/internal/core/ports/driven"
	"github.com/custodia-labs/archer/internal/logger"
)

// Ensure ReliableLLM implements the interface.
var _ driven.LLMService = (*ReliableLLM)(nil)

// ReliableLLM wraps an LLM service with caching, throttling and retries.
// Every Chat call waits on the rate limiter, retries transient failures and
// stores successful answers in the cache.
type ReliableLLM struct {
	inner   driven.LLMService
	cache   driven.LLMCache
	limiter *RateLimiter
	retrier *Retrier
}

// NewReliableLLM wraps inner. cache and limiter may be nil.
func NewReliableLLM(inner driven.LLMService, cache driven.LLMCache, limiter *RateLimiter, retrier *Retrier) *ReliableLLM {
	if retrier == nil {
		retrier = NewRetrier(DefaultMaxAttempts)
	}
	return &ReliableLLM{
		inner:   inner,
		cache:   cache,
		limiter: limiter,
		retrier: retrier,
	}
}

// Validator rejects a model answer the caller cannot use.
type Validator func(response string) error

// Chat sends messages through the cache, limiter and retrier.
func (r *ReliableLLM) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	return r.ChatValidated(ctx, messages, opts, nil)
}

// ChatValidated is Chat, except that only answers accepted by validate are
// cached and a cached answer that validate rejects is asked for again.
// A rejected fresh answer is still returned so the caller can report it.
func (r *ReliableLLM) ChatValidated(
	ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions, validate Validator,
) (string, error) {
	key := CacheKey(r.inner.ModelName(), messages, opts)
	usable := func(response string) bool {
		return validate == nil || validate(response) == nil
	}

	if r.cache != nil {
		cached, ok, err := r.cache.Get(ctx, key)
		switch {
		case err != nil:
			logger.Debug("llm cache read failed: %v", err)
		case ok && usable(cached):
			logger.Debug("llm cache hit %s", key[:12])
			return cached, nil
		case ok:
			logger.Debug("llm cache entry %s no longer parses, asking again", key[:12])
		}
	}

	var response string
	err := r.retrier.Do(ctx, func(ctx context.Context) error {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		start := time.Now()
		resp, err := r.inner.Chat(ctx, messages, opts)
		if err != nil {
			if r.limiter != nil && errors.Is(err, domain.ErrRateLimited) {
				var ra retryAfter
				var wait time.Duration
				if errors.As(err, &ra) {
					wait = ra.RetryAfter()
				}
				r.limiter.RecordRateLimit(wait)
			}
			return err
		}
		if resp == "" {
			return domain.ErrEmptyResponse
		}
		logger.Debug("llm answered in %s (%d chars)", time.Since(start).Round(time.Millisecond), len(resp))
		response = resp
		return nil
	})
	if err != nil {
		return "", err
	}

	if r.cache != nil && usable(response) {
		if err := r.cache.Put(ctx, key, response); err != nil {
			logger.Debug("llm cache write failed: %v", err)
		}
	}
	return response, nil
}

// Generate sends a single user prompt through Chat.
func (r *ReliableLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	messages := []driven.ChatMessage{{Role: driven.RoleUser, Content: prompt}}
	return r.Chat(ctx, messages, driven.ChatOptions{
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	})
}

// ModelName returns the wrapped model name.
func (r *ReliableLLM) ModelName() string {
	return r.inner.ModelName()
}

// Ping checks the wrapped service directly.
func (r *ReliableLLM) Ping(ctx context.Context) error {
	return r.inner.Ping(ctx)
}

// Close closes the wrapped service.
func (r *ReliableLLM) Close() error {
	return r.inner.Close()
}

// CacheKey returns the hex sha256 digest identifying a chat request.
func CacheKey(model string, messages []driven.ChatMessage, opts driven.ChatOptions) string {
	payload := struct {
		Model       string               `json:"model"`
		Messages    []driven.ChatMessage `json:"messages"`
		Temperature float64              `json:"temperature"`
		MaxTokens   int                  `json:"max_tokens"`
		JSON        bool                 `json:"json"`
	}{
		Model:       model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		JSON:        opts.JSON,
	}
	// Marshalling a struct of strings and numbers cannot fail.
	data, _ := json.Marshal(payload)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
