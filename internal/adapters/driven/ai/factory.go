// Package ai builds chat-completion adapters from LLM settings.
package ai

import (
	"context"
	"fmt"
	"time"

	anthropicllm "github.com/custodia-labs/archer/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/archer/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/archer/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/archer/internal/core/domain"
	"github.com/custodia-labs/archer/internal/core/ports/driven"
)

const pingTimeout = 5 * time.Second

type constructor func(s *domain.LLMSettings) (driven.LLMService, error)

var constructors = map[domain.AIProvider]constructor{
	domain.AIProviderOllama: func(s *domain.LLMSettings) (driven.LLMService, error) {
		return ollamallm.NewLLMService(ollamallm.LLMConfig{BaseURL: s.BaseURL, Model: s.Model}), nil
	},
	domain.AIProviderOpenAI: func(s *domain.LLMSettings) (driven.LLMService, error) {
		return openaillm.NewLLMService(openaillm.LLMConfig{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model})
	},
	domain.AIProviderAnthropic: func(s *domain.LLMSettings) (driven.LLMService, error) {
		return anthropicllm.NewLLMService(anthropicllm.Config{APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model})
	},
}

// CreateLLMService returns the adapter for the configured provider,
// or nil when nothing usable is configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}
	build, ok := constructors[settings.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: LLM provider %s", domain.ErrUnsupportedType, settings.Provider)
	}
	return build(settings)
}

// ValidateLLMConfig builds the adapter and pings it once.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	svc, err := CreateLLMService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%s unreachable: %w", settings.Provider, err)
	}
	return nil
}
