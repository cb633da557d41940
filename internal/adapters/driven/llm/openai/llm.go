// Package openai provides an LLM service adapter using the OpenAI chat completions API.
// Any OpenAI-compatible server (LM Studio, vLLM, Azure) works by changing BaseURL.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/archer/internal/adapters/driven/llm"
	"github.com/custodia-labs/archer/internal/core/domain"
	"github.com/custodia-labs/archer/internal/core/ports/driven"
	"github.com/custodia-labs/archer/internal/logger"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

const providerName = "openai"

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultLLMModel   = "gpt-4o-mini"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig holds configuration for the OpenAI LLM service.
type LLMConfig struct {
	// APIKey is required.
	APIKey string

	// BaseURL defaults to the public OpenAI API.
	BaseURL string

	// Model defaults to gpt-4o-mini.
	Model string

	// Timeout defaults to 120s.
	Timeout time.Duration
}

// LLMService talks to /chat/completions.
type LLMService struct {
	api   *llm.Client
	model string
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
	Stop           []string        `json:"stop,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message      message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewLLMService creates a new OpenAI LLM service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+cfg.APIKey)
	return &LLMService{
		api:   llm.NewClient(providerName, cfg.BaseURL, cfg.Timeout, header),
		model: cfg.Model,
	}, nil
}

// Generate sends prompt as a single user message.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	req := s.request([]driven.ChatMessage{{Role: driven.RoleUser, Content: prompt}}, opts.MaxTokens, opts.Temperature)
	req.Stop = opts.StopWords
	return s.complete(ctx, req)
}

// Chat conducts a multi-turn conversation. opts.JSON switches on the
// json_object response format.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	req := s.request(messages, opts.MaxTokens, opts.Temperature)
	if opts.JSON {
		req.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	return s.complete(ctx, req)
}

func (s *LLMService) request(messages []driven.ChatMessage, maxTokens int, temperature float64) chatRequest {
	msgs := make([]message, len(messages))
	for i, m := range messages {
		msgs[i] = message{Role: m.Role, Content: m.Content}
	}
	return chatRequest{
		Model:       s.model,
		Messages:    msgs,
		MaxTokens:   maxTokens,
		Temperature: &temperature,
	}
}

func (s *LLMService) complete(ctx context.Context, req chatRequest) (string, error) {
	var resp chatResponse
	if err := s.api.PostJSON(ctx, "/chat/completions", req, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("openai error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: %w", domain.ErrEmptyResponse)
	}

	choice := resp.Choices[0]
	if choice.FinishReason == "length" {
		logger.Debug("openai: answer from %s cut at max_tokens", s.model)
	}
	return choice.Message.Content, nil
}

// ModelName returns the configured model.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping lists models, which checks the API key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Get(ctx, "/models")
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
