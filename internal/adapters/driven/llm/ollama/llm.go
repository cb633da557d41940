// Package ollama provides an LLM service adapter for a local Ollama server.
package ollama

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/archer/internal/adapters/driven/llm"
	"github.com/custodia-labs/archer/internal/core/domain"
	"github.com/custodia-labs/archer/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

const providerName = "ollama"

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultLLMModel   = "llama3.2"
	DefaultLLMTimeout = 300 * time.Second
)

// LLMConfig holds configuration for the Ollama LLM service.
type LLMConfig struct {
	// BaseURL defaults to http://localhost:11434.
	BaseURL string

	// Model defaults to llama3.2.
	Model string

	// Timeout defaults to 300s; local models are slow.
	Timeout time.Duration
}

// LLMService talks to /api/chat and /api/generate without streaming.
type LLMService struct {
	api   *llm.Client
	model string
}

type options struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

type generateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Stream  bool     `json:"stream"`
	Options *options `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
	Stream   bool      `json:"stream"`
	Format   string    `json:"format,omitempty"`
	Options  *options  `json:"options,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message message `json:"message"`
	Done    bool    `json:"done"`
	Error   string  `json:"error,omitempty"`
}

// NewLLMService creates a new Ollama LLM service.
func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	return &LLMService{
		api:   llm.NewClient(providerName, cfg.BaseURL, cfg.Timeout, nil),
		model: cfg.Model,
	}
}

func newOptions(maxTokens int, temperature float64, stop []string) *options {
	return &options{
		NumPredict:  maxTokens,
		Temperature: &temperature,
		Stop:        stop,
	}
}

// Generate produces a completion for a raw prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	req := generateRequest{
		Model:   s.model,
		Prompt:  prompt,
		Options: newOptions(opts.MaxTokens, opts.Temperature, opts.StopWords),
	}

	var resp generateResponse
	if err := s.api.PostJSON(ctx, "/api/generate", req, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

// Chat conducts a multi-turn conversation. opts.JSON sets format=json,
// which constrains the model to valid JSON.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	msgs := make([]message, len(messages))
	for i, m := range messages {
		msgs[i] = message{Role: m.Role, Content: m.Content}
	}

	req := chatRequest{
		Model:    s.model,
		Messages: msgs,
		Options:  newOptions(opts.MaxTokens, opts.Temperature, nil),
	}
	if opts.JSON {
		req.Format = "json"
	}

	var resp chatResponse
	if err := s.api.PostJSON(ctx, "/api/chat", req, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", fmt.Errorf("ollama error: %s", resp.Error)
	}
	if resp.Message.Content == "" {
		return "", fmt.Errorf("ollama: %w", domain.ErrEmptyResponse)
	}
	return resp.Message.Content, nil
}

// ModelName returns the configured model.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping lists local models, which checks the server is up.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Get(ctx, "/api/tags")
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
