// Package anthropic provides an LLM service adapter using the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/archer/internal/adapters/driven/llm"
	"github.com/custodia-labs/archer/internal/core/domain"
	"github.com/custodia-labs/archer/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

const providerName = "anthropic"

// Default configuration values.
const (
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-5-sonnet-latest"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 2048

	anthropicVersion = "2023-06-01"

	// jsonPrefill starts the assistant turn so the model continues a JSON object.
	jsonPrefill = "{"
)

// Config holds configuration for the Anthropic LLM service.
type Config struct {
	// APIKey is required.
	APIKey string

	// BaseURL defaults to https://api.anthropic.com.
	BaseURL string

	// Model defaults to claude-3-5-sonnet-latest.
	Model string

	// Timeout defaults to 120s.
	Timeout time.Duration
}

// LLMService talks to /v1/messages.
type LLMService struct {
	api   *llm.Client
	model string
}

type messagesRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	StopSeqs    []string  `json:"stop_sequences,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewLLMService creates a new Anthropic LLM service.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	header := http.Header{}
	header.Set("x-api-key", cfg.APIKey)
	header.Set("anthropic-version", anthropicVersion)
	return &LLMService{
		api:   llm.NewClient(providerName, cfg.BaseURL, cfg.Timeout, header),
		model: cfg.Model,
	}, nil
}

// Generate sends prompt as a single user message.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	req := s.request("", []driven.ChatMessage{{Role: driven.RoleUser, Content: prompt}}, opts.MaxTokens, opts.Temperature)
	req.StopSeqs = opts.StopWords
	return s.send(ctx, req, "")
}

// Chat conducts a multi-turn conversation. System messages are lifted
// into the request's system field. Anthropic has no JSON mode, so with
// opts.JSON the assistant turn is prefilled with "{".
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	var system []string
	var turns []driven.ChatMessage
	for _, m := range messages {
		if m.Role == driven.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		turns = append(turns, m)
	}

	req := s.request(strings.Join(system, "\n\n"), turns, opts.MaxTokens, opts.Temperature)

	prefill := ""
	if opts.JSON && len(turns) > 0 && turns[len(turns)-1].Role == driven.RoleUser {
		prefill = jsonPrefill
		req.Messages = append(req.Messages, message{Role: driven.RoleAssistant, Content: prefill})
	}
	return s.send(ctx, req, prefill)
}

func (s *LLMService) request(system string, turns []driven.ChatMessage, maxTokens int, temperature float64) messagesRequest {
	msgs := make([]message, 0, len(turns)+1)
	for _, m := range turns {
		msgs = append(msgs, message{Role: m.Role, Content: m.Content})
	}
	// max_tokens is mandatory for this API.
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}
	return messagesRequest{
		Model:       s.model,
		Messages:    msgs,
		MaxTokens:   maxTokens,
		System:      system,
		Temperature: &temperature,
	}
}

// send posts req and joins the text blocks of the answer behind prefill.
func (s *LLMService) send(ctx context.Context, req messagesRequest, prefill string) (string, error) {
	var resp messagesResponse
	if err := s.api.PostJSON(ctx, "/v1/messages", req, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("anthropic error: %s", resp.Error.Message)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("anthropic: %w", domain.ErrEmptyResponse)
	}
	return prefill + text.String(), nil
}

// ModelName returns the configured model.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping lists models, which checks the API key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Get(ctx, "/v1/models")
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
