package driven

import "context"

// LLMService is a chat-completion backend. Adapters exist for OpenAI
// compatible servers, Anthropic and Ollama.
type LLMService interface {
	// Generate sends a single user prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)
	ModelName() string
	// Ping makes the cheapest authenticated request the provider offers.
	Ping(ctx context.Context) error
	Close() error
}

// GenerateOptions tunes a single-prompt completion.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64
	StopWords   []string
}

// Chat message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatOptions tunes a chat completion. Zero MaxTokens leaves the
// provider default in place.
type ChatOptions struct {
	MaxTokens   int
	Temperature float64
	// JSON asks for a JSON-only answer on providers that support it.
	JSON bool
}
