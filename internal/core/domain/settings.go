package domain

import "fmt"

const unknownDescription = "Unknown"

// AIProvider identifies a chat-completion provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API, or any OpenAI-compatible endpoint.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// APIKeyEnv returns the environment variable consulted for the provider's key.
func (p AIProvider) APIKeyEnv() string {
	switch p {
	case AIProviderOpenAI:
		return "OPENAI_API_KEY"
	case AIProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

// LLMSettings holds chat-completion provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// Temperature is passed with every chat request.
	Temperature float64

	// MaxTokens caps each completion. Zero leaves the provider default.
	MaxTokens int
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// AnalysisSettings controls how a repository is walked and how often the model is called.
type AnalysisSettings struct {
	// MaxAttempts is the number of tries per LLM call before giving up.
	MaxAttempts int

	// RequestsPerSecond throttles LLM calls.
	RequestsPerSecond float64

	// MaxFileTokens truncates file content sent to the model.
	MaxFileTokens int

	// MaxFileBytes skips files larger than this.
	MaxFileBytes int64

	// MaxFiles stops dependency inference after this many files. Zero means no limit.
	MaxFiles int

	// Include limits analysed files to these glob patterns. Empty means all files.
	Include []string

	// Exclude skips files and directories matching these glob patterns.
	Exclude []string

	// Cache enables the LLM response cache.
	Cache bool

	// DescribeMissing asks the model for descriptions of services that lack one.
	DescribeMissing bool
}

// OutputFormat selects a renderer.
type OutputFormat string

// Available output formats.
const (
	OutputFormatMermaid OutputFormat = "mermaid"
	OutputFormatYAML    OutputFormat = "yaml"
	OutputFormatJSON    OutputFormat = "json"
)

// IsValid returns true if the format is recognised.
func (f OutputFormat) IsValid() bool {
	switch f {
	case OutputFormatMermaid, OutputFormatYAML, OutputFormatJSON:
		return true
	default:
		return false
	}
}

// Extension returns the conventional file extension for the format.
func (f OutputFormat) Extension() string {
	switch f {
	case OutputFormatYAML:
		return ".yaml"
	case OutputFormatJSON:
		return ".json"
	default:
		return ".mmd"
	}
}

// OutputSettings controls where and how the diagram is written.
type OutputSettings struct {
	// Path is the file the rendered diagram is written to.
	Path string

	// Format is the renderer used.
	Format OutputFormat

	// Direction is the Mermaid flowchart direction (TD, LR, BT, RL).
	Direction string
}

// AppSettings holds all application settings.
type AppSettings struct {
	LLM      LLMSettings
	Analysis AnalysisSettings
	Output   OutputSettings
}

// Validate checks that settings are usable for an analysis run.
func (s AppSettings) Validate() error {
	if !s.LLM.Provider.IsValid() {
		return fmt.Errorf("%w: llm provider %q", ErrInvalidInput, s.LLM.Provider)
	}
	if s.LLM.Provider.RequiresAPIKey() && s.LLM.APIKey == "" {
		return fmt.Errorf("%w: API key required for %s (set llm.api_key or %s)",
			ErrInvalidInput, s.LLM.Provider, s.LLM.Provider.APIKeyEnv())
	}
	if s.LLM.Temperature < 0 || s.LLM.Temperature > 2 {
		return fmt.Errorf("%w: temperature %.2f out of range [0,2]", ErrInvalidInput, s.LLM.Temperature)
	}
	if s.Analysis.MaxAttempts < 1 {
		return fmt.Errorf("%w: max_attempts must be at least 1", ErrInvalidInput)
	}
	if s.Analysis.RequestsPerSecond <= 0 {
		return fmt.Errorf("%w: requests_per_second must be positive", ErrInvalidInput)
	}
	if !s.Output.Format.IsValid() {
		return fmt.Errorf("%w: output format %q", ErrUnsupportedType, s.Output.Format)
	}
	if !IsValidDirection(s.Output.Direction) {
		return fmt.Errorf("%w: diagram direction %q", ErrInvalidInput, s.Output.Direction)
	}
	return nil
}

// IsValidDirection reports whether d is a Mermaid flowchart direction.
func IsValidDirection(d string) bool {
	switch d {
	case "TD", "TB", "BT", "LR", "RL":
		return true
	default:
		return false
	}
}

// DefaultAppSettings returns settings with sensible defaults.
// The LLM provider defaults to OpenAI but stays unconfigured until a key is supplied.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		LLM: LLMSettings{
			Provider:    AIProviderOpenAI,
			Model:       DefaultLLMModels()[AIProviderOpenAI],
			Temperature: 0,
		},
		Analysis: AnalysisSettings{
			MaxAttempts:       6,
			RequestsPerSecond: 1,
			MaxFileTokens:     6000,
			MaxFileBytes:      512 * 1024,
			Cache:             true,
		},
		Output: OutputSettings{
			Path:      "architecture.mmd",
			Format:    OutputFormatMermaid,
			Direction: "LR",
		},
	}
}

// AllLLMProviders returns providers that support chat completion.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}
