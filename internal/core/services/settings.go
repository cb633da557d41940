package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/archer/internal/core/domain"
	"github.com/custodia-labs/archer/internal/core/ports/driven"
	"github.com/custodia-labs/archer/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyLLMProvider       = "llm.provider"
	keyLLMModel          = "llm.model"
	keyLLMBaseURL        = "llm.base_url"
	keyLLMAPIKey         = "llm.api_key"
	keyLLMTemperature    = "llm.temperature"
	keyLLMMaxTokens      = "llm.max_tokens"
	keyMaxAttempts       = "analysis.max_attempts"
	keyRequestsPerSecond = "analysis.requests_per_second"
	keyMaxFileTokens     = "analysis.max_file_tokens"
	keyMaxFileBytes      = "analysis.max_file_bytes"
	keyMaxFiles          = "analysis.max_files"
	keyInclude           = "analysis.include"
	keyExclude           = "analysis.exclude"
	keyCache             = "analysis.cache"
	keyDescribeMissing   = "analysis.describe_missing"
	keyOutputPath        = "output.path"
	keyOutputFormat      = "output.format"
	keyOutputDirection   = "output.direction"
)

// valueKind is how a raw "settings set" value is parsed before storage.
type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindBool
	kindList
)

// settableKeys maps every settable key to its value kind.
var settableKeys = map[string]valueKind{
	keyLLMProvider:       kindString,
	keyLLMModel:          kindString,
	keyLLMBaseURL:        kindString,
	keyLLMAPIKey:         kindString,
	keyLLMTemperature:    kindFloat,
	keyLLMMaxTokens:      kindInt,
	keyMaxAttempts:       kindInt,
	keyRequestsPerSecond: kindFloat,
	keyMaxFileTokens:     kindInt,
	keyMaxFileBytes:      kindInt,
	keyMaxFiles:          kindInt,
	keyInclude:           kindList,
	keyExclude:           kindList,
	keyCache:             kindBool,
	keyDescribeMissing:   kindBool,
	keyOutputPath:        kindString,
	keyOutputFormat:      kindString,
	keyOutputDirection:   kindString,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
// The aiValidator parameter is optional (can be nil).
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings.
// An API key missing from the config is taken from the provider's
// environment variable (OPENAI_API_KEY, ANTHROPIC_API_KEY).
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	provider := s.getProvider(keyLLMProvider, defaults.LLM.Provider)
	model := s.configStore.GetString(keyLLMModel)
	if model == "" {
		model = domain.DefaultLLMModels()[provider]
	}

	settings := &domain.AppSettings{
		LLM: domain.LLMSettings{
			Provider:    provider,
			Model:       model,
			BaseURL:     s.configStore.GetString(keyLLMBaseURL), // No default - empty is valid for cloud providers
			APIKey:      s.configStore.GetString(keyLLMAPIKey),
			Temperature: s.getFloat(keyLLMTemperature, defaults.LLM.Temperature),
			MaxTokens:   s.getInt(keyLLMMaxTokens, defaults.LLM.MaxTokens),
		},
		Analysis: domain.AnalysisSettings{
			MaxAttempts:       s.getInt(keyMaxAttempts, defaults.Analysis.MaxAttempts),
			RequestsPerSecond: s.getFloat(keyRequestsPerSecond, defaults.Analysis.RequestsPerSecond),
			MaxFileTokens:     s.getInt(keyMaxFileTokens, defaults.Analysis.MaxFileTokens),
			MaxFileBytes:      int64(s.getInt(keyMaxFileBytes, int(defaults.Analysis.MaxFileBytes))),
			MaxFiles:          s.getInt(keyMaxFiles, defaults.Analysis.MaxFiles),
			Include:           s.configStore.GetStringSlice(keyInclude),
			Exclude:           s.configStore.GetStringSlice(keyExclude),
			Cache:             s.getBool(keyCache, defaults.Analysis.Cache),
			DescribeMissing:   s.getBool(keyDescribeMissing, defaults.Analysis.DescribeMissing),
		},
		Output: domain.OutputSettings{
			Path:      s.getString(keyOutputPath, defaults.Output.Path),
			Format:    s.getFormat(defaults.Output.Format),
			Direction: strings.ToUpper(s.getString(keyOutputDirection, defaults.Output.Direction)),
		},
	}

	if settings.LLM.APIKey == "" && provider.APIKeyEnv() != "" && s.getenv != nil {
		settings.LLM.APIKey = s.getenv(provider.APIKeyEnv())
	}

	return settings, nil
}

// Save persists application settings.
// Keys still at their zero value are written too, so Save followed by Get
// round-trips exactly. The API key is only written when set.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMTemperature, settings.LLM.Temperature},
		{keyLLMMaxTokens, settings.LLM.MaxTokens},
		{keyMaxAttempts, settings.Analysis.MaxAttempts},
		{keyRequestsPerSecond, settings.Analysis.RequestsPerSecond},
		{keyMaxFileTokens, settings.Analysis.MaxFileTokens},
		{keyMaxFileBytes, int(settings.Analysis.MaxFileBytes)},
		{keyMaxFiles, settings.Analysis.MaxFiles},
		{keyCache, settings.Analysis.Cache},
		{keyDescribeMissing, settings.Analysis.DescribeMissing},
		{keyOutputPath, settings.Output.Path},
		{keyOutputFormat, string(settings.Output.Format)},
		{keyOutputDirection, settings.Output.Direction},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if settings.Analysis.Include != nil {
		if err := s.configStore.Set(keyInclude, settings.Analysis.Include); err != nil {
			return fmt.Errorf("save %s: %w", keyInclude, err)
		}
	}
	if settings.Analysis.Exclude != nil {
		if err := s.configStore.Set(keyExclude, settings.Analysis.Exclude); err != nil {
			return fmt.Errorf("save %s: %w", keyExclude, err)
		}
	}
	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}

	return nil
}

// Set updates a single setting by its dotted key.
// The raw value is parsed according to the key: numbers, booleans and
// comma-separated lists are stored with their native TOML types.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settableKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q (known: %s)",
			domain.ErrInvalidInput, key, strings.Join(s.Keys(), ", "))
	}

	var parsed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s expects an integer, got %q", domain.ErrInvalidInput, key, value)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s expects a number, got %q", domain.ErrInvalidInput, key, value)
		}
		parsed = f
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s expects true or false, got %q", domain.ErrInvalidInput, key, value)
		}
		parsed = b
	case kindList:
		parsed = splitList(value)
	default:
		parsed = value
	}

	switch key {
	case keyLLMProvider:
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidInput, value)
		}
	case keyOutputFormat:
		if !domain.OutputFormat(value).IsValid() {
			return fmt.Errorf("%w: output format %q", domain.ErrUnsupportedType, value)
		}
	case keyOutputDirection:
		parsed = strings.ToUpper(value)
		if !domain.IsValidDirection(parsed.(string)) {
			return fmt.Errorf("%w: diagram direction %q", domain.ErrInvalidInput, value)
		}
	}

	return s.configStore.Set(key, parsed)
}

// Keys lists the settable keys in sorted order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settableKeys))
	for k := range settableKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.LLM.Model = model
	} else {
		defaults := domain.DefaultLLMModels()
		if defaultModel, ok := defaults[provider]; ok {
			settings.LLM.Model = defaultModel
		}
	}

	// Set base URL based on provider type
	if provider.IsLocal() {
		// Local providers need a base URL
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = "http://localhost:11434"
		}
	} else {
		// Cloud providers don't need a custom base URL
		settings.LLM.BaseURL = ""
	}

	// Set API key
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks if current settings are usable for an analysis run.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getFormat(defaultVal domain.OutputFormat) domain.OutputFormat {
	format := domain.OutputFormat(s.configStore.GetString(keyOutputFormat))
	if !format.IsValid() {
		return defaultVal
	}
	return format
}

// splitList parses a comma-separated value, dropping empty items.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}
