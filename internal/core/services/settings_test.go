package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/archer/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/archer/internal/core/domain"
)

// newTestSettingsService isolates the service from the real environment.
func newTestSettingsService(store *memory.ConfigStore, env map[string]string) *SettingsService {
	s := NewSettingsService(store, nil)
	s.getenv = func(key string) string { return env[key] }
	return s
}

type failingConfigStore struct {
	*memory.ConfigStore
	failOn string
}

func (f *failingConfigStore) Set(key string, value any) error {
	if f.failOn == "" || key == f.failOn {
		return assert.AnError
	}
	return f.ConfigStore.Set(key, value)
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := newTestSettingsService(memory.NewConfigStore(), nil)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAppSettings(), *settings)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("llm.provider", "ollama")
	_ = store.Set("llm.base_url", "http://gpu-box:11434")
	_ = store.Set("llm.temperature", 0.2)
	_ = store.Set("analysis.max_attempts", int64(3))
	_ = store.Set("analysis.requests_per_second", int64(2))
	_ = store.Set("analysis.max_files", 40)
	_ = store.Set("analysis.exclude", []any{"*.lock", "docs/**"})
	_ = store.Set("analysis.cache", false)
	_ = store.Set("output.format", "yaml")
	_ = store.Set("output.direction", "td")
	service := newTestSettingsService(store, nil)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.LLM.Provider)
	assert.Equal(t, "llama3.2", settings.LLM.Model, "model defaults per provider")
	assert.Equal(t, "http://gpu-box:11434", settings.LLM.BaseURL)
	assert.InDelta(t, 0.2, settings.LLM.Temperature, 1e-9)
	assert.Equal(t, 3, settings.Analysis.MaxAttempts)
	assert.InDelta(t, 2.0, settings.Analysis.RequestsPerSecond, 1e-9)
	assert.Equal(t, 40, settings.Analysis.MaxFiles)
	assert.Equal(t, []string{"*.lock", "docs/**"}, settings.Analysis.Exclude)
	assert.False(t, settings.Analysis.Cache)
	assert.Equal(t, domain.OutputFormatYAML, settings.Output.Format)
	assert.Equal(t, "TD", settings.Output.Direction)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("llm.provider", "invalid_provider")
	_ = store.Set("output.format", "svg")
	service := newTestSettingsService(store, nil)

	settings, err := service.Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.LLM.Provider, settings.LLM.Provider)
	assert.Equal(t, defaults.Output.Format, settings.Output.Format)
}

func TestSettingsService_Get_APIKeyFromEnvironment(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		stored   string
		env      map[string]string
		want     string
	}{
		{
			name:     "openai env",
			provider: "openai",
			env:      map[string]string{"OPENAI_API_KEY": "sk-env"},
			want:     "sk-env",
		},
		{
			name:     "anthropic env",
			provider: "anthropic",
			env:      map[string]string{"ANTHROPIC_API_KEY": "sk-ant", "OPENAI_API_KEY": "sk-env"},
			want:     "sk-ant",
		},
		{
			name:     "config wins over env",
			provider: "openai",
			stored:   "sk-config",
			env:      map[string]string{"OPENAI_API_KEY": "sk-env"},
			want:     "sk-config",
		},
		{
			name:     "ollama needs no key",
			provider: "ollama",
			env:      map[string]string{"OPENAI_API_KEY": "sk-env"},
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore()
			_ = store.Set("llm.provider", tt.provider)
			if tt.stored != "" {
				_ = store.Set("llm.api_key", tt.stored)
			}
			service := newTestSettingsService(store, tt.env)

			settings, err := service.Get()

			require.NoError(t, err)
			assert.Equal(t, tt.want, settings.LLM.APIKey)
		})
	}
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	store := memory.NewConfigStore()
	service := newTestSettingsService(store, nil)

	settings := domain.DefaultAppSettings()
	settings.LLM.Provider = domain.AIProviderAnthropic
	settings.LLM.Model = "claude-3-5-haiku-latest"
	settings.LLM.APIKey = "sk-ant"
	settings.Analysis.MaxFiles = 0
	settings.Analysis.Include = []string{"*.go"}
	settings.Analysis.Cache = false
	settings.Output.Direction = "BT"

	require.NoError(t, service.Save(&settings))

	got, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, settings, *got)
}

func TestSettingsService_Save_DoesNotWriteEmptyAPIKey(t *testing.T) {
	store := memory.NewConfigStore()
	service := newTestSettingsService(store, nil)
	settings := domain.DefaultAppSettings()

	require.NoError(t, service.Save(&settings))

	_, ok := store.Get("llm.api_key")
	assert.False(t, ok)
}

func TestSettingsService_Save_Error(t *testing.T) {
	store := &failingConfigStore{ConfigStore: memory.NewConfigStore(), failOn: "output.direction"}
	service := NewSettingsService(store, nil)
	settings := domain.DefaultAppSettings()

	err := service.Save(&settings)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "output.direction")
}

func TestSettingsService_Set(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		want    any
		wantErr error
	}{
		{name: "string", key: "llm.model", value: "gpt-4o", want: "gpt-4o"},
		{name: "provider", key: "llm.provider", value: "anthropic", want: "anthropic"},
		{name: "int", key: "analysis.max_files", value: "25", want: 25},
		{name: "float", key: "analysis.requests_per_second", value: "0.5", want: 0.5},
		{name: "bool", key: "analysis.cache", value: "false", want: false},
		{name: "list", key: "analysis.exclude", value: "*.lock, docs/**,,", want: []string{"*.lock", "docs/**"}},
		{name: "direction upper-cased", key: "output.direction", value: "rl", want: "RL"},
		{name: "format", key: "output.format", value: "json", want: "json"},
		{name: "unknown key", key: "search.mode", value: "x", wantErr: domain.ErrInvalidInput},
		{name: "bad int", key: "analysis.max_attempts", value: "many", wantErr: domain.ErrInvalidInput},
		{name: "bad float", key: "llm.temperature", value: "warm", wantErr: domain.ErrInvalidInput},
		{name: "bad bool", key: "analysis.describe_missing", value: "sometimes", wantErr: domain.ErrInvalidInput},
		{name: "bad provider", key: "llm.provider", value: "gemini", wantErr: domain.ErrInvalidInput},
		{name: "bad format", key: "output.format", value: "svg", wantErr: domain.ErrUnsupportedType},
		{name: "bad direction", key: "output.direction", value: "up", wantErr: domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore()
			service := newTestSettingsService(store, nil)

			err := service.Set(tt.key, tt.value)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				_, ok := store.Get(tt.key)
				assert.False(t, ok)
				return
			}
			require.NoError(t, err)
			got, ok := store.Get(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSettingsService_Keys(t *testing.T) {
	keys := NewSettingsService(memory.NewConfigStore(), nil).Keys()

	assert.Contains(t, keys, "llm.provider")
	assert.Contains(t, keys, "output.direction")
	assert.IsIncreasing(t, keys)
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	tests := []struct {
		name        string
		provider    domain.AIProvider
		model       string
		apiKey      string
		wantModel   string
		wantBaseURL string
		wantErr     bool
	}{
		{
			name:        "ollama with default model",
			provider:    domain.AIProviderOllama,
			wantModel:   "llama3.2",
			wantBaseURL: "http://localhost:11434",
		},
		{
			name:      "openai with custom model",
			provider:  domain.AIProviderOpenAI,
			model:     "gpt-4o",
			apiKey:    "sk-test",
			wantModel: "gpt-4o",
		},
		{
			name:     "anthropic without key",
			provider: domain.AIProviderAnthropic,
			wantErr:  true,
		},
		{
			name:     "invalid provider",
			provider: "gemini",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestSettingsService(memory.NewConfigStore(), nil)

			err := service.SetLLMProvider(tt.provider, tt.model, tt.apiKey)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			settings, err := service.Get()
			require.NoError(t, err)
			assert.Equal(t, tt.provider, settings.LLM.Provider)
			assert.Equal(t, tt.wantModel, settings.LLM.Model)
			assert.Equal(t, tt.wantBaseURL, settings.LLM.BaseURL)
			assert.Equal(t, tt.apiKey, settings.LLM.APIKey)
		})
	}
}

func TestSettingsService_SetLLMProvider_SaveError(t *testing.T) {
	store := &failingConfigStore{ConfigStore: memory.NewConfigStore(), failOn: "llm.provider"}
	service := NewSettingsService(store, nil)

	err := service.SetLLMProvider(domain.AIProviderOllama, "llama3.2", "")

	assert.Error(t, err)
}

func TestSettingsService_Validate(t *testing.T) {
	store := memory.NewConfigStore()
	service := newTestSettingsService(store, nil)

	// Default provider is OpenAI without a key.
	assert.ErrorIs(t, service.Validate(), domain.ErrInvalidInput)

	_ = store.Set("llm.api_key", "sk-test")
	assert.NoError(t, service.Validate())
}

func TestSettingsService_GetDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	assert.Equal(t, domain.DefaultAppSettings(), service.GetDefaults())
}

func TestSettingsService_ValidateLLMConfig(t *testing.T) {
	t.Run("nil validator", func(t *testing.T) {
		service := newTestSettingsService(memory.NewConfigStore(), nil)
		assert.NoError(t, service.ValidateLLMConfig())
	})

	t.Run("passes current settings", func(t *testing.T) {
		store := memory.NewConfigStore()
		_ = store.Set("llm.model", "gpt-4o")
		validator := &mockAIConfigValidator{}
		service := NewSettingsService(store, validator)

		require.NoError(t, service.ValidateLLMConfig())
		require.NotNil(t, validator.called)
		assert.Equal(t, "gpt-4o", validator.called.Model)
	})

	t.Run("error", func(t *testing.T) {
		validator := &mockAIConfigValidator{err: assert.AnError}
		service := NewSettingsService(memory.NewConfigStore(), validator)
		assert.ErrorIs(t, service.ValidateLLMConfig(), assert.AnError)
	})
}
