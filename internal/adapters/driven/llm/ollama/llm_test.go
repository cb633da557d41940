package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/archer/internal/core/domain"
	"github.com/custodia-labs/archer/internal/core/ports/driven"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewLLMService(LLMConfig{BaseURL: server.URL, Model: "qwen2.5-coder"})
}

func TestNewLLMService_Defaults(t *testing.T) {
	svc := NewLLMService(LLMConfig{})

	assert.Equal(t, DefaultBaseURL, svc.api.BaseURL)
	assert.Equal(t, DefaultLLMModel, svc.ModelName())
	assert.Equal(t, DefaultLLMTimeout, svc.api.Timeout())
	assert.NoError(t, svc.Close())
}

func TestLLMService_Chat_JSONFormat(t *testing.T) {
	var got chatRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"{\"owner\":\"api\"}"},"done":true}`))
	})

	answer, err := svc.Chat(context.Background(), []driven.ChatMessage{
		{Role: driven.RoleUser, Content: "who owns main.go"},
	}, driven.ChatOptions{JSON: true, MaxTokens: 64})

	require.NoError(t, err)
	assert.Equal(t, `{"owner":"api"}`, answer)
	assert.Equal(t, "qwen2.5-coder", got.Model)
	assert.False(t, got.Stream)
	assert.Equal(t, "json", got.Format)
	require.NotNil(t, got.Options)
	assert.Equal(t, 64, got.Options.NumPredict)
}

func TestLLMService_Generate(t *testing.T) {
	var got generateRequest
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"response":"hi","done":true}`))
	})

	answer, err := svc.Generate(context.Background(), "say hi", driven.GenerateOptions{StopWords: []string{"."}})

	require.NoError(t, err)
	assert.Equal(t, "hi", answer)
	assert.Equal(t, "say hi", got.Prompt)
	assert.Equal(t, []string{"."}, got.Options.Stop)
}

func TestLLMService_Chat_Errors(t *testing.T) {
	t.Run("model missing", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"model not found"}`))
		})

		_, err := svc.Chat(context.Background(), nil, driven.ChatOptions{})

		require.ErrorIs(t, err, domain.ErrLLMUnavailable)
		assert.Contains(t, err.Error(), "model not found")
	})

	t.Run("bad json", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		})

		_, err := svc.Chat(context.Background(), nil, driven.ChatOptions{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode response")
	})

	t.Run("empty answer", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":""},"done":true}`))
		})

		_, err := svc.Chat(context.Background(), nil, driven.ChatOptions{})

		assert.ErrorIs(t, err, domain.ErrEmptyResponse)
	})

	t.Run("error field", func(t *testing.T) {
		svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"error":"context window exceeded"}`))
		})

		_, err := svc.Chat(context.Background(), nil, driven.ChatOptions{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "context window exceeded")
	})
}

func TestLLMService_Ping(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[]}`))
	})

	assert.NoError(t, svc.Ping(context.Background()))
}

func TestLLMService_Ping_Unreachable(t *testing.T) {
	svc := NewLLMService(LLMConfig{BaseURL: "http://127.0.0.1:1"})

	assert.Error(t, svc.Ping(context.Background()))
}
