package services

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/archer/internal/core/domain"
	"github.com/custodia-labs/archer/internal/core/ports/driven"
)

func TestDefaultPrompts_Placeholders(t *testing.T) {
	prompts := DefaultPrompts()

	tests := []struct {
		name string
		want int
	}{
		{driven.PromptSystem, 0},
		{driven.PromptInferServices, 1},
		{driven.PromptInferDependencies, 3},
		{driven.PromptDescribeService, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := prompts[tt.name]
			require.True(t, ok)
			assert.Equal(t, tt.want, strings.Count(p, "%s"))
		})
	}

	// Returned map is a copy.
	prompts[driven.PromptSystem] = "changed"
	assert.NotEqual(t, "changed", DefaultPrompts()[driven.PromptSystem])
}

func TestPromptBuilder_InferDependencies(t *testing.T) {
	b := NewPromptBuilder(nil)
	known := []domain.Service{
		domain.NewService("api", "Public API", "services/api"),
		domain.NewService("Postgres", "", ""),
	}

	msgs := b.InferDependencies(known, "services/api/db.go", "package db")

	require.Len(t, msgs, 2)
	assert.Equal(t, driven.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "JSON")
	assert.Equal(t, driven.RoleUser, msgs[1].Role)
	assert.Contains(t, msgs[1].Content, "- api (services/api): Public API")
	assert.Contains(t, msgs[1].Content, "- Postgres")
	assert.Contains(t, msgs[1].Content, "File: services/api/db.go")
	assert.Contains(t, msgs[1].Content, "package db")
	assert.NotContains(t, msgs[1].Content, "%!")
}

func TestPromptBuilder_UsesStore(t *testing.T) {
	store := &mockPromptStore{prompts: map[string]string{
		driven.PromptSystem:          "custom system",
		driven.PromptDescribeService: "Describe %s given %s",
	}}
	b := NewPromptBuilder(nil)
	b.SetPromptStore(store)

	msgs := b.DescribeService("api", "api/\n  main.go\n")
	assert.Equal(t, "custom system", msgs[0].Content)
	assert.Equal(t, "Describe api given api/\n  main.go\n", msgs[1].Content)

	// Missing from the store: built-in default.
	msgs = b.InferServices("./\n")
	assert.Contains(t, msgs[1].Content, `"services"`)
}

func TestPromptBuilder_StoreErrorFallsBack(t *testing.T) {
	b := NewPromptBuilder(&mockPromptStore{err: errors.New("disk gone")})

	msgs := b.InferServices("./\n")

	assert.Equal(t, DefaultPrompts()[driven.PromptSystem], msgs[0].Content)
}

func TestFormatServiceList_Empty(t *testing.T) {
	assert.Equal(t, "(none yet)", FormatServiceList(nil))
}

func TestTruncateToTokens(t *testing.T) {
	t.Run("short text unchanged", func(t *testing.T) {
		assert.Equal(t, "hello", TruncateToTokens("hello", 10))
	})

	t.Run("zero budget unchanged", func(t *testing.T) {
		long := strings.Repeat("x", 1000)
		assert.Equal(t, long, TruncateToTokens(long, 0))
	})

	t.Run("cuts at newline", func(t *testing.T) {
		text := strings.Repeat("a", 30) + "\n" + strings.Repeat("b", 30)
		got := TruncateToTokens(text, 10)
		assert.Equal(t, strings.Repeat("a", 30)+truncationMarker, got)
	})

	t.Run("cuts on rune boundary", func(t *testing.T) {
		text := strings.Repeat("é", 50)
		got := TruncateToTokens(text, 5)
		body := strings.TrimSuffix(got, truncationMarker)
		assert.True(t, strings.HasSuffix(got, truncationMarker))
		assert.True(t, utf8.ValidString(body))
		assert.LessOrEqual(t, len(body), 20)
	})
}
