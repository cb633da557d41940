package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/archer/internal/adapters/driving/cli"
	"github.com/custodia-labs/archer/internal/core/domain"
)

func setupBootstrap(t *testing.T) (*cli.Services, string) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	home := t.TempDir()
	svc, err := bootstrap(home)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, home
}

func TestBootstrap(t *testing.T) {
	svc, home := setupBootstrap(t)

	assert.NotNil(t, svc.Settings)
	assert.NotNil(t, svc.Runs)
	assert.NotNil(t, svc.Workspace)
	assert.FileExists(t, filepath.Join(home, dataDir, "archer.db"))

	runs, err := svc.Runs.List(t.Context())
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestWorkspace_OpenSource(t *testing.T) {
	svc, _ := setupBootstrap(t)

	t.Run("local", func(t *testing.T) {
		dir := t.TempDir()
		src, err := svc.Workspace.OpenSource(t.Context(), cli.Location{Path: dir})
		require.NoError(t, err)
		assert.Equal(t, dir, src.Root())
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := svc.Workspace.OpenSource(t.Context(), cli.Location{Path: filepath.Join(t.TempDir(), "nope")})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("github", func(t *testing.T) {
		src, err := svc.Workspace.OpenSource(t.Context(), cli.Location{GitHub: "acme/shop@v1.2.0"})
		require.NoError(t, err)
		assert.Equal(t, "github://acme/shop@v1.2.0", src.Root())
	})

	t.Run("bad github reference", func(t *testing.T) {
		_, err := svc.Workspace.OpenSource(t.Context(), cli.Location{GitHub: "acme"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestWorkspace_NewAnalyzer(t *testing.T) {
	svc, _ := setupBootstrap(t)
	src, err := svc.Workspace.OpenSource(t.Context(), cli.Location{Path: t.TempDir()})
	require.NoError(t, err)

	_, err = svc.Workspace.NewAnalyzer(t.Context(), src, cli.AnalyzerOptions{})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)

	require.NoError(t, svc.Settings.Set("llm.provider", "ollama"))
	analyzer, err := svc.Workspace.NewAnalyzer(t.Context(), src, cli.AnalyzerOptions{NoCache: true})
	require.NoError(t, err)
	assert.NotNil(t, analyzer)
}

func TestBootstrap_ReadOnlyHome(t *testing.T) {
	home := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(home, []byte("x"), 0o600))

	_, err := bootstrap(home)
	assert.Error(t, err)
}
