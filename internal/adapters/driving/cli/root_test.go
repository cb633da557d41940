package cli

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/archer/internal/core/domain"
)

type testServices struct {
	settings  *mockSettingsService
	runs      *mockRunService
	workspace *mockWorkspace
}

// setupTestServices installs mocks configured for a local Ollama model and
// returns a cleanup that restores the package state.
func setupTestServices() (*testServices, func()) {
	settings := domain.DefaultAppSettings()
	settings.LLM.Provider = domain.AIProviderOllama
	settings.LLM.Model = "llama3.2"

	run := shopRun("0f8e5c1a-2b3d-4e5f-8a9b-0c1d2e3f4a5b")
	ts := &testServices{
		settings: &mockSettingsService{settings: settings},
		runs:     &mockRunService{runs: []domain.AnalysisRun{run}},
		workspace: &mockWorkspace{
			source:   &mockSource{tree: shopTree()},
			analyzer: &mockAnalyzer{run: &run},
		},
	}
	SetServices(&Services{
		Settings:  ts.settings,
		Runs:      ts.runs,
		Workspace: ts.workspace,
	})

	return ts, func() {
		SetServices(nil)
		resetFlags()
	}
}

func resetFlags() {
	analyzeGitHub, analyzeOutput, analyzeFormat = "", "", ""
	analyzeMaxFiles = 0
	analyzeInclude, analyzeExclude = nil, nil
	analyzeNoCache, analyzeDescribe = false, false
	renderFormat, renderOutput = "", stdoutPath
	hierarchyGitHub = ""
	hierarchyInclude, hierarchyExclude = nil, nil
	watchOutput, watchFormat = "", ""
	watchNoCache = false
}

// execute runs the root command with args and returns combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "archer", rootCmd.Use)
	assert.Contains(t, rootCmd.Long, "Mermaid")
}

func TestRootCmd_HasCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"analyze", "render", "runs", "services", "hierarchy", "watch", "browse", "settings", "mcp", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	v := rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, v)
	assert.Equal(t, "v", v.Shorthand)
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("home"))
}

func TestResolveHome(t *testing.T) {
	t.Run("flag wins", func(t *testing.T) {
		t.Setenv(HomeEnv, "/from/env")
		dir := t.TempDir()
		got, err := ResolveHome(dir)
		require.NoError(t, err)
		assert.Equal(t, dir, got)
	})

	t.Run("environment", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv(HomeEnv, dir)
		got, err := ResolveHome("")
		require.NoError(t, err)
		assert.Equal(t, dir, got)
	})

	t.Run("user home", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv(HomeEnv, "")
		t.Setenv("HOME", home)
		got, err := ResolveHome("")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".archer"), got)
	})
}

func TestSetup_Bootstrap(t *testing.T) {
	ts, cleanup := setupTestServices()
	SetServices(nil)
	defer cleanup()
	defer SetBootstrap(nil)

	var gotHome string
	closed := false
	SetBootstrap(func(home string) (*Services, error) {
		gotHome = home
		return &Services{
			Settings:  ts.settings,
			Runs:      ts.runs,
			Workspace: ts.workspace,
			Close: func() error {
				closed = true
				return nil
			},
		}, nil
	})

	home := t.TempDir()
	rootCmd.SetArgs([]string{"--home", home, "runs", "list"})
	rootCmd.SetOut(new(bytes.Buffer))
	defer func() {
		rootCmd.SetArgs(nil)
		homeDir = ""
	}()

	err := Execute(t.Context())

	require.NoError(t, err)
	assert.Equal(t, home, gotHome)
	assert.True(t, closed)
}

func TestSetup_BootstrapError(t *testing.T) {
	_, cleanup := setupTestServices()
	SetServices(nil)
	defer cleanup()
	defer SetBootstrap(nil)

	SetBootstrap(func(string) (*Services, error) {
		return nil, errors.New("database locked")
	})

	_, err := execute(t, "--home", t.TempDir(), "runs", "list")
	defer func() { homeDir = "" }()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "database locked")
}
