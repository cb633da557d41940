package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/archer/internal/adapters/driven/ai"
	"github.com/custodia-labs/archer/internal/adapters/driven/config/file"
	"github.com/custodia-labs/archer/internal/adapters/driven/render"
	"github.com/custodia-labs/archer/internal/adapters/driven/repo/filesystem"
	"github.com/custodia-labs/archer/internal/adapters/driven/repo/github"
	"github.com/custodia-labs/archer/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/archer/internal/adapters/driving/cli"
	"github.com/custodia-labs/archer/internal/core/domain"
	"github.com/custodia-labs/archer/internal/core/ports/driven"
	"github.com/custodia-labs/archer/internal/core/ports/driving"
	"github.com/custodia-labs/archer/internal/core/services"
	"github.com/custodia-labs/archer/internal/logger"
)

// GitHubTokenEnv holds the token used for GitHub repositories.
const GitHubTokenEnv = "GITHUB_TOKEN"

// Directories below the home directory.
const (
	dataDir    = "data"
	promptsDir = "prompts"
)

// bootstrap wires adapters and services below home.
func bootstrap(home string) (*cli.Services, error) {
	configStore, err := file.NewConfigStore(home)
	if err != nil {
		return nil, fmt.Errorf("config store: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	promptStore, err := file.NewPromptStore(filepath.Join(home, promptsDir), services.DefaultPrompts())
	if err != nil {
		return nil, fmt.Errorf("prompt store: %w", err)
	}

	store, err := sqlite.NewStore(filepath.Join(home, dataDir))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	logger.Debug("Database: %s", store.Path())

	runService := services.NewRunService(store.RunStore(), render.DefaultRegistry(), driven.RenderOptions{
		Direction: settings.Output.Direction,
	})

	return &cli.Services{
		Settings: settingsService,
		Runs:     runService,
		Workspace: &workspace{
			settings: settingsService,
			store:    store,
			prompts:  services.NewPromptBuilder(promptStore),
		},
		Close: store.Close,
	}, nil
}

// workspace opens local and GitHub repositories and builds analyzers
// that share the database and prompts.
type workspace struct {
	settings driving.SettingsService
	store    *sqlite.Store
	prompts  *services.PromptBuilder
}

func (w *workspace) OpenSource(ctx context.Context, loc cli.Location) (driven.RepoSource, error) {
	if loc.GitHub == "" {
		return filesystem.New(loc.Path)
	}
	ref, err := github.ParseRef(loc.GitHub)
	if err != nil {
		return nil, err
	}
	token := os.Getenv(GitHubTokenEnv)
	if token == "" {
		logger.Debug("%s not set, using unauthenticated GitHub access", GitHubTokenEnv)
	}
	return github.New(github.NewClient(ctx, token), ref), nil
}

func (w *workspace) NewAnalyzer(
	_ context.Context, source driven.RepoSource, opts cli.AnalyzerOptions,
) (driving.Analyzer, error) {
	settings, err := w.settings.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	llm, err := ai.CreateLLMService(&settings.LLM)
	if err != nil {
		return nil, err
	}
	if llm == nil {
		return nil, fmt.Errorf("%w: no LLM provider configured", domain.ErrLLMUnavailable)
	}

	var cache driven.LLMCache
	if settings.Analysis.Cache && !opts.NoCache {
		cache = w.store.LLMCache()
	}
	reliable := services.NewReliableLLM(
		llm,
		cache,
		services.NewRateLimiter(settings.Analysis.RequestsPerSecond, 1),
		services.NewRetrier(settings.Analysis.MaxAttempts),
	)

	return services.NewAnalyzerService(source, reliable, w.store.RunStore(), w.prompts, *settings), nil
}
