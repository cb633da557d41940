package cli

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/archer/internal/core/domain"
	"github.com/custodia-labs/archer/internal/core/ports/driven"
	"github.com/custodia-labs/archer/internal/core/ports/driving"
)

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings    domain.AppSettings
	err         error
	validateErr error
	set         map[string]string
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	return m.err
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.err != nil {
		return m.err
	}
	if key == "bogus" {
		return domain.ErrInvalidInput
	}
	if m.set == nil {
		m.set = map[string]string{}
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.LLM.Provider = provider
	m.settings.LLM.Model = model
	m.settings.LLM.APIKey = apiKey
	return m.err
}

func (m *mockSettingsService) Validate() error {
	if m.validateErr != nil {
		return m.validateErr
	}
	return m.settings.Validate()
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettingsService) ValidateLLMConfig() error {
	return m.validateErr
}

func (m *mockSettingsService) Keys() []string {
	return []string{"llm.model", "llm.provider", "output.format"}
}

// mockRunService is a mock implementation of driving.RunService.
type mockRunService struct {
	runs    []domain.AnalysisRun
	err     error
	deleted []string

	renderedID     string
	renderedFormat domain.OutputFormat
}

func (m *mockRunService) List(_ context.Context) ([]domain.AnalysisRun, error) {
	return m.runs, m.err
}

func (m *mockRunService) Get(_ context.Context, id string) (*domain.AnalysisRun, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.runs {
		if id == "" || m.runs[i].ID == id {
			run := m.runs[i]
			return &run, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockRunService) Delete(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockRunService) Render(ctx context.Context, id string, format domain.OutputFormat) ([]byte, error) {
	run, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.RenderRun(run, format)
}

func (m *mockRunService) RenderRun(run *domain.AnalysisRun, format domain.OutputFormat) ([]byte, error) {
	m.renderedID = run.ID
	m.renderedFormat = format
	return []byte("graph LR\n    " + run.ID + "\n"), nil
}

// mockAnalyzer is a mock implementation of driving.Analyzer.
type mockAnalyzer struct {
	run *domain.AnalysisRun
	err error
	req driving.AnalyzeRequest
}

func (m *mockAnalyzer) Analyze(_ context.Context, req driving.AnalyzeRequest) (*domain.AnalysisRun, error) {
	m.req = req
	if req.Progress != nil {
		req.Progress(domain.Progress{Stage: domain.StageHierarchy})
		req.Progress(domain.Progress{Stage: domain.StageDependencies, Current: 1, Total: 1, Path: "services/api/main.go"})
		req.Progress(domain.Progress{Stage: domain.StageDone, Current: 1, Total: 1})
	}
	return m.run, m.err
}

func (m *mockAnalyzer) Reanalyze(_ context.Context, _ *domain.AnalysisRun, _ []string) error {
	return m.err
}

func (m *mockAnalyzer) InferServices(_ context.Context, _ *domain.FileNode) ([]domain.Service, error) {
	return nil, errors.New("not implemented")
}

func (m *mockAnalyzer) InferDependencies(
	_ context.Context, _ domain.SourceFile, _ []domain.Service,
) (*domain.FileAnalysis, error) {
	return nil, errors.New("not implemented")
}

// mockSource is a mock implementation of driven.RepoSource.
type mockSource struct {
	tree   *domain.FileNode
	filter driven.WalkFilter
}

func (m *mockSource) Root() string {
	return "github://acme/shop@main"
}

func (m *mockSource) Hierarchy(_ context.Context, filter driven.WalkFilter) (*domain.FileNode, error) {
	m.filter = filter
	return m.tree, nil
}

func (m *mockSource) ReadFile(_ context.Context, _ string) (string, error) {
	return "", domain.ErrNotFound
}

// mockWorkspace is a mock implementation of Workspace.
type mockWorkspace struct {
	source   *mockSource
	analyzer *mockAnalyzer
	openErr  error

	loc  Location
	opts AnalyzerOptions
}

func (m *mockWorkspace) OpenSource(_ context.Context, loc Location) (driven.RepoSource, error) {
	m.loc = loc
	if m.openErr != nil {
		return nil, m.openErr
	}
	return m.source, nil
}

func (m *mockWorkspace) NewAnalyzer(
	_ context.Context, _ driven.RepoSource, opts AnalyzerOptions,
) (driving.Analyzer, error) {
	m.opts = opts
	return m.analyzer, nil
}

func shopRun(id string) domain.AnalysisRun {
	g := domain.NewServiceGraph()
	g.AddDependency(
		domain.NewService("API", "Public REST API", "services/api"),
		domain.NewService("PostgreSQL", "", ""),
	)
	g.AddService(domain.NewService("Worker", "", "services/worker"))
	return domain.AnalysisRun{
		ID:            id,
		RepoRoot:      "/src/shop",
		Model:         "llama3.2",
		StartedAt:     time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
		FinishedAt:    time.Date(2026, 5, 1, 9, 2, 0, 0, time.UTC),
		FilesAnalysed: 12,
		FilesFailed:   1,
		Graph:         g,
	}
}

func shopTree() *domain.FileNode {
	root := domain.NewDirNode("", "")
	api := domain.NewDirNode("api", "api")
	api.AddChild(&domain.FileNode{Name: "main.go", Path: "api/main.go"})
	root.AddChild(api)
	root.AddChild(&domain.FileNode{Name: "go.mod", Path: "go.mod"})
	return root
}
