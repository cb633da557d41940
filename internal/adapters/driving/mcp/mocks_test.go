package mcp

import (
	"context"
	"time"

	"github.com/custodia-labs/archer/internal/core/domain"
)

// mockRunService is a mock implementation of driving.RunService.
type mockRunService struct {
	runs      []domain.AnalysisRun
	err       error
	renderErr error

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
	if len(m.runs) == 0 {
		return nil, domain.ErrNotFound
	}
	if id == "" {
		run := m.runs[0]
		return &run, nil
	}
	for i := range m.runs {
		if m.runs[i].ID == id {
			run := m.runs[i]
			return &run, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockRunService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockRunService) Render(ctx context.Context, id string, format domain.OutputFormat) ([]byte, error) {
	if m.renderErr != nil {
		return nil, m.renderErr
	}
	run, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	m.renderedID = run.ID
	m.renderedFormat = format
	return []byte("graph LR\n    " + run.ID + "\n"), nil
}

func (m *mockRunService) RenderRun(run *domain.AnalysisRun, format domain.OutputFormat) ([]byte, error) {
	if m.renderErr != nil {
		return nil, m.renderErr
	}
	m.renderedID = run.ID
	m.renderedFormat = format
	return []byte("graph LR\n    " + run.ID + "\n"), nil
}

func shopRun(id string) domain.AnalysisRun {
	g := domain.NewServiceGraph()
	g.AddDependency(
		domain.NewService("API", "Public REST API", "services/api"),
		domain.NewService("PostgreSQL", "", ""),
	)
	return domain.AnalysisRun{
		ID:            id,
		RepoRoot:      "/src/shop",
		Model:         "gpt-4o-mini",
		StartedAt:     time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
		FilesAnalysed: 7,
		Graph:         g,
	}
}
