package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/archer/internal/core/domain"
	"github.com/custodia-labs/archer/internal/core/ports/driven"
	"github.com/custodia-labs/archer/internal/core/ports/driving"
)

// Ensure RunService implements the interface.
var _ driving.RunService = (*RunService)(nil)

// RunService exposes stored analysis runs and renders their graphs.
type RunService struct {
	store     driven.RunStore
	renderers driven.RendererRegistry
	opts      driven.RenderOptions
}

// NewRunService creates a new run service.
func NewRunService(store driven.RunStore, renderers driven.RendererRegistry, opts driven.RenderOptions) *RunService {
	return &RunService{
		store:     store,
		renderers: renderers,
		opts:      opts,
	}
}

// List returns stored runs newest first.
func (s *RunService) List(ctx context.Context) ([]domain.AnalysisRun, error) {
	return s.store.ListRuns(ctx)
}

// Get returns a run by ID. An empty ID returns the latest run.
func (s *RunService) Get(ctx context.Context, id string) (*domain.AnalysisRun, error) {
	if id == "" {
		return s.store.LatestRun(ctx, "")
	}
	return s.store.GetRun(ctx, id)
}

// Delete removes a run.
func (s *RunService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: run id required", domain.ErrInvalidInput)
	}
	if _, err := s.store.GetRun(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteRun(ctx, id)
}

// Render renders a run's graph in the given format.
func (s *RunService) Render(ctx context.Context, id string, format domain.OutputFormat) ([]byte, error) {
	run, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.RenderRun(run, format)
}

// RenderRun renders an in-memory run without looking it up.
func (s *RunService) RenderRun(run *domain.AnalysisRun, format domain.OutputFormat) ([]byte, error) {
	if run == nil || run.Graph == nil {
		return nil, fmt.Errorf("%w: run has no graph", domain.ErrInvalidInput)
	}
	renderer, err := s.renderers.Get(format)
	if err != nil {
		return nil, err
	}
	return renderer.Render(run.Graph, s.opts)
}
