package driving

import (
	"context"

	"github.com/custodia-labs/archer/internal/core/domain"
)

// RunService exposes stored runs and renders their graphs.
type RunService interface {
	// List returns stored runs newest first.
	List(ctx context.Context) ([]domain.AnalysisRun, error)

	// Get returns a run by ID. An empty ID returns the latest run.
	Get(ctx context.Context, id string) (*domain.AnalysisRun, error)

	// Delete removes a run.
	Delete(ctx context.Context, id string) error

	// Render renders a run's graph in the given format.
	Render(ctx context.Context, id string, format domain.OutputFormat) ([]byte, error)

	// RenderRun renders an in-memory run, stored or not.
	RenderRun(run *domain.AnalysisRun, format domain.OutputFormat) ([]byte, error)
}
