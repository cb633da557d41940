package driven

import (
	"context"

	"github.com/custodia-labs/archer/internal/core/domain"
)

// RunStore persists analysis runs together with their service graphs.
type RunStore interface {
	// SaveRun inserts or replaces a run and its graph.
	SaveRun(ctx context.Context, run *domain.AnalysisRun) error

	// GetRun returns a run with its graph. Returns domain.ErrNotFound if absent.
	GetRun(ctx context.Context, id string) (*domain.AnalysisRun, error)

	// LatestRun returns the most recently started run, optionally for one repository root.
	// An empty repoRoot matches any run. Returns domain.ErrNotFound if none exist.
	LatestRun(ctx context.Context, repoRoot string) (*domain.AnalysisRun, error)

	// ListRuns returns runs newest first, without graphs.
	ListRuns(ctx context.Context) ([]domain.AnalysisRun, error)

	// DeleteRun removes a run and its graph.
	DeleteRun(ctx context.Context, id string) error
}
