package driving

import (
	"context"

	"github.com/custodia-labs/archer/internal/core/domain"
)

// ProgressFunc receives progress snapshots while a run executes.
type ProgressFunc func(domain.Progress)

// AnalyzeRequest describes one analysis run.
type AnalyzeRequest struct {
	// MaxFiles overrides the configured file limit when positive.
	MaxFiles int

	// Include and Exclude are appended to the configured glob patterns.
	Include []string
	Exclude []string

	// DescribeMissing asks the model to describe services without a description.
	DescribeMissing bool

	// Progress is called after each step. May be nil.
	Progress ProgressFunc
}

// Analyzer infers services and dependencies from a repository.
type Analyzer interface {
	// Analyze walks the repository, queries the model and returns the finished run.
	Analyze(ctx context.Context, req AnalyzeRequest) (*domain.AnalysisRun, error)

	// Reanalyze re-infers dependencies for the given files and merges them into run.
	Reanalyze(ctx context.Context, run *domain.AnalysisRun, paths []string) error

	// InferServices asks the model for the services in a hierarchy.
	InferServices(ctx context.Context, hierarchy *domain.FileNode) ([]domain.Service, error)

	// InferDependencies asks the model which service owns a file and what it depends on.
	InferDependencies(ctx context.Context, file domain.SourceFile, known []domain.Service) (*domain.FileAnalysis, error)
}
