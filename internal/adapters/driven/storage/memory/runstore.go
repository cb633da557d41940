package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/archer/internal/core/domain"
	"github.com/custodia-labs/archer/internal/core/ports/driven"
)

// Ensure RunStore implements the interface.
var _ driven.RunStore = (*RunStore)(nil)

// RunStore is an in-memory implementation of driven.RunStore.
// Graphs are copied on the way in and out so callers cannot mutate stored runs.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]domain.AnalysisRun
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string]domain.AnalysisRun),
	}
}

// SaveRun inserts or replaces a run.
func (s *RunStore) SaveRun(_ context.Context, run *domain.AnalysisRun) error {
	if run == nil || run.ID == "" {
		return domain.ErrInvalidInput
	}
	stored := *run
	if run.Graph != nil {
		stored.Graph = run.Graph.Clone()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = stored
	return nil
}

// GetRun retrieves a run with its graph.
func (s *RunStore) GetRun(_ context.Context, id string) (*domain.AnalysisRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyRun(run), nil
}

// LatestRun returns the most recently started run, optionally for one repository.
func (s *RunStore) LatestRun(_ context.Context, repoRoot string) (*domain.AnalysisRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.AnalysisRun
	for _, run := range s.runs {
		if repoRoot != "" && run.RepoRoot != repoRoot {
			continue
		}
		if latest == nil || run.StartedAt.After(latest.StartedAt) {
			latest = copyRun(run)
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	return latest, nil
}

// ListRuns returns runs newest first, without graphs.
func (s *RunStore) ListRuns(_ context.Context) ([]domain.AnalysisRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.AnalysisRun, 0, len(s.runs))
	for _, run := range s.runs {
		run.Graph = nil
		result = append(result, run)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})
	return result, nil
}

// DeleteRun removes a run.
func (s *RunStore) DeleteRun(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runs, id)
	return nil
}

func copyRun(run domain.AnalysisRun) *domain.AnalysisRun {
	if run.Graph != nil {
		run.Graph = run.Graph.Clone()
	}
	return &run
}
