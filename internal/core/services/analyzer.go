package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/archer/internal/core/domain"
	"github.com/custodia-labs/archer/internal/core/ports/driven"
	"github.com/custodia-labs/archer/internal/core/ports/driving"
	"github.com/custodia-labs/archer/internal/logger"
)

// Ensure AnalyzerService implements the interface.
var _ driving.Analyzer = (*AnalyzerService)(nil)

// AnalyzerService infers services and their dependencies from a repository
// by asking a chat-completion model about its hierarchy and files.
type AnalyzerService struct {
	source   driven.RepoSource
	llm      driven.LLMService
	runStore driven.RunStore
	prompts  *PromptBuilder
	settings domain.AnalysisSettings
	chatOpts driven.ChatOptions

	now func() time.Time
}

// NewAnalyzerService creates a new analyzer.
// The runStore parameter is optional (can be nil); runs are then not persisted.
// A nil prompts builder uses the built-in prompts.
func NewAnalyzerService(
	source driven.RepoSource,
	llm driven.LLMService,
	runStore driven.RunStore,
	prompts *PromptBuilder,
	settings domain.AppSettings,
) *AnalyzerService {
	if prompts == nil {
		prompts = NewPromptBuilder(nil)
	}
	return &AnalyzerService{
		source:   source,
		llm:      llm,
		runStore: runStore,
		prompts:  prompts,
		settings: settings.Analysis,
		chatOpts: driven.ChatOptions{
			MaxTokens:   settings.LLM.MaxTokens,
			Temperature: settings.LLM.Temperature,
			JSON:        true,
		},
		now: time.Now,
	}
}

// Analyze walks the repository, infers services and per-file dependencies,
// optionally describes services lacking a description and persists the run.
func (a *AnalyzerService) Analyze(ctx context.Context, req driving.AnalyzeRequest) (*domain.AnalysisRun, error) {
	run := &domain.AnalysisRun{
		ID:        uuid.NewString(),
		RepoRoot:  a.source.Root(),
		Model:     a.llm.ModelName(),
		StartedAt: a.now(),
		Graph:     domain.NewServiceGraph(),
	}

	defer logger.Stage("Analysis")()
	logger.Debug("Run %s over %s with %s", run.ID, run.RepoRoot, run.Model)

	// Stage 1: hierarchy
	filter := driven.WalkFilter{
		Include:      append(append([]string{}, a.settings.Include...), req.Include...),
		Exclude:      append(append([]string{}, a.settings.Exclude...), req.Exclude...),
		MaxFileBytes: a.settings.MaxFileBytes,
	}
	tree, err := a.source.Hierarchy(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("walk repository: %w", err)
	}
	dirs, fileCount := tree.Count()
	logger.Debug("Hierarchy: %d directories, %d files", dirs, fileCount)
	report(req.Progress, domain.Progress{Stage: domain.StageHierarchy, Current: fileCount, Total: fileCount})

	// Stage 2: services
	registry := NewServiceRegistry()
	report(req.Progress, domain.Progress{Stage: domain.StageServices, Total: 1})
	services, err := a.InferServices(ctx, tree)
	if err != nil {
		if !tolerable(err) {
			return nil, err
		}
		logger.Warn("could not infer services: %v", err)
	}
	for _, s := range services {
		run.Graph.AddService(registry.Add(s))
	}
	logger.Debug("Inferred %d services", len(services))
	report(req.Progress, domain.Progress{Stage: domain.StageServices, Current: 1, Total: 1})

	// Stage 3: dependencies per file
	files := tree.Files()
	maxFiles := a.settings.MaxFiles
	if req.MaxFiles > 0 {
		maxFiles = req.MaxFiles
	}
	if maxFiles > 0 && len(files) > maxFiles {
		logger.Debug("Limiting analysis to %d of %d files, shallowest first", maxFiles, len(files))
		files = shallowestFirst(files)[:maxFiles]
	}

	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := a.analyseFile(ctx, registry, run, f.Path)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			logger.Warn("skipping %s: %v", f.Path, err)
			run.FilesFailed++
		case err != nil && !tolerable(err):
			return nil, err
		}
		report(req.Progress, domain.Progress{
			Stage:   domain.StageDependencies,
			Current: i + 1,
			Total:   len(files),
			Path:    f.Path,
			Err:     err,
		})
	}

	// Stage 4: descriptions
	if req.DescribeMissing || a.settings.DescribeMissing {
		if err := a.describeMissing(ctx, registry, tree, req.Progress); err != nil {
			return nil, err
		}
	}

	registry.Sync(run.Graph)
	run.FinishedAt = a.now()

	if a.runStore != nil {
		if err := a.runStore.SaveRun(ctx, run); err != nil {
			return run, fmt.Errorf("save run: %w", err)
		}
	}

	logger.Debug("Run %s: %d services, %d edges, %d files failed",
		run.ID, run.Graph.Len(), run.Graph.EdgeCount(), run.FilesFailed)
	report(req.Progress, domain.Progress{Stage: domain.StageDone, Current: len(files), Total: len(files)})

	return run, nil
}

// Reanalyze re-infers dependencies for the given files and merges the
// answers into run. Edges are only ever added. Files that no longer exist
// are skipped.
func (a *AnalyzerService) Reanalyze(ctx context.Context, run *domain.AnalysisRun, paths []string) error {
	if run == nil {
		return fmt.Errorf("%w: nil run", domain.ErrInvalidInput)
	}
	if run.Graph == nil {
		run.Graph = domain.NewServiceGraph()
	}

	defer logger.Stage("Reanalysis")()
	registry := NewServiceRegistryFromGraph(run.Graph)

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := a.analyseFile(ctx, registry, run, p)
		if errors.Is(err, domain.ErrNotFound) {
			logger.Debug("Skipping %s: %v", p, err)
			continue
		}
		if err != nil && !tolerable(err) {
			return err
		}
	}

	registry.Sync(run.Graph)
	run.FinishedAt = a.now()

	if a.runStore != nil {
		if err := a.runStore.SaveRun(ctx, run); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
	}
	return nil
}

// validatingLLM is implemented by ReliableLLM.
type validatingLLM interface {
	ChatValidated(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions, validate Validator) (string, error)
}

// chat keeps unparseable answers out of the cache when the model supports it.
func (a *AnalyzerService) chat(ctx context.Context, messages []driven.ChatMessage, validate Validator) (string, error) {
	if v, ok := a.llm.(validatingLLM); ok && validate != nil {
		return v.ChatValidated(ctx, messages, a.chatOpts, validate)
	}
	return a.llm.Chat(ctx, messages, a.chatOpts)
}

// InferServices asks the model for the services in a hierarchy.
// Services the model reports without a root path are placed at the repository root.
func (a *AnalyzerService) InferServices(ctx context.Context, hierarchy *domain.FileNode) ([]domain.Service, error) {
	if hierarchy == nil {
		return nil, fmt.Errorf("%w: nil hierarchy", domain.ErrInvalidInput)
	}

	rendered := TruncateToTokens(hierarchy.Render(), a.settings.MaxFileTokens)
	response, err := a.chat(ctx, a.prompts.InferServices(rendered), func(r string) error {
		_, err := ParseServices(r)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("infer services: %w", err)
	}

	services, err := ParseServices(response)
	if err != nil {
		logger.Debug("Unparseable services response: %q", response)
		return nil, fmt.Errorf("infer services: %w", err)
	}
	for i := range services {
		if services[i].RootPath == "" {
			services[i].RootPath = "."
		}
	}
	return services, nil
}

// InferDependencies asks the model which service owns file and what it depends on.
// An owner that is not among known is returned as a new service rooted at
// the file's directory.
func (a *AnalyzerService) InferDependencies(
	ctx context.Context, file domain.SourceFile, known []domain.Service,
) (*domain.FileAnalysis, error) {
	content := TruncateToTokens(file.Content, a.settings.MaxFileTokens)
	response, err := a.chat(ctx, a.prompts.InferDependencies(known, file.Path, content), func(r string) error {
		_, _, err := ParseDependencies(r)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("infer dependencies of %s: %w", file.Path, err)
	}

	ownerName, deps, err := ParseDependencies(response)
	if err != nil {
		logger.Debug("Unparseable dependencies response for %s: %q", file.Path, response)
		return nil, fmt.Errorf("infer dependencies of %s: %w", file.Path, err)
	}

	analysis := &domain.FileAnalysis{Path: file.Path, Dependencies: deps}
	if ownerName != "" {
		owner := domain.NewService(ownerName, "", path.Dir(file.Path))
		for _, k := range known {
			if k.ID == owner.ID {
				owner = k
				break
			}
		}
		if owner.ID != "" {
			analysis.Owner = &owner
		}
	}
	return analysis, nil
}

// analyseFile reads one file, infers its dependencies and records them.
// Tolerable LLM failures are logged and counted on the run.
func (a *AnalyzerService) analyseFile(
	ctx context.Context, registry *ServiceRegistry, run *domain.AnalysisRun, filePath string,
) error {
	content, err := a.source.ReadFile(ctx, filePath)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || ctx.Err() != nil {
			return err
		}
		logger.Warn("skipping %s: %v", filePath, err)
		run.FilesFailed++
		return nil
	}

	analysis, err := a.InferDependencies(ctx, domain.SourceFile{Path: filePath, Content: content}, registry.List())
	if err != nil {
		if tolerable(err) {
			logger.Warn("%v", err)
			run.FilesFailed++
		}
		return err
	}

	apply(registry, run.Graph, analysis)
	run.FilesAnalysed++
	return nil
}

// describeMissing fills empty descriptions of internal services.
func (a *AnalyzerService) describeMissing(
	ctx context.Context, registry *ServiceRegistry, tree *domain.FileNode, progress driving.ProgressFunc,
) error {
	var pending []domain.Service
	for _, s := range registry.List() {
		if s.Description == "" && !s.IsExternal() {
			pending = append(pending, s)
		}
	}

	for i, s := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}

		subtree := tree.Find(s.RootPath)
		if s.RootPath == "." || subtree == nil {
			subtree = tree
		}
		rendered := TruncateToTokens(subtree.Render(), a.settings.MaxFileTokens)

		response, err := a.chat(ctx, a.prompts.DescribeService(s.Name, rendered), nil)
		if err != nil {
			if !tolerable(err) {
				return fmt.Errorf("describe %s: %w", s.Name, err)
			}
			logger.Warn("could not describe %s: %v", s.Name, err)
		} else if desc := ParseDescription(response); desc != "" {
			registry.Describe(s.ID, desc)
		}

		report(progress, domain.Progress{
			Stage:   domain.StageDescriptions,
			Current: i + 1,
			Total:   len(pending),
			Path:    s.RootPath,
			Err:     err,
		})
	}
	return nil
}

// apply records a file analysis in the registry and graph.
// Without an owner the dependencies become nodes but no edge is drawn.
func apply(registry *ServiceRegistry, graph *domain.ServiceGraph, analysis *domain.FileAnalysis) {
	var owner domain.Service
	hasOwner := false
	if analysis.Owner != nil {
		owner = registry.Add(*analysis.Owner)
		hasOwner = owner.ID != ""
	}
	if !hasOwner {
		owner, hasOwner = registry.OwnerOf(analysis.Path)
	}
	if hasOwner {
		graph.AddService(owner)
	}

	for _, dep := range analysis.Dependencies {
		stored := registry.Add(dep)
		if stored.ID == "" {
			continue
		}
		graph.AddService(stored)
		if hasOwner {
			graph.AddDependency(owner, stored)
		}
	}
}

// tolerable reports whether an LLM failure should be logged and skipped
// rather than abort the run.
func tolerable(err error) bool {
	return errors.Is(err, domain.ErrMaxRetriesExceeded) ||
		errors.Is(err, domain.ErrNoJSON) ||
		errors.Is(err, domain.ErrEmptyResponse)
}

func report(fn driving.ProgressFunc, p domain.Progress) {
	if fn != nil {
		fn(p)
	}
}

// shallowestFirst orders files by directory depth, keeping walk order within
// a depth, so a file limit keeps root-level manifests such as Dockerfile.
func shallowestFirst(files []*domain.FileNode) []*domain.FileNode {
	sorted := slices.Clone(files)
	slices.SortStableFunc(sorted, func(x, y *domain.FileNode) int {
		return strings.Count(x.Path, "/") - strings.Count(y.Path, "/")
	})
	return sorted
}
