package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/archer/internal/adapters/driven/repo"
	"github.com/custodia-labs/archer/internal/adapters/driving/tui/progress"
	"github.com/custodia-labs/archer/internal/adapters/driving/watch"
	"github.com/custodia-labs/archer/internal/core/domain"
	"github.com/custodia-labs/archer/internal/core/ports/driven"
	"github.com/custodia-labs/archer/internal/core/ports/driving"
	"github.com/custodia-labs/archer/internal/logger"
)

var (
	watchOutput   string
	watchFormat   string
	watchDebounce time.Duration
	watchNoCache  bool
)

// localSource is a repository on disk that can be watched.
type localSource interface {
	driven.RepoSource
	Root() string
	Rel(abs string) (string, bool)
	Matcher(filter driven.WalkFilter) *repo.Matcher
}

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Analyse a repository and keep the diagram up to date",
	Long: `Runs a full analysis, then watches the repository for changes. Changed
files are re-analysed in batches and new dependencies are merged into the
stored run. Edges are never removed; run 'archer analyze' for a fresh graph.

Press Ctrl+C to stop.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	f := watchCmd.Flags()
	f.StringVarP(&watchOutput, "output", "o", "", "output file (default from settings)")
	f.StringVarP(&watchFormat, "format", "f", "", "output format: mermaid, yaml or json (default from settings)")
	f.DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "wait this long after the last change before re-analysing")
	f.BoolVar(&watchNoCache, "no-cache", false, "ignore cached model responses")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if workspace == nil || settingsService == nil || runService == nil {
		return errors.New("analyzer not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("%w\nRun 'archer settings llm' to configure a provider", err)
	}
	format, err := parseFormat(watchFormat, settings.Output.Format)
	if err != nil {
		return err
	}
	output := outputPath(watchOutput, settings.Output.Path, format)
	if output == stdoutPath {
		return fmt.Errorf("%w: watch needs an output file", domain.ErrInvalidInput)
	}

	loc := Location{Path: "."}
	if len(args) > 0 {
		loc.Path = args[0]
	}

	ctx := cmd.Context()
	opened, err := workspace.OpenSource(ctx, loc)
	if err != nil {
		return fmt.Errorf("failed to open repository: %w", err)
	}
	source, ok := opened.(localSource)
	if !ok {
		return fmt.Errorf("%w: watch only supports local repositories", domain.ErrInvalidInput)
	}
	analyzer, err := workspace.NewAnalyzer(ctx, source, AnalyzerOptions{NoCache: watchNoCache})
	if err != nil {
		return err
	}

	var run *domain.AnalysisRun
	err = progress.Run(ctx, cmd.ErrOrStderr(), func(ctx context.Context, report driving.ProgressFunc) error {
		var err error
		run, err = analyzer.Analyze(ctx, driving.AnalyzeRequest{Progress: report})
		return err
	})
	if err != nil {
		if run == nil {
			return fmt.Errorf("analysis failed: %w", err)
		}
		logger.Warn("%v", err)
	}
	if err := emitRun(cmd, run, format, output); err != nil {
		return err
	}
	printRunSummary(cmd.OutOrStdout(), run, output)

	filter := source.Matcher(driven.WalkFilter{
		Include:      settings.Analysis.Include,
		Exclude:      settings.Analysis.Exclude,
		MaxFileBytes: settings.Analysis.MaxFileBytes,
	})
	w, err := watch.New(source.Root(), filter, watchDebounce)
	if err != nil {
		return fmt.Errorf("failed to watch repository: %w", err)
	}

	// The diagram may live inside the repository; changes to it are ours.
	ignored := map[string]bool{}
	if abs, err := filepath.Abs(output); err == nil {
		if rel, ok := source.Rel(abs); ok {
			ignored[rel] = true
		}
	}

	cmd.Printf("Watching %s (%d directories). Press Ctrl+C to stop.\n", source.Root(), len(w.WatchedDirs()))
	return w.Run(ctx, func(ctx context.Context, paths []string) {
		changed := paths[:0]
		for _, p := range paths {
			if !ignored[p] {
				changed = append(changed, p)
			}
		}
		if len(changed) == 0 {
			return
		}

		before := run.Graph.EdgeCount()
		if err := analyzer.Reanalyze(ctx, run, changed); err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Warn("re-analysis failed: %v", err)
			}
			return
		}
		if err := emitRun(cmd, run, format, output); err != nil {
			logger.Warn("%v", err)
			return
		}
		cmd.Printf("%s  %d changed, %d new dependencies\n",
			time.Now().Format("15:04:05"), len(changed), run.Graph.EdgeCount()-before)
	})
}

func emitRun(cmd *cobra.Command, run *domain.AnalysisRun, format domain.OutputFormat, output string) error {
	data, err := runService.RenderRun(run, format)
	if err != nil {
		return fmt.Errorf("failed to render: %w", err)
	}
	return writeOutput(cmd, output, data)
}
