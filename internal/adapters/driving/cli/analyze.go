package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/archer/internal/adapters/driving/tui/progress"
	"github.com/custodia-labs/archer/internal/core/domain"
	"github.com/custodia-labs/archer/internal/core/ports/driving"
	"github.com/custodia-labs/archer/internal/logger"
)

var (
	analyzeGitHub   string
	analyzeOutput   string
	analyzeFormat   string
	analyzeMaxFiles int
	analyzeInclude  []string
	analyzeExclude  []string
	analyzeNoCache  bool
	analyzeDescribe bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Infer services and dependencies of a repository",
	Long: `Walks the repository at path (the current directory by default), asks the
configured model which services it contains and what each file depends on,
stores the run and writes the diagram.

Use --github owner/repo[@ref] to analyse a GitHub repository without
cloning it. Set GITHUB_TOKEN for private repositories and higher rate limits.`,
	Example: `  archer analyze
  archer analyze ./shop --format yaml --output shop.yaml
  archer analyze --github acme/shop@main --max-files 200`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeGitHub, "github", "", "analyse a GitHub repository (owner/repo[@ref])")
	f.StringVarP(&analyzeOutput, "output", "o", "", "output file, - for stdout (default from settings)")
	f.StringVarP(&analyzeFormat, "format", "f", "", "output format: mermaid, yaml or json (default from settings)")
	f.IntVar(&analyzeMaxFiles, "max-files", 0, "analyse at most this many files")
	f.StringSliceVar(&analyzeInclude, "include", nil, "only analyse files matching these globs")
	f.StringSliceVar(&analyzeExclude, "exclude", nil, "skip files matching these globs")
	f.BoolVar(&analyzeNoCache, "no-cache", false, "ignore cached model responses")
	f.BoolVar(&analyzeDescribe, "describe", false, "ask the model to describe services without a description")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if workspace == nil || settingsService == nil || runService == nil {
		return errors.New("analyzer not configured")
	}
	if analyzeGitHub != "" && len(args) > 0 {
		return fmt.Errorf("%w: give either a path or --github, not both", domain.ErrInvalidInput)
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("%w\nRun 'archer settings llm' to configure a provider", err)
	}
	format, err := parseFormat(analyzeFormat, settings.Output.Format)
	if err != nil {
		return err
	}
	output := outputPath(analyzeOutput, settings.Output.Path, format)

	loc := Location{Path: ".", GitHub: analyzeGitHub}
	if len(args) > 0 {
		loc.Path = args[0]
	}

	ctx := cmd.Context()
	source, err := workspace.OpenSource(ctx, loc)
	if err != nil {
		return fmt.Errorf("failed to open repository: %w", err)
	}
	analyzer, err := workspace.NewAnalyzer(ctx, source, AnalyzerOptions{NoCache: analyzeNoCache})
	if err != nil {
		return err
	}

	req := driving.AnalyzeRequest{
		MaxFiles:        analyzeMaxFiles,
		Include:         analyzeInclude,
		Exclude:         analyzeExclude,
		DescribeMissing: analyzeDescribe,
	}

	var run *domain.AnalysisRun
	err = progress.Run(ctx, cmd.ErrOrStderr(), func(ctx context.Context, report driving.ProgressFunc) error {
		req.Progress = report
		var err error
		run, err = analyzer.Analyze(ctx, req)
		return err
	})
	if err != nil {
		if run == nil {
			return fmt.Errorf("analysis failed: %w", err)
		}
		// The run finished but was not stored; still write the diagram.
		logger.Warn("%v", err)
	}

	data, err := runService.RenderRun(run, format)
	if err != nil {
		return fmt.Errorf("failed to render: %w", err)
	}
	if err := writeOutput(cmd, output, data); err != nil {
		return err
	}

	summaryOut := cmd.OutOrStdout()
	if output == stdoutPath {
		summaryOut = cmd.ErrOrStderr()
	}
	printRunSummary(summaryOut, run, output)
	return nil
}

func printRunSummary(w io.Writer, run *domain.AnalysisRun, output string) {
	fmt.Fprintf(w, "Run %s: %d services, %d dependencies from %d files",
		shortID(run.ID), run.Graph.Len(), run.Graph.EdgeCount(), run.FilesAnalysed)
	if run.FilesFailed > 0 {
		fmt.Fprintf(w, " (%d failed)", run.FilesFailed)
	}
	fmt.Fprintln(w)
	if output != stdoutPath {
		fmt.Fprintf(w, "Diagram written to %s\n", output)
	}
}
