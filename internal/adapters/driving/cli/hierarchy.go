package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/archer/internal/core/domain"
	"github.com/custodia-labs/archer/internal/core/ports/driven"
)

var (
	hierarchyGitHub  string
	hierarchyInclude []string
	hierarchyExclude []string
)

var hierarchyCmd = &cobra.Command{
	Use:   "hierarchy [path]",
	Short: "Print the file tree that would be sent to the model",
	Long: `Walks the repository with the same filters as 'archer analyze' and prints
the resulting tree. Useful to tune analysis.include and analysis.exclude
before spending tokens.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHierarchy,
}

func init() {
	hierarchyCmd.Flags().StringVar(&hierarchyGitHub, "github", "", "walk a GitHub repository (owner/repo[@ref])")
	hierarchyCmd.Flags().StringSliceVar(&hierarchyInclude, "include", nil, "only list files matching these globs")
	hierarchyCmd.Flags().StringSliceVar(&hierarchyExclude, "exclude", nil, "skip files matching these globs")
	rootCmd.AddCommand(hierarchyCmd)
}

func runHierarchy(cmd *cobra.Command, args []string) error {
	if workspace == nil || settingsService == nil {
		return errors.New("workspace not configured")
	}
	if hierarchyGitHub != "" && len(args) > 0 {
		return fmt.Errorf("%w: give either a path or --github, not both", domain.ErrInvalidInput)
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	loc := Location{Path: ".", GitHub: hierarchyGitHub}
	if len(args) > 0 {
		loc.Path = args[0]
	}
	source, err := workspace.OpenSource(cmd.Context(), loc)
	if err != nil {
		return fmt.Errorf("failed to open repository: %w", err)
	}

	tree, err := source.Hierarchy(cmd.Context(), driven.WalkFilter{
		Include:      append(append([]string{}, settings.Analysis.Include...), hierarchyInclude...),
		Exclude:      append(append([]string{}, settings.Analysis.Exclude...), hierarchyExclude...),
		MaxFileBytes: settings.Analysis.MaxFileBytes,
	})
	if err != nil {
		return fmt.Errorf("failed to walk repository: %w", err)
	}

	cmd.Print(tree.Render())
	dirs, files := tree.Count()
	cmd.Printf("\n%d directories, %d files\n", dirs, files)
	return nil
}
