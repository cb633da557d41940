package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	renderFormat string
	renderOutput string
)

var renderCmd = &cobra.Command{
	Use:   "render [run-id]",
	Short: "Render a stored run",
	Long: `Renders the graph of a stored run without calling the model again.
The latest run is used when no ID is given. Output goes to stdout unless
--output is set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "", "output format: mermaid, yaml or json (default from settings)")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", stdoutPath, "output file, - for stdout")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	if runService == nil || settingsService == nil {
		return errors.New("run service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	format, err := parseFormat(renderFormat, settings.Output.Format)
	if err != nil {
		return err
	}

	id := ""
	if len(args) > 0 {
		id = args[0]
	}
	data, err := runService.Render(cmd.Context(), id, format)
	if err != nil {
		return fmt.Errorf("failed to render run: %w", err)
	}
	return writeOutput(cmd, renderOutput, data)
}
