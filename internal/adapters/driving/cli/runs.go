package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage stored analysis runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show details of a run (latest by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRunsShow,
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete [run-id]",
	Short: "Delete a stored run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsDelete,
}

func init() {
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsDeleteCmd)
	rootCmd.AddCommand(runsCmd)
}

func runRunsList(cmd *cobra.Command, _ []string) error {
	if runService == nil {
		return errors.New("run service not configured")
	}

	runs, err := runService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		cmd.Println("No runs yet. Run 'archer analyze' first.")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for i := range runs {
		r := &runs[i]
		rows = append(rows, []string{
			r.ID,
			r.RepoRoot,
			r.Model,
			formatTime(r.StartedAt),
			strconv.Itoa(r.FilesAnalysed),
			strconv.Itoa(r.FilesFailed),
		})
	}
	cmd.Println(renderTable([]string{"ID", "Repository", "Model", "Started", "Files", "Failed"}, rows))
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	if runService == nil {
		return errors.New("run service not configured")
	}

	id := ""
	if len(args) > 0 {
		id = args[0]
	}
	run, err := runService.Get(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}

	cmd.Printf("ID:         %s\n", run.ID)
	cmd.Printf("Repository: %s\n", run.RepoRoot)
	cmd.Printf("Model:      %s\n", run.Model)
	cmd.Printf("Started:    %s\n", formatTime(run.StartedAt))
	cmd.Printf("Finished:   %s\n", formatTime(run.FinishedAt))
	if d := run.Duration(); d > 0 {
		cmd.Printf("Duration:   %s\n", d.Round(1e9))
	}
	cmd.Printf("Files:      %d analysed, %d failed\n", run.FilesAnalysed, run.FilesFailed)
	if run.Graph != nil {
		cmd.Printf("Graph:      %d services, %d dependencies\n", run.Graph.Len(), run.Graph.EdgeCount())
	}
	return nil
}

func runRunsDelete(cmd *cobra.Command, args []string) error {
	if runService == nil {
		return errors.New("run service not configured")
	}
	if err := runService.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	cmd.Printf("Deleted run %s\n", args[0])
	return nil
}
