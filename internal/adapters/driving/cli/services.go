package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/archer/internal/core/domain"
)

var servicesCmd = &cobra.Command{
	Use:   "services [run-id]",
	Short: "List the services of a run and their dependencies",
	Long: `Prints every service of a stored run (the latest by default) with the
directory holding its code and the services it depends on. Services without
a directory are external dependencies such as databases or SaaS APIs.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServices,
}

func init() {
	rootCmd.AddCommand(servicesCmd)
}

func runServices(cmd *cobra.Command, args []string) error {
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
	if run.Graph == nil || run.Graph.Len() == 0 {
		cmd.Println("No services found.")
		return nil
	}

	cmd.Println(renderTable([]string{"Service", "Kind", "Root", "Depends on", "Description"}, serviceRows(run.Graph)))
	return nil
}

func serviceRows(g *domain.ServiceGraph) [][]string {
	services := g.SortedServices()
	rows := make([][]string, 0, len(services))
	for _, s := range services {
		kind := "internal"
		root := s.RootPath
		if s.IsExternal() {
			kind = "external"
			root = "-"
		}
		var deps []string
		for _, d := range g.DependenciesOf(s.ID) {
			deps = append(deps, d.Label())
		}
		depList := strings.Join(deps, ", ")
		if depList == "" {
			depList = "-"
		}
		rows = append(rows, []string{s.Label(), kind, root, depList, s.Description})
	}
	return rows
}
