package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/archer/internal/core/domain"
)

// ListRunsInput is the input schema for the list_runs tool.
type ListRunsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of runs to return, newest first (default all)"`
}

// ListRunsOutput is the output schema for the list_runs tool.
type ListRunsOutput struct {
	Runs  []RunInfo `json:"runs"`
	Count int       `json:"count"`
}

// RunInfo summarises a stored run.
type RunInfo struct {
	ID            string    `json:"id"`
	RepoRoot      string    `json:"repo_root"`
	Model         string    `json:"model"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at,omitempty"`
	FilesAnalysed int       `json:"files_analysed"`
	FilesFailed   int       `json:"files_failed"`
}

// DiagramInput is the input schema for the get_diagram tool.
type DiagramInput struct {
	RunID  string `json:"run_id,omitempty" jsonschema:"run to render; the latest run when empty"`
	Format string `json:"format,omitempty" jsonschema:"mermaid, yaml or json (default mermaid)"`
}

// DiagramOutput is the output schema for the get_diagram tool.
type DiagramOutput struct {
	RunID   string `json:"run_id"`
	Format  string `json:"format"`
	Diagram string `json:"diagram"`
}

// ServicesInput is the input schema for the list_services tool.
type ServicesInput struct {
	RunID string `json:"run_id,omitempty" jsonschema:"run to read; the latest run when empty"`
}

// ServicesOutput is the output schema for the list_services tool.
type ServicesOutput struct {
	RunID    string        `json:"run_id"`
	Services []ServiceInfo `json:"services"`
	Count    int           `json:"count"`
}

// ServiceInfo describes one service of a run's graph.
type ServiceInfo struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	RootPath    string   `json:"root_path,omitempty"`
	External    bool     `json:"external"`
	DependsOn   []string `json:"depends_on,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_runs",
		Description: "List stored architecture analysis runs, newest first",
	}, s.handleListRuns)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_diagram",
		Description: "Render the service dependency diagram of an analysis run",
	}, s.handleGetDiagram)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_services",
		Description: "List the services of an analysis run and what each depends on",
	}, s.handleListServices)
}

func (s *Server) handleListRuns(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListRunsInput,
) (*mcp.CallToolResult, ListRunsOutput, error) {
	runs, err := s.ports.Runs.List(ctx)
	if err != nil {
		return nil, ListRunsOutput{}, err
	}
	if input.Limit > 0 && len(runs) > input.Limit {
		runs = runs[:input.Limit]
	}

	output := ListRunsOutput{
		Runs:  make([]RunInfo, len(runs)),
		Count: len(runs),
	}
	for i := range runs {
		output.Runs[i] = runInfo(&runs[i])
	}
	return nil, output, nil
}

func (s *Server) handleGetDiagram(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DiagramInput,
) (*mcp.CallToolResult, DiagramOutput, error) {
	format := domain.OutputFormat(input.Format)
	if format == "" {
		format = domain.OutputFormatMermaid
	}

	run, err := s.ports.Runs.Get(ctx, input.RunID)
	if err != nil {
		return nil, DiagramOutput{}, err
	}
	data, err := s.ports.Runs.Render(ctx, run.ID, format)
	if err != nil {
		return nil, DiagramOutput{}, err
	}

	return nil, DiagramOutput{
		RunID:   run.ID,
		Format:  string(format),
		Diagram: string(data),
	}, nil
}

func (s *Server) handleListServices(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ServicesInput,
) (*mcp.CallToolResult, ServicesOutput, error) {
	run, err := s.ports.Runs.Get(ctx, input.RunID)
	if err != nil {
		return nil, ServicesOutput{}, err
	}

	output := ServicesOutput{RunID: run.ID, Services: []ServiceInfo{}}
	if run.Graph != nil {
		for _, svc := range run.Graph.SortedServices() {
			info := ServiceInfo{
				ID:          svc.ID,
				Name:        svc.Name,
				Description: svc.Description,
				RootPath:    svc.RootPath,
				External:    svc.IsExternal(),
			}
			for _, dep := range run.Graph.DependenciesOf(svc.ID) {
				info.DependsOn = append(info.DependsOn, dep.ID)
			}
			output.Services = append(output.Services, info)
		}
	}
	output.Count = len(output.Services)
	return nil, output, nil
}

func runInfo(run *domain.AnalysisRun) RunInfo {
	return RunInfo{
		ID:            run.ID,
		RepoRoot:      run.RepoRoot,
		Model:         run.Model,
		StartedAt:     run.StartedAt,
		FinishedAt:    run.FinishedAt,
		FilesAnalysed: run.FilesAnalysed,
		FilesFailed:   run.FilesFailed,
	}
}
