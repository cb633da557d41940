package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/archer/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for archer resources.
	uriScheme = "archer://"

	// latestRunID addresses the most recent run in resource URIs.
	latestRunID = "latest"

	mermaidMIMEType = "text/vnd.mermaid"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "runs",
		Name:        "runs",
		Description: "Stored architecture analysis runs, newest first",
		MIMEType:    "application/json",
	}, s.handleRunsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "runs/{runId}/diagram",
		Name:        "run-diagram",
		Description: "Mermaid diagram of a run; use \"latest\" for the most recent run",
		MIMEType:    mermaidMIMEType,
	}, s.handleDiagramResource)
}

// handleRunsResource returns a JSON list of stored runs.
func (s *Server) handleRunsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	runs, err := s.ports.Runs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	infos := make([]RunInfo, len(runs))
	for i := range runs {
		infos[i] = runInfo(&runs[i])
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling runs: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleDiagramResource renders the Mermaid diagram of one run.
func (s *Server) handleDiagramResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	runID, ok := extractRunID(req.Params.URI)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if runID == latestRunID {
		runID = ""
	}

	data, err := s.ports.Runs.Render(ctx, runID, domain.OutputFormatMermaid)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("rendering diagram: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: mermaidMIMEType,
			Text:     string(data),
		}},
	}, nil
}

// extractRunID extracts the run ID from a URI like archer://runs/{runId}/diagram.
func extractRunID(uri string) (string, bool) {
	const prefix = uriScheme + "runs/"
	const suffix = "/diagram"

	if !strings.HasPrefix(uri, prefix) || !strings.HasSuffix(uri, suffix) {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(uri, prefix), suffix)
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}
