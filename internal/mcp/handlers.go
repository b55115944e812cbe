package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// registerTools adds all tool definitions and their handlers.
func (s *Server) registerTools() {
	s.mcp.AddTool(createActionTool, s.handleCreateAction)
	s.mcp.AddTool(listPendingTool, s.handleListPending)
	s.mcp.AddTool(getHealthTool, s.handleGetHealth)
	s.mcp.AddTool(searchArchiveTool, s.handleSearchArchive)
}

func (s *Server) handleCreateAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: path"), nil
	}

	rec, err := s.store.CreateAction(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("creating action failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Created action %s (type %s, priority %s).", rec.ID(), rec.Meta.Type, rec.Meta.Priority)), nil
}

func (s *Server) handleListPending(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	records, err := s.store.ListPending()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing pending actions failed: %v", err)), nil
	}
	if len(records) == 0 {
		return mcp.NewToolResultText("No pending actions."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d pending action(s):\n", len(records))
	for _, rec := range records {
		fmt.Fprintf(&b, "- %s [%s/%s] via %s\n", rec.ID(), rec.Meta.Type, rec.Meta.Priority, rec.Channel())
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleGetHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report := s.checker.Check()
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding health report failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleSearchArchive(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.index == nil {
		return mcp.NewToolResultError("archive search is not configured; set an OpenAI API key"), nil
	}

	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	limit := request.GetInt("limit", 5)
	if limit <= 0 {
		limit = 5
	}

	hits, err := s.index.Search(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("archive search failed: %v", err)), nil
	}
	if len(hits) == 0 {
		return mcp.NewToolResultText("No matching archived actions."), nil
	}

	var b strings.Builder
	for _, hit := range hits {
		fmt.Fprintf(&b, "## %s (similarity %.2f)\n%s\n\n", hit.ID, hit.Similarity, strings.TrimSpace(hit.Content))
	}
	return mcp.NewToolResultText(b.String()), nil
}
