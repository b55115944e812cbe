package mcp

import "github.com/mark3labs/mcp-go/mcp"

// createActionTool defines the create_action MCP tool.
var createActionTool = mcp.NewTool("create_action",
	mcp.WithDescription("Convert a file into an action record in Needs_Action. The file is classified by extension and relocated next to the generated action markdown."),
	mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Path to the payload file to convert"),
	),
)

// listPendingTool defines the list_pending MCP tool.
var listPendingTool = mcp.NewTool("list_pending",
	mcp.WithDescription("List the action records currently waiting in Needs_Action."),
)

// getHealthTool defines the get_health MCP tool.
var getHealthTool = mcp.NewTool("get_health",
	mcp.WithDescription("Run a health check over the vault: directory access, log writability, backup space, failed-action backlog, recent error rate."),
)

// searchArchiveTool defines the search_archive MCP tool.
var searchArchiveTool = mcp.NewTool("search_archive",
	mcp.WithDescription("Semantic search over completed actions in Done."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 5)"),
	),
)
