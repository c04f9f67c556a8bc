// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/ipaudit/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the ipaudit MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"IP Audit Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
		client:  contract.NewLocalGitClient(),
	}

	// --- 1. Tool: classify_files ---
	s.AddTool(mcp.NewTool("classify_files",
		mcp.WithDescription("Classify every file of a repository as foreground, background or third-party code."),
		mcp.WithString("repo_path", mcp.Description("Path to the repository (defaults to the configured repository).")),
		mcp.WithString("findings_path", mcp.Description("Path to a YAML or JSON findings document from the scanners.")),
		mcp.WithString("origin", mcp.Description("Only return files of this origin."), mcp.Enum("foreground", "background", "third_party", "unknown")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of results returned.")),
	), h.handleClassifyFiles)

	// --- 2. Tool: score_files ---
	s.AddTool(mcp.NewTool("score_files",
		mcp.WithDescription("Score how cheaply each first-party file could be rewritten, most rewriteable first."),
		mcp.WithString("repo_path", mcp.Description("Path to the repository.")),
		mcp.WithString("findings_path", mcp.Description("Path to a findings document.")),
		mcp.WithBoolean("rewriteable_only", mcp.Description("Only return files above the rewrite threshold.")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of results.")),
	), h.handleScoreFiles)

	// --- 3. Tool: estimate_cost ---
	s.AddTool(mcp.NewTool("estimate_cost",
		mcp.WithDescription("Estimate the effort and cost of rewriting the foreground code."),
		mcp.WithString("repo_path", mcp.Description("Path to the repository.")),
		mcp.WithString("findings_path", mcp.Description("Path to a findings document.")),
		mcp.WithNumber("hourly_rate", mcp.Description("Override the hourly rate of the cost model.")),
		mcp.WithNumber("days_per_kloc", mcp.Description("Override the days of effort per thousand lines.")),
		mcp.WithString("currency", mcp.Description("Override the currency code of the estimate.")),
	), h.handleEstimateCost)

	// --- 4. Tool: generate_narrative ---
	s.AddTool(mcp.NewTool("generate_narrative",
		mcp.WithDescription("Generate executive, board and engineering summaries of the audit."),
		mcp.WithString("repo_path", mcp.Description("Path to the repository.")),
		mcp.WithString("findings_path", mcp.Description("Path to a findings document.")),
		mcp.WithString("audience", mcp.Description("Audience to return. Defaults to 'all'."), mcp.Enum("all", "executive", "board", "engineering")),
	), h.handleGenerateNarrative)

	return s
}

// StartMCPServer starts the ipaudit MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
