// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sprite-ai/coderev/internal/model"
	"github.com/sprite-ai/coderev/internal/store"
)

// NewMCPServer initializes and configures the coderev MCP server without
// starting it. This is exposed for unit testing.
func NewMCPServer(version string, st store.Store) *server.MCPServer {
	s := server.NewMCPServer(
		"Coderev Review Server",
		version,
		server.WithLogging(),
	)

	h := &toolHandler{store: st}

	langs := model.SupportedLanguages()
	values := make([]string, len(langs))
	for i, l := range langs {
		values[i] = l.Value
	}

	// --- 1. Tool: review_code ---
	s.AddTool(mcp.NewTool("review_code",
		mcp.WithDescription("Run a multi-agent code review over a snippet and return the normalized result, including issues, fix recommendations, and an overall score."),
		mcp.WithString("code", mcp.Description("The source code to review."), mcp.Required()),
		mcp.WithString("language", mcp.Description("Programming language of the code."), mcp.Required(), mcp.Enum(values...)),
		mcp.WithString("filename", mcp.Description("Display filename for issue locations (defaults to 'Submitted Code').")),
	), h.handleReviewCode)

	// --- 2. Tool: apply_fixes ---
	s.AddTool(mcp.NewTool("apply_fixes",
		mcp.WithDescription("Apply fix recommendations to code via exact text replacement and return the rewritten result."),
		mcp.WithString("code", mcp.Description("The source code to rewrite."), mcp.Required()),
		mcp.WithString("language", mcp.Description("Programming language of the code.")),
		mcp.WithString("recommendations", mcp.Description("JSON array of recommendations, each with original_code and suggested_code."), mcp.Required()),
	), h.handleApplyFixes)

	// --- 3. Tool: review_history ---
	s.AddTool(mcp.NewTool("review_history",
		mcp.WithDescription("List stored submissions with their review scores and issue counts."),
		mcp.WithNumber("limit", mcp.Description("Limit the number of results returned (defaults to 20).")),
	), h.handleReviewHistory)

	return s
}

// StartMCPServer starts the coderev MCP server on stdio.
func StartMCPServer(_ context.Context, version string, st store.Store) error {
	s := NewMCPServer(version, st)
	return server.ServeStdio(s)
}
