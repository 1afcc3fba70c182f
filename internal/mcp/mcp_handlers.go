package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sprite-ai/coderev/internal/analyze"
	"github.com/sprite-ai/coderev/internal/fix"
	"github.com/sprite-ai/coderev/internal/model"
	"github.com/sprite-ai/coderev/internal/store"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	store store.Store
}

func (h *toolHandler) handleReviewCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sub := model.Submission{
		Code:     request.GetString("code", ""),
		Language: request.GetString("language", ""),
		Filename: request.GetString("filename", ""),
	}
	if sub.Code == "" {
		return mcp.NewToolResultError("code is required"), nil
	}
	if !model.LanguageSupported(sub.Language) {
		return mcp.NewToolResultError(fmt.Sprintf("unsupported language: %s", sub.Language)), nil
	}

	stored := &store.Submission{Code: sub.Code, Language: sub.Language, Filename: sub.Filename}
	if err := h.store.SaveSubmission(ctx, stored); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("save submission failed: %v", err)), nil
	}

	rev := analyze.Run(sub)
	if err := h.store.SaveReview(ctx, stored.ID, rev); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("save review failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(rev, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleApplyFixes(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code := request.GetString("code", "")
	if code == "" {
		return mcp.NewToolResultError("code is required"), nil
	}

	var recs []model.Recommendation
	if err := json.Unmarshal([]byte(request.GetString("recommendations", "")), &recs); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid recommendations: %v", err)), nil
	}

	outcome := fix.ApplyRecommendations(code, recs)
	jsonData, _ := json.MarshalIndent(outcome, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

// historyEntry mirrors the HTTP listing shape for tool output.
type historyEntry struct {
	SubmissionID string `json:"submission_id"`
	Language     string `json:"language"`
	Filename     string `json:"filename,omitempty"`
	Score        int    `json:"score"`
	Summary      string `json:"summary,omitempty"`
	IssueCount   int    `json:"issue_count"`
	FixedCount   int    `json:"fixed_count"`
	CreatedAt    string `json:"created_at"`
}

func (h *toolHandler) handleReviewHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := 20
	if l := request.GetInt("limit", 0); l > 0 {
		limit = l
	}

	entries, err := h.store.ListSubmissions(ctx, limit, 0)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("history lookup failed: %v", err)), nil
	}

	out := make([]historyEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyEntry{
			SubmissionID: e.ID,
			Language:     e.Language,
			Filename:     e.Filename,
			Score:        e.Score,
			Summary:      e.Summary,
			IssueCount:   e.IssueCount,
			FixedCount:   e.FixedCount,
			CreatedAt:    e.CreatedAt.Format(time.RFC3339),
		})
	}

	jsonData, _ := json.MarshalIndent(out, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
