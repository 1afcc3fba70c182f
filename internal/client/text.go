package client

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sprite-ai/coderev/internal/model"
	"github.com/sprite-ai/coderev/internal/normalize"
	"github.com/sprite-ai/coderev/internal/sections"
)

// ReviewText reviews code through the legacy free-text endpoint and
// normalizes the labeled blob into a review.
func (c *Client) ReviewText(ctx context.Context, sub model.Submission) (*model.Review, error) {
	var resp struct {
		Review       string `json:"review"`
		SubmissionID string `json:"submission_id"`
	}
	if err := c.postJSON(ctx, "/review", sub, &resp); err != nil {
		return nil, err
	}

	rev := ReviewFromText(resp.Review, sub.Filename)
	rev.SubmissionID = resp.SubmissionID
	return rev, nil
}

var (
	// itemHeadRe matches the "**Title** (SEVERITY)" head line of one
	// issue item.
	itemHeadRe = regexp.MustCompile(`^\*\*(.+?)\*\*\s*\((\w+)\)\s*$`)
	scoreRe    = regexp.MustCompile(`Overall Score:\s*(\d+)\s*/\s*100`)
)

// ReviewFromText converts a labeled free-text review blob into a
// normalized review. The blob's explicit "Overall Score: N/100" header
// wins over the score computed from its issues; filename seeds file paths
// for issues that carry none.
func ReviewFromText(text, filename string) *model.Review {
	parsed := sections.Parse(text)

	issues := make([]model.Issue, 0, len(parsed.Issues))
	for i, item := range parsed.Issues {
		issues = append(issues, issueFromItem(item, i+1, filename))
	}

	score := model.Score(issues)
	if m := scoreRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			score = n
		}
	}

	return &model.Review{
		OverallAssessment: parsed.Assessment,
		Issues:            issues,
		BestPractices:     parsed.BestPractices,
		SecurityConcerns:  parsed.SecurityConcerns,
		PerformanceNotes:  parsed.Performance,
		Recommendations:   parsed.Recommendations,
		Score:             score,
	}
}

// issueFromItem builds one issue from a numbered item. An item opening
// with a "**Title** (SEVERITY)" line keeps that title and severity; any
// other item becomes an unrated issue titled by its first line.
func issueFromItem(item string, n int, filename string) model.Issue {
	head, rest, _ := strings.Cut(item, "\n")

	raw := map[string]any{
		"id":          fmt.Sprintf("issue_%d", n),
		"title":       strings.TrimSpace(head),
		"description": strings.TrimSpace(rest),
	}
	if m := itemHeadRe.FindStringSubmatch(strings.TrimSpace(head)); m != nil {
		raw["title"] = strings.TrimSpace(m[1])
		raw["severity"] = m[2]
	}
	return normalize.Issue(raw, filename)
}
