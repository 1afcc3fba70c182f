package analyze

import (
	"fmt"
	"strings"
	"time"

	"github.com/sprite-ai/coderev/internal/fix"
	"github.com/sprite-ai/coderev/internal/model"
	"github.com/sprite-ai/coderev/internal/stream"
)

// Result is the body of the terminal analysis_complete event.
type Result struct {
	ID                  string                 `json:"id"`
	Issues              []model.Issue          `json:"issues"`
	Recommendations     []model.Recommendation `json:"recommendations"`
	OverallScore        int                    `json:"overall_score"`
	Summary             string                 `json:"summary"`
	AnalyzedBy          []string               `json:"analyzed_by"`
	AnalysisTimeSeconds float64                `json:"analysis_time_seconds"`
}

// ResultOf flattens a finished review into the terminal result body. It
// is also used to replay stored analyses to late websocket subscribers.
func ResultOf(id string, rev *model.Review) Result {
	var secs float64
	if rev.Timing != nil {
		secs = rev.Timing.TotalSeconds
	}
	return Result{
		ID:                  id,
		Issues:              rev.Issues,
		Recommendations:     rev.FixProposals,
		OverallScore:        rev.Score,
		Summary:             rev.OverallAssessment,
		AnalyzedBy:          rev.AgentsUsed,
		AnalysisTimeSeconds: secs,
	}
}

// Run analyzes a submission with every agent and returns the complete
// review.
func Run(sub model.Submission) *model.Review {
	return Stream(sub, nil)
}

// Stream runs the analysis while emitting progress events in order:
// status, then per agent a start/issues/complete cycle, then generated
// recommendations, then the terminal analysis_complete event. A nil emit
// runs silently.
func Stream(sub model.Submission, emit func(stream.Event)) *model.Review {
	if emit == nil {
		emit = func(stream.Event) {}
	}

	start := time.Now()
	id := fmt.Sprintf("analysis_%d", start.Unix())
	agents := Agents()

	emit(stream.Event{
		Type:        stream.EventStatus,
		AnalysisID:  id,
		Status:      "started",
		Timestamp:   start.Format(time.RFC3339),
		TotalAgents: len(agents),
	})

	issues := []model.Issue{}
	names := make([]string, 0, len(agents))
	for i, ag := range agents {
		names = append(names, ag.Name)
		emit(stream.Event{
			Type:       stream.EventAgentStart,
			AnalysisID: id,
			Agent:      ag.Name,
			Progress:   float64(i) / float64(len(agents)) * 100,
		})

		agentStart := time.Now()
		found := ag.Analyze(sub.Code)
		for fi := range found {
			found[fi].FilePath = sub.Path()
			emit(stream.IssueFound(id, ag.Name, found[fi]))
		}
		issues = append(issues, found...)

		emit(stream.Event{
			Type:           stream.EventAgentComplete,
			AnalysisID:     id,
			Agent:          ag.Name,
			IssuesFound:    len(found),
			ProcessingTime: time.Since(agentStart).Seconds(),
			Progress:       float64(i+1) / float64(len(agents)) * 100,
		})
	}

	if len(issues) == 0 {
		issues = append(issues, genericIssue(sub.Path()))
	}

	emit(stream.Event{
		Type:        stream.EventStatus,
		AnalysisID:  id,
		Status:      "generating_recommendations",
		IssuesFound: len(issues),
	})
	recs := Recommend(sub.Code, issues)
	for i, rec := range recs {
		emit(stream.RecommendationGenerated(id, rec, float64(i+1)/float64(len(recs))*100))
	}

	secs := time.Since(start).Seconds()
	review := &model.Review{
		SubmissionID:      id,
		OverallAssessment: Summary(issues),
		Issues:            issues,
		FixProposals:      recs,
		Score:             model.Score(issues),
		AgentsUsed:        names,
		Timing:            &model.Timing{TotalSeconds: secs, TotalMs: int(secs * 1000)},
	}

	emit(stream.AnalysisComplete(id, ResultOf(id, review), secs))
	return review
}

// genericIssue stands in when no rule matched, so a review always has
// something actionable to show.
func genericIssue(path string) model.Issue {
	return model.Issue{
		ID:          "general_1",
		Type:        "code_structure",
		Severity:    model.SeverityLow.String(),
		Title:       "Code structure could be improved",
		Description: "Consider adding more documentation and error handling.",
		Explanation: "Add docstrings and proper error handling.",
		FilePath:    path,
	}
}

// Summary builds the one-paragraph review summary from issue counts.
func Summary(issues []model.Issue) string {
	if len(issues) == 0 {
		return "Code analysis completed successfully with no major issues found."
	}

	counts := make(map[string]int)
	for _, issue := range issues {
		counts[issue.Severity]++
	}

	var parts []string
	for _, sev := range []string{"critical", "high", "medium", "low"} {
		if c := counts[sev]; c > 0 {
			parts = append(parts, fmt.Sprintf("%d %s-severity", c, sev))
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("Found %d issues that should be reviewed.", len(issues))
	}
	return fmt.Sprintf("Found %d issues: %s issues that should be addressed.", len(issues), strings.Join(parts, ", "))
}

// Recommend produces one recommendation per issue: an automatic rewrite
// when a fix transform applies, otherwise a manual-fix placeholder.
func Recommend(code string, issues []model.Issue) []model.Recommendation {
	recs := make([]model.Recommendation, 0, len(issues))
	for _, issue := range issues {
		recs = append(recs, recommend(code, issue))
	}
	return recs
}

func recommend(code string, issue model.Issue) model.Recommendation {
	st := fix.NewState(code)
	if res, err := st.Apply(issue); err == nil && res.Changed {
		impact := "moderate"
		if issue.Severity == model.SeverityLow.String() {
			impact = "safe"
		}
		explanation := issue.Explanation
		if explanation == "" {
			explanation = "Automated fix"
		}
		return model.Recommendation{
			IssueID:        issue.ID,
			Title:          "Fix for " + issue.Title,
			Description:    explanation,
			OriginalCode:   res.Record.OriginalLine,
			SuggestedCode:  res.Record.FixedLine,
			Explanation:    explanation,
			Confidence:     0.8,
			AutoFixable:    true,
			RequiresReview: true,
			Impact:         impact,
		}
	}

	return model.Recommendation{
		IssueID:        issue.ID,
		Title:          "Manual fix required for " + issue.Title,
		Description:    issue.Description,
		OriginalCode:   issue.CodeSnippet,
		SuggestedCode:  "# TODO: Manual fix required",
		Explanation:    "This issue requires manual review and fixing",
		Confidence:     0.3,
		AutoFixable:    false,
		RequiresReview: true,
		Impact:         "moderate",
	}
}
