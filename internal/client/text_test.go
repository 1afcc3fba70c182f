package client

import (
	"testing"
)

const labeledReview = `Overall Score: 42/100

Overall Assessment:
The code works but has security issues.

Issues Found:
1. **SQL injection vulnerability** (HIGH)
User input flows into the query.
2. **Debug print statements** (LOW)
Remove before production.

Best Practices:
- Use type hints

Recommendations:
- Add tests
`

func TestReviewFromText(t *testing.T) {
	rev := ReviewFromText(labeledReview, "app.py")

	if rev.OverallAssessment != "The code works but has security issues." {
		t.Errorf("unexpected assessment %q", rev.OverallAssessment)
	}

	if len(rev.Issues) != 2 {
		t.Fatalf("expected 2 issues, got %d", len(rev.Issues))
	}
	first := rev.Issues[0]
	if first.Title != "SQL injection vulnerability" {
		t.Errorf("unexpected title %q", first.Title)
	}
	if first.Severity != "high" {
		t.Errorf("expected high severity, got %q", first.Severity)
	}
	if first.Description != "User input flows into the query." {
		t.Errorf("unexpected description %q", first.Description)
	}
	if first.ID != "issue_1" {
		t.Errorf("expected issue_1, got %q", first.ID)
	}
	if first.FilePath != "app.py" {
		t.Errorf("expected app.py, got %q", first.FilePath)
	}
	if rev.Issues[1].Severity != "low" {
		t.Errorf("expected low severity, got %q", rev.Issues[1].Severity)
	}

	// The blob's explicit score wins over the one its issues imply.
	if rev.Score != 42 {
		t.Errorf("expected score 42, got %d", rev.Score)
	}

	if len(rev.BestPractices) != 1 || rev.BestPractices[0] != "Use type hints" {
		t.Errorf("unexpected best practices %v", rev.BestPractices)
	}
	if len(rev.Recommendations) != 1 || rev.Recommendations[0] != "Add tests" {
		t.Errorf("unexpected recommendations %v", rev.Recommendations)
	}
}

func TestReviewFromTextComputedScore(t *testing.T) {
	text := "Issues Found:\n1. **Something** (HIGH)\ndetail"
	rev := ReviewFromText(text, "")

	// No explicit header, so the score comes from the issues.
	if rev.Score != 85 {
		t.Errorf("expected score 85, got %d", rev.Score)
	}
}

func TestReviewFromTextPlainItem(t *testing.T) {
	text := "Issues Found:\n1. Something looks off\nmore detail"
	rev := ReviewFromText(text, "")

	if len(rev.Issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(rev.Issues))
	}
	is := rev.Issues[0]
	if is.Title != "Something looks off" {
		t.Errorf("unexpected title %q", is.Title)
	}
	if is.Severity != "info" {
		t.Errorf("expected info severity for unrated item, got %q", is.Severity)
	}
	if is.Description != "more detail" {
		t.Errorf("unexpected description %q", is.Description)
	}
	if is.FilePath != "Submitted Code" {
		t.Errorf("expected display path fallback, got %q", is.FilePath)
	}
}

func TestReviewFromTextEmpty(t *testing.T) {
	rev := ReviewFromText("", "")

	if len(rev.Issues) != 0 {
		t.Errorf("expected no issues, got %d", len(rev.Issues))
	}
	if rev.Score != 100 {
		t.Errorf("expected score 100, got %d", rev.Score)
	}
}
