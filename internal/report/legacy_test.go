package report

import (
	"strings"
	"testing"

	"github.com/sprite-ai/coderev/internal/sections"
)

func TestFreeTextShape(t *testing.T) {
	text := FreeText(testReviewWithIssues())

	for _, want := range []string{
		"Overall Score: 80/100",
		"Overall Assessment:",
		"Issues Found:",
		"1. **SQL injection vulnerability detected** (HIGH)",
		"String concatenation in SQL query detected.",
		"2. **Debug print statements** (LOW)",
		"Best Practices:\n- Use type hints",
		"Recommendations:\n- Add tests",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}
}

func TestFreeTextNil(t *testing.T) {
	if got := FreeText(nil); got != "Analysis pending..." {
		t.Errorf("FreeText(nil) = %q", got)
	}
}

// The emitted blob must re-parse into the same sections it was built from.
func TestFreeTextRoundTrip(t *testing.T) {
	rev := testReviewWithIssues()
	p := sections.Parse(FreeText(rev))

	if p.Assessment != rev.OverallAssessment {
		t.Errorf("assessment = %q, want %q", p.Assessment, rev.OverallAssessment)
	}
	if len(p.Issues) != 2 {
		t.Fatalf("parsed %d issues, want 2", len(p.Issues))
	}
	if !strings.Contains(p.Issues[0], "SQL injection vulnerability detected") {
		t.Errorf("issue 0 = %q", p.Issues[0])
	}
	if !strings.Contains(p.Issues[1], "Debug print statements") {
		t.Errorf("issue 1 = %q", p.Issues[1])
	}
	if len(p.BestPractices) != 1 || p.BestPractices[0] != "Use type hints" {
		t.Errorf("best practices = %v", p.BestPractices)
	}
	if len(p.Recommendations) != 1 || p.Recommendations[0] != "Add tests" {
		t.Errorf("recommendations = %v", p.Recommendations)
	}
}
