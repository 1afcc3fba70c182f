package fix

import (
	"strings"
	"testing"

	"github.com/sprite-ai/coderev/internal/model"
)

func TestApplyRecommendations(t *testing.T) {
	code := "print(\"a\")\nvalue = slow()\nprint(\"a\")"
	recs := []model.Recommendation{
		{IssueID: "r1", OriginalCode: "print(\"a\")", SuggestedCode: "logging.info(\"a\")"},
		{IssueID: "r2", OriginalCode: "slow()", SuggestedCode: "fast()"},
	}

	out := ApplyRecommendations(code, recs)

	if out.Total != 2 || out.Applied != 2 || out.Failed != 0 {
		t.Errorf("counts = %d/%d/%d, want 2/2/0", out.Total, out.Applied, out.Failed)
	}
	// Replacement hits every occurrence of the snippet.
	if strings.Contains(out.FinalCode, "print") {
		t.Errorf("print survived: %q", out.FinalCode)
	}
	if !strings.Contains(out.FinalCode, "fast()") {
		t.Errorf("second rec not applied: %q", out.FinalCode)
	}
	if out.Diff == "" {
		t.Error("diff empty for changed code")
	}
}

func TestApplyRecommendationsEmptyOriginalFails(t *testing.T) {
	out := ApplyRecommendations("x = 1", []model.Recommendation{
		{IssueID: "r1", OriginalCode: "   ", SuggestedCode: "y = 2"},
		{IssueID: "r2", OriginalCode: "x = 1", SuggestedCode: "x = 2"},
	})

	if out.Applied != 1 || out.Failed != 1 {
		t.Fatalf("counts = applied %d failed %d, want 1/1", out.Applied, out.Failed)
	}
	if out.Results[0].Success || out.Results[0].Error == "" {
		t.Errorf("empty-original result = %+v", out.Results[0])
	}
	if out.FinalCode != "x = 2" {
		t.Errorf("final code = %q", out.FinalCode)
	}
}

func TestApplyRecommendationsMissingSnippetStillApplies(t *testing.T) {
	out := ApplyRecommendations("x = 1", []model.Recommendation{
		{IssueID: "r1", OriginalCode: "not present", SuggestedCode: "whatever"},
	})

	if out.Applied != 1 || out.Failed != 0 {
		t.Errorf("counts = applied %d failed %d, want 1/0", out.Applied, out.Failed)
	}
	if out.FinalCode != "x = 1" {
		t.Errorf("code changed without a match: %q", out.FinalCode)
	}
}

func TestApplyRecommendationsNone(t *testing.T) {
	out := ApplyRecommendations("x = 1", nil)

	if out.Total != 0 || out.FinalCode != "x = 1" {
		t.Errorf("outcome = %+v", out)
	}
	if out.Results == nil {
		t.Error("results slice is nil")
	}
}
