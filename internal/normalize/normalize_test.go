package normalize

import (
	"encoding/json"
	"testing"

	"github.com/sprite-ai/coderev/internal/model"
)

func TestIssueKeyMapping(t *testing.T) {
	raw := map[string]any{
		"id":              "iss-1",
		"type":            "sql_injection",
		"severity":        "high",
		"title":           "SQL Injection Risk",
		"line_number":     float64(14),
		"code_snippet":    `query = "SELECT * FROM t WHERE id=" + uid`,
		"fix_explanation": "Parameterize the query.",
		"suggested_fix":   `cursor.execute("SELECT * FROM t WHERE id=%s", (uid,))`,
		"suggestion":      "Use placeholders.",
	}

	is := Issue(raw, "app.py")

	if is.LineNumber == nil || *is.LineNumber != 14 {
		t.Errorf("lineNumber = %v, want 14", is.LineNumber)
	}
	if is.Explanation != "Parameterize the query." {
		t.Errorf("explanation = %q", is.Explanation)
	}
	if is.SuggestedFix == "" {
		t.Error("suggestedFix not mapped")
	}
	if is.Suggestion != "Use placeholders." {
		t.Errorf("suggestion = %q", is.Suggestion)
	}
	if is.FilePath != "app.py" {
		t.Errorf("filePath = %q, want submitted filename", is.FilePath)
	}
	if is.Severity != "high" {
		t.Errorf("severity = %q", is.Severity)
	}
}

func TestIssueCamelCaseInput(t *testing.T) {
	is := Issue(map[string]any{"lineNumber": float64(7), "filePath": "lib/util.py"}, "app.py")

	if is.LineNumber == nil || *is.LineNumber != 7 {
		t.Errorf("lineNumber = %v, want 7", is.LineNumber)
	}
	if is.FilePath != "lib/util.py" {
		t.Errorf("filePath = %q, want issue's own path to win", is.FilePath)
	}
}

func TestIssueFallbacks(t *testing.T) {
	is := Issue(map[string]any{}, "")

	if is.Suggestion != NoSuggestion {
		t.Errorf("suggestion = %q, want %q", is.Suggestion, NoSuggestion)
	}
	if is.FilePath != model.DisplayPath {
		t.Errorf("filePath = %q, want %q", is.FilePath, model.DisplayPath)
	}
	if is.Severity != "info" {
		t.Errorf("severity = %q, want info for absent", is.Severity)
	}
	if is.LineNumber != nil {
		t.Errorf("lineNumber = %v, want nil", is.LineNumber)
	}
}

func TestIssueSeverityNormalization(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"critical", "critical"},
		{"HIGH", "high"},
		{"blocker", "low"},
		{nil, "info"},
		{42.0, "low"},
	}
	for _, tt := range tests {
		raw := map[string]any{}
		if tt.in != nil {
			raw["severity"] = tt.in
		}
		if got := Issue(raw, "").Severity; got != tt.want {
			t.Errorf("severity %v normalized to %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIssueNumericTolerance(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want *int
	}{
		{"float64", float64(3), intPtr(3)},
		{"int", 9, intPtr(9)},
		{"numeric string", "12", intPtr(12)},
		{"padded string", " 5 ", intPtr(5)},
		{"garbage string", "twelve", nil},
		{"object", map[string]any{"n": 1}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Issue(map[string]any{"line_number": tt.in}, "").LineNumber
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("lineNumber = %d, want nil", *got)
			case tt.want != nil && (got == nil || *got != *tt.want):
				t.Errorf("lineNumber = %v, want %d", got, *tt.want)
			}
		})
	}
}

func TestIssuesAssignsFallbackIDs(t *testing.T) {
	raws := []map[string]any{
		{"title": "first"},
		{"id": "explicit", "title": "second"},
		{"title": "third"},
	}

	out := Issues(raws, "main.py")

	if out[0].ID != "issue_1" {
		t.Errorf("first id = %q, want issue_1", out[0].ID)
	}
	if out[1].ID != "explicit" {
		t.Errorf("second id = %q, want explicit kept", out[1].ID)
	}
	if out[2].ID != "issue_3" {
		t.Errorf("third id = %q, want issue_3", out[2].ID)
	}
}

// Raw maps straight out of json.Unmarshal must normalize without panics.
func TestIssueFromDecodedJSON(t *testing.T) {
	blob := `{"severity": {"nested": true}, "line_number": [1,2], "title": 42}`
	var raw map[string]any
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	is := Issue(raw, "x.py")
	if is.Severity != "info" {
		t.Errorf("severity = %q, want info for non-string", is.Severity)
	}
	if is.LineNumber != nil {
		t.Errorf("lineNumber = %v, want nil for array", is.LineNumber)
	}
	if is.Title != "42" {
		t.Errorf("title = %q, want numeric coerced", is.Title)
	}
}

func intPtr(i int) *int { return &i }
