// Package normalize converts raw reviewer-emitted issue objects into the
// shared model types.
//
// Reviewer backends disagree on casing and completeness: some emit
// line_number, some lineNumber, some neither. Normalization is total over
// arbitrary JSON maps so a malformed issue degrades to usable defaults
// instead of an error.
package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sprite-ai/coderev/internal/model"
)

// NoSuggestion is the placeholder when a reviewer omitted the suggestion.
const NoSuggestion = "No suggestion available"

// Issue maps one raw issue object onto model.Issue. filename is the
// submitted file's name, used when the issue carries no file path of its
// own; an empty filename falls back to model.DisplayPath.
func Issue(raw map[string]any, filename string) model.Issue {
	is := model.Issue{
		ID:           getString(raw, "id", "issue_id"),
		Type:         getString(raw, "type", "issue_type"),
		Title:        getString(raw, "title"),
		Description:  getString(raw, "description"),
		LineNumber:   getIntPtr(raw, "line_number", "lineNumber"),
		Column:       getIntPtr(raw, "column"),
		CodeSnippet:  getString(raw, "code_snippet", "codeSnippet"),
		Explanation:  getString(raw, "fix_explanation", "explanation"),
		SuggestedFix: getString(raw, "suggested_fix", "suggestedFix"),
		Agent:        getString(raw, "agent"),
		Confidence:   getFloat(raw, "confidence"),
	}

	is.Severity = model.ParseSeverity(strings.ToLower(getString(raw, "severity"))).String()

	is.Suggestion = getString(raw, "suggestion")
	if strings.TrimSpace(is.Suggestion) == "" {
		is.Suggestion = NoSuggestion
	}

	is.FilePath = getString(raw, "file_path", "filePath")
	if is.FilePath == "" {
		if filename != "" {
			is.FilePath = filename
		} else {
			is.FilePath = model.DisplayPath
		}
	}

	return is
}

// Issues normalizes a batch, assigning positional issue_N IDs (1-based)
// where the reviewer omitted them.
func Issues(raws []map[string]any, filename string) []model.Issue {
	out := make([]model.Issue, 0, len(raws))
	for i, raw := range raws {
		is := Issue(raw, filename)
		if is.ID == "" {
			is.ID = fmt.Sprintf("issue_%d", i+1)
		}
		out = append(out, is)
	}
	return out
}

// getString returns the first present key coerced to a string. Non-string
// scalars format through Sprint so numeric ids survive.
func getString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if s != "" {
				return s
			}
		case float64, int, int64, bool:
			return fmt.Sprint(s)
		}
	}
	return ""
}

// getIntPtr returns the first present key as an int pointer, or nil when
// no key parses. JSON decoding hands numbers over as float64.
func getIntPtr(m map[string]any, keys ...string) *int {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			i := int(n)
			return &i
		case int:
			i := n
			return &i
		case int64:
			i := int(n)
			return &i
		case string:
			if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
				return &i
			}
		}
	}
	return nil
}

func getFloat(m map[string]any, keys ...string) float64 {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		case int64:
			return float64(n)
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
				return f
			}
		}
	}
	return 0
}
