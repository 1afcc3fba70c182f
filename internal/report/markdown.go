// Package report renders normalized reviews as Markdown documents and as
// the legacy labeled-text review form.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sprite-ai/coderev/internal/model"
	"github.com/sprite-ai/coderev/internal/normalize"
	"github.com/sprite-ai/coderev/internal/timing"
)

var severityOrder = []model.Severity{
	model.SeverityCritical,
	model.SeverityHigh,
	model.SeverityMedium,
	model.SeverityLow,
	model.SeverityInfo,
}

// Write renders the review as a Markdown report.
func Write(w io.Writer, rev *model.Review, sub model.Submission) error {
	fmt.Fprintf(w, "# Code Review Report\n\n")

	meta := []string{fmt.Sprintf("**Score:** %d/100", rev.Score)}
	if sub.Language != "" {
		meta = append(meta, fmt.Sprintf("**Language:** %s", sub.Language))
	}
	if sub.Filename != "" {
		meta = append(meta, fmt.Sprintf("**File:** `%s`", sub.Filename))
	}
	fmt.Fprintf(w, "%s\n\n", strings.Join(meta, " | "))

	if rev.OverallAssessment != "" {
		fmt.Fprintf(w, "%s\n\n", rev.OverallAssessment)
	}

	counts := rev.CountBySeverity()
	fmt.Fprintf(w, "| Severity | Count |\n")
	fmt.Fprintf(w, "|----------|-------|\n")
	for _, sev := range severityOrder {
		fmt.Fprintf(w, "| %s | %d |\n", capitalize(sev.String()), counts[sev.String()])
	}
	fmt.Fprintf(w, "| **Total** | **%d** |\n\n", len(rev.Issues))

	if len(rev.Issues) == 0 {
		fmt.Fprintln(w, "No issues found. :white_check_mark:")
		fmt.Fprintln(w)
	} else {
		writeIssueSections(w, rev, sub.Language)
	}

	writeList(w, "Best Practices", rev.BestPractices)
	writeList(w, "Security Concerns", rev.SecurityConcerns)
	writeList(w, "Performance Notes", rev.PerformanceNotes)
	writeList(w, "Recommendations", rev.Recommendations)

	if rev.Timing != nil {
		writeTiming(w, rev)
	}

	return nil
}

func writeIssueSections(w io.Writer, rev *model.Review, lang string) {
	grouped := make(map[model.Severity][]model.Issue)
	for _, is := range rev.Issues {
		sev := model.ParseSeverity(is.Severity)
		grouped[sev] = append(grouped[sev], is)
	}

	for _, sev := range severityOrder {
		issues := grouped[sev]
		if len(issues) == 0 {
			continue
		}

		// Sort by file path, then line, within severity
		sort.SliceStable(issues, func(i, j int) bool {
			if issues[i].FilePath != issues[j].FilePath {
				return issues[i].FilePath < issues[j].FilePath
			}
			return sortLine(issues[i]) < sortLine(issues[j])
		})

		fmt.Fprintf(w, "<details>\n<summary>%s %s (%d)</summary>\n\n",
			severityIcon(sev), strings.ToUpper(sev.String()), len(issues))
		for _, is := range issues {
			writeIssue(w, is, lang)
		}
		fmt.Fprintf(w, "</details>\n\n")
	}
}

func writeIssue(w io.Writer, is model.Issue, langFallback string) {
	fmt.Fprintf(w, "### %s\n\n", is.Title)

	loc := fmt.Sprintf("`%s`", is.FilePath)
	if is.LineNumber != nil {
		loc = fmt.Sprintf("`%s:%d`", is.FilePath, *is.LineNumber)
	}
	parts := []string{"**" + loc + "**"}
	if is.Type != "" {
		parts = append(parts, is.Type)
	}
	if is.Confidence > 0 {
		parts = append(parts, fmt.Sprintf("Confidence: %.0f%%", is.Confidence*100))
	}
	fmt.Fprintf(w, "%s\n\n", strings.Join(parts, " | "))

	if is.Description != "" {
		fmt.Fprintf(w, "%s\n\n", is.Description)
	}

	lang := inferLang(is.FilePath)
	if lang == "" {
		lang = langFallback
	}
	if is.CodeSnippet != "" {
		fmt.Fprintf(w, "```%s\n%s\n```\n\n", lang, is.CodeSnippet)
	}
	if is.Explanation != "" {
		fmt.Fprintf(w, "%s\n\n", is.Explanation)
	}

	if is.Suggestion != "" && is.Suggestion != normalize.NoSuggestion {
		fmt.Fprintf(w, "**Suggestion:**\n\n")
		if looksLikeCode(is.Suggestion) {
			fmt.Fprintf(w, "```%s\n%s\n```\n\n", lang, is.Suggestion)
		} else {
			fmt.Fprintf(w, "> %s\n\n", strings.ReplaceAll(is.Suggestion, "\n", "\n> "))
		}
	}
	if is.SuggestedFix != "" {
		fmt.Fprintf(w, "**Suggested fix:**\n\n```%s\n%s\n```\n\n", lang, is.SuggestedFix)
	}

	fmt.Fprintf(w, "---\n\n")
}

func writeList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "## %s\n\n", title)
	for _, item := range items {
		fmt.Fprintf(w, "- %s\n", item)
	}
	fmt.Fprintln(w)
}

func writeTiming(w io.Writer, rev *model.Review) {
	t := rev.Timing
	if len(t.Steps) > 0 {
		fmt.Fprintf(w, "## Timing\n\n")
		fmt.Fprintf(w, "| Step | Duration | Share |\n")
		fmt.Fprintf(w, "|------|----------|-------|\n")
		for _, st := range t.Steps {
			fmt.Fprintf(w, "| %s | %s | %s |\n",
				st.Name, timing.FormatMs(float64(st.Ms)), timing.FormatPercent(st.Percent))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "*Reviewed in %s", timing.FormatMs(float64(t.TotalMs)))
	if n := len(rev.AgentsUsed); n > 0 {
		fmt.Fprintf(w, " by %d agents", n)
	}
	fmt.Fprintf(w, "*\n")
}

func sortLine(is model.Issue) int {
	if is.LineNumber == nil {
		return 1 << 30
	}
	return *is.LineNumber
}

func severityIcon(s model.Severity) string {
	switch s {
	case model.SeverityCritical:
		return ":red_circle:"
	case model.SeverityHigh:
		return ":orange_circle:"
	case model.SeverityMedium:
		return ":yellow_circle:"
	case model.SeverityLow:
		return ":large_blue_circle:"
	default:
		return ":white_circle:"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func looksLikeCode(s string) bool {
	codeIndicators := []string{
		"func ", "if ", "for ", "return ", "var ", "const ",
		"def ", "class ", "import ", "from ",
		"{", "}", "=>", "->", ":=", "==",
		"()", "[];",
	}
	for _, indicator := range codeIndicators {
		if strings.Contains(s, indicator) {
			return true
		}
	}
	return false
}

func inferLang(path string) string {
	langMap := map[string]string{
		".go":   "go",
		".py":   "python",
		".js":   "javascript",
		".ts":   "typescript",
		".tsx":  "tsx",
		".jsx":  "jsx",
		".rs":   "rust",
		".java": "java",
		".rb":   "ruby",
		".cpp":  "cpp",
		".c":    "c",
		".cs":   "csharp",
		".php":  "php",
		".sh":   "bash",
		".sql":  "sql",
		".yaml": "yaml",
		".yml":  "yaml",
		".json": "json",
	}
	for ext, lang := range langMap {
		if strings.HasSuffix(path, ext) {
			return lang
		}
	}
	return ""
}
