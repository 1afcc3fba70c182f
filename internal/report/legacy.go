package report

import (
	"fmt"
	"strings"

	"github.com/sprite-ai/coderev/internal/model"
)

// FreeText renders the review in the legacy labeled-text shape that older
// clients parse back through the section grammar. Issue items are numbered
// so the emitted blob re-splits into per-issue items on re-parse.
func FreeText(rev *model.Review) string {
	if rev == nil {
		return "Analysis pending..."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Overall Score: %d/100\n\n", rev.Score)

	if rev.OverallAssessment != "" {
		fmt.Fprintf(&b, "Overall Assessment:\n%s\n\n", rev.OverallAssessment)
	}

	b.WriteString("Issues Found:\n")
	for i, is := range rev.Issues {
		fmt.Fprintf(&b, "%d. **%s** (%s)\n", i+1, is.Title, strings.ToUpper(is.Severity))
		if is.Description != "" {
			fmt.Fprintf(&b, "%s\n", is.Description)
		}
		b.WriteString("\n")
	}

	writeTextList(&b, "Best Practices", rev.BestPractices)
	writeTextList(&b, "Security Concerns", rev.SecurityConcerns)
	writeTextList(&b, "Performance", rev.PerformanceNotes)
	writeTextList(&b, "Recommendations", rev.Recommendations)

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeTextList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", label)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}
