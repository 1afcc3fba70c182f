package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/coderev/internal/fix"
	"github.com/sprite-ai/coderev/internal/model"
	"github.com/sprite-ai/coderev/internal/patch"
)

// lineKind classifies one row of the code pane.
type lineKind int

const (
	kindCode lineKind = iota
	kindAnnotation
	kindDiffAdded
	kindDiffRemoved
)

// renderedLine is a single row of the code pane ready for display.
type renderedLine struct {
	Number  int           // 1-based source line, 0 for annotations
	Content string        // raw text content (no trailing newline)
	Tokens  []patch.Token // syntax tokens (nil = no highlighting)
	Kind    lineKind

	// Annotation rows only
	Severity model.Severity
	IssueIdx int // index into the current file's issues
	Fixed    bool
}

// renderCode produces rows for the original code with issue annotations
// beneath the lines they point at. Issues without a line number are
// file-level and come first.
func renderCode(code string, sub model.Submission, issues []model.Issue, fixed map[string]bool) []renderedLine {
	src := strings.Split(code, "\n")
	highlighted := patch.Highlight(sub.Language, sub.Filename, src)

	byLine := make(map[int][]int)
	var fileLevel []int
	for i, is := range issues {
		if is.LineNumber == nil {
			fileLevel = append(fileLevel, i)
			continue
		}
		byLine[*is.LineNumber] = append(byLine[*is.LineNumber], i)
	}

	var lines []renderedLine
	for _, idx := range fileLevel {
		lines = append(lines, annotationRow(issues[idx], idx, fixed[issues[idx].ID]))
	}
	for i, text := range src {
		rl := renderedLine{Number: i + 1, Content: text, Kind: kindCode}
		if i < len(highlighted) {
			rl.Tokens = highlighted[i].Tokens
		}
		lines = append(lines, rl)
		for _, idx := range byLine[i+1] {
			lines = append(lines, annotationRow(issues[idx], idx, fixed[issues[idx].ID]))
		}
	}
	return lines
}

// renderFixed shows the current code with applied fixes marked at the
// lines their ledger records landed on.
func renderFixed(st *fix.State, sub model.Submission, issues []model.Issue) []renderedLine {
	src := strings.Split(st.Current, "\n")
	highlighted := patch.Highlight(sub.Language, sub.Filename, src)

	byLine := make(map[int][]int)
	for i, is := range issues {
		rec, ok := st.Records[is.ID]
		if !ok {
			continue
		}
		byLine[rec.LineNumber] = append(byLine[rec.LineNumber], i)
	}

	var lines []renderedLine
	for i, text := range src {
		rl := renderedLine{Number: i + 1, Content: text, Kind: kindCode}
		if i < len(highlighted) {
			rl.Tokens = highlighted[i].Tokens
		}
		lines = append(lines, rl)
		for _, idx := range byLine[i+1] {
			lines = append(lines, annotationRow(issues[idx], idx, true))
		}
	}
	return lines
}

// renderDiff shows the ledger's index-aligned original vs current rows.
func renderDiff(st *fix.State) []renderedLine {
	var lines []renderedLine
	for _, dl := range st.Diff() {
		num := dl.Index + 1
		switch dl.Kind {
		case fix.DiffSame:
			lines = append(lines, renderedLine{Number: num, Content: " " + dl.Original, Kind: kindCode})
		case fix.DiffChanged:
			lines = append(lines,
				renderedLine{Number: num, Content: "-" + dl.Original, Kind: kindDiffRemoved},
				renderedLine{Number: num, Content: "+" + dl.Current, Kind: kindDiffAdded},
			)
		case fix.DiffAdded:
			lines = append(lines, renderedLine{Number: num, Content: "+" + dl.Current, Kind: kindDiffAdded})
		case fix.DiffRemoved:
			lines = append(lines, renderedLine{Number: num, Content: "-" + dl.Original, Kind: kindDiffRemoved})
		}
	}
	return lines
}

func annotationRow(is model.Issue, idx int, fixed bool) renderedLine {
	sev := model.ParseSeverity(is.Severity)
	marker := "▲"
	if fixed {
		marker = "✓"
	}
	return renderedLine{
		Kind:     kindAnnotation,
		Content:  fmt.Sprintf("%s [%s] %s", marker, sev, is.Title),
		Severity: sev,
		IssueIdx: idx,
		Fixed:    fixed,
	}
}

// renderTokens renders line content with syntax coloring.
func renderTokens(rl renderedLine) string {
	if len(rl.Tokens) == 0 {
		return contextLineStyle.Render(rl.Content)
	}

	var b strings.Builder
	for _, tok := range rl.Tokens {
		if tok.Color != "" {
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(tok.Color)).Render(tok.Text))
		} else {
			b.WriteString(tok.Text)
		}
	}
	return b.String()
}

func severityStyle(s model.Severity) lipgloss.Style {
	switch s {
	case model.SeverityCritical:
		return annotationCriticalStyle
	case model.SeverityHigh:
		return annotationHighStyle
	case model.SeverityMedium:
		return annotationMediumStyle
	case model.SeverityLow:
		return annotationLowStyle
	default:
		return annotationInfoStyle
	}
}

// severityBadge is the single-letter file list marker for a file's worst
// severity.
func severityBadge(s model.Severity) string {
	letter := strings.ToUpper(s.String()[:1])
	return severityStyle(s).Render(letter)
}

// styleLine applies styling to a rendered row.
func styleLine(rl renderedLine, width int, selected bool) string {
	maxContent := width - 6

	if rl.Kind == kindAnnotation {
		style := severityStyle(rl.Severity)
		if rl.Fixed {
			style = annotationFixedStyle
		}
		if selected {
			style = style.Background(colorHighlight).Bold(true)
		}
		return "     " + style.Render(truncate(rl.Content, maxContent))
	}

	var num string
	if rl.Number > 0 {
		num = fmt.Sprintf("%4d", rl.Number)
	} else {
		num = "    "
	}
	nums := lineNumberStyle.Render(num)

	switch rl.Kind {
	case kindDiffAdded:
		return nums + " " + addedLineStyle.Render(truncate(rl.Content, maxContent))
	case kindDiffRemoved:
		return nums + " " + deletedLineStyle.Render(truncate(rl.Content, maxContent))
	}

	content := renderTokens(rl)
	if maxContent > 0 && lipgloss.Width(content) > maxContent {
		// Simple truncation for styled strings
		content = contextLineStyle.Render(truncate(rl.Content, maxContent))
	}
	return nums + " " + content
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) > max {
		return s[:max-1] + "…"
	}
	return s
}
