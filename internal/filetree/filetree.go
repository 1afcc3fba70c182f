// Package filetree correlates normalized issues with the files they
// belong to, preserving the order files first appear in reviewer output.
package filetree

import (
	"github.com/sprite-ai/coderev/internal/model"
)

// Tree groups issues by file path.
type Tree struct {
	order  []string
	byFile map[string][]model.Issue
}

// Build groups issues by FilePath. File order follows first appearance;
// within a file, issue order is preserved.
func Build(issues []model.Issue) *Tree {
	t := &Tree{byFile: make(map[string][]model.Issue)}
	for _, is := range issues {
		if _, seen := t.byFile[is.FilePath]; !seen {
			t.order = append(t.order, is.FilePath)
		}
		t.byFile[is.FilePath] = append(t.byFile[is.FilePath], is)
	}
	return t
}

// Files returns the file paths in first-seen order.
func (t *Tree) Files() []string {
	return t.order
}

// Select returns the issues for a file, in reviewer order. Unknown paths
// yield nil.
func (t *Tree) Select(path string) []model.Issue {
	return t.byFile[path]
}

// IssuesAt returns every issue pinned to the given 1-based line of a file.
// Issues without a line number are never returned here.
func (t *Tree) IssuesAt(path string, line int) []model.Issue {
	var out []model.Issue
	for _, is := range t.byFile[path] {
		if is.LineNumber != nil && *is.LineNumber == line {
			out = append(out, is)
		}
	}
	return out
}

// Count returns the number of issues in a file.
func (t *Tree) Count(path string) int {
	return len(t.byFile[path])
}

// Total returns the number of issues across all files.
func (t *Tree) Total() int {
	n := 0
	for _, issues := range t.byFile {
		n += len(issues)
	}
	return n
}

// MaxSeverity returns the highest severity present in a file, or
// SeverityInfo when the file is clean or unknown.
func (t *Tree) MaxSeverity(path string) model.Severity {
	max := model.SeverityInfo
	for _, is := range t.byFile[path] {
		if s := model.ParseSeverity(is.Severity); s > max {
			max = s
		}
	}
	return max
}
