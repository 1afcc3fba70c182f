// Package fix applies suggested fixes to submitted code and tracks them in
// an undoable ledger.
//
// The ledger state is caller-owned: construct one State per review session
// and thread it through Apply/Undo. Nothing here is safe for concurrent use;
// a session applies one fix at a time.
package fix

import (
	"errors"
	"strings"
	"time"

	"github.com/sprite-ai/coderev/internal/model"
)

// ErrNoFixTarget reports an issue whose line number is absent or out of
// range for the current code. The code is left untouched.
var ErrNoFixTarget = errors.New("issue has no fix target line")

// Record is the ledger entry for one applied fix. FixedLine spans multiple
// lines (joined with \n) when the fix inserted a line, and Deleted is set
// when the fix removed the line entirely.
type Record struct {
	IssueID      string    `json:"issue_id"`
	LineNumber   int       `json:"line_number"`
	OriginalLine string    `json:"original_line"`
	FixedLine    string    `json:"fixed_line"`
	Deleted      bool      `json:"deleted,omitempty"`
	Import       string    `json:"import,omitempty"`
	ImportAt     int       `json:"import_at,omitempty"`
	Pattern      string    `json:"pattern,omitempty"`
	AppliedAt    time.Time `json:"applied_at"`
}

// State is one session's fix ledger: the immutable original code, the
// current modified code, and the records of currently-applied fixes keyed
// by issue ID. At most one record exists per issue; re-applying overwrites
// it (last-write-wins).
type State struct {
	Original string
	Current  string
	Records  map[string]Record
}

// NewState starts a ledger over the given code.
func NewState(code string) *State {
	return &State{
		Original: code,
		Current:  code,
		Records:  make(map[string]Record),
	}
}

// Result reports what one Apply did. Changed is false when the fix was
// recorded but left the line as-is (no rule matched, or the line did not
// have the shape the rule rewrites).
type Result struct {
	Record  Record
	Changed bool
}

// Apply applies the fix for an issue to the current code and records it.
//
// The issue's line number must be set and within [1, lineCount] of the
// current code; otherwise Apply returns ErrNoFixTarget and changes nothing.
// The transformation is chosen by keyword from the issue's title and
// description (see patterns.go); when no rule applies the line is kept
// unchanged but a record is still written so ledger bookkeeping stays
// uniform.
//
// Line numbers on other issues are not renumbered when a fix changes the
// line count. A later Apply against such an issue may target the wrong
// line; callers display fixes one session at a time and accept this.
func (st *State) Apply(issue model.Issue) (Result, error) {
	if issue.LineNumber == nil {
		return Result{}, ErrNoFixTarget
	}
	n := *issue.LineNumber

	lines := strings.Split(st.Current, "\n")
	if n < 1 || n > len(lines) {
		return Result{}, ErrNoFixTarget
	}

	rec := Record{
		IssueID:      issue.ID,
		LineNumber:   n,
		OriginalLine: lines[n-1],
		FixedLine:    lines[n-1],
		AppliedAt:    time.Now(),
	}

	rule := matchRule(issue)
	if rule == nil {
		st.Records[issue.ID] = rec
		return Result{Record: rec}, nil
	}
	rec.Pattern = rule.name

	edit, ok := rule.transform(lines, n-1)
	if !ok {
		st.Records[issue.ID] = rec
		return Result{Record: rec}, nil
	}

	// Splice the replacement for the target line. The edit may move the
	// record to a different line (module-level docstrings land on line 1).
	if edit.at != 0 {
		rec.LineNumber = edit.at
		rec.OriginalLine = lines[edit.at-1]
	}
	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:rec.LineNumber-1]...)
	out = append(out, edit.replacement...)
	out = append(out, lines[rec.LineNumber:]...)

	if len(edit.replacement) == 0 {
		rec.Deleted = true
		rec.FixedLine = ""
	} else {
		rec.FixedLine = strings.Join(edit.replacement, "\n")
	}

	if edit.importLine != "" && !hasImport(out, edit.importLine) {
		at := leadingImportRun(out)
		out = append(out[:at], append([]string{edit.importLine}, out[at:]...)...)
		rec.Import = edit.importLine
		rec.ImportAt = at + 1
	}

	st.Current = strings.Join(out, "\n")
	st.Records[issue.ID] = rec
	return Result{Record: rec, Changed: rec.FixedLine != rec.OriginalLine || rec.Deleted}, nil
}

// Undo reverses the recorded fix for an issue. It restores the original
// line only when the current code still matches what the fix produced;
// any mismatch (the file changed underneath the record) leaves the code
// untouched and keeps the record. Returns true when the fix was reverted.
func (st *State) Undo(issueID string) bool {
	rec, ok := st.Records[issueID]
	if !ok {
		return false
	}

	restored, ok := undoRecord(st.Current, rec)
	if !ok {
		return false
	}

	st.Current = restored
	delete(st.Records, issueID)
	return true
}

// undoRecord inverts one record against the given code. All checks pass or
// the input is returned unchanged.
func undoRecord(code string, rec Record) (string, bool) {
	lines := strings.Split(code, "\n")

	// Remove the supporting import first so the target line shifts back to
	// its recorded position.
	if rec.Import != "" {
		i := rec.ImportAt - 1
		if i < 0 || i >= len(lines) || lines[i] != rec.Import {
			return code, false
		}
		lines = append(lines[:i], lines[i+1:]...)
	}

	n := rec.LineNumber
	if rec.Deleted {
		if n < 1 || n > len(lines)+1 {
			return code, false
		}
		lines = append(lines[:n-1], append([]string{rec.OriginalLine}, lines[n-1:]...)...)
		return strings.Join(lines, "\n"), true
	}

	span := strings.Split(rec.FixedLine, "\n")
	if n < 1 || n-1+len(span) > len(lines) {
		return code, false
	}
	if strings.Join(lines[n-1:n-1+len(span)], "\n") != rec.FixedLine {
		return code, false
	}
	lines = append(lines[:n-1], append([]string{rec.OriginalLine}, lines[n-1+len(span):]...)...)
	return strings.Join(lines, "\n"), true
}
