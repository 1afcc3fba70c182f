// Package patch parses unified diffs so reviews can target only the code a
// change touched.
package patch

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// File represents a single file in a diff with its parsed fragments.
type File struct {
	OldName      string
	NewName      string
	IsNew        bool
	IsDeleted    bool
	IsRenamed    bool
	IsBinary     bool
	Fragments    []*gitdiff.TextFragment
	AddedLines   int
	DeletedLines int
}

// Name returns the display name for the file.
func (f *File) Name() string {
	if f.IsRenamed {
		return fmt.Sprintf("%s → %s", f.OldName, f.NewName)
	}
	if f.IsNew {
		return f.NewName
	}
	if f.IsDeleted {
		return f.OldName
	}
	if f.NewName != "" {
		return f.NewName
	}
	return f.OldName
}

// AddedCode returns the file's added lines joined with newlines, plus a
// parallel mapping from emitted line index to new-file line number. An
// issue reported at emitted line i belongs on line lineMap[i] of the file.
func (f *File) AddedCode() (string, []int) {
	var lines []string
	var lineMap []int
	for _, frag := range f.Fragments {
		pos := int(frag.NewPosition)
		for _, ln := range frag.Lines {
			switch ln.Op {
			case gitdiff.OpAdd:
				lines = append(lines, strings.TrimSuffix(ln.Line, "\n"))
				lineMap = append(lineMap, pos)
				pos++
			case gitdiff.OpContext:
				pos++
			}
		}
	}
	return strings.Join(lines, "\n"), lineMap
}

// Set holds the parsed diff for all files.
type Set struct {
	Files []*File
	Raw   string // the raw unified diff text
}

// Stats returns aggregate statistics.
func (s *Set) Stats() (files, added, deleted int) {
	files = len(s.Files)
	for _, f := range s.Files {
		added += f.AddedLines
		deleted += f.DeletedLines
	}
	return
}

// Reviewable returns the files worth submitting for review: text files
// that contribute at least one added line.
func (s *Set) Reviewable() []*File {
	var files []*File
	for _, f := range s.Files {
		if f.IsBinary || f.AddedLines == 0 {
			continue
		}
		files = append(files, f)
	}
	return files
}

// Parse reads a unified diff and returns a Set.
func Parse(r io.Reader) (*Set, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading diff: %w", err)
	}

	parsed, _, err := gitdiff.Parse(strings.NewReader(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("parsing diff: %w", err)
	}

	set := &Set{Raw: string(raw)}
	for _, f := range parsed {
		pf := &File{
			OldName:   f.OldName,
			NewName:   f.NewName,
			IsNew:     f.IsNew,
			IsDeleted: f.IsDelete,
			IsRenamed: f.IsRename,
			IsBinary:  f.IsBinary,
		}

		for _, frag := range f.TextFragments {
			pf.Fragments = append(pf.Fragments, frag)
			for _, line := range frag.Lines {
				switch line.Op {
				case gitdiff.OpAdd:
					pf.AddedLines++
				case gitdiff.OpDelete:
					pf.DeletedLines++
				}
			}
		}

		set.Files = append(set.Files, pf)
	}

	return set, nil
}

// GitDiff runs `git diff` with the given arguments and returns the raw output.
func GitDiff(dir string, args ...string) (string, error) {
	cmdArgs := append([]string{"diff"}, args...)
	cmd := exec.Command("git", cmdArgs...)
	cmd.Dir = dir
	cmd.Stderr = os.Stderr

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git diff: %w", err)
	}

	return string(out), nil
}

// GitDiffRange returns the diff for a commit range like "main...HEAD".
func GitDiffRange(dir, commitRange string, contextLines int) (string, error) {
	return GitDiff(dir, fmt.Sprintf("-U%d", contextLines), commitRange)
}
