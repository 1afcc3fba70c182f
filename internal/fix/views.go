package fix

import (
	"strings"
)

// DiffKind classifies one line of the ledger diff view.
type DiffKind int

const (
	DiffSame DiffKind = iota
	DiffChanged
	DiffAdded
	DiffRemoved
)

func (k DiffKind) String() string {
	switch k {
	case DiffSame:
		return "same"
	case DiffChanged:
		return "changed"
	case DiffAdded:
		return "added"
	case DiffRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// DiffLine pairs line i of the original code with line i of the current
// code. The pairing is by index, not a real diff: one inserted line marks
// everything below it changed. That is the contract, chosen for
// predictability over minimality.
type DiffLine struct {
	Index    int // 0-based
	Kind     DiffKind
	Original string
	Current  string
}

// Diff returns the index-aligned comparison of original vs current code.
func (st *State) Diff() []DiffLine {
	orig := strings.Split(st.Original, "\n")
	curr := strings.Split(st.Current, "\n")

	n := len(orig)
	if len(curr) > n {
		n = len(curr)
	}

	out := make([]DiffLine, 0, n)
	for i := 0; i < n; i++ {
		dl := DiffLine{Index: i}
		switch {
		case i >= len(orig):
			dl.Kind = DiffAdded
			dl.Current = curr[i]
		case i >= len(curr):
			dl.Kind = DiffRemoved
			dl.Original = orig[i]
		case orig[i] == curr[i]:
			dl.Kind = DiffSame
			dl.Original = orig[i]
			dl.Current = curr[i]
		default:
			dl.Kind = DiffChanged
			dl.Original = orig[i]
			dl.Current = curr[i]
		}
		out = append(out, dl)
	}
	return out
}

// RenderDiff formats the diff view as plain text with -/+ markers.
func (st *State) RenderDiff() string {
	var b strings.Builder
	for _, dl := range st.Diff() {
		switch dl.Kind {
		case DiffSame:
			b.WriteString("  " + dl.Original + "\n")
		case DiffChanged:
			b.WriteString("- " + dl.Original + "\n")
			b.WriteString("+ " + dl.Current + "\n")
		case DiffAdded:
			b.WriteString("+ " + dl.Current + "\n")
		case DiffRemoved:
			b.WriteString("- " + dl.Original + "\n")
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Changed reports whether any fix altered the code.
func (st *State) Changed() bool {
	return st.Current != st.Original
}
