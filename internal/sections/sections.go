// Package sections extracts labeled sections from free-text review output.
//
// AI reviewers return a single prose blob with loosely labeled sections
// ("Overall Assessment", "Issues Found", ...). Parse partitions that blob
// into structured fields without ever failing: malformed input degrades to
// empty sections, never to an error.
package sections

import (
	"regexp"
	"strings"
)

// Parsed holds the labeled sections recovered from one review blob.
type Parsed struct {
	Assessment       string
	Issues           []string
	BestPractices    []string
	SecurityConcerns []string
	Performance      []string
	Recommendations  []string
}

type sectionKey int

const (
	secNone sectionKey = iota
	secAssessment
	secIssues
	secBestPractices
	secSecurity
	secPerformance
	secRecommendations
)

// Labels are matched case-insensitively, with optional ** bolding and an
// optional trailing colon. Longer labels come first so "issues found" wins
// over "issues".
var sectionLabels = []struct {
	label string
	key   sectionKey
}{
	{"overall assessment", secAssessment},
	{"issues found", secIssues},
	{"issues", secIssues},
	{"best practices", secBestPractices},
	{"security concerns", secSecurity},
	{"security", secSecurity},
	{"performance", secPerformance},
	{"recommendations", secRecommendations},
}

var (
	headerOnlyRe   *regexp.Regexp
	headerInlineRe *regexp.Regexp

	numberedItemRe = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	bulletPrefixRe = regexp.MustCompile(`^(?:[•\-\*]|\d+[\.\)])\s*`)
)

func init() {
	var labels []string
	for _, s := range sectionLabels {
		labels = append(labels, s.label)
	}
	alt := strings.Join(labels, "|")

	// A header line: "Issues Found", "Issues Found:", "**Issues Found:**",
	// "**Issues Found**:" and casing variants.
	headerOnlyRe = regexp.MustCompile(`(?i)^(?:\*\*)?(` + alt + `)\s*:?\s*(?:\*\*)?\s*:?\s*$`)
	// A header with body text on the same line after the colon.
	headerInlineRe = regexp.MustCompile(`(?i)^(?:\*\*)?(` + alt + `)(?::\s*\*\*|\s*\*\*\s*:|\s*:)\s*(.+)$`)
}

const assessmentFallbackLen = 200

// Parse partitions a free-text review into its labeled sections. It is a
// pure function: same input, same output, and it never fails. A missing
// section yields an empty slice. When no "Overall Assessment" header exists
// the assessment falls back to the first 200 characters of the input.
func Parse(text string) Parsed {
	bodies := make(map[sectionKey][]string)
	current := secNone
	sawAssessment := false

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		if key, rest, ok := matchHeader(trimmed); ok {
			current = key
			if key == secAssessment {
				sawAssessment = true
			}
			if rest != "" {
				bodies[key] = append(bodies[key], rest)
			}
			continue
		}

		if current != secNone {
			bodies[current] = append(bodies[current], line)
		}
	}

	p := Parsed{
		Assessment:       strings.TrimSpace(strings.Join(bodies[secAssessment], "\n")),
		Issues:           splitNumbered(strings.Join(bodies[secIssues], "\n")),
		BestPractices:    splitBullets(bodies[secBestPractices]),
		SecurityConcerns: splitBullets(bodies[secSecurity]),
		Performance:      splitBullets(bodies[secPerformance]),
		Recommendations:  splitBullets(bodies[secRecommendations]),
	}

	if !sawAssessment {
		p.Assessment = fallbackAssessment(text)
	}
	return p
}

func matchHeader(line string) (sectionKey, string, bool) {
	if m := headerOnlyRe.FindStringSubmatch(line); m != nil {
		return keyForLabel(m[1]), "", true
	}
	if m := headerInlineRe.FindStringSubmatch(line); m != nil {
		return keyForLabel(m[1]), strings.TrimSpace(m[2]), true
	}
	return secNone, "", false
}

func keyForLabel(label string) sectionKey {
	label = strings.ToLower(label)
	for _, s := range sectionLabels {
		if s.label == label {
			return s.key
		}
	}
	return secNone
}

// splitNumbered breaks an issues body on "1. ", "2. ", ... markers at line
// starts. Pieces are trimmed and empties dropped; a body with no markers
// becomes a single item.
func splitNumbered(body string) []string {
	items := []string{}
	for _, piece := range numberedItemRe.Split(body, -1) {
		piece = strings.TrimSpace(piece)
		if piece != "" {
			items = append(items, piece)
		}
	}
	return items
}

// splitBullets turns list-section lines into items, stripping leading
// bullet or numeric markers. Doubled markers ("• • item", an artifact of
// some reviewer output) collapse to the item text; lines reduced to nothing
// are dropped rather than emitted as empty items.
func splitBullets(lines []string) []string {
	items := []string{}
	for _, line := range lines {
		item := strings.TrimSpace(line)
		for {
			stripped := bulletPrefixRe.ReplaceAllString(item, "")
			if stripped == item {
				break
			}
			item = strings.TrimSpace(stripped)
		}
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

func fallbackAssessment(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= assessmentFallbackLen {
		return text
	}
	return string(runes[:assessmentFallbackLen]) + "..."
}
