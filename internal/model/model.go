// Package model defines the core data types shared across coderev.
package model

// Severity categorizes how serious an issue is.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseSeverity maps a wire severity string onto the enum. Unknown non-empty
// values degrade to SeverityLow; an empty value means the reviewer did not
// rate the issue and maps to SeverityInfo.
func ParseSeverity(s string) Severity {
	switch s {
	case "info":
		return SeverityInfo
	case "low":
		return SeverityLow
	case "medium":
		return SeverityMedium
	case "high":
		return SeverityHigh
	case "critical":
		return SeverityCritical
	case "":
		return SeverityInfo
	default:
		return SeverityLow
	}
}

// severityWeights are the score deductions per issue severity.
var severityWeights = map[Severity]int{
	SeverityCritical: 25,
	SeverityHigh:     15,
	SeverityMedium:   10,
	SeverityLow:      5,
	SeverityInfo:     2,
}

// Score computes the 0-100 quality score for a set of issues. A clean
// submission scores 100; each issue deducts its severity weight, floored
// at zero.
func Score(issues []Issue) int {
	score := 100
	for _, is := range issues {
		score -= severityWeights[ParseSeverity(is.Severity)]
	}
	if score < 0 {
		score = 0
	}
	return score
}

// Issue is a single normalized review finding. Field names follow the
// normalized camelCase wire form.
type Issue struct {
	ID           string  `json:"id"`
	Type         string  `json:"type"`
	Severity     string  `json:"severity"`
	Title        string  `json:"title"`
	Description  string  `json:"description,omitempty"`
	LineNumber   *int    `json:"lineNumber,omitempty"`
	Column       *int    `json:"column,omitempty"`
	CodeSnippet  string  `json:"codeSnippet,omitempty"`
	Explanation  string  `json:"explanation,omitempty"`
	Suggestion   string  `json:"suggestion"`
	SuggestedFix string  `json:"suggestedFix,omitempty"`
	FilePath     string  `json:"filePath"`
	Agent        string  `json:"agent,omitempty"`
	Confidence   float64 `json:"confidence,omitempty"`
}

// Recommendation is an actionable fix proposal. These cross the wire in the
// backend's snake_case form.
type Recommendation struct {
	IssueID        string  `json:"issue_id"`
	Title          string  `json:"title"`
	Description    string  `json:"description,omitempty"`
	OriginalCode   string  `json:"original_code,omitempty"`
	SuggestedCode  string  `json:"suggested_code,omitempty"`
	Explanation    string  `json:"explanation,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`
	AutoFixable    bool    `json:"auto_fixable"`
	RequiresReview bool    `json:"requires_review"`
	Impact         string  `json:"impact,omitempty"`
}

// StepTiming is one named stage of the analysis pipeline.
type StepTiming struct {
	Name    string  `json:"name"`
	Ms      int     `json:"ms"`
	Percent float64 `json:"percent"`
}

// Timing is the normalized timing breakdown for a review.
type Timing struct {
	TotalMs      int          `json:"totalMs"`
	TotalSeconds float64      `json:"totalSeconds"`
	Steps        []StepTiming `json:"steps"`
}

// Review is the fully normalized result of reviewing one submission.
type Review struct {
	SubmissionID      string           `json:"submissionId,omitempty"`
	OverallAssessment string           `json:"overallAssessment"`
	Issues            []Issue          `json:"issues"`
	BestPractices     []string         `json:"bestPractices"`
	SecurityConcerns  []string         `json:"securityConcerns"`
	PerformanceNotes  []string         `json:"performanceNotes"`
	Recommendations   []string         `json:"recommendations"`
	FixProposals      []Recommendation `json:"fixProposals,omitempty"`
	Score             int              `json:"score"`
	AgentsUsed        []string         `json:"agentsUsed,omitempty"`
	Timing            *Timing          `json:"timing,omitempty"`
}

// MaxSeverity returns the highest severity present across the review's
// issues, or SeverityInfo for a clean review.
func (r *Review) MaxSeverity() Severity {
	max := SeverityInfo
	for _, is := range r.Issues {
		if s := ParseSeverity(is.Severity); s > max {
			max = s
		}
	}
	return max
}

// CountBySeverity tallies issues per severity label.
func (r *Review) CountBySeverity() map[string]int {
	counts := make(map[string]int)
	for _, is := range r.Issues {
		counts[ParseSeverity(is.Severity).String()]++
	}
	return counts
}

// Submission is a piece of code handed to the engine for review.
type Submission struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	Filename string `json:"filename,omitempty"`
}

// DisplayPath is the file path issues should carry when the submission has
// no filename.
const DisplayPath = "Submitted Code"

// Path returns the submission's filename, or DisplayPath when anonymous.
func (s Submission) Path() string {
	if s.Filename != "" {
		return s.Filename
	}
	return DisplayPath
}
