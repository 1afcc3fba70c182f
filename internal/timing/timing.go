// Package timing parses step-duration strings from analysis timing
// payloads and computes proportional breakdowns for display.
package timing

import (
	"strconv"
	"strings"
	"time"

	"github.com/sprite-ai/coderev/internal/model"
)

// StepNA marks a pipeline step that did not run.
const StepNA = "N/A"

// Steps carries the formatted duration of each pipeline step.
type Steps struct {
	Validation         string `json:"validation"`
	DatabaseSubmission string `json:"database_submission"`
	AIAnalysis         string `json:"ai_analysis"`
	DatabaseStorage    string `json:"database_storage"`
}

// Payload is the wire shape of the analysis timing report.
type Payload struct {
	TotalTimeMs      float64 `json:"total_time_ms"`
	TotalTimeSeconds float64 `json:"total_time_seconds"`
	Steps            Steps   `json:"steps"`
	AgentsUsed       int     `json:"agents_used"`
	IssuesFound      int     `json:"issues_found"`
}

var stepDefs = []struct {
	name string
	get  func(Steps) string
}{
	{"Validation", func(s Steps) string { return s.Validation }},
	{"Database Submission", func(s Steps) string { return s.DatabaseSubmission }},
	{"AI Analysis", func(s Steps) string { return s.AIAnalysis }},
	{"Database Storage", func(s Steps) string { return s.DatabaseStorage }},
}

// ParseMs converts a formatted duration string to milliseconds. The
// literals "< 1ms" and "N/A" and anything else unrecognized parse to 0.
func ParseMs(s string) float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "ms"))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// ComputeBreakdown computes each step's share of the reported total.
// Percentages divide by the authoritative total_time_ms, not the sum of
// the steps; when the steps undercount the total the shares sum below
// 100. A zero total yields all-zero percentages.
func ComputeBreakdown(p Payload) model.Timing {
	t := model.Timing{
		TotalMs:      int(p.TotalTimeMs),
		TotalSeconds: p.TotalTimeSeconds,
	}
	for _, def := range stepDefs {
		ms := ParseMs(def.get(p.Steps))
		t.Steps = append(t.Steps, model.StepTiming{
			Name:    def.name,
			Ms:      int(ms),
			Percent: percent(ms, p.TotalTimeMs),
		})
	}
	return t
}

func percent(ms, total float64) float64 {
	if total <= 0 {
		return 0
	}
	pct := ms / total * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// FormatMs renders a measured duration the way the timing payload
// carries it. Sub-millisecond measurements collapse to "< 1ms".
func FormatMs(ms float64) string {
	if ms < 1 {
		return "< 1ms"
	}
	return strconv.FormatFloat(ms, 'f', 0, 64) + "ms"
}

// FormatPercent renders a share with one decimal, e.g. "37.5%".
func FormatPercent(pct float64) string {
	return strconv.FormatFloat(pct, 'f', 1, 64) + "%"
}

// Ms converts a measured duration to the float milliseconds the payload
// carries.
func Ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// FormatDuration renders a measured step duration the way the payload
// carries it.
func FormatDuration(d time.Duration) string {
	return FormatMs(Ms(d))
}

// Rows flattens a payload into display rows of step name, the duration
// string as reported, and the computed share of the total.
func Rows(p Payload) [][]string {
	rows := make([][]string, 0, len(stepDefs))
	for _, def := range stepDefs {
		raw := def.get(p.Steps)
		if raw == "" {
			raw = StepNA
		}
		rows = append(rows, []string{
			def.name,
			raw,
			FormatPercent(percent(ParseMs(raw), p.TotalTimeMs)),
		})
	}
	return rows
}
