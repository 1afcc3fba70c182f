package stream

import (
	"encoding/json"
	"errors"

	"github.com/sprite-ai/coderev/internal/model"
	"github.com/sprite-ai/coderev/internal/normalize"
)

// Accumulator folds streaming events into a growing review, in arrival
// order, from a single goroutine. The terminal event freezes the result;
// anything applied after it is ignored. Feeding a recorded event list
// through Apply replays a full analysis.
type Accumulator struct {
	filename    string
	review      model.Review
	agentErrors []string
	done        bool
	err         error
}

// NewAccumulator starts an empty review for the submitted filename,
// which issue normalization falls back on for file paths.
func NewAccumulator(filename string) *Accumulator {
	return &Accumulator{
		filename: filename,
		review: model.Review{
			Issues:       []model.Issue{},
			FixProposals: []model.Recommendation{},
			AgentsUsed:   []string{},
			Score:        model.Score(nil),
		},
	}
}

// Apply folds one event into the review and reports whether the stream
// has reached its terminal event.
func (a *Accumulator) Apply(ev Event) bool {
	if a.done {
		return true
	}
	if ev.AnalysisID != "" {
		a.review.SubmissionID = ev.AnalysisID
	}

	switch ev.Type {
	case EventAgentStart, EventAgentComplete:
		a.addAgent(ev.Agent)
	case EventAgentError:
		if ev.Agent != "" || ev.Error != "" {
			a.agentErrors = append(a.agentErrors, ev.Agent+": "+ev.Error)
		}
	case EventIssueFound:
		var raw map[string]any
		if json.Unmarshal(ev.Issue, &raw) == nil {
			a.review.Issues = append(a.review.Issues, normalize.Issue(raw, a.filename))
			a.review.Score = model.Score(a.review.Issues)
		}
	case EventRecommendation:
		var rec model.Recommendation
		if json.Unmarshal(ev.Recommendation, &rec) == nil {
			a.review.FixProposals = append(a.review.FixProposals, rec)
		}
	case EventComplete:
		a.applyResult(ev.Result)
		a.done = true
	case EventError:
		msg := ev.Message
		if msg == "" {
			msg = ev.Error
		}
		if msg == "" {
			msg = "analysis failed"
		}
		a.err = errors.New(msg)
		a.done = true
	}
	return a.done
}

// applyResult replaces the accumulated state with the authoritative
// final payload. A missing or undecodable result keeps what the
// incremental events built.
func (a *Accumulator) applyResult(raw json.RawMessage) {
	var res map[string]any
	if len(raw) == 0 || json.Unmarshal(raw, &res) != nil {
		return
	}

	if items, ok := res["issues"].([]any); ok {
		issues := make([]model.Issue, 0, len(items))
		for _, it := range items {
			if m, ok := it.(map[string]any); ok {
				issues = append(issues, normalize.Issue(m, a.filename))
			}
		}
		a.review.Issues = issues
		a.review.Score = model.Score(issues)
	}
	if score, ok := res["overall_score"].(float64); ok {
		a.review.Score = int(score)
	}
	if summary, ok := res["summary"].(string); ok && summary != "" {
		a.review.OverallAssessment = summary
	}
	if agents, ok := res["analyzed_by"].([]any); ok {
		names := make([]string, 0, len(agents))
		for _, ag := range agents {
			if s, ok := ag.(string); ok {
				names = append(names, s)
			}
		}
		a.review.AgentsUsed = names
	}
	if secs, ok := res["analysis_time_seconds"].(float64); ok {
		a.review.Timing = &model.Timing{TotalSeconds: secs, TotalMs: int(secs * 1000)}
	}
}

func (a *Accumulator) addAgent(name string) {
	if name == "" {
		return
	}
	for _, have := range a.review.AgentsUsed {
		if have == name {
			return
		}
	}
	a.review.AgentsUsed = append(a.review.AgentsUsed, name)
}

// Done reports whether a terminal event has been applied.
func (a *Accumulator) Done() bool { return a.done }

// Err returns the terminal error, if the stream ended with one.
func (a *Accumulator) Err() error { return a.err }

// AgentErrors lists per-agent failures that did not end the stream.
func (a *Accumulator) AgentErrors() []string { return a.agentErrors }

// Review returns the accumulated review. Partial results are available
// even after a terminal error.
func (a *Accumulator) Review() *model.Review { return &a.review }
