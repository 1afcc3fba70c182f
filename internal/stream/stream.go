// Package stream defines the ordered event protocol for live analysis
// updates and the accumulator that folds events into a review.
package stream

import (
	"encoding/json"

	"github.com/sprite-ai/coderev/internal/model"
)

// Event types sent during a streaming analysis.
const (
	EventStatus         = "status"
	EventAgentStart     = "agent_start"
	EventAgentComplete  = "agent_complete"
	EventAgentError     = "agent_error"
	EventIssueFound     = "issue_found"
	EventRecommendation = "recommendation_generated"
	EventComplete       = "analysis_complete"
	EventError          = "error"
)

// Event is one streaming analysis update. It is a flat JSON object
// discriminated by Type; which other fields are set depends on the type.
// analysis_complete and error are terminal.
type Event struct {
	Type           string          `json:"type"`
	AnalysisID     string          `json:"analysis_id,omitempty"`
	Status         string          `json:"status,omitempty"`
	Timestamp      string          `json:"timestamp,omitempty"`
	TotalAgents    int             `json:"total_agents,omitempty"`
	Agent          string          `json:"agent,omitempty"`
	Progress       float64         `json:"progress,omitempty"`
	IssuesFound    int             `json:"issues_found,omitempty"`
	ProcessingTime float64         `json:"processing_time,omitempty"`
	Issue          json.RawMessage `json:"issue,omitempty"`
	Recommendation json.RawMessage `json:"recommendation,omitempty"`
	Result         json.RawMessage `json:"result,omitempty"`
	TotalTime      float64         `json:"total_time,omitempty"`
	Message        string          `json:"message,omitempty"`
	Error          string          `json:"error,omitempty"`
}

// Terminal reports whether the event ends the stream.
func (ev Event) Terminal() bool {
	return ev.Type == EventComplete || ev.Type == EventError
}

// IssueFound wraps a discovered issue in its streaming event.
func IssueFound(analysisID, agent string, issue model.Issue) Event {
	raw, _ := json.Marshal(issue)
	return Event{Type: EventIssueFound, AnalysisID: analysisID, Agent: agent, Issue: raw}
}

// RecommendationGenerated wraps a generated fix recommendation.
func RecommendationGenerated(analysisID string, rec model.Recommendation, progress float64) Event {
	raw, _ := json.Marshal(rec)
	return Event{Type: EventRecommendation, AnalysisID: analysisID, Recommendation: raw, Progress: progress}
}

// AnalysisComplete wraps the final result. result marshals to the full
// review payload; totalTime is the analysis duration in seconds.
func AnalysisComplete(analysisID string, result any, totalTime float64) Event {
	raw, _ := json.Marshal(result)
	return Event{Type: EventComplete, AnalysisID: analysisID, Result: raw, TotalTime: totalTime}
}

// Failure builds the terminal error event.
func Failure(message string) Event {
	return Event{Type: EventError, Message: message}
}
