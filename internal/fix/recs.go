package fix

import (
	"strings"

	"github.com/sprite-ai/coderev/internal/model"
)

// RecResult reports the application of one recommendation.
type RecResult struct {
	RecommendationID string `json:"recommendation_id"`
	Success          bool   `json:"success"`
	Error            string `json:"error,omitempty"`
}

// Outcome is the result of applying a batch of recommendations, in the
// shape the fix-application wire contract expects.
type Outcome struct {
	SessionID string      `json:"session_id,omitempty"`
	Total     int         `json:"total_recommendations"`
	Applied   int         `json:"applied_count"`
	Failed    int         `json:"failed_count"`
	Results   []RecResult `json:"results"`
	FinalCode string      `json:"final_code"`
	Diff      string      `json:"diff,omitempty"`
}

// ApplyRecommendations rewrites code by replacing each recommendation's
// original snippet with its suggested snippet, in order. Replacement hits
// every occurrence of the snippet; a snippet that no longer appears leaves
// the code unchanged but still counts as applied, matching the replace
// semantics callers rely on. Only an empty original snippet fails.
func ApplyRecommendations(code string, recs []model.Recommendation) Outcome {
	st := NewState(code)
	out := Outcome{
		Total:   len(recs),
		Results: make([]RecResult, 0, len(recs)),
	}

	for _, rec := range recs {
		res := RecResult{RecommendationID: rec.IssueID}
		if strings.TrimSpace(rec.OriginalCode) == "" {
			res.Error = "recommendation has no original code to match"
			out.Failed++
			out.Results = append(out.Results, res)
			continue
		}

		st.Current = strings.ReplaceAll(st.Current, rec.OriginalCode, rec.SuggestedCode)
		res.Success = true
		out.Applied++
		out.Results = append(out.Results, res)
	}

	out.FinalCode = st.Current
	out.Diff = st.RenderDiff()
	return out
}
