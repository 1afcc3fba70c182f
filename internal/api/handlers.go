package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/sprite-ai/coderev/internal/analyze"
	"github.com/sprite-ai/coderev/internal/fix"
	"github.com/sprite-ai/coderev/internal/model"
	"github.com/sprite-ai/coderev/internal/report"
	"github.com/sprite-ai/coderev/internal/store"
	"github.com/sprite-ai/coderev/internal/timing"
)

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   s.version,
	})
}

// --- Submissions ---

type submitRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	Filename string `json:"filename,omitempty"`
}

type submitResponse struct {
	SubmissionID string          `json:"submission_id"`
	Status       string          `json:"status"`
	Message      string          `json:"message"`
	Timing       *timing.Payload `json:"timing,omitempty"`
}

func (s *Server) handleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req submitRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}
	if req.Language == "" {
		writeError(w, http.StatusBadRequest, "language is required")
		return
	}
	if !model.LanguageSupported(req.Language) {
		writeError(w, http.StatusBadRequest, "unsupported language: "+req.Language)
		return
	}
	validated := time.Since(start)

	sub := &store.Submission{Code: req.Code, Language: req.Language, Filename: req.Filename}
	mark := time.Now()
	if err := s.store.SaveSubmission(r.Context(), sub); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	submitted := time.Since(mark)

	mark = time.Now()
	rev := analyze.Run(model.Submission{Code: req.Code, Language: req.Language, Filename: req.Filename})
	analyzed := time.Since(mark)

	mark = time.Now()
	if err := s.store.SaveReview(r.Context(), sub.ID, rev); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	stored := time.Since(mark)

	writeJSON(w, http.StatusOK, submitResponse{
		SubmissionID: sub.ID,
		Status:       "success",
		Message:      "Code submitted and analyzed",
		Timing: timingPayload(rev, time.Since(start), timing.Steps{
			Validation:         timing.FormatDuration(validated),
			DatabaseSubmission: timing.FormatDuration(submitted),
			AIAnalysis:         timing.FormatDuration(analyzed),
			DatabaseStorage:    timing.FormatDuration(stored),
		}),
	})
}

type historyEntryJSON struct {
	SubmissionID string `json:"submission_id"`
	Language     string `json:"language"`
	Filename     string `json:"filename,omitempty"`
	Score        int    `json:"score"`
	Summary      string `json:"summary,omitempty"`
	IssueCount   int    `json:"issue_count"`
	FixedCount   int    `json:"fixed_count"`
	CreatedAt    string `json:"created_at"`
}

type listSubmissionsResponse struct {
	Submissions []historyEntryJSON `json:"submissions"`
	Total       int                `json:"total"`
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	entries, err := s.store.ListSubmissions(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := listSubmissionsResponse{Total: len(entries)}
	for _, e := range entries {
		resp.Submissions = append(resp.Submissions, historyEntryJSON{
			SubmissionID: e.ID,
			Language:     e.Language,
			Filename:     e.Filename,
			Score:        e.Score,
			Summary:      e.Summary,
			IssueCount:   e.IssueCount,
			FixedCount:   e.FixedCount,
			CreatedAt:    e.CreatedAt.Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

type issueJSON struct {
	model.Issue
	IsFixed bool   `json:"is_fixed"`
	FixedAt string `json:"fixed_at,omitempty"`
}

type submissionResponse struct {
	SubmissionID string        `json:"submission_id"`
	Language     string        `json:"language"`
	Filename     string        `json:"filename,omitempty"`
	Code         string        `json:"code"`
	CreatedAt    string        `json:"created_at"`
	UpdatedAt    string        `json:"updated_at"`
	Analysis     *model.Review `json:"analysis,omitempty"`
	Issues       []issueJSON   `json:"issues"`
}

func (s *Server) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	sub, err := s.store.GetSubmission(r.Context(), id)
	if err != nil {
		writeError(w, storeStatus(err), err.Error())
		return
	}

	resp := submissionResponse{
		SubmissionID: sub.ID,
		Language:     sub.Language,
		Filename:     sub.Filename,
		Code:         sub.Code,
		CreatedAt:    sub.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    sub.UpdatedAt.Format(time.RFC3339),
	}

	// A submission without a stored review is still retrievable; the
	// analysis field is simply absent.
	if rev, err := s.store.GetReview(r.Context(), id); err == nil {
		resp.Analysis = rev
	}

	issues, err := s.store.ListIssues(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for _, is := range issues {
		resp.Issues = append(resp.Issues, issueFromStore(is))
	}

	writeJSON(w, http.StatusOK, resp)
}

type codeResponse struct {
	SubmissionID string `json:"submission_id"`
	CurrentCode  string `json:"current_code"`
	Language     string `json:"language"`
	Filename     string `json:"filename,omitempty"`
	LastUpdated  string `json:"last_updated"`
}

func (s *Server) handleGetCode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	sub, err := s.store.GetSubmission(r.Context(), id)
	if err != nil {
		writeError(w, storeStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, codeResponse{
		SubmissionID: sub.ID,
		CurrentCode:  sub.Code,
		Language:     sub.Language,
		Filename:     sub.Filename,
		LastUpdated:  sub.UpdatedAt.Format(time.RFC3339),
	})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	sub, err := s.store.GetSubmission(r.Context(), id)
	if err != nil {
		writeError(w, storeStatus(err), err.Error())
		return
	}
	rev, err := s.store.GetReview(r.Context(), id)
	if err != nil {
		writeError(w, storeStatus(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	if err := report.Write(w, rev, model.Submission{Code: sub.Code, Language: sub.Language, Filename: sub.Filename}); err != nil {
		log.Printf("report write: %v", err)
	}
}

// --- Issue fixes ---

type fixRequest struct {
	ApplyFix bool `json:"apply_fix"`
}

type fixResponse struct {
	Success     bool    `json:"success"`
	IssueID     string  `json:"issue_id"`
	UpdatedCode *string `json:"updated_code"`
	Message     string  `json:"message"`
}

func (s *Server) handleFixIssue(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req fixRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	issue, err := s.store.GetIssue(r.Context(), id)
	if err != nil {
		writeError(w, storeStatus(err), err.Error())
		return
	}

	if !req.ApplyFix {
		if err := s.store.MarkIssueFixed(r.Context(), id); err != nil {
			writeError(w, storeStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, fixResponse{
			Success: true,
			IssueID: id,
			Message: "Issue marked as fixed",
		})
		return
	}

	sub, err := s.store.GetSubmission(r.Context(), issue.SubmissionID)
	if err != nil {
		writeError(w, storeStatus(err), err.Error())
		return
	}

	st := fix.NewState(sub.Code)
	res, err := st.Apply(issue.Issue)
	if err != nil || !res.Changed {
		writeJSON(w, http.StatusOK, fixResponse{
			Success: false,
			IssueID: id,
			Message: "Failed to apply fix automatically",
		})
		return
	}

	if err := s.store.UpdateSubmissionCode(r.Context(), sub.ID, st.Current); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.store.MarkIssueFixed(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, fixResponse{
		Success:     true,
		IssueID:     id,
		UpdatedCode: &st.Current,
		Message:     "Fix applied successfully",
	})
}

// --- Analyze (v2) ---

type analyzeRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	Filename string `json:"filename,omitempty"`
}

type analyzeResponse struct {
	Status    string          `json:"status"`
	Analysis  *model.Review   `json:"analysis"`
	Timing    *timing.Payload `json:"timing,omitempty"`
	Timestamp string          `json:"timestamp"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req analyzeRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}
	if req.Language == "" {
		writeError(w, http.StatusBadRequest, "language is required")
		return
	}
	if !model.LanguageSupported(req.Language) {
		writeError(w, http.StatusBadRequest, "unsupported language: "+req.Language)
		return
	}
	validated := time.Since(start)

	mark := time.Now()
	rev := analyze.Run(model.Submission{Code: req.Code, Language: req.Language, Filename: req.Filename})
	analyzed := time.Since(mark)

	// The stateless path never touches the database; those steps report N/A.
	writeJSON(w, http.StatusOK, analyzeResponse{
		Status:   "success",
		Analysis: rev,
		Timing: timingPayload(rev, time.Since(start), timing.Steps{
			Validation:         timing.FormatDuration(validated),
			DatabaseSubmission: timing.StepNA,
			AIAnalysis:         timing.FormatDuration(analyzed),
			DatabaseStorage:    timing.StepNA,
		}),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// --- Recommendations ---

type applyRequest struct {
	Code            string                 `json:"code"`
	Language        string                 `json:"language,omitempty"`
	Recommendations []model.Recommendation `json:"recommendations"`
}

type applyResponse struct {
	Status string      `json:"status"`
	Result fix.Outcome `json:"result"`
}

func (s *Server) handleApplyRecommendations(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	result := fix.ApplyRecommendations(req.Code, req.Recommendations)

	writeJSON(w, http.StatusOK, applyResponse{
		Status: "success",
		Result: result,
	})
}

// --- Languages ---

type languagesResponse struct {
	Languages []model.Language `json:"languages"`
}

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, languagesResponse{Languages: model.SupportedLanguages()})
}

// --- Legacy review ---

type legacyReviewRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	Filename string `json:"filename,omitempty"`
}

type legacyReviewResponse struct {
	Status       string `json:"status"`
	Language     string `json:"language"`
	Review       string `json:"review"`
	Timestamp    string `json:"timestamp"`
	SubmissionID string `json:"submission_id"`
}

func (s *Server) handleLegacyReview(w http.ResponseWriter, r *http.Request) {
	var req legacyReviewRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}
	if req.Language == "" {
		writeError(w, http.StatusBadRequest, "language is required")
		return
	}
	if !model.LanguageSupported(req.Language) {
		writeError(w, http.StatusBadRequest, "unsupported language: "+req.Language)
		return
	}

	sub := &store.Submission{Code: req.Code, Language: req.Language, Filename: req.Filename}
	if err := s.store.SaveSubmission(r.Context(), sub); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	rev := analyze.Run(model.Submission{Code: req.Code, Language: req.Language, Filename: req.Filename})
	if err := s.store.SaveReview(r.Context(), sub.ID, rev); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, legacyReviewResponse{
		Status:       "success",
		Language:     req.Language,
		Review:       report.FreeText(rev),
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		SubmissionID: sub.ID,
	})
}

// --- Helpers ---

// timingPayload reports the measured pipeline steps alongside a response.
func timingPayload(rev *model.Review, total time.Duration, steps timing.Steps) *timing.Payload {
	ms := timing.Ms(total)
	return &timing.Payload{
		TotalTimeMs:      ms,
		TotalTimeSeconds: ms / 1000,
		Steps:            steps,
		AgentsUsed:       len(rev.AgentsUsed),
		IssuesFound:      len(rev.Issues),
	}
}

func issueFromStore(is *store.Issue) issueJSON {
	out := issueJSON{Issue: is.Issue, IsFixed: is.IsFixed}
	if is.FixedAt != nil {
		out.FixedAt = is.FixedAt.Format(time.RFC3339)
	}
	return out
}

// storeStatus maps a store lookup error onto its HTTP status.
func storeStatus(err error) int {
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
