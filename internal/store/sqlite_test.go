package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/sprite-ai/coderev/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testReview(issues ...model.Issue) *model.Review {
	return &model.Review{
		OverallAssessment: "Found some issues.",
		Issues:            issues,
		Score:             model.Score(issues),
		AgentsUsed:        []string{"Security Vulnerability Scanner"},
		Timing:            &model.Timing{TotalMs: 1250, TotalSeconds: 1.25},
	}
}

func TestNewSQLiteStoreCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "subdir", "test.db")

	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(filepath.Join(dir, "subdir")); err != nil {
		t.Errorf("parent directory not created: %v", err)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestSubmissionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sub := &Submission{Code: "print('hi')\n", Language: "python", Filename: "app.py"}
	if err := s.SaveSubmission(ctx, sub); err != nil {
		t.Fatalf("SaveSubmission: %v", err)
	}
	if sub.ID == "" {
		t.Fatal("SaveSubmission did not assign an ID")
	}
	if sub.Source != "api" {
		t.Errorf("default source = %q, want %q", sub.Source, "api")
	}
	if sub.CreatedAt.IsZero() || sub.UpdatedAt.IsZero() {
		t.Error("SaveSubmission did not set timestamps")
	}

	got, err := s.GetSubmission(ctx, sub.ID)
	if err != nil {
		t.Fatalf("GetSubmission: %v", err)
	}
	if got.Code != sub.Code || got.Language != "python" || got.Filename != "app.py" {
		t.Errorf("GetSubmission = %+v", got)
	}

	if err := s.UpdateSubmissionCode(ctx, sub.ID, "import logging\n"); err != nil {
		t.Fatalf("UpdateSubmissionCode: %v", err)
	}
	got, err = s.GetSubmission(ctx, sub.ID)
	if err != nil {
		t.Fatalf("GetSubmission after update: %v", err)
	}
	if got.Code != "import logging\n" {
		t.Errorf("updated code = %q", got.Code)
	}

	if _, err := s.GetSubmission(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSubmission(nope) = %v, want ErrNotFound", err)
	}
	if err := s.UpdateSubmissionCode(ctx, "nope", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateSubmissionCode(nope) = %v, want ErrNotFound", err)
	}
}

func TestSaveReviewRewritesIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sub := &Submission{Code: "print('x')\n", Language: "python"}
	if err := s.SaveSubmission(ctx, sub); err != nil {
		t.Fatalf("SaveSubmission: %v", err)
	}

	ln := 1
	rev := testReview(
		model.Issue{ID: "code_analyzer_1", Severity: "low", Title: "Debug print statements", LineNumber: &ln},
		model.Issue{ID: "security_agent_1", Severity: "high", Title: "SQL injection vulnerability detected"},
	)
	rev.FixProposals = []model.Recommendation{
		{IssueID: "security_agent_1", Title: "Fix for SQL injection vulnerability detected"},
	}

	if err := s.SaveReview(ctx, sub.ID, rev); err != nil {
		t.Fatalf("SaveReview: %v", err)
	}

	if rev.SubmissionID != sub.ID {
		t.Errorf("SubmissionID = %q, want %q", rev.SubmissionID, sub.ID)
	}
	for i, is := range rev.Issues {
		if is.ID == "" || is.ID == "code_analyzer_1" || is.ID == "security_agent_1" {
			t.Errorf("issue %d ID not rewritten: %q", i, is.ID)
		}
	}
	if got, want := rev.FixProposals[0].IssueID, rev.Issues[1].ID; got != want {
		t.Errorf("fix proposal IssueID = %q, want rewritten %q", got, want)
	}

	stored, err := s.GetReview(ctx, sub.ID)
	if err != nil {
		t.Fatalf("GetReview: %v", err)
	}
	if !reflect.DeepEqual(stored, rev) {
		t.Errorf("GetReview = %+v, want %+v", stored, rev)
	}

	issues, err := s.ListIssues(ctx, sub.ID)
	if err != nil {
		t.Fatalf("ListIssues: %v", err)
	}
	if len(issues) != 2 {
		t.Fatalf("ListIssues returned %d issues, want 2", len(issues))
	}
	for i, is := range issues {
		if is.ID != rev.Issues[i].ID {
			t.Errorf("issue %d row ID = %q, want %q", i, is.ID, rev.Issues[i].ID)
		}
		if is.IsFixed {
			t.Errorf("issue %d starts fixed", i)
		}
	}
	if issues[0].LineNumber == nil || *issues[0].LineNumber != 1 {
		t.Errorf("issue 0 line number not preserved: %v", issues[0].LineNumber)
	}
	if issues[1].LineNumber != nil {
		t.Errorf("issue 1 line number = %v, want nil", issues[1].LineNumber)
	}
}

func TestSaveReviewReplacesPrior(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sub := &Submission{Code: "x = 1\n", Language: "python"}
	if err := s.SaveSubmission(ctx, sub); err != nil {
		t.Fatalf("SaveSubmission: %v", err)
	}

	first := testReview(
		model.Issue{ID: "a_1", Severity: "low", Title: "one"},
		model.Issue{ID: "a_2", Severity: "low", Title: "two"},
	)
	if err := s.SaveReview(ctx, sub.ID, first); err != nil {
		t.Fatalf("SaveReview first: %v", err)
	}

	second := testReview(model.Issue{ID: "b_1", Severity: "high", Title: "three"})
	if err := s.SaveReview(ctx, sub.ID, second); err != nil {
		t.Fatalf("SaveReview second: %v", err)
	}

	issues, err := s.ListIssues(ctx, sub.ID)
	if err != nil {
		t.Fatalf("ListIssues: %v", err)
	}
	if len(issues) != 1 || issues[0].Title != "three" {
		t.Errorf("ListIssues after replace = %+v", issues)
	}

	stored, err := s.GetReview(ctx, sub.ID)
	if err != nil {
		t.Fatalf("GetReview: %v", err)
	}
	if stored.Score != second.Score {
		t.Errorf("stored score = %d, want %d", stored.Score, second.Score)
	}
}

func TestMarkIssueFixed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sub := &Submission{Code: "print('x')\n", Language: "python"}
	if err := s.SaveSubmission(ctx, sub); err != nil {
		t.Fatalf("SaveSubmission: %v", err)
	}
	rev := testReview(model.Issue{ID: "q_1", Severity: "low", Title: "Debug print statements"})
	if err := s.SaveReview(ctx, sub.ID, rev); err != nil {
		t.Fatalf("SaveReview: %v", err)
	}

	id := rev.Issues[0].ID
	if err := s.MarkIssueFixed(ctx, id); err != nil {
		t.Fatalf("MarkIssueFixed: %v", err)
	}

	is, err := s.GetIssue(ctx, id)
	if err != nil {
		t.Fatalf("GetIssue: %v", err)
	}
	if !is.IsFixed {
		t.Error("issue not marked fixed")
	}
	if is.FixedAt == nil {
		t.Error("FixedAt not set")
	} else if time.Since(*is.FixedAt) > time.Minute {
		t.Errorf("FixedAt looks wrong: %v", is.FixedAt)
	}

	if err := s.MarkIssueFixed(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("MarkIssueFixed(nope) = %v, want ErrNotFound", err)
	}
	if _, err := s.GetIssue(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetIssue(nope) = %v, want ErrNotFound", err)
	}
}

func TestListSubmissions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var ids []string
	for _, code := range []string{"a = 1\n", "b = 2\n", "c = 3\n"} {
		sub := &Submission{Code: code, Language: "python"}
		if err := s.SaveSubmission(ctx, sub); err != nil {
			t.Fatalf("SaveSubmission: %v", err)
		}
		ids = append(ids, sub.ID)
		time.Sleep(5 * time.Millisecond)
	}

	rev := testReview(
		model.Issue{ID: "x_1", Severity: "high", Title: "one"},
		model.Issue{ID: "x_2", Severity: "low", Title: "two"},
	)
	if err := s.SaveReview(ctx, ids[2], rev); err != nil {
		t.Fatalf("SaveReview: %v", err)
	}
	if err := s.MarkIssueFixed(ctx, rev.Issues[0].ID); err != nil {
		t.Fatalf("MarkIssueFixed: %v", err)
	}

	entries, err := s.ListSubmissions(ctx, 0, 0)
	if err != nil {
		t.Fatalf("ListSubmissions: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("ListSubmissions returned %d entries, want 3", len(entries))
	}

	// Newest first. The most recent submission carries its review summary.
	latest := entries[0]
	if latest.ID != ids[2] {
		t.Errorf("first entry = %s, want newest %s", latest.ID, ids[2])
	}
	if latest.Score != rev.Score || latest.IssueCount != 2 || latest.FixedCount != 1 {
		t.Errorf("latest entry = %+v", latest)
	}

	// Unreviewed submissions list with zero values.
	if entries[2].Score != 0 || entries[2].IssueCount != 0 || entries[2].Summary != "" {
		t.Errorf("unreviewed entry = %+v", entries[2])
	}

	page, err := s.ListSubmissions(ctx, 2, 0)
	if err != nil {
		t.Fatalf("ListSubmissions limit: %v", err)
	}
	if len(page) != 2 {
		t.Errorf("limit 2 returned %d entries", len(page))
	}
	page, err = s.ListSubmissions(ctx, 2, 2)
	if err != nil {
		t.Fatalf("ListSubmissions offset: %v", err)
	}
	if len(page) != 1 || page[0].ID != ids[0] {
		t.Errorf("offset page = %+v", page)
	}
}

func TestGetReviewNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetReview(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetReview(nope) = %v, want ErrNotFound", err)
	}
}
