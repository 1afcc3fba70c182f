// Package store persists submissions and their reviews in SQLite.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/sprite-ai/coderev/internal/model"
)

// ErrNotFound reports a lookup for a row that does not exist. Callers match
// it with errors.Is to map store misses onto HTTP 404s.
var ErrNotFound = errors.New("not found")

// Submission is a stored code submission. Code holds the current text and is
// rewritten in place when fixes are applied.
type Submission struct {
	ID        string
	Code      string
	Language  string
	Filename  string
	Source    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Issue is a stored review finding plus its fix bookkeeping. The embedded
// model.Issue carries the durable row ID assigned at save time.
type Issue struct {
	model.Issue
	SubmissionID string
	IsFixed      bool
	FixedAt      *time.Time
	CreatedAt    time.Time
}

// HistoryEntry summarizes one stored submission for listings. Score and
// Summary are zero values until a review is saved.
type HistoryEntry struct {
	ID         string
	Language   string
	Filename   string
	Score      int
	Summary    string
	IssueCount int
	FixedCount int
	CreatedAt  time.Time
}

// Store is the persistence interface for review history.
type Store interface {
	// Submissions
	SaveSubmission(ctx context.Context, sub *Submission) error
	GetSubmission(ctx context.Context, id string) (*Submission, error)
	UpdateSubmissionCode(ctx context.Context, id, code string) error
	ListSubmissions(ctx context.Context, limit, offset int) ([]HistoryEntry, error)

	// Reviews. SaveReview replaces any prior review for the submission and
	// rewrites issue and fix-proposal IDs to the durable row IDs.
	SaveReview(ctx context.Context, submissionID string, rev *model.Review) error
	GetReview(ctx context.Context, submissionID string) (*model.Review, error)

	// Issues
	GetIssue(ctx context.Context, id string) (*Issue, error)
	ListIssues(ctx context.Context, submissionID string) ([]*Issue, error)
	MarkIssueFixed(ctx context.Context, id string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
