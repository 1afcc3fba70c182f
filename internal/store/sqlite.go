package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/sprite-ai/coderev/internal/model"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite allows one writer at a time. A single connection serializes
	// all access through the pool and avoids "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// newULID generates a new ULID string.
func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Submissions ---

func (s *SQLiteStore) SaveSubmission(ctx context.Context, sub *Submission) error {
	if sub.ID == "" {
		sub.ID = newULID()
	}
	if sub.Source == "" {
		sub.Source = "api"
	}
	now := time.Now().UTC()
	sub.CreatedAt = now
	sub.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO submissions (id, code, language, filename, source, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.Code, sub.Language, sub.Filename, sub.Source, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save submission: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetSubmission(ctx context.Context, id string) (*Submission, error) {
	sub := &Submission{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, code, language, filename, source, created_at, updated_at
		FROM submissions WHERE id = ?`, id,
	).Scan(&sub.ID, &sub.Code, &sub.Language, &sub.Filename, &sub.Source, &sub.CreatedAt, &sub.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("submission %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return sub, nil
}

func (s *SQLiteStore) UpdateSubmissionCode(ctx context.Context, id, code string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE submissions SET code = ?, updated_at = ? WHERE id = ?",
		code, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update submission code: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("submission %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) ListSubmissions(ctx context.Context, limit, offset int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = -1 // no limit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.language, s.filename, s.created_at,
			COALESCE(r.score, 0), COALESCE(r.summary, ''),
			(SELECT COUNT(*) FROM issues i WHERE i.submission_id = s.id),
			(SELECT COUNT(*) FROM issues i WHERE i.submission_id = s.id AND i.is_fixed = 1)
		FROM submissions s
		LEFT JOIN reviews r ON r.submission_id = s.id
		ORDER BY s.created_at DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.Language, &e.Filename, &e.CreatedAt,
			&e.Score, &e.Summary, &e.IssueCount, &e.FixedCount); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// --- Reviews ---

// SaveReview stores a review and its issues for a submission, replacing any
// prior review. Issue IDs and the fix proposals referencing them are
// rewritten to durable row IDs before the payload is serialized, so stored
// and returned forms agree.
func (s *SQLiteStore) SaveReview(ctx context.Context, submissionID string, rev *model.Review) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save review: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM issues WHERE submission_id = ?", submissionID); err != nil {
		return fmt.Errorf("clear issues: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM reviews WHERE submission_id = ?", submissionID); err != nil {
		return fmt.Errorf("clear review: %w", err)
	}

	now := time.Now().UTC()
	rev.SubmissionID = submissionID

	idMap := make(map[string]string, len(rev.Issues))
	for i := range rev.Issues {
		rowID := newULID()
		if old := rev.Issues[i].ID; old != "" {
			idMap[old] = rowID
		}
		rev.Issues[i].ID = rowID

		is := rev.Issues[i]
		_, err := tx.ExecContext(ctx,
			`INSERT INTO issues (id, submission_id, type, severity, title, description,
				line_number, column_number, code_snippet, explanation, suggestion,
				suggested_fix, file_path, agent, confidence, is_fixed, fixed_at, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, NULL, ?)`,
			is.ID, submissionID, is.Type, is.Severity, is.Title, is.Description,
			is.LineNumber, is.Column, is.CodeSnippet, is.Explanation, is.Suggestion,
			is.SuggestedFix, is.FilePath, is.Agent, is.Confidence, now,
		)
		if err != nil {
			return fmt.Errorf("save issue: %w", err)
		}
	}
	for i := range rev.FixProposals {
		if mapped, ok := idMap[rev.FixProposals[i].IssueID]; ok {
			rev.FixProposals[i].IssueID = mapped
		}
	}

	agentsJSON, err := json.Marshal(rev.AgentsUsed)
	if err != nil {
		agentsJSON = []byte("[]")
	}
	var timeSeconds float64
	if rev.Timing != nil {
		timeSeconds = rev.Timing.TotalSeconds
	}
	payload, err := json.Marshal(rev)
	if err != nil {
		return fmt.Errorf("encode review: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO reviews (id, submission_id, score, summary, agents, time_seconds, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		newULID(), submissionID, rev.Score, rev.OverallAssessment,
		string(agentsJSON), timeSeconds, string(payload), now,
	)
	if err != nil {
		return fmt.Errorf("save review: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save review: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetReview(ctx context.Context, submissionID string) (*model.Review, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM reviews WHERE submission_id = ?", submissionID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("review for submission %s: %w", submissionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}

	rev := &model.Review{}
	if err := json.Unmarshal([]byte(payload), rev); err != nil {
		return nil, fmt.Errorf("decode review: %w", err)
	}
	return rev, nil
}

// --- Issues ---

const issueColumns = `id, submission_id, type, severity, title, description,
	line_number, column_number, code_snippet, explanation, suggestion,
	suggested_fix, file_path, agent, confidence, is_fixed, fixed_at, created_at`

func scanIssue(scan func(dest ...any) error) (*Issue, error) {
	is := &Issue{}
	var line, col sql.NullInt64
	var fixedAt sql.NullTime
	var isFixed int

	err := scan(&is.ID, &is.SubmissionID, &is.Type, &is.Severity, &is.Title, &is.Description,
		&line, &col, &is.CodeSnippet, &is.Explanation, &is.Suggestion,
		&is.SuggestedFix, &is.FilePath, &is.Agent, &is.Confidence, &isFixed, &fixedAt, &is.CreatedAt)
	if err != nil {
		return nil, err
	}

	if line.Valid {
		n := int(line.Int64)
		is.LineNumber = &n
	}
	if col.Valid {
		n := int(col.Int64)
		is.Column = &n
	}
	is.IsFixed = isFixed != 0
	if fixedAt.Valid {
		t := fixedAt.Time
		is.FixedAt = &t
	}
	return is, nil
}

func (s *SQLiteStore) GetIssue(ctx context.Context, id string) (*Issue, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+issueColumns+" FROM issues WHERE id = ?", id)
	is, err := scanIssue(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("issue %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get issue: %w", err)
	}
	return is, nil
}

func (s *SQLiteStore) ListIssues(ctx context.Context, submissionID string) ([]*Issue, error) {
	// rowid preserves insertion order, which is the review's issue order.
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+issueColumns+" FROM issues WHERE submission_id = ? ORDER BY rowid", submissionID)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var issues []*Issue
	for rows.Next() {
		is, err := scanIssue(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		issues = append(issues, is)
	}
	return issues, rows.Err()
}

func (s *SQLiteStore) MarkIssueFixed(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE issues SET is_fixed = 1, fixed_at = ? WHERE id = ?",
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("mark issue fixed: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("issue %s: %w", id, ErrNotFound)
	}
	return nil
}
