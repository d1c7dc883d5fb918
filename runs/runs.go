package runs

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fedestu/RPA-Challenge/newsfeed"
	"github.com/fedestu/RPA-Challenge/scraper"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Custom errors for run operations
var (
	ErrRunNotFound   = errors.New("run not found")
	ErrDuplicateRun  = errors.New("run with this ID already exists")
	ErrInvalidStatus = errors.New("status must be running, completed, or failed")
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Store records extraction runs and their articles using SQLite.
type Store struct {
	db *sql.DB
}

// Run is one extraction run.
type Run struct {
	RunID        uuid.UUID           `json:"run_id"`
	SearchPhrase string              `json:"search_phrase"`
	CategoryName string              `json:"category_name,omitempty"`
	NumMonths    int                 `json:"num_months"`
	Status       string              `json:"status"`
	StartedAt    time.Time           `json:"started_at"`
	FinishedAt   *time.Time          `json:"finished_at,omitempty"`
	ArticleCount int                 `json:"article_count"`
	Pages        int                 `json:"pages"`
	Skipped      int                 `json:"skipped"`
	StopReason   *string             `json:"stop_reason,omitempty"`
	LastError    *string             `json:"last_error,omitempty"`
	SiteConfig   *scraper.SiteConfig `json:"site_config,omitempty"`
}

// IsFinished returns true if the run reached a terminal status.
func (r *Run) IsFinished() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}

// RunUpdate represents fields that can be updated on a run.
type RunUpdate struct {
	Status       *string
	FinishedAt   *time.Time
	ArticleCount *int
	Pages        *int
	Skipped      *int
	StopReason   *string
	LastError    *string
}

// RunFilter represents filtering options for listing runs.
type RunFilter struct {
	Status       *string
	SearchPhrase *string
	Limit        int
	Offset       int
}

// NewStore creates a new run store with the given database path.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the runs and articles tables if they don't exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		search_phrase TEXT NOT NULL,
		category_name TEXT NOT NULL DEFAULT '',
		num_months INTEGER NOT NULL,
		status TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		article_count INTEGER DEFAULT 0,
		pages INTEGER DEFAULT 0,
		skipped INTEGER DEFAULT 0,
		stop_reason TEXT,
		last_error TEXT,
		site_config TEXT
	);

	CREATE TABLE IF NOT EXISTS articles (
		run_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		published_date TEXT NOT NULL,
		description TEXT NOT NULL,
		picture_filename TEXT NOT NULL,
		search_phrase_count INTEGER NOT NULL,
		contains_money INTEGER NOT NULL,
		PRIMARY KEY (run_id, position)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun records a new run in the running status. A nil runID gets a
// fresh one.
func (s *Store) CreateRun(
	runID uuid.UUID,
	searchPhrase, categoryName string,
	numMonths int,
	site *scraper.SiteConfig,
) (*Run, error) {
	if runID == uuid.Nil {
		runID = uuid.New()
	}

	run := &Run{
		RunID:        runID,
		SearchPhrase: searchPhrase,
		CategoryName: categoryName,
		NumMonths:    numMonths,
		Status:       StatusRunning,
		StartedAt:    time.Now().Truncate(0),
		SiteConfig:   site,
	}

	var siteJSON *string
	if site != nil {
		data, err := json.Marshal(site)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal site_config: %w", err)
		}
		jsonStr := string(data)
		siteJSON = &jsonStr
	}

	query := `
		INSERT INTO runs (
			run_id, search_phrase, category_name, num_months,
			status, started_at, site_config
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		run.RunID.String(),
		run.SearchPhrase,
		run.CategoryName,
		run.NumMonths,
		run.Status,
		formatTime(&run.StartedAt),
		siteJSON,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") ||
			strings.Contains(err.Error(), "unique constraint") {
			return nil, ErrDuplicateRun
		}
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	return run, nil
}

const runColumns = `
	run_id, search_phrase, category_name, num_months, status,
	started_at, finished_at, article_count, pages, skipped,
	stop_reason, last_error, site_config
`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(runID uuid.UUID) (*Run, error) {
	row := s.db.QueryRow("SELECT "+runColumns+" FROM runs WHERE run_id = ?", runID.String())

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns lists runs, newest first, with optional filtering.
func (s *Store) ListRuns(filter RunFilter) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM runs"

	var whereClauses []string
	var args []any

	if filter.Status != nil {
		whereClauses = append(whereClauses, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.SearchPhrase != nil {
		whereClauses = append(whereClauses, "search_phrase = ?")
		args = append(args, *filter.SearchPhrase)
	}

	if len(whereClauses) > 0 {
		query += " WHERE " + strings.Join(whereClauses, " AND ")
	}

	query += " ORDER BY started_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		if filter.Limit <= 0 {
			query += " LIMIT -1"
		}
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return runs, nil
}

// UpdateRun updates a run with the provided fields.
func (s *Store) UpdateRun(runID uuid.UUID, update RunUpdate) error {
	var setClauses []string
	var args []any

	if update.Status != nil {
		if err := ValidateStatus(*update.Status); err != nil {
			return err
		}
		setClauses = append(setClauses, "status = ?")
		args = append(args, *update.Status)
	}
	if update.FinishedAt != nil {
		setClauses = append(setClauses, "finished_at = ?")
		args = append(args, formatTime(update.FinishedAt))
	}
	if update.ArticleCount != nil {
		setClauses = append(setClauses, "article_count = ?")
		args = append(args, *update.ArticleCount)
	}
	if update.Pages != nil {
		setClauses = append(setClauses, "pages = ?")
		args = append(args, *update.Pages)
	}
	if update.Skipped != nil {
		setClauses = append(setClauses, "skipped = ?")
		args = append(args, *update.Skipped)
	}
	if update.StopReason != nil {
		setClauses = append(setClauses, "stop_reason = ?")
		args = append(args, *update.StopReason)
	}
	if update.LastError != nil {
		setClauses = append(setClauses, "last_error = ?")
		args = append(args, *update.LastError)
	}

	if len(setClauses) == 0 {
		// Nothing to change; still report unknown runs
		_, err := s.GetRun(runID)
		return err
	}

	args = append(args, runID.String())
	query := fmt.Sprintf("UPDATE runs SET %s WHERE run_id = ?", strings.Join(setClauses, ", "))

	result, err := s.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrRunNotFound
	}

	return nil
}

// DeleteRun deletes a run and its articles.
func (s *Store) DeleteRun(runID uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec("DELETE FROM runs WHERE run_id = ?", runID.String())
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrRunNotFound
	}

	if _, err := tx.Exec("DELETE FROM articles WHERE run_id = ?", runID.String()); err != nil {
		return fmt.Errorf("failed to delete articles: %w", err)
	}

	return tx.Commit()
}

// SaveArticles replaces the articles of a run, keeping their order.
func (s *Store) SaveArticles(runID uuid.UUID, records []newsfeed.ArticleRecord) error {
	if _, err := s.GetRun(runID); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM articles WHERE run_id = ?", runID.String()); err != nil {
		return fmt.Errorf("failed to clear articles: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO articles (
			run_id, position, title, published_date, description,
			picture_filename, search_phrase_count, contains_money
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		_, err := stmt.Exec(
			runID.String(), i, r.Title, r.Date(), r.Description,
			r.ImageFilename, r.SearchPhraseCount, r.ContainsMoney,
		)
		if err != nil {
			return fmt.Errorf("failed to insert article %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// ListArticles returns the articles of a run in extraction order. Published
// dates come back as midnight UTC.
func (s *Store) ListArticles(runID uuid.UUID) ([]newsfeed.ArticleRecord, error) {
	if _, err := s.GetRun(runID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT title, published_date, description, picture_filename,
		       search_phrase_count, contains_money
		FROM articles
		WHERE run_id = ?
		ORDER BY position
	`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	records := []newsfeed.ArticleRecord{}
	for rows.Next() {
		var r newsfeed.ArticleRecord
		var date string
		if err := rows.Scan(
			&r.Title, &date, &r.Description, &r.ImageFilename,
			&r.SearchPhraseCount, &r.ContainsMoney,
		); err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		r.PublishedDate, err = time.Parse(newsfeed.DateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse article date: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate articles: %w", err)
	}

	return records, nil
}

// ValidateStatus validates that the status is a known run status.
func ValidateStatus(status string) error {
	switch status {
	case StatusRunning, StatusCompleted, StatusFailed:
		return nil
	default:
		return ErrInvalidStatus
	}
}

// scanRun parses one runs row.
func scanRun(row rowScanner) (*Run, error) {
	var runIDStr, searchPhrase, categoryName, status, startedAtStr string
	var finishedAtStr, stopReason, lastError, siteJSON sql.NullString
	var numMonths, articleCount, pages, skipped int

	err := row.Scan(
		&runIDStr, &searchPhrase, &categoryName, &numMonths, &status,
		&startedAtStr, &finishedAtStr, &articleCount, &pages, &skipped,
		&stopReason, &lastError, &siteJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	runID, err := uuid.Parse(runIDStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse run ID: %w", err)
	}

	run := &Run{
		RunID:        runID,
		SearchPhrase: searchPhrase,
		CategoryName: categoryName,
		NumMonths:    numMonths,
		Status:       status,
		StartedAt:    parseTime(startedAtStr),
		ArticleCount: articleCount,
		Pages:        pages,
		Skipped:      skipped,
	}

	if finishedAtStr.Valid {
		t := parseTime(finishedAtStr.String)
		run.FinishedAt = &t
	}
	if stopReason.Valid {
		run.StopReason = &stopReason.String
	}
	if lastError.Valid {
		run.LastError = &lastError.String
	}

	if siteJSON.Valid {
		var site scraper.SiteConfig
		if err := json.Unmarshal([]byte(siteJSON.String), &site); err != nil {
			return nil, fmt.Errorf("failed to unmarshal site_config: %w", err)
		}
		run.SiteConfig = &site
	}

	return run, nil
}

// timeLayout keeps a fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Helper functions for time formatting
func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t.Truncate(0)
}
