package database

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/gclearnbot/pkg/models"
)

// JournalRepository handles database operations for journal entries. Entries
// are append-only: there is no update or delete method on purpose.
type JournalRepository struct{}

// NewJournalRepository creates a new repository instance
func NewJournalRepository() *JournalRepository {
	return &JournalRepository{}
}

// AppendTx inserts one entry inside tx. The entry must already carry its ID
// and timestamp; the journal append and the progress advance share one
// transaction so a user is never advanced without a saved entry.
func (r *JournalRepository) AppendTx(tx *sqlx.Tx, entry *models.JournalEntry) error {
	keywordsJSON, err := json.Marshal(entry.KeywordsUsed)
	if err != nil {
		return fmt.Errorf("failed to marshal keywords: %w", err)
	}
	if entry.KeywordsUsed == nil {
		keywordsJSON = []byte("[]")
	}

	query := tx.Rebind(`
		INSERT INTO journal_entries (id, user_id, lesson, response, response_length, keywords_used, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	_, err = tx.Exec(query,
		entry.ID, entry.UserID, entry.Lesson, entry.Response,
		entry.ResponseLength, string(keywordsJSON), entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append journal entry: %w", err)
	}
	return nil
}

// ListByUser returns a page of the user's entries, newest first.
func (r *JournalRepository) ListByUser(userID int64, page, perPage int) ([]models.JournalEntry, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	offset := (page - 1) * perPage

	query := DB.Rebind(`
		SELECT id, user_id, lesson, response, response_length, keywords_used, timestamp
		FROM journal_entries
		WHERE user_id = ?
		ORDER BY timestamp DESC
		LIMIT ? OFFSET ?
	`)
	return r.queryEntries(query, userID, perPage, offset)
}

// ListByLesson returns the most recent responses for one lesson node across
// all users, used in per-lesson analytics.
func (r *JournalRepository) ListByLesson(lesson string, limit int) ([]models.JournalEntry, error) {
	if limit < 1 {
		limit = 100
	}
	query := DB.Rebind(`
		SELECT id, user_id, lesson, response, response_length, keywords_used, timestamp
		FROM journal_entries
		WHERE lesson = ?
		ORDER BY timestamp DESC
		LIMIT ?
	`)
	return r.queryEntries(query, lesson, limit)
}

// ListRecent returns the newest entries across all users, for the admin
// journal review view.
func (r *JournalRepository) ListRecent(limit int) ([]models.JournalEntry, error) {
	if limit < 1 {
		limit = 100
	}
	query := DB.Rebind(`
		SELECT id, user_id, lesson, response, response_length, keywords_used, timestamp
		FROM journal_entries
		ORDER BY timestamp DESC
		LIMIT ?
	`)
	return r.queryEntries(query, limit)
}

// AllByUser returns every entry for a user, newest first, for streak and
// export computations.
func (r *JournalRepository) AllByUser(userID int64) ([]models.JournalEntry, error) {
	query := DB.Rebind(`
		SELECT id, user_id, lesson, response, response_length, keywords_used, timestamp
		FROM journal_entries
		WHERE user_id = ?
		ORDER BY timestamp DESC
	`)
	return r.queryEntries(query, userID)
}

func (r *JournalRepository) queryEntries(query string, args ...interface{}) ([]models.JournalEntry, error) {
	rows, err := DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal entries: %w", err)
	}
	defer rows.Close()

	var entries []models.JournalEntry
	for rows.Next() {
		var entry models.JournalEntry
		var keywordsJSON string
		err := rows.Scan(
			&entry.ID, &entry.UserID, &entry.Lesson, &entry.Response,
			&entry.ResponseLength, &keywordsJSON, &entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		if keywordsJSON != "" {
			if err := json.Unmarshal([]byte(keywordsJSON), &entry.KeywordsUsed); err != nil {
				return nil, fmt.Errorf("failed to parse keywords: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// CountByUser returns the user's total entry count
func (r *JournalRepository) CountByUser(userID int64) (int, error) {
	var count int
	query := DB.Rebind("SELECT COUNT(*) FROM journal_entries WHERE user_id = ?")
	if err := DB.Get(&count, query, userID); err != nil {
		return 0, fmt.Errorf("failed to count journal entries: %w", err)
	}
	return count, nil
}

// Timestamps returns the user's entry timestamps, newest first, for streak
// computation without loading response bodies.
func (r *JournalRepository) Timestamps(userID int64) ([]time.Time, error) {
	query := DB.Rebind(`
		SELECT timestamp FROM journal_entries
		WHERE user_id = ?
		ORDER BY timestamp DESC
	`)
	rows, err := DB.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entry timestamps: %w", err)
	}
	defer rows.Close()

	var stamps []time.Time
	for rows.Next() {
		var ts time.Time
		if err := rows.Scan(&ts); err != nil {
			return nil, fmt.Errorf("failed to scan timestamp: %w", err)
		}
		stamps = append(stamps, ts)
	}
	return stamps, rows.Err()
}

// DistinctLessons returns the set of lesson nodes the user has written about
func (r *JournalRepository) DistinctLessons(userID int64) ([]string, error) {
	query := DB.Rebind("SELECT DISTINCT lesson FROM journal_entries WHERE user_id = ?")
	rows, err := DB.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct lessons: %w", err)
	}
	defer rows.Close()

	var lessons []string
	for rows.Next() {
		var lesson string
		if err := rows.Scan(&lesson); err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		lessons = append(lessons, lesson)
	}
	return lessons, rows.Err()
}

// AverageResponseLength returns the mean response length for one lesson node
func (r *JournalRepository) AverageResponseLength(lesson string) (float64, error) {
	var avg float64
	query := DB.Rebind("SELECT COALESCE(AVG(response_length), 0) FROM journal_entries WHERE lesson = ?")
	if err := DB.Get(&avg, query, lesson); err != nil {
		return 0, fmt.Errorf("failed to get average response length: %w", err)
	}
	return avg, nil
}

// CountByLesson returns total responses and distinct respondents for a lesson
func (r *JournalRepository) CountByLesson(lesson string) (responses, respondents int, err error) {
	query := DB.Rebind("SELECT COUNT(*), COUNT(DISTINCT user_id) FROM journal_entries WHERE lesson = ?")
	row := DB.QueryRow(query, lesson)
	if err := row.Scan(&responses, &respondents); err != nil {
		return 0, 0, fmt.Errorf("failed to count lesson responses: %w", err)
	}
	return responses, respondents, nil
}
