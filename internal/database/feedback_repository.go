package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/gclearnbot/internal/errs"
	"github.com/example/gclearnbot/pkg/models"
)

// FeedbackRepository stores free-text feedback users leave about the bot
type FeedbackRepository struct{}

// NewFeedbackRepository creates a new repository instance
func NewFeedbackRepository() *FeedbackRepository {
	return &FeedbackRepository{}
}

// Save stores one feedback note. Empty or whitespace-only text is rejected.
func (r *FeedbackRepository) Save(userID int64, text string) (*models.FeedbackNote, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errs.Validationf("feedback text is empty")
	}
	note := &models.FeedbackNote{
		ID:        uuid.NewString(),
		UserID:    userID,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
	query := DB.Rebind(`
		INSERT INTO feedback_notes (id, user_id, text, processed, category, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	_, err := DB.Exec(query, note.ID, note.UserID, note.Text, note.Processed, note.Category, note.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to save feedback: %w", err)
	}
	return note, nil
}

// ListByUser returns a user's recent feedback notes
func (r *FeedbackRepository) ListByUser(userID int64, limit int) ([]models.FeedbackNote, error) {
	if limit < 1 {
		limit = 10
	}
	query := DB.Rebind(`
		SELECT id, user_id, text, processed, category, timestamp
		FROM feedback_notes
		WHERE user_id = ?
		ORDER BY timestamp DESC
		LIMIT ?
	`)
	return r.queryNotes(query, userID, limit)
}

// ListAll returns feedback notes, optionally filtered by processed state
func (r *FeedbackRepository) ListAll(processed *bool, limit int) ([]models.FeedbackNote, error) {
	if limit < 1 {
		limit = 100
	}
	if processed == nil {
		query := DB.Rebind(`
			SELECT id, user_id, text, processed, category, timestamp
			FROM feedback_notes
			ORDER BY timestamp DESC
			LIMIT ?
		`)
		return r.queryNotes(query, limit)
	}
	query := DB.Rebind(`
		SELECT id, user_id, text, processed, category, timestamp
		FROM feedback_notes
		WHERE processed = ?
		ORDER BY timestamp DESC
		LIMIT ?
	`)
	return r.queryNotes(query, *processed, limit)
}

func (r *FeedbackRepository) queryNotes(query string, args ...interface{}) ([]models.FeedbackNote, error) {
	rows, err := DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	var notes []models.FeedbackNote
	for rows.Next() {
		var note models.FeedbackNote
		err := rows.Scan(&note.ID, &note.UserID, &note.Text, &note.Processed, &note.Category, &note.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

// MarkProcessed flags a note as handled, with an optional category
func (r *FeedbackRepository) MarkProcessed(id, category string) error {
	query := DB.Rebind("UPDATE feedback_notes SET processed = ?, category = ? WHERE id = ?")
	result, err := DB.Exec(query, true, category, id)
	if err != nil {
		return fmt.Errorf("failed to mark feedback processed: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return errs.NotFoundf("feedback %s", id)
	}
	return nil
}
