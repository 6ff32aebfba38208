package models

import "time"

// JournalEntry is one submitted response. Entries are append-only and
// immutable once written: there is no edit or delete path.
type JournalEntry struct {
	ID             string    `json:"id" db:"id"`
	UserID         int64     `json:"user_id" db:"user_id"`
	Lesson         string    `json:"lesson" db:"lesson"` // lesson node ID at time of writing
	Response       string    `json:"response" db:"response"`
	ResponseLength int       `json:"response_length" db:"response_length"`
	KeywordsUsed   []string  `json:"keywords_used" db:"-"` // rubric keywords found in the response, stored as JSON
	Timestamp      time.Time `json:"timestamp" db:"timestamp"`
}

// Streak summarizes journaling activity by calendar day.
type Streak struct {
	Current         int `json:"current_streak"`
	Longest         int `json:"longest_streak"`
	TotalActiveDays int `json:"total_active_days"`
}
