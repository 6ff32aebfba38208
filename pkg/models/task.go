package models

import "time"

// Task is admin-authored supplemental content attached to a lesson. Active
// tasks decorate the lesson at send time; they never affect progression.
type Task struct {
	ID           int64     `json:"id" db:"id"`
	Company      string    `json:"company" db:"company"`
	Lesson       string    `json:"lesson" db:"lesson"`
	Description  string    `json:"description" db:"description"`
	Requirements []string  `json:"requirements" db:"-"` // stored as JSON
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
