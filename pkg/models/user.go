package models

import "time"

// Platform identifiers for the channels a user can arrive through.
const (
	PlatformTelegram = "telegram"
	PlatformSlack    = "slack"
	PlatformWeb      = "web"
)

// User represents a learner on any platform. Users are created on first
// interaction and never hard-deleted.
type User struct {
	ID         int64  `json:"id" db:"id"`
	Platform   string `json:"platform" db:"platform"`
	PlatformID string `json:"platform_id" db:"platform_id"` // channel-native ID (chat ID, Slack user ID, email)
	Username   string `json:"username" db:"username"`
	FirstName  string `json:"first_name" db:"first_name"`
	LastName   string `json:"last_name" db:"last_name"`
	Email      string `json:"email,omitempty" db:"email"`
	// PasswordHash is set only for web accounts.
	PasswordHash string `json:"-" db:"password_hash"`
	IsAdmin      bool   `json:"is_admin" db:"is_admin"`

	// CurrentLesson is the lesson graph node the user is on. Mutated only by
	// the progress service.
	CurrentLesson string `json:"current_lesson" db:"current_lesson"`
	// CompletedLessons is the set of finished node IDs, stored as JSON.
	CompletedLessons []string `json:"completed_lessons" db:"-"`

	// Derived metrics, recomputed on each advance.
	CompletionRate float64 `json:"completion_rate" db:"completion_rate"`
	TotalResponses int     `json:"total_responses" db:"total_responses"`

	LastActive time.Time `json:"last_active" db:"last_active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// HasCompleted reports whether the given lesson node is in the completed set.
func (u *User) HasCompleted(lessonID string) bool {
	for _, id := range u.CompletedLessons {
		if id == lessonID {
			return true
		}
	}
	return false
}
