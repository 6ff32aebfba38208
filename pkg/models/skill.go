package models

import "time"

// SkillLevel is a proficiency label for one skill area.
type SkillLevel string

// Skill levels, ordered weakest to strongest.
const (
	LevelBeginner     SkillLevel = "beginner"
	LevelIntermediate SkillLevel = "intermediate"
	LevelAdvanced     SkillLevel = "advanced"
)

// SkillProgress tracks one user's standing in one skill area. The last five
// scores are kept for trend analysis; the level follows their average.
type SkillProgress struct {
	UserID       int64      `json:"user_id" db:"user_id"`
	Skill        string     `json:"skill" db:"skill"`
	Level        SkillLevel `json:"level" db:"level"`
	RecentScores []float64  `json:"recent_scores" db:"-"` // stored as JSON, newest last, max 5
	HighestScore float64    `json:"highest_score" db:"highest_score"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// SkillScore is one scored skill area for a single response.
type SkillScore struct {
	Skill string     `json:"skill"`
	Score float64    `json:"score"`
	Level SkillLevel `json:"level"`
}
