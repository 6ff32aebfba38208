package models

// Progress is the snapshot returned to chat and API layers.
type Progress struct {
	CurrentLesson    string   `json:"current_lesson"`
	CompletedLessons []string `json:"completed_lessons"`
	CompletionRate   float64  `json:"completion_rate"`
	TotalEntries     int      `json:"total_entries"`
	Streak           Streak   `json:"streak"`
}

// SubmitResult is the outcome of one response submission: whether it was
// accepted, the feedback produced, and the next lesson to send (nil when the
// course is complete).
type SubmitResult struct {
	Accepted   bool            `json:"accepted"`
	Feedback   *FeedbackResult `json:"feedback,omitempty"`
	NextLesson *LessonNode     `json:"next_lesson,omitempty"`

	// Skill analysis for the submitted response, with the levels held before
	// this submission so callers can announce level-ups.
	Skills         []SkillScore          `json:"skills,omitempty"`
	PreviousLevels map[string]SkillLevel `json:"-"`
}
