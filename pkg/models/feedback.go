package models

import "time"

// FeedbackResult is the transient outcome of scoring one response. It is not
// persisted as its own entity.
type FeedbackResult struct {
	Messages []string       `json:"messages"`
	Quality  QualityMetrics `json:"quality"`
	// Cached reports whether the result was served from the feedback cache.
	Cached bool `json:"cached,omitempty"`
}

// QualityMetrics are the measurable properties of a response plus the
// informational pattern scores. They never gate progression.
type QualityMetrics struct {
	Length          int    `json:"length"`
	WordCount       int    `json:"word_count"`
	SentenceCount   int    `json:"sentence_count"`
	HasPunctuation  bool   `json:"has_punctuation"`
	IncludesDetails bool   `json:"includes_details"`
	CriticalScore   int    `json:"critical_thinking_score"`
	ConceptScore    int    `json:"concept_understanding_score"`
	LearningStyle   string `json:"learning_style"`
}

// FeedbackNote is free-text feedback about the bot submitted by a user via
// the feedback command, reviewed later by admins.
type FeedbackNote struct {
	ID        string    `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Text      string    `json:"text" db:"text"`
	Processed bool      `json:"processed" db:"processed"`
	Category  string    `json:"category" db:"category"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}
