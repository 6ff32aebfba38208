package analytics

import (
	"time"

	"github.com/example/gclearnbot/internal/content"
	"github.com/example/gclearnbot/internal/database"
	"github.com/example/gclearnbot/internal/logger"
	"github.com/example/gclearnbot/internal/progress"
	"github.com/example/gclearnbot/pkg/models"
)

// UserReport is the per-learner analytics snapshot served to admins.
type UserReport struct {
	UserID            int64                           `json:"user_id"`
	Username          string                          `json:"username"`
	Platform          string                          `json:"platform"`
	CurrentLesson     string                          `json:"current_lesson"`
	CompletedLessons  []string                        `json:"completed_lessons"`
	CompletionRate    float64                         `json:"completion_rate"`
	TotalEntries      int                             `json:"total_entries"`
	LessonsWritten    []string                        `json:"lessons_written"`
	Streak            models.Streak                   `json:"streak"`
	Skills            map[string]models.SkillProgress `json:"skills,omitempty"`
	LastActive        time.Time                       `json:"last_active"`
	AvgResponseLength float64                         `json:"avg_response_length"`
}

// CohortReport summarizes the whole learner population.
type CohortReport struct {
	TotalUsers         int            `json:"total_users"`
	ActiveLastDay      int            `json:"active_last_day"`
	ActiveLastWeek     int            `json:"active_last_week"`
	AvgCompletionRate  float64        `json:"avg_completion_rate"`
	LessonDistribution map[string]int `json:"lesson_distribution"`
	TotalLessons       int            `json:"total_lessons"`
	TotalSteps         int            `json:"total_steps"`
}

// LessonReport summarizes engagement with one lesson node.
type LessonReport struct {
	Lesson            string  `json:"lesson"`
	Responses         int     `json:"responses"`
	Respondents       int     `json:"respondents"`
	AvgResponseLength float64 `json:"avg_response_length"`
}

// Service computes analytics rollups over the journal and user stores.
type Service struct {
	graph   *content.Graph
	users   *database.UserRepository
	journal *database.JournalRepository
	skills  *database.SkillRepository
	log     *logger.Logger
}

// NewService creates an analytics Service.
func NewService(
	graph *content.Graph,
	users *database.UserRepository,
	journal *database.JournalRepository,
	skills *database.SkillRepository,
	log *logger.Logger,
) *Service {
	return &Service{graph: graph, users: users, journal: journal, skills: skills, log: log}
}

// User builds the analytics report for one learner.
func (s *Service) User(userID int64) (*UserReport, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}

	entries, err := s.journal.AllByUser(userID)
	if err != nil {
		return nil, err
	}

	lessons, err := s.journal.DistinctLessons(userID)
	if err != nil {
		return nil, err
	}

	skills, err := s.skills.GetByUser(userID)
	if err != nil {
		return nil, err
	}

	timestamps := make([]time.Time, len(entries))
	totalLength := 0
	for i, e := range entries {
		timestamps[i] = e.Timestamp
		totalLength += e.ResponseLength
	}
	avgLength := 0.0
	if len(entries) > 0 {
		avgLength = float64(totalLength) / float64(len(entries))
	}

	return &UserReport{
		UserID:            user.ID,
		Username:          user.Username,
		Platform:          user.Platform,
		CurrentLesson:     user.CurrentLesson,
		CompletedLessons:  user.CompletedLessons,
		CompletionRate:    user.CompletionRate,
		TotalEntries:      len(entries),
		LessonsWritten:    lessons,
		Streak:            progress.ComputeStreak(timestamps),
		Skills:            skills,
		LastActive:        user.LastActive,
		AvgResponseLength: avgLength,
	}, nil
}

// Cohort builds the population-wide report.
func (s *Service) Cohort() (*CohortReport, error) {
	total, err := s.users.CountAll()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	activeDay, err := s.users.CountActiveSince(now.Add(-24 * time.Hour))
	if err != nil {
		return nil, err
	}
	activeWeek, err := s.users.CountActiveSince(now.AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}

	avgRate, err := s.users.AverageCompletionRate()
	if err != nil {
		return nil, err
	}

	dist, err := s.users.LessonDistribution()
	if err != nil {
		return nil, err
	}

	return &CohortReport{
		TotalUsers:         total,
		ActiveLastDay:      activeDay,
		ActiveLastWeek:     activeWeek,
		AvgCompletionRate:  avgRate,
		LessonDistribution: dist,
		TotalLessons:       s.graph.Len(),
		TotalSteps:         s.graph.TotalSteps(),
	}, nil
}

// Lesson builds the engagement report for one lesson node.
func (s *Service) Lesson(lessonID string) (*LessonReport, error) {
	responses, respondents, err := s.journal.CountByLesson(lessonID)
	if err != nil {
		return nil, err
	}
	avgLength, err := s.journal.AverageResponseLength(lessonID)
	if err != nil {
		return nil, err
	}

	return &LessonReport{
		Lesson:            lessonID,
		Responses:         responses,
		Respondents:       respondents,
		AvgResponseLength: avgLength,
	}, nil
}
