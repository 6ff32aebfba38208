package progress

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/example/gclearnbot/internal/content"
	"github.com/example/gclearnbot/internal/database"
	"github.com/example/gclearnbot/internal/errs"
	"github.com/example/gclearnbot/internal/feedback"
	"github.com/example/gclearnbot/internal/logger"
	"github.com/example/gclearnbot/pkg/models"
)

// Service owns the per-user progress state machine: it validates and appends
// journal entries, advances users along the lesson chain, and produces
// feedback for each accepted response.
type Service struct {
	graph   *content.Graph
	users   *database.UserRepository
	journal *database.JournalRepository
	scorer  *feedback.Scorer
	tracker *feedback.SkillTracker
	log     *logger.Logger
}

// NewService creates a progress Service.
func NewService(
	graph *content.Graph,
	users *database.UserRepository,
	journal *database.JournalRepository,
	scorer *feedback.Scorer,
	tracker *feedback.SkillTracker,
	log *logger.Logger,
) *Service {
	return &Service{
		graph:   graph,
		users:   users,
		journal: journal,
		scorer:  scorer,
		tracker: tracker,
		log:     log,
	}
}

// EnsureUser returns the user for a platform identity, creating one at the
// lesson chain head on first contact.
func (s *Service) EnsureUser(platform, platformID, username, firstName, lastName string) (*models.User, error) {
	user, err := s.users.GetByPlatformID(platform, platformID)
	if err == nil {
		return user, nil
	}
	if !errs.IsNotFound(err) {
		return nil, err
	}

	user = &models.User{
		Platform:      platform,
		PlatformID:    platformID,
		Username:      username,
		FirstName:     firstName,
		LastName:      lastName,
		CurrentLesson: s.graph.Head(),
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}
	s.log.Info("new user registered", "user_id", user.ID, "platform", platform)
	return user, nil
}

// Submit processes one response: validate, append to the journal, advance
// the state machine, and score feedback. The journal append and the progress
// advance share one transaction so the append always happens-before the
// advance and a failure leaves both untouched.
//
// Submitting a response for a lesson the user has already moved past is not
// an error: the entry is still recorded, the state does not regress, and the
// call reports success. That keeps retried deliveries idempotent.
func (s *Service) Submit(ctx context.Context, userID int64, lessonID, text string) (*models.SubmitResult, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, errs.Validationf("response must not be empty")
	}
	if !s.graph.Exists(lessonID) {
		return nil, errs.Validationf("unknown lesson %q", lessonID)
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}

	result := s.scorer.Evaluate(ctx, userID, lessonID, trimmed)
	keywords := s.scorer.MatchedKeywords(lessonID, trimmed)

	entry := &models.JournalEntry{
		ID:             uuid.NewString(),
		UserID:         userID,
		Lesson:         lessonID,
		Response:       trimmed,
		ResponseLength: utf8.RuneCountInString(trimmed),
		KeywordsUsed:   keywords,
		Timestamp:      time.Now().UTC(),
	}

	completed := user.CompletedLessons
	if !user.HasCompleted(lessonID) {
		completed = make([]string, len(user.CompletedLessons), len(user.CompletedLessons)+1)
		copy(completed, user.CompletedLessons)
		completed = append(completed, lessonID)
	}
	newCurrent := lessonID
	if next := s.graph.Successor(lessonID); next != "" {
		newCurrent = next
	}

	advanced, err := s.advanceTx(entry, user, lessonID, newCurrent, completed)
	if err != nil {
		return nil, err
	}

	submit := &models.SubmitResult{Accepted: true, Feedback: result}

	if s.tracker != nil {
		skills := feedback.AnalyzeSkills(trimmed)
		prevLevels, err := s.tracker.Update(userID, skills)
		if err != nil {
			// Skill tracking is informational; a failure must not fail the
			// submission.
			s.log.Error("skill progress update failed", "user_id", userID, "error", err)
		} else {
			submit.Skills = skills
			submit.PreviousLevels = prevLevels
		}
	}
	if advanced && newCurrent != lessonID {
		if node, ok := s.graph.Get(newCurrent); ok {
			submit.NextLesson = &node
		}
	}
	return submit, nil
}

// advanceTx runs the append + compare-and-set advance as one transaction.
// The returned bool reports whether the advance won the compare-and-set;
// losing it means the user already moved on, which is not an error.
func (s *Service) advanceTx(entry *models.JournalEntry, user *models.User, lessonID, newCurrent string, completed []string) (bool, error) {
	tx, err := database.DB.Beginx()
	if err != nil {
		return false, errs.Persistencef("begin transaction: %v", err)
	}
	defer tx.Rollback()

	if err := s.journal.AppendTx(tx, entry); err != nil {
		return false, err
	}

	rate := s.completionRate(completed)
	advanced, err := s.users.AdvanceProgressTx(
		tx, user.ID, lessonID, newCurrent, completed, rate, user.TotalResponses+1,
	)
	if err != nil {
		return false, err
	}
	if !advanced {
		s.log.Debug("progress advance skipped, user not on submitted lesson",
			"user_id", user.ID, "lesson", lessonID)
	}

	if err := tx.Commit(); err != nil {
		return false, errs.Persistencef("commit transaction: %v", err)
	}
	return advanced, nil
}

// completionRate is the share of graded steps completed, in percent.
func (s *Service) completionRate(completed []string) float64 {
	total := s.graph.TotalSteps()
	if total == 0 {
		return 0
	}
	steps := 0
	for _, id := range completed {
		if content.IsStep(id) {
			steps++
		}
	}
	return float64(steps) / float64(total) * 100
}

// Get returns the user's progress snapshot including streak figures.
func (s *Service) Get(userID int64) (*models.Progress, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}

	timestamps, err := s.journal.Timestamps(userID)
	if err != nil {
		return nil, err
	}
	count, err := s.journal.CountByUser(userID)
	if err != nil {
		return nil, err
	}

	return &models.Progress{
		CurrentLesson:    user.CurrentLesson,
		CompletedLessons: user.CompletedLessons,
		CompletionRate:   user.CompletionRate,
		TotalEntries:     count,
		Streak:           ComputeStreak(timestamps),
	}, nil
}

// RecentEntries returns the user's newest journal entries, up to limit.
func (s *Service) RecentEntries(userID int64, limit int) ([]models.JournalEntry, error) {
	return s.journal.ListByUser(userID, 1, limit)
}

// Streak returns just the streak figures for a user.
func (s *Service) Streak(userID int64) (models.Streak, error) {
	timestamps, err := s.journal.Timestamps(userID)
	if err != nil {
		return models.Streak{}, err
	}
	return ComputeStreak(timestamps), nil
}
