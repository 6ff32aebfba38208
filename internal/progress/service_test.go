package progress

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/gclearnbot/internal/content"
	"github.com/example/gclearnbot/internal/database"
	"github.com/example/gclearnbot/internal/errs"
	"github.com/example/gclearnbot/internal/feedback"
	"github.com/example/gclearnbot/internal/logger"
	"github.com/example/gclearnbot/pkg/models"
)

const testLessons = `{
	"lesson_1": {"text": "Welcome to the course.", "next": "lesson_2"},
	"lesson_2": {"text": "Design thinking intro.", "next": "lesson_2_step_1"},
	"lesson_2_step_1": {"text": "Interview a user.", "next": "lesson_2_step_2"},
	"lesson_2_step_2": {"text": "Define the problem.", "next": null}
}`

func newTestGraph(t *testing.T) *content.Graph {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lessons.json"), []byte(testLessons), 0o644))
	graph, err := content.Load(dir, logger.NewNop())
	require.NoError(t, err)
	return graph
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	require.NoError(t, database.ConnectForTest())
	t.Cleanup(func() { database.Close() })

	graph := newTestGraph(t)
	scorer := feedback.NewScorer(feedback.NewMemoryCache(feedback.DefaultCacheTimeout), logger.NewNop())
	tracker := feedback.NewSkillTracker(database.NewSkillRepository(), logger.NewNop())
	return NewService(graph, database.NewUserRepository(), database.NewJournalRepository(), scorer, tracker, logger.NewNop())
}

func TestEnsureUserStartsAtChainHead(t *testing.T) {
	s := newTestService(t)

	user, err := s.EnsureUser(models.PlatformTelegram, "100", "learner", "Ada", "L")
	require.NoError(t, err)
	assert.Equal(t, "lesson_1", user.CurrentLesson)

	// A second lookup for the same identity returns the same user.
	again, err := s.EnsureUser(models.PlatformTelegram, "100", "learner", "Ada", "L")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
}

func TestSubmitRejectsEmptyResponse(t *testing.T) {
	s := newTestService(t)
	user, err := s.EnsureUser(models.PlatformTelegram, "100", "learner", "", "")
	require.NoError(t, err)

	_, err = s.Submit(context.Background(), user.ID, "lesson_1", "   \n\t ")
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))

	// Nothing was written and progress did not move.
	count, err := database.NewJournalRepository().CountByUser(user.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	reloaded, err := database.NewUserRepository().GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "lesson_1", reloaded.CurrentLesson)
}

func TestSubmitRejectsUnknownLesson(t *testing.T) {
	s := newTestService(t)
	user, err := s.EnsureUser(models.PlatformTelegram, "100", "learner", "", "")
	require.NoError(t, err)

	_, err = s.Submit(context.Background(), user.ID, "lesson_99", "A valid answer.")
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
}

func TestSubmitEndToEnd(t *testing.T) {
	s := newTestService(t)
	user, err := s.EnsureUser(models.PlatformTelegram, "100", "learner", "", "")
	require.NoError(t, err)

	result, err := s.Submit(context.Background(), user.ID, "lesson_1", "I am ready to begin.")
	require.NoError(t, err)

	assert.True(t, result.Accepted)
	require.NotNil(t, result.Feedback)
	assert.NotEmpty(t, result.Feedback.Messages)
	require.NotNil(t, result.NextLesson)
	assert.Equal(t, "lesson_2", result.NextLesson.ID)

	entries, err := database.NewJournalRepository().AllByUser(user.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "lesson_1", entries[0].Lesson)

	reloaded, err := database.NewUserRepository().GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "lesson_2", reloaded.CurrentLesson)
	assert.Contains(t, reloaded.CompletedLessons, "lesson_1")
}

func TestSubmitIsIdempotentOnRetry(t *testing.T) {
	s := newTestService(t)
	user, err := s.EnsureUser(models.PlatformTelegram, "100", "learner", "", "")
	require.NoError(t, err)
	ctx := context.Background()

	first, err := s.Submit(ctx, user.ID, "lesson_1", "Ready.")
	require.NoError(t, err)
	assert.True(t, first.Accepted)

	// A retried delivery for the lesson the user already moved past is still
	// accepted and journaled, but does not move the state machine again or
	// re-complete the lesson.
	second, err := s.Submit(ctx, user.ID, "lesson_1", "Ready.")
	require.NoError(t, err)
	assert.True(t, second.Accepted)
	assert.Nil(t, second.NextLesson)

	reloaded, err := database.NewUserRepository().GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "lesson_2", reloaded.CurrentLesson)
	assert.Equal(t, []string{"lesson_1"}, reloaded.CompletedLessons)

	count, err := database.NewJournalRepository().CountByUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSubmitNeverRegressesProgress(t *testing.T) {
	s := newTestService(t)
	user, err := s.EnsureUser(models.PlatformTelegram, "100", "learner", "", "")
	require.NoError(t, err)
	ctx := context.Background()

	for _, lesson := range []string{"lesson_1", "lesson_2", "lesson_2_step_1"} {
		_, err := s.Submit(ctx, user.ID, lesson, "A long enough answer about the user interview.")
		require.NoError(t, err)
	}

	// An out-of-order late arrival for an earlier node must not move the
	// pointer back.
	_, err = s.Submit(ctx, user.ID, "lesson_2", "Late duplicate.")
	require.NoError(t, err)

	reloaded, err := database.NewUserRepository().GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "lesson_2_step_2", reloaded.CurrentLesson)
}

func TestSubmitTerminalLessonStaysPut(t *testing.T) {
	s := newTestService(t)
	user, err := s.EnsureUser(models.PlatformTelegram, "100", "learner", "", "")
	require.NoError(t, err)
	ctx := context.Background()

	for _, lesson := range []string{"lesson_1", "lesson_2", "lesson_2_step_1", "lesson_2_step_2"} {
		_, err := s.Submit(ctx, user.ID, lesson, "An answer that moves things along.")
		require.NoError(t, err)
	}

	// Repeated responses after completion are accepted without a transition.
	result, err := s.Submit(ctx, user.ID, "lesson_2_step_2", "Still here after the end.")
	require.NoError(t, err)
	assert.True(t, result.Accepted)
	assert.Nil(t, result.NextLesson)

	reloaded, err := database.NewUserRepository().GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "lesson_2_step_2", reloaded.CurrentLesson)
}

func TestSubmitComputesCompletionRate(t *testing.T) {
	s := newTestService(t)
	user, err := s.EnsureUser(models.PlatformTelegram, "100", "learner", "", "")
	require.NoError(t, err)
	ctx := context.Background()

	for _, lesson := range []string{"lesson_1", "lesson_2", "lesson_2_step_1"} {
		_, err := s.Submit(ctx, user.ID, lesson, "Answer.")
		require.NoError(t, err)
	}

	// One of two graded steps completed; intro nodes do not count.
	p, err := s.Get(user.ID)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, p.CompletionRate, 0.01)
	assert.Equal(t, 3, p.TotalEntries)
}

func TestComputeStreak(t *testing.T) {
	day := func(s string) time.Time {
		ts, err := time.Parse("2006-01-02", s)
		require.NoError(t, err)
		return ts
	}

	// Entries newest first: a three-day run broken by a one-day gap before
	// the most recent entry.
	streak := ComputeStreak([]time.Time{
		day("2024-01-05"), day("2024-01-03"), day("2024-01-02"), day("2024-01-01"),
	})
	assert.Equal(t, 1, streak.Current)
	assert.Equal(t, 3, streak.Longest)
	assert.Equal(t, 4, streak.TotalActiveDays)
}

func TestComputeStreakEdgeCases(t *testing.T) {
	assert.Equal(t, models.Streak{}, ComputeStreak(nil))

	now := time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)
	streak := ComputeStreak([]time.Time{now, now.Add(-time.Hour), now.Add(-2 * time.Hour)})
	assert.Equal(t, models.Streak{Current: 1, Longest: 1, TotalActiveDays: 1}, streak)

	// An unbroken run touching the newest entry.
	streak = ComputeStreak([]time.Time{now, now.AddDate(0, 0, -1), now.AddDate(0, 0, -2)})
	assert.Equal(t, models.Streak{Current: 3, Longest: 3, TotalActiveDays: 3}, streak)
}
