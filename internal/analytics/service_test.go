package analytics

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/gclearnbot/internal/content"
	"github.com/example/gclearnbot/internal/database"
	"github.com/example/gclearnbot/internal/feedback"
	"github.com/example/gclearnbot/internal/logger"
	"github.com/example/gclearnbot/internal/progress"
	"github.com/example/gclearnbot/pkg/models"
)

const testLessons = `{
	"lesson_1": {"text": "Intro", "next": "lesson_1_step_1"},
	"lesson_1_step_1": {"text": "Step one", "next": "lesson_1_step_2"},
	"lesson_1_step_2": {"text": "Step two"}
}`

func newFixture(t *testing.T) (*Service, *progress.Service) {
	t.Helper()
	require.NoError(t, database.ConnectForTest())
	t.Cleanup(func() { database.Close() })

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lessons.json"), []byte(testLessons), 0o644))
	graph, err := content.Load(dir, logger.NewNop())
	require.NoError(t, err)

	scorer := feedback.NewScorer(feedback.NewMemoryCache(feedback.DefaultCacheTimeout), logger.NewNop())
	tracker := feedback.NewSkillTracker(database.NewSkillRepository(), logger.NewNop())
	prog := progress.NewService(graph, database.NewUserRepository(), database.NewJournalRepository(), scorer, tracker, logger.NewNop())

	svc := NewService(graph, database.NewUserRepository(), database.NewJournalRepository(), database.NewSkillRepository(), logger.NewNop())
	return svc, prog
}

func TestUserReport(t *testing.T) {
	svc, prog := newFixture(t)
	user, err := prog.EnsureUser(models.PlatformTelegram, "100", "ada", "", "")
	require.NoError(t, err)

	_, err = prog.Submit(context.Background(), user.ID, "lesson_1", "I want to design a prototype and test it with a user.")
	require.NoError(t, err)

	report, err := svc.User(user.ID)
	require.NoError(t, err)

	assert.Equal(t, "ada", report.Username)
	assert.Equal(t, "lesson_1_step_1", report.CurrentLesson)
	assert.Equal(t, 1, report.TotalEntries)
	assert.Equal(t, []string{"lesson_1"}, report.LessonsWritten)
	assert.Equal(t, 1, report.Streak.Current)
	assert.Greater(t, report.AvgResponseLength, 0.0)
}

func TestCohortReport(t *testing.T) {
	svc, prog := newFixture(t)
	ctx := context.Background()

	for _, id := range []string{"100", "200"} {
		user, err := prog.EnsureUser(models.PlatformTelegram, id, "u"+id, "", "")
		require.NoError(t, err)
		_, err = prog.Submit(ctx, user.ID, "lesson_1", "Let us begin.")
		require.NoError(t, err)
	}

	report, err := svc.Cohort()
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalUsers)
	assert.Equal(t, 2, report.ActiveLastDay)
	assert.Equal(t, 3, report.TotalLessons)
	assert.Equal(t, 2, report.TotalSteps)
	assert.Equal(t, map[string]int{"lesson_1_step_1": 2}, report.LessonDistribution)
}

func TestLessonReport(t *testing.T) {
	svc, prog := newFixture(t)
	ctx := context.Background()

	a, err := prog.EnsureUser(models.PlatformTelegram, "100", "a", "", "")
	require.NoError(t, err)
	b, err := prog.EnsureUser(models.PlatformTelegram, "200", "b", "", "")
	require.NoError(t, err)

	_, err = prog.Submit(ctx, a.ID, "lesson_1", "First answer here.")
	require.NoError(t, err)
	_, err = prog.Submit(ctx, b.ID, "lesson_1", "Second answer, a bit longer than the first.")
	require.NoError(t, err)

	report, err := svc.Lesson("lesson_1")
	require.NoError(t, err)

	assert.Equal(t, 2, report.Responses)
	assert.Equal(t, 2, report.Respondents)
	assert.Greater(t, report.AvgResponseLength, 0.0)
}
