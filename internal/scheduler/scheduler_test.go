package scheduler

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/gclearnbot/internal/config"
	"github.com/example/gclearnbot/internal/database"
	"github.com/example/gclearnbot/internal/logger"
	"github.com/example/gclearnbot/pkg/models"
)

type fakeNotifier struct {
	calls []int64
}

func (f *fakeNotifier) SendReminder(user *models.User, streak models.Streak) error {
	f.calls = append(f.calls, user.ID)
	return nil
}

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	require.NoError(t, database.ConnectForTest())
	t.Cleanup(func() { database.Close() })

	cfg := &config.Config{NotificationStartHour: 8, NotificationEndHour: 22}
	return New(cfg, logger.NewNop())
}

func createUser(t *testing.T, platform string, lastActive time.Time) *models.User {
	t.Helper()
	repo := database.NewUserRepository()
	user := &models.User{
		Platform:      platform,
		PlatformID:    uuid.NewString(),
		Username:      "learner",
		CurrentLesson: "lesson_1",
	}
	require.NoError(t, repo.Create(user))

	_, err := database.DB.Exec(
		database.DB.Rebind("UPDATE users SET last_active = ? WHERE id = ?"),
		lastActive.UTC(), user.ID,
	)
	require.NoError(t, err)
	return user
}

func writeEntry(t *testing.T, userID int64, at time.Time) {
	t.Helper()
	_, err := database.DB.Exec(
		database.DB.Rebind(`
			INSERT INTO journal_entries (id, user_id, lesson, response, response_length, keywords_used, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?)`),
		uuid.NewString(), userID, "lesson_1", "a response", 10, "[]", at.UTC(),
	)
	require.NoError(t, err)
}

func TestWithinWindow(t *testing.T) {
	s := newTestScheduler(t)

	assert.False(t, s.withinWindow(7))
	assert.True(t, s.withinWindow(8))
	assert.True(t, s.withinWindow(15))
	assert.True(t, s.withinWindow(22))
	assert.False(t, s.withinWindow(23))
}

func TestSweepRemindsInactiveUsers(t *testing.T) {
	s := newTestScheduler(t)
	notifier := &fakeNotifier{}
	s.Register(models.PlatformTelegram, notifier)

	noon := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return noon }
	yesterday := noon.Add(-24 * time.Hour)

	// wrote yesterday, nothing today: gets a reminder
	idle := createUser(t, models.PlatformTelegram, yesterday)
	writeEntry(t, idle.ID, yesterday)

	// already active today: skipped
	active := createUser(t, models.PlatformTelegram, noon.Add(-time.Hour))
	writeEntry(t, active.ID, noon.Add(-time.Hour))

	// never journaled: nothing to come back to, skipped
	createUser(t, models.PlatformTelegram, yesterday)

	// platform without a registered notifier: skipped
	slacker := createUser(t, models.PlatformSlack, yesterday)
	writeEntry(t, slacker.ID, yesterday)

	s.sweep()

	assert.Equal(t, []int64{idle.ID}, notifier.calls)
}

func TestSweepSkippedOutsideWindow(t *testing.T) {
	s := newTestScheduler(t)
	notifier := &fakeNotifier{}
	s.Register(models.PlatformTelegram, notifier)

	night := time.Date(2026, 9, 1, 3, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return night }

	idle := createUser(t, models.PlatformTelegram, night.Add(-24*time.Hour))
	writeEntry(t, idle.ID, night.Add(-24*time.Hour))

	s.sweep()
	assert.Empty(t, notifier.calls)
}

func TestRemindUser(t *testing.T) {
	s := newTestScheduler(t)
	notifier := &fakeNotifier{}
	s.Register(models.PlatformTelegram, notifier)

	user := createUser(t, models.PlatformTelegram, time.Now())
	writeEntry(t, user.ID, time.Now())

	require.NoError(t, s.RemindUser(user.ID))
	assert.Equal(t, []int64{user.ID}, notifier.calls)

	// unregistered platform is a no-op, not an error
	other := createUser(t, models.PlatformSlack, time.Now())
	require.NoError(t, s.RemindUser(other.ID))
	assert.Len(t, notifier.calls, 1)
}
