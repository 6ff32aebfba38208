package scheduler

import (
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/gclearnbot/internal/config"
	"github.com/example/gclearnbot/internal/database"
	"github.com/example/gclearnbot/internal/logger"
	"github.com/example/gclearnbot/internal/progress"
	"github.com/example/gclearnbot/pkg/models"
)

// Notifier delivers a lesson reminder over one chat platform.
type Notifier interface {
	SendReminder(user *models.User, streak models.Streak) error
}

// Scheduler runs the hourly reminder sweep: learners who have not written
// today get a nudge to continue, within the configured notification window.
type Scheduler struct {
	scheduler *gocron.Scheduler
	cfg       *config.Config
	users     *database.UserRepository
	journal   *database.JournalRepository
	notifiers map[string]Notifier
	log       *logger.Logger

	now func() time.Time
}

func New(cfg *config.Config, log *logger.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		cfg:       cfg,
		users:     database.NewUserRepository(),
		journal:   database.NewJournalRepository(),
		notifiers: make(map[string]Notifier),
		log:       log,
		now:       time.Now,
	}
}

// Register wires the notifier for one platform tag. Users on platforms with
// no registered notifier are skipped during the sweep.
func (s *Scheduler) Register(platform string, n Notifier) {
	s.notifiers[platform] = n
}

// Start schedules the hourly sweep and the connection warm-up, then runs
// asynchronously.
func (s *Scheduler) Start() {
	if _, err := s.scheduler.Every(1).Hour().Do(s.sweep); err != nil {
		s.log.Error("failed to schedule reminder sweep", "error", err)
		return
	}
	if _, err := s.scheduler.Every(10).Minutes().Do(s.warmup); err != nil {
		s.log.Error("failed to schedule database warm-up", "error", err)
	}
	s.scheduler.StartAsync()
	s.log.Info("reminder scheduler started",
		"start_hour", s.cfg.NotificationStartHour,
		"end_hour", s.cfg.NotificationEndHour)
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// withinWindow reports whether hour falls inside the notification window.
func (s *Scheduler) withinWindow(hour int) bool {
	return hour >= s.cfg.NotificationStartHour && hour <= s.cfg.NotificationEndHour
}

// sweep sends a reminder to every user who was active before today but has
// not journaled yet today.
func (s *Scheduler) sweep() {
	now := s.now().UTC()
	if !s.withinWindow(now.Hour()) {
		s.log.Debug("outside notification window, skipping sweep", "hour", now.Hour())
		return
	}

	users, err := s.users.GetAll()
	if err != nil {
		s.log.Error("failed to load users for reminder sweep", "error", err)
		return
	}

	today := now.Truncate(24 * time.Hour)
	sent := 0
	for i := range users {
		user := &users[i]
		notifier, ok := s.notifiers[user.Platform]
		if !ok {
			continue
		}
		if user.LastActive.UTC().Truncate(24 * time.Hour).Equal(today) {
			continue
		}

		streak, err := s.streakFor(user.ID)
		if err != nil {
			s.log.Error("failed to compute streak for reminder", "user_id", user.ID, "error", err)
			continue
		}
		if streak.TotalActiveDays == 0 {
			// never wrote anything, nothing to come back to yet
			continue
		}

		if err := notifier.SendReminder(user, streak); err != nil {
			s.log.Error("failed to send reminder", "user_id", user.ID, "platform", user.Platform, "error", err)
			continue
		}
		sent++
	}
	if sent > 0 {
		s.log.Info("reminder sweep complete", "sent", sent)
	}
}

// RemindUser forces a reminder for one user regardless of their activity
// today, still honoring the platform notifier registration.
func (s *Scheduler) RemindUser(userID int64) error {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return err
	}
	notifier, ok := s.notifiers[user.Platform]
	if !ok {
		s.log.Warn("no notifier registered for platform", "platform", user.Platform)
		return nil
	}
	streak, err := s.streakFor(user.ID)
	if err != nil {
		return err
	}
	return notifier.SendReminder(user, streak)
}

// warmup keeps the database connection alive across idle periods. Hosted
// databases drop idle connections; the next user message should not pay the
// reconnect cost.
func (s *Scheduler) warmup() {
	if database.DB == nil {
		return
	}
	if err := database.DB.Ping(); err != nil {
		s.log.Warn("database warm-up ping failed", "error", err)
	}
}

func (s *Scheduler) streakFor(userID int64) (models.Streak, error) {
	timestamps, err := s.journal.Timestamps(userID)
	if err != nil {
		return models.Streak{}, err
	}
	return progress.ComputeStreak(timestamps), nil
}
