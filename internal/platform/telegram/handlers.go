package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/gclearnbot/internal/errs"
	"github.com/example/gclearnbot/internal/excel"
	"github.com/example/gclearnbot/internal/feedback"
	"github.com/example/gclearnbot/pkg/models"
)

const helpText = `Here is what I can do:

/start - begin (or resume) the course
/progress - your progress and streak
/journal - your recent journal entries
/feedback - send feedback about the course
/cancel - cancel the current action
/help - this message

Just reply to a lesson with your thoughts to move forward.`

const adminHelpText = `Admin commands:

/users - learner overview
/viewfeedback - unprocessed course feedback
/addtask Company | lesson_id | description | req1; req2 - attach a task to a lesson
/listtasks - all tasks
/deactivatetask <id> - retire a task
/lessonstats <lesson_id> - engagement for one lesson
/export - download the cohort spreadsheet`

// handleStart registers the user if needed and sends their current lesson.
func (b *Bot) handleStart(message *tgbotapi.Message) {
	user, err := b.resolveUser(message.From)
	if err != nil {
		b.log.Error("failed to resolve user", "error", err)
		b.reply(message.Chat.ID, errs.UserMessage(err))
		return
	}

	if user.TotalResponses == 0 {
		b.reply(message.Chat.ID, fmt.Sprintf("Welcome, %s! 🎓 Reply to each lesson with your thoughts and I'll guide you through the course.", displayName(message.From)))
	} else {
		b.reply(message.Chat.ID, "Welcome back! Here is where you left off:")
	}
	b.sendLesson(message.Chat.ID, user.CurrentLesson)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	b.reply(message.Chat.ID, helpText)
}

// handleText handles a free-text message: either a pending feedback note or a
// lesson response.
func (b *Bot) handleText(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	b.mu.Lock()
	awaiting := b.awaitingFeedback[chatID]
	delete(b.awaitingFeedback, chatID)
	b.mu.Unlock()

	user, err := b.resolveUser(message.From)
	if err != nil {
		b.log.Error("failed to resolve user", "error", err)
		b.reply(chatID, errs.UserMessage(err))
		return
	}

	if awaiting {
		if _, err := b.notes.Save(user.ID, message.Text); err != nil {
			b.reply(chatID, errs.UserMessage(err))
			return
		}
		b.reply(chatID, "🙏 Thank you! Your feedback has been recorded.")
		return
	}

	result, err := b.progress.Submit(ctx, user.ID, user.CurrentLesson, message.Text)
	if err != nil {
		b.reply(chatID, errs.UserMessage(err))
		return
	}

	b.replyMarkdown(chatID, feedback.FormatMessage(result.Feedback, result.Skills, result.PreviousLevels))

	if result.NextLesson != nil {
		b.sendLesson(chatID, result.NextLesson.ID)
		return
	}
	if b.graph.Successor(user.CurrentLesson) == "" && user.CurrentLesson != "" {
		b.reply(chatID, "🎓 You have completed the course! You can keep journaling on the final lesson any time.")
	}
}

// sendLesson sends one lesson node's content plus any active task overlay.
func (b *Bot) sendLesson(chatID int64, lessonID string) {
	node, ok := b.graph.Get(lessonID)
	if !ok {
		b.reply(chatID, "No content available right now. Please try /start again later.")
		return
	}

	text := node.Text
	tasks, err := b.tasks.ActiveForLesson(lessonID)
	if err != nil {
		b.log.Error("failed to load tasks for lesson", "lesson", lessonID, "error", err)
	}
	for _, task := range tasks {
		text += fmt.Sprintf("\n\n🏢 *Task from %s*\n%s", task.Company, task.Description)
		for _, req := range task.Requirements {
			text += "\n• " + req
		}
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("failed to send lesson", "chat_id", chatID, "lesson", lessonID, "error", err)
	}
}

// handleJournal shows the user's most recent entries.
func (b *Bot) handleJournal(message *tgbotapi.Message) {
	user, err := b.resolveUser(message.From)
	if err != nil {
		b.reply(message.Chat.ID, errs.UserMessage(err))
		return
	}

	report, err := b.analytics.User(user.ID)
	if err != nil {
		b.reply(message.Chat.ID, errs.UserMessage(err))
		return
	}
	if report.TotalEntries == 0 {
		b.reply(message.Chat.ID, "Your journal is empty so far. Reply to a lesson to write your first entry!")
		return
	}

	entries, err := b.progress.RecentEntries(user.ID, 5)
	if err != nil {
		b.reply(message.Chat.ID, errs.UserMessage(err))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📔 *Your Journal* (%d entries)\n", report.TotalEntries)
	for _, e := range entries {
		fmt.Fprintf(&sb, "\n*%s* - %s\n%s\n", e.Lesson, e.Timestamp.Format("Jan 2"), truncate(e.Response, 150))
	}
	b.replyMarkdown(message.Chat.ID, sb.String())
}

// handleProgress shows completion and streak figures.
func (b *Bot) handleProgress(message *tgbotapi.Message) {
	user, err := b.resolveUser(message.From)
	if err != nil {
		b.reply(message.Chat.ID, errs.UserMessage(err))
		return
	}

	p, err := b.progress.Get(user.ID)
	if err != nil {
		b.reply(message.Chat.ID, errs.UserMessage(err))
		return
	}

	var sb strings.Builder
	sb.WriteString("📊 *Your Progress*\n\n")
	fmt.Fprintf(&sb, "• Current lesson: %s\n", p.CurrentLesson)
	fmt.Fprintf(&sb, "• Completed: %d lessons\n", len(p.CompletedLessons))
	fmt.Fprintf(&sb, "• Completion: %.0f%%\n", p.CompletionRate)
	fmt.Fprintf(&sb, "• Journal entries: %d\n", p.TotalEntries)
	fmt.Fprintf(&sb, "\n🔥 Streak: %d day(s) (longest %d, %d active days total)\n",
		p.Streak.Current, p.Streak.Longest, p.Streak.TotalActiveDays)

	msg := tgbotapi.NewMessage(message.Chat.ID, sb.String())
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = createKeyboard([][]MenuButton{{{Text: "📖 Current lesson", CallbackData: "next"}}})
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("failed to send progress", "error", err)
	}
}

// handleFeedbackCommand arms the next free-text message as a feedback note.
func (b *Bot) handleFeedbackCommand(message *tgbotapi.Message) {
	b.mu.Lock()
	b.awaitingFeedback[message.Chat.ID] = true
	b.mu.Unlock()
	b.reply(message.Chat.ID, "💬 What would you like to tell us? Your next message goes straight to the course team. Use /cancel to abort.")
}

func (b *Bot) handleCancel(message *tgbotapi.Message) {
	b.mu.Lock()
	was := b.awaitingFeedback[message.Chat.ID]
	delete(b.awaitingFeedback, message.Chat.ID)
	b.mu.Unlock()

	if was {
		b.reply(message.Chat.ID, "Cancelled. Back to the course!")
	} else {
		b.reply(message.Chat.ID, "Nothing to cancel.")
	}
}

func (b *Bot) handleAdminHelp(message *tgbotapi.Message) {
	b.reply(message.Chat.ID, adminHelpText)
}

// handleUsers shows the cohort overview to admins.
func (b *Bot) handleUsers(message *tgbotapi.Message) {
	report, err := b.analytics.Cohort()
	if err != nil {
		b.reply(message.Chat.ID, errs.UserMessage(err))
		return
	}

	var sb strings.Builder
	sb.WriteString("👥 *Learners*\n\n")
	fmt.Fprintf(&sb, "• Total: %d\n", report.TotalUsers)
	fmt.Fprintf(&sb, "• Active last 24h: %d\n", report.ActiveLastDay)
	fmt.Fprintf(&sb, "• Active last 7d: %d\n", report.ActiveLastWeek)
	fmt.Fprintf(&sb, "• Avg completion: %.1f%%\n", report.AvgCompletionRate)
	if len(report.LessonDistribution) > 0 {
		sb.WriteString("\n*By lesson:*\n")
		for lesson, count := range report.LessonDistribution {
			fmt.Fprintf(&sb, "• %s: %d\n", lesson, count)
		}
	}
	b.replyMarkdown(message.Chat.ID, sb.String())
}

// handleViewFeedback lists unprocessed feedback notes.
func (b *Bot) handleViewFeedback(message *tgbotapi.Message) {
	unprocessed := false
	notes, err := b.notes.ListAll(&unprocessed, 10)
	if err != nil {
		b.reply(message.Chat.ID, errs.UserMessage(err))
		return
	}
	if len(notes) == 0 {
		b.reply(message.Chat.ID, "No unprocessed feedback. 🎉")
		return
	}

	var sb strings.Builder
	sb.WriteString("💬 *Unprocessed feedback*\n")
	for _, note := range notes {
		fmt.Fprintf(&sb, "\n`%s` from user %d (%s):\n%s\n",
			note.ID, note.UserID, note.Timestamp.Format("Jan 2 15:04"), truncate(note.Text, 200))
	}
	b.replyMarkdown(message.Chat.ID, sb.String())
}

// handleAddTask parses "/addtask Company | lesson_id | description | req1; req2".
func (b *Bot) handleAddTask(message *tgbotapi.Message) {
	parts := strings.Split(message.CommandArguments(), "|")
	if len(parts) < 3 {
		b.reply(message.Chat.ID, "Usage: /addtask Company | lesson_id | description | requirement1; requirement2")
		return
	}

	company := strings.TrimSpace(parts[0])
	lesson := strings.TrimSpace(parts[1])
	description := strings.TrimSpace(parts[2])
	var requirements []string
	if len(parts) > 3 {
		for _, req := range strings.Split(parts[3], ";") {
			if r := strings.TrimSpace(req); r != "" {
				requirements = append(requirements, r)
			}
		}
	}

	if !b.graph.Exists(lesson) {
		b.reply(message.Chat.ID, fmt.Sprintf("Unknown lesson %q.", lesson))
		return
	}

	task := &models.Task{
		Company:      company,
		Lesson:       lesson,
		Description:  description,
		Requirements: requirements,
	}
	if err := b.tasks.Create(task); err != nil {
		b.reply(message.Chat.ID, errs.UserMessage(err))
		return
	}
	b.reply(message.Chat.ID, fmt.Sprintf("✅ Task #%d from %s attached to %s.", task.ID, task.Company, task.Lesson))
}

func (b *Bot) handleListTasks(message *tgbotapi.Message) {
	tasks, err := b.tasks.ListAll()
	if err != nil {
		b.reply(message.Chat.ID, errs.UserMessage(err))
		return
	}
	if len(tasks) == 0 {
		b.reply(message.Chat.ID, "No tasks yet. Create one with /addtask.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📋 *Tasks*\n")
	for _, task := range tasks {
		status := "active"
		if !task.IsActive {
			status = "inactive"
		}
		fmt.Fprintf(&sb, "\n#%d [%s] %s → %s\n%s\n", task.ID, status, task.Company, task.Lesson, truncate(task.Description, 100))
	}
	b.replyMarkdown(message.Chat.ID, sb.String())
}

func (b *Bot) handleDeactivateTask(message *tgbotapi.Message) {
	id, err := strconv.ParseInt(strings.TrimSpace(message.CommandArguments()), 10, 64)
	if err != nil {
		b.reply(message.Chat.ID, "Usage: /deactivatetask <id>")
		return
	}
	if err := b.tasks.Deactivate(id); err != nil {
		b.reply(message.Chat.ID, errs.UserMessage(err))
		return
	}
	b.reply(message.Chat.ID, fmt.Sprintf("Task #%d deactivated.", id))
}

// handleLessonStats shows engagement for one lesson node.
func (b *Bot) handleLessonStats(message *tgbotapi.Message) {
	lesson := strings.TrimSpace(message.CommandArguments())
	if !b.graph.Exists(lesson) {
		b.reply(message.Chat.ID, "Usage: /lessonstats <lesson_id>")
		return
	}

	report, err := b.analytics.Lesson(lesson)
	if err != nil {
		b.reply(message.Chat.ID, errs.UserMessage(err))
		return
	}
	b.replyMarkdown(message.Chat.ID, fmt.Sprintf(
		"📈 *%s*\n• Responses: %d\n• Respondents: %d\n• Avg length: %.0f chars",
		report.Lesson, report.Responses, report.Respondents, report.AvgResponseLength,
	))
}

// handleExport generates the cohort spreadsheet and uploads it.
func (b *Bot) handleExport(message *tgbotapi.Message) {
	path, err := excel.ExportCohort(excel.DefaultExportConfig(b.cfg.DataDir))
	if err != nil {
		b.log.Error("export failed", "error", err)
		b.reply(message.Chat.ID, errs.UserMessage(err))
		return
	}

	doc := tgbotapi.NewDocument(message.Chat.ID, tgbotapi.FilePath(path))
	doc.Caption = "Cohort export"
	if _, err := b.api.Send(doc); err != nil {
		b.log.Error("failed to upload export", "error", err)
		b.reply(message.Chat.ID, "Export generated but the upload failed. Please try again.")
	}
}

// truncate shortens s to n characters. Slicing runes, not bytes, so a
// multi-byte character is never split.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}

func displayName(from *tgbotapi.User) string {
	if from.FirstName != "" {
		return from.FirstName
	}
	if from.UserName != "" {
		return from.UserName
	}
	return "learner"
}
