package telegram

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/gclearnbot/internal/analytics"
	"github.com/example/gclearnbot/internal/config"
	"github.com/example/gclearnbot/internal/content"
	"github.com/example/gclearnbot/internal/database"
	"github.com/example/gclearnbot/internal/logger"
	"github.com/example/gclearnbot/internal/progress"
	"github.com/example/gclearnbot/pkg/models"
)

// MenuButton represents a button in an inline menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// Bot is the Telegram front end for the course.
type Bot struct {
	api       *tgbotapi.BotAPI
	cfg       *config.Config
	graph     *content.Graph
	progress  *progress.Service
	analytics *analytics.Service
	tasks     *database.TaskRepository
	notes     *database.FeedbackRepository
	log       *logger.Logger

	mu               sync.Mutex
	awaitingFeedback map[int64]bool
	cancel           context.CancelFunc
}

// New creates a new bot instance. The token comes from configuration; the
// database connection must already be established.
func New(
	cfg *config.Config,
	graph *content.Graph,
	prog *progress.Service,
	stats *analytics.Service,
	log *logger.Logger,
) (*Bot, error) {
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}
	if database.DB == nil {
		return nil, fmt.Errorf("database connection is not established")
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}

	return &Bot{
		api:              api,
		cfg:              cfg,
		graph:            graph,
		progress:         prog,
		analytics:        stats,
		tasks:            database.NewTaskRepository(),
		notes:            database.NewFeedbackRepository(),
		log:              log,
		awaitingFeedback: make(map[int64]bool),
	}, nil
}

// Name implements platform.Platform.
func (b *Bot) Name() string { return models.PlatformTelegram }

// Start long-polls Telegram for updates until the context is cancelled.
// Updates are handled sequentially: progress transitions for one user are
// only safe when that user's messages are applied in arrival order.
func (b *Bot) Start(ctx context.Context) error {
	ctx, b.cancel = context.WithCancel(ctx)
	b.log.Info("telegram bot authorized", "account", b.api.Self.UserName)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// Stop gracefully stops the bot
func (b *Bot) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	b.log.Info("telegram bot stopped")
}

// SendReminder implements the scheduler Notifier for Telegram users. Chat ID
// equals the user ID for private chats.
func (b *Bot) SendReminder(user *models.User, streak models.Streak) error {
	chatID, err := strconv.ParseInt(user.PlatformID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", user.PlatformID, err)
	}

	text := "👋 Your next lesson is waiting for you! Reply to continue where you left off."
	if streak.Current > 1 {
		text = fmt.Sprintf("🔥 You're on a %d-day streak! Keep it going - your next lesson is waiting.", streak.Current)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("failed to send reminder", "user_id", user.ID, "error", err)
		return err
	}
	return nil
}

// isAdmin checks if a Telegram user is an admin
func (b *Bot) isAdmin(userID int64) bool {
	return b.cfg.IsAdmin(userID)
}

// handleUpdate routes one incoming update.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("panic while handling update", "panic", r)
		}
	}()

	switch {
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	case update.Message != nil:
		b.handleText(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStart(message)
	case "help":
		b.handleHelp(message)
	case "journal":
		b.handleJournal(message)
	case "progress":
		b.handleProgress(message)
	case "feedback":
		b.handleFeedbackCommand(message)
	case "cancel":
		b.handleCancel(message)
	case "adminhelp":
		b.adminOnly(message, b.handleAdminHelp)
	case "users":
		b.adminOnly(message, b.handleUsers)
	case "viewfeedback":
		b.adminOnly(message, b.handleViewFeedback)
	case "addtask":
		b.adminOnly(message, b.handleAddTask)
	case "listtasks":
		b.adminOnly(message, b.handleListTasks)
	case "deactivatetask":
		b.adminOnly(message, b.handleDeactivateTask)
	case "lessonstats":
		b.adminOnly(message, b.handleLessonStats)
	case "export":
		b.adminOnly(message, b.handleExport)
	default:
		b.reply(message.Chat.ID, "Unknown command. Use /help to see what I can do.")
	}
}

// adminOnly runs the handler only for configured admins.
func (b *Bot) adminOnly(message *tgbotapi.Message, handler func(*tgbotapi.Message)) {
	if !b.isAdmin(message.From.ID) {
		b.reply(message.Chat.ID, "This command is only available for administrators.")
		return
	}
	handler(message)
}

// handleCallback answers inline button presses. The only callback in the
// learner flow is "next", which re-sends the user's current lesson.
func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	// Acknowledge to clear the spinner.
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.log.Warn("failed to answer callback", "error", err)
	}

	if callback.Data != "next" || callback.Message == nil {
		return
	}

	user, err := b.resolveUser(callback.From)
	if err != nil {
		b.log.Error("failed to resolve user", "error", err)
		return
	}
	b.sendLesson(callback.Message.Chat.ID, user.CurrentLesson)
}

// reply sends a plain text message.
func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("failed to send message", "chat_id", chatID, "error", err)
	}
}

// replyMarkdown sends a markdown-formatted message.
func (b *Bot) replyMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("failed to send message", "chat_id", chatID, "error", err)
	}
}

// resolveUser maps a Telegram identity onto our user record, creating it at
// the chain head on first contact.
func (b *Bot) resolveUser(from *tgbotapi.User) (*models.User, error) {
	return b.progress.EnsureUser(
		models.PlatformTelegram,
		strconv.FormatInt(from.ID, 10),
		from.UserName,
		from.FirstName,
		from.LastName,
	)
}
