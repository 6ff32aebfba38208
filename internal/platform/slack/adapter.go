// Package slack is the Slack front end: an events-API webhook plus slash
// commands, rendered with Block Kit.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/example/gclearnbot/internal/config"
	"github.com/example/gclearnbot/internal/content"
	"github.com/example/gclearnbot/internal/database"
	"github.com/example/gclearnbot/internal/errs"
	"github.com/example/gclearnbot/internal/feedback"
	"github.com/example/gclearnbot/internal/logger"
	"github.com/example/gclearnbot/internal/progress"
	"github.com/example/gclearnbot/pkg/models"
)

// Adapter serves the Slack events and slash-command webhooks.
type Adapter struct {
	client        *slack.Client
	signingSecret string
	addr          string

	graph    *content.Graph
	progress *progress.Service
	tasks    *database.TaskRepository
	notes    *database.FeedbackRepository
	log      *logger.Logger

	server *http.Server
}

// New creates the Slack adapter. addr is the listen address for the webhook
// endpoints (/slack/events and /slack/commands).
func New(
	cfg *config.Config,
	addr string,
	graph *content.Graph,
	prog *progress.Service,
	log *logger.Logger,
) (*Adapter, error) {
	if cfg.SlackBotToken == "" || cfg.SlackSigningSecret == "" {
		return nil, fmt.Errorf("SLACK_BOT_TOKEN and SLACK_SIGNING_SECRET must be set")
	}

	return &Adapter{
		client:        slack.New(cfg.SlackBotToken),
		signingSecret: cfg.SlackSigningSecret,
		addr:          addr,
		graph:         graph,
		progress:      prog,
		tasks:         database.NewTaskRepository(),
		notes:         database.NewFeedbackRepository(),
		log:           log,
	}, nil
}

// Name implements platform.Platform.
func (a *Adapter) Name() string { return models.PlatformSlack }

// Start serves the webhook endpoints until the context is cancelled.
func (a *Adapter) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/slack/events", a.handleEvents)
	mux.HandleFunc("/slack/commands", a.handleCommand)

	a.server = &http.Server{
		Addr:              a.addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("slack webhook listening", "addr", a.addr)
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Stop shuts the webhook server down.
func (a *Adapter) Stop() {
	if a.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.server.Shutdown(shutdownCtx)
	}
	a.log.Info("slack adapter stopped")
}

// verify reads the body and checks the Slack request signature.
func (a *Adapter) verify(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return nil, false
	}

	verifier, err := slack.NewSecretsVerifier(r.Header, a.signingSecret)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return nil, false
	}
	if _, err := verifier.Write(body); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return nil, false
	}
	if err := verifier.Ensure(); err != nil {
		a.log.Warn("slack signature verification failed", "error", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	return body, true
}

// handleEvents processes the events API: URL verification plus message
// events, which are treated as lesson responses.
func (a *Adapter) handleEvents(w http.ResponseWriter, r *http.Request) {
	body, ok := a.verify(w, r)
	if !ok {
		return
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	switch event.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, challenge.Challenge)

	case slackevents.CallbackEvent:
		w.WriteHeader(http.StatusOK)
		if msg, ok := event.InnerEvent.Data.(*slackevents.MessageEvent); ok {
			// Ignore bot echoes and edits.
			if msg.BotID != "" || msg.SubType != "" {
				return
			}
			a.handleResponse(r.Context(), msg.User, msg.Channel, msg.Text)
		}

	default:
		w.WriteHeader(http.StatusOK)
	}
}

// handleResponse runs one message through the progress service and posts the
// feedback plus the next lesson.
func (a *Adapter) handleResponse(ctx context.Context, slackUserID, channel, text string) {
	user, err := a.progress.EnsureUser(models.PlatformSlack, slackUserID, slackUserID, "", "")
	if err != nil {
		a.log.Error("failed to resolve slack user", "error", err)
		a.postText(channel, errs.UserMessage(err))
		return
	}

	result, err := a.progress.Submit(ctx, user.ID, user.CurrentLesson, text)
	if err != nil {
		a.postText(channel, errs.UserMessage(err))
		return
	}

	a.postText(channel, feedback.FormatMessage(result.Feedback, result.Skills, result.PreviousLevels))

	if result.NextLesson != nil {
		a.postLesson(channel, result.NextLesson.ID)
	} else if a.graph.Successor(user.CurrentLesson) == "" {
		a.postText(channel, "🎓 You have completed the course! You can keep journaling on the final lesson any time.")
	}
}

// handleCommand processes slash commands: /resume, /journal, /progress, /help.
func (a *Adapter) handleCommand(w http.ResponseWriter, r *http.Request) {
	body, ok := a.verify(w, r)
	if !ok {
		return
	}
	// The verifier consumed the body; restore it before form parsing.
	r.Body = io.NopCloser(bytes.NewReader(body))

	cmd, err := slack.SlashCommandParse(r)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	user, err := a.progress.EnsureUser(models.PlatformSlack, cmd.UserID, cmd.UserName, "", "")
	if err != nil {
		a.respond(w, errs.UserMessage(err))
		return
	}

	switch cmd.Command {
	case "/resume":
		node, ok := a.graph.Get(user.CurrentLesson)
		if !ok {
			a.respond(w, "No content available right now.")
			return
		}
		a.respondBlocks(w, a.lessonBlocks(node))

	case "/journal":
		entries, err := a.progress.RecentEntries(user.ID, 5)
		if err != nil {
			a.respond(w, errs.UserMessage(err))
			return
		}
		if len(entries) == 0 {
			a.respond(w, "Your journal is empty so far. Reply to a lesson to write your first entry!")
			return
		}
		var sb strings.Builder
		sb.WriteString("*Your recent journal entries*\n")
		for _, e := range entries {
			fmt.Fprintf(&sb, "\n*%s* - %s\n%s\n", e.Lesson, e.Timestamp.Format("Jan 2"), e.Response)
		}
		a.respond(w, sb.String())

	case "/progress":
		p, err := a.progress.Get(user.ID)
		if err != nil {
			a.respond(w, errs.UserMessage(err))
			return
		}
		a.respond(w, fmt.Sprintf(
			"*Your progress*\n• Current lesson: %s\n• Completion: %.0f%%\n• Entries: %d\n• Streak: %d day(s), longest %d",
			p.CurrentLesson, p.CompletionRate, p.TotalEntries, p.Streak.Current, p.Streak.Longest,
		))

	case "/feedback":
		if strings.TrimSpace(cmd.Text) == "" {
			a.respond(w, "Usage: `/feedback <your message to the course team>`")
			return
		}
		if _, err := a.notes.Save(user.ID, cmd.Text); err != nil {
			a.respond(w, errs.UserMessage(err))
			return
		}
		a.respond(w, "🙏 Thank you! Your feedback has been recorded.")

	case "/help":
		a.respond(w, "Reply to any lesson message with your thoughts to move forward.\n`/resume` - current lesson\n`/journal` - recent entries\n`/progress` - progress and streak")

	default:
		a.respond(w, "Unknown command.")
	}
}

// lessonBlocks renders a lesson node with its task overlay as Block Kit.
func (a *Adapter) lessonBlocks(node models.LessonNode) []slack.Block {
	blocks := []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, node.Text, false, false), nil, nil),
	}

	tasks, err := a.tasks.ActiveForLesson(node.ID)
	if err != nil {
		a.log.Error("failed to load tasks for lesson", "lesson", node.ID, "error", err)
		return blocks
	}
	for _, task := range tasks {
		text := fmt.Sprintf("🏢 *Task from %s*\n%s", task.Company, task.Description)
		for _, req := range task.Requirements {
			text += "\n• " + req
		}
		blocks = append(blocks,
			slack.NewDividerBlock(),
			slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil),
		)
	}
	return blocks
}

// postLesson posts a lesson node to a channel.
func (a *Adapter) postLesson(channel, lessonID string) {
	node, ok := a.graph.Get(lessonID)
	if !ok {
		return
	}
	if _, _, err := a.client.PostMessage(channel, slack.MsgOptionBlocks(a.lessonBlocks(node)...)); err != nil {
		a.log.Error("failed to post lesson", "channel", channel, "error", err)
	}
}

func (a *Adapter) postText(channel, text string) {
	if _, _, err := a.client.PostMessage(channel, slack.MsgOptionText(text, false)); err != nil {
		a.log.Error("failed to post message", "channel", channel, "error", err)
	}
}

// respond writes an ephemeral text response to a slash command.
func (a *Adapter) respond(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"response_type": "ephemeral",
		"text":          text,
	})
}

// respondBlocks writes Block Kit content as a slash command response.
func (a *Adapter) respondBlocks(w http.ResponseWriter, blocks []slack.Block) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"response_type": "in_channel",
		"blocks":        blocks,
	})
}
