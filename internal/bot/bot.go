// Package bot routes learner commands, button presses and answers to the
// assessment flow, the daily-task updater and the question bank. It knows
// nothing about the chat transport beyond the Messenger interface.
package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/tutorbot/internal/assessment"
	"github.com/abhisek/tutorbot/internal/dailytask"
	"github.com/abhisek/tutorbot/internal/logger"
	"github.com/abhisek/tutorbot/internal/store"
)

// Asker answers free-form questions.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// Config controls a Bot.
type Config struct {
	// Admins may manage the question bank.
	Admins map[int64]bool

	// LeaderboardSize is the number of rows in /top_learners. Defaults to 10.
	LeaderboardSize int
}

// Deps are the services a Bot routes to.
type Deps struct {
	Assessment *assessment.Flow
	Tasks      *dailytask.Updater
	Asker      Asker
	Users      store.UserRepo
	Questions  store.QuestionRepo
}

// Bot handles incoming updates for every learner. Updates from one learner
// are handled one at a time; different learners proceed in parallel.
type Bot struct {
	cfg   Config
	deps  Deps
	out   Messenger
	log   *logger.Logger
	locks *keyedMutex
}

// New creates a Bot that replies through out. log may be nil.
func New(cfg Config, deps Deps, out Messenger, log *logger.Logger) *Bot {
	if cfg.LeaderboardSize <= 0 {
		cfg.LeaderboardSize = 10
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Bot{cfg: cfg, deps: deps, out: out, log: log, locks: newKeyedMutex()}
}

// Handle processes one update. Failures are logged and answered with a
// generic apology; they never stop the caller's update loop.
func (b *Bot) Handle(ctx context.Context, in Incoming) {
	unlock := b.locks.Lock(in.UserID)
	defer unlock()

	var err error
	switch {
	case in.Callback != "":
		err = b.handleCallback(ctx, in)
	case in.Command != "":
		err = b.handleCommand(ctx, in)
	default:
		err = b.handleText(ctx, in)
	}
	if err == nil {
		return
	}

	b.log.Error("handle update failed",
		"user_id", in.UserID, "command", in.Command, "callback", in.Callback, "error", err)
	if _, serr := b.out.Send(ctx, Reply{ChatID: in.ChatID, Text: msgGenericError}); serr != nil {
		b.log.Warn("send apology failed", "user_id", in.UserID, "error", serr)
	}
}

// NotifyTask delivers a daily task. Private chats share the learner's id.
func (b *Bot) NotifyTask(ctx context.Context, userID int64, question string) error {
	if _, err := b.out.Send(ctx, Reply{ChatID: userID, Text: TaskMessage(question)}); err != nil {
		return fmt.Errorf("deliver task to %d: %w", userID, err)
	}
	return nil
}

var _ dailytask.Notifier = (*Bot)(nil)

func (b *Bot) handleCommand(ctx context.Context, in Incoming) error {
	switch in.Command {
	case "start":
		return b.start(ctx, in)
	case "cancel":
		return b.cancel(ctx, in)
	case "ask", "ask_cohere":
		return b.ask(ctx, in)
	case "my_level":
		return b.myLevel(ctx, in)
	case "top_learners":
		return b.topLearners(ctx, in)
	case "unsubscribe":
		return b.say(ctx, in, Reply{Text: msgUnsubscribeAsk, Markdown: true, Buttons: unsubscribeButtons})
	case "skip":
		return b.skip(ctx, in)
	case "task_interval":
		return b.taskInterval(ctx, in)
	case "help":
		return b.help(ctx, in)
	case "insert_q", "delete_q", "get_questions":
		if !b.cfg.Admins[in.UserID] {
			return b.text(ctx, in, msgAdminOnly)
		}
		switch in.Command {
		case "insert_q":
			return b.insertQuestion(ctx, in)
		case "delete_q":
			return b.deleteQuestion(ctx, in)
		default:
			return b.listQuestions(ctx, in)
		}
	}
	return b.text(ctx, in, msgUnknownCommand)
}

func (b *Bot) handleCallback(ctx context.Context, in Incoming) error {
	switch in.Callback {
	case CallbackStartAssessment:
		return b.consent(ctx, in, true)
	case CallbackDeclineAssessment:
		return b.consent(ctx, in, false)
	case CallbackUnsubscribe:
		return b.unsubscribe(ctx, in)
	case CallbackStay:
		return b.edit(ctx, in, msgStay)
	}
	b.log.Warn("unknown callback", "user_id", in.UserID, "data", in.Callback)
	return nil
}

// handleText routes a plain message: an assessment in progress takes
// precedence over a pending daily task.
func (b *Bot) handleText(ctx context.Context, in Incoming) error {
	if phase, ok := b.deps.Assessment.Phase(in.UserID); ok {
		if phase == assessment.PhaseAwaitingConsent {
			return b.text(ctx, in, msgChooseOption)
		}
		return b.assessmentAnswer(ctx, in)
	}
	return b.taskAnswer(ctx, in)
}

func (b *Bot) say(ctx context.Context, in Incoming, r Reply) error {
	r.ChatID = in.ChatID
	_, err := b.out.Send(ctx, r)
	return err
}

func (b *Bot) text(ctx context.Context, in Incoming, text string) error {
	return b.say(ctx, in, Reply{Text: text})
}

// edit replaces the message carrying the pressed button, or sends a new
// message when the transport did not report one.
func (b *Bot) edit(ctx context.Context, in Incoming, text string) error {
	return b.say(ctx, in, Reply{Text: text, Edit: in.Message})
}

func isNoSession(err error) bool {
	return errors.Is(err, assessment.ErrNoSession)
}
