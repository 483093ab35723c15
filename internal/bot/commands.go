package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/abhisek/tutorbot/internal/assessment"
	"github.com/abhisek/tutorbot/internal/dailytask"
	"github.com/abhisek/tutorbot/internal/grader"
	"github.com/abhisek/tutorbot/internal/level"
	"github.com/abhisek/tutorbot/internal/store"
)

// Bounds for /task_interval, in hours.
const (
	minInterval = 1
	maxInterval = 720
)

func (b *Bot) start(ctx context.Context, in Incoming) error {
	res, err := b.deps.Assessment.Begin(ctx, in.UserID, in.Name)
	if err != nil {
		return err
	}
	if res.Existing {
		name := in.Name
		if u, err := b.deps.Users.Get(ctx, in.UserID); err == nil && u != nil {
			name = u.Name
		}
		return b.text(ctx, in, welcomeBack(name))
	}
	name := in.Name
	if name == "" {
		name = "there"
	}
	return b.say(ctx, in, Reply{Text: assessmentOffer(name, res.BatterySize), Buttons: offerButtons})
}

func (b *Bot) consent(ctx context.Context, in Incoming, accept bool) error {
	q, err := b.deps.Assessment.Consent(in.UserID, accept)
	if isNoSession(err) {
		return b.edit(ctx, in, msgOfferExpired)
	}
	if err != nil {
		return err
	}
	if !accept {
		return b.edit(ctx, in, msgAssessmentLater)
	}
	if err := b.edit(ctx, in, msgAssessmentBegin); err != nil {
		return err
	}
	return b.text(ctx, in, formatQuestion(q))
}

func (b *Bot) cancel(ctx context.Context, in Incoming) error {
	if b.deps.Assessment.Cancel(in.UserID) {
		return b.text(ctx, in, msgAssessmentCancel)
	}
	return b.text(ctx, in, msgNothingToCancel)
}

func (b *Bot) assessmentAnswer(ctx context.Context, in Incoming) error {
	res, err := b.deps.Assessment.Answer(ctx, in.UserID, in.Text)
	if isNoSession(err) || errors.Is(err, assessment.ErrAwaitingConsent) {
		// The session ended while the answer was graded.
		return nil
	}
	if err != nil {
		return err
	}
	if res.Ungraded {
		return b.text(ctx, in, msgUngraded)
	}

	verdict := msgWrong
	if res.Correct {
		verdict = msgCorrect
	}
	if err := b.text(ctx, in, verdict); err != nil {
		return err
	}
	if res.Done {
		return b.text(ctx, in, assessmentDone(string(res.Level)))
	}
	if res.Next != nil {
		return b.text(ctx, in, formatQuestion(res.Next))
	}
	return nil
}

func (b *Bot) taskAnswer(ctx context.Context, in Incoming) error {
	out, err := b.deps.Tasks.Answer(ctx, in.UserID, in.Text)
	if errors.Is(err, dailytask.ErrNoPendingTask) {
		return b.text(ctx, in, msgNoTask)
	}
	if err != nil {
		return err
	}
	if !out.Verdict.Graded() {
		return b.text(ctx, in, msgUngraded)
	}

	msg := taskWrong(out.Delta, out.Score)
	if out.Verdict == grader.VerdictCorrect {
		msg = taskCorrect(out.Delta, out.Score)
	}
	if out.LevelChanged() {
		msg += fmt.Sprintf("\nYour level is now %s.", out.Level)
	}
	return b.text(ctx, in, msg)
}

func (b *Bot) skip(ctx context.Context, in Incoming) error {
	err := b.deps.Tasks.Skip(ctx, in.UserID)
	if errors.Is(err, dailytask.ErrNoPendingTask) {
		return b.text(ctx, in, msgNoTaskToSkip)
	}
	if err != nil {
		return err
	}
	return b.text(ctx, in, msgTaskSkipped)
}

func (b *Bot) ask(ctx context.Context, in Incoming) error {
	if in.Args == "" {
		return b.text(ctx, in, msgAskUsage)
	}
	ref, err := b.out.Send(ctx, Reply{ChatID: in.ChatID, Text: msgThinking})
	if err != nil {
		return err
	}

	answer, err := b.deps.Asker.Ask(ctx, in.Args)
	if err != nil {
		b.log.Warn("ask failed", "user_id", in.UserID, "error", err)
		answer = msgAskFailed
	}
	_, err = b.out.Send(ctx, Reply{ChatID: in.ChatID, Text: answer, Edit: &ref})
	return err
}

func (b *Bot) myLevel(ctx context.Context, in Incoming) error {
	u, err := b.deps.Users.Get(ctx, in.UserID)
	if err != nil {
		return err
	}
	if u == nil {
		return b.text(ctx, in, msgNotSubscribed)
	}
	return b.text(ctx, in, levelLine(string(u.Level), u.Score))
}

func (b *Bot) topLearners(ctx context.Context, in Incoming) error {
	users, err := b.deps.Users.Top(ctx, b.cfg.LeaderboardSize)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return b.text(ctx, in, msgNoLearners)
	}
	return b.say(ctx, in, Reply{Text: leaderboard(users), Markdown: true})
}

func (b *Bot) unsubscribe(ctx context.Context, in Incoming) error {
	removed, err := b.deps.Users.Delete(ctx, in.UserID)
	if err != nil {
		return err
	}
	b.deps.Assessment.Drop(in.UserID)
	if !removed {
		return b.edit(ctx, in, msgNotSubscribed)
	}
	b.log.Info("learner unsubscribed", "user_id", in.UserID)
	return b.edit(ctx, in, msgUnsubscribed)
}

func (b *Bot) taskInterval(ctx context.Context, in Incoming) error {
	hours, err := strconv.Atoi(in.Args)
	if err != nil || hours < minInterval || hours > maxInterval {
		return b.text(ctx, in, msgIntervalUsage)
	}
	ok, err := b.deps.Users.SetInterval(ctx, in.UserID, hours)
	if err != nil {
		return err
	}
	if !ok {
		return b.text(ctx, in, msgNotSubscribed)
	}
	return b.text(ctx, in, fmt.Sprintf("You will get a task every %d hours.", hours))
}

func (b *Bot) help(ctx context.Context, in Incoming) error {
	text := helpText
	if b.cfg.Admins[in.UserID] {
		text += adminHelpText
	}
	return b.text(ctx, in, text)
}

// insertQuestion takes the last word of the arguments as the tier.
func (b *Bot) insertQuestion(ctx context.Context, in Incoming) error {
	i := strings.LastIndexAny(in.Args, " \t\n")
	if i < 0 {
		return b.text(ctx, in, msgInsertUsage)
	}
	text := strings.TrimSpace(in.Args[:i])
	lvl, err := level.Parse(in.Args[i+1:])
	if err != nil || text == "" {
		return b.text(ctx, in, msgInsertUsage)
	}

	added, err := b.deps.Questions.Insert(ctx, text, lvl)
	if err != nil {
		return err
	}
	if !added {
		return b.text(ctx, in, msgDuplicate)
	}
	b.log.Info("question added", "admin_id", in.UserID, "level", lvl)
	return b.text(ctx, in, fmt.Sprintf("Question added: '%s' with level: %s", text, lvl))
}

func (b *Bot) deleteQuestion(ctx context.Context, in Incoming) error {
	id, err := strconv.Atoi(in.Args)
	if err != nil || id <= 0 {
		return b.text(ctx, in, msgDeleteUsage)
	}
	err = b.deps.Questions.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return b.text(ctx, in, fmt.Sprintf("No question with id %d.", id))
	}
	if err != nil {
		return err
	}
	b.log.Info("question deleted", "admin_id", in.UserID, "question_id", id)
	return b.text(ctx, in, fmt.Sprintf("The question with id %d is deleted.", id))
}

func (b *Bot) listQuestions(ctx context.Context, in Incoming) error {
	qs, err := b.deps.Questions.List(ctx)
	if err != nil {
		return err
	}
	if len(qs) == 0 {
		return b.text(ctx, in, msgNoQuestions)
	}
	for _, page := range questionPages(qs) {
		if err := b.text(ctx, in, page); err != nil {
			return err
		}
	}
	return nil
}

func formatQuestion(q *assessment.Question) string {
	return fmt.Sprintf("Question %d of %d:\n%s", q.Number, q.Total, q.Text)
}
