package dailytask

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/tutorbot/internal/grader"
	"github.com/abhisek/tutorbot/internal/level"
	"github.com/abhisek/tutorbot/internal/llm"
	"github.com/abhisek/tutorbot/internal/logger"
	"github.com/abhisek/tutorbot/internal/store"
)

// ErrNoPendingTask means the learner has no daily task to answer or skip.
var ErrNoPendingTask = errors.New("no pending daily task")

// Grader judges one answer.
type Grader interface {
	Grade(ctx context.Context, question, answer string) (grader.Verdict, error)
}

// Outcome is the result of answering a daily task.
type Outcome struct {
	Verdict  grader.Verdict
	Question string

	// Delta is the points won or lost. Zero when ungraded.
	Delta int

	Score         int
	Level         level.Level
	PreviousLevel level.Level
}

// LevelChanged reports whether the answer moved the learner to a new tier.
func (o Outcome) LevelChanged() bool {
	return o.Verdict.Graded() && o.Level != o.PreviousLevel
}

// Updater grades daily-task answers and applies the score change.
type Updater struct {
	users  store.UserRepo
	grader Grader
	deltas level.Deltas
	now    func() time.Time
	log    *logger.Logger
}

// NewUpdater creates an Updater. A nil now uses time.Now; log may be nil.
func NewUpdater(users store.UserRepo, g Grader, deltas level.Deltas, now func() time.Time, log *logger.Logger) *Updater {
	if deltas == nil {
		deltas = level.DefaultDeltas()
	}
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Updater{users: users, grader: g, deltas: deltas, now: now, log: log}
}

// Answer grades answer against the learner's pending task. A correct answer
// adds the tier's delta, an incorrect one subtracts it (never below zero).
// An ungraded answer changes nothing and the task stays pending.
func (u *Updater) Answer(ctx context.Context, userID int64, answer string) (Outcome, error) {
	user, err := u.users.Get(ctx, userID)
	if err != nil {
		return Outcome{}, fmt.Errorf("look up user: %w", err)
	}
	if user == nil || !user.HasPendingTask() {
		return Outcome{}, ErrNoPendingTask
	}

	out := Outcome{
		Question:      user.CurrentQuestion,
		Score:         user.Score,
		Level:         user.Level,
		PreviousLevel: user.Level,
	}

	verdict, gerr := u.grader.Grade(llm.WithPurpose(ctx, grader.PurposeGradeTask), user.CurrentQuestion, answer)
	out.Verdict = verdict
	if !verdict.Graded() {
		u.log.Warn("daily task answer ungraded", "user_id", userID, "error", gerr)
		return out, nil
	}

	correct := verdict == grader.VerdictCorrect
	out.Delta = u.deltas.For(user.Level)
	out.Score = level.Apply(user.Score, out.Delta, correct)
	out.Level = level.FromScore(out.Score)

	settled, err := u.users.SettleTask(ctx, store.TaskSettlement{
		UserID:   userID,
		Question: user.CurrentQuestion,
		Answer:   answer,
		Correct:  correct,
		Score:    out.Score,
		Level:    out.Level,
		At:       u.now(),
	})
	if err != nil {
		return Outcome{}, err
	}
	if !settled {
		// Skipped or unsubscribed while grading.
		return Outcome{}, ErrNoPendingTask
	}

	u.log.Info("daily task settled",
		"user_id", userID, "verdict", verdict, "score", out.Score, "level", out.Level)
	return out, nil
}

// Skip drops the pending task without scoring or logging it.
func (u *Updater) Skip(ctx context.Context, userID int64) error {
	cleared, err := u.users.ClearTask(ctx, userID)
	if err != nil {
		return err
	}
	if !cleared {
		return ErrNoPendingTask
	}
	u.log.Info("daily task skipped", "user_id", userID)
	return nil
}
