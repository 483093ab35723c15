// Package assessment runs the weighted placement quiz that turns a new
// chat identity into a subscribed learner.
package assessment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/tutorbot/internal/grader"
	"github.com/abhisek/tutorbot/internal/level"
	"github.com/abhisek/tutorbot/internal/llm"
	"github.com/abhisek/tutorbot/internal/logger"
	"github.com/abhisek/tutorbot/internal/metrics"
	"github.com/abhisek/tutorbot/internal/questionbank"
	"github.com/abhisek/tutorbot/internal/store"
)

var (
	// ErrNoSession means the learner has no assessment in the needed phase.
	ErrNoSession = errors.New("no assessment in progress")

	// ErrAwaitingConsent means the offer has not been answered yet.
	ErrAwaitingConsent = errors.New("assessment not started")
)

// defaultName is stored when the chat identity has no display name.
const defaultName = "no_name"

// Grader judges one answer.
type Grader interface {
	Grade(ctx context.Context, question, answer string) (grader.Verdict, error)
}

// Config controls a Flow.
type Config struct {
	// Battery is asked in order. Defaults to questionbank.Assessment.
	Battery []questionbank.Weighted

	// DefaultIntervalHours is the task interval given to new learners.
	DefaultIntervalHours int

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Flow tracks in-flight assessments and finalizes them into users.
type Flow struct {
	mu       sync.Mutex
	sessions map[int64]*Session

	battery  []questionbank.Weighted
	interval int
	now      func() time.Time

	grader  Grader
	users   store.UserRepo
	answers store.AnswerRepo
	log     *logger.Logger
	metrics *metrics.Metrics
}

// New creates a Flow. log and m may be nil.
func New(cfg Config, g Grader, users store.UserRepo, answers store.AnswerRepo, log *logger.Logger, m *metrics.Metrics) *Flow {
	if len(cfg.Battery) == 0 {
		cfg.Battery = questionbank.Assessment
	}
	if cfg.DefaultIntervalHours <= 0 {
		cfg.DefaultIntervalHours = 24
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Flow{
		sessions: make(map[int64]*Session),
		battery:  cfg.Battery,
		interval: cfg.DefaultIntervalHours,
		now:      cfg.Now,
		grader:   g,
		users:    users,
		answers:  answers,
		log:      log,
		metrics:  m,
	}
}

// Begin handles /start. A subscribed learner is only greeted. Anyone else
// gets a fresh session awaiting consent, replacing any earlier one.
func (f *Flow) Begin(ctx context.Context, userID int64, name string) (BeginResult, error) {
	u, err := f.users.Get(ctx, userID)
	if err != nil {
		return BeginResult{}, fmt.Errorf("look up user: %w", err)
	}
	if u != nil {
		f.Drop(userID)
		return BeginResult{Existing: true}, nil
	}

	if name == "" {
		name = defaultName
	}
	s := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Phase:     PhaseAwaitingConsent,
		StartedAt: f.now(),
	}

	f.mu.Lock()
	_, restarted := f.sessions[userID]
	f.sessions[userID] = s
	n := len(f.sessions)
	f.mu.Unlock()

	f.metrics.SessionsActive(n)
	f.log.Info("assessment offered", "user_id", userID, "session_id", s.ID, "restarted", restarted)
	return BeginResult{Restarted: restarted, BatterySize: len(f.battery)}, nil
}

// Consent answers the offer. Accepting returns the first question;
// declining drops the session and returns nil.
func (f *Flow) Consent(userID int64, accept bool) (*Question, error) {
	f.mu.Lock()
	s, ok := f.sessions[userID]
	if !ok || s.Phase != PhaseAwaitingConsent {
		f.mu.Unlock()
		return nil, ErrNoSession
	}
	if !accept {
		delete(f.sessions, userID)
		n := len(f.sessions)
		f.mu.Unlock()
		f.metrics.SessionsActive(n)
		f.log.Info("assessment declined", "user_id", userID, "session_id", s.ID)
		return nil, nil
	}
	s.Phase = PhaseInProgress
	s.Index = 0
	s.Score = 0
	f.mu.Unlock()

	f.log.Info("assessment started", "user_id", userID, "session_id", s.ID)
	return f.question(0), nil
}

// Answer grades the reply to the current question. Correct answers add the
// question's weight. Every graded answer is logged. After the last question
// the learner is created with the level of the final score.
func (f *Flow) Answer(ctx context.Context, userID int64, answer string) (AnswerResult, error) {
	f.mu.Lock()
	s, ok := f.sessions[userID]
	if !ok {
		f.mu.Unlock()
		return AnswerResult{}, ErrNoSession
	}
	if s.Phase != PhaseInProgress {
		f.mu.Unlock()
		return AnswerResult{}, ErrAwaitingConsent
	}
	snap := *s
	if snap.Index >= len(f.battery) {
		delete(f.sessions, userID)
		f.mu.Unlock()
		return AnswerResult{}, ErrNoSession
	}
	f.mu.Unlock()

	q := f.battery[snap.Index]
	verdict, err := f.grader.Grade(llm.WithPurpose(ctx, grader.PurposeGradeAssessment), q.Text, answer)
	if !verdict.Graded() {
		f.log.Warn("assessment answer ungraded",
			"user_id", userID, "session_id", snap.ID, "question", snap.Index+1, "error", err)
		return AnswerResult{Ungraded: true, Next: f.question(snap.Index)}, nil
	}
	correct := verdict == grader.VerdictCorrect

	if err := f.answers.Append(ctx, store.AnswerRecord{
		UserID:    userID,
		Question:  q.Text,
		Answer:    answer,
		Correct:   correct,
		Flow:      store.FlowAssessment,
		Timestamp: f.now(),
	}); err != nil {
		return AnswerResult{}, fmt.Errorf("record assessment answer: %w", err)
	}

	f.mu.Lock()
	cur, ok := f.sessions[userID]
	if !ok || cur.ID != snap.ID || cur.Index != snap.Index {
		// Cancelled or restarted while grading.
		f.mu.Unlock()
		return AnswerResult{}, ErrNoSession
	}
	if correct {
		cur.Score += q.Weight
	}
	cur.Index++
	done := cur.Index >= len(f.battery)
	final := *cur
	f.mu.Unlock()

	res := AnswerResult{Correct: correct, Score: final.Score}
	if !done {
		res.Next = f.question(final.Index)
		return res, nil
	}

	lvl, err := f.finalize(ctx, final)
	if err != nil {
		f.rewind(final, snap)
		return AnswerResult{}, err
	}
	res.Done = true
	res.Level = lvl
	return res, nil
}

func (f *Flow) finalize(ctx context.Context, s Session) (level.Level, error) {
	lvl := level.FromScore(s.Score)
	now := f.now()
	err := f.users.Create(ctx, &store.User{
		ID:             s.UserID,
		Name:           s.Name,
		Score:          s.Score,
		Level:          lvl,
		JoinTime:       now,
		LastAssessment: now,
		TaskInterval:   f.interval,
		IsExpert:       lvl.IsExpert(),
	})
	if err != nil {
		return "", fmt.Errorf("create learner: %w", err)
	}

	f.Drop(s.UserID)
	f.log.Info("assessment completed",
		"user_id", s.UserID, "session_id", s.ID, "score", s.Score, "level", lvl,
		"duration", f.now().Sub(s.StartedAt).Round(time.Second))
	return lvl, nil
}

// rewind puts a session that failed to finalize back on its last question
// so the next answer retries it.
func (f *Flow) rewind(final, prev Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.sessions[final.UserID]
	if !ok || cur.ID != final.ID || cur.Index != final.Index {
		return
	}
	cur.Index = prev.Index
	cur.Score = prev.Score
}

// Cancel ends any session. Reports whether one existed.
func (f *Flow) Cancel(userID int64) bool {
	existed := f.Drop(userID)
	if existed {
		f.log.Info("assessment cancelled", "user_id", userID)
	}
	return existed
}

// Drop forgets the learner's session. Reports whether one existed.
func (f *Flow) Drop(userID int64) bool {
	f.mu.Lock()
	_, ok := f.sessions[userID]
	delete(f.sessions, userID)
	n := len(f.sessions)
	f.mu.Unlock()
	if ok {
		f.metrics.SessionsActive(n)
	}
	return ok
}

// Phase returns the learner's session phase, if any.
func (f *Flow) Phase(userID int64) (Phase, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[userID]
	if !ok {
		return 0, false
	}
	return s.Phase, true
}

// Active returns the number of open sessions.
func (f *Flow) Active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

// BatterySize returns the number of questions asked.
func (f *Flow) BatterySize() int {
	return len(f.battery)
}

func (f *Flow) question(i int) *Question {
	return &Question{Text: f.battery[i].Text, Number: i + 1, Total: len(f.battery)}
}
